package source

import (
	"context"

	"github.com/civicgrid/foresight/internal/domain/observation"
	"github.com/civicgrid/foresight/pkg/logger"
	"github.com/civicgrid/foresight/pkg/metrics"
)

// FallbackSource serves from the primary source and degrades to the
// secondary when the primary cannot supply data. Each degradation is
// logged and counted; it is an operational signal, not a silent default.
type FallbackSource struct {
	primary   Source
	secondary Source
	log       logger.Logger
}

// NewFallbackSource wraps primary with a degradation path to secondary.
func NewFallbackSource(primary, secondary Source, log logger.Logger) *FallbackSource {
	if log == nil {
		log = logger.Nop()
	}
	return &FallbackSource{primary: primary, secondary: secondary, log: log}
}

func (f *FallbackSource) Observations(ctx context.Context) ([]observation.Observation, error) {
	obs, err := f.primary.Observations(ctx)
	if err != nil {
		f.degrade(ctx, "observations", err)
		return f.secondary.Observations(ctx)
	}
	if len(obs) == 0 {
		f.degrade(ctx, "observations", ErrDataUnavailable)
		return f.secondary.Observations(ctx)
	}
	return obs, nil
}

func (f *FallbackSource) WeatherByDate(ctx context.Context) (map[string]observation.Weather, error) {
	w, err := f.primary.WeatherByDate(ctx)
	if err != nil {
		f.degrade(ctx, "weather", err)
		return f.secondary.WeatherByDate(ctx)
	}
	return w, nil
}

func (f *FallbackSource) DemographicsByCell(ctx context.Context) (map[string]observation.Demographics, error) {
	d, err := f.primary.DemographicsByCell(ctx)
	if err != nil {
		f.degrade(ctx, "demographics", err)
		return f.secondary.DemographicsByCell(ctx)
	}
	return d, nil
}

func (f *FallbackSource) degrade(ctx context.Context, component string, err error) {
	metrics.RecordUpstreamFailure(component)
	metrics.RecordSyntheticFallback(component)
	f.log.Warn(ctx, "primary source unavailable, using synthetic data",
		logger.String("component", component),
		logger.Error(err),
	)
}

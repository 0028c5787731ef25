// Package weather provides the current-conditions providers used to
// enrich prediction requests: a live HTTP client, a deterministic demo
// provider, and a fallback wrapper between them.
package weather

import (
	"context"
	"errors"

	"github.com/civicgrid/foresight/internal/domain/observation"
	"github.com/civicgrid/foresight/pkg/logger"
	"github.com/civicgrid/foresight/pkg/metrics"
)

// ErrUnavailable means the provider could not supply conditions for the
// location.
var ErrUnavailable = errors.New("weather unavailable")

// Provider supplies current conditions for a coordinate.
type Provider interface {
	Current(ctx context.Context, lat, lng float64) (observation.Weather, error)
}

// FallbackProvider serves from the primary provider and degrades to the
// secondary on failure.
type FallbackProvider struct {
	primary   Provider
	secondary Provider
	log       logger.Logger
}

// NewFallbackProvider wraps primary with a degradation path to secondary.
func NewFallbackProvider(primary, secondary Provider, log logger.Logger) *FallbackProvider {
	if log == nil {
		log = logger.Nop()
	}
	return &FallbackProvider{primary: primary, secondary: secondary, log: log}
}

func (f *FallbackProvider) Current(ctx context.Context, lat, lng float64) (observation.Weather, error) {
	w, err := f.primary.Current(ctx, lat, lng)
	if err != nil {
		metrics.RecordUpstreamFailure("weather")
		f.log.Warn(ctx, "weather provider unavailable, using demo conditions", logger.Error(err))
		return f.secondary.Current(ctx, lat, lng)
	}
	return w, nil
}

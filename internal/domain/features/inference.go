package features

import (
	"time"

	"github.com/civicgrid/foresight/internal/domain/observation"
	"github.com/civicgrid/foresight/internal/domain/schema"
)

// InferenceContext carries everything known about a location at request
// time. Weather and History are optional; Now is the processing time and
// must be injected so that identical inputs produce identical vectors.
type InferenceContext struct {
	Latitude  float64
	Longitude float64
	Weather   *observation.Weather
	History   *observation.HistoricalContext
	Now       time.Time
}

// InferenceVector builds the single feature vector for an arbitrary
// location. It uses the same schema and the same derivation formulas as
// Build; columns with no inference-time counterpart (demographics, priority,
// category indicators) stay zero-filled, exactly as a failed join would
// leave them during training.
func (p *Pipeline) InferenceVector(in InferenceContext) (schema.Vector, error) {
	v := p.schema.NewVector()

	applyTemporal(v, in.Now)
	applySpatial(v, in.Latitude, in.Longitude, p.centerLat, p.centerLng)

	w := observation.Weather{
		Temperature:   DefaultTemperature,
		Precipitation: DefaultPrecipitation,
		Humidity:      DefaultHumidity,
	}
	if in.Weather != nil {
		w = *in.Weather
	}
	// With a single sample the rolling average degenerates to the sample.
	applyWeather(v, w, w.Precipitation)

	resolution := DefaultResolutionDays
	if in.History != nil {
		_ = v.Set(ColTotalIssues, float64(in.History.TotalIssues))
		if in.History.AvgResolutionDays > 0 {
			resolution = in.History.AvgResolutionDays
		}
		if in.History.RecentTrend == "increasing" {
			_ = v.Set(ColTrendIncreasing, 1)
		}
	}
	_ = v.Set(ColResolutionTime, resolution)
	_ = v.Set(ColAvgResolutionTime, resolution)

	if err := p.schema.Conform(v); err != nil {
		return schema.Vector{}, err
	}
	return v, nil
}

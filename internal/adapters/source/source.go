// Package source provides the training-data adapters: a Postgres-backed
// store of reported issues with their joined context, a seeded synthetic
// generator for environments without a database, and a fallback wrapper
// that degrades from the former to the latter.
package source

import (
	"context"
	"errors"

	"github.com/civicgrid/foresight/internal/domain/observation"
)

// ErrDataUnavailable means the backing store could not supply training
// data. Callers may degrade to a synthetic source.
var ErrDataUnavailable = errors.New("training data unavailable")

// Source supplies the three training-data inputs: the issue records, the
// per-day weather records keyed by date, and the per-cell demographics
// keyed by location key.
type Source interface {
	Observations(ctx context.Context) ([]observation.Observation, error)
	WeatherByDate(ctx context.Context) (map[string]observation.Weather, error)
	DemographicsByCell(ctx context.Context) (map[string]observation.Demographics, error)
}

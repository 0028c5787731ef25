package source

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/civicgrid/foresight/internal/domain/category"
	"github.com/civicgrid/foresight/internal/domain/observation"
)

// Synthetic data envelope. Coordinates cover the metropolitan bounding
// box; weather and demographics are drawn from distributions shaped like
// the historical records they stand in for.
const (
	DefaultSyntheticSamples = 1000

	syntheticLatMin = 23.2
	syntheticLatMax = 23.5
	syntheticLngMin = 85.2
	syntheticLngMax = 85.4

	tempMean    = 25.0
	tempStddev  = 8.0
	precipMean  = 5.0
	humidityMin = 40.0
	humidityMax = 90.0

	densityMin  = 100.0
	densityMax  = 5000.0
	infraAgeMin = 5.0
	infraAgeMax = 50.0

	resolutionMeanDays = 3.0

	// hotspotShare of observations cluster into recurring problem cells;
	// the rest scatter across the box. Clustering is what gives the
	// sequence model per-cell history to learn from.
	hotspotShare  = 0.7
	hotspotJitter = 0.002
)

// hotspotCenters sit safely inside their two-decimal location cells, so
// jittered draws never straddle a cell boundary.
var hotspotCenters = [][2]float64{
	{23.232, 85.212},
	{23.262, 85.242},
	{23.292, 85.272},
	{23.322, 85.302},
	{23.342, 85.312},
	{23.372, 85.332},
	{23.412, 85.362},
	{23.452, 85.382},
}

// SyntheticSource generates a reproducible training corpus. The full
// corpus is materialized at construction from the seed, so repeated calls
// and concurrent readers see identical data.
type SyntheticSource struct {
	obs          []observation.Observation
	weather      map[string]observation.Weather
	demographics map[string]observation.Demographics
}

// NewSyntheticSource generates a corpus of n samples spanning one year.
func NewSyntheticSource(seed int64, n int) *SyntheticSource {
	if n <= 0 {
		n = DefaultSyntheticSamples
	}
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible synthetic data

	start := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	spanHours := int(end.Sub(start).Hours())

	s := &SyntheticSource{
		weather:      make(map[string]observation.Weather),
		demographics: make(map[string]observation.Demographics),
	}

	// Daily weather for the full year, so every observation's date joins.
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		s.weather[d.Format("2006-01-02")] = observation.Weather{
			Temperature:   rng.NormFloat64()*tempStddev + tempMean,
			Precipitation: rng.ExpFloat64() * precipMean,
			Humidity:      uniform(rng, humidityMin, humidityMax),
			WindSpeed:     uniform(rng, 0, 20),
			Pressure:      uniform(rng, 995, 1025),
		}
	}

	cats := category.All()
	prios := category.AllPriorities()
	s.obs = make([]observation.Observation, 0, n)
	for i := 0; i < n; i++ {
		var lat, lng float64
		if rng.Float64() < hotspotShare {
			c := hotspotCenters[rng.Intn(len(hotspotCenters))]
			lat = c[0] + uniform(rng, -hotspotJitter, hotspotJitter)
			lng = c[1] + uniform(rng, -hotspotJitter, hotspotJitter)
		} else {
			lat = uniform(rng, syntheticLatMin, syntheticLatMax)
			lng = uniform(rng, syntheticLngMin, syntheticLngMax)
		}
		created := start.Add(time.Duration(rng.Intn(spanHours)) * time.Hour)

		o := observation.Observation{
			ID:             uuid.NewString(),
			CreatedAt:      created,
			Latitude:       lat,
			Longitude:      lng,
			Category:       cats[rng.Intn(len(cats))],
			Priority:       prios[rng.Intn(len(prios))],
			Status:         "resolved",
			ResolutionDays: math.Round(rng.ExpFloat64()*resolutionMeanDays*10) / 10,
			Upvotes:        rng.Intn(50),
			Confirmations:  rng.Intn(10),
		}
		s.obs = append(s.obs, o)

		key := o.LocationKey()
		if _, ok := s.demographics[key]; !ok {
			s.demographics[key] = observation.Demographics{
				PopulationDensity: uniform(rng, densityMin, densityMax),
				InfrastructureAge: uniform(rng, infraAgeMin, infraAgeMax),
				IncomeTier:        []string{"low", "medium", "high"}[rng.Intn(3)],
				Urban:             rng.Float64() < 0.6,
			}
		}
	}
	return s
}

// Observations returns the generated issue records.
func (s *SyntheticSource) Observations(ctx context.Context) ([]observation.Observation, error) {
	out := make([]observation.Observation, len(s.obs))
	copy(out, s.obs)
	return out, nil
}

// WeatherByDate returns the generated daily weather.
func (s *SyntheticSource) WeatherByDate(ctx context.Context) (map[string]observation.Weather, error) {
	out := make(map[string]observation.Weather, len(s.weather))
	for k, v := range s.weather {
		out[k] = v
	}
	return out, nil
}

// DemographicsByCell returns the generated per-cell demographics.
func (s *SyntheticSource) DemographicsByCell(ctx context.Context) (map[string]observation.Demographics, error) {
	out := make(map[string]observation.Demographics, len(s.demographics))
	for k, v := range s.demographics {
		out[k] = v
	}
	return out, nil
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

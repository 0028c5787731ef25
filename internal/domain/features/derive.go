package features

import (
	"math"
	"time"

	"github.com/civicgrid/foresight/internal/domain/observation"
	"github.com/civicgrid/foresight/internal/domain/schema"
)

// Weather derivation thresholds.
const (
	// HeavyRainThresholdMM is the precipitation above which the heavy-rain
	// flag is set. Shared with the fusion engine's fallback heuristic.
	HeavyRainThresholdMM = 20.0

	comfortMinC = 5.0
	comfortMaxC = 35.0

	rollingRainWindow = 3
)

// Documented defaults applied when optional inference inputs are missing.
const (
	DefaultTemperature    = 25.0
	DefaultHumidity       = 50.0
	DefaultPrecipitation  = 0.0
	DefaultResolutionDays = 3.0
)

// season buckets months into Winter(0)={12,1,2}, Spring(1)={3,4,5},
// Summer(2)={6,7,8}, Fall(3)={9,10,11}.
func season(m time.Month) float64 {
	switch m {
	case time.December, time.January, time.February:
		return 0
	case time.March, time.April, time.May:
		return 1
	case time.June, time.July, time.August:
		return 2
	default:
		return 3
	}
}

// timeOfDay buckets hours into Morning(0) 5-11, Afternoon(1) 12-16,
// Evening(2) 17-20, Night(3) otherwise.
func timeOfDay(hour int) float64 {
	switch {
	case hour >= 5 && hour < 12:
		return 0
	case hour >= 12 && hour < 17:
		return 1
	case hour >= 17 && hour < 21:
		return 2
	default:
		return 3
	}
}

func boolToFlag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func heavyRainFlag(precipitation float64) float64 {
	return boolToFlag(precipitation > HeavyRainThresholdMM)
}

func extremeTempFlag(temperature float64) float64 {
	return boolToFlag(temperature > comfortMaxC || temperature < comfortMinC)
}

// distanceFromCenter is the Euclidean distance in coordinate degrees from
// the configured reference center. It is a relative signal, not a geodesic
// distance.
func distanceFromCenter(lat, lng, centerLat, centerLng float64) float64 {
	return math.Sqrt((lat-centerLat)*(lat-centerLat) + (lng-centerLng)*(lng-centerLng))
}

// applyTemporal writes every time-derived column. Both the training
// pipeline and the inference adapter go through here; any divergence would
// be a train/serve-skew bug.
func applyTemporal(v schema.Vector, t time.Time) {
	_ = v.Set(ColYear, float64(t.Year()))
	_ = v.Set(ColMonth, float64(t.Month()))
	_ = v.Set(ColDayOfYear, float64(t.YearDay()))
	_ = v.Set(ColDayOfWeek, float64(t.Weekday()))
	_ = v.Set(ColIsWeekend, boolToFlag(t.Weekday() == time.Saturday || t.Weekday() == time.Sunday))
	_ = v.Set(ColHour, float64(t.Hour()))
	_ = v.Set(ColSeason, season(t.Month()))
	_ = v.Set(ColTimeOfDay, timeOfDay(t.Hour()))
}

func applySpatial(v schema.Vector, lat, lng, centerLat, centerLng float64) {
	_ = v.Set(ColLatitude, lat)
	_ = v.Set(ColLongitude, lng)
	_ = v.Set(ColDistanceFromCenter, distanceFromCenter(lat, lng, centerLat, centerLng))
}

func applyWeather(v schema.Vector, w observation.Weather, rainAvg float64) {
	_ = v.Set(ColTemperature, w.Temperature)
	_ = v.Set(ColPrecipitation, w.Precipitation)
	_ = v.Set(ColHumidity, w.Humidity)
	_ = v.Set(ColHeavyRain, heavyRainFlag(w.Precipitation))
	_ = v.Set(ColExtremeTemp, extremeTempFlag(w.Temperature))
	_ = v.Set(ColRain3DayAvg, rainAvg)
}

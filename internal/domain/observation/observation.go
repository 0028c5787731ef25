// Package observation contains the immutable historical issue records and
// their joined contextual attributes. Observations are training-only input;
// they are never mutated after ingestion.
package observation

import (
	"fmt"
	"time"

	"github.com/civicgrid/foresight/internal/domain/category"
)

// Weather holds the structured weather record joined onto an observation,
// and doubles as the shape returned by the forecast provider.
type Weather struct {
	Temperature   float64 `json:"temperature"`
	Precipitation float64 `json:"precipitation"`
	Humidity      float64 `json:"humidity"`
	WindSpeed     float64 `json:"wind_speed"`
	Pressure      float64 `json:"pressure"`
}

// Demographics holds location-cell attributes joined by location key.
type Demographics struct {
	PopulationDensity float64 `json:"population_density"`
	InfrastructureAge float64 `json:"infrastructure_age"`
	IncomeTier        string  `json:"income_tier"` // "low", "medium", "high"
	Urban             bool    `json:"urban"`
}

// Observation is one historical civic issue record.
type Observation struct {
	ID            string
	CreatedAt     time.Time
	Latitude      float64
	Longitude     float64
	Category      category.Category
	Priority      category.Priority
	Status        string
	ResolutionDays float64
	Upvotes       int
	Confirmations int

	// Joined attributes; nil when the corresponding join was not possible.
	Weather      *Weather
	Demographics *Demographics
}

// LocationKey returns the coordinate cell key used for joins: coordinates
// rounded to two decimals (roughly a 1.1 km cell). It is a join key, not a
// feature.
func (o Observation) LocationKey() string {
	return LocationKey(o.Latitude, o.Longitude)
}

// LocationKey builds the join key for an arbitrary coordinate pair.
func LocationKey(lat, lng float64) string {
	return fmt.Sprintf("%.2f_%.2f", lat, lng)
}

// DateKey returns the calendar-day key used for the weather join.
func (o Observation) DateKey() string {
	return o.CreatedAt.Format("2006-01-02")
}

// HistoricalContext summarizes recent issue activity around a location.
type HistoricalContext struct {
	TotalIssues       int            `json:"total_issues"`
	CategoryBreakdown map[string]int `json:"category_breakdown"`
	AvgResolutionDays float64        `json:"avg_resolution_time"`
	RecentTrend       string         `json:"recent_trend"` // "increasing" or "decreasing"
	PeakHours         []int          `json:"peak_hours"`
}

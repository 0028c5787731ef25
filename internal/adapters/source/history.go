package source

import (
	"context"
	"math"
	"sort"

	"github.com/jonboulle/clockwork"

	"github.com/civicgrid/foresight/internal/domain/observation"
	"github.com/civicgrid/foresight/pkg/logger"
)

// History summarization constants. The trend compares the most recent
// window against the one before it.
const (
	trendWindowDays = 30
	maxPeakHours    = 4
	kmPerDegreeLat  = 111.0
)

// ContextBuilder summarizes the issue history around a location into the
// compact HistoricalContext consumed at inference time.
type ContextBuilder struct {
	src   Source
	clock clockwork.Clock
	log   logger.Logger
}

// NewContextBuilder creates a history summarizer over the given source.
func NewContextBuilder(src Source, clock clockwork.Clock, log logger.Logger) *ContextBuilder {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ContextBuilder{src: src, clock: clock, log: log}
}

// Build summarizes the issues within radiusKm of the location. A location
// with no nearby history yields a zero-valued context, not an error.
func (b *ContextBuilder) Build(ctx context.Context, lat, lng, radiusKm float64) (*observation.HistoricalContext, error) {
	obs, err := b.src.Observations(ctx)
	if err != nil {
		return nil, err
	}

	latRadius := radiusKm / kmPerDegreeLat
	lngRadius := radiusKm / (kmPerDegreeLat * math.Cos(lat*math.Pi/180))

	now := b.clock.Now()
	recentCutoff := now.AddDate(0, 0, -trendWindowDays)
	previousCutoff := now.AddDate(0, 0, -2*trendWindowDays)

	hc := &observation.HistoricalContext{CategoryBreakdown: make(map[string]int)}
	hourCounts := make(map[int]int)
	var resolutionSum float64
	resolved := 0
	recent, previous := 0, 0

	for _, o := range obs {
		if math.Abs(o.Latitude-lat) > latRadius || math.Abs(o.Longitude-lng) > lngRadius {
			continue
		}
		hc.TotalIssues++
		hc.CategoryBreakdown[o.Category.String()]++
		hourCounts[o.CreatedAt.Hour()]++
		if o.ResolutionDays > 0 {
			resolutionSum += o.ResolutionDays
			resolved++
		}
		switch {
		case o.CreatedAt.After(recentCutoff):
			recent++
		case o.CreatedAt.After(previousCutoff):
			previous++
		}
	}

	if resolved > 0 {
		hc.AvgResolutionDays = resolutionSum / float64(resolved)
	}
	hc.RecentTrend = "decreasing"
	if recent > previous {
		hc.RecentTrend = "increasing"
	}
	hc.PeakHours = peakHours(hourCounts)
	return hc, nil
}

// peakHours returns the busiest reporting hours, most active first, ties
// broken by hour for stable output.
func peakHours(counts map[int]int) []int {
	type hc struct{ hour, count int }
	ranked := make([]hc, 0, len(counts))
	for h, c := range counts {
		ranked = append(ranked, hc{h, c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].hour < ranked[j].hour
	})
	if len(ranked) > maxPeakHours {
		ranked = ranked[:maxPeakHours]
	}
	hours := make([]int, len(ranked))
	for i, r := range ranked {
		hours[i] = r.hour
	}
	return hours
}

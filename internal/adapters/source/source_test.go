package source_test

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/smartystreets/goconvey/convey"

	"github.com/civicgrid/foresight/internal/adapters/source"
	"github.com/civicgrid/foresight/internal/domain/category"
	"github.com/civicgrid/foresight/internal/domain/observation"
)

func TestSyntheticSource(t *testing.T) {
	convey.Convey("Given a seeded synthetic source", t, func() {
		ctx := context.Background()
		src := source.NewSyntheticSource(42, 200)

		convey.Convey("When loading observations", func() {
			obs, err := src.Observations(ctx)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the corpus has the requested size", func() {
				convey.So(obs, convey.ShouldHaveLength, 200)
			})

			convey.Convey("Then coordinates stay within the metropolitan box", func() {
				for _, o := range obs {
					convey.So(o.Latitude, convey.ShouldBeBetweenOrEqual, 23.2, 23.5)
					convey.So(o.Longitude, convey.ShouldBeBetweenOrEqual, 85.2, 85.4)
					convey.So(o.Category.Valid(), convey.ShouldBeTrue)
					convey.So(o.ID, convey.ShouldNotBeEmpty)
				}
			})

			convey.Convey("Then every observation's date has a weather record", func() {
				weather, err := src.WeatherByDate(ctx)
				convey.So(err, convey.ShouldBeNil)
				for _, o := range obs {
					_, ok := weather[o.DateKey()]
					convey.So(ok, convey.ShouldBeTrue)
				}
			})

			convey.Convey("Then every observation's cell has demographics", func() {
				demo, err := src.DemographicsByCell(ctx)
				convey.So(err, convey.ShouldBeNil)
				for _, o := range obs {
					_, ok := demo[o.LocationKey()]
					convey.So(ok, convey.ShouldBeTrue)
				}
			})
		})

		convey.Convey("When reading twice from the same instance", func() {
			a, err := src.Observations(ctx)
			convey.So(err, convey.ShouldBeNil)
			b, err := src.Observations(ctx)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the corpora are identical", func() {
				convey.So(a, convey.ShouldResemble, b)
			})
		})

		convey.Convey("When two sources share a seed", func() {
			other := source.NewSyntheticSource(42, 200)
			a, _ := src.WeatherByDate(ctx)
			b, _ := other.WeatherByDate(ctx)

			convey.Convey("Then the generated weather agrees", func() {
				convey.So(a, convey.ShouldResemble, b)
			})
		})
	})
}

// failingSource always reports unavailable data.
type failingSource struct{}

func (failingSource) Observations(context.Context) ([]observation.Observation, error) {
	return nil, source.ErrDataUnavailable
}

func (failingSource) WeatherByDate(context.Context) (map[string]observation.Weather, error) {
	return nil, source.ErrDataUnavailable
}

func (failingSource) DemographicsByCell(context.Context) (map[string]observation.Demographics, error) {
	return nil, source.ErrDataUnavailable
}

func TestFallbackSource(t *testing.T) {
	convey.Convey("Given a fallback over a failing primary", t, func() {
		ctx := context.Background()
		secondary := source.NewSyntheticSource(1, 50)
		fb := source.NewFallbackSource(failingSource{}, secondary, nil)

		convey.Convey("When loading each input", func() {
			obs, err := fb.Observations(ctx)
			convey.So(err, convey.ShouldBeNil)
			weather, err := fb.WeatherByDate(ctx)
			convey.So(err, convey.ShouldBeNil)
			demo, err := fb.DemographicsByCell(ctx)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the synthetic data serves the request", func() {
				convey.So(obs, convey.ShouldHaveLength, 50)
				convey.So(weather, convey.ShouldNotBeEmpty)
				convey.So(demo, convey.ShouldNotBeEmpty)
			})
		})
	})

	convey.Convey("Given a fallback over an empty primary", t, func() {
		ctx := context.Background()
		// A reachable store with zero rows degrades the same way.
		empty := emptySource{}
		fb := source.NewFallbackSource(empty, source.NewSyntheticSource(1, 50), nil)

		obs, err := fb.Observations(ctx)
		convey.So(err, convey.ShouldBeNil)
		convey.So(obs, convey.ShouldHaveLength, 50)
	})
}

type emptySource struct{}

func (emptySource) Observations(context.Context) ([]observation.Observation, error) {
	return nil, nil
}

func (emptySource) WeatherByDate(context.Context) (map[string]observation.Weather, error) {
	return map[string]observation.Weather{}, nil
}

func (emptySource) DemographicsByCell(context.Context) (map[string]observation.Demographics, error) {
	return map[string]observation.Demographics{}, nil
}

// fixedSource serves a hand-built observation set.
type fixedSource struct {
	obs []observation.Observation
}

func (f fixedSource) Observations(context.Context) ([]observation.Observation, error) {
	return f.obs, nil
}

func (f fixedSource) WeatherByDate(context.Context) (map[string]observation.Weather, error) {
	return nil, nil
}

func (f fixedSource) DemographicsByCell(context.Context) (map[string]observation.Demographics, error) {
	return nil, nil
}

func TestContextBuilder(t *testing.T) {
	convey.Convey("Given a history of nearby and distant issues", t, func() {
		ctx := context.Background()
		now := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)
		clock := clockwork.NewFakeClockAt(now)

		near := func(daysAgo int, hour int, c category.Category, resolution float64) observation.Observation {
			return observation.Observation{
				CreatedAt:      now.AddDate(0, 0, -daysAgo).Add(time.Duration(hour) * time.Hour).Add(-12 * time.Hour),
				Latitude:       23.345,
				Longitude:      85.310,
				Category:       c,
				ResolutionDays: resolution,
			}
		}

		obs := []observation.Observation{
			// Five recent road issues reported in the morning.
			near(2, 9, category.RoadPothole, 2),
			near(4, 9, category.RoadPothole, 4),
			near(8, 9, category.RoadPothole, 0),
			near(12, 9, category.WaterSupply, 6),
			near(20, 17, category.RoadPothole, 2),
			// Two in the previous window.
			near(40, 9, category.WaterSupply, 2),
			near(50, 17, category.RoadPothole, 2),
			// Far away; must not count.
			{CreatedAt: now.AddDate(0, 0, -3), Latitude: 25.0, Longitude: 87.0, Category: category.Other},
		}
		builder := source.NewContextBuilder(fixedSource{obs: obs}, clock, nil)

		convey.Convey("When summarizing around the location", func() {
			hc, err := builder.Build(ctx, 23.345, 85.310, 2)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then only nearby issues count", func() {
				convey.So(hc.TotalIssues, convey.ShouldEqual, 7)
				convey.So(hc.CategoryBreakdown["Road & Pothole Issues"], convey.ShouldEqual, 5)
				convey.So(hc.CategoryBreakdown["Water Supply"], convey.ShouldEqual, 2)
				convey.So(hc.CategoryBreakdown, convey.ShouldNotContainKey, "Other")
			})

			convey.Convey("Then the trend compares the two most recent windows", func() {
				convey.So(hc.RecentTrend, convey.ShouldEqual, "increasing")
			})

			convey.Convey("Then unresolved issues stay out of the resolution average", func() {
				convey.So(hc.AvgResolutionDays, convey.ShouldAlmostEqual, 3, 1e-9)
			})

			convey.Convey("Then the busiest hour ranks first", func() {
				convey.So(hc.PeakHours, convey.ShouldNotBeEmpty)
				convey.So(hc.PeakHours[0], convey.ShouldEqual, 9)
			})
		})

		convey.Convey("When summarizing an empty area", func() {
			hc, err := builder.Build(ctx, 10.0, 10.0, 2)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the context is zero-valued, not an error", func() {
				convey.So(hc.TotalIssues, convey.ShouldEqual, 0)
				convey.So(hc.PeakHours, convey.ShouldBeEmpty)
			})
		})
	})
}

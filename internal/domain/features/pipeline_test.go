package features_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/civicgrid/foresight/internal/domain/category"
	"github.com/civicgrid/foresight/internal/domain/features"
	"github.com/civicgrid/foresight/internal/domain/observation"
)

func testObservations(n int) []observation.Observation {
	cats := category.All()
	obs := make([]observation.Observation, 0, n)
	start := time.Date(2023, time.March, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		obs = append(obs, observation.Observation{
			ID:             fmt.Sprintf("obs-%03d", i),
			CreatedAt:      start.AddDate(0, 0, i),
			Latitude:       23.34,
			Longitude:      85.31,
			Category:       cats[i%len(cats)],
			Priority:       category.PriorityMedium,
			Status:         "resolved",
			ResolutionDays: 2,
		})
	}
	return obs
}

func testWeather(obs []observation.Observation) map[string]observation.Weather {
	byDate := make(map[string]observation.Weather)
	for i, o := range obs {
		byDate[o.DateKey()] = observation.Weather{
			Temperature:   20 + float64(i%15),
			Precipitation: float64(i % 30),
			Humidity:      60,
		}
	}
	return byDate
}

func TestPipelineBuild(t *testing.T) {
	convey.Convey("Given a pipeline and a batch of observations", t, func() {
		ctx := context.Background()
		p := features.NewPipeline()
		obs := testObservations(30)
		weather := testWeather(obs)
		demo := map[string]observation.Demographics{
			observation.LocationKey(23.34, 85.31): {
				PopulationDensity: 1200,
				InfrastructureAge: 20,
				IncomeTier:        "medium",
				Urban:             true,
			},
		}

		convey.Convey("When building the training table", func() {
			table, err := p.Build(ctx, obs, weather, demo)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then every row conforms to the canonical schema", func() {
				convey.So(table.Len(), convey.ShouldEqual, 30)
				for _, row := range table.Rows {
					convey.So(table.Schema.Conform(row), convey.ShouldBeNil)
				}
			})

			convey.Convey("Then labels and keys align with the rows", func() {
				convey.So(table.Categories, convey.ShouldHaveLength, 30)
				convey.So(table.RiskScores, convey.ShouldHaveLength, 30)
				convey.So(table.LocationKeys[0], convey.ShouldEqual, "23.34_85.31")
			})

			convey.Convey("Then the derived risk labels stay within [0,1]", func() {
				for _, r := range table.RiskScores {
					convey.So(r, convey.ShouldBeBetweenOrEqual, 0, 1)
				}
			})

			convey.Convey("Then the demographic join populated the cells", func() {
				density, ok := table.Rows[0].Get(features.ColPopulationDensity)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(density, convey.ShouldEqual, 1200)
			})

			convey.Convey("Then heavy rain days carry the flag", func() {
				flagged := 0
				for _, row := range table.Rows {
					if f, _ := row.Get(features.ColHeavyRain); f == 1 {
						flagged++
					}
				}
				// Precipitation cycles 0..29, so days above 20mm exist.
				convey.So(flagged, convey.ShouldBeGreaterThan, 0)
			})
		})

		convey.Convey("When building with no observations", func() {
			_, err := p.Build(ctx, nil, weather, demo)
			convey.So(errors.Is(err, features.ErrNoObservations), convey.ShouldBeTrue)
		})

		convey.Convey("When the joins are empty", func() {
			table, err := p.Build(ctx, obs, nil, nil)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the affected columns are zero-filled, not dropped", func() {
				convey.So(table.Schema.Len(), convey.ShouldEqual, features.BuildSchema().Len())
				density, _ := table.Rows[0].Get(features.ColPopulationDensity)
				convey.So(density, convey.ShouldEqual, 0)
			})
		})
	})
}

func TestInferenceVector(t *testing.T) {
	convey.Convey("Given a pipeline", t, func() {
		p := features.NewPipeline()
		now := time.Date(2024, time.July, 10, 14, 30, 0, 0, time.UTC)

		convey.Convey("When deriving a vector with full context", func() {
			v, err := p.InferenceVector(features.InferenceContext{
				Latitude:  23.35,
				Longitude: 85.30,
				Weather:   &observation.Weather{Temperature: 38, Precipitation: 25, Humidity: 80},
				History: &observation.HistoricalContext{
					TotalIssues:       12,
					AvgResolutionDays: 4,
					RecentTrend:       "increasing",
				},
				Now: now,
			})
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then it conforms to the training schema", func() {
				convey.So(p.Schema().Conform(v), convey.ShouldBeNil)
			})

			convey.Convey("Then the weather flags reflect the conditions", func() {
				heavy, _ := v.Get(features.ColHeavyRain)
				extreme, _ := v.Get(features.ColExtremeTemp)
				convey.So(heavy, convey.ShouldEqual, 1)
				convey.So(extreme, convey.ShouldEqual, 1)
			})

			convey.Convey("Then the history columns are populated", func() {
				total, _ := v.Get(features.ColTotalIssues)
				trend, _ := v.Get(features.ColTrendIncreasing)
				resolution, _ := v.Get(features.ColAvgResolutionTime)
				convey.So(total, convey.ShouldEqual, 12)
				convey.So(trend, convey.ShouldEqual, 1)
				convey.So(resolution, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When deriving without weather or history", func() {
			v, err := p.InferenceVector(features.InferenceContext{
				Latitude:  23.35,
				Longitude: 85.30,
				Now:       now,
			})
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the documented defaults apply", func() {
				temp, _ := v.Get(features.ColTemperature)
				humidity, _ := v.Get(features.ColHumidity)
				resolution, _ := v.Get(features.ColResolutionTime)
				convey.So(temp, convey.ShouldEqual, features.DefaultTemperature)
				convey.So(humidity, convey.ShouldEqual, features.DefaultHumidity)
				convey.So(resolution, convey.ShouldEqual, features.DefaultResolutionDays)
			})
		})

		convey.Convey("When deriving twice with the same injected time", func() {
			in := features.InferenceContext{Latitude: 23.35, Longitude: 85.30, Now: now}
			a, err := p.InferenceVector(in)
			convey.So(err, convey.ShouldBeNil)
			b, err := p.InferenceVector(in)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the vectors are identical", func() {
				convey.So(a.Values(), convey.ShouldResemble, b.Values())
			})
		})
	})
}

func TestLabelEncoder(t *testing.T) {
	convey.Convey("Given an encoder fitted over labels", t, func() {
		enc := features.FitLabelEncoder([]string{"medium", "low", "high", "low"})

		convey.Convey("Then codes follow lexical class order", func() {
			convey.So(enc.Classes(), convey.ShouldResemble, []string{"high", "low", "medium"})
			code, err := enc.Transform("low")
			convey.So(err, convey.ShouldBeNil)
			convey.So(code, convey.ShouldEqual, 1)
		})

		convey.Convey("Then unseen labels are an error", func() {
			_, err := enc.Transform("urgent")
			convey.So(errors.Is(err, features.ErrUnseenLabel), convey.ShouldBeTrue)
		})
	})
}

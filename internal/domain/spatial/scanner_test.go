package spatial_test

import (
	"context"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/civicgrid/foresight/internal/domain/category"
	"github.com/civicgrid/foresight/internal/domain/spatial"
)

func TestRiskAreas(t *testing.T) {
	convey.Convey("Given a scanner with a fixed noise seed", t, func() {
		ctx := context.Background()
		scanner := spatial.NewScanner(spatial.WithNoise(spatial.NewSeededNoise(7)))

		convey.Convey("When scanning around the urban core", func() {
			areas := scanner.RiskAreas(ctx, 23.3441, 85.3096, 2)

			convey.Convey("Then only elevated cells from the 5x5 grid are returned", func() {
				convey.So(len(areas), convey.ShouldBeLessThanOrEqualTo, 25)
				for _, a := range areas {
					convey.So(a.RiskScore, convey.ShouldBeGreaterThan, 0.6)
					convey.So(a.RiskLevel, convey.ShouldBeIn, category.RiskHigh, category.RiskCritical)
				}
			})

			convey.Convey("Then each area carries issues and a density", func() {
				for _, a := range areas {
					convey.So(a.PredictedIssues, convey.ShouldNotBeEmpty)
					convey.So(len(a.PredictedIssues), convey.ShouldBeLessThanOrEqualTo, 3)
					convey.So(a.PopulationDensity, convey.ShouldBeBetweenOrEqual, 100, 5000)
				}
			})

			convey.Convey("Then a second scan is identical", func() {
				again := scanner.RiskAreas(ctx, 23.3441, 85.3096, 2)
				convey.So(again, convey.ShouldResemble, areas)
			})
		})

		convey.Convey("When scanning far from the urban core", func() {
			periphery := scanner.RiskAreas(ctx, 24.9, 86.9, 2)

			convey.Convey("Then elevated cells still respect the floor", func() {
				convey.So(len(periphery), convey.ShouldBeLessThanOrEqualTo, 25)
				for _, a := range periphery {
					convey.So(a.RiskScore, convey.ShouldBeGreaterThan, 0.6)
				}
			})
		})
	})
}

func TestHeatmap(t *testing.T) {
	convey.Convey("Given a scanner with a fixed noise seed", t, func() {
		ctx := context.Background()
		scanner := spatial.NewScanner(spatial.WithNoise(spatial.NewSeededNoise(7)))

		convey.Convey("When rendering at resolution 10", func() {
			hm := scanner.Heatmap(ctx, 23.3441, 85.3096, 2, 10)

			convey.Convey("Then the grid has resolution squared points", func() {
				convey.So(hm.Points, convey.ShouldHaveLength, 100)
				convey.So(hm.Summary.TotalPoints, convey.ShouldEqual, 100)
			})

			convey.Convey("Then every point lies within the bounds", func() {
				for _, p := range hm.Points {
					convey.So(hm.Bounds.Contains(p.Point), convey.ShouldBeTrue)
					convey.So(p.Risk, convey.ShouldBeBetweenOrEqual, 0, 1)
				}
			})

			convey.Convey("Then the summary is internally consistent", func() {
				s := hm.Summary
				convey.So(s.MinRisk, convey.ShouldBeLessThanOrEqualTo, s.AvgRisk)
				convey.So(s.AvgRisk, convey.ShouldBeLessThanOrEqualTo, s.MaxRisk)
				convey.So(s.CriticalRiskPoints, convey.ShouldBeLessThanOrEqualTo, s.HighRiskPoints)
			})

			convey.Convey("Then a second render is identical despite concurrency", func() {
				again := scanner.Heatmap(ctx, 23.3441, 85.3096, 2, 10)
				convey.So(again.Points, convey.ShouldResemble, hm.Points)
			})
		})

		convey.Convey("When requesting an oversized resolution", func() {
			hm := scanner.Heatmap(ctx, 23.3441, 85.3096, 2, spatial.MaxResolution+50)

			convey.Convey("Then the grid is capped", func() {
				convey.So(hm.Points, convey.ShouldHaveLength, spatial.MaxResolution*spatial.MaxResolution)
			})
		})

		convey.Convey("When requesting a degenerate resolution", func() {
			hm := scanner.Heatmap(ctx, 23.3441, 85.3096, 2, 0)

			convey.Convey("Then the minimum 2x2 grid is rendered", func() {
				convey.So(hm.Points, convey.ShouldHaveLength, 4)
			})
		})
	})
}

func TestSeededNoise(t *testing.T) {
	convey.Convey("Given a seeded noise source", t, func() {
		noise := spatial.NewSeededNoise(7)

		convey.Convey("Then draws are deterministic per coordinate and stream", func() {
			convey.So(noise.At(23.34, 85.31, 0), convey.ShouldEqual, noise.At(23.34, 85.31, 0))
		})

		convey.Convey("Then streams decorrelate draws at the same coordinate", func() {
			convey.So(noise.At(23.34, 85.31, 0), convey.ShouldNotEqual, noise.At(23.34, 85.31, 1))
		})

		convey.Convey("Then draws stay within [0,1)", func() {
			for i := 0; i < 50; i++ {
				v := noise.At(23.0+float64(i)*0.01, 85.0, 0)
				convey.So(v, convey.ShouldBeGreaterThanOrEqualTo, 0)
				convey.So(v, convey.ShouldBeLessThan, 1)
			}
		})

		convey.Convey("Then different seeds diverge", func() {
			other := spatial.NewSeededNoise(8)
			convey.So(noise.At(23.34, 85.31, 0), convey.ShouldNotEqual, other.At(23.34, 85.31, 0))
		})
	})
}

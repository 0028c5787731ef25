package category_test

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/civicgrid/foresight/internal/domain/category"
)

func TestCategories(t *testing.T) {
	convey.Convey("Given the closed category set", t, func() {
		convey.Convey("Then the canonical order is stable", func() {
			all := category.All()
			convey.So(all, convey.ShouldHaveLength, 9)
			convey.So(all[0].String(), convey.ShouldEqual, "Road & Pothole Issues")
			convey.So(all[len(all)-1].String(), convey.ShouldEqual, "Other")
		})

		convey.Convey("When parsing a known label", func() {
			c, err := category.Parse("Water Supply")
			convey.So(err, convey.ShouldBeNil)
			convey.So(c, convey.ShouldEqual, category.WaterSupply)
		})

		convey.Convey("When parsing an unknown label", func() {
			_, err := category.Parse("Potholes")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestPriorities(t *testing.T) {
	convey.Convey("Given priority labels", t, func() {
		convey.Convey("Then parsing is case and whitespace tolerant", func() {
			p, err := category.ParsePriority("  Urgent ")
			convey.So(err, convey.ShouldBeNil)
			convey.So(p, convey.ShouldEqual, category.PriorityUrgent)
		})

		convey.Convey("Then unknown labels are rejected", func() {
			_, err := category.ParsePriority("critical")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestTimeframes(t *testing.T) {
	convey.Convey("Given timeframe labels", t, func() {
		convey.Convey("Then an empty label defaults to seven days", func() {
			tf, err := category.ParseTimeframe("")
			convey.So(err, convey.ShouldBeNil)
			convey.So(tf, convey.ShouldEqual, category.SevenDays)
		})

		convey.Convey("Then horizons map to day counts", func() {
			convey.So(category.OneDay.Days(), convey.ShouldEqual, 1)
			convey.So(category.SevenDays.Days(), convey.ShouldEqual, 7)
			convey.So(category.ThirtyDays.Days(), convey.ShouldEqual, 30)
		})

		convey.Convey("Then unknown labels are rejected", func() {
			_, err := category.ParseTimeframe("90_days")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestRiskLevels(t *testing.T) {
	convey.Convey("Given risk scores at the band boundaries", t, func() {
		convey.Convey("Then the boundaries are inclusive on the upper band", func() {
			convey.So(category.LevelFor(0.8), convey.ShouldEqual, category.RiskCritical)
			convey.So(category.LevelFor(0.79999), convey.ShouldEqual, category.RiskHigh)
			convey.So(category.LevelFor(0.6), convey.ShouldEqual, category.RiskHigh)
			convey.So(category.LevelFor(0.599), convey.ShouldEqual, category.RiskMedium)
			convey.So(category.LevelFor(0.4), convey.ShouldEqual, category.RiskMedium)
			convey.So(category.LevelFor(0.399), convey.ShouldEqual, category.RiskLow)
			convey.So(category.LevelFor(0), convey.ShouldEqual, category.RiskLow)
		})
	})
}

func TestActions(t *testing.T) {
	convey.Convey("Given the action playbooks", t, func() {
		convey.Convey("Then every named category has actions", func() {
			convey.So(category.RecommendedActions(category.RoadPothole), convey.ShouldContain, "Inspect roads")
			convey.So(category.RecommendedActions(category.WaterSupply), convey.ShouldContain, "Check water pressure")
		})

		convey.Convey("Then the Other category gets the generic playbook", func() {
			convey.So(category.RecommendedActions(category.Other), convey.ShouldContain, "Monitor situation")
		})

		convey.Convey("Then risk actions escalate with the score", func() {
			convey.So(category.RiskActions(0.9), convey.ShouldContain, "Immediate action required")
			convey.So(category.RiskActions(0.7), convey.ShouldContain, "High priority monitoring")
			convey.So(category.RiskActions(0.5), convey.ShouldContain, "Regular monitoring")
			convey.So(category.RiskActions(0.1), convey.ShouldContain, "Routine monitoring")
		})
	})
}

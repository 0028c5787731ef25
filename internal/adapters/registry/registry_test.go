package registry_test

import (
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/civicgrid/foresight/internal/adapters/registry"
	"github.com/civicgrid/foresight/internal/domain/train"
)

func TestRegistry(t *testing.T) {
	convey.Convey("Given an empty registry", t, func() {
		reg := registry.New()

		convey.Convey("Then it reports every variant untrained", func() {
			convey.So(reg.Len(), convey.ShouldEqual, 0)
			status := reg.Status()
			convey.So(status, convey.ShouldHaveLength, 4)
			for _, s := range status {
				convey.So(s.Trained, convey.ShouldBeFalse)
				convey.So(s.TrainedAt, convey.ShouldBeNil)
			}
		})

		convey.Convey("Then the typed accessors return nil", func() {
			convey.So(reg.Classifier(), convey.ShouldBeNil)
			convey.So(reg.Regressor(), convey.ShouldBeNil)
			convey.So(reg.Forecaster(), convey.ShouldBeNil)
			convey.So(reg.OutlierDetector(), convey.ShouldBeNil)
		})

		convey.Convey("When committing one variant", func() {
			accuracy := 0.9
			at := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
			reg.Commit(train.ModelClassifier, "fitted-model", train.Metrics{Accuracy: &accuracy}, at)

			convey.Convey("Then only that entry changes", func() {
				convey.So(reg.Len(), convey.ShouldEqual, 1)
				status := reg.Status()
				convey.So(status[train.ModelClassifier].Trained, convey.ShouldBeTrue)
				convey.So(*status[train.ModelClassifier].Accuracy, convey.ShouldEqual, 0.9)
				convey.So(*status[train.ModelClassifier].TrainedAt, convey.ShouldEqual, at)
				convey.So(status[train.ModelRegressor].Trained, convey.ShouldBeFalse)
			})

			convey.Convey("Then a typed accessor over a wrong payload returns nil", func() {
				// The committed payload is not a *train.Classifier.
				convey.So(reg.Classifier(), convey.ShouldBeNil)
				convey.So(reg.Get(train.ModelClassifier), convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When recommitting the same variant", func() {
			reg.Commit(train.ModelOutlier, "v1", train.Metrics{}, time.Now())
			reg.Commit(train.ModelOutlier, "v2", train.Metrics{}, time.Now())

			convey.Convey("Then the entry is replaced wholesale", func() {
				convey.So(reg.Len(), convey.ShouldEqual, 1)
				convey.So(reg.Get(train.ModelOutlier).Model, convey.ShouldEqual, "v2")
			})
		})

		convey.Convey("When committing from many goroutines", func() {
			var wg sync.WaitGroup
			for i := 0; i < 32; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					reg.Commit(train.ModelRegressor, "m", train.Metrics{}, time.Now())
					_ = reg.Status()
					_ = reg.Get(train.ModelRegressor)
				}()
			}
			wg.Wait()

			convey.Convey("Then the registry stays consistent", func() {
				convey.So(reg.Len(), convey.ShouldEqual, 1)
				convey.So(reg.Get(train.ModelRegressor), convey.ShouldNotBeNil)
			})
		})
	})
}

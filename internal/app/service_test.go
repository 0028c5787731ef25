package service_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/smartystreets/goconvey/convey"

	service "github.com/civicgrid/foresight/internal/app"
	"github.com/civicgrid/foresight/internal/domain/category"
	"github.com/civicgrid/foresight/internal/domain/fusion"
	"github.com/civicgrid/foresight/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func startedService(t *testing.T) *service.Service {
	t.Helper()
	svc := service.New(
		service.WithTrainingSeed(42),
		service.WithNoiseSeed(7),
		service.WithSyntheticSamples(300),
		service.WithClock(clockwork.NewFakeClockAt(time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC))),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestServiceLifecycle(t *testing.T) {
	convey.Convey("Given an unstarted service", t, func() {
		svc := service.New()

		convey.Convey("Then operations report not started", func() {
			_, err := svc.Predict(context.Background(), service.PredictRequest{Latitude: 23.34, Longitude: 85.31})
			convey.So(errors.Is(err, service.ErrNotStarted), convey.ShouldBeTrue)

			_, err = svc.ModelStatus(context.Background())
			convey.So(errors.Is(err, service.ErrNotStarted), convey.ShouldBeTrue)

			convey.So(errors.Is(svc.Train(context.Background()), service.ErrNotStarted), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a started service with train-on-start", t, func() {
		svc := startedService(t)

		convey.Convey("Then every variant is trained", func() {
			status, err := svc.ModelStatus(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(status.TrainingInProgress, convey.ShouldBeFalse)
			convey.So(status.Models, convey.ShouldHaveLength, 4)
			for _, s := range status.Models {
				convey.So(s.Trained, convey.ShouldBeTrue)
			}
		})

		convey.Convey("Then a second training pass succeeds after the first", func() {
			convey.So(svc.Train(context.Background()), convey.ShouldBeNil)
		})
	})
}

func TestServicePredict(t *testing.T) {
	convey.Convey("Given a started service", t, func() {
		svc := startedService(t)
		ctx := context.Background()

		convey.Convey("When predicting for a city location", func() {
			result, err := svc.Predict(ctx, service.PredictRequest{
				Latitude:       23.35,
				Longitude:      85.31,
				Timeframe:      category.SevenDays,
				IncludeWeather: true,
				IncludeHistory: true,
			})
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the response is model-backed and complete", func() {
				convey.So(result.Source, convey.ShouldEqual, fusion.SourceFused)
				convey.So(result.Predictions, convey.ShouldNotBeEmpty)
				convey.So(result.OverallRisk, convey.ShouldBeBetweenOrEqual, 0, 1)
				convey.So(result.RiskLevel, convey.ShouldEqual, category.LevelFor(result.OverallRisk))
				convey.So(result.Actions, convey.ShouldNotBeEmpty)
				convey.So(result.ModelInfo.ModelsTrained, convey.ShouldEqual, 4)
				convey.So(result.ModelInfo.TotalModels, convey.ShouldEqual, 4)
			})

			convey.Convey("Then a repeat request is identical under the fixed clock", func() {
				again, err := svc.Predict(ctx, service.PredictRequest{
					Latitude:       23.35,
					Longitude:      85.31,
					Timeframe:      category.SevenDays,
					IncludeWeather: true,
					IncludeHistory: true,
				})
				convey.So(err, convey.ShouldBeNil)
				convey.So(again.Predictions, convey.ShouldResemble, result.Predictions)
				convey.So(again.OverallRisk, convey.ShouldEqual, result.OverallRisk)
			})
		})

		convey.Convey("When predicting without enrichment", func() {
			result, err := svc.Predict(ctx, service.PredictRequest{
				Latitude:  23.35,
				Longitude: 85.31,
				Timeframe: category.OneDay,
			})
			convey.So(err, convey.ShouldBeNil)
			convey.So(result.Source, convey.ShouldEqual, fusion.SourceFused)
		})

		convey.Convey("When the coordinates are outside the valid range", func() {
			_, err := svc.Predict(ctx, service.PredictRequest{Latitude: 123, Longitude: 85})
			convey.So(errors.Is(err, service.ErrInvalidLocation), convey.ShouldBeTrue)
		})
	})
}

func TestServiceHeatmap(t *testing.T) {
	convey.Convey("Given a started service", t, func() {
		svc := startedService(t)
		ctx := context.Background()

		convey.Convey("When rendering a heatmap", func() {
			hm, err := svc.Heatmap(ctx, 23.35, 85.31, 2, 15)
			convey.So(err, convey.ShouldBeNil)
			convey.So(hm.Points, convey.ShouldHaveLength, 225)
			convey.So(hm.Summary.TotalPoints, convey.ShouldEqual, 225)
		})

		convey.Convey("When the radius is omitted", func() {
			hm, err := svc.Heatmap(ctx, 23.35, 85.31, 0, 5)
			convey.So(err, convey.ShouldBeNil)
			convey.So(hm.Points, convey.ShouldHaveLength, 25)
		})

		convey.Convey("When the location is invalid", func() {
			_, err := svc.Heatmap(ctx, -91, 85.31, 2, 5)
			convey.So(errors.Is(err, service.ErrInvalidLocation), convey.ShouldBeTrue)
		})
	})
}

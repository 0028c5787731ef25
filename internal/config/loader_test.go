package config_test

import (
	"context"
	"errors"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/civicgrid/foresight/internal/config"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading with defaults only", func() {
			cfg, err := config.Load(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
			convey.So(cfg.TrainingSeed, convey.ShouldEqual, 42)
		})

		convey.Convey("When environment variables override defaults", func() {
			t.Setenv("FORESIGHT_ADDR", ":8088")
			t.Setenv("FORESIGHT_TRAINING_SEED", "7")
			t.Setenv("FORESIGHT_TRAIN_ON_START", "false")

			cfg, err := config.Load(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8088")
			convey.So(cfg.TrainingSeed, convey.ShouldEqual, 7)
			convey.So(cfg.TrainOnStart, convey.ShouldBeFalse)
		})

		convey.Convey("When a value fails validation", func() {
			t.Setenv("FORESIGHT_DEFAULT_RADIUS_KM", "-1")

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the config file is missing", func() {
			t.Setenv("FORESIGHT_CONFIG", "/nonexistent/config.yaml")

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})
	})
}

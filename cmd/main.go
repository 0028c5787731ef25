package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/civicgrid/foresight/internal/adapters/http/api"
	"github.com/civicgrid/foresight/internal/adapters/source"
	"github.com/civicgrid/foresight/internal/adapters/weather"
	app "github.com/civicgrid/foresight/internal/app"
	"github.com/civicgrid/foresight/internal/config"
	"github.com/civicgrid/foresight/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 30 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	opts := []app.Option{
		app.WithLogger(log),
		app.WithCenter(cfg.CenterLat, cfg.CenterLng),
		app.WithTrainingSeed(cfg.TrainingSeed),
		app.WithNoiseSeed(cfg.NoiseSeed),
		app.WithSyntheticSamples(cfg.SyntheticSamples),
		app.WithDefaultRadius(cfg.DefaultRadiusKm),
		app.WithMaxResolution(cfg.MaxHeatmapResolution),
		app.WithTrainOnStart(cfg.TrainOnStart),
	}

	synthetic := source.NewSyntheticSource(cfg.TrainingSeed, cfg.SyntheticSamples)
	if cfg.PostgresDSN != "" {
		pg, err := source.NewPostgresSource(ctx, cfg.PostgresDSN,
			source.WithPostgresLogger(log.Named("postgres")),
		)
		if err != nil {
			log.Warn(ctx, "postgres unavailable; continuing with synthetic data", logger.Error(err))
			opts = append(opts, app.WithSource(synthetic))
		} else {
			defer pg.Close()
			opts = append(opts, app.WithSource(source.NewFallbackSource(pg, synthetic, log.Named("source"))))
		}
	}

	if cfg.WeatherAPIKey != "" {
		live := weather.NewHTTPProvider(cfg.WeatherAPIKey, weather.WithBaseURL(cfg.WeatherBaseURL))
		demo := weather.NewDemoProvider(cfg.NoiseSeed)
		opts = append(opts, app.WithWeatherProvider(weather.NewFallbackProvider(live, demo, log.Named("weather"))))
	}

	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	// HTTP mux and routes.
	mux := http.NewServeMux()
	apiServer := api.NewServer(svc)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
}

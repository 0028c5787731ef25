// Package service provides the core business service that implements
// the dependencies required by the HTTP API: training orchestration,
// prediction fusion, and spatial scanning over one shared model registry.
package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/civicgrid/foresight/internal/adapters/registry"
	"github.com/civicgrid/foresight/internal/adapters/source"
	"github.com/civicgrid/foresight/internal/adapters/weather"
	"github.com/civicgrid/foresight/internal/domain/category"
	"github.com/civicgrid/foresight/internal/domain/features"
	"github.com/civicgrid/foresight/internal/domain/fusion"
	"github.com/civicgrid/foresight/internal/domain/spatial"
	"github.com/civicgrid/foresight/internal/domain/train"
	"github.com/civicgrid/foresight/pkg/logger"
	"github.com/civicgrid/foresight/pkg/metrics"
)

// Service implements the API dependencies for the risk engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	registry *registry.Registry
	pipeline *features.Pipeline
	engine   *fusion.Engine
	scanner  *spatial.Scanner
	orch     *train.Orchestrator
	source   source.Source
	history  *source.ContextBuilder
	weather  weather.Provider

	// Configuration
	centerLat        float64
	centerLng        float64
	trainingSeed     int64
	noiseSeed        int64
	syntheticSamples int
	defaultRadiusKm  float64
	maxResolution    int
	trainOnStart     bool

	// State
	started  bool
	training atomic.Bool
	clock    clockwork.Clock

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCenter sets the urban-core reference coordinate.
func WithCenter(lat, lng float64) Option {
	return func(s *Service) {
		s.centerLat = lat
		s.centerLng = lng
	}
}

// WithTrainingSeed fixes the train/test splits and the synthetic corpus.
func WithTrainingSeed(seed int64) Option {
	return func(s *Service) { s.trainingSeed = seed }
}

// WithNoiseSeed fixes the spatial noise source.
func WithNoiseSeed(seed int64) Option {
	return func(s *Service) { s.noiseSeed = seed }
}

// WithSyntheticSamples sizes the generated corpus.
func WithSyntheticSamples(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.syntheticSamples = n
		}
	}
}

// WithDefaultRadius sets the scan radius used when a request omits one.
func WithDefaultRadius(km float64) Option {
	return func(s *Service) {
		if km > 0 {
			s.defaultRadiusKm = km
		}
	}
}

// WithMaxResolution caps the per-axis heatmap grid size. Values above
// the scanner's hard limit are still cut there.
func WithMaxResolution(n int) Option {
	return func(s *Service) {
		if n >= 2 {
			s.maxResolution = n
		}
	}
}

// WithSource sets the training-data source. Defaults to a synthetic
// corpus when unset.
func WithSource(src source.Source) Option {
	return func(s *Service) { s.source = src }
}

// WithWeatherProvider sets the current-conditions provider.
func WithWeatherProvider(p weather.Provider) Option {
	return func(s *Service) { s.weather = p }
}

// WithClock sets the clock used for timestamps and feature derivation.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithTrainOnStart controls whether Start runs a training pass.
func WithTrainOnStart(v bool) Option {
	return func(s *Service) { s.trainOnStart = v }
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		centerLat:        spatial.DefaultCenterLat,
		centerLng:        spatial.DefaultCenterLng,
		trainingSeed:     42,
		noiseSeed:        7,
		syntheticSamples: source.DefaultSyntheticSamples,
		defaultRadiusKm:  2,
		maxResolution:    spatial.MaxResolution,
		trainOnStart:     true,
		clock:            clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the service components and optionally runs the first
// training pass so predictions are model-backed from the first request.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()

	if s.started {
		s.mu.Unlock()
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger.Info(ctx, "starting risk engine...")

	if s.source == nil {
		s.source = source.NewSyntheticSource(s.trainingSeed, s.syntheticSamples)
		s.logger.Info(ctx, "using synthetic training source",
			logger.Int("samples", s.syntheticSamples),
		)
	}
	if s.weather == nil {
		s.weather = weather.NewDemoProvider(s.noiseSeed)
	}

	s.registry = registry.New()
	s.pipeline = features.NewPipeline(
		features.WithReferenceCenter(s.centerLat, s.centerLng),
		features.WithLabelSeed(s.trainingSeed),
		features.WithLogger(s.logger.Named("features")),
	)
	s.engine = fusion.NewEngine(s.registry,
		fusion.WithLogger(s.logger.Named("fusion")),
	)
	s.scanner = spatial.NewScanner(
		spatial.WithReferenceCenter(s.centerLat, s.centerLng),
		spatial.WithNoise(spatial.NewSeededNoise(s.noiseSeed)),
		spatial.WithLogger(s.logger.Named("spatial")),
	)
	s.orch = train.NewOrchestrator(s.registry,
		train.WithSeed(s.trainingSeed),
		train.WithClock(s.clock),
		train.WithLogger(s.logger.Named("train")),
	)
	s.history = source.NewContextBuilder(s.source, s.clock, s.logger.Named("history"))

	s.started = true
	s.mu.Unlock()

	if s.trainOnStart {
		if err := s.Train(ctx); err != nil {
			return err
		}
	}
	s.logger.Info(ctx, "risk engine started",
		logger.Float64("centerLat", s.centerLat),
		logger.Float64("centerLng", s.centerLng),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if closer, ok := s.source.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	s.started = false
	s.logger.Info(context.Background(), "risk engine stopped")
}

// Train runs a full training pass synchronously. Only one pass runs at a
// time; a second request while one is active is rejected, not queued.
func (s *Service) Train(ctx context.Context) error {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}

	if !s.training.CompareAndSwap(false, true) {
		metrics.RecordTrainingRejected()
		return ErrTrainingInProgress
	}
	defer s.training.Store(false)

	metrics.RecordTrainingRun()
	obs, err := s.source.Observations(ctx)
	if err != nil {
		return fmt.Errorf("load observations: %w", err)
	}
	weatherByDate, err := s.source.WeatherByDate(ctx)
	if err != nil {
		return fmt.Errorf("load weather: %w", err)
	}
	demographics, err := s.source.DemographicsByCell(ctx)
	if err != nil {
		return fmt.Errorf("load demographics: %w", err)
	}

	table, err := s.pipeline.Build(ctx, obs, weatherByDate, demographics)
	if err != nil {
		return fmt.Errorf("build features: %w", err)
	}

	report := s.orch.Run(ctx, table)
	s.logger.Info(ctx, "training pass finished",
		logger.Int("rows", table.Len()),
		logger.Int("trained", report.Trained()),
	)
	return nil
}

// TrainAsync starts a training pass in the background. The in-progress
// rejection happens synchronously so the caller gets an immediate verdict.
func (s *Service) TrainAsync(ctx context.Context) error {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}
	if s.training.Load() {
		metrics.RecordTrainingRejected()
		return ErrTrainingInProgress
	}
	go func() {
		// Detached from the request context: an aborted HTTP request must
		// not cancel a training pass already underway.
		if err := s.Train(context.WithoutCancel(ctx)); err != nil {
			s.logger.Error(context.Background(), "background training failed", logger.Error(err))
		}
	}()
	return nil
}

// PredictRequest is one prediction query.
type PredictRequest struct {
	Latitude       float64
	Longitude      float64
	Timeframe      category.Timeframe
	RadiusKm       float64
	IncludeWeather bool
	IncludeHistory bool
}

// ModelInfo summarizes registry state on a prediction response.
type ModelInfo struct {
	ModelsTrained int `json:"models_trained"`
	TotalModels   int `json:"total_models"`
}

// PredictResult is the full prediction response.
type PredictResult struct {
	Source      string             `json:"source"`
	Predictions []fusion.Prediction `json:"predictions"`
	Anomaly     *fusion.Anomaly    `json:"anomaly,omitempty"`
	RiskAreas   []spatial.RiskArea `json:"risk_areas"`
	OverallRisk float64            `json:"overall_risk"`
	RiskLevel   category.RiskLevel `json:"risk_level"`
	Actions     []string           `json:"recommended_actions"`
	GeneratedAt time.Time          `json:"generated_at"`
	ModelInfo   ModelInfo          `json:"model_info"`
}

// Predict runs the full prediction flow for one location: context
// enrichment, feature derivation, model fusion, spatial scan, and overall
// risk blending.
func (s *Service) Predict(ctx context.Context, req PredictRequest) (PredictResult, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return PredictResult{}, ErrNotStarted
	}
	if err := validateLocation(req.Latitude, req.Longitude); err != nil {
		return PredictResult{}, err
	}
	radius := req.RadiusKm
	if radius <= 0 {
		radius = s.defaultRadiusKm
	}

	begin := s.clock.Now()
	in := features.InferenceContext{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Now:       begin,
	}
	if req.IncludeWeather {
		w, err := s.weather.Current(ctx, req.Latitude, req.Longitude)
		if err != nil {
			// Enrichment only; the derivation defaults cover a missing join.
			metrics.RecordUpstreamFailure("weather")
			s.logger.Warn(ctx, "weather enrichment failed", logger.Error(err))
		} else {
			in.Weather = &w
		}
	}
	if req.IncludeHistory {
		hc, err := s.history.Build(ctx, req.Latitude, req.Longitude, radius)
		if err != nil {
			metrics.RecordUpstreamFailure("history")
			s.logger.Warn(ctx, "history enrichment failed", logger.Error(err))
		} else {
			in.History = hc
		}
	}

	vector, err := s.pipeline.InferenceVector(in)
	if err != nil {
		return PredictResult{}, fmt.Errorf("derive features: %w", err)
	}
	fused, err := s.engine.Predict(ctx, vector, in, req.Timeframe)
	if err != nil {
		return PredictResult{}, err
	}

	areas := s.scanner.RiskAreas(ctx, req.Latitude, req.Longitude, radius)
	overall := fusion.OverallRisk(fused.Predictions, spatial.AreaScores(areas))

	metrics.ObserveOverallRisk(overall)
	metrics.ObservePredictionLatency(s.clock.Now().Sub(begin).Seconds())

	return PredictResult{
		Source:      fused.Source,
		Predictions: fused.Predictions,
		Anomaly:     fused.Anomaly,
		RiskAreas:   areas,
		OverallRisk: overall,
		RiskLevel:   category.LevelFor(overall),
		Actions:     category.RiskActions(overall),
		GeneratedAt: begin,
		ModelInfo: ModelInfo{
			ModelsTrained: s.registry.Len(),
			TotalModels:   len(train.ModelNames()),
		},
	}, nil
}

// StatusResult reports per-model registry state.
type StatusResult struct {
	Models             map[string]registry.Status `json:"models"`
	TrainingInProgress bool                       `json:"training_in_progress"`
}

// ModelStatus reports the training state of every variant.
func (s *Service) ModelStatus(ctx context.Context) (StatusResult, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return StatusResult{}, ErrNotStarted
	}
	return StatusResult{
		Models:             s.registry.Status(),
		TrainingInProgress: s.training.Load(),
	}, nil
}

// Heatmap renders the risk grid around a location.
func (s *Service) Heatmap(ctx context.Context, lat, lng, radiusKm float64, resolution int) (spatial.Heatmap, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return spatial.Heatmap{}, ErrNotStarted
	}
	if err := validateLocation(lat, lng); err != nil {
		return spatial.Heatmap{}, err
	}
	if radiusKm <= 0 {
		radiusKm = s.defaultRadiusKm
	}
	if resolution > s.maxResolution {
		resolution = s.maxResolution
	}
	metrics.RecordHeatmapRequest()
	return s.scanner.Heatmap(ctx, lat, lng, radiusKm, resolution), nil
}

func validateLocation(lat, lng float64) error {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return fmt.Errorf("%w: lat=%v lng=%v", ErrInvalidLocation, lat, lng)
	}
	return nil
}

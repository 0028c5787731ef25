// Package train fits the four model variants against a shared training
// table and commits each one independently: a variant that fails to train
// is simply absent from the registry, it never aborts the others.
package train

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/civicgrid/foresight/internal/domain/features"
	"github.com/civicgrid/foresight/pkg/logger"
	"github.com/civicgrid/foresight/pkg/metrics"
)

// Model variant names. These are the registry keys and the labels exposed
// by the model-status endpoint.
const (
	ModelClassifier = "issue_classifier"
	ModelRegressor  = "risk_regressor"
	ModelForecaster = "time_series"
	ModelOutlier    = "anomaly_detector"
)

// ModelNames lists every variant in training order.
func ModelNames() []string {
	return []string{ModelClassifier, ModelRegressor, ModelForecaster, ModelOutlier}
}

// Metrics is the per-model evaluation record. Only the fields a variant
// actually reports are set.
type Metrics struct {
	Accuracy *float64
	RMSE     *float64
	Loss     *float64
}

// Outcome classifies how one variant's training step ended.
type Outcome string

const (
	OutcomeTrained          Outcome = "trained"
	OutcomeFailed           Outcome = "failed"
	OutcomeInsufficientData Outcome = "insufficient_data"
)

// StepReport records one variant's training step.
type StepReport struct {
	Model    string
	Outcome  Outcome
	Error    string
	Duration time.Duration
}

// Report summarizes a full training run.
type Report struct {
	Steps      []StepReport
	StartedAt  time.Time
	FinishedAt time.Time
}

// Trained returns how many variants completed successfully.
func (r Report) Trained() int {
	n := 0
	for _, s := range r.Steps {
		if s.Outcome == OutcomeTrained {
			n++
		}
	}
	return n
}

// Committer receives successfully trained variants. The registry
// implements it; each call must atomically replace only the named entry.
type Committer interface {
	Commit(name string, model any, m Metrics, trainedAt time.Time)
}

// Option applies a configuration option to the Orchestrator.
type Option func(*Orchestrator)

// WithSeed sets the random seed shared by the supervised splits.
func WithSeed(seed int64) Option {
	return func(o *Orchestrator) { o.seed = seed }
}

// WithClock sets the clock used for trained-at timestamps.
func WithClock(clock clockwork.Clock) Option {
	return func(o *Orchestrator) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(o *Orchestrator) {
		if log != nil {
			o.log = log
		}
	}
}

// Orchestrator runs the four training steps.
type Orchestrator struct {
	committer Committer
	seed      int64
	clock     clockwork.Clock
	log       logger.Logger
}

// defaultTrainingSeed matches the fixed seed the supervised splits were
// historically validated against.
const defaultTrainingSeed = 42

// NewOrchestrator creates an orchestrator committing to the given target.
func NewOrchestrator(committer Committer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		committer: committer,
		seed:      defaultTrainingSeed,
		clock:     clockwork.NewRealClock(),
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type step struct {
	name string
	fit  func(*features.Table) (any, Metrics, error)
}

// Run trains every variant against the table. Each step is independently
// wrapped: a panic or error in one variant is recorded and the run moves
// on. Successful variants commit immediately, so a late failure cannot
// roll back an earlier success.
func (o *Orchestrator) Run(ctx context.Context, t *features.Table) Report {
	report := Report{StartedAt: o.clock.Now()}

	steps := []step{
		{ModelClassifier, func(t *features.Table) (any, Metrics, error) {
			m, metric, err := trainClassifier(t, o.seed)
			return anyOrNil(m, err), metric, err
		}},
		{ModelRegressor, func(t *features.Table) (any, Metrics, error) {
			m, metric, err := trainRegressor(t, o.seed)
			return anyOrNil(m, err), metric, err
		}},
		{ModelForecaster, func(t *features.Table) (any, Metrics, error) {
			m, metric, err := trainForecaster(t)
			return anyOrNil(m, err), metric, err
		}},
		{ModelOutlier, func(t *features.Table) (any, Metrics, error) {
			m, metric, err := trainOutlierDetector(t)
			return anyOrNil(m, err), metric, err
		}},
	}

	for _, s := range steps {
		select {
		case <-ctx.Done():
			report.Steps = append(report.Steps, StepReport{
				Model:   s.name,
				Outcome: OutcomeFailed,
				Error:   ctx.Err().Error(),
			})
			continue
		default:
		}
		report.Steps = append(report.Steps, o.runStep(ctx, s, t))
	}

	report.FinishedAt = o.clock.Now()
	o.log.Info(ctx, "training run finished",
		logger.Int("trained", report.Trained()),
		logger.Int("variants", len(report.Steps)),
	)
	return report
}

func (o *Orchestrator) runStep(ctx context.Context, s step, t *features.Table) (sr StepReport) {
	start := o.clock.Now()
	sr = StepReport{Model: s.name}
	defer func() {
		sr.Duration = o.clock.Now().Sub(start)
		metrics.ObserveTrainingDuration(s.name, sr.Duration.Seconds())
		metrics.RecordModelOutcome(s.name, string(sr.Outcome))
	}()
	defer func() {
		if r := recover(); r != nil {
			sr.Outcome = OutcomeFailed
			sr.Error = fmt.Sprintf("panic: %v", r)
			o.log.Error(ctx, "training step panicked",
				logger.String("model", s.name),
				logger.Any("panic", r),
			)
		}
	}()

	model, metric, err := s.fit(t)
	switch {
	case errors.Is(err, ErrInsufficientData):
		sr.Outcome = OutcomeInsufficientData
		sr.Error = err.Error()
		o.log.Warn(ctx, "training step skipped",
			logger.String("model", s.name),
			logger.Error(err),
		)
	case err != nil:
		sr.Outcome = OutcomeFailed
		sr.Error = err.Error()
		o.log.Error(ctx, "training step failed",
			logger.String("model", s.name),
			logger.Error(err),
		)
	default:
		sr.Outcome = OutcomeTrained
		o.committer.Commit(s.name, model, metric, o.clock.Now())
		o.log.Info(ctx, "training step completed",
			logger.String("model", s.name),
			logger.Any("metrics", metricSummary(metric)),
		)
	}
	return sr
}

func anyOrNil(m any, err error) any {
	if err != nil {
		return nil
	}
	return m
}

func metricSummary(m Metrics) map[string]float64 {
	out := make(map[string]float64, 1)
	if m.Accuracy != nil {
		out["accuracy"] = *m.Accuracy
	}
	if m.RMSE != nil {
		out["rmse"] = *m.RMSE
	}
	if m.Loss != nil {
		out["loss"] = *m.Loss
	}
	return out
}

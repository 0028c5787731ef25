// Package fusion merges the individual model outputs into one ranked
// prediction list. When no model produced any output it degrades to a
// deterministic baseline instead of failing the request.
package fusion

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/civicgrid/foresight/internal/domain/category"
	"github.com/civicgrid/foresight/internal/domain/features"
	"github.com/civicgrid/foresight/internal/domain/schema"
	"github.com/civicgrid/foresight/internal/domain/train"
	"github.com/civicgrid/foresight/pkg/logger"
	"github.com/civicgrid/foresight/pkg/metrics"
)

// Fusion tuning constants. The probability floor drops noise categories,
// the risk scale maps a class probability onto the risk axis, and the item
// cap keeps the ranked list short.
const (
	probabilityFloor    = 0.10
	classifierRiskScale = 0.8
	maxRankedItems      = 5

	regressorConfidence = 0.7
	forecastConfidence  = 0.6

	fallbackRoadProbability  = 0.4
	fallbackRoadConfidence   = 0.5
	fallbackWaterProbability = 0.7
	fallbackWaterConfidence  = 0.8
)

// Prediction sources.
const (
	SourceFused    = "fused"
	SourceFallback = "fallback"
)

// Synthetic item labels for the non-classifier contributions.
const (
	labelOverallRisk = "Overall Risk"
	labelForecast    = "Trend Forecast"
)

// Prediction is one ranked item of a prediction response.
type Prediction struct {
	Category           string             `json:"category"`
	Probability        float64            `json:"probability"`
	Confidence         float64            `json:"confidence"`
	RiskScore          float64            `json:"risk_score"`
	RiskLevel          category.RiskLevel `json:"risk_level"`
	Timeframe          category.Timeframe `json:"timeframe"`
	Reasoning          string             `json:"reasoning"`
	RecommendedActions []string           `json:"recommended_actions"`
}

// Anomaly is the outlier detector's verdict on the request vector.
type Anomaly struct {
	Score     float64 `json:"score"`
	IsOutlier bool    `json:"is_outlier"`
}

// Result is the fused prediction output.
type Result struct {
	Source      string       `json:"source"`
	Predictions []Prediction `json:"predictions"`
	Anomaly     *Anomaly     `json:"anomaly,omitempty"`
}

// Models is the read side of the model registry.
type Models interface {
	Classifier() *train.Classifier
	Regressor() *train.Regressor
	Forecaster() *train.Forecaster
	OutlierDetector() *train.OutlierDetector
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// Engine combines model outputs into ranked predictions.
type Engine struct {
	models Models
	log    logger.Logger
}

// NewEngine creates a fusion engine over the given model store.
func NewEngine(models Models, opts ...Option) *Engine {
	e := &Engine{models: models, log: logger.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Predict builds the ranked prediction list for one location vector. Each
// trained model contributes independently; a model that fails for any
// reason other than a schema mismatch is dropped and the rest proceed.
// Only when no model produced output does the deterministic baseline take
// over. A schema mismatch between the vector and a trained model is
// surfaced as an error, never silently reshaped.
func (e *Engine) Predict(ctx context.Context, v schema.Vector, in features.InferenceContext, tf category.Timeframe) (Result, error) {
	preds := make([]Prediction, 0, maxRankedItems+2)

	if clf := e.models.Classifier(); clf != nil {
		probs, err := clf.Probabilities(v)
		if err != nil {
			if serr := e.surface(ctx, "classifier", err); serr != nil {
				return Result{}, serr
			}
		} else {
			preds = append(preds, e.ranked(probs, tf)...)
		}
	}

	if reg := e.models.Regressor(); reg != nil {
		risk, err := reg.Predict(v)
		if err != nil {
			if serr := e.surface(ctx, "regressor", err); serr != nil {
				return Result{}, serr
			}
		} else {
			preds = append(preds, Prediction{
				Category:           labelOverallRisk,
				Probability:        risk,
				Confidence:         regressorConfidence,
				RiskScore:          risk,
				RiskLevel:          category.LevelFor(risk),
				Timeframe:          tf,
				Reasoning:          "Continuous risk estimate over all engineered features",
				RecommendedActions: category.RiskActions(risk),
			})
		}
	}

	if fc := e.models.Forecaster(); fc != nil && in.History != nil {
		risk := fc.Horizon(in.History, tf)
		preds = append(preds, Prediction{
			Category:           labelForecast,
			Probability:        risk,
			Confidence:         forecastConfidence,
			RiskScore:          risk,
			RiskLevel:          category.LevelFor(risk),
			Timeframe:          tf,
			Reasoning:          "Projection of the recent issue trend over the requested horizon",
			RecommendedActions: category.RiskActions(risk),
		})
	}

	var anomaly *Anomaly
	if det := e.models.OutlierDetector(); det != nil {
		score, err := det.Score(v)
		if err != nil {
			if serr := e.surface(ctx, "outlier detector", err); serr != nil {
				return Result{}, serr
			}
		} else {
			outlier, _ := det.IsOutlier(v)
			anomaly = &Anomaly{Score: score, IsOutlier: outlier}
		}
	}

	res := Result{Source: SourceFused, Predictions: preds, Anomaly: anomaly}
	if len(preds) == 0 {
		e.log.Warn(ctx, "no model produced output, using fallback predictions")
		res.Source = SourceFallback
		res.Predictions = e.fallback(in, tf)
	}
	metrics.RecordPrediction(res.Source)
	metrics.ObservePredictionItems(len(res.Predictions))
	return res, nil
}

// ranked turns class probabilities into ranked items, dropping noise
// below the probability floor and capping the list.
func (e *Engine) ranked(probs map[category.Category]float64, tf category.Timeframe) []Prediction {
	preds := make([]Prediction, 0, maxRankedItems)
	for c, p := range probs {
		if p <= probabilityFloor {
			continue
		}
		risk := clamp01(p * classifierRiskScale)
		preds = append(preds, Prediction{
			Category:           c.String(),
			Probability:        p,
			Confidence:         p,
			RiskScore:          risk,
			RiskLevel:          category.LevelFor(risk),
			Timeframe:          tf,
			Reasoning:          fmt.Sprintf("Historical %s patterns match current location and conditions", c),
			RecommendedActions: category.RecommendedActions(c),
		})
	}
	// Name breaks probability ties so map iteration order never leaks
	// into the ranking.
	sort.Slice(preds, func(i, j int) bool {
		if preds[i].Probability != preds[j].Probability {
			return preds[i].Probability > preds[j].Probability
		}
		return preds[i].Category < preds[j].Category
	})
	if len(preds) > maxRankedItems {
		preds = preds[:maxRankedItems]
	}
	return preds
}

// fallback is the deterministic baseline: a modest road-issue item always,
// plus a water-supply item when precipitation is heavy.
func (e *Engine) fallback(in features.InferenceContext, tf category.Timeframe) []Prediction {
	roadRisk := clamp01(fallbackRoadProbability * classifierRiskScale)
	preds := []Prediction{{
		Category:           category.RoadPothole.String(),
		Probability:        fallbackRoadProbability,
		Confidence:         fallbackRoadConfidence,
		RiskScore:          roadRisk,
		RiskLevel:          category.LevelFor(roadRisk),
		Timeframe:          tf,
		Reasoning:          "General infrastructure wear baseline",
		RecommendedActions: category.RecommendedActions(category.RoadPothole),
	}}
	if in.Weather != nil && in.Weather.Precipitation > features.HeavyRainThresholdMM {
		waterRisk := clamp01(fallbackWaterProbability * classifierRiskScale)
		preds = append(preds, Prediction{
			Category:           category.WaterSupply.String(),
			Probability:        fallbackWaterProbability,
			Confidence:         fallbackWaterConfidence,
			RiskScore:          waterRisk,
			RiskLevel:          category.LevelFor(waterRisk),
			Timeframe:          tf,
			Reasoning:          "Heavy precipitation raises water infrastructure risk",
			RecommendedActions: category.RecommendedActions(category.WaterSupply),
		})
	}
	return preds
}

// surface decides what a model failure means for the request: a schema
// mismatch is fatal, anything else just drops that model's contribution.
func (e *Engine) surface(ctx context.Context, component string, err error) error {
	if errors.Is(err, schema.ErrMismatch) {
		metrics.RecordSchemaMismatch()
		e.log.Error(ctx, "feature schema mismatch",
			logger.String("component", component),
			logger.Error(err),
		)
		return fmt.Errorf("%s: %w", component, err)
	}
	e.log.Warn(ctx, "model output omitted",
		logger.String("component", component),
		logger.Error(err),
	)
	return nil
}

// OverallRisk blends the prediction side with the nearby area side. Each
// prediction contributes the mean of its probability and risk score; the
// area side is the mean of the supplied scores. When both sides carry
// signal the result is their average, when only one does it stands alone,
// and the result is clamped to [0,1].
func OverallRisk(preds []Prediction, areaScores []float64) float64 {
	var p float64
	if len(preds) > 0 {
		var sum float64
		for _, pr := range preds {
			sum += (pr.Probability + pr.RiskScore) / 2
		}
		p = sum / float64(len(preds))
	}
	var a float64
	if len(areaScores) > 0 {
		var sum float64
		for _, s := range areaScores {
			sum += s
		}
		a = sum / float64(len(areaScores))
	}
	switch {
	case p > 0 && a > 0:
		return clamp01((p + a) / 2)
	case p > 0:
		return clamp01(p)
	case a > 0:
		return clamp01(a)
	}
	return 0
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

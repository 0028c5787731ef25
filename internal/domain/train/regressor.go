package train

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sajari/regression"

	"github.com/civicgrid/foresight/internal/domain/category"
	"github.com/civicgrid/foresight/internal/domain/features"
	"github.com/civicgrid/foresight/internal/domain/schema"
)

const minRegressorRows = 10

// Regressor predicts the continuous risk score for a feature vector via
// least-squares regression. Constant columns are dropped before fitting
// (they would make the normal equations singular); the selected column
// indices are part of the fitted state and reapplied at inference.
type Regressor struct {
	schema *schema.Schema
	cols   []int
	model  *regression.Regression
}

func trainRegressor(t *features.Table, seed int64) (*Regressor, Metrics, error) {
	if t.Len() < minRegressorRows {
		return nil, Metrics{}, fmt.Errorf("%w: %d rows, need at least %d", ErrInsufficientData, t.Len(), minRegressorRows)
	}

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // fixed seed for reproducible splits
	trainIdx, testIdx := randomSplit(t.Len(), rng)

	cols := varyingColumns(t, trainIdx)
	if len(cols) == 0 {
		return nil, Metrics{}, fmt.Errorf("%w: every feature column is constant", ErrInsufficientData)
	}

	model := new(regression.Regression)
	model.SetObserved("risk_score")
	names := t.Schema.Columns()
	for i, col := range cols {
		model.SetVar(i, names[col])
	}
	for _, idx := range trainIdx {
		model.Train(regression.DataPoint(t.RiskScores[idx], project(t.Rows[idx].Values(), cols)))
	}
	if err := model.Run(); err != nil {
		return nil, Metrics{}, fmt.Errorf("%w: %v", ErrTrainingFailed, err)
	}

	reg := &Regressor{schema: t.Schema, cols: cols, model: model}

	var sqErr float64
	evaluated := 0
	for _, idx := range testIdx {
		pred, err := reg.Predict(t.Rows[idx])
		if err != nil {
			continue
		}
		d := pred - t.RiskScores[idx]
		sqErr += d * d
		evaluated++
	}
	rmse := 0.0
	if evaluated > 0 {
		rmse = math.Sqrt(sqErr / float64(evaluated))
	}
	return reg, Metrics{RMSE: &rmse}, nil
}

// Predict returns the predicted risk score, clamped to [0,1]. A schema
// mismatch is surfaced, never reshaped.
func (r *Regressor) Predict(v schema.Vector) (float64, error) {
	if err := r.schema.Conform(v); err != nil {
		return 0, err
	}
	pred, err := r.model.Predict(project(v.Values(), r.cols))
	if err != nil {
		return 0, fmt.Errorf("regressor predict: %w", err)
	}
	return clamp01(pred), nil
}

// varyingColumns returns indices of columns with nonzero variance on the
// training split. The reference category's indicator is excluded even when
// it varies: the indicators sum to one across every row, so keeping all of
// them is exactly collinear with the intercept.
func varyingColumns(t *features.Table, trainIdx []int) []int {
	if len(trainIdx) == 0 {
		return nil
	}
	dims := t.Schema.Len()
	first := t.Rows[trainIdx[0]].Values()
	varying := make([]bool, dims)
	for _, idx := range trainIdx[1:] {
		row := t.Rows[idx].Values()
		for j := 0; j < dims; j++ {
			if row[j] != first[j] {
				varying[j] = true
			}
		}
	}
	if ref, ok := t.Schema.Index(features.IndicatorColumn(category.Other)); ok {
		varying[ref] = false
	}
	var cols []int
	for j, v := range varying {
		if v {
			cols = append(cols, j)
		}
	}
	return cols
}

func project(row []float64, cols []int) []float64 {
	out := make([]float64, len(cols))
	for i, c := range cols {
		out[i] = row[c]
	}
	return out
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

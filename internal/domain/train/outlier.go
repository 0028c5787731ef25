package train

import (
	"fmt"
	"math"
	"sort"

	"github.com/civicgrid/foresight/internal/domain/features"
	"github.com/civicgrid/foresight/internal/domain/schema"
)

// defaultContamination is the assumed proportion of outliers in the
// training data; the decision threshold is calibrated so this share of
// training rows scores above it.
const defaultContamination = 0.1

const minOutlierRows = 10

// OutlierDetector flags feature vectors that sit far from the bulk of the
// training distribution. It is an unsupervised density model over the
// numeric columns: the anomaly score is the mean absolute z-score and the
// threshold is the (1 - contamination) quantile of training scores. It
// produces no accuracy metric, only fitted state.
type OutlierDetector struct {
	schema        *schema.Schema
	mean          []float64
	std           []float64
	threshold     float64
	contamination float64
}

func trainOutlierDetector(t *features.Table) (*OutlierDetector, Metrics, error) {
	if t.Len() < minOutlierRows {
		return nil, Metrics{}, fmt.Errorf("%w: %d rows, need at least %d", ErrInsufficientData, t.Len(), minOutlierRows)
	}

	rows := make([][]float64, t.Len())
	for i := range t.Rows {
		rows[i] = t.Rows[i].Values()
	}
	scaler := fitScaler(rows)

	d := &OutlierDetector{
		schema:        t.Schema,
		mean:          scaler.mean,
		std:           scaler.std,
		contamination: defaultContamination,
	}

	scores := make([]float64, len(rows))
	for i, row := range rows {
		scores[i] = d.rawScore(row)
	}
	sort.Float64s(scores)
	cut := int(float64(len(scores)) * (1 - d.contamination))
	if cut >= len(scores) {
		cut = len(scores) - 1
	}
	d.threshold = scores[cut]

	return d, Metrics{}, nil
}

// Score returns the anomaly score for a conformant vector; larger means
// more anomalous.
func (d *OutlierDetector) Score(v schema.Vector) (float64, error) {
	if err := d.schema.Conform(v); err != nil {
		return 0, err
	}
	return d.rawScore(v.Values()), nil
}

// IsOutlier reports whether the vector scores above the fitted threshold.
func (d *OutlierDetector) IsOutlier(v schema.Vector) (bool, error) {
	score, err := d.Score(v)
	if err != nil {
		return false, err
	}
	return score > d.threshold, nil
}

func (d *OutlierDetector) rawScore(row []float64) float64 {
	var sum float64
	for i, x := range row {
		if i >= len(d.mean) {
			break
		}
		sum += math.Abs((x - d.mean[i]) / d.std[i])
	}
	return sum / float64(len(d.mean))
}

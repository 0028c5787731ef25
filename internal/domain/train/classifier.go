package train

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/civicgrid/foresight/internal/domain/category"
	"github.com/civicgrid/foresight/internal/domain/features"
	"github.com/civicgrid/foresight/internal/domain/schema"
)

// minClassifierRows is the smallest table the classifier will fit on; below
// this the held-out split carries no signal.
const minClassifierRows = 10

// Classifier predicts per-category probabilities for a feature vector. It
// is a nearest-centroid model over scaled features: each class is
// represented by the mean of its training vectors and probabilities come
// from a softmax over negative distances.
type Classifier struct {
	schema     *schema.Schema
	scaler     *StandardScaler
	encoders   map[string]*features.LabelEncoder
	classes    []category.Category
	centroids  [][]float64
	importance []float64
}

func trainClassifier(t *features.Table, seed int64) (*Classifier, Metrics, error) {
	if t.Len() < minClassifierRows {
		return nil, Metrics{}, fmt.Errorf("%w: %d rows, need at least %d", ErrInsufficientData, t.Len(), minClassifierRows)
	}

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // fixed seed for reproducible splits
	trainIdx, testIdx := stratifiedSplit(t.Categories, rng)

	// Scaler fitted on the training split only, applied to both.
	trainRows := make([][]float64, len(trainIdx))
	for i, idx := range trainIdx {
		trainRows[i] = t.Rows[idx].Values()
	}
	scaler := fitScaler(trainRows)

	sums := make(map[category.Category][]float64)
	counts := make(map[category.Category]int)
	for _, idx := range trainIdx {
		c := t.Categories[idx]
		scaled := scaler.Transform(t.Rows[idx].Values())
		if sums[c] == nil {
			sums[c] = make([]float64, len(scaled))
		}
		for j, x := range scaled {
			sums[c][j] += x
		}
		counts[c]++
	}

	classes := make([]category.Category, 0, len(sums))
	for _, c := range category.All() {
		if counts[c] > 0 {
			classes = append(classes, c)
		}
	}
	centroids := make([][]float64, len(classes))
	for i, c := range classes {
		centroid := sums[c]
		for j := range centroid {
			centroid[j] /= float64(counts[c])
		}
		centroids[i] = centroid
	}

	clf := &Classifier{
		schema:    t.Schema,
		scaler:    scaler,
		encoders:  t.Encoders,
		classes:   classes,
		centroids: centroids,
	}
	clf.importance = centroidSpread(centroids)

	correct := 0
	for _, idx := range testIdx {
		if clf.argmax(t.Rows[idx].Values()) == t.Categories[idx] {
			correct++
		}
	}
	accuracy := 0.0
	if len(testIdx) > 0 {
		accuracy = float64(correct) / float64(len(testIdx))
	}
	return clf, Metrics{Accuracy: &accuracy}, nil
}

// Probabilities returns the per-category probability distribution for a
// conformant vector. A schema mismatch is surfaced, never reshaped.
func (c *Classifier) Probabilities(v schema.Vector) (map[category.Category]float64, error) {
	if err := c.schema.Conform(v); err != nil {
		return nil, err
	}
	scaled := c.scaler.Transform(v.Values())

	// Softmax over negative distances, shifted by the minimum distance for
	// numerical stability.
	dists := make([]float64, len(c.classes))
	minDist := math.Inf(1)
	for i, centroid := range c.centroids {
		dists[i] = euclidean(scaled, centroid)
		if dists[i] < minDist {
			minDist = dists[i]
		}
	}
	var sum float64
	weights := make([]float64, len(dists))
	for i, d := range dists {
		weights[i] = math.Exp(minDist - d)
		sum += weights[i]
	}
	probs := make(map[category.Category]float64, len(c.classes))
	for i, cl := range c.classes {
		probs[cl] = weights[i] / sum
	}
	return probs, nil
}

func (c *Classifier) argmax(raw []float64) category.Category {
	scaled := c.scaler.Transform(raw)
	best := c.classes[0]
	bestDist := math.Inf(1)
	for i, centroid := range c.centroids {
		if d := euclidean(scaled, centroid); d < bestDist {
			bestDist = d
			best = c.classes[i]
		}
	}
	return best
}

// FeatureImportance is one entry of the diagnostic importance ranking.
type FeatureImportance struct {
	Feature    string
	Importance float64
}

// TopFeatures returns the n most discriminative features, descending.
func (c *Classifier) TopFeatures(n int) []FeatureImportance {
	cols := c.schema.Columns()
	ranked := make([]FeatureImportance, 0, len(cols))
	for i, col := range cols {
		if i < len(c.importance) {
			ranked = append(ranked, FeatureImportance{Feature: col, Importance: c.importance[i]})
		}
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Importance > ranked[j].Importance })
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// Encoders exposes the categorical encoders fitted alongside the model.
func (c *Classifier) Encoders() map[string]*features.LabelEncoder { return c.encoders }

// centroidSpread ranks features by how far the class centroids spread along
// each dimension; a feature whose centroids coincide carries no class
// signal. Normalized to sum to one.
func centroidSpread(centroids [][]float64) []float64 {
	if len(centroids) == 0 {
		return nil
	}
	dims := len(centroids[0])
	spread := make([]float64, dims)
	for j := 0; j < dims; j++ {
		var mean float64
		for _, c := range centroids {
			mean += c[j]
		}
		mean /= float64(len(centroids))
		for _, c := range centroids {
			d := c[j] - mean
			spread[j] += d * d
		}
	}
	var total float64
	for _, s := range spread {
		total += s
	}
	if total > 0 {
		for j := range spread {
			spread[j] /= total
		}
	}
	return spread
}

func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		if i >= len(b) {
			break
		}
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Package registry holds the trained model variants behind a concurrent
// read path. Each entry is replaced wholesale by pointer swap, so a reader
// either sees the previous fully-trained snapshot or the new one, never a
// half-updated model.
package registry

import (
	"sync"
	"time"

	"github.com/civicgrid/foresight/internal/domain/train"
	"github.com/civicgrid/foresight/pkg/metrics"
)

// Snapshot is one committed model with the evaluation record and timestamp
// captured at commit time.
type Snapshot struct {
	Model     any
	Metrics   train.Metrics
	TrainedAt time.Time
}

// Status is the externally visible state of one variant.
type Status struct {
	Trained   bool       `json:"trained"`
	TrainedAt *time.Time `json:"trained_at,omitempty"`
	Accuracy  *float64   `json:"accuracy,omitempty"`
	RMSE      *float64   `json:"rmse,omitempty"`
	Loss      *float64   `json:"loss,omitempty"`
}

// Registry is the in-process model store. The zero value is not usable;
// construct with New.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Snapshot
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]*Snapshot)}
}

// Commit atomically replaces the named entry. It implements
// train.Committer.
func (r *Registry) Commit(name string, model any, m train.Metrics, trainedAt time.Time) {
	snap := &Snapshot{Model: model, Metrics: m, TrainedAt: trainedAt}
	r.mu.Lock()
	r.entries[name] = snap
	n := len(r.entries)
	r.mu.Unlock()
	metrics.UpdateModelsTrained(n)
}

// Get returns the snapshot for the named variant, or nil when it has never
// been trained.
func (r *Registry) Get(name string) *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[name]
}

// Len returns the number of trained variants.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Status reports every known variant, trained or not.
func (r *Registry) Status() map[string]Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Status, len(train.ModelNames()))
	for _, name := range train.ModelNames() {
		snap, ok := r.entries[name]
		if !ok {
			out[name] = Status{}
			continue
		}
		at := snap.TrainedAt
		out[name] = Status{
			Trained:   true,
			TrainedAt: &at,
			Accuracy:  snap.Metrics.Accuracy,
			RMSE:      snap.Metrics.RMSE,
			Loss:      snap.Metrics.Loss,
		}
	}
	return out
}

// Classifier returns the trained classifier, or nil.
func (r *Registry) Classifier() *train.Classifier {
	if snap := r.Get(train.ModelClassifier); snap != nil {
		if m, ok := snap.Model.(*train.Classifier); ok {
			return m
		}
	}
	return nil
}

// Regressor returns the trained risk regressor, or nil.
func (r *Registry) Regressor() *train.Regressor {
	if snap := r.Get(train.ModelRegressor); snap != nil {
		if m, ok := snap.Model.(*train.Regressor); ok {
			return m
		}
	}
	return nil
}

// Forecaster returns the trained sequence model, or nil.
func (r *Registry) Forecaster() *train.Forecaster {
	if snap := r.Get(train.ModelForecaster); snap != nil {
		if m, ok := snap.Model.(*train.Forecaster); ok {
			return m
		}
	}
	return nil
}

// OutlierDetector returns the trained anomaly model, or nil.
func (r *Registry) OutlierDetector() *train.OutlierDetector {
	if snap := r.Get(train.ModelOutlier); snap != nil {
		if m, ok := snap.Model.(*train.OutlierDetector); ok {
			return m
		}
	}
	return nil
}

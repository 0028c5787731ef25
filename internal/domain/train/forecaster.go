package train

import (
	"fmt"
	"sort"
	"time"

	"github.com/sajari/regression"

	"github.com/civicgrid/foresight/internal/domain/category"
	"github.com/civicgrid/foresight/internal/domain/features"
	"github.com/civicgrid/foresight/internal/domain/observation"
)

// SequenceLength is the sliding-window length of the short-horizon model:
// seven steps of history predict the next step's risk.
const SequenceLength = 7

// Horizon item shape constants.
const (
	horizonBaseRisk   = 0.3
	horizonTrendBoost = 0.05
	horizonSpanDays   = 30.0
)

// Forecaster is the short-horizon sequence model. Training groups the
// table by location key, sorts each group by date, and regresses the
// next-step risk on aggregate window predictors (window mean, window
// slope, last value, window precipitation mean).
type Forecaster struct {
	model *regression.Regression
}

type window struct {
	predictors []float64
	target     float64
	targetDate time.Time
}

func trainForecaster(t *features.Table) (*Forecaster, Metrics, error) {
	windows := buildWindows(t)
	if len(windows) == 0 {
		return nil, Metrics{}, fmt.Errorf("%w: no location series reaches %d observations", ErrInsufficientData, SequenceLength+1)
	}

	// Chronological split over the full series: training on the past only.
	sort.Slice(windows, func(i, j int) bool { return windows[i].targetDate.Before(windows[j].targetDate) })
	trainEnd := chronologicalSplit(len(windows))

	model := new(regression.Regression)
	model.SetObserved("next_risk")
	model.SetVar(0, "window_mean")
	model.SetVar(1, "window_slope")
	model.SetVar(2, "last_risk")
	model.SetVar(3, "window_precip_mean")
	for _, w := range windows[:trainEnd] {
		model.Train(regression.DataPoint(w.target, w.predictors))
	}
	if err := model.Run(); err != nil {
		return nil, Metrics{}, fmt.Errorf("%w: %v", ErrTrainingFailed, err)
	}

	var sqErr float64
	evaluated := 0
	for _, w := range windows[trainEnd:] {
		pred, err := model.Predict(w.predictors)
		if err != nil {
			continue
		}
		d := pred - w.target
		sqErr += d * d
		evaluated++
	}
	loss := 0.0
	if evaluated > 0 {
		loss = sqErr / float64(evaluated)
	}
	return &Forecaster{model: model}, Metrics{Loss: &loss}, nil
}

// buildWindows slides a SequenceLength window over each location group.
// Groups shorter than SequenceLength+1 are skipped; they cannot produce a
// single (window, next-step) pair.
func buildWindows(t *features.Table) []window {
	type point struct {
		date   time.Time
		risk   float64
		precip float64
	}
	groups := make(map[string][]point)
	precipIdx, _ := t.Schema.Index(features.ColPrecipitation)
	for i := range t.Rows {
		groups[t.LocationKeys[i]] = append(groups[t.LocationKeys[i]], point{
			date:   t.Dates[i],
			risk:   t.RiskScores[i],
			precip: t.Rows[i].Values()[precipIdx],
		})
	}

	var windows []window
	for _, series := range groups {
		sort.Slice(series, func(i, j int) bool { return series[i].date.Before(series[j].date) })
		if len(series) < SequenceLength+1 {
			continue
		}
		for i := 0; i+SequenceLength < len(series); i++ {
			var riskSum, precipSum float64
			for _, p := range series[i : i+SequenceLength] {
				riskSum += p.risk
				precipSum += p.precip
			}
			mean := riskSum / SequenceLength
			slope := (series[i+SequenceLength-1].risk - series[i].risk) / SequenceLength
			windows = append(windows, window{
				predictors: []float64{
					mean,
					slope,
					series[i+SequenceLength-1].risk,
					precipSum / SequenceLength,
				},
				target:     series[i+SequenceLength].risk,
				targetDate: series[i+SequenceLength].date,
			})
		}
	}
	return windows
}

// Horizon produces the timeframe-scaled risk estimate for the sequence
// item. It is a calibrated heuristic rather than a literal forward pass:
// risk grows with the requested horizon and with an increasing recent
// trend, clamped to [0,1].
func (f *Forecaster) Horizon(history *observation.HistoricalContext, tf category.Timeframe) float64 {
	risk := horizonBaseRisk * (1 + float64(tf.Days())/horizonSpanDays)
	if history != nil && history.RecentTrend == "increasing" {
		risk += horizonTrendBoost
	}
	return clamp01(risk)
}

// Package features turns raw observation records into model-ready feature
// vectors, and builds the single inference-time vector for an arbitrary
// location. Training and inference share every derivation formula in this
// package; the schema they produce against is the one from BuildSchema.
package features

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/civicgrid/foresight/internal/domain/category"
	"github.com/civicgrid/foresight/internal/domain/observation"
	"github.com/civicgrid/foresight/internal/domain/schema"
	"github.com/civicgrid/foresight/pkg/logger"
)

// Default pipeline configuration constants.
const (
	// DefaultCenterLat and DefaultCenterLng anchor the
	// distance-from-center feature. They point at the city center the
	// historical dataset was collected around.
	DefaultCenterLat = 23.3441
	DefaultCenterLng = 85.3096

	defaultLabelSeed = 42

	categoryWeightMin    = 0.1
	categoryWeightRange  = 0.2
	heavyRainRiskBoost   = 0.2
	extremeTempRiskBoost = 0.15
)

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithReferenceCenter overrides the reference center point.
func WithReferenceCenter(lat, lng float64) Option {
	return func(p *Pipeline) {
		p.centerLat = lat
		p.centerLng = lng
	}
}

// WithLabelSeed sets the seed for the derived risk-score label weights.
// A fixed seed keeps the training label reproducible across runs.
func WithLabelSeed(seed int64) Option {
	return func(p *Pipeline) {
		p.labelSeed = seed
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

// Pipeline converts observations into the training table and single
// locations into inference vectors.
type Pipeline struct {
	schema    *schema.Schema
	centerLat float64
	centerLng float64
	labelSeed int64

	// categoryRisk holds the per-category contribution to the derived
	// risk-score label, drawn once from the seeded generator.
	categoryRisk map[category.Category]float64

	log logger.Logger
}

// NewPipeline creates a pipeline with configuration options.
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		schema:    BuildSchema(),
		centerLat: DefaultCenterLat,
		centerLng: DefaultCenterLng,
		labelSeed: defaultLabelSeed,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	rng := rand.New(rand.NewSource(p.labelSeed)) //nolint:gosec // deterministic label weights, not security sensitive
	p.categoryRisk = make(map[category.Category]float64, len(category.All()))
	for _, c := range category.All() {
		p.categoryRisk[c] = categoryWeightMin + rng.Float64()*categoryWeightRange
	}
	return p
}

// Schema returns the canonical schema the pipeline produces against.
func (p *Pipeline) Schema() *schema.Schema { return p.schema }

// Table is the training table: feature vectors plus the retained label
// columns and the join keys the sequence model groups by. Labels are for
// training use only and never appear in the schema.
type Table struct {
	Schema *schema.Schema
	Rows   []schema.Vector

	// Labels, aligned with Rows.
	Categories []category.Category
	RiskScores []float64

	// Grouping keys, aligned with Rows.
	LocationKeys []string
	Dates        []time.Time

	// Encoders fitted during Build, keyed by column name. Reused
	// identically at inference by the trained variants that carry them.
	Encoders map[string]*LabelEncoder
}

// Len returns the number of training rows.
func (t *Table) Len() int { return len(t.Rows) }

// Build converts observations, optionally left-joined with weather-by-date
// and demographics-by-location-cell, into the training table.
//
// Join failures are not fatal: a missing join zero-fills the affected
// columns so the schema's column count stays stable, and the degradation is
// logged rather than swallowed.
func (p *Pipeline) Build(
	ctx context.Context,
	obs []observation.Observation,
	weatherByDate map[string]observation.Weather,
	demographics map[string]observation.Demographics,
) (*Table, error) {
	if len(obs) == 0 {
		return nil, ErrNoObservations
	}

	// Chronological order fixes the rolling precipitation window and the
	// sequence model's notion of time.
	sorted := make([]observation.Observation, len(obs))
	copy(sorted, obs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CreatedAt.Before(sorted[j].CreatedAt) })

	if len(weatherByDate) == 0 {
		p.log.Warn(ctx, "no weather join possible; weather columns will be zero-filled where observations carry none")
	}
	if len(demographics) == 0 {
		p.log.Warn(ctx, "no demographic join possible; demographic columns will be zero-filled where observations carry none")
	}

	encoders := p.fitEncoders(sorted, demographics)

	t := &Table{
		Schema:       p.schema,
		Rows:         make([]schema.Vector, 0, len(sorted)),
		Categories:   make([]category.Category, 0, len(sorted)),
		RiskScores:   make([]float64, 0, len(sorted)),
		LocationKeys: make([]string, 0, len(sorted)),
		Dates:        make([]time.Time, 0, len(sorted)),
		Encoders:     encoders,
	}

	var rolling rollingMean
	for i, o := range sorted {
		w, joined := p.resolveWeather(o, weatherByDate)
		d := p.resolveDemographics(o, demographics)

		v := p.schema.NewVector()
		applyTemporal(v, o.CreatedAt)
		applySpatial(v, o.Latitude, o.Longitude, p.centerLat, p.centerLng)
		applyWeather(v, w, rolling.push(w.Precipitation))

		if d != nil {
			_ = v.Set(ColPopulationDensity, d.PopulationDensity)
			_ = v.Set(ColInfrastructureAge, d.InfrastructureAge)
			_ = v.Set(ColUrbanArea, boolToFlag(d.Urban))
			if code, err := encoders[ColIncomeLevel].Transform(d.IncomeTier); err == nil {
				_ = v.Set(ColIncomeLevel, code)
			} else {
				return nil, err
			}
		}

		code, err := encoders[ColPriority].Transform(o.Priority.String())
		if err != nil {
			return nil, err
		}
		_ = v.Set(ColPriority, code)
		_ = v.Set(ColResolutionTime, o.ResolutionDays)
		_ = v.Set(IndicatorColumn(o.Category), 1)

		t.Rows = append(t.Rows, v)
		t.Categories = append(t.Categories, o.Category)
		t.RiskScores = append(t.RiskScores, p.labelRisk(v, o.Category))
		t.LocationKeys = append(t.LocationKeys, o.LocationKey())
		t.Dates = append(t.Dates, o.CreatedAt)

		if !joined && len(weatherByDate) > 0 {
			p.log.Debug(ctx, "observation has no weather for its date; zero-filled",
				logger.String("id", o.ID),
				logger.String("date", o.DateKey()),
				logger.Int("row", i),
			)
		}
	}

	p.log.Info(ctx, "training table built",
		logger.Int("rows", t.Len()),
		logger.Int("columns", p.schema.Len()),
	)
	return t, nil
}

// fitEncoders fits the label encoders over everything the table will meet,
// resolved exactly the way Build resolves it, so Transform cannot fail
// within the same Build.
func (p *Pipeline) fitEncoders(obs []observation.Observation, byCell map[string]observation.Demographics) map[string]*LabelEncoder {
	priorities := make([]string, 0, len(obs))
	incomes := make([]string, 0, len(obs))
	for _, o := range obs {
		priorities = append(priorities, o.Priority.String())
		if d := p.resolveDemographics(o, byCell); d != nil {
			incomes = append(incomes, d.IncomeTier)
		}
	}
	return map[string]*LabelEncoder{
		ColPriority:    FitLabelEncoder(priorities),
		ColIncomeLevel: FitLabelEncoder(incomes),
	}
}

// resolveWeather prefers the weather embedded in the observation, then the
// date join, then zero values.
func (p *Pipeline) resolveWeather(o observation.Observation, byDate map[string]observation.Weather) (observation.Weather, bool) {
	if o.Weather != nil {
		return *o.Weather, true
	}
	if w, ok := byDate[o.DateKey()]; ok {
		return w, true
	}
	return observation.Weather{}, false
}

func (p *Pipeline) resolveDemographics(o observation.Observation, byCell map[string]observation.Demographics) *observation.Demographics {
	if o.Demographics != nil {
		return o.Demographics
	}
	if d, ok := byCell[o.LocationKey()]; ok {
		return &d
	}
	return nil
}

// labelRisk derives the training risk-score label from the category weight
// and the weather flags, clamped to [0,1].
func (p *Pipeline) labelRisk(v schema.Vector, c category.Category) float64 {
	risk := p.categoryRisk[c]
	if flag, _ := v.Get(ColHeavyRain); flag > 0 {
		risk += heavyRainRiskBoost
	}
	if flag, _ := v.Get(ColExtremeTemp); flag > 0 {
		risk += extremeTempRiskBoost
	}
	return clamp01(risk)
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

// rollingMean keeps the short-window precipitation average. Window length
// is rollingRainWindow with a minimum period of one.
type rollingMean struct {
	window [rollingRainWindow]float64
	n      int
}

func (r *rollingMean) push(x float64) float64 {
	r.window[r.n%rollingRainWindow] = x
	r.n++
	span := r.n
	if span > rollingRainWindow {
		span = rollingRainWindow
	}
	var sum float64
	for i := 0; i < span; i++ {
		sum += r.window[i]
	}
	return sum / float64(span)
}

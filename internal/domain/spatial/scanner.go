// Package spatial scans the area around a location for elevated-risk grid
// cells and renders risk heatmaps. Cell scores blend proximity to the
// queried point, a deterministic noise component, and an infrastructure
// profile keyed to the urban core.
package spatial

import (
	"context"
	"math"
	"sync"

	"github.com/paulmach/orb"

	"github.com/civicgrid/foresight/internal/domain/category"
	"github.com/civicgrid/foresight/pkg/logger"
	"github.com/civicgrid/foresight/pkg/metrics"
)

// Grid geometry. Risk-area scans cover a fixed 5x5 grid of cells centered
// on the query point; heatmaps are square grids at the requested
// resolution.
const (
	riskAreaSpan  = 2 // offsets -2..2 per axis
	kmPerDegree   = 111.0
	MaxResolution = 200
)

// Cell score blend. Proximity decays linearly with distance in degrees;
// noise is rescaled into [0.2, 0.8]; the infrastructure term multiplies an
// urban factor by an age factor.
const (
	proximityWeight      = 0.3
	noiseWeight          = 0.4
	infrastructureWeight = 0.3

	proximityDecay = 10.0
	noiseFloor     = 0.2
	noiseSpan      = 0.6

	urbanBoxDegrees = 0.1
	urbanCoreFactor = 1.0
	peripheryFactor = 0.6
	ageFactorFloor  = 0.3
	ageFactorSpan   = 0.7

	riskAreaFloor = 0.6

	highRiskFloor     = 0.6
	criticalRiskFloor = 0.8
)

// Noise streams. Each independent draw at a coordinate uses its own
// stream so the draws do not correlate.
const (
	streamRisk uint64 = iota
	streamAge
	streamDensity
	streamIssues
)

// maxRowWorkers bounds concurrent heatmap row evaluation.
const maxRowWorkers = 8

// RiskArea is one elevated-risk grid cell.
type RiskArea struct {
	Center            orb.Point          `json:"center"`
	RiskScore         float64            `json:"risk_score"`
	RiskLevel         category.RiskLevel `json:"risk_level"`
	PredictedIssues   []string           `json:"predicted_issues"`
	PopulationDensity float64            `json:"population_density"`
}

// HeatPoint is one heatmap sample.
type HeatPoint struct {
	Point orb.Point `json:"point"`
	Risk  float64   `json:"risk"`
}

// Summary aggregates a heatmap.
type Summary struct {
	TotalPoints        int     `json:"total_points"`
	AvgRisk            float64 `json:"avg_risk"`
	MaxRisk            float64 `json:"max_risk"`
	MinRisk            float64 `json:"min_risk"`
	HighRiskPoints     int     `json:"high_risk_points"`
	CriticalRiskPoints int     `json:"critical_risk_points"`
}

// Heatmap is a rendered risk grid with its bounding box.
type Heatmap struct {
	Points  []HeatPoint `json:"points"`
	Bounds  orb.Bound   `json:"bounds"`
	Summary Summary     `json:"summary"`
}

// Option applies a configuration option to the Scanner.
type Option func(*Scanner)

// WithReferenceCenter sets the urban-core reference coordinate.
func WithReferenceCenter(lat, lng float64) Option {
	return func(s *Scanner) {
		s.refLat = lat
		s.refLng = lng
	}
}

// WithNoise sets a custom noise source.
func WithNoise(noise NoiseSource) Option {
	return func(s *Scanner) {
		if noise != nil {
			s.noise = noise
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Scanner) {
		if log != nil {
			s.log = log
		}
	}
}

// Default urban-core reference coordinate.
const (
	DefaultCenterLat = 23.3441
	DefaultCenterLng = 85.3096
)

// Scanner evaluates risk over geographic grids.
type Scanner struct {
	noise  NoiseSource
	refLat float64
	refLng float64
	log    logger.Logger
}

// NewScanner creates a scanner with a default seeded noise source.
func NewScanner(opts ...Option) *Scanner {
	s := &Scanner{
		noise:  NewSeededNoise(0),
		refLat: DefaultCenterLat,
		refLng: DefaultCenterLng,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RiskAreas scans the 5x5 grid around the point and returns the cells
// whose score exceeds the elevated-risk floor, nearest first in grid
// order.
func (s *Scanner) RiskAreas(ctx context.Context, lat, lng, radiusKm float64) []RiskArea {
	latStep := radiusKm / kmPerDegree
	lngStep := radiusKm / (kmPerDegree * math.Cos(lat*math.Pi/180))

	var areas []RiskArea
	for i := -riskAreaSpan; i <= riskAreaSpan; i++ {
		for j := -riskAreaSpan; j <= riskAreaSpan; j++ {
			cellLat := lat + float64(i)*latStep/float64(riskAreaSpan)
			cellLng := lng + float64(j)*lngStep/float64(riskAreaSpan)
			risk := s.cellRisk(cellLat, cellLng, lat, lng)
			if risk <= riskAreaFloor {
				continue
			}
			areas = append(areas, RiskArea{
				Center:            orb.Point{cellLng, cellLat},
				RiskScore:         risk,
				RiskLevel:         category.LevelFor(risk),
				PredictedIssues:   s.predictedIssues(cellLat, cellLng),
				PopulationDensity: s.populationDensity(cellLat, cellLng),
			})
		}
	}
	metrics.ObserveRiskAreasFound(len(areas))
	return areas
}

// AreaScores returns just the scores of the elevated cells, for overall
// risk blending.
func AreaScores(areas []RiskArea) []float64 {
	scores := make([]float64, len(areas))
	for i, a := range areas {
		scores[i] = a.RiskScore
	}
	return scores
}

// Heatmap renders a resolution x resolution risk grid spanning the radius
// around the point. Resolution is capped at MaxResolution. Rows are
// evaluated concurrently; the noise source makes the result independent of
// evaluation order.
func (s *Scanner) Heatmap(ctx context.Context, lat, lng, radiusKm float64, resolution int) Heatmap {
	if resolution < 2 {
		resolution = 2
	}
	if resolution > MaxResolution {
		s.log.Warn(ctx, "heatmap resolution capped",
			logger.Int("requested", resolution),
			logger.Int("cap", MaxResolution),
		)
		resolution = MaxResolution
	}

	latSpan := radiusKm / kmPerDegree
	lngSpan := radiusKm / (kmPerDegree * math.Cos(lat*math.Pi/180))

	points := make([]HeatPoint, resolution*resolution)
	var wg sync.WaitGroup
	sem := make(chan struct{}, maxRowWorkers)
	for row := 0; row < resolution; row++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(row int) {
			defer wg.Done()
			defer func() { <-sem }()
			cellLat := lat - latSpan + 2*latSpan*float64(row)/float64(resolution-1)
			for col := 0; col < resolution; col++ {
				cellLng := lng - lngSpan + 2*lngSpan*float64(col)/float64(resolution-1)
				points[row*resolution+col] = HeatPoint{
					Point: orb.Point{cellLng, cellLat},
					Risk:  s.cellRisk(cellLat, cellLng, lat, lng),
				}
			}
		}(row)
	}
	wg.Wait()

	hm := Heatmap{
		Points: points,
		Bounds: orb.Bound{
			Min: orb.Point{lng - lngSpan, lat - latSpan},
			Max: orb.Point{lng + lngSpan, lat + latSpan},
		},
		Summary: summarize(points),
	}
	metrics.ObserveHeatmapPoints(len(points))
	return hm
}

func summarize(points []HeatPoint) Summary {
	sum := Summary{TotalPoints: len(points), MinRisk: math.Inf(1)}
	if len(points) == 0 {
		sum.MinRisk = 0
		return sum
	}
	var total float64
	for _, p := range points {
		total += p.Risk
		if p.Risk > sum.MaxRisk {
			sum.MaxRisk = p.Risk
		}
		if p.Risk < sum.MinRisk {
			sum.MinRisk = p.Risk
		}
		if p.Risk > highRiskFloor {
			sum.HighRiskPoints++
		}
		if p.Risk > criticalRiskFloor {
			sum.CriticalRiskPoints++
		}
	}
	sum.AvgRisk = total / float64(len(points))
	return sum
}

// cellRisk blends proximity, noise, and the infrastructure profile into a
// [0,1] score.
func (s *Scanner) cellRisk(cellLat, cellLng, queryLat, queryLng float64) float64 {
	d := math.Hypot(cellLat-queryLat, cellLng-queryLng)
	proximity := math.Max(0, 1-d*proximityDecay)

	noise := noiseFloor + s.noise.At(cellLat, cellLng, streamRisk)*noiseSpan

	urban := peripheryFactor
	if math.Abs(cellLat-s.refLat) < urbanBoxDegrees && math.Abs(cellLng-s.refLng) < urbanBoxDegrees {
		urban = urbanCoreFactor
	}
	age := ageFactorFloor + s.noise.At(cellLat, cellLng, streamAge)*ageFactorSpan
	infrastructure := urban * age

	risk := proximityWeight*proximity + noiseWeight*noise + infrastructureWeight*infrastructure
	if risk > 1 {
		risk = 1
	}
	return risk
}

// predictedIssues names the categories most likely to surface in the cell.
func (s *Scanner) predictedIssues(cellLat, cellLng float64) []string {
	all := category.All()
	draw := s.noise.At(cellLat, cellLng, streamIssues)
	count := 1 + int(draw*3)
	if count > 3 {
		count = 3
	}
	start := int(draw * float64(len(all)))
	issues := make([]string, 0, count)
	for k := 0; k < count; k++ {
		issues = append(issues, all[(start+k)%len(all)].String())
	}
	return issues
}

const (
	densityFloor = 100.0
	densitySpan  = 4900.0
)

func (s *Scanner) populationDensity(cellLat, cellLng float64) float64 {
	return densityFloor + s.noise.At(cellLat, cellLng, streamDensity)*densitySpan
}

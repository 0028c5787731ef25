package weather

import (
	"context"
	"encoding/binary"
	"hash/fnv"

	"github.com/civicgrid/foresight/internal/domain/observation"
)

// Demo condition envelopes, shaped like the regional climate.
const (
	demoTempMin   = 18.0
	demoTempMax   = 36.0
	demoPrecipMax = 30.0
	demoHumidMin  = 40.0
	demoHumidMax  = 90.0
	demoWindMax   = 15.0
)

// DemoProvider returns plausible conditions derived deterministically from
// the coordinate and a seed, for environments without an API key.
type DemoProvider struct {
	seed uint64
}

// NewDemoProvider creates a seeded demo provider.
func NewDemoProvider(seed int64) *DemoProvider {
	return &DemoProvider{seed: uint64(seed)}
}

func (p *DemoProvider) Current(ctx context.Context, lat, lng float64) (observation.Weather, error) {
	return observation.Weather{
		Temperature:   demoTempMin + p.draw(lat, lng, 0)*(demoTempMax-demoTempMin),
		Precipitation: p.draw(lat, lng, 1) * demoPrecipMax,
		Humidity:      demoHumidMin + p.draw(lat, lng, 2)*(demoHumidMax-demoHumidMin),
		WindSpeed:     p.draw(lat, lng, 3) * demoWindMax,
		Pressure:      1000 + p.draw(lat, lng, 4)*25,
	}, nil
}

func (p *DemoProvider) draw(lat, lng float64, stream uint64) float64 {
	h := fnv.New64a()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], p.seed)
	h.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], uint64(int64(lat*1e6)))
	h.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], uint64(int64(lng*1e6)))
	h.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], stream)
	h.Write(buf[:])
	return float64(h.Sum64()>>11) / float64(1<<53)
}

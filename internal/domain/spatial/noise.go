package spatial

import (
	"encoding/binary"
	"hash/fnv"
	"math"
)

// NoiseSource supplies the stochastic component of a cell's risk. It must
// be deterministic per coordinate so that identical scans over the same
// area produce identical results, regardless of evaluation order.
type NoiseSource interface {
	// At returns a value in [0,1) for the given coordinate and stream.
	// Streams separate independent draws at the same coordinate.
	At(lat, lng float64, stream uint64) float64
}

// seededNoise hashes the coordinate together with a fixed seed. Hashing
// instead of a shared generator keeps concurrent grid evaluation free of
// locks and of ordering effects.
type seededNoise struct {
	seed uint64
}

// NewSeededNoise creates a coordinate-hashed noise source.
func NewSeededNoise(seed int64) NoiseSource {
	return &seededNoise{seed: uint64(seed)}
}

func (n *seededNoise) At(lat, lng float64, stream uint64) float64 {
	h := fnv.New64a()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], n.seed)
	h.Write(buf[:])
	// Coordinates are quantized so float jitter below a centimeter cannot
	// flip the draw.
	binary.BigEndian.PutUint64(buf[:], uint64(int64(math.Round(lat*1e6))))
	h.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], uint64(int64(math.Round(lng*1e6))))
	h.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], stream)
	h.Write(buf[:])
	return float64(h.Sum64()>>11) / float64(1<<53)
}

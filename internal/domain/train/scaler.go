package train

import "math"

// StandardScaler centers and scales features to zero mean and unit
// variance. It is fitted on the training split only and applied unchanged
// to the test split and at inference.
type StandardScaler struct {
	mean []float64
	std  []float64
}

func fitScaler(rows [][]float64) *StandardScaler {
	if len(rows) == 0 {
		return &StandardScaler{}
	}
	dims := len(rows[0])
	mean := make([]float64, dims)
	std := make([]float64, dims)

	for _, row := range rows {
		for i, x := range row {
			mean[i] += x
		}
	}
	n := float64(len(rows))
	for i := range mean {
		mean[i] /= n
	}
	for _, row := range rows {
		for i, x := range row {
			d := x - mean[i]
			std[i] += d * d
		}
	}
	for i := range std {
		std[i] = math.Sqrt(std[i] / n)
		if std[i] == 0 {
			// Constant columns pass through centered but unscaled.
			std[i] = 1
		}
	}
	return &StandardScaler{mean: mean, std: std}
}

// Transform scales a single row. Rows of unexpected width are the caller's
// bug and scale only the overlapping prefix.
func (s *StandardScaler) Transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for i, x := range row {
		if i >= len(s.mean) {
			out[i] = x
			continue
		}
		out[i] = (x - s.mean[i]) / s.std[i]
	}
	return out
}

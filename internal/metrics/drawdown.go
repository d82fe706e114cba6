package metrics

import (
	"math"
)

// Drawdown calculates the peak-to-date drawdown series of values:
// (peak − current) / peak, where peak is the running maximum up to and
// including the current point. The first observation is zero by definition,
// and a monotonically increasing series is zero everywhere.
func Drawdown(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	peak := values[0]
	for i, v := range values {
		if v > peak {
			peak = v
		}
		if peak == 0 || math.IsNaN(peak) {
			out[i] = math.NaN()
			continue
		}
		out[i] = (peak - v) / peak
	}
	return out
}

// MaxDrawdown returns the largest drawdown observed over the whole series,
// ignoring NaN entries. An empty series has zero drawdown.
func MaxDrawdown(values []float64) float64 {
	max := 0.0
	for _, d := range Drawdown(values) {
		if math.IsNaN(d) {
			continue
		}
		if d > max {
			max = d
		}
	}
	return max
}

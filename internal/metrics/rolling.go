package metrics

import (
	"math"
)

// RollingSMA calculates the simple moving average of prices over the given
// window. The first window-1 entries are NaN.
func RollingSMA(prices []float64, window int) []float64 {
	out := nanSlice(len(prices))
	if window <= 0 || len(prices) == 0 {
		return out
	}

	// Running sum instead of re-summing the window at every step.
	sum := 0.0
	for i, p := range prices {
		sum += p
		if i >= window {
			sum -= prices[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// RollingStd calculates the rolling sample standard deviation of values over
// the given window. The first window-1 entries are NaN. NaN values inside the
// window (for example the leading entry of a returns series) poison their
// window positions, matching how the unfilled-window convention propagates.
func RollingStd(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window < 2 || len(values) == 0 {
		return out
	}

	for i := window - 1; i < len(values); i++ {
		out[i] = sampleStd(values[i-window+1 : i+1])
	}
	return out
}

// RollingMean calculates the rolling arithmetic mean over the given window
// with the same NaN conventions as RollingStd.
func RollingMean(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window <= 0 || len(values) == 0 {
		return out
	}

	for i := window - 1; i < len(values); i++ {
		sum := 0.0
		for _, v := range values[i-window+1 : i+1] {
			sum += v
		}
		out[i] = sum / float64(window)
	}
	return out
}

// RollingVolatility calculates the rolling sample standard deviation of
// prices over the given window.
func RollingVolatility(prices []float64, window int) []float64 {
	return RollingStd(prices, window)
}

// Returns calculates the percentage change series of prices. The first entry
// is NaN; a zero previous price yields NaN rather than infinity.
func Returns(prices []float64) []float64 {
	out := nanSlice(len(prices))
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			continue
		}
		out[i] = (prices[i] - prices[i-1]) / prices[i-1]
	}
	return out
}

// RollingSharpe calculates the rolling Sharpe ratio: mean return over realized
// volatility of returns for the same window. Wherever volatility is zero the
// entry is NaN, never an infinity.
func RollingSharpe(prices []float64, window int) []float64 {
	rets := Returns(prices)
	means := RollingMean(rets, window)
	stds := RollingStd(rets, window)

	out := nanSlice(len(prices))
	for i := range out {
		if math.IsNaN(means[i]) || math.IsNaN(stds[i]) || stds[i] == 0 {
			continue
		}
		out[i] = means[i] / stds[i]
	}
	return out
}

// sampleStd is the n-1 denominator standard deviation. NaN inputs propagate.
func sampleStd(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return math.NaN()
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)

	sq := 0.0
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(n-1))
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

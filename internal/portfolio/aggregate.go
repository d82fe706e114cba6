package portfolio

import (
	"fmt"
	"math"
	"sort"

	"rollbench/internal/metrics"
	"rollbench/pkg/contracts/domain"
)

// Aggregate combines a set of positions and their full price histories into
// one PortfolioSummary. Every position must have a series of the same length;
// a missing or mismatched contribution fails the aggregation outright rather
// than producing a partial summary.
func Aggregate(positions []domain.Position, seriesBySymbol map[string]domain.Series, window int) (domain.PortfolioSummary, error) {
	if len(positions) == 0 {
		return domain.PortfolioSummary{}, fmt.Errorf("no positions to aggregate")
	}

	length := -1
	series := make([]domain.Series, len(positions))
	symbols := make([]string, len(positions))
	for i, pos := range positions {
		s, ok := seriesBySymbol[pos.Symbol]
		if !ok {
			return domain.PortfolioSummary{}, fmt.Errorf("no series for position %s: contributing symbols must exactly match positions", pos.Symbol)
		}
		if s.Len() == 0 {
			return domain.PortfolioSummary{}, fmt.Errorf("empty series for position %s", pos.Symbol)
		}
		if length == -1 {
			length = s.Len()
		} else if s.Len() != length {
			return domain.PortfolioSummary{}, fmt.Errorf("series length mismatch for %s: %d vs %d", pos.Symbol, s.Len(), length)
		}
		series[i] = s
		symbols[i] = pos.Symbol
	}

	// Portfolio value at t is the linear combination of position prices.
	value := make(domain.FloatSeries, length)
	for t := 0; t < length; t++ {
		total := 0.0
		for i, pos := range positions {
			total += pos.Quantity * series[i].Prices[t]
		}
		value[t] = total
	}

	volatility, basis := portfolioVolatility(positions, series, value[length-1])

	summary := domain.PortfolioSummary{
		Symbols:         sortedUnique(symbols),
		Value:           value,
		LatestValue:     value[length-1],
		Volatility:      volatility,
		VolatilityBasis: basis,
		Drawdown:        metrics.Drawdown(value),
		MaxDrawdown:     metrics.MaxDrawdown(value),
		Window:          window,
	}
	return summary, nil
}

// portfolioVolatility combines position return volatilities with the sample
// covariance of their returns: sqrt(wᵀ Σ w) over value weights w. When the
// covariance cannot be estimated the positions are treated as uncorrelated
// and the returned basis records the fallback.
func portfolioVolatility(positions []domain.Position, series []domain.Series, totalValue float64) (float64, domain.VolatilityBasis) {
	n := len(positions)
	weights := make([]float64, n)
	if totalValue == 0 {
		return math.NaN(), domain.BasisUncorrelated
	}
	for i, pos := range positions {
		weights[i] = pos.Quantity * series[i].LastPrice() / totalValue
	}

	returns := make([][]float64, n)
	for i := range series {
		returns[i] = metrics.Returns(series[i].Prices)
	}

	cov, ok := covarianceMatrix(returns)
	if ok {
		variance := 0.0
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				variance += weights[i] * weights[j] * cov[i][j]
			}
		}
		if variance >= 0 {
			return math.Sqrt(variance), domain.BasisCovariance
		}
	}

	// Fallback: no usable covariance, treat positions as uncorrelated.
	variance := 0.0
	usable := false
	for i := 0; i < n; i++ {
		sd := sampleStd(validValues(returns[i]))
		if math.IsNaN(sd) {
			continue
		}
		usable = true
		variance += weights[i] * weights[i] * sd * sd
	}
	if !usable {
		return math.NaN(), domain.BasisUncorrelated
	}
	return math.Sqrt(variance), domain.BasisUncorrelated
}

// covarianceMatrix estimates the sample covariance of the return series over
// the observations where every series is defined. It needs at least two such
// observations.
func covarianceMatrix(returns [][]float64) ([][]float64, bool) {
	if len(returns) == 0 {
		return nil, false
	}

	length := len(returns[0])
	var valid []int
	for t := 0; t < length; t++ {
		ok := true
		for _, r := range returns {
			if t >= len(r) || math.IsNaN(r[t]) {
				ok = false
				break
			}
		}
		if ok {
			valid = append(valid, t)
		}
	}
	if len(valid) < 2 {
		return nil, false
	}

	n := len(returns)
	means := make([]float64, n)
	for i, r := range returns {
		sum := 0.0
		for _, t := range valid {
			sum += r[t]
		}
		means[i] = sum / float64(len(valid))
	}

	cov := make([][]float64, n)
	for i := range cov {
		cov[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sum := 0.0
			for _, t := range valid {
				sum += (returns[i][t] - means[i]) * (returns[j][t] - means[j])
			}
			c := sum / float64(len(valid)-1)
			cov[i][j] = c
			cov[j][i] = c
		}
	}
	return cov, true
}

func validValues(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// sampleStd mirrors the n-1 denominator convention used by the rolling
// metrics; fewer than two observations is undefined.
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

func sortedUnique(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

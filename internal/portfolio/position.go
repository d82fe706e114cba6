package portfolio

import (
	"fmt"
	"math"

	"rollbench/internal/metrics"
	"rollbench/pkg/contracts/domain"
)

// PositionInput is the unit of work for the per-position strategy pass. All
// fields are exported because the unit may cross the process boundary under
// the multiprocessing strategy.
type PositionInput struct {
	Position domain.Position
	Series   domain.Series
	Window   int
}

// PositionMetrics is the computed state of one position: mark-to-market
// value, realized volatility of returns over the trailing window, and
// maximum drawdown of the price history.
type PositionMetrics struct {
	Symbol     string  `json:"symbol"`
	Quantity   float64 `json:"quantity"`
	Value      float64 `json:"value"`
	Volatility float64 `json:"volatility"`
	Drawdown   float64 `json:"drawdown"`
}

// ComputePosition is the per-position work function. Value uses the latest
// price; volatility is the last filled entry of the rolling std of returns,
// zero while the window is still unfilled (matching the partial-window
// convention rather than failing).
func ComputePosition(in PositionInput) (PositionMetrics, error) {
	if in.Series.Len() == 0 {
		return PositionMetrics{}, fmt.Errorf("position %s has no price history", in.Position.Symbol)
	}
	if in.Series.Symbol != in.Position.Symbol {
		return PositionMetrics{}, fmt.Errorf("position %s paired with series for %s",
			in.Position.Symbol, in.Series.Symbol)
	}

	window := in.Window
	if window <= 0 {
		window = 20
	}

	vol := 0.0
	stds := metrics.RollingStd(metrics.Returns(in.Series.Prices), window)
	if last := stds[len(stds)-1]; !math.IsNaN(last) {
		vol = last
	}

	return PositionMetrics{
		Symbol:     in.Position.Symbol,
		Quantity:   in.Position.Quantity,
		Value:      in.Position.Quantity * in.Series.LastPrice(),
		Volatility: vol,
		Drawdown:   metrics.MaxDrawdown(in.Series.Prices),
	}, nil
}

package metrics

import (
	"fmt"

	"rollbench/pkg/contracts/domain"
)

// ComputationError reports that a metric function could not produce a defined
// result for a reason other than the documented zero-volatility case. It is
// always propagated to the caller, never swallowed.
type ComputationError struct {
	Symbol  string
	Metric  string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ComputationError) Error() string {
	msg := fmt.Sprintf("compute %s for %s: %s", e.Metric, e.Symbol, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ComputationError) Unwrap() error {
	return e.Cause
}

// Compute runs the full per-symbol metric set over one series. This is the
// unit of work the Strategy Runner fans out: side-effect free and
// deterministic, so every strategy must return identical values for it.
func Compute(series domain.Series, window int) (domain.MetricResult, error) {
	if window <= 0 {
		return domain.MetricResult{}, &ComputationError{
			Symbol:  series.Symbol,
			Metric:  "all",
			Message: fmt.Sprintf("window must be positive, got %d", window),
		}
	}
	if series.Len() == 0 {
		return domain.MetricResult{}, &ComputationError{
			Symbol:  series.Symbol,
			Metric:  "all",
			Message: "empty series",
		}
	}

	prices := series.Prices
	return domain.MetricResult{
		Symbol:      series.Symbol,
		Window:      window,
		SMA:         RollingSMA(prices, window),
		Volatility:  RollingVolatility(prices, window),
		Sharpe:      RollingSharpe(prices, window),
		Drawdown:    Drawdown(prices),
		MaxDrawdown: MaxDrawdown(prices),
	}, nil
}

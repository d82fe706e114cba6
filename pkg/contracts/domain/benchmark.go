package domain

import (
	"encoding/json"
	"math"
	"time"
)

// MetricResult holds the rolling metrics computed for one symbol with one
// window size. Leading entries whose window is not yet full are NaN; the
// Sharpe series is NaN wherever realized volatility is zero (the documented
// undefined marker). Produced once per (symbol, strategy) execution and never
// mutated afterwards.
type MetricResult struct {
	Symbol      string      `json:"symbol"`
	Window      int         `json:"window"`
	SMA         FloatSeries `json:"sma"`
	Volatility  FloatSeries `json:"volatility"`
	Sharpe      FloatSeries `json:"sharpe"`
	Drawdown    FloatSeries `json:"drawdown"`
	MaxDrawdown float64     `json:"max_drawdown"`
}

// StrategyRun records one profiled Strategy Runner invocation. It is created
// fresh per benchmark invocation, never mutated, and handed to the report
// sinks in completion order.
type StrategyRun struct {
	ID             string            `json:"id"`
	Task           string            `json:"task"`
	Strategy       string            `json:"strategy"`
	Workers        int               `json:"workers"`
	ElapsedSeconds float64           `json:"elapsed_seconds"`
	PeakMemoryMiB  float64           `json:"peak_memory_mib"`
	MemorySamples  int               `json:"memory_samples"`
	Results        []MetricResult    `json:"results,omitempty"`
	Summary        *PortfolioSummary `json:"summary,omitempty"`
	StartedAt      time.Time         `json:"started_at"`
	CompletedAt    time.Time         `json:"completed_at"`
}

// VolatilityBasis names how a portfolio volatility figure was combined.
type VolatilityBasis string

const (
	// BasisCovariance means the full sample covariance of position returns
	// was used.
	BasisCovariance VolatilityBasis = "covariance"
	// BasisUncorrelated means covariance could not be estimated and the
	// positions were treated as uncorrelated. This is always reported
	// explicitly, never applied silently.
	BasisUncorrelated VolatilityBasis = "uncorrelated"
)

// PortfolioSummary aggregates the per-position metrics of one strategy run
// into portfolio-level value, volatility and drawdown. The contributing
// symbol set always matches the supplied positions exactly; a partial
// aggregation is an error upstream, never a summary.
type PortfolioSummary struct {
	Symbols         []string        `json:"symbols"`
	Value           FloatSeries     `json:"value"`
	LatestValue     float64         `json:"latest_value"`
	Volatility      float64         `json:"volatility"`
	VolatilityBasis VolatilityBasis `json:"volatility_basis"`
	Drawdown        FloatSeries     `json:"drawdown"`
	MaxDrawdown     float64         `json:"max_drawdown"`
	Window          int             `json:"window"`
}

// Undefined reports whether the volatility figure is the documented
// undefined marker rather than a number.
func (p PortfolioSummary) Undefined() bool {
	return math.IsNaN(p.Volatility)
}

// MarshalJSON implements json.Marshaler, mapping NaN scalars to null the same
// way FloatSeries does for series entries.
func (p PortfolioSummary) MarshalJSON() ([]byte, error) {
	type alias PortfolioSummary
	return json.Marshal(struct {
		alias
		LatestValue *float64 `json:"latest_value"`
		Volatility  *float64 `json:"volatility"`
		MaxDrawdown *float64 `json:"max_drawdown"`
	}{
		alias:       alias(p),
		LatestValue: jsonNumber(p.LatestValue),
		Volatility:  jsonNumber(p.Volatility),
		MaxDrawdown: jsonNumber(p.MaxDrawdown),
	})
}

func jsonNumber(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

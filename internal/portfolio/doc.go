// Package portfolio combines per-position metric results into
// portfolio-level value, volatility and drawdown.
//
// Two aggregation shapes are supported. Aggregate works over a flat position
// set and full price histories: portfolio value at t is the quantity-weighted
// sum of prices at t, volatility is the covariance-weighted combination of
// position returns (falling back, explicitly in the result, to treating
// positions as uncorrelated when covariance cannot be estimated), and
// drawdown comes from the aggregated value series. AggregateTree mirrors a
// nested portfolio structure: every node rolls up its own positions and its
// sub-portfolios into total value, value-weighted volatility and worst
// drawdown.
//
// The per-position computation is an independent unit of work, so it runs
// through the strategy runner like the per-symbol metrics do. Aggregation
// enforces one hard invariant: the symbols contributing to a summary must
// exactly match the supplied positions. A missing contribution is a failure,
// never a silent skip.
package portfolio

package portfolio

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollbench/pkg/contracts/domain"
)

func constantSeries(symbol string, price float64, length int) domain.Series {
	prices := make(domain.FloatSeries, length)
	for i := range prices {
		prices[i] = price
	}
	return domain.Series{Symbol: symbol, Prices: prices}
}

func randomWalk(symbol string, length int, seed int64) domain.Series {
	rng := rand.New(rand.NewSource(seed))
	prices := make(domain.FloatSeries, length)
	p := 100.0
	for i := range prices {
		p *= 1 + (rng.Float64()-0.5)*0.02
		prices[i] = p
	}
	return domain.Series{Symbol: symbol, Prices: prices}
}

func TestAggregateValueScenario(t *testing.T) {
	// Quantities [10, -5, 20] against prices [100, 50, 10] must value at
	// 10*100 + (-5)*50 + 20*10 = 950.
	positions := []domain.Position{
		{Symbol: "A", Quantity: 10},
		{Symbol: "B", Quantity: -5},
		{Symbol: "C", Quantity: 20},
	}
	series := map[string]domain.Series{
		"A": constantSeries("A", 100, 5),
		"B": constantSeries("B", 50, 5),
		"C": constantSeries("C", 10, 5),
	}

	summary, err := Aggregate(positions, series, 20)
	require.NoError(t, err)
	assert.InDelta(t, 950, summary.LatestValue, 1e-9)
	for _, v := range summary.Value {
		assert.InDelta(t, 950, v, 1e-9)
	}
	assert.Equal(t, []string{"A", "B", "C"}, summary.Symbols)
}

// TestAggregateLinearCombination checks the linear combination law: the
// portfolio value series equals the quantity-weighted sum of position prices
// at every t, for arbitrary positions.
func TestAggregateLinearCombination(t *testing.T) {
	positions := []domain.Position{
		{Symbol: "X", Quantity: 3.5},
		{Symbol: "Y", Quantity: -2},
		{Symbol: "Z", Quantity: 11},
	}
	series := map[string]domain.Series{
		"X": randomWalk("X", 60, 1),
		"Y": randomWalk("Y", 60, 2),
		"Z": randomWalk("Z", 60, 3),
	}

	summary, err := Aggregate(positions, series, 20)
	require.NoError(t, err)
	require.Len(t, summary.Value, 60)

	for tIdx := 0; tIdx < 60; tIdx++ {
		want := 3.5*series["X"].Prices[tIdx] - 2*series["Y"].Prices[tIdx] + 11*series["Z"].Prices[tIdx]
		assert.InDelta(t, want, summary.Value[tIdx], 1e-9, "t=%d", tIdx)
	}
}

func TestAggregateMissingSeriesIsHardFailure(t *testing.T) {
	positions := []domain.Position{
		{Symbol: "A", Quantity: 1},
		{Symbol: "GONE", Quantity: 2},
	}
	series := map[string]domain.Series{"A": constantSeries("A", 10, 5)}

	_, err := Aggregate(positions, series, 20)
	require.Error(t, err)
	assert.ErrorContains(t, err, "GONE")
	assert.ErrorContains(t, err, "exactly match")
}

func TestAggregateLengthMismatchIsHardFailure(t *testing.T) {
	positions := []domain.Position{
		{Symbol: "A", Quantity: 1},
		{Symbol: "B", Quantity: 1},
	}
	series := map[string]domain.Series{
		"A": constantSeries("A", 10, 5),
		"B": constantSeries("B", 10, 7),
	}

	_, err := Aggregate(positions, series, 20)
	require.Error(t, err)
	assert.ErrorContains(t, err, "length mismatch")
}

func TestAggregateVolatilityBasis(t *testing.T) {
	t.Run("covariance basis with real return variation", func(t *testing.T) {
		positions := []domain.Position{
			{Symbol: "X", Quantity: 1},
			{Symbol: "Y", Quantity: 1},
		}
		series := map[string]domain.Series{
			"X": randomWalk("X", 100, 7),
			"Y": randomWalk("Y", 100, 8),
		}
		summary, err := Aggregate(positions, series, 20)
		require.NoError(t, err)
		assert.Equal(t, domain.BasisCovariance, summary.VolatilityBasis)
		assert.False(t, math.IsNaN(summary.Volatility))
		assert.GreaterOrEqual(t, summary.Volatility, 0.0)
	})

	t.Run("single observation falls back to uncorrelated explicitly", func(t *testing.T) {
		positions := []domain.Position{{Symbol: "X", Quantity: 1}}
		series := map[string]domain.Series{"X": constantSeries("X", 10, 1)}
		summary, err := Aggregate(positions, series, 20)
		require.NoError(t, err)
		assert.Equal(t, domain.BasisUncorrelated, summary.VolatilityBasis)
		assert.True(t, summary.Undefined())
	})

	t.Run("identical series doubles single-position volatility", func(t *testing.T) {
		// Perfect correlation: vol(w1+w2) = vol of a double-size position.
		s := randomWalk("X", 100, 9)
		s2 := s
		s2.Symbol = "Y"
		both, err := Aggregate(
			[]domain.Position{{Symbol: "X", Quantity: 1}, {Symbol: "Y", Quantity: 1}},
			map[string]domain.Series{"X": s, "Y": s2}, 20)
		require.NoError(t, err)
		one, err := Aggregate(
			[]domain.Position{{Symbol: "X", Quantity: 1}},
			map[string]domain.Series{"X": s}, 20)
		require.NoError(t, err)
		assert.InDelta(t, one.Volatility, both.Volatility, 1e-9)
	})
}

func TestAggregateDrawdownFromValueSeries(t *testing.T) {
	prices := domain.FloatSeries{100, 120, 90, 130}
	series := map[string]domain.Series{"A": {Symbol: "A", Prices: prices}}
	summary, err := Aggregate([]domain.Position{{Symbol: "A", Quantity: 2}}, series, 20)
	require.NoError(t, err)

	require.Len(t, summary.Drawdown, 4)
	assert.Zero(t, summary.Drawdown[0])
	assert.Zero(t, summary.Drawdown[1])
	assert.InDelta(t, 0.25, summary.Drawdown[2], 1e-12)
	assert.Zero(t, summary.Drawdown[3])
	assert.InDelta(t, 0.25, summary.MaxDrawdown, 1e-12)
}

func TestComputePosition(t *testing.T) {
	t.Run("value is quantity times latest price", func(t *testing.T) {
		pm, err := ComputePosition(PositionInput{
			Position: domain.Position{Symbol: "A", Quantity: 4},
			Series:   constantSeries("A", 25, 30),
			Window:   20,
		})
		require.NoError(t, err)
		assert.InDelta(t, 100, pm.Value, 1e-12)
		assert.Zero(t, pm.Volatility)
		assert.Zero(t, pm.Drawdown)
	})

	t.Run("unfilled window reports zero volatility", func(t *testing.T) {
		pm, err := ComputePosition(PositionInput{
			Position: domain.Position{Symbol: "A", Quantity: 1},
			Series:   randomWalk("A", 5, 4),
			Window:   20,
		})
		require.NoError(t, err)
		assert.Zero(t, pm.Volatility)
	})

	t.Run("empty history fails", func(t *testing.T) {
		_, err := ComputePosition(PositionInput{
			Position: domain.Position{Symbol: "A", Quantity: 1},
			Series:   domain.Series{Symbol: "A"},
		})
		require.Error(t, err)
	})

	t.Run("mismatched series fails", func(t *testing.T) {
		_, err := ComputePosition(PositionInput{
			Position: domain.Position{Symbol: "A", Quantity: 1},
			Series:   constantSeries("B", 10, 5),
		})
		require.Error(t, err)
	})
}

func TestTreeFlattenAndAggregate(t *testing.T) {
	tree := &Tree{
		Name: "root",
		Positions: []domain.Position{
			{Symbol: "A", Quantity: 10},
		},
		SubPortfolios: []*Tree{
			{
				Name: "growth",
				Positions: []domain.Position{
					{Symbol: "B", Quantity: 5},
					{Symbol: "C", Quantity: 2},
				},
			},
		},
	}

	flat := tree.Flatten()
	require.Len(t, flat, 3)
	assert.Equal(t, "A", flat[0].Symbol)
	assert.Equal(t, "B", flat[1].Symbol)

	computed := []PositionMetrics{
		{Symbol: "A", Quantity: 10, Value: 1000, Volatility: 0.01, Drawdown: 0.05},
		{Symbol: "B", Quantity: 5, Value: 500, Volatility: 0.02, Drawdown: 0.30},
		{Symbol: "C", Quantity: 2, Value: 500, Volatility: 0.04, Drawdown: 0.10},
	}

	summary, err := AggregateTree(tree, computed)
	require.NoError(t, err)
	assert.InDelta(t, 2000, summary.TotalValue, 1e-9)
	assert.InDelta(t, 0.30, summary.MaxDrawdown, 1e-12)

	require.Len(t, summary.SubPortfolios, 1)
	growth := summary.SubPortfolios[0]
	assert.InDelta(t, 1000, growth.TotalValue, 1e-9)
	// Value-weighted: (500*0.02 + 500*0.04) / 1000.
	assert.InDelta(t, 0.03, growth.AggregateVolatility, 1e-12)

	// Root blends its own position with the child node.
	want := (1000*0.01 + 1000*0.03) / 2000
	assert.InDelta(t, want, summary.AggregateVolatility, 1e-12)
}

func TestAggregateTreeMissingPositionFails(t *testing.T) {
	tree := &Tree{Name: "root", Positions: []domain.Position{{Symbol: "A", Quantity: 1}}}
	_, err := AggregateTree(tree, nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, "A")
}

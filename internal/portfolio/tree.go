package portfolio

import (
	"fmt"

	"rollbench/pkg/contracts/domain"
)

// Tree is a nested portfolio structure: a node holds its own positions plus
// any number of sub-portfolios.
type Tree struct {
	Name          string            `json:"name"`
	Positions     []domain.Position `json:"positions,omitempty"`
	SubPortfolios []*Tree           `json:"sub_portfolios,omitempty"`
}

// TreeSummary is the aggregated view of one tree node.
type TreeSummary struct {
	Name                string         `json:"name"`
	TotalValue          float64        `json:"total_value"`
	AggregateVolatility float64        `json:"aggregate_volatility"`
	MaxDrawdown         float64        `json:"max_drawdown"`
	SubPortfolios       []*TreeSummary `json:"sub_portfolios,omitempty"`
}

// Flatten returns every position in the tree in depth-first order. This is
// the batch the strategy runner fans out; the computed metrics map back onto
// the tree by (symbol, quantity).
func (t *Tree) Flatten() []domain.Position {
	if t == nil {
		return nil
	}
	out := append([]domain.Position(nil), t.Positions...)
	for _, sub := range t.SubPortfolios {
		out = append(out, sub.Flatten()...)
	}
	return out
}

type positionKey struct {
	symbol   string
	quantity float64
}

// AggregateTree rolls computed position metrics up the tree, bottom-up: each
// node totals its value, value-weights its volatility and keeps the worst
// drawdown seen anywhere below it. Every position in the tree must have a
// computed entry; a missing contribution at any level fails the rollup.
func AggregateTree(tree *Tree, computed []PositionMetrics) (*TreeSummary, error) {
	if tree == nil {
		return nil, fmt.Errorf("nil portfolio tree")
	}

	byKey := make(map[positionKey]PositionMetrics, len(computed))
	for _, pm := range computed {
		byKey[positionKey{pm.Symbol, pm.Quantity}] = pm
	}
	return aggregateNode(tree, byKey)
}

func aggregateNode(node *Tree, byKey map[positionKey]PositionMetrics) (*TreeSummary, error) {
	summary := &TreeSummary{Name: node.Name}

	weightedVol := 0.0
	for _, pos := range node.Positions {
		pm, ok := byKey[positionKey{pos.Symbol, pos.Quantity}]
		if !ok {
			return nil, fmt.Errorf("no computed metrics for position %s qty %v in %q", pos.Symbol, pos.Quantity, node.Name)
		}
		summary.TotalValue += pm.Value
		weightedVol += pm.Value * pm.Volatility
		if pm.Drawdown > summary.MaxDrawdown {
			summary.MaxDrawdown = pm.Drawdown
		}
	}

	for _, sub := range node.SubPortfolios {
		child, err := aggregateNode(sub, byKey)
		if err != nil {
			return nil, err
		}
		summary.SubPortfolios = append(summary.SubPortfolios, child)
		summary.TotalValue += child.TotalValue
		weightedVol += child.TotalValue * child.AggregateVolatility
		if child.MaxDrawdown > summary.MaxDrawdown {
			summary.MaxDrawdown = child.MaxDrawdown
		}
	}

	if summary.TotalValue != 0 {
		summary.AggregateVolatility = weightedVol / summary.TotalValue
	}
	return summary, nil
}

package dataload

import (
	"encoding/json"
	"fmt"
	"os"

	"rollbench/internal/portfolio"
	"rollbench/pkg/contracts/domain"
)

// portfolioFile mirrors the on-disk portfolio document. Nested
// sub-portfolios use the same shape recursively.
type portfolioFile struct {
	Name          string          `json:"name"`
	Positions     []positionFile  `json:"positions"`
	SubPortfolios []portfolioFile `json:"sub_portfolios"`
}

type positionFile struct {
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"`
}

// LoadPortfolio reads a nested portfolio definition from a JSON file.
func LoadPortfolio(path string) (*portfolio.Tree, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read portfolio: %w", err)
	}
	tree, err := ParsePortfolio(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return tree, nil
}

// ParsePortfolio parses a portfolio document and validates it: every node
// needs a name, every position a symbol and a non-zero quantity.
func ParsePortfolio(raw []byte) (*portfolio.Tree, error) {
	var doc portfolioFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode portfolio JSON: %w", err)
	}
	tree, err := buildTree(doc, "")
	if err != nil {
		return nil, err
	}
	return tree, nil
}

func buildTree(doc portfolioFile, parent string) (*portfolio.Tree, error) {
	if doc.Name == "" {
		if parent == "" {
			return nil, fmt.Errorf("portfolio root has no name")
		}
		return nil, fmt.Errorf("sub-portfolio of %q has no name", parent)
	}
	tree := &portfolio.Tree{Name: doc.Name}

	for i, p := range doc.Positions {
		if p.Symbol == "" {
			return nil, fmt.Errorf("portfolio %q: position %d has no symbol", doc.Name, i)
		}
		if p.Quantity == 0 {
			return nil, fmt.Errorf("portfolio %q: position %s has zero quantity", doc.Name, p.Symbol)
		}
		tree.Positions = append(tree.Positions, domain.Position{Symbol: p.Symbol, Quantity: p.Quantity})
	}

	for _, sub := range doc.SubPortfolios {
		child, err := buildTree(sub, doc.Name)
		if err != nil {
			return nil, err
		}
		tree.SubPortfolios = append(tree.SubPortfolios, child)
	}
	return tree, nil
}

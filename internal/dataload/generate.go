package dataload

import (
	"fmt"
	"math/rand"
	"time"

	"rollbench/pkg/contracts/domain"
)

// GenerateOptions controls synthetic series generation. The zero value is
// not usable; call DefaultGenerateOptions for sensible defaults.
type GenerateOptions struct {
	Length     int
	Seed       int64
	StartPrice float64
	Drift      float64
	Volatility float64
	Start      time.Time
	Step       time.Duration
}

// DefaultGenerateOptions returns the generation parameters used when no
// market data file is configured: a year of daily observations per symbol.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Length:     252,
		Seed:       42,
		StartPrice: 100,
		Drift:      0.0002,
		Volatility: 0.02,
		Start:      time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Step:       24 * time.Hour,
	}
}

// Generate produces one deterministic random-walk series per symbol. The
// same symbols, seed and options always yield the same prices, so benchmark
// runs are reproducible. Each symbol derives its own sub-seed from the base
// seed, making the output independent of symbol order.
func Generate(symbols []string, opts GenerateOptions) (map[string]domain.Series, error) {
	if opts.Length <= 0 {
		return nil, fmt.Errorf("generate: length must be positive, got %d", opts.Length)
	}
	if opts.StartPrice <= 0 {
		return nil, fmt.Errorf("generate: start price must be positive, got %v", opts.StartPrice)
	}
	if opts.Step <= 0 {
		opts.Step = 24 * time.Hour
	}
	if opts.Start.IsZero() {
		opts.Start = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	}

	out := make(map[string]domain.Series, len(symbols))
	for _, symbol := range symbols {
		if symbol == "" {
			return nil, fmt.Errorf("generate: empty symbol")
		}
		if _, ok := out[symbol]; ok {
			return nil, fmt.Errorf("generate: duplicate symbol %s", symbol)
		}
		out[symbol] = generateOne(symbol, opts)
	}
	return out, nil
}

func generateOne(symbol string, opts GenerateOptions) domain.Series {
	rng := rand.New(rand.NewSource(opts.Seed ^ int64(hashSymbol(symbol))))

	s := domain.Series{
		Symbol: symbol,
		Times:  make([]time.Time, opts.Length),
		Prices: make(domain.FloatSeries, opts.Length),
	}
	price := opts.StartPrice
	for i := 0; i < opts.Length; i++ {
		s.Times[i] = opts.Start.Add(time.Duration(i) * opts.Step)
		s.Prices[i] = price
		price *= 1 + opts.Drift + opts.Volatility*rng.NormFloat64()
		if price < 0.01 {
			price = 0.01
		}
	}
	return s
}

// hashSymbol is FNV-1a over the symbol bytes, giving each symbol a stable
// sub-seed offset.
func hashSymbol(symbol string) uint64 {
	const (
		offset = 14695981039346656037
		prime  = 1099511628211
	)
	h := uint64(offset)
	for i := 0; i < len(symbol); i++ {
		h ^= uint64(symbol[i])
		h *= prime
	}
	return h
}

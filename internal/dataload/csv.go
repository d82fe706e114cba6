package dataload

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"rollbench/pkg/contracts/domain"
)

// csvLayout is the timestamp format accepted in market data files. Dates
// without a time component are also accepted.
const csvLayout = "2006-01-02T15:04:05Z07:00"

const csvDateLayout = "2006-01-02"

// LoadMarketData reads a CSV file with header "timestamp,symbol,price" and
// returns one price series per symbol, observations sorted by timestamp.
func LoadMarketData(path string) (map[string]domain.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open market data: %w", err)
	}
	defer f.Close()

	series, err := ParseMarketData(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return series, nil
}

// ParseMarketData parses market data CSV from r. Rows may arrive in any
// order; the returned series are sorted by timestamp per symbol.
func ParseMarketData(r io.Reader) (map[string]domain.Series, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	type observation struct {
		at    time.Time
		price float64
	}
	bySymbol := make(map[string][]observation)

	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		line++

		at, err := parseTimestamp(record[cols.timestamp])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		symbol := strings.TrimSpace(record[cols.symbol])
		if symbol == "" {
			return nil, fmt.Errorf("line %d: empty symbol", line)
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(record[cols.price]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse price %q: %w", line, record[cols.price], err)
		}
		if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
			return nil, fmt.Errorf("line %d: invalid price %v for %s", line, price, symbol)
		}
		bySymbol[symbol] = append(bySymbol[symbol], observation{at: at, price: price})
	}

	out := make(map[string]domain.Series, len(bySymbol))
	for symbol, obs := range bySymbol {
		sort.Slice(obs, func(i, j int) bool { return obs[i].at.Before(obs[j].at) })
		s := domain.Series{
			Symbol: symbol,
			Times:  make([]time.Time, len(obs)),
			Prices: make(domain.FloatSeries, len(obs)),
		}
		for i, o := range obs {
			s.Times[i] = o.at
			s.Prices[i] = o.price
		}
		out[symbol] = s
	}

	slog.Debug("market data parsed", "symbols", len(out))
	return out, nil
}

type csvColumns struct {
	timestamp int
	symbol    int
	price     int
}

func columnIndex(header []string) (csvColumns, error) {
	cols := csvColumns{timestamp: -1, symbol: -1, price: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "timestamp", "date":
			cols.timestamp = i
		case "symbol", "ticker":
			cols.symbol = i
		case "price", "close":
			cols.price = i
		}
	}
	if cols.timestamp < 0 || cols.symbol < 0 || cols.price < 0 {
		return cols, fmt.Errorf("header must contain timestamp, symbol and price columns, got %v", header)
	}
	return cols, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if at, err := time.Parse(csvLayout, raw); err == nil {
		return at, nil
	}
	at, err := time.Parse(csvDateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return at, nil
}

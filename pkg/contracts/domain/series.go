package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// Series is an ordered sequence of price observations for one symbol.
// It is loaded once per program run and treated as read-only afterwards;
// metric functions borrow it without copying.
type Series struct {
	Symbol string      `json:"symbol" validate:"required,min=1,max=12"`
	Times  []time.Time `json:"times"`
	Prices FloatSeries `json:"prices" validate:"required"`
}

// Len returns the number of observations in the series.
func (s Series) Len() int {
	return len(s.Prices)
}

// LastPrice returns the most recent observation, or NaN for an empty series.
func (s Series) LastPrice() float64 {
	if len(s.Prices) == 0 {
		return math.NaN()
	}
	return s.Prices[len(s.Prices)-1]
}

// Position is one holding in a portfolio: a symbol and a signed quantity.
// Short positions carry a negative quantity.
type Position struct {
	Symbol   string  `json:"symbol" validate:"required"`
	Quantity float64 `json:"quantity" validate:"required"`
}

// FloatSeries is a float64 slice whose JSON form maps NaN to null in both
// directions. Rolling metrics use NaN for leading unfilled-window entries and
// for the documented undefined Sharpe case, and encoding/json refuses raw NaN.
type FloatSeries []float64

// MarshalJSON implements json.Marshaler.
func (f FloatSeries) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, len(f)*8+2)
	buf = append(buf, '[')
	for i, v := range f {
		if i > 0 {
			buf = append(buf, ',')
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			buf = append(buf, "null"...)
			continue
		}
		buf = strconv.AppendFloat(buf, v, 'g', -1, 64)
	}
	buf = append(buf, ']')
	return buf, nil
}

// UnmarshalJSON implements json.Unmarshaler, reading null back as NaN.
func (f *FloatSeries) UnmarshalJSON(data []byte) error {
	var raw []*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(FloatSeries, len(raw))
	for i, v := range raw {
		if v == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *v
	}
	*f = out
	return nil
}

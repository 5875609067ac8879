package core

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrUnknownCurrency = errors.New("unknown currency")

// Currency describes how amounts of one ISO currency are written.
type Currency struct {
	Code        string
	Symbol      string
	Decimal     string
	Thousands   string
	SymbolAfter bool
}

var currencies = map[string]Currency{
	"EUR": {Code: "EUR", Symbol: "€", Decimal: ",", Thousands: "."},
	"USD": {Code: "USD", Symbol: "$", Decimal: ".", Thousands: ","},
	"GBP": {Code: "GBP", Symbol: "£", Decimal: ".", Thousands: ","},
	"CHF": {Code: "CHF", Symbol: "CHF ", Decimal: ".", Thousands: "'"},
	"SEK": {Code: "SEK", Symbol: " kr", Decimal: ",", Thousands: " ", SymbolAfter: true},
}

// LookupCurrency returns the currency for an ISO code (case-insensitive).
func LookupCurrency(code string) (Currency, error) {
	c, ok := currencies[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return Currency{}, fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
	}
	return c, nil
}

// Format writes cents with the currency symbol, e.g. "-€1.234,50".
func (c Currency) Format(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	units := groupThousands(strconv.FormatInt(cents/100, 10), c.Thousands)
	s := units + c.Decimal + fmt.Sprintf("%02d", cents%100)
	if c.SymbolAfter {
		s += c.Symbol
	} else {
		s = c.Symbol + s
	}
	if neg {
		return "-" + s
	}
	return s
}

// FormatUnits formats an amount expressed in currency units, as carried by
// heat-map samples. NaN is written as "-".
func (c Currency) FormatUnits(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return c.Format(int64(math.Round(v * 100)))
}

func groupThousands(digits, sep string) string {
	if sep == "" || len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

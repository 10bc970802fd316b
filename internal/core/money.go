// Package core provides the ledger arithmetic and aggregation rules for
// the finance tracker: debt payments, goal savings, and period summaries.
//
// This file contains amount parsing and rupiah formatting helpers.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// ParseAmount converts a user-entered amount string into a decimal.
//
// It accepts both dot (12500.50) and comma (12500,50) decimal separators.
// The result is always strictly positive. Returns ErrInvalidAmount for
// invalid formats, signed values, or zero amounts.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only unsigned values allowed
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatRupiah renders an amount as "Rp 1.500.000" with dot thousand
// separators, rounded to whole rupiah.
func FormatRupiah(d decimal.Decimal) string {
	neg := d.IsNegative()
	s := d.Abs().Round(0).String()

	var b strings.Builder
	if neg {
		b.WriteString("-")
	}
	b.WriteString("Rp ")
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Percent computes part/whole as a percentage clamped to [0, 100].
// Returns exactly 100 when part covers whole, and 0 for a non-positive whole.
func Percent(part, whole decimal.Decimal) float64 {
	if !whole.IsPositive() {
		return 0
	}
	if part.GreaterThanOrEqual(whole) {
		return 100
	}
	if part.IsNegative() {
		return 0
	}
	pct, _ := part.Mul(oneHundred).Div(whole).Float64()
	return pct
}

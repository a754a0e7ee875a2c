package gateway

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// toCents converts a major-unit amount such as "12.50" to cents with
// banker's rounding. Currency symbols, spaces and thousands separators are
// stripped first.
func toCents(s string) (int64, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return 0, err
	}
	return d.Shift(2).RoundBank(0).IntPart(), nil
}

// exactCents is like toCents but rejects amounts with sub-cent precision.
func exactCents(s string) (int64, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return 0, err
	}
	cents := d.Shift(2)
	if !cents.IsInteger() {
		return 0, fmt.Errorf("amount %q has more than two decimal places", s)
	}
	return cents.IntPart(), nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			return r
		}
		return -1
	}, s)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("amount %q has no digits", s)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

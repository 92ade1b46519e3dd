// Package core provides the disbursement domain types and amount parsing.
//
// Amounts are kept as shopspring decimals so that sums over any partition of
// the dataset add up exactly to the ungrouped total.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a textual amount into a non-negative decimal.
//
// Both dot (1234.56) and comma (1234,56) decimal separators are accepted. When
// both appear, the last one is the decimal separator and the other is treated
// as a thousands separator, so "1.234,56" and "1,234.56" both parse. Exponent
// notation as written by spreadsheet exports ("1.5e+05") is accepted.
//
// Examples:
//
//	ParseAmount("12.34")    -> 12.34, nil
//	ParseAmount("12,34")    -> 12.34, nil
//	ParseAmount("1.234,56") -> 1234.56, nil
//	ParseAmount("-1")       -> 0, ErrNegativeAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.TrimPrefix(s, "€")
	s = strings.TrimSpace(s)

	dot := strings.LastIndex(s, ".")
	comma := strings.LastIndex(s, ",")
	switch {
	case dot >= 0 && comma >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case dot >= 0 && comma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		if strings.Count(s, ",") > 1 {
			return decimal.Zero, ErrInvalidAmount
		}
		s = strings.Replace(s, ",", ".", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	return d, nil
}

// MustAmount is ParseAmount for literals known to be valid.
func MustAmount(s string) decimal.Decimal {
	d, err := ParseAmount(s)
	if err != nil {
		panic("core: invalid amount literal " + s + ": " + err.Error())
	}
	return d
}

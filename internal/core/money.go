// Package core provides the ledger's domain types and the pure utilities
// around them.
//
// This file contains amount parsing and formatting. Amounts are whole
// currency units; grouping uses a comma every three digits.
package core

import (
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// CurrencySuffix is appended by Amount.Display.
const CurrencySuffix = "원"

// Amount is a non-negative number of whole currency units.
type Amount int64

// FormatAmount renders n with grouping separators, e.g. 12000 -> "12,000".
func FormatAmount(n int64) string {
	return humanize.Comma(n)
}

// ParseAmount strips grouping separators and converts the remaining digits.
//
// Examples:
//
//	ParseAmount("12,000") -> 12000, nil
//	ParseAmount(" 9900 ") -> 9900, nil
//	ParseAmount("-1")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, ErrInvalidAmount
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, ErrInvalidAmount
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return n, nil
}

// String returns the grouped form without a currency marker.
func (a Amount) String() string {
	return FormatAmount(int64(a))
}

// Display returns the grouped form with the currency suffix.
func (a Amount) Display() string {
	return FormatAmount(int64(a)) + CurrencySuffix
}

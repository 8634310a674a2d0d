// Package shared holds value types and helpers used across the domain packages.
package shared

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultBalanceTolerance is the epsilon, in the base monetary unit, within
// which a set of signed line amounts is considered balanced.
const DefaultBalanceTolerance = "0.005"

// MoneyScale is the minimum number of fractional digits carried by monetary
// values when they are serialized.
const MoneyScale = 6

// ShareScale is the minimum number of fractional digits carried by share
// counts and per-share prices when they are serialized.
const ShareScale = 9

// WithinTolerance reports whether the absolute value of d is at most tol.
func WithinTolerance(d, tol decimal.Decimal) bool {
	return d.Abs().LessThanOrEqual(tol)
}

// ParseAmount parses a serialized decimal amount, rejecting empty strings.
func ParseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount is empty")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// FormatMoney serializes a monetary value with at least MoneyScale fractional digits.
func FormatMoney(d decimal.Decimal) string {
	if d.Exponent() < -MoneyScale {
		return d.String()
	}
	return d.StringFixed(MoneyScale)
}

// FormatShares serializes a share quantity or per-share price with at least
// ShareScale fractional digits.
func FormatShares(d decimal.Decimal) string {
	if d.Exponent() < -ShareScale {
		return d.String()
	}
	return d.StringFixed(ShareScale)
}

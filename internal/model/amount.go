package model

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Amounts are integer wei.  decimal.Decimal is used as an arbitrary
// precision integer: every value stored or compared by the core has a
// zero fractional part, and no operation divides except PayoutFor which
// truncates explicitly.

// ErrInvalidAmount is returned by ParseWei for negative, fractional or
// non-numeric input.
var ErrInvalidAmount = errors.New("invalid amount")

// Ether returns n ether expressed in wei.
func Ether(n int64) decimal.Decimal { return decimal.New(n, 18) }

// Milliether returns n/1000 ether expressed in wei.
func Milliether(n int64) decimal.Decimal { return decimal.New(n, 15) }

// ParseWei parses a base-10 integer wei string.  Empty input is
// rejected; the presentation layer is responsible for unit conversion.
func ParseWei(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsNegative() || !d.IsInteger() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// IsWei reports whether d is a non-negative integer.
func IsWei(d decimal.Decimal) bool {
	return !d.IsNegative() && d.IsInteger()
}

var (
	payoutNumerator   = decimal.NewFromInt(3)
	payoutDenominator = decimal.NewFromInt(2)
)

// PayoutFor returns floor(premium * 3 / 2), the insurance credit owed to a
// passenger when the flight is late because of the airline.
func PayoutFor(premium decimal.Decimal) decimal.Decimal {
	q, _ := premium.Mul(payoutNumerator).QuoRem(payoutDenominator, 0)
	return q
}

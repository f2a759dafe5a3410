package model

import (
	"encoding/hex"
	"errors"
	"strings"
)

// Address identifies an airline, passenger, oracle or the contract owner.
// It is the 0x-prefixed hex form of a 20-byte account, always stored in
// lower case so that map keys and SQL primary keys compare exactly.
type Address string

// ErrInvalidAddress is returned by ParseAddress for malformed input.
var ErrInvalidAddress = errors.New("invalid address")

// ParseAddress normalises s into an Address.  The 0x prefix is required
// and the remaining 40 characters must be hex digits.
func ParseAddress(s string) (Address, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 42 || !strings.HasPrefix(s, "0x") {
		return "", ErrInvalidAddress
	}
	if _, err := hex.DecodeString(s[2:]); err != nil {
		return "", ErrInvalidAddress
	}
	return Address(s), nil
}

// String implements fmt.Stringer.
func (a Address) String() string { return string(a) }

// Short renders the address as 0x1234…abcd for log lines.
func (a Address) Short() string {
	s := string(a)
	if len(s) < 12 {
		return s
	}
	return s[:6] + "…" + s[len(s)-4:]
}

package model

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/sha3"
)

// StatusCode is the flight status reported by oracles.  The numeric
// values are part of the wire format shared with oracle nodes.
type StatusCode int

const (
	StatusUnknown       StatusCode = 0
	StatusOnTime        StatusCode = 10
	StatusLateAirline   StatusCode = 20
	StatusLateWeather   StatusCode = 30
	StatusLateTechnical StatusCode = 40
	StatusLateOther     StatusCode = 50
)

// Valid reports whether s is one of the six known codes.
func (s StatusCode) Valid() bool {
	switch s {
	case StatusUnknown, StatusOnTime, StatusLateAirline, StatusLateWeather, StatusLateTechnical, StatusLateOther:
		return true
	}
	return false
}

// Reportable reports whether an oracle may submit s.  Unknown is the
// initial state of every flight and is never a valid observation.
func (s StatusCode) Reportable() bool {
	return s != StatusUnknown && s.Valid()
}

func (s StatusCode) String() string {
	switch s {
	case StatusUnknown:
		return "Unknown"
	case StatusOnTime:
		return "On Time"
	case StatusLateAirline:
		return "Late due to Airline"
	case StatusLateWeather:
		return "Late due to weather"
	case StatusLateTechnical:
		return "Late due to technical problems"
	case StatusLateOther:
		return "Late due to other reasons"
	}
	return fmt.Sprintf("StatusCode(%d)", int(s))
}

// FlightKey is the hex encoded Keccak-256 of a flight's identifying
// fields, 0x-prefixed.
type FlightKey string

// FlightKeyOf derives the key for a flight from its reference, its
// destination and its landing time in unix seconds.  The hash input is
// the packed encoding ref ‖ destination ‖ uint256(landing), so keys match
// the ones computed by wallets and oracle nodes for the same flight.
// landing must not be negative; registration rejects such flights.
func FlightKeyOf(flightRef, destination string, landing int64) FlightKey {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(flightRef))
	h.Write([]byte(destination))
	var word [32]byte
	binary.BigEndian.PutUint64(word[24:], uint64(landing))
	h.Write(word[:])
	return FlightKey("0x" + hex.EncodeToString(h.Sum(nil)))
}

func (k FlightKey) String() string { return string(k) }

// ErrInvalidFlightKey is returned by ParseFlightKey.
var ErrInvalidFlightKey = errors.New("invalid flight key")

// ParseFlightKey accepts a 0x-prefixed 32-byte hex key in any case.
func ParseFlightKey(s string) (FlightKey, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 66 || !strings.HasPrefix(s, "0x") {
		return "", ErrInvalidFlightKey
	}
	if _, err := hex.DecodeString(s[2:]); err != nil {
		return "", ErrInvalidFlightKey
	}
	return FlightKey(s), nil
}

// Flight is a scheduled flight registered by a funded airline.  Only the
// settlement engine changes StatusCode; every other field is immutable
// after registration.
//
// Fields:
//
//	Key          – FlightKeyOf(FlightRef, Destination, Landing).
//	Airline      – registering airline, credited with ticket revenue.
//	FlightRef    – carrier flight number, e.g. AF0187.
//	Origin       – departure airport code.
//	Destination  – arrival airport code.
//	TakeOff      – scheduled departure, unix seconds.
//	Landing      – scheduled arrival, unix seconds.
//	Price        – ticket price in wei.
//	StatusCode   – last resolved status, Unknown until settlement.
//	IsRegistered – true for every persisted flight.
type Flight struct {
	Key          FlightKey       `json:"key"`
	Airline      Address         `json:"airline"`
	FlightRef    string          `json:"flight_ref"`
	Origin       string          `json:"origin"`
	Destination  string          `json:"destination"`
	TakeOff      int64           `json:"take_off"`
	Landing      int64           `json:"landing"`
	Price        decimal.Decimal `json:"price"`
	StatusCode   StatusCode      `json:"status_code"`
	IsRegistered bool            `json:"is_registered"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Open reports whether the flight still accepts bookings.
func (f *Flight) Open() bool { return f.StatusCode == StatusUnknown }

// Package repository is the ledger store: the only owner of airline,
// flight, booking, oracle and custody state.  Repositories hold no
// business rules.  Each method takes the Querier to run on, so that the
// engines can compose several reads and writes inside one transaction
// opened by Ledger.Update.
//
// The sentinel errors below let the engines tell a missing row apart
// from a storage failure.
package repository

import "errors"

// ErrNotInitialized is returned when the ledger has not been bootstrapped
// with an owner and a founder airline.
var ErrNotInitialized = errors.New("ledger not initialized")

// ErrAirlineNotFound is returned when no airline row exists for an address.
var ErrAirlineNotFound = errors.New("airline not found")

// ErrFlightNotFound is returned when no flight row exists for a key.
var ErrFlightNotFound = errors.New("flight not found")

// ErrBookingNotFound is returned when a passenger has no booking on a flight.
var ErrBookingNotFound = errors.New("booking not found")

// ErrRoundNotFound is returned when no oracle round was opened for a flight.
var ErrRoundNotFound = errors.New("oracle round not found")

// ErrStaleCredit is returned when a credit changed between being read
// and being zeroed, so the withdrawal must not pay it.
var ErrStaleCredit = errors.New("credit changed while being withdrawn")

// ErrInsufficientCustody is returned when a debit would take the treasury
// below zero.  It signals a broken accounting invariant, never a caller
// mistake.
var ErrInsufficientCustody = errors.New("insufficient custody balance")

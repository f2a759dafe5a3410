// Package service implements the settlement engines: the access gate,
// airline admission, flight booking, oracle consensus and withdrawals.
// Every mutating call runs as one ledger transaction and publishes its
// event only after commit.
package service

import "errors"

// Caller-facing failure kinds.  Handlers map them to HTTP status codes
// with errors.Is; anything else is a storage failure.
var (
	ErrUnauthorized           = errors.New("unauthorized")
	ErrContractPaused         = errors.New("contract is paused")
	ErrCallerMustBeRegistered = errors.New("airline must be registered")
	ErrCallerMustBeFunded     = errors.New("airline must provide funding")
	ErrVotingNotYetActive     = errors.New("less than 4 airlines registered")
	ErrDuplicateVote          = errors.New("caller cannot call this function twice")
	ErrAlreadyRegistered      = errors.New("airline is already registered")
	ErrAlreadyFunded          = errors.New("airline is already funded")
	ErrInvalidAmount          = errors.New("amount must be a positive integer number of wei")
	ErrInvalidIdentity        = errors.New("invalid identity")
	ErrAirlineNotFound        = errors.New("airline not found")

	ErrInvalidFlight       = errors.New("invalid flight")
	ErrDuplicateFlight     = errors.New("flight is already registered")
	ErrFlightNotFound      = errors.New("flight not found")
	ErrFlightClosed        = errors.New("flight status is already known")
	ErrAlreadyBooked       = errors.New("passenger already booked this flight")
	ErrPriceMismatch       = errors.New("price does not match the registered ticket price")
	ErrPremiumTooHigh      = errors.New("premium exceeds the insurance cap")
	ErrInsufficientPayment = errors.New("payment does not cover ticket price and premium")
	ErrOverpayment         = errors.New("payment exceeds ticket price and premium")
	ErrCoverUnavailable    = errors.New("custody cannot underwrite this cover")

	ErrInvalidStatus       = errors.New("invalid status code")
	ErrNoOpenRequest       = errors.New("no status request has been made for this flight")
	ErrDuplicateSubmission = errors.New("oracle already responded for this flight")

	ErrNothingToWithdraw = errors.New("nothing to withdraw")
)

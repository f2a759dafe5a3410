package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Airline is a member of the insurance network.  An airline row is
// created unregistered on the first vote cast for it, or registered at
// genesis for the founder.  Funded flips once, at the funding call that
// first brings FundedAmount to the minimum bond.
//
// Fields:
//
//	Address      – airline identity (airlines.address).
//	Registered   – admitted by the founder or by majority vote.
//	Funded       – bond threshold reached.
//	FundedAmount – total bond paid into custody, never decreases.
//	TicketCredit – ticket revenue not yet withdrawn.
//	CreatedAt    – when the row was first written.
type Airline struct {
	Address      Address         `json:"address"`
	Registered   bool            `json:"registered"`
	Funded       bool            `json:"funded"`
	FundedAmount decimal.Decimal `json:"funded_amount"`
	TicketCredit decimal.Decimal `json:"ticket_credit"`
	CreatedAt    time.Time       `json:"created_at"`
}

// NewAirline returns an unregistered, unfunded airline with zero balances.
func NewAirline(addr Address, now time.Time) *Airline {
	return &Airline{
		Address:      addr,
		FundedAmount: decimal.Zero,
		TicketCredit: decimal.Zero,
		CreatedAt:    now.UTC(),
	}
}

// AirlineVote records that Voter backs the admission of Candidate.
type AirlineVote struct {
	Candidate Address   `json:"candidate"`
	Voter     Address   `json:"voter"`
	CastAt    time.Time `json:"cast_at"`
}

// VoteThreshold returns ceil(registered/2), the number of distinct votes
// a candidate needs once the network has left the founder phase.
func VoteThreshold(registered int) int {
	return (registered + 1) / 2
}

package service

import (
	"github.com/shopspring/decimal"

	"github.com/iliyamo/flight-surety/internal/model"
)

// Params are the economic and consensus constants of the network.
type Params struct {
	// MinFund is the bond an airline must pay in before it may vote or
	// register flights.
	MinFund decimal.Decimal
	// MaxPremium caps the insurance premium per booking.
	MaxPremium decimal.Decimal
	// Quorum is the number of matching oracle reports that resolves a round.
	Quorum int
	// DirectRegistrationLimit is the registered-airline count below which
	// the founder admits airlines without a vote.
	DirectRegistrationLimit int
}

// DefaultParams returns 10 ether bond, 1 ether premium cap, quorum of 3
// and direct registration for the first four airlines.
func DefaultParams() Params {
	return Params{
		MinFund:                 model.Ether(10),
		MaxPremium:              model.Ether(1),
		Quorum:                  3,
		DirectRegistrationLimit: 4,
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if !p.MinFund.IsPositive() {
		p.MinFund = d.MinFund
	}
	if !p.MaxPremium.IsPositive() {
		p.MaxPremium = d.MaxPremium
	}
	if p.Quorum <= 0 {
		p.Quorum = d.Quorum
	}
	if p.DirectRegistrationLimit <= 0 {
		p.DirectRegistrationLimit = d.DirectRegistrationLimit
	}
	return p
}

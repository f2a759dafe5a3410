package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Booking is a passenger's ticket on a flight, with optional insurance.
// There is at most one booking per (FlightKey, Passenger).  The
// insurance credit is fixed at booking time and becomes claimable only
// once Settled is set by an airline-fault resolution; a withdrawal zeroes
// it.
//
// Fields:
//
//	FlightKey       – flight booked.
//	Passenger       – buyer and insured party.
//	TicketPrice     – price paid for the seat, credited to the airline.
//	PremiumPaid     – insurance premium paid into custody.
//	InsuranceCredit – floor(PremiumPaid*3/2) until withdrawn, then zero.
//	Settled         – flight resolved as LateAirline.
//	CreatedAt       – booking time.
type Booking struct {
	FlightKey       FlightKey       `json:"flight_key"`
	Passenger       Address         `json:"passenger"`
	TicketPrice     decimal.Decimal `json:"ticket_price"`
	PremiumPaid     decimal.Decimal `json:"premium_paid"`
	InsuranceCredit decimal.Decimal `json:"insurance_credit"`
	Settled         bool            `json:"settled"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Claimable reports whether the booking holds credit the passenger can
// withdraw now.
func (b *Booking) Claimable() bool {
	return b.Settled && b.InsuranceCredit.IsPositive()
}

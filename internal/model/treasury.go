package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Treasury is the custody account holding every wei paid in: airline
// bonds, ticket payments and premiums.  Balance always equals
// TotalIn minus TotalOut.
type Treasury struct {
	Balance  decimal.Decimal `json:"balance"`
	TotalIn  decimal.Decimal `json:"total_in"`
	TotalOut decimal.Decimal `json:"total_out"`
}

// Payout is the transfer produced by a withdrawal.  The credits it
// drains are zeroed in the same transaction that records it.
type Payout struct {
	ID            string          `json:"id"`
	Recipient     Address         `json:"recipient"`
	Amount        decimal.Decimal `json:"amount"`
	TicketPart    decimal.Decimal `json:"ticket_part"`
	InsurancePart decimal.Decimal `json:"insurance_part"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Credits summarises what an identity is owed.
type Credits struct {
	Address          Address         `json:"address"`
	TicketCredit     decimal.Decimal `json:"ticket_credit"`
	ClaimableCredit  decimal.Decimal `json:"claimable_insurance"`
	PendingInsurance decimal.Decimal `json:"pending_insurance"`
}

// Withdrawable is the amount Withdraw would pay out now.
func (c Credits) Withdrawable() decimal.Decimal {
	return c.TicketCredit.Add(c.ClaimableCredit)
}

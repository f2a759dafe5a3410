package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/flight-surety/internal/model"
	"github.com/iliyamo/flight-surety/internal/queue"
	"github.com/iliyamo/flight-surety/internal/repository"
)

// WithdrawalService pays out credits.  Credits are zeroed in the same
// transaction that debits custody and records the payout, so each unit
// leaves exactly once.
type WithdrawalService struct{ *core }

// Withdraw collects caller's ticket revenue (as an airline) and every
// claimable insurance credit (as a passenger) into one payout.
func (s *WithdrawalService) Withdraw(ctx context.Context, caller model.Address) (*model.Payout, error) {
	var p *model.Payout
	err := s.ledger.Update(ctx, func(tx *sql.Tx) error {
		if _, err := s.requireOperational(ctx, tx); err != nil {
			return err
		}
		if err := checkIdentity(caller); err != nil {
			return err
		}
		ticket := decimal.Zero
		insurance := decimal.Zero

		a, err := s.ledger.Airlines.Get(ctx, tx, caller)
		switch {
		case err == nil:
			if a.TicketCredit.IsPositive() {
				ticket = a.TicketCredit
				if err := s.ledger.Airlines.ClaimTicketCredit(ctx, tx, caller, ticket); err != nil {
					return fmt.Errorf("zero ticket credit: %w", err)
				}
			}
		case !errors.Is(err, repository.ErrAirlineNotFound):
			return fmt.Errorf("load airline: %w", err)
		}

		bookings, err := s.ledger.Bookings.ListByPassenger(ctx, tx, caller)
		if err != nil {
			return fmt.Errorf("load bookings: %w", err)
		}
		for _, b := range bookings {
			if !b.Claimable() {
				continue
			}
			insurance = insurance.Add(b.InsuranceCredit)
			if err := s.ledger.Bookings.ZeroInsurance(ctx, tx, b.FlightKey, caller, b.InsuranceCredit); err != nil {
				return fmt.Errorf("zero insurance credit: %w", err)
			}
		}

		total := ticket.Add(insurance)
		if !total.IsPositive() {
			return ErrNothingToWithdraw
		}
		if err := s.ledger.Treasury.Debit(ctx, tx, total); err != nil {
			return fmt.Errorf("debit treasury: %w", err)
		}
		p = &model.Payout{
			ID:            uuid.NewString(),
			Recipient:     caller,
			Amount:        total,
			TicketPart:    ticket,
			InsurancePart: insurance,
			CreatedAt:     s.now().UTC(),
		}
		if err := s.ledger.Treasury.InsertPayout(ctx, tx, p); err != nil {
			return fmt.Errorf("record payout: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.WithdrawalCompleted{
		PayoutID:      p.ID,
		Recipient:     p.Recipient.String(),
		Amount:        p.Amount,
		TicketPart:    p.TicketPart,
		InsurancePart: p.InsurancePart,
		OccurredAt:    s.stamp(),
	})
	return p, nil
}

// Credits reports what addr can withdraw now and what insurance is still
// waiting on an unresolved flight.  Cover on flights that resolved with
// any status other than LateAirline is forfeited and not reported.
func (s *WithdrawalService) Credits(ctx context.Context, addr model.Address) (*model.Credits, error) {
	c := &model.Credits{
		Address:          addr,
		TicketCredit:     decimal.Zero,
		ClaimableCredit:  decimal.Zero,
		PendingInsurance: decimal.Zero,
	}
	a, err := s.ledger.Airlines.Get(ctx, s.db(), addr)
	switch {
	case err == nil:
		c.TicketCredit = a.TicketCredit
	case !errors.Is(err, repository.ErrAirlineNotFound):
		return nil, err
	}

	bookings, err := s.ledger.Bookings.ListByPassenger(ctx, s.db(), addr)
	if err != nil {
		return nil, err
	}
	for _, b := range bookings {
		if b.Claimable() {
			c.ClaimableCredit = c.ClaimableCredit.Add(b.InsuranceCredit)
			continue
		}
		if b.Settled || !b.InsuranceCredit.IsPositive() {
			continue
		}
		f, err := s.ledger.Flights.Get(ctx, s.db(), b.FlightKey)
		if err != nil {
			return nil, err
		}
		if f.Open() {
			c.PendingInsurance = c.PendingInsurance.Add(b.InsuranceCredit)
		}
	}
	return c, nil
}

// Payouts lists the payouts made to addr.
func (s *WithdrawalService) Payouts(ctx context.Context, addr model.Address) ([]model.Payout, error) {
	return s.ledger.Treasury.Payouts(ctx, s.db(), addr)
}

// Treasury returns the custody totals.
func (s *WithdrawalService) Treasury(ctx context.Context) (*model.Treasury, error) {
	return s.ledger.Treasury.Get(ctx, s.db())
}

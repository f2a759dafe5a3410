package service

import (
	"context"
	"database/sql"

	"github.com/iliyamo/flight-surety/internal/model"
)

// GateService owns the operational switch and the authorized-caller
// allow-list.  Authorized callers are the oracle relays that may submit
// flight status reports.
type GateService struct{ *core }

// State returns the switch, the owner and the founder.
func (s *GateService) State(ctx context.Context) (*model.OperationalState, error) {
	return s.ledger.Gate.State(ctx, s.db())
}

func (s *GateService) IsOperational(ctx context.Context) (bool, error) {
	st, err := s.State(ctx)
	if err != nil {
		return false, err
	}
	return st.IsOperational, nil
}

// SetOperational flips the switch.  Only the owner may call it, and it
// works while paused so the owner can resume.
func (s *GateService) SetOperational(ctx context.Context, caller model.Address, on bool) error {
	return s.ledger.Update(ctx, func(tx *sql.Tx) error {
		st, err := s.ledger.Gate.State(ctx, tx)
		if err != nil {
			return err
		}
		if caller != st.Owner {
			return ErrUnauthorized
		}
		return s.ledger.Gate.SetOperational(ctx, tx, on)
	})
}

// AuthorizeCaller adds identity to the allow-list.  Repeats are no-ops.
func (s *GateService) AuthorizeCaller(ctx context.Context, caller, identity model.Address) error {
	return s.ledger.Update(ctx, func(tx *sql.Tx) error {
		st, err := s.requireOperational(ctx, tx)
		if err != nil {
			return err
		}
		if caller != st.Owner {
			return ErrUnauthorized
		}
		if err := checkIdentity(identity); err != nil {
			return err
		}
		return s.ledger.Gate.Authorize(ctx, tx, identity, s.now())
	})
}

// DeauthorizeCaller removes identity from the allow-list and reports
// whether it was present.
func (s *GateService) DeauthorizeCaller(ctx context.Context, caller, identity model.Address) (bool, error) {
	var removed bool
	err := s.ledger.Update(ctx, func(tx *sql.Tx) error {
		st, err := s.requireOperational(ctx, tx)
		if err != nil {
			return err
		}
		if caller != st.Owner {
			return ErrUnauthorized
		}
		removed, err = s.ledger.Gate.Deauthorize(ctx, tx, identity)
		return err
	})
	return removed, err
}

func (s *GateService) IsAuthorized(ctx context.Context, identity model.Address) (bool, error) {
	return s.ledger.Gate.IsAuthorized(ctx, s.db(), identity)
}

func (s *GateService) AuthorizedCallers(ctx context.Context) ([]model.Address, error) {
	return s.ledger.Gate.ListAuthorized(ctx, s.db())
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/flight-surety/internal/model"
	"github.com/iliyamo/flight-surety/internal/queue"
	"github.com/iliyamo/flight-surety/internal/repository"
)

// OracleService runs status rounds.  A round resolves the first time
// Quorum authorized oracles report the same status; that status becomes
// the flight's, and LateAirline settles every booking on the flight.
// Reports after resolution are kept for audit only.
type OracleService struct{ *core }

// Submission is the outcome of one SubmitStatus call.
type Submission struct {
	Round *model.OracleRound `json:"round"`
	// Resolved is set only on the report that reached quorum.
	Resolved bool `json:"resolved"`
	Settled  int  `json:"settled_bookings"`
}

// RequestStatus opens a round for the flight at key, or returns the
// existing one unchanged.
func (s *OracleService) RequestStatus(ctx context.Context, caller model.Address, key model.FlightKey) (*model.OracleRound, error) {
	var (
		round *model.OracleRound
		f     *model.Flight
	)
	err := s.ledger.Update(ctx, func(tx *sql.Tx) error {
		if _, err := s.requireOperational(ctx, tx); err != nil {
			return err
		}
		if err := checkIdentity(caller); err != nil {
			return err
		}
		var err error
		f, err = s.ledger.Flights.Get(ctx, tx, key)
		if errors.Is(err, repository.ErrFlightNotFound) {
			return ErrFlightNotFound
		}
		if err != nil {
			return fmt.Errorf("load flight: %w", err)
		}

		round, err = s.ledger.Oracles.GetRound(ctx, tx, key)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrRoundNotFound) {
			return fmt.Errorf("load round: %w", err)
		}
		round = &model.OracleRound{
			FlightKey:   key,
			RequestedBy: caller,
			RequestedAt: s.now().UTC(),
			Responses:   map[model.StatusCode][]model.Address{},
		}
		if err := s.ledger.Oracles.InsertRound(ctx, tx, round); err != nil {
			return fmt.Errorf("insert round: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.StatusRequested{
		FlightKey:   key.String(),
		Airline:     f.Airline.String(),
		FlightRef:   f.FlightRef,
		Landing:     f.Landing,
		RequestedBy: caller.String(),
		Resolved:    round.Resolved,
		OccurredAt:  s.stamp(),
	})
	return round, nil
}

// SubmitStatus records oracle's report for the flight at key.
func (s *OracleService) SubmitStatus(ctx context.Context, oracle model.Address, key model.FlightKey, status model.StatusCode) (*Submission, error) {
	var sub Submission
	err := s.ledger.Update(ctx, func(tx *sql.Tx) error {
		if _, err := s.requireOperational(ctx, tx); err != nil {
			return err
		}
		ok, err := s.ledger.Gate.IsAuthorized(ctx, tx, oracle)
		if err != nil {
			return fmt.Errorf("check oracle: %w", err)
		}
		if !ok {
			return ErrUnauthorized
		}
		if !status.Reportable() {
			return ErrInvalidStatus
		}

		round, err := s.ledger.Oracles.GetRound(ctx, tx, key)
		if errors.Is(err, repository.ErrRoundNotFound) {
			return ErrNoOpenRequest
		}
		if err != nil {
			return fmt.Errorf("load round: %w", err)
		}
		dup, err := s.ledger.Oracles.HasResponded(ctx, tx, key, oracle)
		if err != nil {
			return fmt.Errorf("check response: %w", err)
		}
		if dup {
			return ErrDuplicateSubmission
		}
		now := s.now().UTC()
		if err := s.ledger.Oracles.InsertResponse(ctx, tx, model.OracleResponse{
			FlightKey: key, Oracle: oracle, StatusCode: status, SubmittedAt: now,
		}); err != nil {
			return fmt.Errorf("insert response: %w", err)
		}

		if !round.Resolved {
			n, err := s.ledger.Oracles.CountResponses(ctx, tx, key, status)
			if err != nil {
				return fmt.Errorf("count responses: %w", err)
			}
			if n >= s.params.Quorum {
				if err := s.settle(ctx, tx, key, status, now, &sub); err != nil {
					return err
				}
			}
		}

		sub.Round, err = s.ledger.Oracles.GetRound(ctx, tx, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	if sub.Resolved {
		s.publish(ctx, queue.StatusResolved{
			FlightKey:       key.String(),
			StatusCode:      int(status),
			Status:          status.String(),
			Responses:       len(sub.Round.Responses[status]),
			SettledBookings: sub.Settled,
			OccurredAt:      s.stamp(),
		})
	}
	return &sub, nil
}

func (s *OracleService) settle(ctx context.Context, tx *sql.Tx, key model.FlightKey, status model.StatusCode, at time.Time, sub *Submission) error {
	if err := s.ledger.Oracles.ResolveRound(ctx, tx, key, status, at); err != nil {
		return fmt.Errorf("resolve round: %w", err)
	}
	if err := s.ledger.Flights.UpdateStatus(ctx, tx, key, status); err != nil {
		return fmt.Errorf("update flight status: %w", err)
	}
	sub.Resolved = true
	if status != model.StatusLateAirline {
		return nil
	}
	n, err := s.ledger.Bookings.SettleFlight(ctx, tx, key)
	if err != nil {
		return fmt.Errorf("settle bookings: %w", err)
	}
	sub.Settled = n
	return nil
}

// Round returns the status round for key.
func (s *OracleService) Round(ctx context.Context, key model.FlightKey) (*model.OracleRound, error) {
	r, err := s.ledger.Oracles.GetRound(ctx, s.db(), key)
	if errors.Is(err, repository.ErrRoundNotFound) {
		return nil, ErrNoOpenRequest
	}
	return r, err
}

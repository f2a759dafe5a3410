package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/flight-surety/internal/model"
	"github.com/iliyamo/flight-surety/internal/queue"
	"github.com/iliyamo/flight-surety/internal/repository"
)

// AirlineService admits airlines and collects their bonds.
//
// Admission has two phases.  While fewer than DirectRegistrationLimit
// airlines are registered, the founder registers candidates outright.
// After that every funded airline may vote once per candidate, and the
// candidate is admitted when its votes reach ceil(registered/2).
type AirlineService struct{ *core }

// Registration is the outcome of one RegisterAirline call.
type Registration struct {
	Candidate  model.Address `json:"candidate"`
	Registered bool          `json:"registered"`
	Votes      int           `json:"votes"`
	VotesLeft  int           `json:"votes_left"`
}

// AirlineView is an airline with its admission progress.
type AirlineView struct {
	model.Airline
	Voters    []model.Address `json:"voters"`
	VotesLeft int             `json:"votes_left"`
}

// Fund pays amount wei of bond into custody.  Payments accumulate until
// the bond reaches MinFund; the call that crosses it flips Funded, and
// any later call fails with ErrAlreadyFunded.
func (s *AirlineService) Fund(ctx context.Context, caller model.Address, amount decimal.Decimal) (*model.Airline, error) {
	var a *model.Airline
	err := s.ledger.Update(ctx, func(tx *sql.Tx) error {
		if _, err := s.requireOperational(ctx, tx); err != nil {
			return err
		}
		var err error
		if a, err = s.member(ctx, tx, caller, false); err != nil {
			return err
		}
		if a.Funded {
			return ErrAlreadyFunded
		}
		if !amount.IsPositive() || !amount.IsInteger() {
			return ErrInvalidAmount
		}
		a.FundedAmount = a.FundedAmount.Add(amount)
		if a.FundedAmount.GreaterThanOrEqual(s.params.MinFund) {
			a.Funded = true
		}
		if err := s.ledger.Airlines.Update(ctx, tx, a); err != nil {
			return fmt.Errorf("update airline: %w", err)
		}
		if err := s.ledger.Treasury.Deposit(ctx, tx, amount); err != nil {
			return fmt.Errorf("deposit bond: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.AirlineFunded{
		Airline:      a.Address.String(),
		Amount:       amount,
		FundedAmount: a.FundedAmount,
		Funded:       a.Funded,
		OccurredAt:   s.stamp(),
	})
	return a, nil
}

// RegisterAirline registers candidate directly or records caller's vote
// for it, depending on the admission phase.
func (s *AirlineService) RegisterAirline(ctx context.Context, caller, candidate model.Address) (*Registration, error) {
	var res Registration
	err := s.ledger.Update(ctx, func(tx *sql.Tx) error {
		st, err := s.requireOperational(ctx, tx)
		if err != nil {
			return err
		}
		if _, err := s.member(ctx, tx, caller, true); err != nil {
			return err
		}
		if err := checkIdentity(candidate); err != nil {
			return err
		}

		cand, err := s.ledger.Airlines.Get(ctx, tx, candidate)
		switch {
		case errors.Is(err, repository.ErrAirlineNotFound):
			cand = nil
		case err != nil:
			return fmt.Errorf("load candidate: %w", err)
		case cand.Registered:
			return ErrAlreadyRegistered
		}

		count, err := s.ledger.Airlines.CountRegistered(ctx, tx)
		if err != nil {
			return fmt.Errorf("count airlines: %w", err)
		}
		res.Candidate = candidate

		if count < s.params.DirectRegistrationLimit {
			if caller != st.Founder {
				return ErrVotingNotYetActive
			}
			res.Registered = true
			return s.admit(ctx, tx, cand, candidate)
		}

		voted, err := s.ledger.Airlines.HasVoted(ctx, tx, candidate, caller)
		if err != nil {
			return fmt.Errorf("check vote: %w", err)
		}
		if voted {
			return ErrDuplicateVote
		}
		if cand == nil {
			cand = model.NewAirline(candidate, s.now())
			if err := s.ledger.Airlines.Insert(ctx, tx, cand); err != nil {
				return fmt.Errorf("insert candidate: %w", err)
			}
		}
		if err := s.ledger.Airlines.AddVote(ctx, tx, model.AirlineVote{
			Candidate: candidate, Voter: caller, CastAt: s.now(),
		}); err != nil {
			return fmt.Errorf("record vote: %w", err)
		}
		if res.Votes, err = s.ledger.Airlines.CountVotes(ctx, tx, candidate); err != nil {
			return fmt.Errorf("count votes: %w", err)
		}
		threshold := model.VoteThreshold(count)
		if res.Votes < threshold {
			res.VotesLeft = threshold - res.Votes
			return nil
		}
		res.Registered = true
		return s.admit(ctx, tx, cand, candidate)
	})
	if err != nil {
		return nil, err
	}

	if res.Registered {
		s.publish(ctx, queue.AirlineRegistered{
			Airline:      candidate.String(),
			RegisteredBy: caller.String(),
			Votes:        res.Votes,
			OccurredAt:   s.stamp(),
		})
	} else {
		s.publish(ctx, queue.AirlineVoted{
			Candidate:  candidate.String(),
			Voter:      caller.String(),
			VotesLeft:  res.VotesLeft,
			OccurredAt: s.stamp(),
		})
	}
	return &res, nil
}

func (s *AirlineService) admit(ctx context.Context, tx *sql.Tx, cand *model.Airline, addr model.Address) error {
	if cand == nil {
		a := model.NewAirline(addr, s.now())
		a.Registered = true
		if err := s.ledger.Airlines.Insert(ctx, tx, a); err != nil {
			return fmt.Errorf("insert airline: %w", err)
		}
		return nil
	}
	cand.Registered = true
	if err := s.ledger.Airlines.Update(ctx, tx, cand); err != nil {
		return fmt.Errorf("update airline: %w", err)
	}
	return nil
}

// VotesLeft returns how many more votes candidate needs at the current
// registered count.  It is 0 once the candidate is registered.
func (s *AirlineService) VotesLeft(ctx context.Context, candidate model.Address) (int, error) {
	return s.votesLeft(ctx, s.db(), candidate)
}

func (s *AirlineService) votesLeft(ctx context.Context, q repository.Querier, candidate model.Address) (int, error) {
	a, err := s.ledger.Airlines.Get(ctx, q, candidate)
	switch {
	case err == nil && a.Registered:
		return 0, nil
	case err != nil && !errors.Is(err, repository.ErrAirlineNotFound):
		return 0, err
	}
	count, err := s.ledger.Airlines.CountRegistered(ctx, q)
	if err != nil {
		return 0, err
	}
	votes, err := s.ledger.Airlines.CountVotes(ctx, q, candidate)
	if err != nil {
		return 0, err
	}
	return max(0, model.VoteThreshold(count)-votes), nil
}

// Airline returns the airline at addr with its voters.
func (s *AirlineService) Airline(ctx context.Context, addr model.Address) (*AirlineView, error) {
	a, err := s.ledger.Airlines.Get(ctx, s.db(), addr)
	if errors.Is(err, repository.ErrAirlineNotFound) {
		return nil, ErrAirlineNotFound
	}
	if err != nil {
		return nil, err
	}
	voters, err := s.ledger.Airlines.Voters(ctx, s.db(), addr)
	if err != nil {
		return nil, err
	}
	left, err := s.votesLeft(ctx, s.db(), addr)
	if err != nil {
		return nil, err
	}
	return &AirlineView{Airline: *a, Voters: voters, VotesLeft: left}, nil
}

// Airlines lists every known airline, registered or candidate.
func (s *AirlineService) Airlines(ctx context.Context) ([]model.Airline, error) {
	return s.ledger.Airlines.List(ctx, s.db())
}

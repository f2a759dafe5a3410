package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/flight-surety/internal/model"
	"github.com/iliyamo/flight-surety/internal/queue"
	"github.com/iliyamo/flight-surety/internal/repository"
)

// Surety bundles the engines over one ledger.  It is safe for concurrent
// use; all coordination happens in the ledger.
type Surety struct {
	Gate        *GateService
	Airlines    *AirlineService
	Flights     *FlightService
	Oracles     *OracleService
	Withdrawals *WithdrawalService

	core *core
}

// New wires the engines.  A nil publisher logs events instead of sending
// them anywhere.
func New(ledger *repository.Ledger, params Params, pub Publisher) *Surety {
	if pub == nil {
		pub = LogPublisher{}
	}
	c := &core{
		ledger: ledger,
		params: params.withDefaults(),
		pub:    pub,
		now:    time.Now,
	}
	return &Surety{
		Gate:        &GateService{c},
		Airlines:    &AirlineService{c},
		Flights:     &FlightService{c},
		Oracles:     &OracleService{c},
		Withdrawals: &WithdrawalService{c},
		core:        c,
	}
}

// SetClock replaces the time source.  Call it before serving requests.
func (s *Surety) SetClock(now func() time.Time) { s.core.now = now }

// Params returns the effective parameters.
func (s *Surety) Params() Params { return s.core.params }

type core struct {
	ledger *repository.Ledger
	params Params
	pub    Publisher
	now    func() time.Time
}

func (c *core) stamp() string { return c.now().UTC().Format(time.RFC3339) }

// publish is called after commit.  A lost event is logged, never returned.
func (c *core) publish(ctx context.Context, ev queue.Event) {
	if err := c.pub.Publish(ctx, ev); err != nil {
		log.Printf("surety: publish %s failed: %v", ev.RoutingKey(), err)
	}
}

func (c *core) requireOperational(ctx context.Context, q repository.Querier) (*model.OperationalState, error) {
	st, err := c.ledger.Gate.State(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("load operational state: %w", err)
	}
	if !st.IsOperational {
		return nil, ErrContractPaused
	}
	return st, nil
}

// member loads caller as a registered airline, funded when requireFunds
// is set.
func (c *core) member(ctx context.Context, q repository.Querier, caller model.Address, requireFunds bool) (*model.Airline, error) {
	a, err := c.ledger.Airlines.Get(ctx, q, caller)
	if errors.Is(err, repository.ErrAirlineNotFound) {
		return nil, ErrCallerMustBeRegistered
	}
	if err != nil {
		return nil, fmt.Errorf("load airline: %w", err)
	}
	if !a.Registered {
		return nil, ErrCallerMustBeRegistered
	}
	if requireFunds && !a.Funded {
		return nil, ErrCallerMustBeFunded
	}
	return a, nil
}

// checkIdentity accepts only canonical lower-case addresses.
func checkIdentity(addrs ...model.Address) error {
	for _, a := range addrs {
		parsed, err := model.ParseAddress(string(a))
		if err != nil || parsed != a {
			return ErrInvalidIdentity
		}
	}
	return nil
}

func (c *core) db() *sql.DB { return c.ledger.DB() }

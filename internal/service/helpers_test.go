package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/flight-surety/internal/database"
	"github.com/iliyamo/flight-surety/internal/model"
	"github.com/iliyamo/flight-surety/internal/queue"
	"github.com/iliyamo/flight-surety/internal/repository"
)

// addr returns a deterministic test identity.
func addr(n int) model.Address {
	return model.Address(fmt.Sprintf("0x%040x", n))
}

var (
	owner   = addr(0xff)
	founder = addr(1)
)

type recorder struct {
	mu     sync.Mutex
	events []queue.Event
}

func (r *recorder) Publish(_ context.Context, ev queue.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.RoutingKey())
	}
	return out
}

type fixture struct {
	t      *testing.T
	ctx    context.Context
	surety *Surety
	ledger *repository.Ledger
	events *recorder

	mu    sync.Mutex
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "surety.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, database.Migrate(ctx, db))

	f := &fixture{
		t:      t,
		ctx:    ctx,
		ledger: repository.NewLedger(db, nil),
		events: &recorder{},
		clock:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, f.ledger.Bootstrap(ctx, owner, founder, f.clock))
	f.surety = New(f.ledger, DefaultParams(), f.events)
	f.surety.SetClock(func() time.Time {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.clock = f.clock.Add(time.Second)
		return f.clock
	})
	return f
}

func (f *fixture) fund(a model.Address) {
	f.t.Helper()
	_, err := f.surety.Airlines.Fund(f.ctx, a, model.Ether(10))
	require.NoError(f.t, err)
}

// network registers and funds the founder plus n-1 more airlines, all
// admitted directly by the founder.  It returns them in admission order.
func (f *fixture) network(n int) []model.Address {
	f.t.Helper()
	f.fund(founder)
	out := []model.Address{founder}
	for i := 2; i <= n; i++ {
		a := addr(i)
		res, err := f.surety.Airlines.RegisterAirline(f.ctx, founder, a)
		require.NoError(f.t, err)
		require.True(f.t, res.Registered)
		f.fund(a)
		out = append(out, a)
	}
	return out
}

func (f *fixture) flight(airline model.Address, ref string, price decimal.Decimal) *model.Flight {
	f.t.Helper()
	fl, err := f.surety.Flights.RegisterFlight(f.ctx, airline, FlightInput{
		FlightRef:   ref,
		Origin:      "AMS",
		Destination: "LIS",
		TakeOff:     1_700_000_000,
		Landing:     1_700_010_000,
		Price:       price,
	})
	require.NoError(f.t, err)
	return fl
}

func (f *fixture) book(passenger model.Address, fl *model.Flight, premium decimal.Decimal) (*model.Booking, error) {
	return f.surety.Flights.Book(f.ctx, passenger, BookingInput{
		FlightRef:   fl.FlightRef,
		Destination: fl.Destination,
		Landing:     fl.Landing,
		Price:       fl.Price,
		Premium:     premium,
		Payment:     fl.Price.Add(premium),
	})
}

// oracles authorizes n oracle identities starting at 0x100.
func (f *fixture) oracles(n int) []model.Address {
	f.t.Helper()
	out := make([]model.Address, n)
	for i := range out {
		out[i] = addr(0x100 + i)
		require.NoError(f.t, f.surety.Gate.AuthorizeCaller(f.ctx, owner, out[i]))
	}
	return out
}

func (f *fixture) treasury() *model.Treasury {
	f.t.Helper()
	tr, err := f.surety.Withdrawals.Treasury(f.ctx)
	require.NoError(f.t, err)
	return tr
}

func requireAmount(t *testing.T, want, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, want.Equal(got), "want %s wei, got %s wei", want, got)
}

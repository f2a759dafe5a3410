package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/flight-surety/internal/model"
)

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Ledger bundles the repositories around one database handle.  All
// engines share a single Ledger; it is the single source of truth and the
// only mutable shared resource.
type Ledger struct {
	db     *sql.DB
	locker Locker

	Gate     GateRepo
	Airlines AirlineRepo
	Flights  FlightRepo
	Bookings BookingRepo
	Oracles  OracleRepo
	Treasury TreasuryRepo
}

// NewLedger returns a Ledger on db.  A nil locker serializes writers
// in-process only.
func NewLedger(db *sql.DB, locker Locker) *Ledger {
	if db == nil {
		panic("nil database passed to NewLedger")
	}
	if locker == nil {
		locker = &MutexLocker{}
	}
	return &Ledger{db: db, locker: locker}
}

// DB returns the underlying handle for read-only queries.
func (l *Ledger) DB() *sql.DB { return l.db }

// Update runs fn inside a transaction while holding the writer lock.  The
// transaction commits only when fn returns nil; any error rolls back every
// write fn made, so a failing call leaves the ledger untouched.
func (l *Ledger) Update(ctx context.Context, fn func(tx *sql.Tx) error) error {
	unlock, err := l.locker.Lock(ctx)
	if err != nil {
		return fmt.Errorf("acquire ledger lock: %w", err)
	}
	defer unlock()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

// Bootstrap seeds a fresh ledger: the operational state with its owner,
// an empty treasury and the founder airline, registered but unfunded.
// On an already seeded ledger it only checks that the configured owner
// still matches and logs when it does not.
func (l *Ledger) Bootstrap(ctx context.Context, owner, founder model.Address, now time.Time) error {
	return l.Update(ctx, func(tx *sql.Tx) error {
		st, err := l.Gate.State(ctx, tx)
		switch {
		case err == nil:
			if st.Owner != owner || st.Founder != founder {
				log.Printf("ledger: keeping seeded owner %s and founder %s; configured %s / %s ignored",
					st.Owner.Short(), st.Founder.Short(), owner.Short(), founder.Short())
			}
			return nil
		case !errors.Is(err, ErrNotInitialized):
			return err
		}
		if err := l.Gate.Init(ctx, tx, model.OperationalState{IsOperational: true, Owner: owner, Founder: founder}); err != nil {
			return err
		}
		if err := l.Treasury.Init(ctx, tx); err != nil {
			return err
		}
		a := model.NewAirline(founder, now)
		a.Registered = true
		return l.Airlines.Insert(ctx, tx, a)
	})
}

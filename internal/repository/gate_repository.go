package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/flight-surety/internal/model"
)

// GateRepo stores the operational switch, the owner and the allow-list
// of authorized callers.  The state lives in a single row with id 1.
type GateRepo struct{}

// Init writes the operational state row.  It must be called once, from
// Ledger.Bootstrap.
func (GateRepo) Init(ctx context.Context, q Querier, st model.OperationalState) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO operational_state (id, is_operational, owner, founder) VALUES (1, ?, ?, ?)`,
		st.IsOperational, string(st.Owner), string(st.Founder))
	return err
}

// State returns the operational state, or ErrNotInitialized.
func (GateRepo) State(ctx context.Context, q Querier) (*model.OperationalState, error) {
	var (
		st             model.OperationalState
		owner, founder string
	)
	err := q.QueryRowContext(ctx,
		`SELECT is_operational, owner, founder FROM operational_state WHERE id = 1`).
		Scan(&st.IsOperational, &owner, &founder)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotInitialized
	}
	if err != nil {
		return nil, err
	}
	st.Owner = model.Address(owner)
	st.Founder = model.Address(founder)
	return &st, nil
}

// SetOperational flips the switch.
func (GateRepo) SetOperational(ctx context.Context, q Querier, on bool) error {
	_, err := q.ExecContext(ctx, `UPDATE operational_state SET is_operational = ? WHERE id = 1`, on)
	return err
}

// Authorize adds addr to the allow-list.  Authorizing an address twice
// keeps the original timestamp.
func (r GateRepo) Authorize(ctx context.Context, q Querier, addr model.Address, now time.Time) error {
	ok, err := r.IsAuthorized(ctx, q, addr)
	if err != nil || ok {
		return err
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO authorized_callers (address, authorized_at) VALUES (?, ?)`,
		string(addr), now.UnixMilli())
	return err
}

// Deauthorize removes addr from the allow-list and reports whether it
// was present.
func (GateRepo) Deauthorize(ctx context.Context, q Querier, addr model.Address) (bool, error) {
	res, err := q.ExecContext(ctx, `DELETE FROM authorized_callers WHERE address = ?`, string(addr))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IsAuthorized reports whether addr is on the allow-list.
func (GateRepo) IsAuthorized(ctx context.Context, q Querier, addr model.Address) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM authorized_callers WHERE address = ?`, string(addr)).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListAuthorized returns the allow-list in address order.
func (GateRepo) ListAuthorized(ctx context.Context, q Querier) ([]model.Address, error) {
	rows, err := q.QueryContext(ctx, `SELECT address FROM authorized_callers ORDER BY address`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Address{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, model.Address(s))
	}
	return out, rows.Err()
}

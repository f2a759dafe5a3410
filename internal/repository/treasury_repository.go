package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/flight-surety/internal/model"
)

// TreasuryRepo tracks custody of paid-in value and the payouts drawn
// from it.  The treasury is a single row with id 1.
type TreasuryRepo struct{}

// Init writes an empty treasury row.
func (TreasuryRepo) Init(ctx context.Context, q Querier) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO treasury (id, balance, total_in, total_out) VALUES (1, ?, ?, ?)`,
		decimal.Zero, decimal.Zero, decimal.Zero)
	return err
}

// Get returns the treasury, or ErrNotInitialized.
func (TreasuryRepo) Get(ctx context.Context, q Querier) (*model.Treasury, error) {
	var t model.Treasury
	err := q.QueryRowContext(ctx,
		`SELECT balance, total_in, total_out FROM treasury WHERE id = 1`).
		Scan(&t.Balance, &t.TotalIn, &t.TotalOut)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotInitialized
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (TreasuryRepo) put(ctx context.Context, q Querier, t *model.Treasury) error {
	_, err := q.ExecContext(ctx,
		`UPDATE treasury SET balance = ?, total_in = ?, total_out = ? WHERE id = 1`,
		t.Balance, t.TotalIn, t.TotalOut)
	return err
}

// Deposit moves amount into custody.
func (r TreasuryRepo) Deposit(ctx context.Context, q Querier, amount decimal.Decimal) error {
	t, err := r.Get(ctx, q)
	if err != nil {
		return err
	}
	t.Balance = t.Balance.Add(amount)
	t.TotalIn = t.TotalIn.Add(amount)
	return r.put(ctx, q, t)
}

// Debit takes amount out of custody.  It fails with
// ErrInsufficientCustody rather than going negative.
func (r TreasuryRepo) Debit(ctx context.Context, q Querier, amount decimal.Decimal) error {
	t, err := r.Get(ctx, q)
	if err != nil {
		return err
	}
	if t.Balance.LessThan(amount) {
		return ErrInsufficientCustody
	}
	t.Balance = t.Balance.Sub(amount)
	t.TotalOut = t.TotalOut.Add(amount)
	return r.put(ctx, q, t)
}

// sumAmounts adds up a single column of wei values.  Amounts are stored
// as decimal strings so SQL SUM cannot be used without losing precision.
func sumAmounts(ctx context.Context, q Querier, query string, args ...any) (decimal.Decimal, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()
	total := decimal.Zero
	for rows.Next() {
		var d decimal.Decimal
		if err := rows.Scan(&d); err != nil {
			return decimal.Zero, err
		}
		total = total.Add(d)
	}
	return total, rows.Err()
}

// InsertPayout records a completed withdrawal.
func (TreasuryRepo) InsertPayout(ctx context.Context, q Querier, p *model.Payout) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO payouts (id, recipient, amount, ticket_part, insurance_part, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, string(p.Recipient), p.Amount, p.TicketPart, p.InsurancePart, p.CreatedAt.UnixMilli())
	return err
}

// Payouts returns the payouts made to recipient, oldest first.
func (TreasuryRepo) Payouts(ctx context.Context, q Querier, recipient model.Address) ([]model.Payout, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, recipient, amount, ticket_part, insurance_part, created_at
		 FROM payouts WHERE recipient = ? ORDER BY created_at, id`, string(recipient))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Payout{}
	for rows.Next() {
		var (
			p       model.Payout
			rcpt    string
			created int64
		)
		if err := rows.Scan(&p.ID, &rcpt, &p.Amount, &p.TicketPart, &p.InsurancePart, &created); err != nil {
			return nil, err
		}
		p.Recipient = model.Address(rcpt)
		p.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

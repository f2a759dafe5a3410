package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/flight-surety/internal/model"
)

// AirlineRepo provides access to the airlines and airline_votes tables.
// Votes are a set keyed by (candidate, voter); the primary key makes a
// second vote by the same voter impossible at the storage level too.
type AirlineRepo struct{}

const airlineColumns = `address, registered, funded, funded_amount, ticket_credit, created_at`

func scanAirline(row interface{ Scan(...any) error }) (*model.Airline, error) {
	var (
		a       model.Airline
		addr    string
		created int64
	)
	if err := row.Scan(&addr, &a.Registered, &a.Funded, &a.FundedAmount, &a.TicketCredit, &created); err != nil {
		return nil, err
	}
	a.Address = model.Address(addr)
	a.CreatedAt = time.UnixMilli(created).UTC()
	return &a, nil
}

// Get returns the airline stored under addr, or ErrAirlineNotFound.
func (AirlineRepo) Get(ctx context.Context, q Querier, addr model.Address) (*model.Airline, error) {
	a, err := scanAirline(q.QueryRowContext(ctx,
		`SELECT `+airlineColumns+` FROM airlines WHERE address = ?`, string(addr)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAirlineNotFound
	}
	return a, err
}

// Insert writes a new airline row.
func (AirlineRepo) Insert(ctx context.Context, q Querier, a *model.Airline) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO airlines (`+airlineColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		string(a.Address), a.Registered, a.Funded, a.FundedAmount, a.TicketCredit, a.CreatedAt.UnixMilli())
	return err
}

// Update writes back the mutable fields of a.
func (AirlineRepo) Update(ctx context.Context, q Querier, a *model.Airline) error {
	res, err := q.ExecContext(ctx,
		`UPDATE airlines SET registered = ?, funded = ?, funded_amount = ?, ticket_credit = ? WHERE address = ?`,
		a.Registered, a.Funded, a.FundedAmount, a.TicketCredit, string(a.Address))
	if err != nil {
		return err
	}
	return mustAffect(res, ErrAirlineNotFound)
}

// ClaimTicketCredit zeroes addr's ticket credit, but only while it still
// equals amount.  Any other value means a concurrent writer got there
// first and ErrStaleCredit is returned.
func (AirlineRepo) ClaimTicketCredit(ctx context.Context, q Querier, addr model.Address, amount decimal.Decimal) error {
	res, err := q.ExecContext(ctx,
		`UPDATE airlines SET ticket_credit = ? WHERE address = ? AND ticket_credit = ?`,
		decimal.Zero, string(addr), amount)
	if err != nil {
		return err
	}
	return mustAffect(res, ErrStaleCredit)
}

// TotalTicketCredit sums the ticket revenue owed to all airlines.
func (AirlineRepo) TotalTicketCredit(ctx context.Context, q Querier) (decimal.Decimal, error) {
	return sumAmounts(ctx, q, `SELECT ticket_credit FROM airlines`)
}

// CountRegistered returns the number of registered airlines.
func (AirlineRepo) CountRegistered(ctx context.Context, q Querier) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM airlines WHERE registered = ?`, true).Scan(&n)
	return n, err
}

// List returns every airline, registered or pending, in creation order.
func (AirlineRepo) List(ctx context.Context, q Querier) ([]model.Airline, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+airlineColumns+` FROM airlines ORDER BY created_at, address`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Airline{}
	for rows.Next() {
		a, err := scanAirline(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// AddVote records voter's vote for candidate.
func (AirlineRepo) AddVote(ctx context.Context, q Querier, v model.AirlineVote) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO airline_votes (candidate, voter, cast_at) VALUES (?, ?, ?)`,
		string(v.Candidate), string(v.Voter), v.CastAt.UnixMilli())
	return err
}

// HasVoted reports whether voter already voted for candidate.
func (AirlineRepo) HasVoted(ctx context.Context, q Querier, candidate, voter model.Address) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM airline_votes WHERE candidate = ? AND voter = ?`,
		string(candidate), string(voter)).Scan(&n)
	return n > 0, err
}

// CountVotes returns the number of distinct voters for candidate.
func (AirlineRepo) CountVotes(ctx context.Context, q Querier, candidate model.Address) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM airline_votes WHERE candidate = ?`, string(candidate)).Scan(&n)
	return n, err
}

// Voters returns the voters for candidate in the order they voted.
func (AirlineRepo) Voters(ctx context.Context, q Querier, candidate model.Address) ([]model.Address, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT voter FROM airline_votes WHERE candidate = ? ORDER BY cast_at, voter`, string(candidate))
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

// mustAffect turns an UPDATE that matched no row into notFound.  The
// MySQL DSN sets clientFoundRows so that rewriting identical values still
// counts as a match.
func mustAffect(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/flight-surety/internal/model"
)

// FlightRepo provides access to the flights table.  The flight key is the
// primary key, which is what keeps registered flights unique.
type FlightRepo struct{}

const flightColumns = `flight_key, airline, flight_ref, origin, destination, take_off, landing, price, status_code, created_at`

func scanFlight(row interface{ Scan(...any) error }) (*model.Flight, error) {
	var (
		f            model.Flight
		key, airline string
		status       int
		created      int64
	)
	if err := row.Scan(&key, &airline, &f.FlightRef, &f.Origin, &f.Destination,
		&f.TakeOff, &f.Landing, &f.Price, &status, &created); err != nil {
		return nil, err
	}
	f.Key = model.FlightKey(key)
	f.Airline = model.Address(airline)
	f.StatusCode = model.StatusCode(status)
	f.IsRegistered = true
	f.CreatedAt = time.UnixMilli(created).UTC()
	return &f, nil
}

// Get returns the flight stored under key, or ErrFlightNotFound.
func (FlightRepo) Get(ctx context.Context, q Querier, key model.FlightKey) (*model.Flight, error) {
	f, err := scanFlight(q.QueryRowContext(ctx,
		`SELECT `+flightColumns+` FROM flights WHERE flight_key = ?`, string(key)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFlightNotFound
	}
	return f, err
}

// Exists reports whether a flight is registered under key.
func (FlightRepo) Exists(ctx context.Context, q Querier, key model.FlightKey) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM flights WHERE flight_key = ?`, string(key)).Scan(&n)
	return n > 0, err
}

// Insert writes a new flight row.
func (FlightRepo) Insert(ctx context.Context, q Querier, f *model.Flight) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO flights (`+flightColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(f.Key), string(f.Airline), f.FlightRef, f.Origin, f.Destination,
		f.TakeOff, f.Landing, f.Price, int(f.StatusCode), f.CreatedAt.UnixMilli())
	return err
}

// UpdateStatus sets the flight's status code.
func (FlightRepo) UpdateStatus(ctx context.Context, q Querier, key model.FlightKey, status model.StatusCode) error {
	res, err := q.ExecContext(ctx,
		`UPDATE flights SET status_code = ? WHERE flight_key = ?`, int(status), string(key))
	if err != nil {
		return err
	}
	return mustAffect(res, ErrFlightNotFound)
}

// List returns every flight ordered by take-off time.
func (FlightRepo) List(ctx context.Context, q Querier) ([]model.Flight, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+flightColumns+` FROM flights ORDER BY take_off, flight_key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Flight{}
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

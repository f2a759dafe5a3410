package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/flight-surety/internal/model"
)

// BookingRepo provides access to the bookings table.  A booking's
// insurance credit doubles as the passenger's withdrawal queue entry:
// ZeroInsurance is the only way credit leaves a booking.
type BookingRepo struct{}

const bookingColumns = `flight_key, passenger, ticket_price, premium_paid, insurance_credit, settled, created_at`

func scanBooking(row interface{ Scan(...any) error }) (*model.Booking, error) {
	var (
		b              model.Booking
		key, passenger string
		created        int64
	)
	if err := row.Scan(&key, &passenger, &b.TicketPrice, &b.PremiumPaid, &b.InsuranceCredit, &b.Settled, &created); err != nil {
		return nil, err
	}
	b.FlightKey = model.FlightKey(key)
	b.Passenger = model.Address(passenger)
	b.CreatedAt = time.UnixMilli(created).UTC()
	return &b, nil
}

func collectBookings(rows *sql.Rows) ([]model.Booking, error) {
	defer rows.Close()
	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// Get returns the passenger's booking on the flight, or ErrBookingNotFound.
func (BookingRepo) Get(ctx context.Context, q Querier, key model.FlightKey, passenger model.Address) (*model.Booking, error) {
	b, err := scanBooking(q.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE flight_key = ? AND passenger = ?`,
		string(key), string(passenger)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// Insert writes a new booking row.
func (BookingRepo) Insert(ctx context.Context, q Querier, b *model.Booking) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO bookings (`+bookingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(b.FlightKey), string(b.Passenger), b.TicketPrice, b.PremiumPaid,
		b.InsuranceCredit, b.Settled, b.CreatedAt.UnixMilli())
	return err
}

// ListByPassenger returns every booking held by passenger in booking order.
func (BookingRepo) ListByPassenger(ctx context.Context, q Querier, passenger model.Address) ([]model.Booking, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE passenger = ? ORDER BY created_at, flight_key`, string(passenger))
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

// SettleFlight marks every unsettled booking on the flight as settled and
// returns how many it changed.
func (BookingRepo) SettleFlight(ctx context.Context, q Querier, key model.FlightKey) (int, error) {
	res, err := q.ExecContext(ctx,
		`UPDATE bookings SET settled = ? WHERE flight_key = ? AND settled = ?`, true, string(key), false)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// ZeroInsurance clears the insurance credit of one settled booking, but
// only while it still equals amount.  Otherwise it returns
// ErrStaleCredit and nothing changes.
func (BookingRepo) ZeroInsurance(ctx context.Context, q Querier, key model.FlightKey, passenger model.Address, amount decimal.Decimal) error {
	res, err := q.ExecContext(ctx,
		`UPDATE bookings SET insurance_credit = ?
		 WHERE flight_key = ? AND passenger = ? AND settled = ? AND insurance_credit = ?`,
		decimal.Zero, string(key), string(passenger), true, amount)
	if err != nil {
		return err
	}
	return mustAffect(res, ErrStaleCredit)
}

// OutstandingCover sums the insurance credit custody may still have to
// pay: settled claims not yet withdrawn and cover on flights whose status
// is still unknown.  Cover on flights resolved any other way is forfeited
// and left out.
func (BookingRepo) OutstandingCover(ctx context.Context, q Querier) (decimal.Decimal, error) {
	return sumAmounts(ctx, q,
		`SELECT b.insurance_credit FROM bookings b
		 JOIN flights f ON f.flight_key = b.flight_key
		 WHERE b.settled = ? OR f.status_code = ?`,
		true, int(model.StatusUnknown))
}

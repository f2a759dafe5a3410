package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/flight-surety/internal/model"
)

// FlightSearchQuery defines filters and pagination for searching flights.
// Text filters match case-insensitively on a substring.
type FlightSearchQuery struct {
	FlightRef   string
	Origin      string
	Destination string
	Airline     model.Address
	// TimeFilter is "upcoming" (take-off at or after Now, the default),
	// "open" (status still unknown) or "any".
	TimeFilter string
	Now        int64
	Page       int
	PageSize   int
}

// Search returns one page of flights matching fq, in take-off order, and
// the total number of matches.
func (FlightRepo) Search(ctx context.Context, q Querier, fq FlightSearchQuery) ([]model.Flight, int64, error) {
	where := []string{}
	args := []any{}

	switch strings.ToLower(fq.TimeFilter) {
	case "any":
	case "open":
		where = append(where, "status_code = ?")
		args = append(args, int(model.StatusUnknown))
	default:
		where = append(where, "take_off >= ?")
		args = append(args, fq.Now)
	}

	if fq.FlightRef != "" {
		where = append(where, "LOWER(flight_ref) LIKE ?")
		args = append(args, "%"+strings.ToLower(fq.FlightRef)+"%")
	}
	if fq.Origin != "" {
		where = append(where, "LOWER(origin) LIKE ?")
		args = append(args, "%"+strings.ToLower(fq.Origin)+"%")
	}
	if fq.Destination != "" {
		where = append(where, "LOWER(destination) LIKE ?")
		args = append(args, "%"+strings.ToLower(fq.Destination)+"%")
	}
	if fq.Airline != "" {
		where = append(where, "airline = ?")
		args = append(args, string(fq.Airline))
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM flights WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if fq.PageSize < 1 {
		fq.PageSize = 20
	}
	if fq.Page < 1 {
		fq.Page = 1
	}
	dataSQL := `SELECT ` + flightColumns + ` FROM flights
		WHERE ` + cond + `
		ORDER BY take_off, flight_key
		LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), fq.PageSize, (fq.Page-1)*fq.PageSize)

	rows, err := q.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Flight, 0, fq.PageSize)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

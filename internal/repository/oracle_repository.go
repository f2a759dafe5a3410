package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/flight-surety/internal/model"
)

// OracleRepo provides access to oracle_rounds and oracle_responses.  The
// responses primary key (flight_key, oracle) is one answer per oracle per
// round.
type OracleRepo struct{}

// GetRound returns the round for key, with its responses grouped by
// status, or ErrRoundNotFound.
func (r OracleRepo) GetRound(ctx context.Context, q Querier, key model.FlightKey) (*model.OracleRound, error) {
	var (
		round                 model.OracleRound
		requestedBy           string
		requestedAt, resolved int64
		status                int
	)
	err := q.QueryRowContext(ctx,
		`SELECT requested_by, requested_at, resolved, resolved_status, resolved_at
		 FROM oracle_rounds WHERE flight_key = ?`, string(key)).
		Scan(&requestedBy, &requestedAt, &round.Resolved, &status, &resolved)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoundNotFound
	}
	if err != nil {
		return nil, err
	}
	round.FlightKey = key
	round.RequestedBy = model.Address(requestedBy)
	round.RequestedAt = time.UnixMilli(requestedAt).UTC()
	round.ResolvedStatus = model.StatusCode(status)
	if round.Resolved {
		t := time.UnixMilli(resolved).UTC()
		round.ResolvedAt = &t
	}

	responses, err := r.Responses(ctx, q, key)
	if err != nil {
		return nil, err
	}
	round.Responses = make(map[model.StatusCode][]model.Address)
	for _, resp := range responses {
		round.Responses[resp.StatusCode] = append(round.Responses[resp.StatusCode], resp.Oracle)
	}
	return &round, nil
}

// InsertRound opens an unresolved round.
func (OracleRepo) InsertRound(ctx context.Context, q Querier, round *model.OracleRound) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO oracle_rounds (flight_key, requested_by, requested_at, resolved, resolved_status, resolved_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		string(round.FlightKey), string(round.RequestedBy), round.RequestedAt.UnixMilli(),
		false, int(model.StatusUnknown), int64(0))
	return err
}

// ResolveRound marks the round resolved with status.
func (OracleRepo) ResolveRound(ctx context.Context, q Querier, key model.FlightKey, status model.StatusCode, at time.Time) error {
	res, err := q.ExecContext(ctx,
		`UPDATE oracle_rounds SET resolved = ?, resolved_status = ?, resolved_at = ? WHERE flight_key = ?`,
		true, int(status), at.UnixMilli(), string(key))
	if err != nil {
		return err
	}
	return mustAffect(res, ErrRoundNotFound)
}

// InsertResponse records one oracle's report.
func (OracleRepo) InsertResponse(ctx context.Context, q Querier, resp model.OracleResponse) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO oracle_responses (flight_key, oracle, status_code, submitted_at) VALUES (?, ?, ?, ?)`,
		string(resp.FlightKey), string(resp.Oracle), int(resp.StatusCode), resp.SubmittedAt.UnixMilli())
	return err
}

// HasResponded reports whether oracle already answered the round for key.
func (OracleRepo) HasResponded(ctx context.Context, q Querier, key model.FlightKey, oracle model.Address) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM oracle_responses WHERE flight_key = ? AND oracle = ?`,
		string(key), string(oracle)).Scan(&n)
	return n > 0, err
}

// CountResponses returns the size of the status bucket for key.
func (OracleRepo) CountResponses(ctx context.Context, q Querier, key model.FlightKey, status model.StatusCode) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM oracle_responses WHERE flight_key = ? AND status_code = ?`,
		string(key), int(status)).Scan(&n)
	return n, err
}

// Responses returns every report for key in submission order.
func (OracleRepo) Responses(ctx context.Context, q Querier, key model.FlightKey) ([]model.OracleResponse, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT oracle, status_code, submitted_at FROM oracle_responses
		 WHERE flight_key = ? ORDER BY submitted_at, oracle`, string(key))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.OracleResponse{}
	for rows.Next() {
		var (
			oracle string
			status int
			at     int64
		)
		if err := rows.Scan(&oracle, &status, &at); err != nil {
			return nil, err
		}
		out = append(out, model.OracleResponse{
			FlightKey:   key,
			Oracle:      model.Address(oracle),
			StatusCode:  model.StatusCode(status),
			SubmittedAt: time.UnixMilli(at).UTC(),
		})
	}
	return out, rows.Err()
}

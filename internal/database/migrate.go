package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is written in the subset of SQL understood by both MySQL and
// SQLite.  Amounts are stored as base-10 strings in VARCHAR columns:
// SQLite would otherwise coerce values above 2^63 to REAL and lose wei.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS operational_state (
		id             INTEGER     NOT NULL PRIMARY KEY,
		is_operational BOOLEAN     NOT NULL,
		owner          VARCHAR(42) NOT NULL,
		founder        VARCHAR(42) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS authorized_callers (
		address       VARCHAR(42) NOT NULL PRIMARY KEY,
		authorized_at BIGINT      NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS treasury (
		id        INTEGER     NOT NULL PRIMARY KEY,
		balance   VARCHAR(80) NOT NULL,
		total_in  VARCHAR(80) NOT NULL,
		total_out VARCHAR(80) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS airlines (
		address       VARCHAR(42) NOT NULL PRIMARY KEY,
		registered    BOOLEAN     NOT NULL,
		funded        BOOLEAN     NOT NULL,
		funded_amount VARCHAR(80) NOT NULL,
		ticket_credit VARCHAR(80) NOT NULL,
		created_at    BIGINT      NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS airline_votes (
		candidate VARCHAR(42) NOT NULL,
		voter     VARCHAR(42) NOT NULL,
		cast_at   BIGINT      NOT NULL,
		PRIMARY KEY (candidate, voter)
	)`,
	`CREATE TABLE IF NOT EXISTS flights (
		flight_key  VARCHAR(66) NOT NULL PRIMARY KEY,
		airline     VARCHAR(42) NOT NULL,
		flight_ref  VARCHAR(32) NOT NULL,
		origin      VARCHAR(16) NOT NULL,
		destination VARCHAR(16) NOT NULL,
		take_off    BIGINT      NOT NULL,
		landing     BIGINT      NOT NULL,
		price       VARCHAR(80) NOT NULL,
		status_code INTEGER     NOT NULL,
		created_at  BIGINT      NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		flight_key       VARCHAR(66) NOT NULL,
		passenger        VARCHAR(42) NOT NULL,
		ticket_price     VARCHAR(80) NOT NULL,
		premium_paid     VARCHAR(80) NOT NULL,
		insurance_credit VARCHAR(80) NOT NULL,
		settled          BOOLEAN     NOT NULL,
		created_at       BIGINT      NOT NULL,
		PRIMARY KEY (flight_key, passenger)
	)`,
	`CREATE TABLE IF NOT EXISTS oracle_rounds (
		flight_key      VARCHAR(66) NOT NULL PRIMARY KEY,
		requested_by    VARCHAR(42) NOT NULL,
		requested_at    BIGINT      NOT NULL,
		resolved        BOOLEAN     NOT NULL,
		resolved_status INTEGER     NOT NULL,
		resolved_at     BIGINT      NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS oracle_responses (
		flight_key   VARCHAR(66) NOT NULL,
		oracle       VARCHAR(42) NOT NULL,
		status_code  INTEGER     NOT NULL,
		submitted_at BIGINT      NOT NULL,
		PRIMARY KEY (flight_key, oracle)
	)`,
	`CREATE TABLE IF NOT EXISTS payouts (
		id             VARCHAR(36) NOT NULL PRIMARY KEY,
		recipient      VARCHAR(42) NOT NULL,
		amount         VARCHAR(80) NOT NULL,
		ticket_part    VARCHAR(80) NOT NULL,
		insurance_part VARCHAR(80) NOT NULL,
		created_at     BIGINT      NOT NULL
	)`,
}

// Migrate creates the ledger tables when they do not exist yet.  It is
// safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i+1, err)
		}
	}
	return nil
}

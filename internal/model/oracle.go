package model

import "time"

// OracleRound collects independent status reports for one flight.  A
// round resolves the first time any status bucket reaches the quorum;
// reports arriving afterwards are kept for audit but change nothing.
type OracleRound struct {
	FlightKey      FlightKey                `json:"flight_key"`
	RequestedBy    Address                  `json:"requested_by"`
	RequestedAt    time.Time                `json:"requested_at"`
	Responses      map[StatusCode][]Address `json:"responses"`
	Resolved       bool                     `json:"resolved"`
	ResolvedStatus StatusCode               `json:"resolved_status"`
	ResolvedAt     *time.Time               `json:"resolved_at,omitempty"`
}

// OracleResponse is a single oracle's report for a flight.
type OracleResponse struct {
	FlightKey   FlightKey  `json:"flight_key"`
	Oracle      Address    `json:"oracle"`
	StatusCode  StatusCode `json:"status_code"`
	SubmittedAt time.Time  `json:"submitted_at"`
}

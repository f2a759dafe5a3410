// Package queue defines the settlement events exchanged over the message
// broker and the background consumer that journals them to logs/surety.log.
package queue

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Exchange is the durable topic exchange every settlement event is
// published to.  Routing keys are "<entity>.<verb>".
const Exchange = "surety.events"

// Routing keys.
const (
	KeyAirlineFunded       = "airline.funded"
	KeyAirlineRegistered   = "airline.registered"
	KeyAirlineVoted        = "airline.voted"
	KeyFlightRegistered    = "flight.registered"
	KeyFlightBooked        = "flight.booked"
	KeyStatusRequested     = "status.requested"
	KeyStatusResolved      = "status.resolved"
	KeyWithdrawalCompleted = "withdrawal.completed"
)

// Event is implemented by every payload below.  RoutingKey selects the
// topic; Summary renders the payload as the key=value tail of a journal
// line.
type Event interface {
	RoutingKey() string
	Summary() string
	Time() string
}

// AirlineFunded is published after every accepted funding call.
type AirlineFunded struct {
	Airline      string          `json:"airline"`
	Amount       decimal.Decimal `json:"amount"`
	FundedAmount decimal.Decimal `json:"funded_amount"`
	Funded       bool            `json:"funded"`
	OccurredAt   string          `json:"occurred_at"`
}

func (AirlineFunded) RoutingKey() string { return KeyAirlineFunded }
func (e AirlineFunded) Time() string     { return e.OccurredAt }
func (e AirlineFunded) Summary() string {
	return fmt.Sprintf("airline=%s | amount=%s wei | total=%s wei | funded=%t",
		e.Airline, e.Amount, e.FundedAmount, e.Funded)
}

// AirlineRegistered is published when a candidate is admitted, directly by
// the founder or by the vote that reached the threshold.
type AirlineRegistered struct {
	Airline      string `json:"airline"`
	RegisteredBy string `json:"registered_by"`
	Votes        int    `json:"votes"`
	OccurredAt   string `json:"occurred_at"`
}

func (AirlineRegistered) RoutingKey() string { return KeyAirlineRegistered }
func (e AirlineRegistered) Time() string     { return e.OccurredAt }
func (e AirlineRegistered) Summary() string {
	return fmt.Sprintf("airline=%s | by=%s | votes=%d", e.Airline, e.RegisteredBy, e.Votes)
}

// AirlineVoted is published for a vote that did not yet admit the
// candidate.
type AirlineVoted struct {
	Candidate  string `json:"candidate"`
	Voter      string `json:"voter"`
	VotesLeft  int    `json:"votes_left"`
	OccurredAt string `json:"occurred_at"`
}

func (AirlineVoted) RoutingKey() string { return KeyAirlineVoted }
func (e AirlineVoted) Time() string     { return e.OccurredAt }
func (e AirlineVoted) Summary() string {
	return fmt.Sprintf("candidate=%s | voter=%s | votes_left=%d", e.Candidate, e.Voter, e.VotesLeft)
}

// FlightRegistered carries enough of the flight for downstream listings
// without querying the ledger.
type FlightRegistered struct {
	FlightKey   string          `json:"flight_key"`
	Airline     string          `json:"airline"`
	FlightRef   string          `json:"flight_ref"`
	Origin      string          `json:"origin"`
	Destination string          `json:"destination"`
	TakeOff     int64           `json:"take_off"`
	Landing     int64           `json:"landing"`
	Price       decimal.Decimal `json:"price"`
	OccurredAt  string          `json:"occurred_at"`
}

func (FlightRegistered) RoutingKey() string { return KeyFlightRegistered }
func (e FlightRegistered) Time() string     { return e.OccurredAt }
func (e FlightRegistered) Summary() string {
	return fmt.Sprintf("flight=%s | ref=%s | %s->%s | airline=%s | price=%s wei",
		e.FlightKey, e.FlightRef, e.Origin, e.Destination, e.Airline, e.Price)
}

type FlightBooked struct {
	FlightKey       string          `json:"flight_key"`
	Passenger       string          `json:"passenger"`
	Price           decimal.Decimal `json:"price"`
	Premium         decimal.Decimal `json:"premium"`
	InsuranceCredit decimal.Decimal `json:"insurance_credit"`
	OccurredAt      string          `json:"occurred_at"`
}

func (FlightBooked) RoutingKey() string { return KeyFlightBooked }
func (e FlightBooked) Time() string     { return e.OccurredAt }
func (e FlightBooked) Summary() string {
	return fmt.Sprintf("flight=%s | passenger=%s | price=%s wei | premium=%s wei | cover=%s wei",
		e.FlightKey, e.Passenger, e.Price, e.Premium, e.InsuranceCredit)
}

// StatusRequested is what oracle relays subscribe to.  It is published for
// every request, including repeats that reuse an open round.
type StatusRequested struct {
	FlightKey   string `json:"flight_key"`
	Airline     string `json:"airline"`
	FlightRef   string `json:"flight_ref"`
	Landing     int64  `json:"landing"`
	RequestedBy string `json:"requested_by"`
	Resolved    bool   `json:"resolved"`
	OccurredAt  string `json:"occurred_at"`
}

func (StatusRequested) RoutingKey() string { return KeyStatusRequested }
func (e StatusRequested) Time() string     { return e.OccurredAt }
func (e StatusRequested) Summary() string {
	return fmt.Sprintf("flight=%s | ref=%s | landing=%d | by=%s | resolved=%t",
		e.FlightKey, e.FlightRef, e.Landing, e.RequestedBy, e.Resolved)
}

type StatusResolved struct {
	FlightKey       string `json:"flight_key"`
	StatusCode      int    `json:"status_code"`
	Status          string `json:"status"`
	Responses       int    `json:"responses"`
	SettledBookings int    `json:"settled_bookings"`
	OccurredAt      string `json:"occurred_at"`
}

func (StatusResolved) RoutingKey() string { return KeyStatusResolved }
func (e StatusResolved) Time() string     { return e.OccurredAt }
func (e StatusResolved) Summary() string {
	return fmt.Sprintf("flight=%s | status=%d (%s) | responses=%d | settled=%d",
		e.FlightKey, e.StatusCode, e.Status, e.Responses, e.SettledBookings)
}

// WithdrawalCompleted tells the wallet layer to execute a payout.
type WithdrawalCompleted struct {
	PayoutID      string          `json:"payout_id"`
	Recipient     string          `json:"recipient"`
	Amount        decimal.Decimal `json:"amount"`
	TicketPart    decimal.Decimal `json:"ticket_part"`
	InsurancePart decimal.Decimal `json:"insurance_part"`
	OccurredAt    string          `json:"occurred_at"`
}

func (WithdrawalCompleted) RoutingKey() string { return KeyWithdrawalCompleted }
func (e WithdrawalCompleted) Time() string     { return e.OccurredAt }
func (e WithdrawalCompleted) Summary() string {
	return fmt.Sprintf("payout=%s | recipient=%s | amount=%s wei | tickets=%s | insurance=%s",
		e.PayoutID, e.Recipient, e.Amount, e.TicketPart, e.InsurancePart)
}

// Decode unmarshals body into the payload type registered for key.
func Decode(key string, body []byte) (Event, error) {
	var ev Event
	switch key {
	case KeyAirlineFunded:
		ev = &AirlineFunded{}
	case KeyAirlineRegistered:
		ev = &AirlineRegistered{}
	case KeyAirlineVoted:
		ev = &AirlineVoted{}
	case KeyFlightRegistered:
		ev = &FlightRegistered{}
	case KeyFlightBooked:
		ev = &FlightBooked{}
	case KeyStatusRequested:
		ev = &StatusRequested{}
	case KeyStatusResolved:
		ev = &StatusResolved{}
	case KeyWithdrawalCompleted:
		ev = &WithdrawalCompleted{}
	default:
		return nil, fmt.Errorf("unknown routing key %q", key)
	}
	if err := json.Unmarshal(body, ev); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return ev, nil
}

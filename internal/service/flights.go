package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/flight-surety/internal/model"
	"github.com/iliyamo/flight-surety/internal/queue"
	"github.com/iliyamo/flight-surety/internal/repository"
)

// FlightService registers flights and sells insured tickets on them.
type FlightService struct{ *core }

// FlightInput describes a flight an airline offers.
type FlightInput struct {
	FlightRef   string
	Origin      string
	Destination string
	TakeOff     int64
	Landing     int64
	Price       decimal.Decimal
}

// BookingInput is a ticket purchase.  The flight is addressed by
// FlightKey when set, otherwise by FlightRef, Destination and Landing.
type BookingInput struct {
	FlightKey   model.FlightKey
	FlightRef   string
	Destination string
	Landing     int64
	Price       decimal.Decimal
	Premium     decimal.Decimal
	Payment     decimal.Decimal
}

func (in BookingInput) key() model.FlightKey {
	if in.FlightKey != "" {
		return in.FlightKey
	}
	return model.FlightKeyOf(strings.TrimSpace(in.FlightRef), strings.TrimSpace(in.Destination), in.Landing)
}

// Column widths of the flights table.
const (
	maxFlightRefLen = 32
	maxAirportLen   = 16
)

func validFlight(in FlightInput) bool {
	switch {
	case in.FlightRef == "" || in.Destination == "":
		return false
	case utf8.RuneCountInString(in.FlightRef) > maxFlightRefLen:
		return false
	case utf8.RuneCountInString(in.Origin) > maxAirportLen || utf8.RuneCountInString(in.Destination) > maxAirportLen:
		return false
	case in.TakeOff < 0 || in.Landing <= in.TakeOff:
		return false
	}
	return model.IsWei(in.Price)
}

// FlightListing is one row of the public flight board.  Index is the
// position in take-off order.
type FlightListing struct {
	Index int `json:"index"`
	model.Flight
	Status string `json:"status"`
}

// FlightKey derives the key a flight is registered under.
func (s *FlightService) FlightKey(flightRef, destination string, landing int64) model.FlightKey {
	return model.FlightKeyOf(flightRef, destination, landing)
}

// RegisterFlight stores a new flight owned by caller with Unknown status.
func (s *FlightService) RegisterFlight(ctx context.Context, caller model.Address, in FlightInput) (*model.Flight, error) {
	var f *model.Flight
	err := s.ledger.Update(ctx, func(tx *sql.Tx) error {
		if _, err := s.requireOperational(ctx, tx); err != nil {
			return err
		}
		if _, err := s.member(ctx, tx, caller, true); err != nil {
			return err
		}
		in.FlightRef = strings.TrimSpace(in.FlightRef)
		in.Origin = strings.TrimSpace(in.Origin)
		in.Destination = strings.TrimSpace(in.Destination)
		if !validFlight(in) {
			return ErrInvalidFlight
		}

		key := model.FlightKeyOf(in.FlightRef, in.Destination, in.Landing)
		exists, err := s.ledger.Flights.Exists(ctx, tx, key)
		if err != nil {
			return fmt.Errorf("check flight: %w", err)
		}
		if exists {
			return ErrDuplicateFlight
		}
		f = &model.Flight{
			Key:          key,
			Airline:      caller,
			FlightRef:    in.FlightRef,
			Origin:       in.Origin,
			Destination:  in.Destination,
			TakeOff:      in.TakeOff,
			Landing:      in.Landing,
			Price:        in.Price,
			StatusCode:   model.StatusUnknown,
			IsRegistered: true,
			CreatedAt:    s.now().UTC(),
		}
		if err := s.ledger.Flights.Insert(ctx, tx, f); err != nil {
			return fmt.Errorf("insert flight: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.FlightRegistered{
		FlightKey:   f.Key.String(),
		Airline:     f.Airline.String(),
		FlightRef:   f.FlightRef,
		Origin:      f.Origin,
		Destination: f.Destination,
		TakeOff:     f.TakeOff,
		Landing:     f.Landing,
		Price:       f.Price,
		OccurredAt:  s.stamp(),
	})
	return f, nil
}

// Book buys one insured ticket.  Payment must equal price plus premium
// exactly; the price is credited to the operating airline and the premium
// buys a cover of floor(premium*3/2) that pays out only on LateAirline.
func (s *FlightService) Book(ctx context.Context, caller model.Address, in BookingInput) (*model.Booking, error) {
	var b *model.Booking
	err := s.ledger.Update(ctx, func(tx *sql.Tx) error {
		if _, err := s.requireOperational(ctx, tx); err != nil {
			return err
		}
		if err := checkIdentity(caller); err != nil {
			return err
		}
		if !model.IsWei(in.Price) || !model.IsWei(in.Premium) || !model.IsWei(in.Payment) {
			return ErrInvalidAmount
		}

		f, err := s.ledger.Flights.Get(ctx, tx, in.key())
		if errors.Is(err, repository.ErrFlightNotFound) {
			return ErrFlightNotFound
		}
		if err != nil {
			return fmt.Errorf("load flight: %w", err)
		}
		if !f.Open() {
			return ErrFlightClosed
		}
		_, err = s.ledger.Bookings.Get(ctx, tx, f.Key, caller)
		switch {
		case err == nil:
			return ErrAlreadyBooked
		case !errors.Is(err, repository.ErrBookingNotFound):
			return fmt.Errorf("load booking: %w", err)
		}
		if !in.Price.Equal(f.Price) {
			return ErrPriceMismatch
		}
		if in.Premium.GreaterThan(s.params.MaxPremium) {
			return ErrPremiumTooHigh
		}
		switch due := f.Price.Add(in.Premium); {
		case in.Payment.LessThan(due):
			return ErrInsufficientPayment
		case in.Payment.GreaterThan(due):
			return ErrOverpayment
		}
		cover := model.PayoutFor(in.Premium)
		if err := s.underwrite(ctx, tx, in.Premium, cover); err != nil {
			return err
		}

		owner, err := s.ledger.Airlines.Get(ctx, tx, f.Airline)
		if err != nil {
			return fmt.Errorf("load flight owner: %w", err)
		}
		owner.TicketCredit = owner.TicketCredit.Add(f.Price)
		if err := s.ledger.Airlines.Update(ctx, tx, owner); err != nil {
			return fmt.Errorf("credit airline: %w", err)
		}

		b = &model.Booking{
			FlightKey:       f.Key,
			Passenger:       caller,
			TicketPrice:     f.Price,
			PremiumPaid:     in.Premium,
			InsuranceCredit: cover,
			CreatedAt:       s.now().UTC(),
		}
		if err := s.ledger.Bookings.Insert(ctx, tx, b); err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		if err := s.ledger.Treasury.Deposit(ctx, tx, in.Payment); err != nil {
			return fmt.Errorf("deposit payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.FlightBooked{
		FlightKey:       b.FlightKey.String(),
		Passenger:       b.Passenger.String(),
		Price:           b.TicketPrice,
		Premium:         b.PremiumPaid,
		InsuranceCredit: b.InsuranceCredit,
		OccurredAt:      s.stamp(),
	})
	return b, nil
}

// underwrite checks that custody, once premium is paid in, still covers
// every credit it may owe plus cover.  The ticket price is left out: it
// enters custody and the airline's credit in equal measure.
func (s *FlightService) underwrite(ctx context.Context, tx *sql.Tx, premium, cover decimal.Decimal) error {
	t, err := s.ledger.Treasury.Get(ctx, tx)
	if err != nil {
		return fmt.Errorf("load treasury: %w", err)
	}
	owed, err := s.ledger.Airlines.TotalTicketCredit(ctx, tx)
	if err != nil {
		return fmt.Errorf("sum ticket credit: %w", err)
	}
	claims, err := s.ledger.Bookings.OutstandingCover(ctx, tx)
	if err != nil {
		return fmt.Errorf("sum outstanding cover: %w", err)
	}
	if t.Balance.Add(premium).LessThan(owed.Add(claims).Add(cover)) {
		return ErrCoverUnavailable
	}
	return nil
}

// Flight returns the flight registered under key.
func (s *FlightService) Flight(ctx context.Context, key model.FlightKey) (*model.Flight, error) {
	f, err := s.ledger.Flights.Get(ctx, s.db(), key)
	if errors.Is(err, repository.ErrFlightNotFound) {
		return nil, ErrFlightNotFound
	}
	return f, err
}

// ListFlights returns the flight board.  With openOnly set, flights whose
// status is already known are left out but keep their index.
func (s *FlightService) ListFlights(ctx context.Context, openOnly bool) ([]FlightListing, error) {
	flights, err := s.ledger.Flights.List(ctx, s.db())
	if err != nil {
		return nil, err
	}
	out := make([]FlightListing, 0, len(flights))
	for i, f := range flights {
		if openOnly && !f.Open() {
			continue
		}
		out = append(out, FlightListing{Index: i, Flight: f, Status: f.StatusCode.String()})
	}
	return out, nil
}

// PassengerBookings returns every booking held by passenger.
func (s *FlightService) PassengerBookings(ctx context.Context, passenger model.Address) ([]model.Booking, error) {
	return s.ledger.Bookings.ListByPassenger(ctx, s.db(), passenger)
}

// FlightPage is one page of search results.
type FlightPage struct {
	Flights  []model.Flight `json:"flights"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// SearchFlights filters the board.  The "upcoming" window is measured
// against the engine clock.  PageSize is capped at 100.
func (s *FlightService) SearchFlights(ctx context.Context, q repository.FlightSearchQuery) (*FlightPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 20
	}
	if q.PageSize > 100 {
		q.PageSize = 100
	}
	q.Now = s.now().Unix()
	flights, total, err := s.ledger.Flights.Search(ctx, s.db(), q)
	if err != nil {
		return nil, err
	}
	return &FlightPage{Flights: flights, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}

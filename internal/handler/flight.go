package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/flight-surety/internal/model"
	"github.com/iliyamo/flight-surety/internal/repository"
	"github.com/iliyamo/flight-surety/internal/service"
)

// FlightHandler serves flight registration, the flight board and ticket
// sales.
type FlightHandler struct {
	Flights *service.FlightService
}

func NewFlightHandler(flights *service.FlightService) *FlightHandler {
	if flights == nil {
		panic("nil flight service passed to NewFlightHandler")
	}
	return &FlightHandler{Flights: flights}
}

type registerFlightRequest struct {
	FlightRef   string          `json:"flight_ref"`
	Origin      string          `json:"origin"`
	Destination string          `json:"destination"`
	TakeOff     int64           `json:"take_off"`
	Landing     int64           `json:"landing"`
	Price       decimal.Decimal `json:"price"`
}

// Register handles POST /v1/flights.
func (h *FlightHandler) Register(c echo.Context) error {
	who, ok := caller(c)
	if !ok {
		return unauthenticated(c)
	}
	var req registerFlightRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	f, err := h.Flights.RegisterFlight(c.Request().Context(), who, service.FlightInput{
		FlightRef:   strings.TrimSpace(req.FlightRef),
		Origin:      strings.TrimSpace(req.Origin),
		Destination: strings.TrimSpace(req.Destination),
		TakeOff:     req.TakeOff,
		Landing:     req.Landing,
		Price:       req.Price,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, f)
}

// List handles GET /v1/flights.  ?open=true hides resolved flights.
func (h *FlightHandler) List(c echo.Context) error {
	openOnly := false
	if v := c.QueryParam("open"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return badRequest(c, "open must be a boolean")
		}
		openOnly = b
	}
	list, err := h.Flights.ListFlights(c.Request().Context(), openOnly)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"flights": list})
}

// Search handles GET /v1/flights/search.  Query parameters: flight_ref,
// origin, destination, airline, time (upcoming|open|any), page,
// page_size.
func (h *FlightHandler) Search(c echo.Context) error {
	q := repository.FlightSearchQuery{
		FlightRef:   strings.TrimSpace(c.QueryParam("flight_ref")),
		Origin:      strings.TrimSpace(c.QueryParam("origin")),
		Destination: strings.TrimSpace(c.QueryParam("destination")),
		TimeFilter:  c.QueryParam("time"),
	}
	switch tf := strings.ToLower(q.TimeFilter); tf {
	case "", "upcoming", "open", "any":
	default:
		return badRequest(c, "time must be upcoming, open or any")
	}
	if v := c.QueryParam("airline"); v != "" {
		a, err := model.ParseAddress(v)
		if err != nil {
			return badRequest(c, "invalid airline address")
		}
		q.Airline = a
	}
	var err error
	if q.Page, err = intQuery(c, "page", 1); err != nil {
		return badRequest(c, "page must be a positive integer")
	}
	if q.PageSize, err = intQuery(c, "page_size", 20); err != nil {
		return badRequest(c, "page_size must be a positive integer")
	}
	page, err := h.Flights.SearchFlights(c.Request().Context(), q)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func intQuery(c echo.Context, name string, def int) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}

// Key handles GET /v1/flights/key?flight_ref=&destination=&landing=.
func (h *FlightHandler) Key(c echo.Context) error {
	ref := c.QueryParam("flight_ref")
	dest := c.QueryParam("destination")
	landing, err := strconv.ParseInt(c.QueryParam("landing"), 10, 64)
	if err != nil || landing < 0 {
		return badRequest(c, "landing must be a unix timestamp")
	}
	if ref == "" || dest == "" {
		return badRequest(c, "flight_ref and destination are required")
	}
	return c.JSON(http.StatusOK, echo.Map{"flight_key": h.Flights.FlightKey(ref, dest, landing)})
}

// Get handles GET /v1/flights/:key.
func (h *FlightHandler) Get(c echo.Context) error {
	key, ok := keyParam(c)
	if !ok {
		return badRequest(c, "invalid flight key")
	}
	f, err := h.Flights.Flight(c.Request().Context(), key)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, f)
}

type bookRequest struct {
	FlightKey   string          `json:"flight_key"`
	FlightRef   string          `json:"flight_ref"`
	Destination string          `json:"destination"`
	Landing     int64           `json:"landing"`
	Price       decimal.Decimal `json:"price"`
	Premium     decimal.Decimal `json:"premium"`
	Payment     decimal.Decimal `json:"payment"`
}

// Book handles POST /v1/bookings.  The flight is named either by
// flight_key or by flight_ref, destination and landing.
func (h *FlightHandler) Book(c echo.Context) error {
	who, ok := caller(c)
	if !ok {
		return unauthenticated(c)
	}
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	in := service.BookingInput{
		FlightRef:   req.FlightRef,
		Destination: req.Destination,
		Landing:     req.Landing,
		Price:       req.Price,
		Premium:     req.Premium,
		Payment:     req.Payment,
	}
	if req.FlightKey != "" {
		k, err := model.ParseFlightKey(req.FlightKey)
		if err != nil {
			return badRequest(c, "invalid flight key")
		}
		in.FlightKey = k
	} else if strings.TrimSpace(req.FlightRef) == "" || strings.TrimSpace(req.Destination) == "" || req.Landing < 0 {
		return badRequest(c, "flight_key or flight_ref, destination and landing are required")
	}
	b, err := h.Flights.Book(c.Request().Context(), who, in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// MyBookings handles GET /v1/my-bookings.
func (h *FlightHandler) MyBookings(c echo.Context) error {
	who, ok := caller(c)
	if !ok {
		return unauthenticated(c)
	}
	list, err := h.Flights.PassengerBookings(c.Request().Context(), who)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": list})
}

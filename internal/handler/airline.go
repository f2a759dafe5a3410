package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/flight-surety/internal/model"
	"github.com/iliyamo/flight-surety/internal/service"
)

// AirlineHandler serves funding, registration and voting.
type AirlineHandler struct {
	Airlines *service.AirlineService
}

func NewAirlineHandler(airlines *service.AirlineService) *AirlineHandler {
	if airlines == nil {
		panic("nil airline service passed to NewAirlineHandler")
	}
	return &AirlineHandler{Airlines: airlines}
}

// Fund handles POST /v1/airlines/fund with {"amount": "<wei>"}.
func (h *AirlineHandler) Fund(c echo.Context) error {
	who, ok := caller(c)
	if !ok {
		return unauthenticated(c)
	}
	var body struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "amount must be an integer number of wei")
	}
	a, err := h.Airlines.Fund(c.Request().Context(), who, body.Amount)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

// Register handles POST /v1/airlines with {"address": "0x..."}.  It
// answers 201 when the candidate is registered and 202 when the call only
// recorded a vote.
func (h *AirlineHandler) Register(c echo.Context) error {
	who, ok := caller(c)
	if !ok {
		return unauthenticated(c)
	}
	var body struct {
		Address string `json:"address"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	candidate, err := model.ParseAddress(body.Address)
	if err != nil {
		return badRequest(c, "address must be a 0x-prefixed 20-byte hex string")
	}
	res, err := h.Airlines.RegisterAirline(c.Request().Context(), who, candidate)
	if err != nil {
		return fail(c, err)
	}
	status := http.StatusAccepted
	if res.Registered {
		status = http.StatusCreated
	}
	return c.JSON(status, res)
}

// List handles GET /v1/airlines.
func (h *AirlineHandler) List(c echo.Context) error {
	list, err := h.Airlines.Airlines(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"airlines": list})
}

// Get handles GET /v1/airlines/:address.
func (h *AirlineHandler) Get(c echo.Context) error {
	addr, ok := addressParam(c, "address")
	if !ok {
		return badRequest(c, "invalid address")
	}
	view, err := h.Airlines.Airline(c.Request().Context(), addr)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// VotesLeft handles GET /v1/airlines/:address/votes-left.
func (h *AirlineHandler) VotesLeft(c echo.Context) error {
	addr, ok := addressParam(c, "address")
	if !ok {
		return badRequest(c, "invalid address")
	}
	left, err := h.Airlines.VotesLeft(c.Request().Context(), addr)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"address": addr, "votes_left": left})
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/flight-surety/internal/model"
	"github.com/iliyamo/flight-surety/internal/service"
)

// OracleHandler opens status rounds and takes oracle reports.
type OracleHandler struct {
	Oracles *service.OracleService
}

func NewOracleHandler(oracles *service.OracleService) *OracleHandler {
	if oracles == nil {
		panic("nil oracle service passed to NewOracleHandler")
	}
	return &OracleHandler{Oracles: oracles}
}

// RequestStatus handles POST /v1/flights/:key/status-requests.
func (h *OracleHandler) RequestStatus(c echo.Context) error {
	who, ok := caller(c)
	if !ok {
		return unauthenticated(c)
	}
	key, ok := keyParam(c)
	if !ok {
		return badRequest(c, "invalid flight key")
	}
	round, err := h.Oracles.RequestStatus(c.Request().Context(), who, key)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusAccepted, round)
}

// Round handles GET /v1/flights/:key/round.
func (h *OracleHandler) Round(c echo.Context) error {
	key, ok := keyParam(c)
	if !ok {
		return badRequest(c, "invalid flight key")
	}
	round, err := h.Oracles.Round(c.Request().Context(), key)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, round)
}

// Submit handles POST /v1/oracle/responses with
// {"flight_key": "0x...", "status_code": 20}.
func (h *OracleHandler) Submit(c echo.Context) error {
	who, ok := caller(c)
	if !ok {
		return unauthenticated(c)
	}
	var body struct {
		FlightKey  string `json:"flight_key"`
		StatusCode *int   `json:"status_code"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	key, err := model.ParseFlightKey(body.FlightKey)
	if err != nil {
		return badRequest(c, "invalid flight key")
	}
	if body.StatusCode == nil {
		return badRequest(c, "status_code is required")
	}
	sub, err := h.Oracles.SubmitStatus(c.Request().Context(), who, key, model.StatusCode(*body.StatusCode))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, sub)
}

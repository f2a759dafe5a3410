package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/flight-surety/internal/model"
	"github.com/iliyamo/flight-surety/internal/service"
)

// GateHandler serves the operational switch and the oracle allow-list.
type GateHandler struct {
	Gate *service.GateService
}

func NewGateHandler(gate *service.GateService) *GateHandler {
	if gate == nil {
		panic("nil gate service passed to NewGateHandler")
	}
	return &GateHandler{Gate: gate}
}

// Status handles GET /v1/status.
func (h *GateHandler) Status(c echo.Context) error {
	st, err := h.Gate.State(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// SetOperational handles PUT /v1/admin/operational with
// {"operational": bool}.
func (h *GateHandler) SetOperational(c echo.Context) error {
	who, ok := caller(c)
	if !ok {
		return unauthenticated(c)
	}
	var body struct {
		Operational *bool `json:"operational"`
	}
	if err := c.Bind(&body); err != nil || body.Operational == nil {
		return badRequest(c, "operational (bool) is required")
	}
	if err := h.Gate.SetOperational(c.Request().Context(), who, *body.Operational); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"is_operational": *body.Operational})
}

// AuthorizeCaller handles POST /v1/admin/authorized-callers with
// {"address": "0x..."}.
func (h *GateHandler) AuthorizeCaller(c echo.Context) error {
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
	addr, err := model.ParseAddress(body.Address)
	if err != nil {
		return badRequest(c, "address must be a 0x-prefixed 20-byte hex string")
	}
	if err := h.Gate.AuthorizeCaller(c.Request().Context(), who, addr); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"address": addr, "authorized": true})
}

// DeauthorizeCaller handles DELETE /v1/admin/authorized-callers/:address.
func (h *GateHandler) DeauthorizeCaller(c echo.Context) error {
	who, ok := caller(c)
	if !ok {
		return unauthenticated(c)
	}
	addr, ok := addressParam(c, "address")
	if !ok {
		return badRequest(c, "invalid address")
	}
	removed, err := h.Gate.DeauthorizeCaller(c.Request().Context(), who, addr)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"address": addr, "removed": removed})
}

// ListAuthorized handles GET /v1/admin/authorized-callers.
func (h *GateHandler) ListAuthorized(c echo.Context) error {
	list, err := h.Gate.AuthorizedCallers(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"authorized_callers": list})
}

// IsAuthorized handles GET /v1/authorized-callers/:address.
func (h *GateHandler) IsAuthorized(c echo.Context) error {
	addr, ok := addressParam(c, "address")
	if !ok {
		return badRequest(c, "invalid address")
	}
	authorized, err := h.Gate.IsAuthorized(c.Request().Context(), addr)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"address": addr, "authorized": authorized})
}

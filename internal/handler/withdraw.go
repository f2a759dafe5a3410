package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/flight-surety/internal/service"
)

// WithdrawalHandler serves credits and payouts.
type WithdrawalHandler struct {
	Withdrawals *service.WithdrawalService
}

func NewWithdrawalHandler(w *service.WithdrawalService) *WithdrawalHandler {
	if w == nil {
		panic("nil withdrawal service passed to NewWithdrawalHandler")
	}
	return &WithdrawalHandler{Withdrawals: w}
}

// Withdraw handles POST /v1/withdrawals.
func (h *WithdrawalHandler) Withdraw(c echo.Context) error {
	who, ok := caller(c)
	if !ok {
		return unauthenticated(c)
	}
	p, err := h.Withdrawals.Withdraw(c.Request().Context(), who)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Credits handles GET /v1/credits.
func (h *WithdrawalHandler) Credits(c echo.Context) error {
	who, ok := caller(c)
	if !ok {
		return unauthenticated(c)
	}
	cr, err := h.Withdrawals.Credits(c.Request().Context(), who)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"address":             cr.Address,
		"ticket_credit":       cr.TicketCredit,
		"claimable_insurance": cr.ClaimableCredit,
		"pending_insurance":   cr.PendingInsurance,
		"withdrawable":        cr.Withdrawable(),
	})
}

// Payouts handles GET /v1/payouts.
func (h *WithdrawalHandler) Payouts(c echo.Context) error {
	who, ok := caller(c)
	if !ok {
		return unauthenticated(c)
	}
	list, err := h.Withdrawals.Payouts(c.Request().Context(), who)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"payouts": list})
}

// Treasury handles GET /v1/admin/treasury.
func (h *WithdrawalHandler) Treasury(c echo.Context) error {
	t, err := h.Withdrawals.Treasury(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

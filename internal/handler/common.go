// Package handler exposes the settlement engines over HTTP.  Handlers
// parse and validate input, call one engine method and translate engine
// errors into status codes; they hold no state of their own.
package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/flight-surety/internal/middleware"
	"github.com/iliyamo/flight-surety/internal/model"
	"github.com/iliyamo/flight-surety/internal/repository"
	"github.com/iliyamo/flight-surety/internal/service"
)

// errorKinds maps engine errors to a status code and a stable error code
// clients can switch on.
var errorKinds = []struct {
	err    error
	status int
	code   string
}{
	{service.ErrContractPaused, http.StatusServiceUnavailable, "contract_paused"},
	{service.ErrUnauthorized, http.StatusForbidden, "unauthorized"},
	{service.ErrCallerMustBeRegistered, http.StatusForbidden, "caller_must_be_registered"},
	{service.ErrCallerMustBeFunded, http.StatusForbidden, "caller_must_be_funded"},
	{service.ErrVotingNotYetActive, http.StatusConflict, "voting_not_yet_active"},
	{service.ErrDuplicateVote, http.StatusConflict, "duplicate_vote"},
	{service.ErrAlreadyRegistered, http.StatusConflict, "already_registered"},
	{service.ErrAlreadyFunded, http.StatusConflict, "already_funded"},
	{service.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{service.ErrInvalidIdentity, http.StatusBadRequest, "invalid_identity"},
	{service.ErrAirlineNotFound, http.StatusNotFound, "airline_not_found"},
	{service.ErrInvalidFlight, http.StatusBadRequest, "invalid_flight"},
	{service.ErrDuplicateFlight, http.StatusConflict, "duplicate_flight"},
	{service.ErrFlightNotFound, http.StatusNotFound, "flight_not_found"},
	{service.ErrFlightClosed, http.StatusConflict, "flight_closed"},
	{service.ErrAlreadyBooked, http.StatusConflict, "already_booked"},
	{service.ErrPriceMismatch, http.StatusBadRequest, "price_mismatch"},
	{service.ErrPremiumTooHigh, http.StatusBadRequest, "premium_too_high"},
	{service.ErrInsufficientPayment, http.StatusPaymentRequired, "insufficient_payment"},
	{service.ErrOverpayment, http.StatusBadRequest, "overpayment"},
	{service.ErrCoverUnavailable, http.StatusConflict, "cover_unavailable"},
	{service.ErrInvalidStatus, http.StatusBadRequest, "invalid_status"},
	{service.ErrNoOpenRequest, http.StatusNotFound, "no_open_request"},
	{service.ErrDuplicateSubmission, http.StatusConflict, "duplicate_submission"},
	{service.ErrNothingToWithdraw, http.StatusConflict, "nothing_to_withdraw"},
	{repository.ErrStaleCredit, http.StatusConflict, "stale_credit"},
	{repository.ErrInsufficientCustody, http.StatusServiceUnavailable, "insufficient_custody"},
}

// fail writes the JSON error body for err.  Unknown errors are logged and
// reported as 500 without detail.
func fail(c echo.Context, err error) error {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return c.JSON(k.status, echo.Map{"error": k.code, "message": k.err.Error()})
		}
	}
	log.Printf("handler: %s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "internal error"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad_request", "message": msg})
}

// caller returns the authenticated identity set by JWTAuth.
func caller(c echo.Context) (model.Address, bool) {
	return middleware.Identity(c)
}

func unauthenticated(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "missing identity"})
}

func addressParam(c echo.Context, name string) (model.Address, bool) {
	a, err := model.ParseAddress(c.Param(name))
	return a, err == nil
}

func keyParam(c echo.Context) (model.FlightKey, bool) {
	k, err := model.ParseFlightKey(c.Param("key"))
	return k, err == nil
}

package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/flight-surety/internal/model"
)

// Context keys set by JWTAuth.
const (
	ctxIdentity = "identity"
	ctxRole     = "role"
)

// Identity returns the authenticated caller's address.
func Identity(c echo.Context) (model.Address, bool) {
	a, ok := c.Get(ctxIdentity).(model.Address)
	return a, ok && a != ""
}

// Role returns the role claim of the authenticated caller, or "".
func Role(c echo.Context) string {
	r, _ := c.Get(ctxRole).(string)
	return r
}

// callerKey names the caller in rate-limit keys; unauthenticated requests
// share "anon".
func callerKey(c echo.Context) string {
	if a, ok := Identity(c); ok {
		return a.String()
	}
	return "anon"
}

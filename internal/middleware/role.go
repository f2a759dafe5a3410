package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Roles carried in the token's "role" claim.
const (
	RoleOwner     = "OWNER"
	RoleAirline   = "AIRLINE"
	RolePassenger = "PASSENGER"
	RoleOracle    = "ORACLE"
)

// RequireRole rejects callers whose role claim is not one of roles with
// 403.  It must run after JWTAuth.  The engines still authorize by
// identity; this only keeps routes to their intended audience.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !allowed[Role(c)] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

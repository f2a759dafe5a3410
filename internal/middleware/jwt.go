package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/flight-surety/internal/model"
)

// JWTAuth validates an HS256 Bearer token and stores the caller's address
// (the "sub" claim) and role in the context.  Handlers read them back with
// Identity and Role.  A token whose subject is not an address is rejected.
func JWTAuth(secret string) echo.MiddlewareFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims := jwt.MapClaims{}
			tok, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			sub, err := claims.GetSubject()
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}
			addr, err := model.ParseAddress(sub)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "subject is not an address"})
			}
			role, _ := claims["role"].(string)

			c.Set(ctxIdentity, addr)
			c.Set(ctxRole, role)
			return next(c)
		}
	}
}

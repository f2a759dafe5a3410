// Package utils holds token helpers shared by the server and the token
// minting tool.
package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/flight-surety/internal/model"
)

// AccessToken is a signed JWT and its expiry.
type AccessToken struct {
	Token string    `json:"token"`
	Exp   time.Time `json:"expires_at"`
}

// NewAccessToken signs an HS256 token whose subject is addr.  The wallet
// layer mints tokens in production; this is used by the development CLI
// and by tests.
func NewAccessToken(secret string, addr model.Address, role string, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":  addr.String(),
		"role": role,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/flight-surety/internal/database"
	"github.com/iliyamo/flight-surety/internal/middleware"
	"github.com/iliyamo/flight-surety/internal/model"
	"github.com/iliyamo/flight-surety/internal/repository"
	"github.com/iliyamo/flight-surety/internal/service"
	"github.com/iliyamo/flight-surety/internal/utils"
)

const secret = "router-test-secret"

func addr(n int) model.Address { return model.Address(fmt.Sprintf("0x%040x", n)) }

var (
	owner     = addr(0xff)
	founder   = addr(1)
	passenger = addr(0x50)
)

type api struct {
	t *testing.T
	e *echo.Echo
}

func newAPI(t *testing.T) *api {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "surety.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, database.Migrate(ctx, db))
	ledger := repository.NewLedger(db, nil)
	require.NoError(t, ledger.Bootstrap(ctx, owner, founder, time.Now()))

	e := echo.New()
	Register(e, NewHandlers(service.New(ledger, service.DefaultParams(), nil)), Options{JWTSecret: secret})
	return &api{t: t, e: e}
}

func (a *api) token(who model.Address, role string) string {
	tok, err := utils.NewAccessToken(secret, who, role, 5)
	require.NoError(a.t, err)
	return tok.Token
}

// call sends body as JSON with who's token (no token when who is empty)
// and decodes the response into a map.
func (a *api) call(method, path string, who model.Address, role string, body any) (int, map[string]any) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if who != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+a.token(who, role))
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func wei(d interface{ String() string }) string { return d.String() }

func TestHealth(t *testing.T) {
	a := newAPI(t)
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestDelayedFlightEndToEnd(t *testing.T) {
	a := newAPI(t)
	price := model.Milliether(500)
	premium := model.Ether(1)

	code, _ := a.call(http.MethodPost, "/v1/airlines/fund", founder, middleware.RoleAirline,
		map[string]string{"amount": wei(model.Ether(10))})
	require.Equal(t, http.StatusOK, code)

	code, body := a.call(http.MethodPost, "/v1/airlines", founder, middleware.RoleAirline,
		map[string]string{"address": addr(2).String()})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, true, body["registered"])

	code, body = a.call(http.MethodPost, "/v1/flights", founder, middleware.RoleAirline, map[string]any{
		"flight_ref":  "ND1309",
		"origin":      "AMS",
		"destination": "LIS",
		"take_off":    1700000000,
		"landing":     1700010000,
		"price":       wei(price),
	})
	require.Equal(t, http.StatusCreated, code)
	key := model.FlightKeyOf("ND1309", "LIS", 1700010000).String()
	assert.Equal(t, key, body["key"])

	code, body = a.call(http.MethodGet, "/v1/flights/key?flight_ref=ND1309&destination=LIS&landing=1700010000", "", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, key, body["flight_key"])

	code, body = a.call(http.MethodPost, "/v1/bookings", passenger, middleware.RolePassenger, map[string]string{
		"flight_key": key,
		"price":      wei(price),
		"premium":    wei(premium),
		"payment":    wei(price.Add(premium).Add(model.Milliether(1))),
	})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "overpayment", body["error"])

	code, _ = a.call(http.MethodPost, "/v1/bookings", passenger, middleware.RolePassenger, map[string]string{
		"flight_key": key,
		"price":      wei(price),
		"premium":    wei(premium),
		"payment":    wei(price.Add(premium)),
	})
	require.Equal(t, http.StatusCreated, code)

	code, body = a.call(http.MethodGet, "/v1/my-bookings", passenger, middleware.RolePassenger, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["bookings"], 1)

	oracles := []model.Address{addr(0x100), addr(0x101), addr(0x102)}
	for _, o := range oracles {
		code, _ = a.call(http.MethodPost, "/v1/admin/authorized-callers", owner, middleware.RoleOwner,
			map[string]string{"address": o.String()})
		require.Equal(t, http.StatusCreated, code)
	}

	code, body = a.call(http.MethodPost, "/v1/flights/"+key+"/status-requests", passenger, middleware.RolePassenger, nil)
	require.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, key, body["flight_key"])

	report := map[string]any{"flight_key": key, "status_code": int(model.StatusLateAirline)}
	code, _ = a.call(http.MethodPost, "/v1/oracle/responses", oracles[0], middleware.RolePassenger, report)
	assert.Equal(t, http.StatusForbidden, code, "route is for oracle tokens only")

	for i, o := range oracles {
		code, body = a.call(http.MethodPost, "/v1/oracle/responses", o, middleware.RoleOracle, report)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, i == len(oracles)-1, body["resolved"])
	}

	code, body = a.call(http.MethodGet, "/v1/credits", passenger, middleware.RolePassenger, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, wei(model.Milliether(1500)), body["withdrawable"])

	code, body = a.call(http.MethodPost, "/v1/withdrawals", passenger, middleware.RolePassenger, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, wei(model.Milliether(1500)), body["amount"])

	code, body = a.call(http.MethodPost, "/v1/withdrawals", passenger, middleware.RolePassenger, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "nothing_to_withdraw", body["error"])

	code, body = a.call(http.MethodPost, "/v1/withdrawals", founder, middleware.RoleAirline, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, wei(price), body["amount"])
}

func TestAuthAndAdminGuards(t *testing.T) {
	a := newAPI(t)

	code, _ := a.call(http.MethodPost, "/v1/withdrawals", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = a.call(http.MethodPut, "/v1/admin/operational", founder, middleware.RoleAirline,
		map[string]bool{"operational": false})
	assert.Equal(t, http.StatusForbidden, code)

	// A forged owner role still fails the identity check in the engine.
	code, body := a.call(http.MethodPut, "/v1/admin/operational", founder, middleware.RoleOwner,
		map[string]bool{"operational": false})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "unauthorized", body["error"])

	code, _ = a.call(http.MethodPut, "/v1/admin/operational", owner, middleware.RoleOwner, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.call(http.MethodPut, "/v1/admin/operational", owner, middleware.RoleOwner,
		map[string]bool{"operational": false})
	require.Equal(t, http.StatusOK, code)

	code, body = a.call(http.MethodGet, "/v1/status", "", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["is_operational"])

	code, body = a.call(http.MethodPost, "/v1/airlines/fund", founder, middleware.RoleAirline,
		map[string]string{"amount": wei(model.Ether(10))})
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "contract_paused", body["error"])
}

func TestPublicViews(t *testing.T) {
	a := newAPI(t)

	code, body := a.call(http.MethodGet, "/v1/airlines/"+founder.String(), "", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["registered"])
	assert.Equal(t, false, body["funded"])

	code, _ = a.call(http.MethodGet, "/v1/airlines/not-an-address", "", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = a.call(http.MethodGet, "/v1/airlines/"+addr(9).String(), "", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "airline_not_found", body["error"])

	code, body = a.call(http.MethodGet, "/v1/flights", "", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["flights"])

	code, _ = a.call(http.MethodGet, "/v1/flights/key?flight_ref=ND1309&destination=LIS&landing=-1", "", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	missing := model.FlightKeyOf("XX1", "NOW", 1).String()
	code, body = a.call(http.MethodGet, "/v1/flights/"+missing, "", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "flight_not_found", body["error"])

	code, body = a.call(http.MethodGet, "/v1/authorized-callers/"+addr(0x100).String(), "", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["authorized"])
}

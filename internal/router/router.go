// Package router wires the HTTP surface: which handler serves which path
// and which middleware guards it.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/flight-surety/internal/config"
	"github.com/iliyamo/flight-surety/internal/handler"
	"github.com/iliyamo/flight-surety/internal/middleware"
	"github.com/iliyamo/flight-surety/internal/service"
)

// Handlers bundles one handler per engine.
type Handlers struct {
	Gate        *handler.GateHandler
	Airlines    *handler.AirlineHandler
	Flights     *handler.FlightHandler
	Oracles     *handler.OracleHandler
	Withdrawals *handler.WithdrawalHandler
}

// NewHandlers builds the handler set for s.
func NewHandlers(s *service.Surety) *Handlers {
	return &Handlers{
		Gate:        handler.NewGateHandler(s.Gate),
		Airlines:    handler.NewAirlineHandler(s.Airlines),
		Flights:     handler.NewFlightHandler(s.Flights),
		Oracles:     handler.NewOracleHandler(s.Oracles),
		Withdrawals: handler.NewWithdrawalHandler(s.Withdrawals),
	}
}

// Options carries what the middleware needs.  A nil Redis client turns
// caching and rate limiting into pass-throughs.
type Options struct {
	JWTSecret string
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
}

// RegisterRoutes registers unauthenticated routes.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the read-only views.  They need no token.
func RegisterPublic(e *echo.Echo, h *Handlers, opt Options) {
	g := e.Group("/v1", middleware.NewTokenBucket(opt.RateLimit, opt.Redis))

	g.GET("/status", h.Gate.Status)
	g.GET("/authorized-callers/:address", h.Gate.IsAuthorized)

	g.GET("/airlines", h.Airlines.List)
	g.GET("/airlines/:address", h.Airlines.Get)
	g.GET("/airlines/:address/votes-left", h.Airlines.VotesLeft)

	// The board is the hot read path; entries are purged when a flight is
	// registered or resolved.
	g.GET("/flights", h.Flights.List, middleware.NewRedisCache(opt.Cache, opt.Redis))
	g.GET("/flights/search", h.Flights.Search)
	g.GET("/flights/key", h.Flights.Key)
	g.GET("/flights/:key", h.Flights.Get)
	g.GET("/flights/:key/round", h.Oracles.Round)
}

// RegisterAuthenticated registers every state-changing route and the
// caller-scoped views.  All of them run JWTAuth first.
func RegisterAuthenticated(e *echo.Echo, h *Handlers, opt Options) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(opt.JWTSecret),
		middleware.NewTokenBucket(opt.RateLimit, opt.Redis),
	)

	// ---- Airlines ----
	g.POST("/airlines/fund", h.Airlines.Fund)
	g.POST("/airlines", h.Airlines.Register)
	g.POST("/flights", h.Flights.Register)

	// ---- Passengers ----
	g.POST("/bookings", h.Flights.Book)
	g.GET("/my-bookings", h.Flights.MyBookings)
	g.POST("/withdrawals", h.Withdrawals.Withdraw)
	g.GET("/credits", h.Withdrawals.Credits)
	g.GET("/payouts", h.Withdrawals.Payouts)

	// ---- Oracles ----
	g.POST("/flights/:key/status-requests", h.Oracles.RequestStatus)
	g.POST("/oracle/responses", h.Oracles.Submit, middleware.RequireRole(middleware.RoleOracle))
}

// RegisterAdmin registers owner-only routes.  The engines check the owner
// identity again; the role gate keeps other tokens out early.
func RegisterAdmin(e *echo.Echo, h *Handlers, opt Options) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(opt.JWTSecret),
		middleware.RequireRole(middleware.RoleOwner),
	)
	g.PUT("/operational", h.Gate.SetOperational)
	g.GET("/authorized-callers", h.Gate.ListAuthorized)
	g.POST("/authorized-callers", h.Gate.AuthorizeCaller)
	g.DELETE("/authorized-callers/:address", h.Gate.DeauthorizeCaller)
	g.GET("/treasury", h.Withdrawals.Treasury)
}

// Register installs every route group on e.
func Register(e *echo.Echo, h *Handlers, opt Options) {
	RegisterRoutes(e)
	RegisterPublic(e, h, opt)
	RegisterAuthenticated(e, h, opt)
	RegisterAdmin(e, h, opt)
}

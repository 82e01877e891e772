// Package router registers the HTTP routes of the reservation API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/studio-slot-reservation/internal/config"
	"github.com/iliyamo/studio-slot-reservation/internal/handler"
	"github.com/iliyamo/studio-slot-reservation/internal/middleware"
)

// Limits holds the rate limiters applied per route group.  Public runs on
// routes without a token and must not key on the member.  Member runs
// after JWTAuth, so user-keyed strategies see the caller.  Nil entries
// disable limiting for that group.
type Limits struct {
	Public echo.MiddlewareFunc
	Member echo.MiddlewareFunc
}

// NewLimits builds both limiters from one configuration.  The public
// limiter keys on the client address only; the member limiter uses the
// configured strategy.  rdb may be nil.
func NewLimits(cfg config.RateLimitConfig, rdb *redis.Client, logger *zap.Logger) Limits {
	return Limits{
		Public: middleware.NewRateLimiter(cfg.WithoutUser(), rdb, logger),
		Member: middleware.NewRateLimiter(cfg, rdb, logger),
	}
}

func chain(mw ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(mw))
	for _, m := range mw {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// RegisterAPI registers every route of the service.
func RegisterAPI(e *echo.Echo, bh *handler.BookingHandler, ah *handler.AuthHandler, jwtSecret string, limits Limits) {
	RegisterRoutes(e)
	RegisterAuth(e, ah, jwtSecret, limits)
	RegisterMember(e, bh, jwtSecret, limits)
	RegisterAdmin(e, bh, ah, jwtSecret, limits)
}

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers login under /v1/auth and the token-protected
// /v1/me and logout endpoints.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limits Limits) {
	e.POST("/v1/auth/login", a.Login, chain(limits.Public)...)

	g := e.Group("/v1", chain(middleware.JWTAuth(jwtSecret), limits.Member)...)
	g.GET("/me", a.Me)
	g.POST("/auth/logout", a.Logout)
}

// RegisterMember registers the member-facing booking endpoints.  All
// routes require a valid access token.
func RegisterMember(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, limits Limits) {
	g := e.Group("/v1", chain(middleware.JWTAuth(jwtSecret), limits.Member)...)

	g.GET("/venues", h.Venues)
	g.GET("/calendar", h.Calendar)
	g.GET("/availability", h.Availability)
	g.POST("/reservations", h.Reserve)
	g.POST("/reservations/cancel", h.Cancel)
	g.GET("/activity", h.Activity)
}

// RegisterAdmin registers administrator endpoints under /v1/admin.
func RegisterAdmin(e *echo.Echo, h *handler.BookingHandler, a *handler.AuthHandler, jwtSecret string, limits Limits) {
	g := e.Group("/v1/admin", chain(
		middleware.JWTAuth(jwtSecret),
		limits.Member,
		middleware.RequireAdmin(),
	)...)
	g.POST("/bulk-block", h.BulkBlock)
	g.GET("/members", a.Members)
}

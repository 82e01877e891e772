package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/studio-slot-reservation/internal/booking"
)

const callerKey = "caller"

// CallerFrom returns the member stored by JWTAuth.  ok is false on routes
// that are not behind JWTAuth.
func CallerFrom(c echo.Context) (booking.Caller, bool) {
	caller, ok := c.Get(callerKey).(booking.Caller)
	return caller, ok && caller.Identity != ""
}

// userID extracts a user identifier for rate limit keys.  It returns
// "anon" unless the limiter runs after JWTAuth.
func userID(c echo.Context) string {
	if caller, ok := CallerFrom(c); ok {
		return caller.Identity
	}
	return "anon"
}

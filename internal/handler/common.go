// Package handler contains the HTTP handlers of the reservation API.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/studio-slot-reservation/internal/booking"
	"github.com/iliyamo/studio-slot-reservation/internal/middleware"
)

// requestTimeout bounds the store work of a single request.
const requestTimeout = 5 * time.Second

// BookingHandler bundles the engine and presentation settings for the
// member-facing endpoints.
type BookingHandler struct {
	Engine        *booking.Engine
	Logger        *zap.Logger
	Now           func() time.Time // reference time for relative activity timestamps
	ActivityLimit int              // default activity page size
	CalendarDays  int              // default calendar length
}

// NewBookingHandler constructs a BookingHandler and panics if the engine is nil.
func NewBookingHandler(engine *booking.Engine, logger *zap.Logger, activityLimit, calendarDays int) *BookingHandler {
	if engine == nil {
		panic("nil engine passed to NewBookingHandler")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingHandler{
		Engine:        engine,
		Logger:        logger,
		Now:           time.Now,
		ActivityLimit: activityLimit,
		CalendarDays:  calendarDays,
	}
}

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// callerOrReject returns the authenticated member or writes a 401.
func callerOrReject(c echo.Context) (booking.Caller, bool, error) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		return booking.Caller{}, false, c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	return caller, true, nil
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, booking.ErrUnknownVenue),
		errors.Is(err, booking.ErrUnknownArea),
		errors.Is(err, booking.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, booking.ErrInvalidDate),
		errors.Is(err, booking.ErrInvalidSlot),
		errors.Is(err, booking.ErrInvalidRange),
		errors.Is(err, booking.ErrInvalidAction):
		return http.StatusBadRequest
	case errors.Is(err, booking.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, booking.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, booking.ErrBulkIncomplete),
		errors.Is(err, booking.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// fail writes err as {"error": ...}.  Internal details of 5xx errors are
// logged, not returned.
func (h *BookingHandler) fail(c echo.Context, op string, err error) error {
	status := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		h.Logger.Error(op+" failed", zap.Error(err), zap.String("path", c.Path()))
		msg = http.StatusText(status)
	}
	return c.JSON(status, echo.Map{"error": msg})
}

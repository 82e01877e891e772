package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type slotReq struct {
	Venue string `json:"venue"`
	Area  string `json:"area"`
	Date  string `json:"date"`
	Slot  string `json:"slot"`
}

func (r *slotReq) trim() {
	r.Venue = strings.TrimSpace(r.Venue)
	r.Area = strings.TrimSpace(r.Area)
	r.Date = strings.TrimSpace(r.Date)
	r.Slot = strings.TrimSpace(r.Slot)
}

// Availability handles GET /v1/availability?venue=&area=&date=.
func (h *BookingHandler) Availability(c echo.Context) error {
	caller, ok, err := callerOrReject(c)
	if !ok {
		return err
	}
	venue, area, date := c.QueryParam("venue"), c.QueryParam("area"), c.QueryParam("date")
	if venue == "" || area == "" || date == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "venue, area and date are required"})
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	slots, err := h.Engine.ListAvailability(ctx, venue, area, date, caller)
	if err != nil {
		return h.fail(c, "list availability", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"venue": venue,
		"area":  area,
		"date":  date,
		"slots": slots,
	})
}

// Reserve handles POST /v1/reservations.
func (h *BookingHandler) Reserve(c echo.Context) error {
	caller, ok, err := callerOrReject(c)
	if !ok {
		return err
	}
	var req slotReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.trim()

	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.Engine.Reserve(ctx, req.Venue, req.Area, req.Date, req.Slot, caller); err != nil {
		return h.fail(c, "reserve", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"venue":       req.Venue,
		"area":        req.Area,
		"date":        req.Date,
		"slot":        req.Slot,
		"holder_name": caller.Name,
	})
}

// Cancel handles POST /v1/reservations/cancel.
func (h *BookingHandler) Cancel(c echo.Context) error {
	caller, ok, err := callerOrReject(c)
	if !ok {
		return err
	}
	var req slotReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.trim()

	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.Engine.Cancel(ctx, req.Venue, req.Area, req.Date, req.Slot, caller); err != nil {
		return h.fail(c, "cancel", err)
	}
	return c.NoContent(http.StatusNoContent)
}

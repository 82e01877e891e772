package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/studio-slot-reservation/internal/catalog"
	"github.com/iliyamo/studio-slot-reservation/internal/model"
)

type hoursPart struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

type venuePart struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Areas        []string  `json:"areas"`
	WeekdayHours hoursPart `json:"weekday_hours"`
	WeekendHours hoursPart `json:"weekend_hours"`
}

func hours(r model.HoursRule) hoursPart {
	return hoursPart{Open: catalog.FormatMinutes(r.Open), Close: catalog.FormatMinutes(r.Close)}
}

// Venues handles GET /v1/venues.
func (h *BookingHandler) Venues(c echo.Context) error {
	venues := h.Engine.Catalog().Venues()
	out := make([]venuePart, 0, len(venues))
	for _, v := range venues {
		out = append(out, venuePart{
			ID:           v.ID,
			Name:         v.Name,
			Areas:        v.Areas,
			WeekdayHours: hours(v.Hours.Weekday),
			WeekendHours: hours(v.Hours.Weekend),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"venues": out})
}

// Calendar handles GET /v1/calendar?days=N.
func (h *BookingHandler) Calendar(c echo.Context) error {
	days := h.CalendarDays
	if s := c.QueryParam("days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "days must be a positive integer"})
		}
		days = n
	}
	return c.JSON(http.StatusOK, echo.Map{"days": h.Engine.UpcomingDays(days)})
}

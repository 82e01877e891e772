package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v4"
)

type activityPart struct {
	ID        string    `json:"id"`
	ActorName string    `json:"actor_name"`
	Action    string    `json:"action"`
	Venue     string    `json:"venue"`
	VenueName string    `json:"venue_name"`
	Area      string    `json:"area"`
	Date      string    `json:"date"`
	Slot      string    `json:"slot"`
	CreatedAt time.Time `json:"created_at"`
	Ago       string    `json:"ago"`
}

// Activity handles GET /v1/activity?limit=N.
func (h *BookingHandler) Activity(c echo.Context) error {
	limit := h.ActivityLimit
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be a positive integer"})
		}
		limit = n
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	entries, err := h.Engine.RecentActivity(ctx, limit)
	if err != nil {
		return h.fail(c, "recent activity", err)
	}

	now := h.Now()
	cat := h.Engine.Catalog()
	out := make([]activityPart, 0, len(entries))
	for _, e := range entries {
		out = append(out, activityPart{
			ID:        e.ID,
			ActorName: e.ActorName,
			Action:    string(e.Action),
			Venue:     e.Venue,
			VenueName: cat.VenueName(e.Venue),
			Area:      e.Area,
			Date:      e.Date,
			Slot:      e.Slot,
			CreatedAt: e.CreatedAt,
			Ago:       humanize.RelTime(e.CreatedAt, now, "ago", "from now"),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"entries": out})
}

package booking

import (
	"time"

	"github.com/iliyamo/studio-slot-reservation/internal/catalog"
)

// CalendarDay is one entry of the upcoming-days strip members pick from.
type CalendarDay struct {
	Date    string `json:"date"`
	Weekday string `json:"weekday"`
	Day     int    `json:"day"`
	Month   string `json:"month"`
	Weekend bool   `json:"weekend"`
}

// UpcomingDays lists n calendar days starting today.  n is clamped to
// [1, HorizonDays].
func (e *Engine) UpcomingDays(n int) []CalendarDay {
	if n <= 0 {
		n = 1
	}
	if n > e.horizon {
		n = e.horizon
	}
	now := e.clock()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	out := make([]CalendarDay, 0, n)
	for i := 0; i < n; i++ {
		d := today.AddDate(0, 0, i)
		out = append(out, CalendarDay{
			Date:    d.Format(catalog.DateLayout),
			Weekday: d.Weekday().String(),
			Day:     d.Day(),
			Month:   d.Month().String(),
			Weekend: d.Weekday() == time.Saturday || d.Weekday() == time.Sunday,
		})
	}
	return out
}

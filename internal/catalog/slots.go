package catalog

import (
	"fmt"
	"time"
)

const (
	// SlotMinutes is the fixed stride of the slot grid.
	SlotMinutes = 30
	// DateLayout is the calendar date format used in keys and requests.
	DateLayout = "2006-01-02"
)

// ParseSlotLabel parses a zero-padded HH:MM label into minutes since
// midnight.  Labels must be exactly five characters so that string
// comparison and time comparison agree.
func ParseSlotLabel(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("slot %q is not HH:MM", s)
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("slot %q is not HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ParseAlignedSlot is ParseSlotLabel plus the half-hour alignment check.
func ParseAlignedSlot(s string) (int, error) {
	minutes, err := ParseSlotLabel(s)
	if err != nil {
		return 0, err
	}
	if minutes%SlotMinutes != 0 {
		return 0, fmt.Errorf("slot %s not aligned to %d minutes", s, SlotMinutes)
	}
	return minutes, nil
}

// FormatMinutes renders minutes since midnight as HH:MM.
func FormatMinutes(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseDate parses a YYYY-MM-DD calendar date.  The result is midnight
// UTC; only its calendar fields are used.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q is not YYYY-MM-DD", s)
	}
	return d, nil
}

// GenerateSlots returns the ordered slot labels of the venue for the
// given date.  The weekday rule applies Monday to Friday and the
// weekend rule on Saturday and Sunday.
func (c *Catalog) GenerateSlots(venueID string, date time.Time) ([]string, error) {
	v, err := c.Venue(venueID)
	if err != nil {
		return nil, err
	}
	rule := v.Hours.RuleFor(date)
	slots := make([]string, 0, (rule.Close-rule.Open)/SlotMinutes+1)
	for m := rule.Open; m < rule.Close; m += SlotMinutes {
		slots = append(slots, FormatMinutes(m))
	}
	return slots, nil
}

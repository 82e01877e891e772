package model

import "time"

// HoursRule is one opening-hours window expressed in minutes since
// midnight.  Open is inclusive and Close is exclusive, so a rule of
// 16:00–22:00 produces slots up to and including 21:30.
//
// Fields:
//  Open  – first bookable minute of the day.
//  Close – minute at which the venue stops taking slots.
type HoursRule struct {
	Open  int // minutes since midnight, inclusive
	Close int // minutes since midnight, exclusive
}

// OpeningHours groups the two rules every venue carries.  Monday to
// Friday use Weekday; Saturday and Sunday use Weekend.
type OpeningHours struct {
	Weekday HoursRule
	Weekend HoursRule
}

// RuleFor returns the rule that applies to the given calendar date.
func (h OpeningHours) RuleFor(date time.Time) HoursRule {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return h.Weekend
	default:
		return h.Weekday
	}
}

// Venue is an entry of the venue catalog.  Venues are loaded once at
// process start and never mutated afterwards.
//
// Fields:
//  ID    – stable identifier used in requests and storage keys.
//  Name  – display name shown to members.
//  Areas – ordered list of bookable rooms or zones.
//  Hours – weekday and weekend opening rules.
type Venue struct {
	ID    string
	Name  string
	Areas []string
	Hours OpeningHours
}

// HasArea reports whether the venue contains an area with the given name.
func (v Venue) HasArea(area string) bool {
	for _, a := range v.Areas {
		if a == area {
			return true
		}
	}
	return false
}

package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// WeekdaySet is a set over the seven ISO weekdays, Monday first.  Bit 0
// is Monday and bit 6 is Sunday.
type WeekdaySet uint8

// AllWeekdays contains every day of the week.
const AllWeekdays WeekdaySet = 1<<7 - 1

// isoIndex maps time.Weekday (Sunday = 0) onto a Monday-first index.
func isoIndex(d time.Weekday) uint {
	return uint((int(d) + 6) % 7)
}

// NewWeekdaySet builds a set from the given days.
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s |= 1 << isoIndex(d)
	}
	return s
}

// Contains reports whether d is a member of the set.
func (s WeekdaySet) Contains(d time.Weekday) bool {
	return s&(1<<isoIndex(d)) != 0
}

// Empty reports whether the set has no members.
func (s WeekdaySet) Empty() bool { return s&AllWeekdays == 0 }

// Days lists the members of the set, Monday first.
func (s WeekdaySet) Days() []time.Weekday {
	out := make([]time.Weekday, 0, 7)
	for i := 0; i < 7; i++ {
		if s&(1<<uint(i)) != 0 {
			out = append(out, time.Weekday((i+1)%7))
		}
	}
	return out
}

// String renders the set as lower-case three letter names or "all".
func (s WeekdaySet) String() string {
	if s&AllWeekdays == AllWeekdays {
		return "all"
	}
	names := make([]string, 0, 7)
	for _, d := range s.Days() {
		names = append(names, strings.ToLower(d.String()[:3]))
	}
	return strings.Join(names, ",")
}

// weekdayAliases is the single boundary mapping from user supplied day
// names to weekdays.  It accepts English names and abbreviations as well
// as the Turkish abbreviations used by the studio's members.
var weekdayAliases = map[string]time.Weekday{
	"mon": time.Monday, "monday": time.Monday, "pzt": time.Monday, "pazartesi": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday, "sal": time.Tuesday, "salı": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday, "çar": time.Wednesday, "çarşamba": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday, "per": time.Thursday, "perşembe": time.Thursday,
	"fri": time.Friday, "friday": time.Friday, "cum": time.Friday, "cuma": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday, "cmt": time.Saturday, "cumartesi": time.Saturday,
	"sun": time.Sunday, "sunday": time.Sunday, "paz": time.Sunday, "pazar": time.Sunday,
}

// ParseWeekdaySet converts a list of day names into a WeekdaySet.  The
// tokens "all", "*" and "hepsi" select every day; ISO numbers 1 (Monday)
// through 7 (Sunday) are also accepted.  An empty list or an unknown
// token is an error.
func ParseWeekdaySet(names []string) (WeekdaySet, error) {
	var s WeekdaySet
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		switch name {
		case "":
			continue
		case "all", "*", "hepsi":
			return AllWeekdays, nil
		}
		if d, ok := weekdayAliases[name]; ok {
			s |= NewWeekdaySet(d)
			continue
		}
		if n, err := strconv.Atoi(name); err == nil && n >= 1 && n <= 7 {
			s |= NewWeekdaySet(time.Weekday(n % 7))
			continue
		}
		return 0, fmt.Errorf("unknown weekday %q", raw)
	}
	if s.Empty() {
		return 0, fmt.Errorf("no weekdays selected")
	}
	return s, nil
}

package model

import "time"

// SlotKey identifies one bookable half hour.  The tuple is unique in
// the occupancy table; it is the key the whole engine protects.
type SlotKey struct {
	Venue string // venue identifier
	Area  string // area name within the venue
	Date  string // calendar date, YYYY-MM-DD
	Slot  string // slot start, HH:MM
}

// Occupancy mirrors a row of the occupancies table.  A row exists only
// while the slot is reserved or blocked; an absent row means the slot is
// open.  Blocked rows never carry holder fields.
//
// Fields:
//  Key            – venue/area/date/slot tuple.
//  HolderName     – display name of the member holding the slot.
//  HolderIdentity – identity key of the holder (phone number).
//  Blocked        – administrative block flag.
//  CreatedAt      – when the row was written.
type Occupancy struct {
	Key            SlotKey
	HolderName     string
	HolderIdentity string
	Blocked        bool
	CreatedAt      time.Time
}

// NewBlock returns the occupancy written by a bulk block.
func NewBlock(key SlotKey, at time.Time) Occupancy {
	return Occupancy{Key: key, Blocked: true, CreatedAt: at}
}

// SlotStatus is the availability state reported for a slot.
type SlotStatus string

const (
	SlotOpen     SlotStatus = "open"
	SlotReserved SlotStatus = "reserved"
	SlotBlocked  SlotStatus = "blocked"
)

// Status derives the availability state of an existing row.
func (o Occupancy) Status() SlotStatus {
	if o.Blocked {
		return SlotBlocked
	}
	return SlotReserved
}

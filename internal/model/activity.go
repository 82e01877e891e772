package model

import "time"

// ActivityAction is the kind of member action recorded in the activity log.
type ActivityAction string

const (
	ActionReserve ActivityAction = "reserve"
	ActionCancel  ActivityAction = "cancel"
)

// ActivityEntry mirrors a row of the activity table.  Entries are
// appended after a reservation or cancellation is confirmed by the
// store and are never updated.
//
// Fields:
//  ID        – random UUID assigned when the entry is built.
//  ActorName – display name of the member who acted.
//  Action    – reserve or cancel.
//  Venue     – venue identifier.
//  Area      – area name.
//  Date      – slot date, YYYY-MM-DD.
//  Slot      – slot start, HH:MM.
//  CreatedAt – time of the action.
type ActivityEntry struct {
	ID        string
	ActorName string
	Action    ActivityAction
	Venue     string
	Area      string
	Date      string
	Slot      string
	CreatedAt time.Time
}

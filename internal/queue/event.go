// Package queue defines message payloads exchanged over the message broker
// and the consumer that archives them.
package queue

import (
	"fmt"
	"time"

	"github.com/iliyamo/studio-slot-reservation/internal/model"
)

// DefaultActivityQueue is the queue activity events go to when none is configured.
const DefaultActivityQueue = "studio.activity"

// ActivityRecordedEvent is published after a reservation or cancellation
// has been appended to the activity feed.  It carries the venue display
// name so consumers need no catalog.
type ActivityRecordedEvent struct {
	EntryID    string `json:"entry_id"`
	Action     string `json:"action"`
	ActorName  string `json:"actor_name"`
	VenueID    string `json:"venue_id"`
	VenueName  string `json:"venue_name"`
	Area       string `json:"area"`
	Date       string `json:"date"`
	Slot       string `json:"slot"`
	RecordedAt string `json:"recorded_at"`
}

// NewActivityRecordedEvent builds the event for entry.
func NewActivityRecordedEvent(entry model.ActivityEntry, venueName string) ActivityRecordedEvent {
	return ActivityRecordedEvent{
		EntryID:    entry.ID,
		Action:     string(entry.Action),
		ActorName:  entry.ActorName,
		VenueID:    entry.Venue,
		VenueName:  venueName,
		Area:       entry.Area,
		Date:       entry.Date,
		Slot:       entry.Slot,
		RecordedAt: entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// LogLine renders the event as one line of the activity log.
func (ev ActivityRecordedEvent) LogLine() string {
	return fmt.Sprintf("[%s] %s | entry_id=%s | actor=%q | venue=%q | area=%q | date=%s | slot=%s\n",
		ev.RecordedAt, ev.Action, ev.EntryID, ev.ActorName, ev.VenueName, ev.Area, ev.Date, ev.Slot)
}

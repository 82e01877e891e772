package repository

import (
	"context"

	"github.com/iliyamo/studio-slot-reservation/internal/model"
)

// OccupancyStore is the durable table of slot occupancy keyed by
// (venue, area, date, slot).  Every method is atomic with respect to a
// single key; no method provides atomicity across keys.
type OccupancyStore interface {
	// Get returns the row stored for key or ErrNotFound.
	Get(ctx context.Context, key model.SlotKey) (model.Occupancy, error)
	// ListDay returns every row for one venue, area and date in no
	// particular order.
	ListDay(ctx context.Context, venue, area, date string) ([]model.Occupancy, error)
	// InsertIfAbsent writes occ only when no row exists for its key and
	// returns ErrConflict otherwise.
	InsertIfAbsent(ctx context.Context, occ model.Occupancy) error
	// Upsert writes occ whether or not a row exists for its key,
	// replacing any previous row.
	Upsert(ctx context.Context, occ model.Occupancy) error
	// DeleteHeld removes the row for key only if it is a reservation
	// held by holderIdentity.  It reports whether a row was removed.
	DeleteHeld(ctx context.Context, key model.SlotKey, holderIdentity string) (bool, error)
	// DeleteBlocked removes the row for key only if it is a block.  It
	// reports whether a row was removed.
	DeleteBlocked(ctx context.Context, key model.SlotKey) (bool, error)
}

// ActivityStore is the append-only activity log.
type ActivityStore interface {
	// Append records one entry.
	Append(ctx context.Context, entry model.ActivityEntry) error
	// Recent returns at most limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]model.ActivityEntry, error)
}

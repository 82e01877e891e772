// Package booking implements the slot reservation engine: availability,
// reserve and cancel with ownership checks, and bulk block/unblock over
// a rolling window of future dates.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/studio-slot-reservation/internal/catalog"
	"github.com/iliyamo/studio-slot-reservation/internal/model"
	"github.com/iliyamo/studio-slot-reservation/internal/repository"
)

const (
	// DefaultHorizonDays is the bulk block window when none is configured.
	DefaultHorizonDays = 90
	// DefaultActivityLimit is the number of activity entries returned
	// when the caller does not ask for a specific amount.
	DefaultActivityLimit = 30
	// MaxActivityLimit bounds activity reads.
	MaxActivityLimit = 100
)

// Clock returns the current time.  The engine uses the local zone of
// the returned time to decide what "today" is.
type Clock func() time.Time

// ActivityPublisher receives every activity entry after it has been
// appended.  Publishing is best effort.
type ActivityPublisher interface {
	PublishActivity(ctx context.Context, entry model.ActivityEntry) error
}

// Caller is the authenticated principal on whose behalf an operation
// runs.  The engine never authenticates; it only authorizes with these
// fields.
type Caller struct {
	Identity string
	Name     string
	IsAdmin  bool
}

// SlotView is one row of an availability listing.
type SlotView struct {
	Slot       string           `json:"slot"`
	Status     model.SlotStatus `json:"status"`
	HolderName string           `json:"holder_name,omitempty"`
	IsOwnSlot  bool             `json:"is_own_slot"`
}

// Engine applies reservation state transitions against an OccupancyStore
// and records them in an ActivityStore.  It keeps no occupancy state of
// its own, so one Engine may serve any number of concurrent requests.
type Engine struct {
	catalog   *catalog.Catalog
	store     repository.OccupancyStore
	activity  repository.ActivityStore
	publisher ActivityPublisher
	clock     Clock
	logger    *zap.Logger
	horizon   int
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(c Clock) Option { return func(e *Engine) { e.clock = c } }

// WithLogger sets the logger used for best-effort failures and bulk summaries.
func WithLogger(l *zap.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithPublisher forwards appended activity entries to p.
func WithPublisher(p ActivityPublisher) Option { return func(e *Engine) { e.publisher = p } }

// WithHorizonDays sets the default bulk block window.
func WithHorizonDays(days int) Option {
	return func(e *Engine) {
		if days > 0 {
			e.horizon = days
		}
	}
}

// NewEngine builds an Engine.  The catalog and both stores are required.
func NewEngine(cat *catalog.Catalog, store repository.OccupancyStore, activity repository.ActivityStore, opts ...Option) *Engine {
	if cat == nil || store == nil || activity == nil {
		panic("nil dependency passed to NewEngine")
	}
	e := &Engine{
		catalog:  cat,
		store:    store,
		activity: activity,
		clock:    time.Now,
		logger:   zap.NewNop(),
		horizon:  DefaultHorizonDays,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the venue catalog the engine validates against.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// now truncates to microseconds, the precision SQL stores keep.
func (e *Engine) now() time.Time {
	return e.clock().Truncate(time.Microsecond)
}

// day validates the venue, area and date of a request.
func (e *Engine) day(venue, area, date string) (time.Time, error) {
	if _, err := e.catalog.Area(venue, area); err != nil {
		return time.Time{}, err
	}
	d, err := catalog.ParseDate(date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	return d, nil
}

// slotKey validates a full key.  When onGrid is set the slot must be one
// of the labels the venue offers on that date.
func (e *Engine) slotKey(venue, area, date, slot string, onGrid bool) (model.SlotKey, error) {
	d, err := e.day(venue, area, date)
	if err != nil {
		return model.SlotKey{}, err
	}
	if _, err := catalog.ParseAlignedSlot(slot); err != nil {
		return model.SlotKey{}, fmt.Errorf("%w: %v", ErrInvalidSlot, err)
	}
	key := model.SlotKey{Venue: venue, Area: area, Date: d.Format(catalog.DateLayout), Slot: slot}
	if !onGrid {
		return key, nil
	}
	slots, err := e.catalog.GenerateSlots(venue, d)
	if err != nil {
		return model.SlotKey{}, err
	}
	for _, s := range slots {
		if s == slot {
			return key, nil
		}
	}
	return model.SlotKey{}, fmt.Errorf("%w: %s is outside opening hours on %s", ErrInvalidSlot, slot, key.Date)
}

// ListAvailability returns the status of every slot of the venue's grid
// for one area and date.  Stored rows are matched to the grid by label.
func (e *Engine) ListAvailability(ctx context.Context, venue, area, date string, caller Caller) ([]SlotView, error) {
	d, err := e.day(venue, area, date)
	if err != nil {
		return nil, err
	}
	slots, err := e.catalog.GenerateSlots(venue, d)
	if err != nil {
		return nil, err
	}
	rows, err := e.store.ListDay(ctx, venue, area, d.Format(catalog.DateLayout))
	if err != nil {
		return nil, storeFailure("list availability", err)
	}
	byLabel := make(map[string]model.Occupancy, len(rows))
	for _, r := range rows {
		byLabel[r.Key.Slot] = r
	}
	out := make([]SlotView, 0, len(slots))
	for _, s := range slots {
		view := SlotView{Slot: s, Status: model.SlotOpen}
		if occ, ok := byLabel[s]; ok {
			view.Status = occ.Status()
			if !occ.Blocked {
				view.HolderName = occ.HolderName
				view.IsOwnSlot = caller.Identity != "" && occ.HolderIdentity == caller.Identity
			}
		}
		out = append(out, view)
	}
	return out, nil
}

// Reserve claims an open slot for the caller.  It returns ErrConflict
// when the slot is already reserved or blocked; nothing is overwritten.
func (e *Engine) Reserve(ctx context.Context, venue, area, date, slot string, caller Caller) error {
	if caller.Identity == "" {
		return fmt.Errorf("%w: missing caller identity", ErrForbidden)
	}
	key, err := e.slotKey(venue, area, date, slot, true)
	if err != nil {
		return err
	}
	occ := model.Occupancy{
		Key:            key,
		HolderName:     caller.Name,
		HolderIdentity: caller.Identity,
		CreatedAt:      e.now(),
	}

	err = e.store.InsertIfAbsent(ctx, occ)
	if err != nil && !errors.Is(err, repository.ErrConflict) && ctx.Err() == nil {
		e.logger.Warn("reserve: retrying insert after store error",
			zap.String("venue", venue), zap.String("area", area),
			zap.String("date", key.Date), zap.String("slot", slot), zap.Error(err))
		err = e.store.InsertIfAbsent(ctx, occ)
		if errors.Is(err, repository.ErrConflict) && e.landed(ctx, occ) {
			err = nil
		}
	}
	switch {
	case errors.Is(err, repository.ErrConflict):
		return ErrConflict
	case err != nil:
		return storeFailure("reserve", err)
	}

	e.record(ctx, model.ActionReserve, key, caller)
	return nil
}

// landed reports whether occ is the row now stored at its key, which is
// the case when a failed first insert actually committed.
func (e *Engine) landed(ctx context.Context, occ model.Occupancy) bool {
	cur, err := e.store.Get(ctx, occ.Key)
	if err != nil {
		return false
	}
	return !cur.Blocked && cur.HolderIdentity == occ.HolderIdentity && cur.CreatedAt.Equal(occ.CreatedAt)
}

// Cancel releases a reservation.  The holder and any admin may cancel;
// blocks are never released here.
func (e *Engine) Cancel(ctx context.Context, venue, area, date, slot string, caller Caller) error {
	if caller.Identity == "" {
		return fmt.Errorf("%w: missing caller identity", ErrForbidden)
	}
	key, err := e.slotKey(venue, area, date, slot, false)
	if err != nil {
		return err
	}

	// The conditional delete only removes the row that was authorized.
	// If the row changed in between, authorize again against the new row.
	for attempt := 0; attempt < 2; attempt++ {
		cur, err := e.store.Get(ctx, key)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return storeFailure("cancel", err)
		}
		if cur.Blocked {
			return fmt.Errorf("%w: slot is blocked by an administrator", ErrForbidden)
		}
		if cur.HolderIdentity != caller.Identity && !caller.IsAdmin {
			return fmt.Errorf("%w: reservation belongs to another member", ErrForbidden)
		}
		removed, err := e.store.DeleteHeld(ctx, key, cur.HolderIdentity)
		if err != nil {
			return storeFailure("cancel", err)
		}
		if removed {
			e.record(ctx, model.ActionCancel, key, caller)
			return nil
		}
	}
	return fmt.Errorf("%w: slot changed during cancellation", ErrConflict)
}

// record appends an activity entry and publishes it.  Both steps run
// after the store mutation is confirmed and neither failure is returned.
func (e *Engine) record(ctx context.Context, action model.ActivityAction, key model.SlotKey, caller Caller) {
	entry := model.ActivityEntry{
		ID:        uuid.NewString(),
		ActorName: caller.Name,
		Action:    action,
		Venue:     key.Venue,
		Area:      key.Area,
		Date:      key.Date,
		Slot:      key.Slot,
		CreatedAt: e.now(),
	}
	if err := e.activity.Append(ctx, entry); err != nil {
		e.logger.Warn("activity append failed",
			zap.String("action", string(action)), zap.String("venue", key.Venue),
			zap.String("area", key.Area), zap.String("date", key.Date),
			zap.String("slot", key.Slot), zap.Error(err))
		return
	}
	if e.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := e.publisher.PublishActivity(pubCtx, entry); err != nil {
		e.logger.Warn("activity publish failed", zap.String("entry_id", entry.ID), zap.Error(err))
	}
}

// RecentActivity returns up to limit activity entries, newest first.  A
// non-positive limit selects DefaultActivityLimit; larger values are
// capped at MaxActivityLimit.
func (e *Engine) RecentActivity(ctx context.Context, limit int) ([]model.ActivityEntry, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	if limit > MaxActivityLimit {
		limit = MaxActivityLimit
	}
	entries, err := e.activity.Recent(ctx, limit)
	if err != nil {
		return nil, storeFailure("recent activity", err)
	}
	return entries, nil
}

package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/studio-slot-reservation/internal/catalog"
	"github.com/iliyamo/studio-slot-reservation/internal/model"
)

// BlockAction selects what a bulk operation does to each targeted slot.
type BlockAction string

const (
	ActionBlock   BlockAction = "block"
	ActionUnblock BlockAction = "unblock"
)

// ParseBlockAction accepts "block" and "unblock" as well as the Turkish
// "blokla" and "ac"/"aç" used by the studio's admins.
func ParseBlockAction(s string) (BlockAction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "block", "blokla":
		return ActionBlock, nil
	case "unblock", "ac", "aç":
		return ActionUnblock, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAction, s)
}

// maxReportedFailures bounds the per-key failures kept in a BulkResult.
const maxReportedFailures = 20

// BulkRequest describes a block or unblock over a rolling window.  The
// window starts today and covers HorizonDays dates; only dates whose
// weekday is in Days are touched, and only slots s with From <= s < To.
type BulkRequest struct {
	Venue       string
	Area        string
	Days        model.WeekdaySet
	From        string
	To          string
	Action      BlockAction
	HorizonDays int
}

// KeyFailure is one slot a bulk operation could not apply.
type KeyFailure struct {
	Date  string `json:"date"`
	Slot  string `json:"slot"`
	Error string `json:"error"`
}

// BulkResult summarizes a bulk operation.  Visited counts every key the
// operation attempted; Mutated counts rows actually written or removed.
type BulkResult struct {
	Action   BlockAction  `json:"action"`
	Visited  int          `json:"visited"`
	Mutated  int          `json:"mutated"`
	Failed   int          `json:"failed"`
	Failures []KeyFailure `json:"failures,omitempty"`
}

func (r *BulkResult) fail(key model.SlotKey, err error) {
	r.Failed++
	if len(r.Failures) < maxReportedFailures {
		r.Failures = append(r.Failures, KeyFailure{Date: key.Date, Slot: key.Slot, Error: err.Error()})
	}
}

// validateBulk checks a request and returns the parsed time bounds.
func (e *Engine) validateBulk(req BulkRequest) (int, int, error) {
	if _, err := e.catalog.Area(req.Venue, req.Area); err != nil {
		return 0, 0, err
	}
	if req.Action != ActionBlock && req.Action != ActionUnblock {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidAction, req.Action)
	}
	from, err := catalog.ParseSlotLabel(req.From)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	to := 24 * 60
	if req.To != "24:00" {
		if to, err = catalog.ParseSlotLabel(req.To); err != nil {
			return 0, 0, fmt.Errorf("%w: %v", ErrInvalidRange, err)
		}
	}
	if from >= to {
		return 0, 0, fmt.Errorf("%w: start %s is not before end %s", ErrInvalidRange, req.From, req.To)
	}
	if req.Days.Empty() {
		return 0, 0, fmt.Errorf("%w: no weekdays selected", ErrInvalidRange)
	}
	return from, to, nil
}

// ApplyBulk blocks or unblocks every matching slot in the window.
//
// Block upserts a block whether or not a row exists, evicting any
// reservation.  Unblock removes a row only when it is a block, so real
// reservations are never touched.  Keys are applied one at a time with
// no cross-key atomicity; every per-key failure is counted and the call
// then returns ErrBulkIncomplete together with the partial result.  No
// activity entries are written.
func (e *Engine) ApplyBulk(ctx context.Context, req BulkRequest, caller Caller) (BulkResult, error) {
	res := BulkResult{Action: req.Action}
	if !caller.IsAdmin {
		return res, fmt.Errorf("%w: bulk block requires an administrator", ErrForbidden)
	}
	from, to, err := e.validateBulk(req)
	if err != nil {
		return res, err
	}
	horizon := req.HorizonDays
	if horizon <= 0 {
		horizon = e.horizon
	}

	now := e.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var interrupted error

days:
	for i := 0; i < horizon; i++ {
		d := today.AddDate(0, 0, i)
		if !req.Days.Contains(d.Weekday()) {
			continue
		}
		slots, err := e.catalog.GenerateSlots(req.Venue, d)
		if err != nil {
			return res, err
		}
		date := d.Format(catalog.DateLayout)
		for _, s := range slots {
			m, _ := catalog.ParseSlotLabel(s)
			if m < from || m >= to {
				continue
			}
			if err := ctx.Err(); err != nil {
				interrupted = err
				break days
			}
			key := model.SlotKey{Venue: req.Venue, Area: req.Area, Date: date, Slot: s}
			res.Visited++
			switch req.Action {
			case ActionBlock:
				if err := e.store.Upsert(ctx, model.NewBlock(key, now)); err != nil {
					res.fail(key, err)
					continue
				}
				res.Mutated++
			case ActionUnblock:
				removed, err := e.store.DeleteBlocked(ctx, key)
				if err != nil {
					res.fail(key, err)
					continue
				}
				if removed {
					res.Mutated++
				}
			}
		}
	}

	fields := []zap.Field{
		zap.String("action", string(req.Action)), zap.String("venue", req.Venue),
		zap.String("area", req.Area), zap.String("days", req.Days.String()),
		zap.String("from", req.From), zap.String("to", req.To),
		zap.Int("horizon_days", horizon), zap.String("admin", caller.Identity),
		zap.Int("visited", res.Visited), zap.Int("mutated", res.Mutated), zap.Int("failed", res.Failed),
	}
	switch {
	case interrupted != nil:
		e.logger.Warn("bulk block interrupted", append(fields, zap.Error(interrupted))...)
		return res, fmt.Errorf("%w: stopped after %d slots: %w", ErrBulkIncomplete, res.Visited, storeFailure("bulk", interrupted))
	case res.Failed > 0:
		e.logger.Warn("bulk block finished with failures", fields...)
		return res, fmt.Errorf("%w: %d of %d slots failed: %w", ErrBulkIncomplete, res.Failed, res.Visited,
			storeFailure("bulk", errors.New(res.Failures[0].Error)))
	}
	e.logger.Info("bulk block applied", fields...)
	return res, nil
}

package booking

import (
	"errors"
	"fmt"

	"github.com/iliyamo/studio-slot-reservation/internal/catalog"
)

var (
	// ErrUnknownVenue and ErrUnknownArea are the catalog's lookup errors.
	ErrUnknownVenue = catalog.ErrUnknownVenue
	ErrUnknownArea  = catalog.ErrUnknownArea

	// ErrInvalidDate is returned for a date that is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvalidSlot is returned for a slot label that is malformed or
	// outside the venue's opening hours on that date.
	ErrInvalidSlot = errors.New("invalid slot")
	// ErrInvalidRange is returned by bulk operations for malformed or
	// empty time bounds or an empty weekday filter.
	ErrInvalidRange = errors.New("invalid range")
	// ErrInvalidAction is returned for a bulk action other than block or unblock.
	ErrInvalidAction = errors.New("invalid bulk action")

	// ErrConflict means the slot is already reserved or blocked.
	ErrConflict = errors.New("slot already occupied")
	// ErrNotFound means there is no reservation at the key.
	ErrNotFound = errors.New("reservation not found")
	// ErrForbidden means the caller may not perform the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrStoreUnavailable wraps every infrastructure failure, including
	// caller deadlines that aborted a store call.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrBulkIncomplete is returned when some keys of a bulk operation
	// failed or the operation was interrupted.
	ErrBulkIncomplete = errors.New("bulk operation incomplete")
)

// storeFailure classifies err as a transient infrastructure failure
// while keeping the cause reachable through errors.Is and errors.As.
func storeFailure(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// Package repository defines the occupancy and activity stores and the
// error values they share.  These sentinel values allow higher layers
// such as the booking engine to distinguish an expected outcome (a
// duplicate key, a missing row) from an infrastructure failure.
package repository

import "errors"

// ErrNotFound is returned when no row exists for the requested key.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned by InsertIfAbsent when a row already exists
// for the key.  SQL stores surface unique-constraint violations as this
// value; the booking engine translates it into a reservation conflict.
var ErrConflict = errors.New("conflict")

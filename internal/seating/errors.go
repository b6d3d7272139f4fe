// Package seating implements the seat allocation engine: it orders an
// examinee pool, splits it across rooms, lays each room's share onto seat
// coordinates and numbers the occupied seats across all rooms.  The package
// performs no I/O and keeps no state between calls.
package seating

import (
	"errors"
	"fmt"
)

// Sentinel values that the typed errors below match through errors.Is.
// Handlers switch on these to pick a status code.
var (
	ErrGeometryInvalid  = errors.New("geometry invalid")
	ErrInsufficientPool = errors.New("insufficient examinee pool")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrInvalidRequest   = errors.New("invalid allocation request")
	ErrUnknownPolicy    = errors.New("unknown ordering policy")
	ErrUnknownDirection = errors.New("unknown arrangement direction")
)

// GeometryError reports why a room's seat layout is inconsistent.
type GeometryError struct {
	RoomID string
	Reason string
}

func (e *GeometryError) Error() string {
	if e.RoomID == "" {
		return fmt.Sprintf("geometry invalid: %s", e.Reason)
	}
	return fmt.Sprintf("geometry invalid for room %q: %s", e.RoomID, e.Reason)
}

func (e *GeometryError) Unwrap() error { return ErrGeometryInvalid }

// InsufficientPoolError is returned when fewer examinees exist than were
// requested.  The request is never truncated silently.
type InsufficientPoolError struct {
	Available int
	Requested int
}

func (e *InsufficientPoolError) Error() string {
	return fmt.Sprintf("insufficient examinee pool: %d available, %d requested", e.Available, e.Requested)
}

func (e *InsufficientPoolError) Unwrap() error { return ErrInsufficientPool }

// CapacityExceededError is returned when the selected rooms cannot seat the
// requested total.  Shortfall is Requested - Capacity.
type CapacityExceededError struct {
	Capacity  int
	Requested int
	Shortfall int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("capacity exceeded: %d seats, %d requested, need %d more seats",
		e.Capacity, e.Requested, e.Shortfall)
}

func (e *CapacityExceededError) Unwrap() error { return ErrCapacityExceeded }

func geometryErr(roomID, format string, args ...any) error {
	return &GeometryError{RoomID: roomID, Reason: fmt.Sprintf(format, args...)}
}

package seating

import (
	"cmp"
	"slices"
)

// RoomSlice is the part of the ordered pool assigned to one room.
type RoomSlice struct {
	Room      Geometry
	Examinees []Examinee
}

// Plan is the planner's output: one slice per selected room, in canonical
// room order, including rooms that received nobody.
type Plan struct {
	Rooms          []RoomSlice
	TotalAllocated int
}

// PlanRooms splits ordered across rooms.  Rooms are processed in ascending
// RoomID order whatever order the caller passed them in; that order is the
// one every later step uses.
func PlanRooms(ordered []Examinee, rooms []Geometry, requestedTotal int) (Plan, error) {
	ids := make(map[string]struct{}, len(rooms))
	capacity := 0
	for _, r := range rooms {
		if err := r.Validate(); err != nil {
			return Plan{}, err
		}
		if _, dup := ids[r.RoomID]; dup {
			return Plan{}, geometryErr(r.RoomID, "room selected more than once")
		}
		ids[r.RoomID] = struct{}{}
		capacity += r.TotalSeats
	}

	if requestedTotal < 0 {
		return Plan{}, ErrInvalidRequest
	}
	if requestedTotal > len(ordered) {
		return Plan{}, &InsufficientPoolError{Available: len(ordered), Requested: requestedTotal}
	}
	if requestedTotal > capacity {
		return Plan{}, &CapacityExceededError{
			Capacity:  capacity,
			Requested: requestedTotal,
			Shortfall: requestedTotal - capacity,
		}
	}

	sorted := SortRooms(rooms)
	plan := Plan{Rooms: make([]RoomSlice, 0, len(sorted))}
	cursor := 0
	for _, room := range sorted {
		take := min(room.TotalSeats, requestedTotal-cursor)
		plan.Rooms = append(plan.Rooms, RoomSlice{
			Room:      room,
			Examinees: slices.Clone(ordered[cursor : cursor+take]),
		})
		cursor += take
	}
	plan.TotalAllocated = cursor
	return plan, nil
}

// SortRooms returns rooms in canonical processing order (RoomID ascending).
func SortRooms(rooms []Geometry) []Geometry {
	sorted := slices.Clone(rooms)
	slices.SortStableFunc(sorted, func(a, b Geometry) int { return cmp.Compare(a.RoomID, b.RoomID) })
	return sorted
}

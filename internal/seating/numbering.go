package seating

import "slices"

// RoomAllocation is the result for one room: how many examinees it received
// and its full seat arrangement.
type RoomAllocation struct {
	Room           Geometry `json:"room"`
	AllocatedCount int      `json:"allocated_count"`
	Seats          []Seat   `json:"seat_arrangement"`
}

// Number assigns one ascending seat number across all rooms.  allocs must be
// in canonical room order; within a room seats are walked in the order Arrange
// produced them.  Only occupied seats are numbered.  The input is left as is
// and a numbered copy is returned.
func Number(allocs []RoomAllocation) []RoomAllocation {
	out := make([]RoomAllocation, len(allocs))
	counter := 1
	for i, a := range allocs {
		seats := slices.Clone(a.Seats)
		for j := range seats {
			if !seats[j].Occupied() {
				seats[j].GlobalNumber = Unnumbered
				continue
			}
			seats[j].GlobalNumber = counter
			counter++
		}
		out[i] = RoomAllocation{Room: a.Room, AllocatedCount: a.AllocatedCount, Seats: seats}
	}
	return out
}

package seating

// Request is the input of one allocation run.
type Request struct {
	Pool           []Examinee
	Rooms          []Geometry
	RequestedTotal int
	Policy         Policy
	Direction      Direction
	Seed           *int64 // only read by PolicyRandom
}

// Result is the output of one allocation run.  Rooms are in canonical order.
type Result struct {
	Rooms          []RoomAllocation `json:"rooms"`
	TotalAllocated int              `json:"total_allocated"`
}

// PlacedSeat is an occupied seat together with the room it belongs to.
type PlacedSeat struct {
	RoomID string
	Seat   Seat
}

// Allocate runs ordering, planning, arrangement and numbering.  Validation
// errors are returned before any seat is arranged and no partial result is
// produced.
func Allocate(req Request) (Result, error) {
	if req.Direction != Horizontal && req.Direction != Vertical {
		return Result{}, ErrUnknownDirection
	}
	ordered, err := Order(req.Pool, req.Policy, req.Seed)
	if err != nil {
		return Result{}, err
	}
	plan, err := PlanRooms(ordered, req.Rooms, req.RequestedTotal)
	if err != nil {
		return Result{}, err
	}

	allocs := make([]RoomAllocation, 0, len(plan.Rooms))
	for _, rs := range plan.Rooms {
		allocs = append(allocs, RoomAllocation{
			Room:           rs.Room,
			AllocatedCount: len(rs.Examinees),
			Seats:          Arrange(rs.Room, rs.Examinees, req.Direction),
		})
	}
	return Result{Rooms: Number(allocs), TotalAllocated: plan.TotalAllocated}, nil
}

// MaxGridDimensions is the largest grid any room of the result needs.
func (r Result) MaxGridDimensions() (rows, cols int) {
	for _, a := range r.Rooms {
		gr, gc := a.Room.MaxGridDimensions()
		rows = max(rows, gr)
		cols = max(cols, gc)
	}
	return rows, cols
}

// Extent is the largest row and column count of the result's rooms.
func (r Result) Extent() (rows, cols int) {
	for _, a := range r.Rooms {
		er, ec := a.Room.Extent()
		rows = max(rows, er)
		cols = max(cols, ec)
	}
	return rows, cols
}

// Occupied flattens the occupied seats of every room in numbering order.
func (r Result) Occupied() []PlacedSeat {
	out := make([]PlacedSeat, 0, r.TotalAllocated)
	for _, a := range r.Rooms {
		for _, s := range a.Seats {
			if s.Occupied() {
				out = append(out, PlacedSeat{RoomID: a.Room.RoomID, Seat: s})
			}
		}
	}
	return out
}

// RoomNames lists room display names in canonical order.
func (r Result) RoomNames() []string {
	names := make([]string, 0, len(r.Rooms))
	for _, a := range r.Rooms {
		names = append(names, a.Room.Name)
	}
	return names
}

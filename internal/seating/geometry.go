package seating

import (
	"encoding/json"
	"fmt"
)

// Shape is the seat coordinate space of a room.  It is a closed set: only
// Dense and Sparse implement it.
type Shape interface {
	isShape()
}

// Dense is a full rectangular grid where every one of Rows*Cols cells is a
// seat.  Seat numbers are not stored; they follow from the traversal order.
type Dense struct {
	Rows int
	Cols int
}

// Sparse is a designed layout of pre-numbered positions.  Rows and columns
// may have gaps (aisles, a projector, a door).
type Sparse struct {
	Positions []Position
}

// Position is one seat of a Sparse layout.
type Position struct {
	Row        int `json:"row"`
	Col        int `json:"col"`
	SeatNumber int `json:"seat_number"`
}

func (Dense) isShape()  {}
func (Sparse) isShape() {}

// Geometry describes one room taking part in an allocation run.
type Geometry struct {
	RoomID     string
	Name       string
	TotalSeats int
	Shape      Shape
}

// NewGeometry builds a Geometry and rejects layouts that are not internally
// consistent.  The Sparse positions are copied so later edits by the caller
// cannot invalidate the value.
func NewGeometry(roomID, name string, totalSeats int, shape Shape) (Geometry, error) {
	if sp, ok := shape.(Sparse); ok {
		shape = Sparse{Positions: append([]Position(nil), sp.Positions...)}
	}
	g := Geometry{RoomID: roomID, Name: name, TotalSeats: totalSeats, Shape: shape}
	if err := g.Validate(); err != nil {
		return Geometry{}, err
	}
	return g, nil
}

// Validate re-checks the geometry invariants.  It is run by the planner on
// every room so values built without NewGeometry are covered too.
func (g Geometry) Validate() error {
	if g.TotalSeats < 0 {
		return geometryErr(g.RoomID, "total seats %d is negative", g.TotalSeats)
	}
	switch s := g.Shape.(type) {
	case Dense:
		if s.Rows < 0 || s.Cols < 0 {
			return geometryErr(g.RoomID, "rows/cols must not be negative (got %dx%d)", s.Rows, s.Cols)
		}
		if s.Rows*s.Cols != g.TotalSeats {
			return geometryErr(g.RoomID, "total seats %d does not match %dx%d grid", g.TotalSeats, s.Rows, s.Cols)
		}
	case Sparse:
		if len(s.Positions) != g.TotalSeats {
			return geometryErr(g.RoomID, "total seats %d does not match %d defined positions", g.TotalSeats, len(s.Positions))
		}
		seen := make([]bool, len(s.Positions)+1)
		cells := make(map[[2]int]int, len(s.Positions))
		for _, p := range s.Positions {
			if p.Row < 0 || p.Col < 0 {
				return geometryErr(g.RoomID, "seat %d has negative coordinates (%d,%d)", p.SeatNumber, p.Row, p.Col)
			}
			if p.SeatNumber < 1 || p.SeatNumber > len(s.Positions) {
				return geometryErr(g.RoomID, "seat number %d outside 1..%d", p.SeatNumber, len(s.Positions))
			}
			if seen[p.SeatNumber] {
				return geometryErr(g.RoomID, "seat number %d defined twice", p.SeatNumber)
			}
			seen[p.SeatNumber] = true
			cell := [2]int{p.Row, p.Col}
			if other, dup := cells[cell]; dup {
				return geometryErr(g.RoomID, "seats %d and %d share cell (%d,%d)", other, p.SeatNumber, p.Row, p.Col)
			}
			cells[cell] = p.SeatNumber
		}
	case nil:
		return geometryErr(g.RoomID, "missing seat shape")
	default:
		return geometryErr(g.RoomID, "unsupported shape %T", s)
	}
	return nil
}

// Capacity is the number of seats the room offers.
func (g Geometry) Capacity() int { return g.TotalSeats }

// MaxGridDimensions returns (maxRow+1, maxCol+1), the size of a grid indexed
// directly by seat coordinates.  A room without seats yields (0, 0).
func (g Geometry) MaxGridDimensions() (rows, cols int) {
	switch s := g.Shape.(type) {
	case Dense:
		if s.Rows == 0 || s.Cols == 0 {
			return 0, 0
		}
		return s.Rows + 1, s.Cols + 1
	case Sparse:
		if len(s.Positions) == 0 {
			return 0, 0
		}
		maxRow, maxCol := 0, 0
		for _, p := range s.Positions {
			maxRow = max(maxRow, p.Row)
			maxCol = max(maxCol, p.Col)
		}
		return maxRow + 1, maxCol + 1
	}
	return 0, 0
}

// Extent returns the room's own row and column counts: the grid size for
// Dense, the highest row and column used for Sparse.
func (g Geometry) Extent() (rows, cols int) {
	switch s := g.Shape.(type) {
	case Dense:
		return s.Rows, s.Cols
	case Sparse:
		for _, p := range s.Positions {
			rows = max(rows, p.Row)
			cols = max(cols, p.Col)
		}
	}
	return rows, cols
}

type geometryJSON struct {
	RoomID     string     `json:"room_id"`
	Name       string     `json:"name"`
	TotalSeats int        `json:"total_seats"`
	Type       string     `json:"type"`
	Rows       int        `json:"rows,omitempty"`
	Cols       int        `json:"cols,omitempty"`
	Positions  []Position `json:"positions,omitempty"`
}

// MarshalJSON writes the geometry into the arrangement snapshot stored with a
// seating plan.
func (g Geometry) MarshalJSON() ([]byte, error) {
	out := geometryJSON{RoomID: g.RoomID, Name: g.Name, TotalSeats: g.TotalSeats}
	switch s := g.Shape.(type) {
	case Dense:
		out.Type, out.Rows, out.Cols = "dense", s.Rows, s.Cols
	case Sparse:
		out.Type, out.Positions = "sparse", s.Positions
	default:
		return nil, fmt.Errorf("seating: cannot marshal shape %T", g.Shape)
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads a snapshot written by MarshalJSON and validates it.
func (g *Geometry) UnmarshalJSON(b []byte) error {
	var in geometryJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	var shape Shape
	switch in.Type {
	case "dense":
		shape = Dense{Rows: in.Rows, Cols: in.Cols}
	case "sparse":
		shape = Sparse{Positions: in.Positions}
	default:
		return geometryErr(in.RoomID, "unknown shape type %q", in.Type)
	}
	parsed, err := NewGeometry(in.RoomID, in.Name, in.TotalSeats, shape)
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

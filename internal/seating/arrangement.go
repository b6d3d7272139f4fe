package seating

import (
	"cmp"
	"slices"
	"strings"
)

// Direction is the sweep order used to fill a dense grid.
type Direction string

const (
	Horizontal Direction = "horizontal" // row-major
	Vertical   Direction = "vertical"   // column-major
)

// ParseDirection maps the API value onto a Direction.  Empty means horizontal.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "horizontal":
		return Horizontal, nil
	case "vertical":
		return Vertical, nil
	}
	return "", ErrUnknownDirection
}

// Unnumbered is the GlobalNumber of a seat nobody sits on.
const Unnumbered = 0

// Seat is one cell of a room's arrangement.  LocalIndex is the room-local
// seat index; GlobalNumber is filled in by Number for occupied seats only.
type Seat struct {
	Row          int       `json:"row"`
	Col          int       `json:"col"`
	LocalIndex   int       `json:"local_index"`
	GlobalNumber int       `json:"global_seat_number,omitempty"`
	Occupant     *Examinee `json:"occupant"`
}

// Occupied reports whether an examinee was placed on the seat.
func (s Seat) Occupied() bool { return s.Occupant != nil }

// Arrange lays slice onto room's seats.  Sparse rooms ignore dir and follow
// their designed seat numbers; dense rooms are swept row-major (Horizontal)
// or column-major (Vertical).  Every seat is emitted, occupied or not, so the
// result can be drawn as a grid.  Any dir other than Vertical sweeps
// row-major.
func Arrange(room Geometry, slice []Examinee, dir Direction) []Seat {
	next := 0
	take := func() *Examinee {
		if next >= len(slice) {
			return nil
		}
		e := slice[next]
		next++
		return &e
	}

	switch s := room.Shape.(type) {
	case Sparse:
		positions := slices.Clone(s.Positions)
		slices.SortFunc(positions, func(a, b Position) int { return cmp.Compare(a.SeatNumber, b.SeatNumber) })
		seats := make([]Seat, 0, len(positions))
		for _, p := range positions {
			seats = append(seats, Seat{Row: p.Row, Col: p.Col, LocalIndex: p.SeatNumber, Occupant: take()})
		}
		return seats
	case Dense:
		seats := make([]Seat, 0, s.Rows*s.Cols)
		if dir == Vertical {
			for col := 1; col <= s.Cols; col++ {
				for row := 1; row <= s.Rows; row++ {
					seats = append(seats, Seat{Row: row, Col: col, LocalIndex: (col-1)*s.Rows + row, Occupant: take()})
				}
			}
			return seats
		}
		for row := 1; row <= s.Rows; row++ {
			for col := 1; col <= s.Cols; col++ {
				seats = append(seats, Seat{Row: row, Col: col, LocalIndex: (row-1)*s.Cols + col, Occupant: take()})
			}
		}
		return seats
	}
	return nil
}

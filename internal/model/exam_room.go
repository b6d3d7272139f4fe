package model

import (
	"fmt"
	"time"

	"github.com/iliyamo/exam-seating/internal/seating"
)

// Seat pattern types as stored in exam_rooms.seat_pattern.  "custom_layout"
// is the name older rooms were saved with and means the same as "custom".
const (
	PatternGrid         = "grid"
	PatternCustom       = "custom"
	PatternCustomLayout = "custom_layout"
)

// ExamRoom is a row of the `exam_rooms` table.  The seat layout is kept as a
// JSON document in seat_pattern.
type ExamRoom struct {
	ID          string      `json:"id"`           // exam_rooms.id
	Name        string      `json:"name"`         // exam_rooms.name
	RoomNumber  string      `json:"room_number"`  // exam_rooms.room_number
	TotalSeats  int         `json:"total_seats"`  // exam_rooms.total_seats
	SeatPattern SeatPattern `json:"seat_pattern"` // exam_rooms.seat_pattern (JSON)
	Description *string     `json:"description"`  // exam_rooms.description (nullable)
	CreatedAt   time.Time   `json:"created_at"`   // exam_rooms.created_at
	UpdatedAt   time.Time   `json:"updated_at"`   // exam_rooms.updated_at
}

// SeatPattern describes the room layout.  Grid rooms use Rows and Cols only;
// custom rooms list every seat in CustomLayout and keep Rows/Cols as the
// drawing size.
type SeatPattern struct {
	Type         string       `json:"type"`
	Rows         int          `json:"rows"`
	Cols         int          `json:"cols"`
	CustomLayout []LayoutSeat `json:"customLayout,omitempty"`
}

// LayoutSeat is one designed seat of a custom layout.
type LayoutSeat struct {
	GridRow    int `json:"gridRow"`
	GridCol    int `json:"gridCol"`
	SeatNumber int `json:"seatNumber"`
}

// IsCustom reports whether the pattern lists its seats explicitly.
func (p SeatPattern) IsCustom() bool {
	return p.Type == PatternCustom || p.Type == PatternCustomLayout
}

// Geometry converts the room into the allocation engine's representation.
// Inconsistent layouts are rejected with seating.ErrGeometryInvalid.
func (r ExamRoom) Geometry() (seating.Geometry, error) {
	var shape seating.Shape
	switch {
	case r.SeatPattern.IsCustom():
		positions := make([]seating.Position, len(r.SeatPattern.CustomLayout))
		for i, s := range r.SeatPattern.CustomLayout {
			positions[i] = seating.Position{Row: s.GridRow, Col: s.GridCol, SeatNumber: s.SeatNumber}
		}
		shape = seating.Sparse{Positions: positions}
	case r.SeatPattern.Type == PatternGrid || r.SeatPattern.Type == "":
		shape = seating.Dense{Rows: r.SeatPattern.Rows, Cols: r.SeatPattern.Cols}
	default:
		return seating.Geometry{}, &seating.GeometryError{
			RoomID: r.ID,
			Reason: fmt.Sprintf("unknown seat pattern type %q", r.SeatPattern.Type),
		}
	}
	return seating.NewGeometry(r.ID, r.Name, r.TotalSeats, shape)
}

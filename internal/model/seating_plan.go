package model

import (
	"encoding/json"
	"time"
)

// SeatingPlan is a row of the `seating_plans` table.  ArrangementData holds
// the JSON snapshot of every room's seat arrangement so a plan can be shown
// again exactly as it was allocated.
type SeatingPlan struct {
	ID              string          `json:"id"`               // seating_plans.id (uuid)
	SessionID       string          `json:"session_id"`       // seating_plans.session_id
	PlanName        string          `json:"plan_name"`        // seating_plans.plan_name
	SeatingPattern  string          `json:"seating_pattern"`  // sequential | random | custom
	Direction       string          `json:"direction"`        // horizontal | vertical
	RoomRows        int             `json:"room_rows"`        // most rows of any room in the plan
	RoomCols        int             `json:"room_cols"`        // most columns of any room in the plan
	ArrangementData json.RawMessage `json:"arrangement_data"` // seating_plans.arrangement_data (JSON)
	ExamCount       int             `json:"exam_count"`       // seated examinees
	ExamRoomName    string          `json:"exam_room_name"`   // comma separated room names
	TotalExaminees  int             `json:"total_examinees"`  // requested total
	CreatedBy       *uint64         `json:"created_by"`       // users.id (nullable)
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// SeatAssignment links one examinee to one seat of a plan.  SeatNumber is
// the plan-wide seat number.
type SeatAssignment struct {
	ID         uint64 `json:"id"`          // seat_assignments.id
	SessionID  string `json:"session_id"`  // seat_assignments.session_id
	PlanID     string `json:"plan_id"`     // seat_assignments.plan_id
	RoomID     string `json:"room_id"`     // seat_assignments.room_id
	ExamineeID uint64 `json:"examinee_id"` // seat_assignments.examinee_id
	SeatRow    int    `json:"seat_row"`    // seat_assignments.seat_row
	SeatCol    int    `json:"seat_col"`    // seat_assignments.seat_col
	SeatNumber int    `json:"seat_number"` // seat_assignments.seat_number
}

// SeatListing is a seat assignment joined with its examinee and room, used
// for seat lists and exports.
type SeatListing struct {
	SeatAssignment
	RoomName string   `json:"room_name"`
	Examinee Examinee `json:"examinee"`
}

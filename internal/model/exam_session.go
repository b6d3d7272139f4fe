package model

import "time"

// Exam shifts and the times they imply when none are given.
const (
	ShiftMorning   = "morning"
	ShiftAfternoon = "afternoon"
)

// ExamSession is a row of the `exam_sessions` table: one sitting of an
// exam on a date and shift.  Seating plans hang off a session.
type ExamSession struct {
	ID          string    `json:"id"`          // exam_sessions.id (uuid)
	Name        string    `json:"name"`        // exam_sessions.name
	ExamDate    time.Time `json:"exam_date"`   // exam_sessions.exam_date
	Shift       string    `json:"shift"`       // exam_sessions.shift
	StartTime   string    `json:"start_time"`  // exam_sessions.start_time (HH:MM:SS)
	EndTime     string    `json:"end_time"`    // exam_sessions.end_time (HH:MM:SS)
	Description *string   `json:"description"` // exam_sessions.description (nullable)
	CreatedAt   time.Time `json:"created_at"`  // exam_sessions.created_at
	UpdatedAt   time.Time `json:"updated_at"`  // exam_sessions.updated_at
}

// ShiftTimes returns the default start and end time of a shift.
func ShiftTimes(shift string) (start, end string, ok bool) {
	switch shift {
	case ShiftMorning:
		return "09:00:00", "12:00:00", true
	case ShiftAfternoon:
		return "13:00:00", "16:00:00", true
	}
	return "", "", false
}

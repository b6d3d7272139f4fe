package model

import (
	"strings"
	"time"

	"github.com/iliyamo/exam-seating/internal/seating"
)

// Examinee is a row of the `examinees` table: a candidate who can be seated
// in an exam session.
type Examinee struct {
	ID             uint64    `json:"id"`              // examinees.id
	ExamineeNumber string    `json:"examinee_number"` // examinees.examinee_number
	IDCardNumber   string    `json:"id_card_number"`  // examinees.id_card_number
	Title          string    `json:"title"`           // examinees.title
	FirstName      string    `json:"first_name"`      // examinees.first_name
	LastName       string    `json:"last_name"`       // examinees.last_name
	Gender         string    `json:"gender"`          // examinees.gender
	Phone          string    `json:"phone"`           // examinees.phone
	Email          string    `json:"email"`           // examinees.email
	Nationality    string    `json:"nationality"`     // examinees.nationality
	SpecialNeeds   *string   `json:"special_needs"`   // examinees.special_needs (nullable)
	CreatedAt      time.Time `json:"created_at"`      // examinees.created_at
}

// FullName joins title, first and last name the way seat lists print them.
func (e Examinee) FullName() string {
	return strings.TrimSpace(strings.Join(strings.Fields(e.Title+" "+e.FirstName+" "+e.LastName), " "))
}

// Token wraps the examinee for the allocation engine.  The numeric ID is the
// ordering key.
func (e Examinee) Token() seating.Examinee {
	return seating.Examinee{Key: int64(e.ID), Payload: e}
}

// Tokens converts a list of examinees, preserving order.
func Tokens(es []Examinee) []seating.Examinee {
	out := make([]seating.Examinee, len(es))
	for i, e := range es {
		out[i] = e.Token()
	}
	return out
}

// Package queue defines the broker payloads and the background consumer
// that records them.
package queue

// PlanCreatedQueue is the durable queue plan events are routed to.
const PlanCreatedQueue = "seating.plan_created"

// PlanCreatedEvent is published after a seating plan and its assignments
// were stored.  It carries enough for an audit line without a database
// lookup.
type PlanCreatedEvent struct {
	PlanID         string   `json:"plan_id"`
	SessionID      string   `json:"session_id"`
	PlanName       string   `json:"plan_name"`
	Policy         string   `json:"policy"`
	Direction      string   `json:"direction"`
	Rooms          []string `json:"rooms"`
	TotalAllocated int      `json:"total_allocated"`
	Requested      int      `json:"requested"`
	CreatedBy      uint64   `json:"created_by"`
	CreatedAt      string   `json:"created_at"`
}

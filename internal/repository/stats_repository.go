package repository

import (
	"context"
	"database/sql"
)

// DashboardStats are the headline counts of the dashboard.
type DashboardStats struct {
	ExamRooms    int `json:"exam_rooms"`
	Examinees    int `json:"examinees"`
	SeatingPlans int `json:"seating_plans"`
	ExamSessions int `json:"exam_sessions"`
}

// RoomUsage summarises how often a room was used by seating plans.
type RoomUsage struct {
	RoomID          string  `json:"room_id"`
	Room            string  `json:"room"`
	UsageCount      int     `json:"usage_count"`
	TotalExaminees  int     `json:"total_examinees"`
	AvgExaminees    float64 `json:"avg_examinees"`
	Capacity        int     `json:"capacity"`
	UtilizationRate float64 `json:"utilization_rate"`
}

// StatsRepo runs the read-only aggregate queries behind the dashboard.
type StatsRepo struct {
	db *sql.DB
}

func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db} }

// Totals counts rows of the four main tables.
func (r *StatsRepo) Totals(ctx context.Context) (DashboardStats, error) {
	var s DashboardStats
	const q = `SELECT
	             (SELECT COUNT(*) FROM exam_rooms),
	             (SELECT COUNT(*) FROM examinees),
	             (SELECT COUNT(*) FROM seating_plans),
	             (SELECT COUNT(*) FROM exam_sessions)`
	err := r.db.QueryRowContext(ctx, q).Scan(&s.ExamRooms, &s.Examinees, &s.SeatingPlans, &s.ExamSessions)
	return s, err
}

// RoomUsage returns per-room usage ordered by usage count.  Utilization is
// the average number of seated examinees per use as a percentage of the
// room's capacity.
func (r *StatsRepo) RoomUsage(ctx context.Context) ([]RoomUsage, error) {
	const q = `SELECT er.id, er.name, er.total_seats,
	                  COUNT(DISTINCT sa.plan_id), COUNT(sa.id)
	           FROM exam_rooms er
	           LEFT JOIN seat_assignments sa ON sa.room_id = er.id
	           GROUP BY er.id, er.name, er.total_seats
	           ORDER BY COUNT(DISTINCT sa.plan_id) DESC, er.id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RoomUsage
	for rows.Next() {
		var u RoomUsage
		if err := rows.Scan(&u.RoomID, &u.Room, &u.Capacity, &u.UsageCount, &u.TotalExaminees); err != nil {
			return nil, err
		}
		u.AvgExaminees, u.UtilizationRate = usageRates(u.UsageCount, u.TotalExaminees, u.Capacity)
		out = append(out, u)
	}
	return out, rows.Err()
}

func usageRates(uses, seated, capacity int) (avg, rate float64) {
	if uses == 0 {
		return 0, 0
	}
	avg = float64(seated) / float64(uses)
	if capacity > 0 {
		rate = avg / float64(capacity) * 100
	}
	return avg, rate
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/exam-seating/internal/model"
)

// ErrPlanNotFound is returned when a seating plan lookup fails.
var ErrPlanNotFound = errors.New("seating plan not found")

// assignmentBatch caps the rows per multi-row INSERT so large plans stay
// under max_allowed_packet.
const assignmentBatch = 500

// PlanRepo stores seating plans and their seat assignments.
type PlanRepo struct {
	db *sql.DB
}

func NewPlanRepo(db *sql.DB) *PlanRepo { return &PlanRepo{db: db} }

const planColumns = `id, session_id, plan_name, seating_pattern, direction, room_rows, room_cols, arrangement_data,
	exam_count, exam_room_name, total_examinees, created_by, created_at, updated_at`

func scanPlan(s rowScanner) (*model.SeatingPlan, error) {
	var (
		p         model.SeatingPlan
		data      []byte
		createdBy sql.NullInt64
	)
	err := s.Scan(&p.ID, &p.SessionID, &p.PlanName, &p.SeatingPattern, &p.Direction, &p.RoomRows, &p.RoomCols, &data,
		&p.ExamCount, &p.ExamRoomName, &p.TotalExaminees, &createdBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.ArrangementData = data
	if createdBy.Valid {
		id := uint64(createdBy.Int64)
		p.CreatedBy = &id
	}
	return &p, nil
}

// SaveAllocation stores a plan row and all of its seat assignments in one
// transaction.  The plan ID is generated when empty and copied onto every
// assignment.
func (r *PlanRepo) SaveAllocation(ctx context.Context, p *model.SeatingPlan, seats []model.SeatAssignment) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const q = `INSERT INTO seating_plans (id, session_id, plan_name, seating_pattern, direction, room_rows, room_cols,
	           arrangement_data, exam_count, exam_room_name, total_examinees, created_by)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, q, p.ID, p.SessionID, p.PlanName, p.SeatingPattern, p.Direction, p.RoomRows, p.RoomCols,
		[]byte(p.ArrangementData), p.ExamCount, p.ExamRoomName, p.TotalExaminees, p.CreatedBy); err != nil {
		return err
	}
	for i := range seats {
		seats[i].PlanID = p.ID
		seats[i].SessionID = p.SessionID
	}
	for start := 0; start < len(seats); start += assignmentBatch {
		end := min(start+assignmentBatch, len(seats))
		if err := insertAssignmentsTx(ctx, tx, seats[start:end]); err != nil {
			return err
		}
	}
	if err := tx.QueryRowContext(ctx, `SELECT created_at, updated_at FROM seating_plans WHERE id = ?`, p.ID).
		Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return err
	}
	return tx.Commit()
}

func insertAssignmentsTx(ctx context.Context, tx *sql.Tx, seats []model.SeatAssignment) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO seat_assignments (session_id, plan_id, room_id, examinee_id, seat_row, seat_col, seat_number) VALUES `
	args := make([]any, 0, len(seats)*7)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?, ?)"
		args = append(args, s.SessionID, s.PlanID, s.RoomID, s.ExamineeID, s.SeatRow, s.SeatCol, s.SeatNumber)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	if isDuplicateKey(err) {
		return ErrConflict
	}
	return err
}

// GetByID returns ErrPlanNotFound when no row matches.
func (r *PlanRepo) GetByID(ctx context.Context, id string) (*model.SeatingPlan, error) {
	p, err := scanPlan(r.db.QueryRowContext(ctx, `SELECT `+planColumns+` FROM seating_plans WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return p, nil
}

// ListBySession returns the plans of one session, newest first.
func (r *PlanRepo) ListBySession(ctx context.Context, sessionID string) ([]*model.SeatingPlan, error) {
	return r.query(ctx, `SELECT `+planColumns+` FROM seating_plans WHERE session_id = ? ORDER BY created_at DESC, id`, sessionID)
}

// List returns every plan, newest first.
func (r *PlanRepo) List(ctx context.Context) ([]*model.SeatingPlan, error) {
	return r.query(ctx, `SELECT `+planColumns+` FROM seating_plans ORDER BY created_at DESC, id`)
}

func (r *PlanRepo) query(ctx context.Context, q string, args ...any) ([]*model.SeatingPlan, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.SeatingPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Delete removes the plan's assignments and then the plan.
func (r *PlanRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM seat_assignments WHERE plan_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM seating_plans WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPlanNotFound
	}
	return tx.Commit()
}

// AssignmentFilter narrows a plan's seat listing.  Query matches the
// examinee number or ID card exactly, names and email by substring, and
// the seat number when it is numeric.  Zero values match everything.
type AssignmentFilter struct {
	Query      string
	SeatNumber int
}

const listingSelect = `SELECT sa.id, sa.session_id, sa.plan_id, sa.room_id, sa.examinee_id, sa.seat_row, sa.seat_col, sa.seat_number,
	                  er.name,
	                  e.id, e.examinee_number, e.id_card_number, e.title, e.first_name, e.last_name, e.gender,
	                  e.phone, e.email, e.nationality, e.special_needs, e.created_at
	           FROM seat_assignments sa
	           JOIN examinees e ON e.id = sa.examinee_id
	           JOIN exam_rooms er ON er.id = sa.room_id
	           WHERE sa.plan_id = ?`

// ListAssignments returns the plan's seats joined with examinee and room,
// ordered by plan-wide seat number.
func (r *PlanRepo) ListAssignments(ctx context.Context, planID string) ([]model.SeatListing, error) {
	return r.listings(ctx, listingSelect+` ORDER BY sa.seat_number`, planID)
}

// SearchAssignments is ListAssignments restricted by f.
func (r *PlanRepo) SearchAssignments(ctx context.Context, planID string, f AssignmentFilter) ([]model.SeatListing, error) {
	q := listingSelect
	args := []any{planID}
	if f.SeatNumber > 0 {
		q += ` AND sa.seat_number = ?`
		args = append(args, f.SeatNumber)
	}
	if term := strings.TrimSpace(f.Query); term != "" {
		like := "%" + escapeLike(term) + "%"
		cond := `e.examinee_number = ? OR e.id_card_number = ? OR e.first_name LIKE ? OR e.last_name LIKE ? OR e.email LIKE ?`
		args = append(args, term, term, like, like, like)
		if n, err := strconv.Atoi(term); err == nil && n > 0 {
			cond += ` OR sa.seat_number = ?`
			args = append(args, n)
		}
		q += ` AND (` + cond + `)`
	}
	return r.listings(ctx, q+` ORDER BY sa.seat_number`, args...)
}

// escapeLike makes %, _ and the escape character itself literal.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *PlanRepo) listings(ctx context.Context, q string, args ...any) ([]model.SeatListing, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SeatListing
	for rows.Next() {
		var (
			l     model.SeatListing
			needs sql.NullString
		)
		e := &l.Examinee
		if err := rows.Scan(&l.ID, &l.SessionID, &l.PlanID, &l.RoomID, &l.ExamineeID, &l.SeatRow, &l.SeatCol, &l.SeatNumber,
			&l.RoomName,
			&e.ID, &e.ExamineeNumber, &e.IDCardNumber, &e.Title, &e.FirstName, &e.LastName, &e.Gender,
			&e.Phone, &e.Email, &e.Nationality, &needs, &e.CreatedAt); err != nil {
			return nil, err
		}
		if needs.Valid {
			n := needs.String
			e.SpecialNeeds = &n
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/iliyamo/exam-seating/internal/model"
)

// ErrSessionNotFound is returned when an exam session lookup fails.
var ErrSessionNotFound = errors.New("exam session not found")

// SessionRepo stores exam sessions.
type SessionRepo struct {
	db *sql.DB
}

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

const sessionColumns = `id, name, exam_date, shift, start_time, end_time, description, created_at, updated_at`

func scanSession(s rowScanner) (*model.ExamSession, error) {
	var (
		es   model.ExamSession
		desc sql.NullString
	)
	if err := s.Scan(&es.ID, &es.Name, &es.ExamDate, &es.Shift, &es.StartTime, &es.EndTime, &desc, &es.CreatedAt, &es.UpdatedAt); err != nil {
		return nil, err
	}
	if desc.Valid {
		d := desc.String
		es.Description = &d
	}
	return &es, nil
}

// Create inserts a session, assigning a UUID when ID is empty.
func (r *SessionRepo) Create(ctx context.Context, s *model.ExamSession) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	const q = `INSERT INTO exam_sessions (id, name, exam_date, shift, start_time, end_time, description)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, s.ID, s.Name, s.ExamDate, s.Shift, s.StartTime, s.EndTime, s.Description); err != nil {
		return err
	}
	return r.db.QueryRowContext(ctx, `SELECT created_at, updated_at FROM exam_sessions WHERE id = ?`, s.ID).
		Scan(&s.CreatedAt, &s.UpdatedAt)
}

// GetByID returns ErrSessionNotFound when no row matches.
func (r *SessionRepo) GetByID(ctx context.Context, id string) (*model.ExamSession, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM exam_sessions WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return s, nil
}

// List returns sessions by exam date then start time.
func (r *SessionRepo) List(ctx context.Context) ([]*model.ExamSession, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+sessionColumns+` FROM exam_sessions ORDER BY exam_date, start_time, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.ExamSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Update overwrites the editable fields.
func (r *SessionRepo) Update(ctx context.Context, s *model.ExamSession) error {
	const q = `UPDATE exam_sessions
	           SET name = ?, exam_date = ?, shift = ?, start_time = ?, end_time = ?, description = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, s.Name, s.ExamDate, s.Shift, s.StartTime, s.EndTime, s.Description, s.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Delete removes a session without plans.  ErrConflict is returned while
// seating plans still belong to it.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	var plans int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM seating_plans WHERE session_id = ?`, id).Scan(&plans); err != nil {
		return err
	}
	if plans > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM exam_sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

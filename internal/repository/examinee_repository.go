package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/exam-seating/internal/model"
)

// ErrDuplicateExaminee is returned when an import contains an examinee
// number that already exists.
var ErrDuplicateExaminee = errors.New("examinee number already exists")

// ExamineeRepo provides access to the examinees table.
type ExamineeRepo struct {
	db *sql.DB
}

func NewExamineeRepo(db *sql.DB) *ExamineeRepo { return &ExamineeRepo{db: db} }

const examineeColumns = `id, examinee_number, id_card_number, title, first_name, last_name, gender, phone, email, nationality, special_needs, created_at`

func scanExaminee(s rowScanner) (model.Examinee, error) {
	var (
		e     model.Examinee
		needs sql.NullString
	)
	err := s.Scan(&e.ID, &e.ExamineeNumber, &e.IDCardNumber, &e.Title, &e.FirstName, &e.LastName,
		&e.Gender, &e.Phone, &e.Email, &e.Nationality, &needs, &e.CreatedAt)
	if err != nil {
		return e, err
	}
	if needs.Valid {
		n := needs.String
		e.SpecialNeeds = &n
	}
	return e, nil
}

// List returns examinees ordered by id, the order sequential seating uses.
// A limit of zero returns every row.
func (r *ExamineeRepo) List(ctx context.Context, limit, offset int) ([]model.Examinee, error) {
	q := `SELECT ` + examineeColumns + ` FROM examinees ORDER BY id`
	var args []any
	if limit > 0 {
		q += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}
	return r.query(ctx, q, args...)
}

// Count returns the number of examinees.
func (r *ExamineeRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM examinees`).Scan(&n)
	return n, err
}

// GetByIDs loads the given examinees ordered by id.  Missing IDs are
// skipped.
func (r *ExamineeRepo) GetByIDs(ctx context.Context, ids []uint64) ([]model.Examinee, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	q := `SELECT ` + examineeColumns + ` FROM examinees WHERE id IN (?` + strings.Repeat(",?", len(ids)-1) + `) ORDER BY id`
	return r.query(ctx, q, args...)
}

func (r *ExamineeRepo) query(ctx context.Context, q string, args ...any) ([]model.Examinee, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Examinee
	for rows.Next() {
		e, err := scanExaminee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CreateBulk inserts all examinees in one transaction with a single
// multi-row statement.  Nothing is stored if any row is rejected.
func (r *ExamineeRepo) CreateBulk(ctx context.Context, es []model.Examinee) (int, error) {
	if len(es) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	query := `INSERT INTO examinees (examinee_number, id_card_number, title, first_name, last_name, gender, phone, email, nationality, special_needs) VALUES `
	args := make([]any, 0, len(es)*10)
	for i, e := range es {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
		args = append(args, e.ExamineeNumber, e.IDCardNumber, e.Title, e.FirstName, e.LastName,
			e.Gender, e.Phone, e.Email, e.Nationality, e.SpecialNeeds)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrDuplicateExaminee
		}
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

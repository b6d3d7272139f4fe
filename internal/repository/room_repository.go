package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/exam-seating/internal/model"
)

// ErrRoomNotFound is returned when a room lookup fails.
var ErrRoomNotFound = errors.New("room not found")

// RoomRepo stores exam rooms.  The seat pattern is persisted as JSON.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo constructs a RoomRepo with the given DB handle.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

const roomColumns = `id, name, room_number, total_seats, seat_pattern, description, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(s rowScanner) (*model.ExamRoom, error) {
	var (
		r       model.ExamRoom
		pattern []byte
		desc    sql.NullString
	)
	if err := s.Scan(&r.ID, &r.Name, &r.RoomNumber, &r.TotalSeats, &pattern, &desc, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	if len(pattern) > 0 {
		if err := json.Unmarshal(pattern, &r.SeatPattern); err != nil {
			return nil, err
		}
	}
	if desc.Valid {
		d := desc.String
		r.Description = &d
	}
	return &r, nil
}

// Create inserts a room.  A UUID is assigned when ID is empty.  Timestamps
// are read back after the insert.
func (r *RoomRepo) Create(ctx context.Context, room *model.ExamRoom) error {
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	pattern, err := json.Marshal(room.SeatPattern)
	if err != nil {
		return err
	}
	const q = `INSERT INTO exam_rooms (id, name, room_number, total_seats, seat_pattern, description)
	           VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, room.ID, room.Name, room.RoomNumber, room.TotalSeats, pattern, room.Description); err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	return r.db.QueryRowContext(ctx, `SELECT created_at, updated_at FROM exam_rooms WHERE id = ?`, room.ID).
		Scan(&room.CreatedAt, &room.UpdatedAt)
}

// GetByID returns ErrRoomNotFound when no row matches.
func (r *RoomRepo) GetByID(ctx context.Context, id string) (*model.ExamRoom, error) {
	room, err := scanRoom(r.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM exam_rooms WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return room, nil
}

// List returns all rooms ordered by room number.
func (r *RoomRepo) List(ctx context.Context) ([]*model.ExamRoom, error) {
	return r.query(ctx, `SELECT `+roomColumns+` FROM exam_rooms ORDER BY room_number, id`)
}

// ListByIDs loads the given rooms.  Unknown IDs yield ErrRoomNotFound so an
// allocation never silently runs with fewer rooms than selected.
func (r *RoomRepo) ListByIDs(ctx context.Context, ids []string) ([]*model.ExamRoom, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	q := `SELECT ` + roomColumns + ` FROM exam_rooms WHERE id IN (?` + strings.Repeat(",?", len(ids)-1) + `) ORDER BY id`
	rooms, err := r.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	found := make(map[string]bool, len(rooms))
	for _, room := range rooms {
		found[room.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return nil, ErrRoomNotFound
		}
	}
	return rooms, nil
}

func (r *RoomRepo) query(ctx context.Context, q string, args ...any) ([]*model.ExamRoom, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.ExamRoom
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	return out, rows.Err()
}

// Update overwrites the editable fields.  Returns ErrRoomNotFound when the
// room does not exist.
func (r *RoomRepo) Update(ctx context.Context, room *model.ExamRoom) error {
	pattern, err := json.Marshal(room.SeatPattern)
	if err != nil {
		return err
	}
	const q = `UPDATE exam_rooms
	           SET name = ?, room_number = ?, total_seats = ?, seat_pattern = ?, description = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, room.Name, room.RoomNumber, room.TotalSeats, pattern, room.Description, room.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// Delete removes a room that no seating plan references.  ErrConflict is
// returned when seat assignments still point at it.
func (r *RoomRepo) Delete(ctx context.Context, id string) error {
	var used int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM seat_assignments WHERE room_id = ?`, id).Scan(&used); err != nil {
		return err
	}
	if used > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM exam_rooms WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRoomNotFound
	}
	return nil
}

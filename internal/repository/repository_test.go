package repository

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/exam-seating/internal/model"
)

func newMock(t *testing.T) (sqlmock.Sqlmock, func() *RoomRepo) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return mock, func() *RoomRepo { return NewRoomRepo(db) }
}

func roomRow(id, name string, total int, pattern string) []driver.Value {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return []driver.Value{id, name, "R-" + id, total, []byte(pattern), nil, now, now}
}

var roomCols = []string{"id", "name", "room_number", "total_seats", "seat_pattern", "description", "created_at", "updated_at"}

func TestRoomRepoGetByID(t *testing.T) {
	mock, repo := newMock(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("FROM exam_rooms WHERE id = ?")).
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows(roomCols).AddRow(roomRow("r1", "Hall 1", 6, `{"type":"grid","rows":2,"cols":3}`)...))
	mock.ExpectQuery(regexp.QuoteMeta("FROM exam_rooms WHERE id = ?")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(roomCols))

	room, err := repo().GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, model.SeatPattern{Type: "grid", Rows: 2, Cols: 3}, room.SeatPattern)
	assert.Nil(t, room.Description)

	_, err = repo().GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepoListByIDsRequiresAll(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id IN (?,?)")).
		WithArgs("a", "b").
		WillReturnRows(sqlmock.NewRows(roomCols).AddRow(roomRow("a", "A", 1, `{"type":"grid","rows":1,"cols":1}`)...))

	_, err := repo().ListByIDs(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepoDeleteInUse(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM seat_assignments WHERE room_id = ?")).
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(3))

	err := repo().Delete(context.Background(), "r1")
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepoCreateAssignsID(t *testing.T) {
	mock, repo := newMock(t)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO exam_rooms")).
		WithArgs(sqlmock.AnyArg(), "Hall", "101", 4, []byte(`{"type":"grid","rows":2,"cols":2}`), nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT created_at, updated_at FROM exam_rooms")).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	room := &model.ExamRoom{Name: "Hall", RoomNumber: "101", TotalSeats: 4,
		SeatPattern: model.SeatPattern{Type: "grid", Rows: 2, Cols: 2}}
	require.NoError(t, repo().Create(context.Background(), room))
	assert.Len(t, room.ID, 36)
	assert.Equal(t, now, room.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanRepoSaveAllocation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPlanRepo(db)
	now := time.Now().UTC()

	seats := make([]model.SeatAssignment, assignmentBatch+2)
	for i := range seats {
		seats[i] = model.SeatAssignment{RoomID: "r1", ExamineeID: uint64(i + 1), SeatRow: 1, SeatCol: i + 1, SeatNumber: i + 1}
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO seating_plans")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO seat_assignments")).
		WillReturnResult(sqlmock.NewResult(1, assignmentBatch))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO seat_assignments")).
		WillReturnResult(sqlmock.NewResult(501, 2))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT created_at, updated_at FROM seating_plans")).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectCommit()

	plan := &model.SeatingPlan{SessionID: "s1", PlanName: "Morning", ArrangementData: json.RawMessage(`[]`)}
	require.NoError(t, repo.SaveAllocation(context.Background(), plan, seats))
	assert.NotEmpty(t, plan.ID)
	assert.Equal(t, plan.ID, seats[0].PlanID)
	assert.Equal(t, "s1", seats[len(seats)-1].SessionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanRepoSaveAllocationRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO seating_plans")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO seat_assignments")).
		WillReturnError(errors.New("Error 1062: Duplicate entry"))
	mock.ExpectRollback()

	err = NewPlanRepo(db).SaveAllocation(context.Background(), &model.SeatingPlan{SessionID: "s1"},
		[]model.SeatAssignment{{RoomID: "r1", ExamineeID: 1, SeatNumber: 1}})
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanRepoDeleteMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM seat_assignments WHERE plan_id = ?")).
		WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM seating_plans WHERE id = ?")).
		WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	assert.ErrorIs(t, NewPlanRepo(db).Delete(context.Background(), "p1"), ErrPlanNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamineeRepoCreateBulkDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO examinees")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'E001'"})
	mock.ExpectRollback()

	_, err = NewExamineeRepo(db).CreateBulk(context.Background(), []model.Examinee{{ExamineeNumber: "E001"}, {ExamineeNumber: "E001"}})
	assert.ErrorIs(t, err, ErrDuplicateExaminee)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamineeRepoGetByIDs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cols := []string{"id", "examinee_number", "id_card_number", "title", "first_name", "last_name",
		"gender", "phone", "email", "nationality", "special_needs", "created_at"}
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM examinees WHERE id IN (?,?) ORDER BY id")).
		WithArgs(uint64(9), uint64(3)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(3, "E003", "1103", "Ms", "Ann", "Lee", "F", "", "", "TH", nil, now).
			AddRow(9, "E009", "1109", "Mr", "Bo", "Kim", "M", "", "", "TH", "wheelchair", now))

	es, err := NewExamineeRepo(db).GetByIDs(context.Background(), []uint64{9, 3})
	require.NoError(t, err)
	require.Len(t, es, 2)
	assert.Equal(t, uint64(3), es[0].ID)
	assert.Nil(t, es[0].SpecialNeeds)
	require.NotNil(t, es[1].SpecialNeeds)
	assert.Equal(t, "wheelchair", *es[1].SpecialNeeds)
	assert.NoError(t, mock.ExpectationsWereMet())

	es, err = NewExamineeRepo(db).GetByIDs(context.Background(), nil)
	assert.NoError(t, err)
	assert.Empty(t, es)
}

func TestStatsRepoRoomUsage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM exam_rooms er")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "total_seats", "uses", "seated"}).
			AddRow("a", "Hall A", 40, 2, 60).
			AddRow("b", "Hall B", 10, 0, 0))

	usage, err := NewStatsRepo(db).RoomUsage(context.Background())
	require.NoError(t, err)
	require.Len(t, usage, 2)
	assert.Equal(t, 30.0, usage[0].AvgExaminees)
	assert.Equal(t, 75.0, usage[0].UtilizationRate)
	assert.Zero(t, usage[1].UtilizationRate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepoRotate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTokenRepo(db)
	exp := time.Now().Add(time.Hour)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked_at=NOW()")).
		WithArgs("old", uint64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO refresh_tokens")).
		WithArgs(uint64(7), "new", exp).WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()
	require.NoError(t, repo.Rotate(context.Background(), 7, "old", "new", exp))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked_at=NOW()")).
		WithArgs("old", uint64(7)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()
	assert.ErrorIs(t, repo.Rotate(context.Background(), 7, "old", "new", exp), ErrTokenInvalid)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoSetActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewUserRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET is_active = ? WHERE id = ?")).
		WithArgs(false, uint64(4)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked_at = NOW() WHERE user_id = ?")).
		WithArgs(uint64(4)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()
	require.NoError(t, repo.SetActive(context.Background(), 4, false))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET is_active = ? WHERE id = ?")).
		WithArgs(true, uint64(5)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM users WHERE id = ?")).
		WithArgs(uint64(5)).WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectRollback()
	assert.ErrorIs(t, repo.SetActive(context.Background(), 5, true), ErrUserNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoGetByEmailNormalises(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = ?")).
		WithArgs("head@school.org").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "is_active", "created_at", "updated_at"}))

	_, err = NewUserRepo(db).GetByEmail(context.Background(), "  Head@School.org ")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

var listingCols = []string{"id", "session_id", "plan_id", "room_id", "examinee_id", "seat_row", "seat_col", "seat_number",
	"name", "e_id", "examinee_number", "id_card_number", "title", "first_name", "last_name", "gender",
	"phone", "email", "nationality", "special_needs", "created_at"}

func TestPlanRepoSearchAssignments(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPlanRepo(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(
		"WHERE sa.plan_id = ? AND (e.examinee_number = ? OR e.id_card_number = ? OR e.first_name LIKE ? OR e.last_name LIKE ? OR e.email LIKE ?) ORDER BY sa.seat_number")).
		WithArgs("p1", "ann_a", "ann_a", `%ann\_a%`, `%ann\_a%`, `%ann\_a%`).
		WillReturnRows(sqlmock.NewRows(listingCols).
			AddRow(4, "s1", "p1", "r1", 3, 1, 2, 2, "Hall 1", 3, "E003", "1103", "Ms", "Ann_a", "Lee", "F", "", "", "TH", nil, now))

	got, err := repo.SearchAssignments(context.Background(), "p1", AssignmentFilter{Query: " ann_a "})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Hall 1", got[0].RoomName)
	assert.Equal(t, "Ann_a", got[0].Examinee.FirstName)

	mock.ExpectQuery(regexp.QuoteMeta(
		"WHERE sa.plan_id = ? AND sa.seat_number = ? AND (e.examinee_number = ? OR e.id_card_number = ? OR e.first_name LIKE ? OR e.last_name LIKE ? OR e.email LIKE ? OR sa.seat_number = ?)")).
		WithArgs("p1", 12, "12", "12", "%12%", "%12%", "%12%", 12).
		WillReturnRows(sqlmock.NewRows(listingCols))

	got, err = repo.SearchAssignments(context.Background(), "p1", AssignmentFilter{Query: "12", SeatNumber: 12})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepoDeleteInUse(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM seating_plans WHERE session_id = ?")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))

	assert.ErrorIs(t, NewSessionRepo(db).Delete(context.Background(), "s1"), ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

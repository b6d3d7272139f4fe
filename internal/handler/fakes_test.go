package handler

import (
	"context"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/exam-seating/internal/model"
	"github.com/iliyamo/exam-seating/internal/queue"
	"github.com/iliyamo/exam-seating/internal/repository"
)

type fakeRooms struct {
	rooms map[string]*model.ExamRoom
}

func (f *fakeRooms) Create(_ context.Context, r *model.ExamRoom) error {
	if r.ID == "" {
		r.ID = "new-room"
	}
	f.rooms[r.ID] = r
	return nil
}

func (f *fakeRooms) GetByID(_ context.Context, id string) (*model.ExamRoom, error) {
	r, ok := f.rooms[id]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}
	return r, nil
}

func (f *fakeRooms) List(context.Context) ([]*model.ExamRoom, error) {
	var out []*model.ExamRoom
	for _, r := range f.rooms {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRooms) ListByIDs(_ context.Context, ids []string) ([]*model.ExamRoom, error) {
	var out []*model.ExamRoom
	for _, id := range ids {
		r, ok := f.rooms[id]
		if !ok {
			return nil, repository.ErrRoomNotFound
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRooms) Update(_ context.Context, r *model.ExamRoom) error {
	if _, ok := f.rooms[r.ID]; !ok {
		return repository.ErrRoomNotFound
	}
	f.rooms[r.ID] = r
	return nil
}

func (f *fakeRooms) Delete(_ context.Context, id string) error {
	if _, ok := f.rooms[id]; !ok {
		return repository.ErrRoomNotFound
	}
	delete(f.rooms, id)
	return nil
}

type fakeExaminees struct {
	list []model.Examinee
}

func (f *fakeExaminees) List(_ context.Context, limit, offset int) ([]model.Examinee, error) {
	if limit <= 0 {
		return f.list, nil
	}
	if offset >= len(f.list) {
		return nil, nil
	}
	return f.list[offset:min(len(f.list), offset+limit)], nil
}

func (f *fakeExaminees) Count(context.Context) (int, error) { return len(f.list), nil }

func (f *fakeExaminees) GetByIDs(_ context.Context, ids []uint64) ([]model.Examinee, error) {
	want := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []model.Examinee
	for _, e := range f.list {
		if want[e.ID] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeExaminees) CreateBulk(_ context.Context, es []model.Examinee) (int, error) {
	f.list = append(f.list, es...)
	return len(es), nil
}

type fakeSessions struct {
	sessions map[string]*model.ExamSession
}

func (f *fakeSessions) Create(_ context.Context, s *model.ExamSession) error {
	s.ID = "new-session"
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeSessions) GetByID(_ context.Context, id string) (*model.ExamSession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeSessions) List(context.Context) ([]*model.ExamSession, error) { return nil, nil }

func (f *fakeSessions) Update(_ context.Context, s *model.ExamSession) error {
	if _, ok := f.sessions[s.ID]; !ok {
		return repository.ErrSessionNotFound
	}
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeSessions) Delete(context.Context, string) error { return repository.ErrConflict }

type fakePlans struct {
	plans   map[string]*model.SeatingPlan
	seats   map[string][]model.SeatListing
	saved   []model.SeatAssignment
	deleted []string
	saveErr error
}

func newFakePlans() *fakePlans {
	return &fakePlans{plans: map[string]*model.SeatingPlan{}, seats: map[string][]model.SeatListing{}}
}

func (f *fakePlans) SaveAllocation(_ context.Context, p *model.SeatingPlan, seats []model.SeatAssignment) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	p.ID = "plan-1"
	for i := range seats {
		seats[i].PlanID = p.ID
	}
	f.plans[p.ID] = p
	f.saved = seats
	return nil
}

func (f *fakePlans) GetByID(_ context.Context, id string) (*model.SeatingPlan, error) {
	p, ok := f.plans[id]
	if !ok {
		return nil, repository.ErrPlanNotFound
	}
	return p, nil
}

func (f *fakePlans) ListBySession(_ context.Context, sid string) ([]*model.SeatingPlan, error) {
	var out []*model.SeatingPlan
	for _, p := range f.plans {
		if p.SessionID == sid {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePlans) List(context.Context) ([]*model.SeatingPlan, error) {
	var out []*model.SeatingPlan
	for _, p := range f.plans {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePlans) Delete(_ context.Context, id string) error {
	if _, ok := f.plans[id]; !ok {
		return repository.ErrPlanNotFound
	}
	delete(f.plans, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakePlans) ListAssignments(_ context.Context, id string) ([]model.SeatListing, error) {
	return f.seats[id], nil
}

func (f *fakePlans) SearchAssignments(_ context.Context, id string, flt repository.AssignmentFilter) ([]model.SeatListing, error) {
	contains := func(s string) bool { return strings.Contains(strings.ToLower(s), strings.ToLower(flt.Query)) }
	var out []model.SeatListing
	for _, l := range f.seats[id] {
		if flt.SeatNumber > 0 && l.SeatNumber != flt.SeatNumber {
			continue
		}
		e := l.Examinee
		if flt.Query != "" && e.ExamineeNumber != flt.Query && e.IDCardNumber != flt.Query &&
			!contains(e.FirstName) && !contains(e.LastName) && !contains(e.Email) &&
			strconv.Itoa(l.SeatNumber) != flt.Query {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

type fakeEvents struct {
	events []queue.PlanCreatedEvent
}

func (f *fakeEvents) PublishPlanCreated(_ context.Context, ev queue.PlanCreatedEvent) error {
	f.events = append(f.events, ev)
	return nil
}

type fakeCache struct{ purges int }

func (f *fakeCache) Purge(context.Context) error {
	f.purges++
	return nil
}

func gridRoom(id string, rows, cols int) *model.ExamRoom {
	return &model.ExamRoom{
		ID:          id,
		Name:        "Room " + id,
		RoomNumber:  id,
		TotalSeats:  rows * cols,
		SeatPattern: model.SeatPattern{Type: model.PatternGrid, Rows: rows, Cols: cols},
	}
}

func examinees(ids ...uint64) []model.Examinee {
	out := make([]model.Examinee, len(ids))
	for i, id := range ids {
		out[i] = model.Examinee{ID: id, FirstName: "E", LastName: strings.Repeat("x", int(id%5)+1)}
	}
	return out
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

// request builds a context with a JSON body, the :id path param and an
// authenticated admin.
func request(t *testing.T, e *echo.Echo, method, id, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if id != "" {
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
	c.Set("user_id", uint64(7))
	c.Set("role", model.RoleAdmin)
	return c, rec
}

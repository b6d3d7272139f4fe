package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/exam-seating/internal/config"
	"github.com/iliyamo/exam-seating/internal/model"
	"github.com/iliyamo/exam-seating/internal/repository"
	"github.com/iliyamo/exam-seating/internal/seating"
)

type allocFixture struct {
	h      *AllocationHandler
	plans  *fakePlans
	events *fakeEvents
	cache  *fakeCache
}

func newAllocFixture(pool []model.Examinee, rooms ...*model.ExamRoom) allocFixture {
	fr := &fakeRooms{rooms: map[string]*model.ExamRoom{}}
	for _, r := range rooms {
		fr.rooms[r.ID] = r
	}
	fs := &fakeSessions{sessions: map[string]*model.ExamSession{
		"s1": {ID: "s1", Name: "Final Exam", Shift: model.ShiftMorning},
	}}
	f := allocFixture{plans: newFakePlans(), events: &fakeEvents{}, cache: &fakeCache{}}
	f.h = NewAllocationHandler(fr, &fakeExaminees{list: pool}, fs, f.plans, f.events, f.cache,
		config.SeatingConfig{DefaultPolicy: "sequential", DefaultDirection: "horizontal"}, zap.NewNop())
	return f
}

type previewResp struct {
	Requested      int                      `json:"requested"`
	TotalAllocated int                      `json:"total_allocated"`
	GridRows       int                      `json:"grid_rows"`
	GridCols       int                      `json:"grid_cols"`
	Rooms          []seating.RoomAllocation `json:"rooms"`
}

func TestAllocationPreview(t *testing.T) {
	f := newAllocFixture(examinees(5, 3, 1, 2, 4), gridRoom("B", 1, 2), gridRoom("A", 2, 2))
	e := newEcho()
	c, rec := request(t, e, http.MethodPost, "s1", `{"room_ids":["B","A"],"total":5}`)

	require.NoError(t, f.h.Preview(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp previewResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 5, resp.TotalAllocated)
	assert.Equal(t, 3, resp.GridRows)
	assert.Equal(t, 3, resp.GridCols)
	require.Len(t, resp.Rooms, 2)
	assert.Equal(t, "A", resp.Rooms[0].Room.RoomID)
	assert.Equal(t, 4, resp.Rooms[0].AllocatedCount)
	assert.Equal(t, int64(1), resp.Rooms[0].Seats[0].Occupant.Key)
	assert.Equal(t, 1, resp.Rooms[0].Seats[0].GlobalNumber)
	assert.Equal(t, int64(5), resp.Rooms[1].Seats[0].Occupant.Key)
	assert.Equal(t, 5, resp.Rooms[1].Seats[0].GlobalNumber)
	assert.Nil(t, resp.Rooms[1].Seats[1].Occupant)

	assert.Empty(t, f.plans.plans, "preview must not store anything")
	assert.Empty(t, f.events.events)
}

func TestAllocationErrors(t *testing.T) {
	broken := gridRoom("X", 2, 2)
	broken.TotalSeats = 5

	tests := []struct {
		name     string
		pool     []model.Examinee
		session  string
		body     string
		wantCode int
		wantErr  string
	}{
		{
			name:     "capacity exceeded",
			pool:     examinees(1, 2, 3, 4, 5, 6, 7),
			body:     `{"room_ids":["A","B"],"total":7}`,
			wantCode: http.StatusConflict,
			wantErr:  "need 1 more seats",
		},
		{
			name:     "not enough examinees",
			pool:     examinees(1, 2, 3),
			body:     `{"room_ids":["A","B"],"total":5}`,
			wantCode: http.StatusConflict,
			wantErr:  "only 3 examinees available, 5 requested",
		},
		{
			name:     "invalid geometry",
			pool:     examinees(1),
			body:     `{"room_ids":["A","X"],"total":1}`,
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "invalid room geometry",
		},
		{
			name:     "geometry checked before pool",
			pool:     nil,
			body:     `{"room_ids":["X"],"total":3}`,
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "invalid room geometry",
		},
		{
			name:     "room selected twice",
			pool:     examinees(1),
			body:     `{"room_ids":["A","A"],"total":1}`,
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "invalid room geometry",
		},
		{
			name:     "unknown room",
			pool:     examinees(1),
			body:     `{"room_ids":["Z"],"total":1}`,
			wantCode: http.StatusNotFound,
			wantErr:  "room not found",
		},
		{
			name:     "unknown session",
			session:  "nope",
			pool:     examinees(1),
			body:     `{"room_ids":["A"],"total":1}`,
			wantCode: http.StatusNotFound,
			wantErr:  "session not found",
		},
		{
			name:     "unknown policy",
			pool:     examinees(1),
			body:     `{"room_ids":["A"],"total":1,"policy":"alphabetical"}`,
			wantCode: http.StatusBadRequest,
			wantErr:  "validation failed",
		},
		{
			name:     "missing total",
			pool:     examinees(1),
			body:     `{"room_ids":["A"]}`,
			wantCode: http.StatusBadRequest,
			wantErr:  "validation failed",
		},
		{
			name:     "negative total",
			pool:     examinees(1),
			body:     `{"room_ids":["A"],"total":-1}`,
			wantCode: http.StatusBadRequest,
			wantErr:  "validation failed",
		},
		{
			name:     "source plan without custom policy",
			pool:     examinees(1),
			body:     `{"room_ids":["A"],"total":1,"source_plan_id":"p0"}`,
			wantCode: http.StatusBadRequest,
			wantErr:  "source_plan_id requires the custom policy",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAllocFixture(tt.pool, gridRoom("A", 2, 2), gridRoom("B", 1, 2), broken)
			session := tt.session
			if session == "" {
				session = "s1"
			}
			c, rec := request(t, newEcho(), http.MethodPost, session, tt.body)

			require.NoError(t, f.h.Preview(c))
			assert.Equal(t, tt.wantCode, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantErr, body["error"])
		})
	}
}

func TestAllocationCreate(t *testing.T) {
	f := newAllocFixture(examinees(10, 11, 12, 13, 14), gridRoom("A", 2, 2), gridRoom("B", 1, 2))
	c, rec := request(t, newEcho(), http.MethodPost, "s1",
		`{"room_ids":["A","B"],"total":5,"direction":"vertical","plan_name":"Morning plan"}`)

	require.NoError(t, f.h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	plan := f.plans.plans["plan-1"]
	require.NotNil(t, plan)
	assert.Equal(t, "s1", plan.SessionID)
	assert.Equal(t, "Morning plan", plan.PlanName)
	assert.Equal(t, "sequential", plan.SeatingPattern)
	assert.Equal(t, "vertical", plan.Direction)
	assert.Equal(t, 5, plan.ExamCount)
	assert.Equal(t, 5, plan.TotalExaminees)
	assert.Equal(t, "Room A, Room B", plan.ExamRoomName)
	assert.Equal(t, 2, plan.RoomRows)
	assert.Equal(t, 2, plan.RoomCols)
	require.NotNil(t, plan.CreatedBy)
	assert.Equal(t, uint64(7), *plan.CreatedBy)

	var rooms []seating.RoomAllocation
	require.NoError(t, json.Unmarshal(plan.ArrangementData, &rooms))
	assert.Len(t, rooms, 2)

	require.Len(t, f.plans.saved, 5)
	// vertical fill of a 2x2 room: (1,1) (2,1) (1,2) (2,2)
	first := f.plans.saved[1]
	assert.Equal(t, uint64(11), first.ExamineeID)
	assert.Equal(t, 2, first.SeatRow)
	assert.Equal(t, 1, first.SeatCol)
	assert.Equal(t, 2, first.SeatNumber)
	last := f.plans.saved[4]
	assert.Equal(t, "B", last.RoomID)
	assert.Equal(t, uint64(14), last.ExamineeID)
	assert.Equal(t, 5, last.SeatNumber)

	require.Len(t, f.events.events, 1)
	ev := f.events.events[0]
	assert.Equal(t, "plan-1", ev.PlanID)
	assert.Equal(t, []string{"Room A", "Room B"}, ev.Rooms)
	assert.Equal(t, 5, ev.TotalAllocated)
	assert.Equal(t, uint64(7), ev.CreatedBy)
	assert.Equal(t, 1, f.cache.purges)
}

func TestAllocationCreateDefaultName(t *testing.T) {
	f := newAllocFixture(examinees(1), gridRoom("A", 1, 1))
	c, rec := request(t, newEcho(), http.MethodPost, "s1", `{"room_ids":["A"],"total":1}`)

	require.NoError(t, f.h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, f.plans.plans["plan-1"].PlanName, "Final Exam ")
}

func TestAllocationCreateSaveConflict(t *testing.T) {
	f := newAllocFixture(examinees(1), gridRoom("A", 1, 1))
	f.plans.saveErr = repository.ErrConflict
	c, rec := request(t, newEcho(), http.MethodPost, "s1", `{"room_ids":["A"],"total":1}`)

	require.NoError(t, f.h.Create(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, f.events.events)
	assert.Zero(t, f.cache.purges)
}

func TestAllocationCustomFromSourcePlan(t *testing.T) {
	f := newAllocFixture(examinees(1, 2, 3, 4), gridRoom("A", 1, 4))
	f.plans.plans["p0"] = &model.SeatingPlan{ID: "p0", SessionID: "s1"}
	f.plans.seats["p0"] = []model.SeatListing{
		{SeatAssignment: model.SeatAssignment{ExamineeID: 3, SeatNumber: 1}},
		{SeatAssignment: model.SeatAssignment{ExamineeID: 1, SeatNumber: 2}},
	}
	c, rec := request(t, newEcho(), http.MethodPost, "s1",
		`{"room_ids":["A"],"total":4,"policy":"custom","source_plan_id":"p0"}`)

	require.NoError(t, f.h.Preview(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp previewResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	var got []int64
	for _, s := range resp.Rooms[0].Seats {
		got = append(got, s.Occupant.Key)
	}
	assert.Equal(t, []int64{3, 1, 2, 4}, got)
}

func TestAllocationSelectedExaminees(t *testing.T) {
	f := newAllocFixture(examinees(1, 2, 3, 4, 5), gridRoom("A", 1, 3))
	c, rec := request(t, newEcho(), http.MethodPost, "s1", `{"room_ids":["A"],"total":2,"examinee_ids":[4,2,99]}`)

	require.NoError(t, f.h.Preview(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp previewResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	seats := resp.Rooms[0].Seats
	assert.Equal(t, int64(2), seats[0].Occupant.Key)
	assert.Equal(t, int64(4), seats[1].Occupant.Key)
	assert.Nil(t, seats[2].Occupant)

	c, rec = request(t, newEcho(), http.MethodPost, "s1", `{"room_ids":["A"],"total":3,"examinee_ids":[4,2]}`)
	require.NoError(t, f.h.Preview(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAllocationUnknownSourcePlan(t *testing.T) {
	f := newAllocFixture(examinees(1), gridRoom("A", 1, 1))
	c, rec := request(t, newEcho(), http.MethodPost, "s1",
		`{"room_ids":["A"],"total":1,"policy":"custom","source_plan_id":"missing"}`)

	require.NoError(t, f.h.Preview(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCustomOrder(t *testing.T) {
	pool := examinees(1, 2, 3, 4, 5)
	listings := []model.SeatListing{
		{SeatAssignment: model.SeatAssignment{ExamineeID: 4}},
		{SeatAssignment: model.SeatAssignment{ExamineeID: 99}},
		{SeatAssignment: model.SeatAssignment{ExamineeID: 2}},
		{SeatAssignment: model.SeatAssignment{ExamineeID: 4}},
	}
	got := customOrder(pool, listings)

	keys := make([]int64, len(got))
	for i, e := range got {
		keys[i] = e.Key
	}
	assert.Equal(t, []int64{4, 2, 1, 3, 5}, keys)
	assert.IsType(t, model.Examinee{}, got[0].Payload)
}

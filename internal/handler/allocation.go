package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/exam-seating/internal/config"
	"github.com/iliyamo/exam-seating/internal/model"
	"github.com/iliyamo/exam-seating/internal/queue"
	"github.com/iliyamo/exam-seating/internal/repository"
	"github.com/iliyamo/exam-seating/internal/seating"
)

// AllocationHandler runs the seating engine for an exam session, either as
// a preview or persisted as a seating plan.
type AllocationHandler struct {
	Rooms     RoomStore
	Examinees ExamineeStore
	Sessions  SessionStore
	Plans     PlanStore
	Events    EventPublisher
	Cache     CachePurger
	Defaults  config.SeatingConfig
	Log       *zap.Logger
}

func NewAllocationHandler(rooms RoomStore, examinees ExamineeStore, sessions SessionStore, plans PlanStore,
	events EventPublisher, cache CachePurger, defaults config.SeatingConfig, log *zap.Logger) *AllocationHandler {
	return &AllocationHandler{
		Rooms:     rooms,
		Examinees: examinees,
		Sessions:  sessions,
		Plans:     plans,
		Events:    events,
		Cache:     cache,
		Defaults:  defaults,
		Log:       log.Named("allocation"),
	}
}

type allocationReq struct {
	RoomIDs      []string `json:"room_ids" validate:"required,min=1,dive,required"`
	Total        *int     `json:"total" validate:"required,gte=0"`
	Policy       string   `json:"policy" validate:"omitempty,seating_policy"`
	Direction    string   `json:"direction" validate:"omitempty,seating_direction"`
	Seed         *int64   `json:"seed"`
	ExamineeIDs  []uint64 `json:"examinee_ids" validate:"omitempty,dive,gt=0"`
	SourcePlanID string   `json:"source_plan_id"`
	PlanName     string   `json:"plan_name" validate:"max=150"`
}

// allocation is a finished engine run and what it was asked for.
type allocation struct {
	session   *model.ExamSession
	policy    seating.Policy
	direction seating.Direction
	requested int
	result    seating.Result
}

// Preview runs the engine and returns the arrangement without storing it.
func (h *AllocationHandler) Preview(c echo.Context) error {
	var req allocationReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	a, ok, err := h.allocate(c, req)
	if !ok {
		return err
	}
	rows, cols := a.result.MaxGridDimensions()
	return c.JSON(http.StatusOK, echo.Map{
		"session_id":      a.session.ID,
		"policy":          a.policy,
		"direction":       a.direction,
		"requested":       a.requested,
		"total_allocated": a.result.TotalAllocated,
		"grid_rows":       rows,
		"grid_cols":       cols,
		"rooms":           a.result.Rooms,
	})
}

// Create runs the engine, stores the plan with its seat assignments in one
// transaction and publishes seating.plan_created.
func (h *AllocationHandler) Create(c echo.Context) error {
	var req allocationReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	a, ok, err := h.allocate(c, req)
	if !ok {
		return err
	}

	plan, seats, err := buildPlan(a, req.PlanName, uid, time.Now().UTC())
	if err != nil {
		h.Log.Error("encode arrangement", zap.Error(err))
		return serverError(c, "encode arrangement failed")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Plans.SaveAllocation(ctx, &plan, seats); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "seat assignment conflicts with an existing plan"})
		}
		h.Log.Error("save plan", zap.String("session_id", a.session.ID), zap.Error(err))
		return serverError(c, "save plan failed")
	}
	log := h.Log.With(zap.String("plan_id", plan.ID), zap.String("session_id", plan.SessionID))
	log.Info("seating plan created",
		zap.String("policy", plan.SeatingPattern),
		zap.String("direction", plan.Direction),
		zap.Int("seated", plan.ExamCount),
		zap.Int("rooms", len(a.result.Rooms)))

	h.afterWrite(c.Request().Context(), log, queue.PlanCreatedEvent{
		PlanID:         plan.ID,
		SessionID:      plan.SessionID,
		PlanName:       plan.PlanName,
		Policy:         plan.SeatingPattern,
		Direction:      plan.Direction,
		Rooms:          a.result.RoomNames(),
		TotalAllocated: plan.ExamCount,
		Requested:      plan.TotalExaminees,
		CreatedBy:      uid,
		CreatedAt:      plan.CreatedAt.UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"plan":            plan,
		"total_allocated": a.result.TotalAllocated,
		"rooms":           a.result.Rooms,
	})
}

// afterWrite publishes the event and drops cached aggregates.  Failures
// are logged only; the plan is already stored.
func (h *AllocationHandler) afterWrite(parent context.Context, log *zap.Logger, ev queue.PlanCreatedEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), 3*time.Second)
	defer cancel()
	if h.Events != nil {
		if err := h.Events.PublishPlanCreated(ctx, ev); err != nil {
			log.Warn("publish plan event failed", zap.Error(err))
		}
	}
	purgeCache(ctx, h.Cache, log)
}

// allocate loads the inputs and runs the engine.  On failure the error
// response has been written and ok is false.
func (h *AllocationHandler) allocate(c echo.Context, req allocationReq) (a allocation, ok bool, err error) {
	policy, perr := seating.ParsePolicy(firstNonEmpty(req.Policy, h.Defaults.DefaultPolicy))
	if perr != nil {
		return a, false, allocationError(c, perr)
	}
	direction, derr := seating.ParseDirection(firstNonEmpty(req.Direction, h.Defaults.DefaultDirection))
	if derr != nil {
		return a, false, allocationError(c, derr)
	}
	if req.SourcePlanID != "" && policy != seating.PolicyCustom {
		return a, false, c.JSON(http.StatusBadRequest, echo.Map{"error": "source_plan_id requires the custom policy"})
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	session, lerr := h.Sessions.GetByID(ctx, c.Param("id"))
	if lerr != nil {
		if errors.Is(lerr, repository.ErrSessionNotFound) {
			return a, false, notFound(c, "session")
		}
		return a, false, serverError(c, "load session failed")
	}

	geoms, resp := h.geometries(ctx, c, req.RoomIDs)
	if geoms == nil {
		return a, false, resp // 404 or 422 already written
	}

	examinees, lerr := h.pool(ctx, req.ExamineeIDs)
	if lerr != nil {
		h.Log.Error("load examinees", zap.Error(lerr))
		return a, false, serverError(c, "load examinees failed")
	}
	pool := model.Tokens(examinees)
	if req.SourcePlanID != "" {
		if _, lerr := h.Plans.GetByID(ctx, req.SourcePlanID); lerr != nil {
			if errors.Is(lerr, repository.ErrPlanNotFound) {
				return a, false, notFound(c, "source plan")
			}
			return a, false, serverError(c, "load source plan failed")
		}
		listings, lerr := h.Plans.ListAssignments(ctx, req.SourcePlanID)
		if lerr != nil {
			return a, false, serverError(c, "load source plan failed")
		}
		pool = customOrder(examinees, listings) // custom keeps this order as is
	}

	res, aerr := seating.Allocate(seating.Request{
		Pool:           pool,
		Rooms:          geoms,
		RequestedTotal: *req.Total,
		Policy:         policy,
		Direction:      direction,
		Seed:           req.Seed,
	})
	if aerr != nil {
		h.Log.Info("allocation rejected", zap.String("session_id", session.ID), zap.Error(aerr))
		return a, false, allocationError(c, aerr)
	}
	return allocation{session: session, policy: policy, direction: direction, requested: *req.Total, result: res}, true, nil
}

// geometries loads the selected rooms in request order.  A room selected
// twice stays twice so the engine reports it.  A nil slice means the error
// response was written.
func (h *AllocationHandler) geometries(ctx context.Context, c echo.Context, ids []string) ([]seating.Geometry, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	rooms, err := h.Rooms.ListByIDs(ctx, unique)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, notFound(c, "room")
		}
		return nil, serverError(c, "load rooms failed")
	}
	byID := make(map[string]*model.ExamRoom, len(rooms))
	for _, r := range rooms {
		byID[r.ID] = r
	}
	out := make([]seating.Geometry, 0, len(ids))
	for _, id := range ids {
		room, found := byID[id]
		if !found {
			return nil, notFound(c, "room")
		}
		g, err := room.Geometry()
		if err != nil {
			return nil, allocationError(c, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// pool loads the selected examinees, or everyone when none are selected.
// Unknown IDs are skipped.
func (h *AllocationHandler) pool(ctx context.Context, ids []uint64) ([]model.Examinee, error) {
	if len(ids) == 0 {
		return h.Examinees.List(ctx, 0, 0)
	}
	return h.Examinees.GetByIDs(ctx, ids)
}

// customOrder builds a caller-ordered pool from an earlier plan: examinees
// seated there come first by their seat number, everyone else follows in
// id order.
func customOrder(examinees []model.Examinee, listings []model.SeatListing) []seating.Examinee {
	byID := make(map[uint64]model.Examinee, len(examinees))
	for _, e := range examinees {
		byID[e.ID] = e
	}
	used := make(map[uint64]bool, len(listings))
	out := make([]seating.Examinee, 0, len(examinees))
	for _, l := range listings {
		e, ok := byID[l.ExamineeID]
		if !ok || used[e.ID] {
			continue
		}
		used[e.ID] = true
		out = append(out, e.Token())
	}
	for _, e := range examinees {
		if !used[e.ID] {
			out = append(out, e.Token())
		}
	}
	return out
}

// buildPlan turns an engine result into the plan row and its assignments.
func buildPlan(a allocation, name string, createdBy uint64, now time.Time) (model.SeatingPlan, []model.SeatAssignment, error) {
	data, err := json.Marshal(a.result.Rooms)
	if err != nil {
		return model.SeatingPlan{}, nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("%s %s", a.session.Name, now.Format("2006-01-02 15:04"))
	}
	rows, cols := a.result.Extent() // room counts, not the render grid
	plan := model.SeatingPlan{
		SessionID:       a.session.ID,
		PlanName:        name,
		SeatingPattern:  string(a.policy),
		Direction:       string(a.direction),
		RoomRows:        rows,
		RoomCols:        cols,
		ArrangementData: data,
		ExamCount:       a.result.TotalAllocated,
		ExamRoomName:    strings.Join(a.result.RoomNames(), ", "),
		TotalExaminees:  a.requested,
		CreatedBy:       &createdBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	placed := a.result.Occupied()
	seats := make([]model.SeatAssignment, 0, len(placed))
	for _, p := range placed {
		id := uint64(p.Seat.Occupant.Key)
		if e, ok := p.Seat.Occupant.Payload.(model.Examinee); ok { // Payload is set by model.Tokens
			id = e.ID
		}
		seats = append(seats, model.SeatAssignment{
			SessionID:  a.session.ID,
			RoomID:     p.RoomID,
			ExamineeID: id,
			SeatRow:    p.Seat.Row,
			SeatCol:    p.Seat.Col,
			SeatNumber: p.Seat.GlobalNumber,
		})
	}
	return plan, seats, nil
}

// allocationError maps engine errors to HTTP responses.
func allocationError(c echo.Context, err error) error {
	var (
		gerr *seating.GeometryError
		perr *seating.InsufficientPoolError
		cerr *seating.CapacityExceededError
	)
	switch {
	case errors.As(err, &gerr):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":   "invalid room geometry",
			"room_id": gerr.RoomID,
			"reason":  gerr.Reason,
		})
	case errors.As(err, &perr):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     fmt.Sprintf("only %d examinees available, %d requested", perr.Available, perr.Requested),
			"available": perr.Available,
			"requested": perr.Requested,
		})
	case errors.As(err, &cerr):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     fmt.Sprintf("need %d more seats", cerr.Shortfall),
			"capacity":  cerr.Capacity,
			"requested": cerr.Requested,
			"shortfall": cerr.Shortfall,
		})
	case errors.Is(err, seating.ErrInvalidRequest),
		errors.Is(err, seating.ErrUnknownPolicy),
		errors.Is(err, seating.ErrUnknownDirection):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return serverError(c, "allocation failed")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

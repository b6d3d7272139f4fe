package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/exam-seating/internal/model"
	"github.com/iliyamo/exam-seating/internal/repository"
)

// SessionHandler manages exam sessions.
type SessionHandler struct {
	Sessions SessionStore
	Plans    PlanStore
	Cache    CachePurger
	Log      *zap.Logger
}

func NewSessionHandler(s SessionStore, p PlanStore, cache CachePurger, log *zap.Logger) *SessionHandler {
	return &SessionHandler{Sessions: s, Plans: p, Cache: cache, Log: log.Named("sessions")}
}

type sessionReq struct {
	Name        string  `json:"name" validate:"required,notblank,max=150"`
	ExamDate    string  `json:"exam_date" validate:"required,iso_date"`
	Shift       string  `json:"shift" validate:"required,oneof=morning afternoon"`
	StartTime   string  `json:"start_time" validate:"clock"`
	EndTime     string  `json:"end_time" validate:"clock"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// toSession fills missing times from the shift.  It reports false when the
// end is not after the start.
func (req sessionReq) toSession(id string) (model.ExamSession, bool) {
	date, _ := parseDate(req.ExamDate)
	start, end, _ := model.ShiftTimes(req.Shift)
	if req.StartTime != "" {
		start = normaliseClock(req.StartTime)
	}
	if req.EndTime != "" {
		end = normaliseClock(req.EndTime)
	}
	s := model.ExamSession{
		ID:          id,
		Name:        strings.TrimSpace(req.Name),
		ExamDate:    date,
		Shift:       req.Shift,
		StartTime:   start,
		EndTime:     end,
		Description: req.Description,
	}
	return s, end > start
}

func (h *SessionHandler) List(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	ss, err := h.Sessions.List(ctx)
	if err != nil {
		h.Log.Error("list sessions", zap.Error(err))
		return serverError(c, "list sessions failed")
	}
	if ss == nil {
		ss = []*model.ExamSession{}
	}
	return c.JSON(http.StatusOK, echo.Map{"sessions": ss})
}

func (h *SessionHandler) Get(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	s, err := h.Sessions.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return notFound(c, "session")
		}
		return serverError(c, "load session failed")
	}
	plans, err := h.Plans.ListBySession(ctx, s.ID)
	if err != nil {
		return serverError(c, "list plans failed")
	}
	if plans == nil {
		plans = []*model.SeatingPlan{}
	}
	return c.JSON(http.StatusOK, echo.Map{"session": s, "plans": plans})
}

func (h *SessionHandler) Create(c echo.Context) error {
	var req sessionReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	s, ok := req.toSession("")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_time must be after start_time"})
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Sessions.Create(ctx, &s); err != nil {
		h.Log.Error("create session", zap.Error(err))
		return serverError(c, "create session failed")
	}
	purgeCache(ctx, h.Cache, h.Log)
	return c.JSON(http.StatusCreated, s)
}

func (h *SessionHandler) Update(c echo.Context) error {
	var req sessionReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	s, ok := req.toSession(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_time must be after start_time"})
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Sessions.Update(ctx, &s); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return notFound(c, "session")
		}
		return serverError(c, "update session failed")
	}
	purgeCache(ctx, h.Cache, h.Log)
	return c.JSON(http.StatusOK, s)
}

func (h *SessionHandler) Delete(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	switch err := h.Sessions.Delete(ctx, c.Param("id")); {
	case err == nil:
		purgeCache(ctx, h.Cache, h.Log)
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, repository.ErrSessionNotFound):
		return notFound(c, "session")
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "session still has seating plans"})
	default:
		return serverError(c, "delete session failed")
	}
}

package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/exam-seating/internal/model"
	"github.com/iliyamo/exam-seating/internal/repository"
	"github.com/iliyamo/exam-seating/internal/sheet"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// PlanHandler serves stored seating plans.
type PlanHandler struct {
	Plans PlanStore
	Cache CachePurger
	Log   *zap.Logger
}

func NewPlanHandler(p PlanStore, cache CachePurger, log *zap.Logger) *PlanHandler {
	return &PlanHandler{Plans: p, Cache: cache, Log: log.Named("plans")}
}

// List returns all plans, or the plans of one session with ?session_id=.
func (h *PlanHandler) List(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	var (
		plans []*model.SeatingPlan
		err   error
	)
	if sid := strings.TrimSpace(c.QueryParam("session_id")); sid != "" {
		plans, err = h.Plans.ListBySession(ctx, sid)
	} else {
		plans, err = h.Plans.List(ctx)
	}
	if err != nil {
		h.Log.Error("list plans", zap.Error(err))
		return serverError(c, "list plans failed")
	}
	if plans == nil {
		plans = []*model.SeatingPlan{}
	}
	return c.JSON(http.StatusOK, echo.Map{"plans": plans})
}

// Get returns one plan including its stored arrangement.
func (h *PlanHandler) Get(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	plan, err := h.Plans.GetByID(ctx, c.Param("id"))
	if err != nil {
		return h.planError(c, err)
	}
	return c.JSON(http.StatusOK, plan)
}

// Seats lists the plan's seat assignments by seat number.  ?q= searches
// examinee number, ID card, names and email; ?seat= picks one seat.
func (h *PlanHandler) Seats(c echo.Context) error {
	filter := repository.AssignmentFilter{Query: strings.TrimSpace(c.QueryParam("q"))}
	if v := strings.TrimSpace(c.QueryParam("seat")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat must be a positive number"})
		}
		filter.SeatNumber = n
	}

	ctx, cancel := requestCtx(c)
	defer cancel()
	id := c.Param("id")
	if _, err := h.Plans.GetByID(ctx, id); err != nil {
		return h.planError(c, err)
	}
	var (
		seats []model.SeatListing
		err   error
	)
	if filter == (repository.AssignmentFilter{}) {
		seats, err = h.Plans.ListAssignments(ctx, id)
	} else {
		seats, err = h.Plans.SearchAssignments(ctx, id, filter)
	}
	if err != nil {
		h.Log.Error("list seats", zap.String("plan_id", id), zap.Error(err))
		return serverError(c, "list seats failed")
	}

	type seatView struct {
		model.SeatListing
		Label string `json:"label"`
	}
	out := make([]seatView, 0, len(seats))
	for _, s := range seats {
		out = append(out, seatView{SeatListing: s, Label: seatLabel(s.SeatRow, s.SeatCol)})
	}
	return c.JSON(http.StatusOK, echo.Map{"plan_id": id, "seats": out})
}

// Export streams the plan as an xlsx workbook.
func (h *PlanHandler) Export(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	plan, err := h.Plans.GetByID(ctx, c.Param("id"))
	if err != nil {
		return h.planError(c, err)
	}
	seats, err := h.Plans.ListAssignments(ctx, plan.ID)
	if err != nil {
		h.Log.Error("list seats", zap.String("plan_id", plan.ID), zap.Error(err))
		return serverError(c, "list seats failed")
	}
	data, err := sheet.ExportPlan(*plan, seats)
	if err != nil {
		h.Log.Error("export plan", zap.String("plan_id", plan.ID), zap.Error(err))
		return serverError(c, "export failed")
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s"`, exportFilename(plan)))
	return c.Blob(http.StatusOK, xlsxMIME, data)
}

// Delete removes a plan with its assignments.
func (h *PlanHandler) Delete(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	id := c.Param("id")
	if err := h.Plans.Delete(ctx, id); err != nil {
		return h.planError(c, err)
	}
	purgeCache(ctx, h.Cache, h.Log)
	h.Log.Info("seating plan deleted", zap.String("plan_id", id))
	return c.NoContent(http.StatusNoContent)
}

func (h *PlanHandler) planError(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrPlanNotFound) {
		return notFound(c, "plan")
	}
	h.Log.Error("load plan", zap.Error(err))
	return serverError(c, "load plan failed")
}

// exportFilename keeps letters, digits, dash and underscore of the plan
// name.
func exportFilename(p *model.SeatingPlan) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		}
		return -1
	}, p.PlanName)
	if name == "" {
		name = "seating-plan-" + p.ID
	}
	return name + ".xlsx"
}

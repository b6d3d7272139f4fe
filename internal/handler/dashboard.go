package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/exam-seating/internal/repository"
)

// DashboardHandler serves the aggregate counters shown on the dashboard.
type DashboardHandler struct {
	Stats StatsStore
	Log   *zap.Logger
}

func NewDashboardHandler(s StatsStore, log *zap.Logger) *DashboardHandler {
	return &DashboardHandler{Stats: s, Log: log.Named("dashboard")}
}

// Overview returns table totals and per-room utilisation.
func (h *DashboardHandler) Overview(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	totals, err := h.Stats.Totals(ctx)
	if err != nil {
		h.Log.Error("dashboard totals", zap.Error(err))
		return serverError(c, "load stats failed")
	}
	usage, err := h.Stats.RoomUsage(ctx)
	if err != nil {
		h.Log.Error("room usage", zap.Error(err))
		return serverError(c, "load stats failed")
	}
	if usage == nil {
		usage = []repository.RoomUsage{}
	}
	return c.JSON(http.StatusOK, echo.Map{"stats": totals, "room_usage": usage})
}

package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/exam-seating/internal/handler"
	"github.com/iliyamo/exam-seating/internal/middleware"
	"github.com/iliyamo/exam-seating/internal/model"
)

// Seating bundles the handlers and shared middleware of the /v1 seating
// endpoints.  Cache and Limit may be nil; the routes are then registered
// without them.
type Seating struct {
	Rooms      *handler.RoomHandler
	Examinees  *handler.ExamineeHandler
	Sessions   *handler.SessionHandler
	Allocation *handler.AllocationHandler
	Plans      *handler.PlanHandler
	Dashboard  *handler.DashboardHandler
	Users      *handler.UserHandler

	Cache *middleware.ResponseCache // cached GETs: templates and dashboard
	Limit echo.MiddlewareFunc       // token bucket on allocation runs
}

// RegisterSeating registers the seating endpoints under /v1.  Every route
// needs a valid access token.  Both roles can read and run allocations;
// changing rooms, importing examinees, deleting sessions or plans and
// managing accounts is ADMIN only.
func RegisterSeating(e *echo.Echo, s Seating, jwtSecret string) {
	g := e.Group("/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleStaff),
	)
	admin := middleware.RequireRole(model.RoleAdmin)

	var cached, limited []echo.MiddlewareFunc
	if s.Cache != nil {
		cached = append(cached, s.Cache.Middleware())
	}
	if s.Limit != nil {
		limited = append(limited, s.Limit)
	}

	// ---- Rooms ----
	g.GET("/rooms", s.Rooms.List)
	g.GET("/rooms/:id", s.Rooms.Get)
	g.GET("/rooms/:id/layout", s.Rooms.Layout)
	g.GET("/room-templates", s.Rooms.Templates, cached...)
	g.POST("/rooms", s.Rooms.Create, admin)
	g.PUT("/rooms/:id", s.Rooms.Update, admin)
	g.DELETE("/rooms/:id", s.Rooms.Delete, admin)

	// ---- Examinees ----
	g.GET("/examinees", s.Examinees.List)
	g.POST("/examinees/import", s.Examinees.Import, admin)

	// ---- Sessions ----
	g.GET("/sessions", s.Sessions.List)
	g.POST("/sessions", s.Sessions.Create)
	g.GET("/sessions/:id", s.Sessions.Get)
	g.PUT("/sessions/:id", s.Sessions.Update)
	g.DELETE("/sessions/:id", s.Sessions.Delete, admin)

	// ---- Allocation ----
	g.POST("/sessions/:id/allocation/preview", s.Allocation.Preview, limited...)
	g.POST("/sessions/:id/allocation", s.Allocation.Create, limited...)

	// ---- Plans ----
	g.GET("/plans", s.Plans.List)
	g.GET("/plans/:id", s.Plans.Get)
	g.GET("/plans/:id/seats", s.Plans.Seats)
	g.GET("/plans/:id/export", s.Plans.Export)
	g.DELETE("/plans/:id", s.Plans.Delete, admin)

	// ---- Dashboard ----
	g.GET("/dashboard/stats", s.Dashboard.Overview, cached...)

	// ---- Accounts ----
	g.GET("/users", s.Users.List, admin)
	g.PATCH("/users/:id", s.Users.SetActive, admin)
}

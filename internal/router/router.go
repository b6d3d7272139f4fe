package router // package router registers the HTTP routes of the seating API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/exam-seating/internal/handler"
	"github.com/iliyamo/exam-seating/internal/middleware"
	"github.com/iliyamo/exam-seating/internal/model"
)

// RegisterRoutes registers routes that need no authentication.  Currently
// that is only the health check, which pings the database.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers the account endpoints.  Register, login, refresh
// and logout live under /v1/auth without a token; /v1/me needs a valid
// access token of either role.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh) // rotates the refresh token
	g.POST("/logout", a.Logout)   // body: {"refresh_token": "..."}

	auth := e.Group("/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleStaff),
	)
	auth.GET("/me", a.Me)
}

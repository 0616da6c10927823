package router

import (
	"github.com/labstack/echo/v4"

	"github.com/coursehub/live-orchestrator/internal/handler"
	"github.com/coursehub/live-orchestrator/internal/middleware"
)

// RegisterSchedules wires the course-programme endpoints.  Every route
// requires a valid access token; the listing additionally runs behind
// the shared response cache, and the replace-all write is restricted to
// the OWNER role up front with the per-course ownership check living in
// the handler.  Extra read middleware (caching) is appended in the
// order given.
func RegisterSchedules(e *echo.Echo, h *handler.ScheduleHandler, jwtSecret string, readMW ...echo.MiddlewareFunc) {
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/courses/:id/schedules", h.List, readMW...)
	auth.PUT("/courses/:id/schedules", h.ReplaceAll, middleware.RequireRole("OWNER"))
}

package router

import (
	"github.com/labstack/echo/v4"

	"github.com/coursehub/live-orchestrator/internal/handler"
	"github.com/coursehub/live-orchestrator/internal/middleware"
)

// RegisterLive wires the live-session lifecycle endpoints, all behind
// authentication.  The same POST serves the owner opening the broadcast
// and a booked viewer joining it, so the rate limiter is applied there
// to absorb join stampedes when a session-started event goes out.
// Force-stopping a session is an OWNER-only operation.
func RegisterLive(e *echo.Echo, h *handler.LiveHandler, jwtSecret string, limitMW ...echo.MiddlewareFunc) {
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/courses/:id/live", h.LiveStatus)
	auth.POST("/courses/:id/live", h.StartLive, limitMW...)
	auth.DELETE("/courses/:id/live", h.StopLive, middleware.RequireRole("OWNER"))
}

package router

import (
	"github.com/labstack/echo/v4"

	"github.com/coursehub/live-orchestrator/internal/handler"
	"github.com/coursehub/live-orchestrator/internal/middleware"
)

// RegisterBookings wires the seat-booking endpoint.  Booking needs a
// valid access token; the rate limiter keeps one client from hammering
// the capacity transaction.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, limitMW ...echo.MiddlewareFunc) {
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.POST("/courses/:id/book", h.Book, limitMW...)
}

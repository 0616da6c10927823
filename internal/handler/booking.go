package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/live-orchestrator/internal/session"
)

// BookingHandler lets an authenticated user reserve a seat in a live
// course.  Confirmation arrives asynchronously through the payment
// queue consumer, never through this surface.
type BookingHandler struct {
	engine *session.Engine
}

func NewBookingHandler(engine *session.Engine) *BookingHandler {
	return &BookingHandler{engine: engine}
}

// Book handles POST /v1/courses/:id/book.  The capacity check and the
// insert run inside one transaction, so two racing requests for the
// last seat resolve to exactly one booking and one conflict.
func (h *BookingHandler) Book(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	courseID, err := courseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	bk, err := h.engine.Book(c.Request().Context(), courseID, userID)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"booking_id": bk.ID,
		"course_id":  bk.CourseID,
		"confirmed":  bk.Confirmed,
		"created_at": bk.CreatedAt,
	})
}

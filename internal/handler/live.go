package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/live-orchestrator/internal/session"
)

// LiveHandler exposes the live-session lifecycle over HTTP.  All the
// decisions live in the session engine; the handler only translates
// between the wire and the domain.
type LiveHandler struct {
	engine *session.Engine
}

func NewLiveHandler(engine *session.Engine) *LiveHandler {
	return &LiveHandler{engine: engine}
}

// startRequest is the optional body for POST /v1/courses/:id/live.  The
// owner may set a seat ceiling while opening the broadcast; viewers
// send no body.
type startRequest struct {
	MaxParticipants *uint32 `json:"max_participants"`
}

// StartLive handles POST /v1/courses/:id/live.  For the course owner it
// opens the broadcast; for anyone else it is a join request against the
// running session.  Both receive media-room credentials on success.
func (h *LiveHandler) StartLive(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	courseID, err := courseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	var req startRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	res, err := h.engine.Start(c.Request().Context(), courseID, userID, session.StartOptions{
		MaxParticipants: req.MaxParticipants,
	})
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// StopLive handles DELETE /v1/courses/:id/live.  Owner only; ends the
// broadcast and tears the media room down.
func (h *LiveHandler) StopLive(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	courseID, err := courseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	if err := h.engine.Stop(c.Request().Context(), courseID, userID); err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "live session ended"})
}

// LiveStatus handles GET /v1/courses/:id/live.  Public snapshot of the
// session phase, seat usage and the next scheduled meeting; clients
// receiving queue events call this to refresh instead of polling.
func (h *LiveHandler) LiveStatus(c echo.Context) error {
	courseID, err := courseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	st, err := h.engine.CourseStatus(c.Request().Context(), courseID)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

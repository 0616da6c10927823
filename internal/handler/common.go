package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/live-orchestrator/internal/session"
)

// getUserID extracts the authenticated user's numeric id from the
// context.  JWTAuth stores it as uint64; anything else means the
// middleware did not run and the request is unauthorized.
func getUserID(c echo.Context) (uint64, error) {
	if id, ok := c.Get("user_id").(uint64); ok && id > 0 {
		return id, nil
	}
	return 0, errors.New("missing user id")
}

// courseIDParam parses the :id path parameter.
func courseIDParam(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid course id")
	}
	return id, nil
}

// respondDomainError maps the orchestration error taxonomy onto HTTP
// responses.  Conflicts and timing failures become distinct, actionable
// messages; anything unrecognized is logged and reported as a plain
// internal error.
func respondDomainError(c echo.Context, err error) error {
	var tooEarly *session.TooEarlyError
	switch {
	case errors.Is(err, session.ErrCourseNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
	case errors.Is(err, session.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	case errors.Is(err, session.ErrNotLiveFormat):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "this course does not support live sessions"})
	case errors.Is(err, session.ErrNoSchedule):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no upcoming schedule within the start window"})
	case errors.As(err, &tooEarly):
		wait := tooEarly.Wait.Round(time.Second)
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":            "session not startable yet",
			"message":          "the session can be started " + wait.String() + " from now",
			"retry_after_secs": int(wait / time.Second),
		})
	case errors.Is(err, session.ErrGraceExpired):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "the start window for this session has expired"})
	case errors.Is(err, session.ErrInvalidCapacity):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "max participants must be a positive integer"})
	case errors.Is(err, session.ErrMediaIdentity):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user id exceeds media identity range"})
	case errors.Is(err, session.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, session.ErrAlreadyLive):
		return c.JSON(http.StatusConflict, echo.Map{"error": "live session already in progress"})
	case errors.Is(err, session.ErrNotLive):
		return c.JSON(http.StatusConflict, echo.Map{"error": "no live session in progress"})
	case errors.Is(err, session.ErrAlreadyBooked):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already booked"})
	case errors.Is(err, session.ErrCourseFull):
		return c.JSON(http.StatusConflict, echo.Map{"error": "this class is full"})
	case errors.Is(err, session.ErrProvider):
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "media provider unavailable"})
	}
	log.Printf("handler: %s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

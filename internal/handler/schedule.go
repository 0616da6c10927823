package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/coursehub/live-orchestrator/internal/config"
	"github.com/coursehub/live-orchestrator/internal/middleware"
	"github.com/coursehub/live-orchestrator/internal/model"
	"github.com/coursehub/live-orchestrator/internal/repository"
	"github.com/coursehub/live-orchestrator/internal/session"
)

// ScheduleHandler manages a course's programme of scheduled live
// meetings.  Reads are public and cacheable; the replace-all write is
// restricted to the course owner and busts the cached listing.
type ScheduleHandler struct {
	schedules *repository.ScheduleRepo
	courses   *repository.CourseRepo
	cache     config.CacheConfig
	rdb       *redis.Client
}

func NewScheduleHandler(schedules *repository.ScheduleRepo, courses *repository.CourseRepo, cache config.CacheConfig, rdb *redis.Client) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules, courses: courses, cache: cache, rdb: rdb}
}

// scheduleEntry is one meeting in the submitted programme.
type scheduleEntry struct {
	Topic       string    `json:"topic"`
	Speaker     string    `json:"speaker"`
	Position    *uint32   `json:"position"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

type replaceSchedulesRequest struct {
	Schedules []scheduleEntry `json:"schedules"`
}

// scheduleResponse mirrors the stored row back to the client.
type scheduleResponse struct {
	ID          uint64    `json:"id"`
	Topic       string    `json:"topic"`
	Speaker     string    `json:"speaker"`
	Position    uint32    `json:"position"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

// List handles GET /v1/courses/:id/schedules.
func (h *ScheduleHandler) List(c echo.Context) error {
	courseID, err := courseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if _, err := h.courses.GetByID(c.Request().Context(), courseID); err != nil {
		return respondDomainError(c, err)
	}

	list, err := h.schedules.ListByCourse(c.Request().Context(), courseID)
	if err != nil {
		return respondDomainError(c, err)
	}
	out := make([]scheduleResponse, 0, len(list))
	for _, s := range list {
		out = append(out, scheduleResponse{
			ID:          s.ID,
			Topic:       s.Topic,
			Speaker:     s.Speaker,
			Position:    s.Position,
			ScheduledAt: s.ScheduledAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"course_id": courseID, "schedules": out})
}

// ReplaceAll handles PUT /v1/courses/:id/schedules.  The body carries
// the complete programme; whatever was stored before is dropped in the
// same transaction.  An empty list clears the programme.
func (h *ScheduleHandler) ReplaceAll(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	courseID, err := courseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	course, err := h.courses.GetByID(c.Request().Context(), courseID)
	if err != nil {
		return respondDomainError(c, err)
	}
	if course.OwnerID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only the course owner can edit the schedule"})
	}
	if course.CourseType != model.CourseTypeLive {
		return respondDomainError(c, session.ErrNotLiveFormat)
	}

	var req replaceSchedulesRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	entries, err := validateSchedules(req.Schedules)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	stored, err := h.schedules.ReplaceAll(c.Request().Context(), courseID, entries)
	if err != nil {
		return respondDomainError(c, err)
	}
	middleware.InvalidateResponse(c.Request().Context(), h.rdb, h.cache, c.Request().URL.Path)

	out := make([]scheduleResponse, 0, len(stored))
	for _, s := range stored {
		out = append(out, scheduleResponse{
			ID:          s.ID,
			Topic:       s.Topic,
			Speaker:     s.Speaker,
			Position:    s.Position,
			ScheduledAt: s.ScheduledAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"course_id": courseID, "schedules": out})
}

// validateSchedules checks the submitted programme and converts it to
// model entries.  Positions default to submission order when omitted;
// explicit positions must not repeat.
func validateSchedules(in []scheduleEntry) ([]model.Schedule, error) {
	entries := make([]model.Schedule, 0, len(in))
	seen := make(map[uint32]bool, len(in))
	for i, e := range in {
		if e.Topic == "" {
			return nil, errEntry(i, "topic is required")
		}
		if e.Speaker == "" {
			return nil, errEntry(i, "speaker is required")
		}
		if e.ScheduledAt.IsZero() {
			return nil, errEntry(i, "scheduled_at is required")
		}
		pos := uint32(i)
		if e.Position != nil {
			pos = *e.Position
		}
		if seen[pos] {
			return nil, errEntry(i, "duplicate position")
		}
		seen[pos] = true
		entries = append(entries, model.Schedule{
			Topic:       e.Topic,
			Speaker:     e.Speaker,
			Position:    pos,
			ScheduledAt: e.ScheduledAt.UTC(),
		})
	}
	return entries, nil
}

type scheduleValidationError struct {
	index int
	msg   string
}

func (e *scheduleValidationError) Error() string {
	return "schedules[" + strconv.Itoa(e.index) + "]: " + e.msg
}

func errEntry(i int, msg string) error {
	return &scheduleValidationError{index: i, msg: msg}
}

package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/live-orchestrator/internal/session"
)

func TestRespondDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"course not found", session.ErrCourseNotFound, http.StatusNotFound},
		{"booking not found", session.ErrBookingNotFound, http.StatusNotFound},
		{"not live format", session.ErrNotLiveFormat, http.StatusBadRequest},
		{"no schedule", session.ErrNoSchedule, http.StatusBadRequest},
		{"too early", &session.TooEarlyError{Wait: 5 * time.Minute}, http.StatusBadRequest},
		{"grace expired", session.ErrGraceExpired, http.StatusBadRequest},
		{"invalid capacity", session.ErrInvalidCapacity, http.StatusBadRequest},
		{"forbidden", session.ErrForbidden, http.StatusForbidden},
		{"already live", session.ErrAlreadyLive, http.StatusConflict},
		{"not live", session.ErrNotLive, http.StatusConflict},
		{"already booked", session.ErrAlreadyBooked, http.StatusConflict},
		{"course full", session.ErrCourseFull, http.StatusConflict},
		{"provider failure", session.ErrProvider, http.StatusBadGateway},
		{"wrapped provider failure", errors.Join(session.ErrProvider, errors.New("dial tcp")), http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/v1/courses/1/live", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			if err := respondDomainError(c, tt.err); err != nil {
				t.Fatalf("respondDomainError: %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRespondDomainErrorTooEarlyCarriesWait(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/courses/1/live", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := respondDomainError(c, &session.TooEarlyError{Wait: 20 * time.Minute}); err != nil {
		t.Fatalf("respondDomainError: %v", err)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "\"retry_after_secs\":1200") {
		t.Fatalf("body missing retry hint: %s", body)
	}
}

func TestCourseIDParam(t *testing.T) {
	e := echo.New()
	for _, tt := range []struct {
		raw    string
		wantOK bool
	}{
		{"7", true},
		{"0", false},
		{"-1", false},
		{"abc", false},
		{"", false},
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(tt.raw)
		id, err := courseIDParam(c)
		if tt.wantOK && (err != nil || id != 7) {
			t.Fatalf("courseIDParam(%q) = %d, %v", tt.raw, id, err)
		}
		if !tt.wantOK && err == nil {
			t.Fatalf("courseIDParam(%q) accepted", tt.raw)
		}
	}
}

func TestGetUserID(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	if _, err := getUserID(c); err == nil {
		t.Fatal("missing user id accepted")
	}
	c.Set("user_id", uint64(42))
	id, err := getUserID(c)
	if err != nil || id != 42 {
		t.Fatalf("getUserID = %d, %v", id, err)
	}
}

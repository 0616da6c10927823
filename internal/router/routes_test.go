package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/live-orchestrator/internal/handler"
	"github.com/coursehub/live-orchestrator/internal/utils"
)

const testSecret = "routes-test-secret"

// newTestServer registers the real route tables with zero-value
// handlers.  Every request below is rejected by middleware before the
// handler runs, so the handlers never need working dependencies.
func newTestServer() *echo.Echo {
	e := echo.New()
	RegisterSchedules(e, &handler.ScheduleHandler{}, testSecret)
	RegisterLive(e, &handler.LiveHandler{}, testSecret)
	RegisterBookings(e, &handler.BookingHandler{}, testSecret)
	return e
}

func bearer(t *testing.T, userID uint64, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, userID, role, 5)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	return "Bearer " + tok.Token
}

func TestReadRoutesRequireAuth(t *testing.T) {
	e := newTestServer()

	paths := []string{
		"/v1/courses/1/schedules",
		"/v1/courses/1/live",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("GET %s without token = %d, want %d", path, rec.Code, http.StatusUnauthorized)
		}
	}
}

func TestOwnerRoutesRejectCustomerRole(t *testing.T) {
	e := newTestServer()

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodPut, "/v1/courses/1/schedules"},
		{http.MethodDelete, "/v1/courses/1/live"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		req.Header.Set(echo.HeaderAuthorization, bearer(t, 42, "CUSTOMER"))
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("%s %s as CUSTOMER = %d, want %d", tc.method, tc.path, rec.Code, http.StatusForbidden)
		}
	}
}

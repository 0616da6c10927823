package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/live-orchestrator/internal/config"
)

func TestEncodeDecodeCached(t *testing.T) {
	status, body, ok := decodeCached(encodeCached(http.StatusOK, []byte(`{"x":1}`)))
	if !ok || status != http.StatusOK || string(body) != `{"x":1}` {
		t.Fatalf("round trip = %d %q %v", status, body, ok)
	}

	if _, _, ok := decodeCached([]byte{1, 2}); ok {
		t.Fatal("short payload decoded")
	}
	status, body, ok = decodeCached(encodeCached(http.StatusOK, nil))
	if !ok || status != http.StatusOK || len(body) != 0 {
		t.Fatalf("empty body round trip = %d %q %v", status, body, ok)
	}
}

func TestResponseCacheKeyPerPath(t *testing.T) {
	a := responseCacheKey("cache", "/v1/courses/1/schedules")
	b := responseCacheKey("cache", "/v1/courses/2/schedules")
	if a == b {
		t.Fatal("different paths must hash to different keys")
	}
	if a != responseCacheKey("cache", "/v1/courses/1/schedules") {
		t.Fatal("key derivation must be deterministic")
	}
}

func TestResponseCacheDisabledPassesThrough(t *testing.T) {
	mw := NewResponseCache(config.CacheConfig{Enabled: false}, nil)

	e := echo.New()
	called := false
	h := mw(func(c echo.Context) error {
		called = true
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/courses/1/schedules", nil)
	rec := httptest.NewRecorder()
	if err := h(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !called {
		t.Fatal("next handler not invoked")
	}
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("response = %d %q", rec.Code, rec.Body.String())
	}
}

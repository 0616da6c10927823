package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/coursehub/live-orchestrator/internal/config"
)

// The response cache keeps successful GET responses (schedule listings
// in practice) in Redis for a short TTL.  Live state is never cached:
// only the routes wrapped with this middleware go through it, and
// writers invalidate the affected path explicitly.

// captureWriter captures the response body/status while forwarding to
// the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	cw.size += int64(len(b))
	if cw.limit <= 0 || cw.size <= cw.limit {
		cw.buf.Write(b)
	}
	return cw.ResponseWriter.Write(b)
}

// responseCacheKey hashes the request path (with query) under the
// configured prefix.  Keys derive from the concrete URL, not the route
// pattern, so writers can invalidate one course's entry.
func responseCacheKey(prefix, pathWithQuery string) string {
	sum := sha1.Sum([]byte(pathWithQuery))
	return fmt.Sprintf("%s:%x", prefix, sum[:])
}

// encodeCached packs [4 bytes status][body].
func encodeCached(status int, body []byte) []byte {
	out := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	copy(out[4:], body)
	return out
}

func decodeCached(bs []byte) (status int, body []byte, ok bool) {
	if len(bs) < 4 {
		return 0, nil, false
	}
	return int(binary.BigEndian.Uint32(bs[0:4])), bs[4:], true
}

// NewResponseCache returns a middleware caching 200 responses of the
// configured methods.  A nil Redis client or a disabled config yields a
// pass-through.
func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	maxBody := int64(cfg.MaxBodyBytes)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			if !cfg.Methods[strings.ToUpper(r.Method)] {
				return next(c)
			}

			ctx := r.Context()
			path := r.URL.Path
			if r.URL.RawQuery != "" {
				path += "?" + r.URL.RawQuery
			}
			key := responseCacheKey(cfg.Prefix, path)

			if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
				if status, body, ok := decodeCached(bs); ok {
					c.Response().Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(status)
					_, _ = c.Response().Write(body)
					return nil
				}
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}

			body := cw.buf.Bytes()
			if cw.status == http.StatusOK && (maxBody <= 0 || cw.size <= maxBody) {
				_ = rdb.SetEx(context.Background(), key, encodeCached(cw.status, body), cfg.TTL).Err()
			}
			return nil
		}
	}
}

// InvalidateResponse drops the cached entry for one concrete path.
// Handlers that rewrite a course's schedule call this so readers see
// the new programme immediately instead of after TTL expiry.
func InvalidateResponse(ctx context.Context, rdb *redis.Client, cfg config.CacheConfig, path string) {
	if !cfg.Enabled || rdb == nil {
		return
	}
	_ = rdb.Del(ctx, responseCacheKey(cfg.Prefix, path)).Err()
}

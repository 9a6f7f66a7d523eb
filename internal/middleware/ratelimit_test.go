package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLimiter(t *testing.T, max int) (*RateLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRateLimiter(rdb, time.Minute, max, false, zap.NewNop()), mr
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func hit(h http.Handler, path, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_FixedWindow(t *testing.T) {
	l, mr := newTestLimiter(t, 3)
	h := l.Handler(okHandler)

	for i := 0; i < 3; i++ {
		rec := hit(h, "/api/links", "10.0.0.1:1234")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "3", rec.Header().Get("RateLimit-Limit"))
	}

	rec := hit(h, "/api/links", "10.0.0.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), rateLimitMessage)

	// Other clients have their own window.
	assert.Equal(t, http.StatusOK, hit(h, "/api/links", "10.0.0.2:1234").Code)

	assert.Equal(t, time.Minute, mr.TTL(RateLimitKeyPrefix+"10.0.0.1"))
	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, hit(h, "/api/links", "10.0.0.1:1234").Code)
}

func TestRateLimiter_SkipsHealth(t *testing.T) {
	l, mr := newTestLimiter(t, 1)
	h := l.Handler(okHandler)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, hit(h, "/health", "10.0.0.1:1").Code)
	}
	assert.False(t, mr.Exists(RateLimitKeyPrefix+"10.0.0.1"))
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	l, mr := newTestLimiter(t, 1)
	h := l.Handler(okHandler)
	mr.Close()

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(h, "/api/links", "10.0.0.1:1").Code)
	}
}

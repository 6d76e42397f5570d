package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(t *testing.T, perMinute int) *Limiter {
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, CleanupInterval: time.Hour})
	t.Cleanup(rl.Stop)
	return rl
}

func TestAllowPerClient(t *testing.T) {
	rl := newTestLimiter(t, 2)
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return fixed }

	assert.True(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("1.1.1.1"))
	assert.False(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("2.2.2.2"))
	assert.Equal(t, int64(1), rl.Hits())
	assert.Equal(t, 2, rl.ActiveClients())

	fixed = fixed.Add(30 * time.Second)
	assert.True(t, rl.Allow("1.1.1.1"))
}

func TestCleanupForgetsIdleClients(t *testing.T) {
	rl := newTestLimiter(t, 5)
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return fixed }
	rl.Allow("1.1.1.1")

	fixed = fixed.Add(11 * time.Minute)
	rl.Allow("2.2.2.2")
	rl.cleanupStaleEntries()
	assert.Equal(t, 1, rl.ActiveClients())
}

func TestMiddlewareOnlyLimitsWrites(t *testing.T) {
	rl := newTestLimiter(t, 1)
	limited := 0
	h := rl.Middleware(
		func(*http.Request) string { return "9.9.9.9" },
		func(w http.ResponseWriter, r *http.Request) {
			limited++
			w.WriteHeader(http.StatusTooManyRequests)
		},
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/versements", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/versements", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/versements/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, 1, limited)
}

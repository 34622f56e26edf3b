package ratelimit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newLimiter(rate int, window time.Duration) (*Limiter, *fakeClock) {
	clock := &fakeClock{now: time.Now()}
	l := New(rate, window)
	l.now = clock.Now
	return l, clock
}

func allowN(l *Limiter, key string, n int) int {
	ok := 0
	for i := 0; i < n; i++ {
		if l.Allow(key) {
			ok++
		}
	}
	return ok
}

func TestLimiter_BurstThenDeny(t *testing.T) {
	l, _ := newLimiter(3, time.Minute)

	assert.Equal(t, 3, allowN(l, "10.0.0.1", 5))
	// Buckets are independent per key.
	assert.True(t, l.Allow("10.0.0.2"))
	assert.Equal(t, 2, l.Len())
}

func TestLimiter_ZeroRateDisables(t *testing.T) {
	l := New(0, time.Minute)

	assert.False(t, l.Enabled())
	assert.Equal(t, 100, allowN(l, "k", 100))
	assert.Zero(t, l.Len())
}

func TestLimiter_Refill(t *testing.T) {
	// One token per second.
	l, clock := newLimiter(60, time.Minute)
	require.Equal(t, 60, allowN(l, "k", 61))

	clock.Advance(time.Second)
	assert.Equal(t, 1, allowN(l, "k", 2))

	clock.Advance(5 * time.Second)
	assert.Equal(t, 5, allowN(l, "k", 6))

	// A long idle period never yields more than a full bucket.
	clock.Advance(time.Hour)
	_, remaining, _ := l.Status("k")
	assert.Equal(t, 60, remaining)
}

func TestLimiter_Status(t *testing.T) {
	l, clock := newLimiter(10, time.Minute)

	limit, remaining, resetAt := l.Status("s")
	assert.Equal(t, 10, limit)
	assert.Equal(t, 10, remaining)
	assert.True(t, resetAt.Equal(clock.Now()))

	allowN(l, "s", 3)

	_, remaining, resetAt = l.Status("s")
	assert.Equal(t, 7, remaining)
	// Three tokens at 10/min.
	assert.Equal(t, 18*time.Second, resetAt.Sub(clock.Now()))
}

func TestLimiter_Concurrent(t *testing.T) {
	l, _ := newLimiter(100, time.Minute)

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("shared") {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 100, allowed.Load())
}

func TestLimiter_Prune(t *testing.T) {
	l, clock := newLimiter(5, time.Minute)

	l.Allow("stale")
	clock.Advance(45 * time.Second)
	l.Allow("fresh")
	clock.Advance(30 * time.Second)

	assert.Equal(t, 1, l.Prune())
	assert.Equal(t, 1, l.Len())
}

func TestStartPruner_StopsWithContext(t *testing.T) {
	l := New(5, time.Minute)
	l.Allow("k")
	l.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartPruner(ctx, l, 5*time.Millisecond)

	assert.Eventually(t, func() bool { return l.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestMiddleware(t *testing.T) {
	l, _ := newLimiter(2, time.Minute)

	rejected := 0
	h := Middleware(l, nil, func() { rejected++ })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	login := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := login("192.0.2.1:4000")
	assert.Equal(t, http.StatusNoContent, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, first.Header().Get("X-RateLimit-Reset"))

	assert.Equal(t, http.StatusNoContent, login("192.0.2.1:4001").Code)

	// The source port does not matter, only the host.
	rec := login("192.0.2.1:4002")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Too many attempts. Try again later.", body["error"])
	assert.Equal(t, 1, rejected)

	assert.Equal(t, http.StatusNoContent, login("192.0.2.2:4000").Code)
}

func TestMiddleware_DisabledPassesThrough(t *testing.T) {
	h := Middleware(New(0, time.Minute), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}

func TestClientIP(t *testing.T) {
	for remote, want := range map[string]string{
		"[2001:db8::1]:443": "2001:db8::1",
		"198.51.100.7:5555": "198.51.100.7",
		"203.0.113.9":       "203.0.113.9",
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		assert.Equal(t, want, ClientIP(req), remote)
	}
}

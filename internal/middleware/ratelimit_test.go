package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeonarno/Alyra-blockquest/internal/model"
)

func newTestLimiter(t *testing.T, rate, burst int) (*RateLimiter, *time.Time) {
	t.Helper()
	rl := NewRateLimiter(RateLimitConfig{Rate: rate, Burst: burst, Window: time.Minute, Cleanup: time.Hour})
	t.Cleanup(rl.Stop)
	// a zero Burst in the config means the default
	rl.burst = burst
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestRateLimiter_AllowsRatePlusBurst(t *testing.T) {
	t.Parallel()
	rl, _ := newTestLimiter(t, 3, 2)

	for i := 0; i < 5; i++ {
		allowed, remaining, _ := rl.Allow("a")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 4-i, remaining)
	}
	allowed, remaining, _ := rl.Allow("a")
	assert.False(t, allowed)
	assert.Zero(t, remaining)

	allowed, _, _ = rl.Allow("b")
	assert.True(t, allowed, "buckets are per key")
}

func TestRateLimiter_Refill(t *testing.T) {
	t.Parallel()
	rl, now := newTestLimiter(t, 6, 0)

	for i := 0; i < 6; i++ {
		allowed, _, _ := rl.Allow("a")
		require.True(t, allowed)
	}

	*now = now.Add(20 * time.Second)
	allowed, remaining, _ := rl.Allow("a")
	require.True(t, allowed)
	assert.Equal(t, 1, remaining, "a third of the window refills a third of the rate")

	*now = now.Add(time.Minute)
	_, remaining, _ = rl.Allow("a")
	assert.Equal(t, 5, remaining)
}

func TestRateLimiter_CleanupDropsIdleBuckets(t *testing.T) {
	t.Parallel()
	rl, now := newTestLimiter(t, 1, 0)

	rl.Allow("old")
	*now = now.Add(3 * time.Minute)
	rl.Allow("fresh")
	rl.cleanupExpired()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.buckets, "old")
	assert.Contains(t, rl.buckets, "fresh")
}

func TestRateLimiter_ConcurrentAccess(t *testing.T) {
	t.Parallel()
	rl, _ := newTestLimiter(t, 50, 0)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _, _ := rl.Allow("shared"); ok {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowedCount)
}

func TestRateLimit_KeysOnCaller(t *testing.T) {
	t.Parallel()
	rl, _ := newTestLimiter(t, 1, 0)
	handler := RateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	caller := model.MustParseAddress(callerHex)
	call := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/sessions/1/dice", nil)
		req.RemoteAddr = remote
		req = req.WithContext(context.WithValue(req.Context(), CallerKey, caller))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	first := call("10.0.0.1:1234")
	assert.Equal(t, http.StatusNoContent, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))

	second := call("10.0.0.2:1234")
	assert.Equal(t, http.StatusTooManyRequests, second.Code, "same caller from another address")
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	assert.Contains(t, second.Body.String(), "rate-limited")
}

func TestRateLimit_AnonymousFallsBackToRemoteAddr(t *testing.T) {
	t.Parallel()
	rl, _ := newTestLimiter(t, 1, 0)
	handler := RateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for _, remote := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	}
}

func TestRateLimit_AnonymousIgnoresRemotePort(t *testing.T) {
	t.Parallel()
	rl, _ := newTestLimiter(t, 1, 0)
	handler := RateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := make([]int, 0, 2)
	for _, remote := range []string{"10.0.0.1:4001", "10.0.0.1:4002"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

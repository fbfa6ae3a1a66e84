package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/dataspace/pkg/auth"
	"github.com/platinummonkey/dataspace/pkg/contextkeys"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestAs(subject string, roles ...string) *http.Request {
	req := httptest.NewRequest("GET", "/organization/", nil)
	view := auth.BuildView(auth.Credential{Subject: subject, Roles: roles})
	return req.WithContext(contextkeys.WithAccessView(req.Context(), view))
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(&RateLimitConfig{
		RequestsPerWindow: 3,
		WindowDuration:    time.Minute,
		BurstSize:         0,
	})

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("subject:alice"), "request %d should be allowed", i)
	}
	assert.False(t, rl.Allow("subject:alice"))

	// Independent keys have independent buckets
	assert.True(t, rl.Allow("subject:bob"))
}

func TestRateLimiter_Burst(t *testing.T) {
	rl := NewRateLimiter(&RateLimitConfig{
		RequestsPerWindow: 2,
		WindowDuration:    time.Minute,
		BurstSize:         2,
	})

	for i := 0; i < 4; i++ {
		assert.True(t, rl.Allow("k"), "request %d should fit within burst", i)
	}
	assert.False(t, rl.Allow("k"))
}

func TestRateLimiter_Remaining(t *testing.T) {
	rl := NewRateLimiter(&RateLimitConfig{
		RequestsPerWindow: 5,
		WindowDuration:    time.Minute,
		BurstSize:         0,
	})

	assert.Equal(t, 5, rl.Remaining("k"))
	rl.Allow("k")
	rl.Allow("k")
	assert.Equal(t, 3, rl.Remaining("k"))
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(&RateLimitConfig{
		RequestsPerWindow: 5,
		WindowDuration:    10 * time.Millisecond,
		BurstSize:         0,
	})

	rl.Allow("stale")
	time.Sleep(30 * time.Millisecond)
	rl.Cleanup()

	rl.mu.RLock()
	_, exists := rl.buckets["stale"]
	rl.mu.RUnlock()
	assert.False(t, exists)
}

func TestRateLimitMiddleware_Headers(t *testing.T) {
	m := NewRateLimitMiddleware(nil)

	rec := httptest.NewRecorder()
	m.Handler(okHandler()).ServeHTTP(rec, requestAs("alice"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
}

func TestRateLimitMiddleware_Exceeded(t *testing.T) {
	m := NewRateLimitMiddleware(nil)
	m.anonymousLimiter = NewRateLimiter(&RateLimitConfig{
		RequestsPerWindow: 1,
		WindowDuration:    time.Minute,
		BurstSize:         0,
	})

	handler := m.Handler(okHandler())

	req := httptest.NewRequest("GET", "/organization/", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimitMiddleware_Tiers(t *testing.T) {
	m := NewRateLimitMiddleware(nil)

	t.Run("authenticated subject", func(t *testing.T) {
		key, limiter := m.limiterFor(requestAs("alice", "org_acme_access"))
		assert.Equal(t, "subject:alice", key)
		assert.Same(t, m.subjectLimiter, limiter)
	})

	t.Run("superuser", func(t *testing.T) {
		key, limiter := m.limiterFor(requestAs("svc-admin", "DATASPACE_ADMIN"))
		assert.Equal(t, "subject:svc-admin", key)
		assert.Same(t, m.adminLimiter, limiter)
	})

	t.Run("anonymous by IP", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/organization/", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		key, limiter := m.limiterFor(req)
		assert.Equal(t, "ip:203.0.113.7", key)
		assert.Same(t, m.anonymousLimiter, limiter)
	})
}

func newRedisFixture(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestDistributedRateLimiter_Allow(t *testing.T) {
	_, client := newRedisFixture(t)

	rl := NewDistributedRateLimiter(client, &RateLimitConfig{
		RequestsPerWindow: 2,
		WindowDuration:    time.Minute,
	}, "test")

	ctx := context.Background()

	allowed, err := rl.Allow(ctx, "subject:alice")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = rl.Allow(ctx, "subject:alice")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = rl.Allow(ctx, "subject:alice")
	require.NoError(t, err)
	assert.False(t, allowed)

	// Window counters are per key
	allowed, err = rl.Allow(ctx, "subject:bob")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestDistributedRateLimiter_WindowExpiry(t *testing.T) {
	mr, client := newRedisFixture(t)

	rl := NewDistributedRateLimiter(client, &RateLimitConfig{
		RequestsPerWindow: 1,
		WindowDuration:    time.Second,
	}, "test")

	ctx := context.Background()

	allowed, err := rl.Allow(ctx, "k")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = rl.Allow(ctx, "k")
	require.NoError(t, err)
	require.False(t, allowed)

	mr.FastForward(2 * time.Second)

	allowed, err = rl.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestDistributedRateLimiter_Remaining(t *testing.T) {
	_, client := newRedisFixture(t)

	rl := NewDistributedRateLimiter(client, &RateLimitConfig{
		RequestsPerWindow: 5,
		WindowDuration:    time.Minute,
	}, "test")

	ctx := context.Background()

	remaining, err := rl.Remaining(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 5, remaining)

	rl.Allow(ctx, "k")
	rl.Allow(ctx, "k")

	remaining, err = rl.Remaining(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 3, remaining)
}

func TestDistributedRateLimiter_Reset(t *testing.T) {
	_, client := newRedisFixture(t)

	rl := NewDistributedRateLimiter(client, &RateLimitConfig{
		RequestsPerWindow: 1,
		WindowDuration:    time.Minute,
	}, "test")

	ctx := context.Background()

	rl.Allow(ctx, "k")
	allowed, _ := rl.Allow(ctx, "k")
	require.False(t, allowed)

	require.NoError(t, rl.Reset(ctx, "k"))

	allowed, err := rl.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestDistributedRateLimiter_FailOpen(t *testing.T) {
	mr, client := newRedisFixture(t)
	mr.Close()

	rl := NewDistributedRateLimiter(client, DefaultRateLimitConfig(), "test")

	allowed, err := rl.Allow(context.Background(), "k")
	assert.Error(t, err)
	assert.True(t, allowed, "limiter must fail open when Redis is unreachable")
}

func TestDistributedRateLimitMiddleware(t *testing.T) {
	_, client := newRedisFixture(t)

	m := NewDistributedRateLimitMiddleware(client, nil)
	m.anonymousLimiter = NewDistributedRateLimiter(client, &RateLimitConfig{
		RequestsPerWindow: 1,
		WindowDuration:    time.Minute,
	}, "ratelimit:anon")

	handler := m.Handler(okHandler())

	req := httptest.NewRequest("GET", "/organization/", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestDistributedRateLimitMiddleware_FailOpen(t *testing.T) {
	mr, client := newRedisFixture(t)
	mr.Close()

	m := NewDistributedRateLimitMiddleware(client, nil)
	handler := m.Handler(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestAs("alice"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDistributedRateLimitMiddleware_FailClosed(t *testing.T) {
	mr, client := newRedisFixture(t)
	mr.Close()

	m := NewDistributedRateLimitMiddleware(client, nil)
	m.SetFallbackEnabled(false)
	handler := m.Handler(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestAs("alice"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDistributedRateLimitMiddleware_HealthCheck(t *testing.T) {
	mr, client := newRedisFixture(t)

	m := NewDistributedRateLimitMiddleware(client, nil)
	require.NoError(t, m.HealthCheck(context.Background()))

	mr.Close()
	assert.Error(t, m.HealthCheck(context.Background()))
}

package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T) Limiter {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return Limiter{Client: client, Prefix: "rl:test:"}
}

func TestLimiterAllowsWithinWindow(t *testing.T) {
	limiter := newLimiter(t)

	for i := 0; i < 3; i++ {
		allowed, _, _, err := limiter.Allow(context.Background(), "login:1.2.3.4", time.Minute, 3)
		require.NoError(t, err)
		require.True(t, allowed, "request %d should pass", i+1)
	}

	allowed, remaining, _, err := limiter.Allow(context.Background(), "login:1.2.3.4", time.Minute, 3)
	require.NoError(t, err)
	require.False(t, allowed)
	require.Zero(t, remaining)
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	limiter := newLimiter(t)

	for i := 0; i < 3; i++ {
		_, _, _, err := limiter.Allow(context.Background(), "login:1.2.3.4", time.Minute, 3)
		require.NoError(t, err)
	}
	allowed, _, _, err := limiter.Allow(context.Background(), "login:5.6.7.8", time.Minute, 3)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestMiddlewareReturns429(t *testing.T) {
	limiter := newLimiter(t)
	h := Handler{
		Limiter: limiter,
		Config:  Config{Key: ByClientIP, Window: time.Minute, Max: 2},
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	wrapped := h.Middleware(next)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
	require.Contains(t, rec.Body.String(), "RATE_LIMITED")
}

func TestMiddlewareFailsOpenOnLimiterError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	limiter := Limiter{Client: client, Prefix: "rl:test:"}
	mr.Close()

	var reported error
	h := Handler{
		Limiter: limiter,
		Config:  Config{Key: ByClientIP, Window: time.Minute, Max: 1},
		OnError: func(err error) { reported = err },
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	h.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Error(t, reported)
}

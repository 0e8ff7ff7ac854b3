package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limitedHandler(limiter Limiter) echo.HandlerFunc {
	mw := RateLimit(limiter, zerolog.New(os.Stderr))
	return mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
}

func callFrom(e *echo.Echo, h echo.HandlerFunc, remote string) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(http.MethodGet, "/qr/validate", nil)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	return rec, h(e.NewContext(req, rec))
}

func TestRateLimit_RequestsWithinLimit(t *testing.T) {
	e := echo.New()
	h := limitedHandler(NewMemoryLimiter(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5}))

	for i := 0; i < 5; i++ {
		rec, err := callFrom(e, h, "10.0.0.1:5000")
		if err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "5" {
			t.Errorf("request %d: expected X-RateLimit-Limit '5', got %q", i+1, got)
		}
	}
}

func TestRateLimit_ExceedsLimit(t *testing.T) {
	e := echo.New()
	h := limitedHandler(NewMemoryLimiter(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2}))

	for i := 0; i < 2; i++ {
		if _, err := callFrom(e, h, "10.0.0.1:5000"); err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
	}

	rec, err := callFrom(e, h, "10.0.0.1:5000")
	if err == nil {
		t.Fatal("expected error for rate-limited request")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", httpErr.Code)
	}

	retryVal, parseErr := strconv.Atoi(rec.Header().Get("Retry-After"))
	if parseErr != nil || retryVal < 1 {
		t.Errorf("expected Retry-After >= 1, got %q", rec.Header().Get("Retry-After"))
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("expected X-RateLimit-Remaining '0', got %q", rec.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestRateLimit_PerIPIsolation(t *testing.T) {
	e := echo.New()
	h := limitedHandler(NewMemoryLimiter(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1}))

	if _, err := callFrom(e, h, "10.0.0.1:5000"); err != nil {
		t.Fatalf("first client first request: %v", err)
	}
	if _, err := callFrom(e, h, "10.0.0.1:5001"); err == nil {
		t.Fatal("first client second request: expected rate limit error")
	}
	if _, err := callFrom(e, h, "10.0.0.2:5000"); err != nil {
		t.Fatalf("second client first request: %v", err)
	}
}

func TestTokenBucket_RetryAfterWithZeroRate(t *testing.T) {
	b := newTokenBucket(0, 1)
	b.allow()
	if ra := b.retryAfter(); ra != 1 {
		t.Errorf("expected retryAfter 1 for zero rate, got %d", ra)
	}
}

func TestMemoryLimiter_SameBucketPerKey(t *testing.T) {
	l := NewMemoryLimiter(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})

	b1 := l.getBucket("key1")
	assert.Same(t, b1, l.getBucket("key1"))
	assert.NotSame(t, b1, l.getBucket("key2"))
}

func TestRedisLimiter_WindowKey(t *testing.T) {
	l := NewRedisLimiter(nil, 10, time.Minute)
	at := time.Date(2025, 10, 1, 12, 0, 30, 0, time.UTC)

	assert.Equal(t, l.windowKey("10.0.0.1", at), l.windowKey("10.0.0.1", at.Add(20*time.Second)))
	assert.NotEqual(t, l.windowKey("10.0.0.1", at), l.windowKey("10.0.0.1", at.Add(time.Minute)))
	assert.Equal(t, 10, l.Limit())
}

func TestRateLimit_FailsOpenWhenRedisUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	limiter := NewRedisLimiter(client, 1, time.Minute)
	_, err := limiter.Allow(context.Background(), "10.0.0.1")
	require.Error(t, err)

	e := echo.New()
	h := limitedHandler(limiter)
	for i := 0; i < 3; i++ {
		rec, err := callFrom(e, h, "10.0.0.1:5000")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

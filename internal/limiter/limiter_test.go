package limiter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	l, err := NewMemoryLimiter(Config{Limit: 3, Window: time.Minute})
	if err != nil {
		t.Fatalf("NewMemoryLimiter() error = %v", err)
	}
	now := time.Unix(1_700_000_010, 0)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		res, _ := l.Allow(ctx, "k")
		if !res.Allowed || res.Remaining != int64(3-i) {
			t.Fatalf("request %d: %+v", i, res)
		}
	}

	res, _ := l.Allow(ctx, "k")
	if res.Allowed {
		t.Fatal("fourth request in window allowed")
	}
	if res.RetryAfter <= 0 || res.RetryAfter > time.Minute {
		t.Errorf("unexpected retry after %v", res.RetryAfter)
	}

	if res, _ := l.Allow(ctx, "other"); !res.Allowed {
		t.Error("keys must be counted independently")
	}

	now = now.Add(time.Minute)
	if res, _ := l.Allow(ctx, "k"); !res.Allowed {
		t.Error("next window must reset the count")
	}
}

func TestMemoryLimiter_Reset(t *testing.T) {
	l, _ := NewMemoryLimiter(Config{Limit: 1, Window: time.Hour})
	ctx := context.Background()

	l.Allow(ctx, "k")
	if res, _ := l.Allow(ctx, "k"); res.Allowed {
		t.Fatal("expected limit reached")
	}
	if err := l.Reset(ctx, "k"); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if res, _ := l.Allow(ctx, "k"); !res.Allowed {
		t.Error("expected allow after reset")
	}
}

func TestNewLimiter_InvalidConfig(t *testing.T) {
	if _, err := NewMemoryLimiter(Config{Limit: 0, Window: time.Second}); err == nil {
		t.Error("expected error for zero limit")
	}
	if _, err := NewFixedWindowLimiter(nil, Config{Limit: 1}); err == nil {
		t.Error("expected error for nil client")
	}
}

func TestFixedWindowLimiter_Redis(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	defer client.Close()

	l, err := NewFixedWindowLimiter(client, Config{Limit: 2, Window: time.Minute, KeyPrefix: "test:limiter"})
	if err != nil {
		t.Fatalf("NewFixedWindowLimiter() error = %v", err)
	}
	defer l.Reset(ctx, "k")

	for i := 0; i < 2; i++ {
		res, err := l.Allow(ctx, "k")
		if err != nil || !res.Allowed {
			t.Fatalf("request %d: %+v, %v", i, res, err)
		}
	}
	res, err := l.Allow(ctx, "k")
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if res.Allowed || res.RetryAfter <= 0 {
		t.Errorf("expected rejection with retry hint, got %+v", res)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l, _ := NewMemoryLimiter(Config{Limit: 1, Window: time.Hour})

	r := gin.New()
	r.GET("/ping", CatalogRateLimitMiddleware(l, nil), func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("first request status = %d", w.Code)
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("remaining header = %q", got)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (*LimitResult, error) {
	return nil, context.DeadlineExceeded
}
func (failingLimiter) AllowN(context.Context, string, int64) (*LimitResult, error) {
	return nil, context.DeadlineExceeded
}
func (failingLimiter) Reset(context.Context, string) error { return nil }

func TestRateLimitMiddleware_FailOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ping", RateLimitMiddleware(&MiddlewareConfig{Limiter: failingLimiter{}}), func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 when limiter fails", w.Code)
	}
}

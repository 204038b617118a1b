package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestMemoryRateLimiterCountsWithinWindow(t *testing.T) {
	limiter := NewMemoryRateLimiter()
	defer limiter.Close()

	for i := 1; i <= 3; i++ {
		decision := limiter.Allow("user:1", 3, time.Minute)
		if !decision.allowed {
			t.Fatalf("request %d should pass", i)
		}
		if decision.count != i {
			t.Fatalf("expected count %d, got %d", i, decision.count)
		}
	}
	decision := limiter.Allow("user:1", 3, time.Minute)
	if decision.allowed {
		t.Fatalf("fourth request should be blocked")
	}
	// Separate keys do not share a bucket.
	if d := limiter.Allow("user:2", 3, time.Minute); !d.allowed {
		t.Fatalf("distinct key should pass")
	}
}

func TestMemoryRateLimiterResetsAfterWindow(t *testing.T) {
	limiter := NewMemoryRateLimiter()
	defer limiter.Close()

	if d := limiter.Allow("ip:192.0.2.1", 1, 10*time.Millisecond); !d.allowed {
		t.Fatalf("first request should pass")
	}
	if d := limiter.Allow("ip:192.0.2.1", 1, 10*time.Millisecond); d.allowed {
		t.Fatalf("second request inside window should be blocked")
	}
	time.Sleep(20 * time.Millisecond)
	if d := limiter.Allow("ip:192.0.2.1", 1, 10*time.Millisecond); !d.allowed {
		t.Fatalf("request after window should pass")
	}
}

func TestMemoryRateLimiterZeroLimitDisables(t *testing.T) {
	limiter := NewMemoryRateLimiter()
	defer limiter.Close()

	for i := 0; i < 50; i++ {
		if d := limiter.Allow("any", 0, time.Minute); !d.allowed {
			t.Fatalf("zero limit must never block")
		}
	}
}

func TestMemoryRateLimiterCleanupDropsStaleEntries(t *testing.T) {
	rl := &memoryRateLimiter{buckets: make(map[string]*rateBucket), stopCh: make(chan struct{})}
	defer rl.Close()

	now := time.Now()
	rl.buckets["stale"] = &rateBucket{count: 5, windowEnd: now.Add(-time.Minute)}
	rl.buckets["fresh"] = &rateBucket{count: 1, windowEnd: now.Add(time.Minute)}

	rl.cleanup(now)
	if _, ok := rl.buckets["stale"]; ok {
		t.Fatalf("stale bucket should be swept")
	}
	if _, ok := rl.buckets["fresh"]; !ok {
		t.Fatalf("fresh bucket should survive")
	}
}

func TestWithRateLimitSetsHeadersAndBlocks(t *testing.T) {
	router, _ := newTestRouter(t)

	handled := 0
	handler := router.withRateLimit("/test", 2, time.Minute, func(*http.Request) string { return "fixed" }, func(w http.ResponseWriter, req *http.Request) {
		handled++
		w.WriteHeader(http.StatusNoContent)
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		recorder := httptest.NewRecorder()
		handler(recorder, req)
		if recorder.Code != http.StatusNoContent {
			t.Fatalf("request %d: expected 204, got %d", i+1, recorder.Code)
		}
		if got := recorder.Header().Get("X-RateLimit-Limit"); got != "2" {
			t.Fatalf("expected limit header 2, got %q", got)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	recorder := httptest.NewRecorder()
	handler(recorder, req)
	if recorder.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", recorder.Code)
	}
	if got := recorder.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("expected remaining 0, got %q", got)
	}
	if handled != 2 {
		t.Fatalf("handler ran %d times, want 2", handled)
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:4567"
	if got := clientIP(req); got != "10.0.0.9" {
		t.Fatalf("expected remote addr host, got %q", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.9")
	if got := clientIP(req); got != "203.0.113.7" {
		t.Fatalf("expected first forwarded hop, got %q", got)
	}
}

package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hotel-booking/internal/auth"
	"hotel-booking/internal/config"
)

func newRedisLimiter(t *testing.T, requests int) *RateLimiter {
	t.Helper()
	client, _ := newTestRedis(t)
	return NewRateLimiter(client, newTestLogger(), &config.RateLimitConfig{
		Enabled: true, Requests: requests, WindowSeconds: 60, KeyPrefix: "test",
	})
}

func TestRateLimiter_Allow(t *testing.T) {
	limiter := newRedisLimiter(t, 2)
	ctx := context.Background()

	d, err := limiter.Allow(ctx, "ip_1")
	if err != nil || !d.Allowed || d.Remaining != 1 {
		t.Fatalf("first request should be allowed with 1 remaining, got %+v err=%v", d, err)
	}

	d, err = limiter.Allow(ctx, "ip_1")
	if err != nil || !d.Allowed || d.Remaining != 0 {
		t.Fatalf("second request should be allowed with 0 remaining, got %+v err=%v", d, err)
	}

	d, err = limiter.Allow(ctx, "ip_1")
	if err != nil || d.Allowed || d.Remaining != 0 || d.Used != 3 {
		t.Fatalf("third request should be blocked, got %+v err=%v", d, err)
	}
	if d.ResetAt.IsZero() || time.Until(d.ResetAt) > time.Minute {
		t.Fatalf("unexpected reset time %v", d.ResetAt)
	}

	if d, _ := limiter.Allow(ctx, "ip_2"); !d.Allowed {
		t.Fatalf("other client must have its own window")
	}
}

func TestRateLimiter_Usage(t *testing.T) {
	limiter := newRedisLimiter(t, 3)
	ctx := context.Background()

	d, err := limiter.Usage(ctx, "user_1")
	if err != nil || d.Used != 0 || d.Remaining != 3 {
		t.Fatalf("unexpected usage for fresh client: %+v err=%v", d, err)
	}

	_, _ = limiter.Allow(ctx, "user_1")
	_, _ = limiter.Allow(ctx, "user_1")

	d, err = limiter.Usage(ctx, "user_1")
	if err != nil || d.Used != 2 || d.Remaining != 1 || d.ResetAt.IsZero() {
		t.Fatalf("unexpected usage: %+v err=%v", d, err)
	}
	if limiter.Limit() != 3 || !limiter.Enabled() {
		t.Fatalf("limit/enabled accessors mismatch")
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	if limiter := NewRateLimiter(nil, nil, nil); limiter.Enabled() {
		t.Fatalf("expected limiter disabled without cfg/redis")
	}
	limiter := NewRateLimiter(nil, nil, &config.RateLimitConfig{Enabled: false})
	d, err := limiter.Allow(context.Background(), "ip_1")
	if err != nil || !d.Allowed {
		t.Fatalf("disabled limiter must allow, got %+v err=%v", d, err)
	}
}

func TestClientKey(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.168.0.1:1234"
	if key := ClientKey(r); key != "ip_192.168.0.1" {
		t.Fatalf("expected ip key, got %s", key)
	}

	r = r.WithContext(auth.WithClaims(r.Context(), &auth.Claims{UserID: "u1"}))
	if key := ClientKey(r); key != "user_u1" {
		t.Fatalf("expected user key, got %s", key)
	}
}

func TestExtractClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Real-IP", "10.0.0.1")
	if ip := ExtractClientIP(r); ip != "10.0.0.1" {
		t.Fatalf("expected real ip, got %s", ip)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-For", "10.0.0.2, 10.0.0.3")
	if ip := ExtractClientIP(r); ip != "10.0.0.2" {
		t.Fatalf("expected first forwarded ip, got %s", ip)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.168.0.1:1234"
	if ip := ExtractClientIP(r); ip != "192.168.0.1" {
		t.Fatalf("expected remote addr ip, got %s", ip)
	}
}

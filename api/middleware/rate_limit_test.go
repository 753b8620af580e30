package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shoptab-backend/internal/authz"
	"github.com/angelmondragon/shoptab-backend/pkg/config"
	"github.com/angelmondragon/shoptab-backend/pkg/enums"
)

func TestRateLimitBlocksAfterBurst(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{RequestsPerSec: 1, Burst: 2, IdleTTL: time.Minute})
	fixed := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return fixed }
	handler := RateLimit(limiter, nil)(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}

	other := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	if rec.Code != http.StatusOK {
		t.Fatalf("separate clients must have separate buckets, got %d", rec.Code)
	}
}

func TestRateLimitKeysByActor(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{RequestsPerSec: 0.001, Burst: 1})
	handler := RateLimit(limiter, nil)(okHandler())
	actor := authz.Actor{UserID: uuid.New(), Role: enums.RoleCustomer}

	for i, ip := range []string{"10.0.0.1:1", "10.0.0.9:1"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip
		req = req.WithContext(WithActor(req.Context(), actor))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		want := http.StatusOK
		if i == 1 {
			want = http.StatusTooManyRequests
		}
		if rec.Code != want {
			t.Fatalf("request %d: expected %d got %d", i, want, rec.Code)
		}
	}
}

type fakeWindowStore struct {
	counts map[string]int64
	err    error
}

func (f *fakeWindowStore) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	if f.counts == nil {
		f.counts = map[string]int64{}
	}
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

func TestThrottleFixedWindow(t *testing.T) {
	store := &fakeWindowStore{}
	policy := ThrottlePolicy{Name: "orders-create", Limit: 2, Window: time.Minute}
	handler := Throttle(policy, store, nil)(okHandler())
	actor := authz.Actor{UserID: uuid.New(), Role: enums.RoleCustomer}

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
		req = req.WithContext(WithActor(req.Context(), actor))
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", last.Code)
	}
	if last.Header().Get("Retry-After") != "60" {
		t.Fatalf("expected Retry-After 60, got %q", last.Header().Get("Retry-After"))
	}
	if _, ok := store.counts["orders-create:"+actor.UserID.String()]; !ok {
		t.Fatalf("expected scope keyed by user, got %v", store.counts)
	}
}

func TestThrottleStoreFailure(t *testing.T) {
	handler := Throttle(ThrottlePolicy{Name: "x", Limit: 1, Window: time.Second}, &fakeWindowStore{err: errors.New("down")}, nil)(okHandler())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
}

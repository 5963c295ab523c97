package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"site-edge/middleware/ratelimit/domain"
	"site-edge/middleware/ratelimit/infra"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type failingStore struct{}

func (failingStore) Increment(context.Context, domain.Key, time.Duration) (int64, time.Duration, error) {
	return 0, 0, errors.New("store unavailable")
}

func newLimited(t *testing.T, points int, clock *testClock, stats domain.StatsStore) (http.Handler, *int) {
	t.Helper()
	store := infra.NewMemoryWindowStore(infra.WithClock(clock.Now))
	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})
	h := Middleware(Options{
		Store:  store,
		Policy: domain.Policy{Points: points, Window: time.Minute},
		Stats:  stats,
		Now:    clock.Now,
	})(next)
	return h, &calls
}

func doGet(h http.Handler, ip string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, "http://example/api/health", nil)
	r.Header.Set("X-Forwarded-For", ip)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestMiddleware_HundredAllowedThenRejected(t *testing.T) {
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	h, calls := newLimited(t, 100, clock, nil)

	for i := 1; i <= 100; i++ {
		w := doGet(h, "203.0.113.7")
		if w.Code != http.StatusOK {
			t.Fatalf("expected request %d to pass, got %d", i, w.Code)
		}
		if got := w.Header().Get("X-RateLimit-Remaining"); got != "" {
			t.Fatalf("success path must not carry quota headers, got remaining=%q", got)
		}
	}

	clock.Advance(20 * time.Second)
	w := doGet(h, "203.0.113.7")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on request 101, got %d", w.Code)
	}
	if *calls != 100 {
		t.Fatalf("expected next handler to be called 100 times, got %d", *calls)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json body: %v", err)
	}
	if body["error"] != "Too Many Requests" {
		t.Fatalf("unexpected body: %v", body)
	}

	if got := w.Header().Get("X-RateLimit-Limit"); got != "100" {
		t.Fatalf("expected X-RateLimit-Limit=100, got %q", got)
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("expected X-RateLimit-Remaining=0, got %q", got)
	}
	retry, err := strconv.Atoi(w.Header().Get("Retry-After"))
	if err != nil || retry <= 0 || retry > 60 {
		t.Fatalf("expected Retry-After in (0, 60], got %q", w.Header().Get("Retry-After"))
	}
	if retry != 40 {
		t.Fatalf("expected Retry-After=40 after 20s in the window, got %d", retry)
	}
	wantReset := strconv.FormatInt(clock.Now().Unix()+40, 10)
	if got := w.Header().Get("X-RateLimit-Reset"); got != wantReset {
		t.Fatalf("expected X-RateLimit-Reset=%s, got %q", wantReset, got)
	}
}

func TestMiddleware_WindowResetsWholesale(t *testing.T) {
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	h, _ := newLimited(t, 2, clock, nil)

	doGet(h, "198.51.100.1")
	doGet(h, "198.51.100.1")
	if w := doGet(h, "198.51.100.1"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 once budget is spent, got %d", w.Code)
	}

	clock.Advance(time.Minute)

	for i := 1; i <= 2; i++ {
		if w := doGet(h, "198.51.100.1"); w.Code != http.StatusOK {
			t.Fatalf("expected request %d of new window to pass, got %d", i, w.Code)
		}
	}
}

func TestMiddleware_KeysAreIndependent(t *testing.T) {
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	h, _ := newLimited(t, 1, clock, nil)

	if w := doGet(h, "1.1.1.1"); w.Code != http.StatusOK {
		t.Fatalf("expected 200 for first client, got %d", w.Code)
	}
	if w := doGet(h, "2.2.2.2"); w.Code != http.StatusOK {
		t.Fatalf("expected 200 for second client, got %d", w.Code)
	}
}

func TestMiddleware_StoreErrorIs500(t *testing.T) {
	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ })
	h := Middleware(Options{Store: failingStore{}})(next)

	w := doGet(h, "1.1.1.1")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["error"] != "Internal Server Error" {
		t.Fatalf("unexpected body: %v", body)
	}
	if calls != 0 {
		t.Fatalf("next handler must not run on limiter error")
	}
}

func TestMiddleware_StoresKeyInContextAndRecordsStats(t *testing.T) {
	stats := infra.NewMemoryStatsStore()
	var seen domain.Key
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClientKeyFrom(r.Context())
	})
	h := Middleware(Options{
		Store:  infra.NewMemoryWindowStore(),
		Policy: domain.Policy{Points: 1, Window: time.Minute},
		Stats:  stats,
	})(next)

	doGet(h, "192.0.2.10")
	doGet(h, "192.0.2.10")

	if seen != "192.0.2.10" {
		t.Fatalf("expected client key in context, got %q", seen)
	}
	total := stats.Total()
	if total.Allowed != 1 || total.RateLimited != 1 {
		t.Fatalf("unexpected stats: %+v", total)
	}
}

func TestMiddleware_DeferAllowedLeavesAllowedToLaterStep(t *testing.T) {
	stats := infra.NewMemoryStatsStore()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	limited := Middleware(Options{
		Store:        infra.NewMemoryWindowStore(),
		Policy:       domain.Policy{Points: 1, Window: time.Minute},
		Stats:        stats,
		DeferAllowed: true,
	})

	doGet(limited(next), "192.0.2.10")
	if got := stats.Total().Allowed; got != 0 {
		t.Fatalf("expected allowed to be deferred, got %d", got)
	}

	doGet(limited(AllowedStats(stats)(next)), "192.0.2.11")
	total := stats.Total()
	if total.Allowed != 1 {
		t.Fatalf("expected AllowedStats to record once, got %+v", total)
	}
}

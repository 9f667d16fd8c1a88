package shield

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aaltoxr/xrld/dbopen"
	_ "modernc.org/sqlite"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestSecurityHeaders(t *testing.T) {
	// WHAT: every response carries the configured security headers.
	// WHY: the reading view renders third-party HTML fragments — clickjacking
	// and sniffing protections are not optional.
	h := SecurityHeaders(DefaultHeaders())(okHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("missing CSP header")
	}
}

func TestHeadToGet(t *testing.T) {
	var seen string
	h := HeadToGet(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Method
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodHead, "/", nil))
	if seen != http.MethodGet {
		t.Errorf("method = %q, want GET", seen)
	}
}

func TestTraceID_SetsHeaderAndContext(t *testing.T) {
	var ctxID string
	h := TraceID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = GetTraceID(r.Context())
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/xrl", nil))

	headerID := rec.Header().Get("X-Trace-ID")
	if headerID == "" || headerID != ctxID {
		t.Errorf("trace IDs diverge: header=%q ctx=%q", headerID, ctxID)
	}
}

func TestRateLimiter_BlocksAfterLimit(t *testing.T) {
	// WHAT: the limiter returns 429 once an IP exceeds an endpoint's budget.
	// WHY: each /render holds the single browser session for seconds; an
	// unthrottled client starves everyone else.
	db := dbopen.OpenMemory(t, dbopen.WithSchema(`
		CREATE TABLE rate_limits (
			endpoint TEXT PRIMARY KEY,
			max_requests INTEGER NOT NULL,
			window_seconds INTEGER NOT NULL,
			enabled INTEGER NOT NULL
		);
		INSERT INTO rate_limits VALUES ('GET /render', 2, 60, 1);
	`))
	rl := NewRateLimiter(db)
	h := rl.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/render?url=http://example.com", nil)
	req.RemoteAddr = "203.0.113.9:1234"

	for i := range 2 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: code = %d, want 200", i, rec.Code)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("code = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
}

func TestRateLimiter_ExcludedPrefixBypasses(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(RateLimitSchema))
	rl := NewRateLimiter(db, "/images/")
	h := rl.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/images/x/full_page.png", nil)
	req.RemoteAddr = "203.0.113.9:1234"
	for range 50 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("excluded path throttled: %d", rec.Code)
		}
	}
}

func TestExtractIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "198.51.100.7:4321"
	if ip := ExtractIP(r); ip != "198.51.100.7" {
		t.Errorf("ip = %q", ip)
	}
	r.Header.Set("X-Forwarded-For", "203.0.113.1, 198.51.100.7")
	if ip := ExtractIP(r); ip != "203.0.113.1" {
		t.Errorf("ip = %q", ip)
	}
}

func TestRateLimiter_ReloadPicksUpRuleChanges(t *testing.T) {
	// WHAT: editing the rate_limits table changes behaviour after a reload.
	// WHY: limits are tuned at runtime through SQL; a limiter that only
	// reads rules at construction would pin the first configuration forever.
	db := dbopen.OpenMemory(t, dbopen.WithSchema(`
		CREATE TABLE rate_limits (
			endpoint TEXT PRIMARY KEY,
			max_requests INTEGER NOT NULL,
			window_seconds INTEGER NOT NULL,
			enabled INTEGER NOT NULL
		);
		INSERT INTO rate_limits VALUES ('GET /xrl', 1, 60, 1);
	`))
	rl := NewRateLimiter(db)
	h := rl.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/xrl?url=http://example.com", nil)
	req.RemoteAddr = "203.0.113.9:1234"

	// Exhaust the budget of one.
	h.ServeHTTP(httptest.NewRecorder(), req)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("code = %d, want 429", rec.Code)
	}

	// Disable the rule and reload, as the background reloader does.
	if _, err := db.Exec(`UPDATE rate_limits SET enabled = 0 WHERE endpoint = 'GET /xrl'`); err != nil {
		t.Fatal(err)
	}
	rl.reload()

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("after disabling rule: code = %d, want 200", rec.Code)
	}
}

func TestRateLimiter_ConcurrentCounting(t *testing.T) {
	// WHAT: under concurrent requests exactly max_requests pass per window.
	// WHY: the bucket is shared across goroutines; lost increments would
	// let bursts through the limit.
	db := dbopen.OpenMemory(t, dbopen.WithSchema(`
		CREATE TABLE rate_limits (
			endpoint TEXT PRIMARY KEY,
			max_requests INTEGER NOT NULL,
			window_seconds INTEGER NOT NULL,
			enabled INTEGER NOT NULL
		);
		INSERT INTO rate_limits VALUES ('GET /render', 5, 60, 1);
	`))
	rl := NewRateLimiter(db)

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 25 {
				if rl.allow("203.0.113.9", "GET /render") {
					allowed.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	if got := allowed.Load(); got != 5 {
		t.Fatalf("allowed %d requests, want exactly 5", got)
	}
}

func TestDefaultStack_StartsReloader(t *testing.T) {
	// WHAT: the assembled stack rate-limits, and its reloader goroutine is
	// tied to the done channel.
	db := dbopen.OpenMemory(t, dbopen.WithSchema(RateLimitSchema))
	done := make(chan struct{})
	defer close(done)

	var h http.Handler = okHandler()
	stack := DefaultStack(db, done)
	for i := len(stack) - 1; i >= 0; i-- {
		h = stack[i](h)
	}

	req := httptest.NewRequest(http.MethodGet, "/render?url=http://example.com", nil)
	req.RemoteAddr = "203.0.113.9:1234"
	var blocked bool
	for range 10 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			blocked = true
		}
	}
	if !blocked {
		t.Fatal("seeded /render limit never triggered through the stack")
	}
}

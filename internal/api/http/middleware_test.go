package apihttp

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCorsMiddlewareReflectsOrigin(t *testing.T) {
	handler := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/player/state", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Errorf("expected origin reflected, got %q", got)
	}
}

func TestCorsMiddlewarePreflight(t *testing.T) {
	called := false
	handler := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/player/command", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if called {
		t.Fatal("preflight must not reach the handler")
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := recoveryMiddleware(slog.Default(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/player/state", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRateLimitMiddlewareRejects(t *testing.T) {
	handler := rateLimitMiddleware(1, 1, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/player/state", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first status = %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/player/state", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d", second.Code)
	}
	if second.Header().Get("Retry-After") != "1" {
		t.Fatalf("missing Retry-After")
	}
}

func TestRateLimitMiddlewareSkipsHealthAndMetrics(t *testing.T) {
	handler := rateLimitMiddleware(1, 1, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Exhaust the bucket.
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/player/state", nil))

	for _, path := range []string{"/internal/health", "/metrics"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("path %s status = %d", path, rec.Code)
		}
	}
}

func TestNormalizeRoute(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/player/load", "/player/load"},
		{"/player/state", "/player/state"},
		{"/swarm/stats", "/swarm/stats"},
		{"/metrics", "/metrics"},
		{"/internal/health", "/internal/health"},
		{"/ws", "/ws"},
		{"/favicon.ico", "/other"},
	}
	for _, tc := range cases {
		if got := normalizeRoute(tc.path); got != tc.want {
			t.Errorf("normalizeRoute(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestPickRequestLogLevel(t *testing.T) {
	if got := pickRequestLogLevel("/player/load", 500); got != slog.LevelError {
		t.Errorf("500 level = %v", got)
	}
	if got := pickRequestLogLevel("/player/load", 404); got != slog.LevelWarn {
		t.Errorf("404 level = %v", got)
	}
	if got := pickRequestLogLevel("/internal/health", 200); got != slog.LevelDebug {
		t.Errorf("health level = %v", got)
	}
	if got := pickRequestLogLevel("/swarm/stats", 200); got != slog.LevelDebug {
		t.Errorf("stats level = %v", got)
	}
	if got := pickRequestLogLevel("/player/load", 200); got != slog.LevelInfo {
		t.Errorf("load level = %v", got)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
	if got := clientIP(req); got != "10.0.0.1" {
		t.Errorf("xff ip = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", "10.0.0.3")
	if got := clientIP(req); got != "10.0.0.3" {
		t.Errorf("real-ip = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.5:1234"
	if got := clientIP(req); got != "192.168.1.5" {
		t.Errorf("remote addr ip = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("short = %q", got)
	}
	if got := truncate("abcdefghij", 6); got != "abc..." {
		t.Errorf("truncated = %q", got)
	}
	if got := truncate("abcdef", 2); got != "ab" {
		t.Errorf("tiny limit = %q", got)
	}
}

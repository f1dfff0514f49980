package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"staybook/pkg/logger"
)

func okHandler(calls *atomic.Int32) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":"ok"}`))
	})
}

func TestSessionKeyExtractor(t *testing.T) {
	tests := []struct {
		path       string
		remoteAddr string
		want       string
	}{
		{"/api/v1/sessions/abc/filters", "10.0.0.1:1234", "session:abc"},
		{"/api/v1/sessions/abc", "10.0.0.1:1234", "session:abc"},
		{"/api/v1/sessions", "10.0.0.1:1234", "ip:10.0.0.1"},
		{"/health", "10.0.0.2:80", "ip:10.0.0.2"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.path, nil)
			r.RemoteAddr = tt.remoteAddr
			if got := SessionKeyExtractor(r); got != tt.want {
				t.Errorf("SessionKeyExtractor() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimit_PerSessionBuckets(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute, nil, logger.Discard())
	defer rl.Stop()

	var calls atomic.Int32
	h := RateLimit(rl)(okHandler(&calls))

	do := func(path string) int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec.Code
	}

	if do("/api/v1/sessions/a/filters") != http.StatusCreated || do("/api/v1/sessions/a/filters") != http.StatusCreated {
		t.Fatalf("first two requests should pass")
	}
	if code := do("/api/v1/sessions/a/filters"); code != http.StatusTooManyRequests {
		t.Errorf("third request code = %d, want 429", code)
	}
	if code := do("/api/v1/sessions/b/filters"); code != http.StatusCreated {
		t.Errorf("other session code = %d, want 201", code)
	}
}

func TestIdempotency_ReplaysPost(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()

	var calls atomic.Int32
	h := Idempotency(store, "")(okHandler(&calls))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/a/payment", strings.NewReader(`{}`))
		req.Header.Set(IdempotencyKeyHeader, "k1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated || rec.Body.String() != `{"data":"ok"}` {
			t.Errorf("attempt %d: code=%d body=%s", i, rec.Code, rec.Body.String())
		}
		if i == 1 && rec.Header().Get("Idempotent-Replayed") != "true" {
			t.Errorf("second attempt should be a replay")
		}
	}
	if calls.Load() != 1 {
		t.Errorf("handler called %d times, want 1", calls.Load())
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/b/payment", strings.NewReader(`{}`))
	req.Header.Set(IdempotencyKeyHeader, "k1")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if calls.Load() != 2 {
		t.Errorf("same key on another path should not replay")
	}
}

func TestContentTypeValidation(t *testing.T) {
	var calls atomic.Int32
	h := ContentTypeValidation(logger.Discard())(okHandler(&calls))

	tests := []struct {
		name        string
		method      string
		body        string
		contentType string
		want        int
	}{
		{"json post", http.MethodPost, `{}`, "application/json; charset=utf-8", http.StatusCreated},
		{"text post", http.MethodPost, `{}`, "text/plain", http.StatusUnsupportedMediaType},
		{"bodyless post", http.MethodPost, "", "", http.StatusCreated},
		{"get", http.MethodGet, "", "", http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/x", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("code = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("code = %d, want 500", rec.Code)
	}
}

func TestRequestTimeout(t *testing.T) {
	h := RequestTimeout(20 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		time.Sleep(5 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("code = %d, want 504", rec.Code)
	}
}

func TestRequestLogging_PropagatesRequestID(t *testing.T) {
	var seen string
	h := RequestLogging(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "req-1" || rec.Header().Get(RequestIDHeader) != "req-1" {
		t.Errorf("request id seen=%q header=%q", seen, rec.Header().Get(RequestIDHeader))
	}
}

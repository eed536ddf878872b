package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiterAllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(1, 3)
	h := rl.Middleware()(okHandler())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/bts/v1/aws/sns", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i, rec.Code, http.StatusOK)
		}
	}
}

func TestRateLimiterBlocksOverBurst(t *testing.T) {
	rl := NewRateLimiter(0.1, 2)
	h := rl.Middleware()(okHandler())

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/bts/v1/aws/sns", nil)
		req.RemoteAddr = "192.0.2.2:1234"
		last = httptest.NewRecorder()
		h.ServeHTTP(last, req)
	}

	if last.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", last.Code, http.StatusTooManyRequests)
	}
	if ct := last.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	rl := NewRateLimiter(0.1, 1)
	h := rl.Middleware()(okHandler())

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/bts/v1/aws/sns", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("192.0.2.3:1"); code != http.StatusOK {
		t.Fatalf("first client first request: %d", code)
	}
	if code := send("192.0.2.3:1"); code != http.StatusTooManyRequests {
		t.Fatalf("first client second request: %d", code)
	}
	if code := send("192.0.2.4:1"); code != http.StatusOK {
		t.Errorf("second client should have its own limiter, got %d", code)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name     string
		realIP   string
		fwdFor   string
		remote   string
		expected string
	}{
		{"x-real-ip wins", "203.0.113.9", "203.0.113.10", "192.0.2.1:1", "203.0.113.9"},
		{"x-forwarded-for next", "", "203.0.113.10", "192.0.2.1:1", "203.0.113.10"},
		{"remote addr fallback", "", "", "192.0.2.1:1", "192.0.2.1:1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.fwdFor != "" {
				req.Header.Set("X-Forwarded-For", tt.fwdFor)
			}
			req.RemoteAddr = tt.remote

			if got := clientIP(req); got != tt.expected {
				t.Errorf("clientIP() = %q, want %q", got, tt.expected)
			}
		})
	}
}

package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrSnakeDoc/linkaudit/internal/logger"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestMatchHost(t *testing.T) {
	tests := []struct {
		host, pattern string
		want          bool
	}{
		{"audit.example.com", "audit.example.com", true},
		{"a.example.com", "*.example.com", true},
		{"deep.a.example.com", "*.example.com", true},
		{"example.com", "*.example.com", false},
		{"evilexample.com", "*.example.com", false},
		{"other.com", "audit.example.com", false},
	}
	for _, tt := range tests {
		if got := matchHost(tt.host, tt.pattern); got != tt.want {
			t.Errorf("matchHost(%q, %q) = %v, want %v", tt.host, tt.pattern, got, tt.want)
		}
	}
}

func TestEnforceHost(t *testing.T) {
	log := logger.NewNop()
	h := EnforceHost([]string{"Audit.Example.com"}, log)(okHandler)

	tests := []struct {
		host string
		want int
	}{
		{"audit.example.com", http.StatusOK},
		{"AUDIT.example.com:8443", http.StatusOK},
		{"other.example.com", http.StatusForbidden},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = tt.host
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("Host %q: status = %d, want %d", tt.host, rec.Code, tt.want)
		}
	}
}

func TestEnforceHostPassthrough(t *testing.T) {
	h := EnforceHost(nil, logger.NewNop())(okHandler)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "anything"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestAllowOnlyCIDRS(t *testing.T) {
	log := logger.NewNop()

	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		trustProxy bool
		want       int
	}{
		{"inside cidr", "10.1.2.3:5000", "", false, http.StatusOK},
		{"exact ip", "192.168.1.7:5000", "", false, http.StatusOK},
		{"outside", "8.8.8.8:5000", "", false, http.StatusForbidden},
		{"xff ignored without trust", "8.8.8.8:5000", "10.0.0.1", false, http.StatusForbidden},
		{"xff honored with trust", "8.8.8.8:5000", "10.0.0.1, 8.8.8.8", true, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := AllowOnlyCIDRS([]string{"10.0.0.0/8", "192.168.1.7"}, tt.trustProxy, log)(okHandler)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	h := RateLimit(RateLimitConfig{
		Burst:             2,
		RefillPerIPPerMin: 60,
		Now:               func() time.Time { return now },
	})(okHandler)

	do := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/search", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := do("1.1.1.1:1"); rec.Code != http.StatusOK || rec.Header().Get("X-RateLimit-Remaining") != "1" {
		t.Fatalf("first request: status=%d remaining=%q", rec.Code, rec.Header().Get("X-RateLimit-Remaining"))
	}
	if rec := do("1.1.1.1:2"); rec.Code != http.StatusOK {
		t.Fatalf("second request: status=%d", rec.Code)
	}

	rec := do("1.1.1.1:3")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: status=%d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Errorf("Retry-After = %q, want 1", rec.Header().Get("Retry-After"))
	}

	// another client has its own bucket
	if rec := do("2.2.2.2:1"); rec.Code != http.StatusOK {
		t.Errorf("other client: status=%d, want 200", rec.Code)
	}

	// one token per second
	now = now.Add(time.Second)
	if rec := do("1.1.1.1:4"); rec.Code != http.StatusOK {
		t.Errorf("after refill: status=%d, want 200", rec.Code)
	}
}

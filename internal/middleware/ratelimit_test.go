package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/benvon/smart-reminders/internal/request"
)

func TestRateLimit_InvalidRate(t *testing.T) {
	t.Parallel()
	if _, err := RateLimit("lots", nil, zap.NewNop()); err == nil {
		t.Error("Expected error for malformed rate")
	}
}

func TestRateLimit_PerCaller(t *testing.T) {
	t.Parallel()

	mw, err := RateLimit("2-M", nil, zap.NewNop())
	if err != nil {
		t.Fatalf("RateLimit() error = %v", err)
	}
	handler := mw(okHandler)

	send := func(externalID string) int {
		req := httptest.NewRequest("GET", "/api/v1/people/me/reminders", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		if externalID != "" {
			req = req.WithContext(request.WithCaller(req.Context(), &request.Caller{ExternalID: externalID}))
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 2; i++ {
		if code := send("u1"); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, code)
		}
	}
	if code := send("u1"); code != http.StatusTooManyRequests {
		t.Errorf("Expected third request to be limited, got %d", code)
	}
	// other callers from the same address have their own budget
	if code := send("u2"); code != http.StatusOK {
		t.Errorf("Expected other caller to pass, got %d", code)
	}
	// anonymous requests are keyed by address
	if code := send(""); code != http.StatusOK {
		t.Errorf("Expected anonymous request to pass, got %d", code)
	}
}

func TestRateLimitKey(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Real-IP", "9.9.9.9")
	if got := rateLimitKey(req); got != "ip:9.9.9.9" {
		t.Errorf("rateLimitKey() = %q", got)
	}
	req = req.WithContext(request.WithCaller(req.Context(), &request.Caller{ExternalID: "u1"}))
	if got := rateLimitKey(req); got != "caller:u1" {
		t.Errorf("rateLimitKey() = %q", got)
	}
}

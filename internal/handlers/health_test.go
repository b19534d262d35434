package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/benvon/smart-reminders/internal/queue"
)

type mockPinger struct {
	err error
}

func (m mockPinger) Ping(ctx context.Context) error { return m.err }

type mockJobQueue struct {
	queue.JobQueue
	healthErr error
}

func (m mockJobQueue) HealthCheck(ctx context.Context) error { return m.healthErr }

func runHealth(t *testing.T, h *HealthChecker, mode string) (int, HealthResponse) {
	t.Helper()
	path := "/healthz"
	if mode != "" {
		path += "?mode=" + mode
	}
	w := httptest.NewRecorder()
	h.HealthCheck(w, httptest.NewRequest("GET", path, nil))

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
	}
	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Timestamp == "" {
		t.Error("Expected timestamp to be set")
	}
	return w.Code, resp
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		checker    *HealthChecker
		mode       string
		wantStatus int
		wantChecks map[string]string
	}{
		{
			name:       "basic mode skips dependencies",
			checker:    NewHealthChecker(mockPinger{err: errors.New("down")}),
			wantStatus: http.StatusOK,
		},
		{
			name:       "extended mode healthy store",
			checker:    NewHealthChecker(mockPinger{}),
			mode:       "extended",
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"store": "healthy"},
		},
		{
			name:       "extended mode failing store",
			checker:    NewHealthChecker(mockPinger{err: errors.New("file locked")}),
			mode:       "extended",
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"store": "unhealthy: file locked"},
		},
		{
			name:       "extended mode with queue",
			checker:    NewHealthCheckerWithDeps(mockPinger{}, nil, mockJobQueue{healthErr: errors.New("channel closed")}),
			mode:       "extended",
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"store": "healthy", "rabbitmq": "unhealthy: channel closed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			status, resp := runHealth(t, tt.checker, tt.mode)
			if status != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, status)
			}
			if len(resp.Checks) != len(tt.wantChecks) {
				t.Fatalf("Expected checks %v, got %v", tt.wantChecks, resp.Checks)
			}
			for name, want := range tt.wantChecks {
				if resp.Checks[name] != want {
					t.Errorf("checks[%s] = %q, want %q", name, resp.Checks[name], want)
				}
			}
			wantOverall := "healthy"
			if tt.wantStatus != http.StatusOK {
				wantOverall = "unhealthy"
			}
			if resp.Status != wantOverall {
				t.Errorf("Status = %q, want %q", resp.Status, wantOverall)
			}
		})
	}
}

func TestHealthCheck_UnreachableRedis(t *testing.T) {
	t.Parallel()

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	status, resp := runHealth(t, NewHealthCheckerWithDeps(mockPinger{}, client, nil), "extended")
	if status != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", status)
	}
	if !strings.HasPrefix(resp.Checks["redis"], "unhealthy") {
		t.Errorf("Expected redis to be unhealthy, got %q", resp.Checks["redis"])
	}
}

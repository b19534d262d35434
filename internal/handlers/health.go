package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/benvon/smart-reminders/internal/queue"
)

// healthCheckTimeout bounds each dependency check in extended mode
const healthCheckTimeout = 5 * time.Second

// Pinger is anything that can report its own liveness, such as the store
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker handles health check requests
type HealthChecker struct {
	store    Pinger
	redis    *redis.Client
	jobQueue queue.JobQueue
}

// NewHealthChecker creates a health checker that only checks the store
func NewHealthChecker(store Pinger) *HealthChecker {
	return &HealthChecker{store: store}
}

// NewHealthCheckerWithDeps creates a health checker for the store and the
// optional Redis and queue connections; nil dependencies are not checked
func NewHealthCheckerWithDeps(store Pinger, redisClient *redis.Client, jobQueue queue.JobQueue) *HealthChecker {
	return &HealthChecker{store: store, redis: redisClient, jobQueue: jobQueue}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles the /healthz endpoint
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	statusCode := http.StatusOK

	if r.URL.Query().Get("mode") == "extended" {
		response.Checks = make(map[string]string)
		for name, check := range h.checks() {
			if err := runCheck(r.Context(), check); err != nil {
				response.Status = "unhealthy"
				response.Checks[name] = "unhealthy: " + err.Error()
				continue
			}
			response.Checks[name] = "healthy"
		}
		if response.Status == "unhealthy" {
			statusCode = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

func (h *HealthChecker) checks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{
		"store": h.store.Ping,
	}
	if h.redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return h.redis.Ping(ctx).Err()
		}
	}
	if h.jobQueue != nil {
		checks["rabbitmq"] = h.jobQueue.HealthCheck
	}
	return checks
}

func runCheck(ctx context.Context, check func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	return check(ctx)
}

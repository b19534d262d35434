// Package request carries per-request identity through the context.
package request

import (
	"context"
	"net/http"
	"strings"

	"github.com/benvon/smart-reminders/internal/models"
)

// CallerHeader carries the chat platform id of whoever issued the command
const CallerHeader = "X-External-ID"

// RequestIDHeader carries the request correlation id
const RequestIDHeader = "X-Request-ID"

type contextKey string

const (
	callerContextKey    contextKey = "caller"
	requestIDContextKey contextKey = "request_id"
)

// CallerContextKey returns the context key used for the caller. Exposed for tests that inject non-caller values.
func CallerContextKey() contextKey { return callerContextKey }

// Caller identifies who issued a request. Person is nil when the external
// id is not registered yet.
type Caller struct {
	ExternalID string
	Person     *models.Person
}

// Known reports whether the caller is a registered person
func (c *Caller) Known() bool {
	return c != nil && c.Person != nil
}

// ClientIP extracts the client IP from the request, respecting X-Forwarded-For and X-Real-IP.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return r.RemoteAddr
}

// WithCaller returns a context with the caller attached.
func WithCaller(ctx context.Context, caller *Caller) context.Context {
	return context.WithValue(ctx, callerContextKey, caller)
}

// CallerFromContext returns the caller from the request context, or nil if missing or wrong type.
func CallerFromContext(r *http.Request) *Caller {
	c, _ := r.Context().Value(callerContextKey).(*Caller)
	return c
}

// WithRequestID returns a context with the request id attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

// RequestIDFromContext returns the request id, or "" if none was set.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/benvon/smart-reminders/internal/database"
	"github.com/benvon/smart-reminders/internal/models"
	"github.com/benvon/smart-reminders/internal/request"
)

// mockPersonRepository is a mock implementation of PersonRepositoryInterface
type mockPersonRepository struct {
	database.PersonRepositoryInterface
	getByExternalIDFunc func(ctx context.Context, externalID string) (*models.Person, error)
}

func (m *mockPersonRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Person, error) {
	return m.getByExternalIDFunc(ctx, externalID)
}

func TestCaller(t *testing.T) {
	t.Parallel()

	alice := &models.Person{ID: 1, Name: "alice", ExternalID: "u1"}
	people := &mockPersonRepository{
		getByExternalIDFunc: func(ctx context.Context, externalID string) (*models.Person, error) {
			switch externalID {
			case "u1":
				return alice, nil
			case "broken":
				return nil, errors.New("store offline")
			default:
				return nil, database.ErrNotFound
			}
		},
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantID     string
		wantKnown  bool
	}{
		{name: "registered caller", header: "u1", wantStatus: http.StatusOK, wantID: "u1", wantKnown: true},
		{name: "header is trimmed", header: "  u1 ", wantStatus: http.StatusOK, wantID: "u1", wantKnown: true},
		{name: "unregistered caller", header: "u2", wantStatus: http.StatusOK, wantID: "u2"},
		{name: "no header", wantStatus: http.StatusOK},
		{name: "lookup failure", header: "broken", wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got *request.Caller
			handler := Caller(people, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = request.CallerFromContext(r)
			}))

			req := httptest.NewRequest("GET", "/api/v1/people/me/tasks", nil)
			if tt.header != "" {
				req.Header.Set(request.CallerHeader, tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantStatus != http.StatusOK {
				if got != nil {
					t.Error("Expected handler not to run")
				}
				return
			}
			if got == nil {
				t.Fatal("Expected caller in context")
			}
			if got.ExternalID != tt.wantID {
				t.Errorf("ExternalID = %q, want %q", got.ExternalID, tt.wantID)
			}
			if got.Known() != tt.wantKnown {
				t.Errorf("Known() = %v, want %v", got.Known(), tt.wantKnown)
			}
		})
	}
}

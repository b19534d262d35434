package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"github.com/benvon/smart-reminders/internal/models"
)

func testNotification() *Notification {
	taskID := 3
	r := &models.Reminder{
		ID:             7,
		FireTime:       "2024-06-01 10:00:00",
		RecipientNames: []string{"alice"},
		Recurrence:     models.RecurrenceDaily,
		Content:        "water plants",
		LinkedTaskID:   &taskID,
	}
	p := &models.Person{ID: 1, Name: "alice", DisplayName: "Alice", ExternalID: "u1"}
	return NewNotification(r, p, 1717228800)
}

func TestNotification_Render(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		n    *Notification
		want string
	}{
		{"recurring with task", testNotification(), "[7] water plants (recurring daily) (see task [3])"},
		{"one-off", &Notification{ReminderID: 2, Content: "call mum", Recurrence: models.RecurrenceOff}, "[2] call mum"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.n.Render(); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewNotification_CopiesTaskID(t *testing.T) {
	t.Parallel()

	taskID := 3
	r := &models.Reminder{ID: 1, LinkedTaskID: &taskID}
	n := NewNotification(r, &models.Person{Name: "alice"}, 0)
	taskID = 9

	if n.TaskID == nil || *n.TaskID != 3 {
		t.Errorf("Expected task id 3, got %v", n.TaskID)
	}
}

func TestWebhookNotifier_Notify(t *testing.T) {
	t.Parallel()

	var received webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("Failed to decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	notifier, err := NewWebhookNotifier(server.URL, 0, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create notifier: %v", err)
	}
	if err := notifier.Notify(context.Background(), testNotification()); err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}

	if received.Text != "[7] water plants (recurring daily) (see task [3])" {
		t.Errorf("Unexpected text %q", received.Text)
	}
	if received.Color != ColorReminder {
		t.Errorf("Expected color %x, got %x", ColorReminder, received.Color)
	}
	if received.Notification == nil || received.Notification.ExternalID != "u1" {
		t.Errorf("Expected notification for u1, got %+v", received.Notification)
	}
}

func TestWebhookNotifier_ErrorStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	notifier, err := NewWebhookNotifier(server.URL, 10, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create notifier: %v", err)
	}
	if err := notifier.Notify(context.Background(), testNotification()); err == nil {
		t.Error("Expected error for 502 response")
	}
	if calls.Load() != 1 {
		t.Errorf("Expected 1 call, got %d", calls.Load())
	}
}

func TestWebhookNotifier_CancelledContext(t *testing.T) {
	t.Parallel()

	notifier, err := NewWebhookNotifier("http://127.0.0.1:1", 1, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create notifier: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := notifier.Notify(ctx, testNotification()); err == nil {
		t.Error("Expected error for cancelled context")
	}
}

func TestNewWebhookNotifier_RequiresURL(t *testing.T) {
	t.Parallel()

	if _, err := NewWebhookNotifier("", 1, zap.NewNop()); err == nil {
		t.Error("Expected error for empty url")
	}
}

func TestLogNotifier(t *testing.T) {
	t.Parallel()

	if err := NewLogNotifier(zap.NewNop()).Notify(context.Background(), testNotification()); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestNew_PicksNotifier(t *testing.T) {
	t.Parallel()

	n, err := New("", 1, zap.NewNop())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, ok := n.(*LogNotifier); !ok {
		t.Errorf("Expected *LogNotifier without a webhook url, got %T", n)
	}

	n, err = New("https://chat.example.com/hook", 1, zap.NewNop())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, ok := n.(*WebhookNotifier); !ok {
		t.Errorf("Expected *WebhookNotifier with a webhook url, got %T", n)
	}
}

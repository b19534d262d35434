// Package notify delivers fired reminders to the people they name.
package notify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/benvon/smart-reminders/internal/logger"
	"github.com/benvon/smart-reminders/internal/models"
)

// Embed colours used by chat front-ends
const (
	ColorSuccess  = 0x7bb586
	ColorReminder = 0x6a4441
	ColorError    = 0xd34322
)

// Notification is one reminder addressed to one recipient.
type Notification struct {
	Recipient   string            `json:"recipient"`
	DisplayName string            `json:"display_name"`
	ExternalID  string            `json:"external_id"`
	ReminderID  int               `json:"reminder_id"`
	Content     string            `json:"content"`
	FireTime    string            `json:"fire_time"`
	Epoch       int64             `json:"epoch"`
	Recurrence  models.Recurrence `json:"recurrence"`
	TaskID      *int              `json:"task_id,omitempty"`
}

// NewNotification addresses reminder r to person p. epoch is the fire
// time in Unix seconds.
func NewNotification(r *models.Reminder, p *models.Person, epoch int64) *Notification {
	n := &Notification{
		Recipient:   p.Name,
		DisplayName: p.DisplayName,
		ExternalID:  p.ExternalID,
		ReminderID:  r.ID,
		Content:     r.Content,
		FireTime:    r.FireTime,
		Epoch:       epoch,
		Recurrence:  r.Recurrence,
	}
	if r.LinkedTaskID != nil {
		id := *r.LinkedTaskID
		n.TaskID = &id
	}
	return n
}

// Render returns the plain-text body shown to the recipient.
func (n *Notification) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d] %s", n.ReminderID, n.Content)
	if n.Recurrence.IsRecurring() {
		fmt.Fprintf(&b, " (recurring %s)", n.Recurrence)
	}
	if n.TaskID != nil {
		fmt.Fprintf(&b, " (see task [%d])", *n.TaskID)
	}
	return b.String()
}

// Notifier delivers a notification to its recipient.
type Notifier interface {
	Notify(ctx context.Context, n *Notification) error
}

// LogNotifier writes each notification to the log. It is the fallback
// when no delivery endpoint is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a new log notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the notification at info level.
func (l *LogNotifier) Notify(_ context.Context, n *Notification) error {
	l.logger.Info("reminder_delivered",
		zap.String("recipient", n.Recipient),
		zap.String("external_id", n.ExternalID),
		zap.Int("reminder_id", n.ReminderID),
		zap.String("text", logger.SanitizeContent(n.Render())),
	)
	return nil
}

// New picks the webhook notifier when webhookURL is set and the log
// notifier otherwise.
func New(webhookURL string, ratePerSecond float64, logger *zap.Logger) (Notifier, error) {
	if webhookURL == "" {
		return NewLogNotifier(logger), nil
	}
	return NewWebhookNotifier(webhookURL, ratePerSecond, logger)
}

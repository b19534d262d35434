package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultWebhookTimeout = 10 * time.Second

// WebhookNotifier posts notifications as JSON to a chat bridge endpoint.
type WebhookNotifier struct {
	client      *resty.Client
	url         string
	rateLimiter *rate.Limiter
	logger      *zap.Logger
}

type webhookPayload struct {
	Title        string        `json:"title"`
	Text         string        `json:"text"`
	Color        int           `json:"color"`
	Notification *Notification `json:"notification"`
}

// NewWebhookNotifier creates a notifier posting to url at most
// ratePerSecond times per second.
func NewWebhookNotifier(url string, ratePerSecond float64, logger *zap.Logger) (*WebhookNotifier, error) {
	if url == "" {
		return nil, errors.New("webhook url is required")
	}
	limit := rate.Inf
	burst := 1
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
		burst = max(1, int(ratePerSecond))
	}

	client := resty.New().
		SetHeader("Content-Type", "application/json").
		SetTimeout(defaultWebhookTimeout)

	return &WebhookNotifier{
		client:      client,
		url:         url,
		rateLimiter: rate.NewLimiter(limit, burst),
		logger:      logger,
	}, nil
}

// Notify posts n, waiting for the rate limiter first. Non-2xx responses are errors.
func (w *WebhookNotifier) Notify(ctx context.Context, n *Notification) error {
	if err := w.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	payload := webhookPayload{
		Title:        "Reminder",
		Text:         n.Render(),
		Color:        ColorReminder,
		Notification: n,
	}
	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(&payload).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook status %d: %s", resp.StatusCode(), resp.String())
	}

	w.logger.Debug("webhook_notification_sent",
		zap.String("recipient", n.Recipient),
		zap.Int("reminder_id", n.ReminderID),
		zap.Int("status", resp.StatusCode()),
	)
	return nil
}

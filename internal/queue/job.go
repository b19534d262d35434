package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/benvon/smart-reminders/internal/services/notify"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeDeliverReminder delivers one fired reminder to one recipient
	JobTypeDeliverReminder JobType = "deliver_reminder"
)

// DefaultMaxRetries is how many times a failed delivery is retried
const DefaultMaxRetries = 3

// DefaultDeliveryTTL bounds how late a reminder may still be delivered
const DefaultDeliveryTTL = 24 * time.Hour

// Job represents a job in the queue
type Job struct {
	ID           uuid.UUID            `json:"id"`
	Type         JobType              `json:"type"`
	Notification *notify.Notification `json:"notification"`
	NotBefore    *time.Time           `json:"not_before,omitempty"` // Earliest time to process job (nil = immediate)
	NotAfter     *time.Time           `json:"not_after,omitempty"`  // Latest time to process job (nil = no expiration)
	CreatedAt    time.Time            `json:"created_at"`
	RetryCount   int                  `json:"retry_count"`
	MaxRetries   int                  `json:"max_retries"`
}

// NewDeliveryJob creates a delivery job that expires after DefaultDeliveryTTL
func NewDeliveryJob(n *notify.Notification) *Job {
	now := time.Now()
	notAfter := now.Add(DefaultDeliveryTTL)
	return &Job{
		ID:           uuid.New(),
		Type:         JobTypeDeliverReminder,
		Notification: n,
		NotAfter:     &notAfter,
		CreatedAt:    now,
		MaxRetries:   DefaultMaxRetries,
	}
}

// HeldAt reports whether the job is still waiting out a retry delay at now
func (j *Job) HeldAt(now time.Time) bool {
	return j.NotBefore != nil && now.Before(*j.NotBefore)
}

// ExpiredAt reports whether the reminder is too stale to deliver at now
func (j *Job) ExpiredAt(now time.Time) bool {
	return j.NotAfter != nil && now.After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// Retry returns a copy of the job for another attempt, delayed by backoff
func (j *Job) Retry(backoff time.Duration) *Job {
	next := *j
	next.RetryCount++
	if backoff > 0 {
		notBefore := time.Now().Add(backoff)
		next.NotBefore = &notBefore
	}
	return &next
}

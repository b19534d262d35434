package queue

import (
	"context"
	"time"
)

// MessageInterface is one consumed delivery job awaiting acknowledgement
type MessageInterface interface {
	Ack() error
	// Nack rejects the message; without requeue it is dead-lettered
	Nack(requeue bool) error
	GetJob() *Job
}

// JobQueue transports delivery jobs between the scheduler and the
// delivery consumers.
type JobQueue interface {
	Enqueue(ctx context.Context, job *Job) error

	// Consume streams jobs until ctx is cancelled. At most prefetchCount
	// messages are unacknowledged at once; the caller acks or nacks each.
	Consume(ctx context.Context, prefetchCount int) (<-chan MessageInterface, <-chan error, error)

	Close() error
	HealthCheck(ctx context.Context) error
}

// DLQPurger removes dead-lettered jobs older than retention
type DLQPurger interface {
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error)
}

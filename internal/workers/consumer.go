package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/benvon/smart-reminders/internal/queue"
	"github.com/benvon/smart-reminders/internal/services/notify"
)

// DefaultRetryBackoff is the base delay before a failed delivery is retried
const DefaultRetryBackoff = 30 * time.Second

// DeliveryConsumer drains delivery jobs from the queue and hands each
// notification to a Notifier.
type DeliveryConsumer struct {
	jobQueue     queue.JobQueue
	notifier     notify.Notifier
	prefetch     int
	retryBackoff time.Duration
	logger       *zap.Logger
}

// NewDeliveryConsumer creates a new delivery consumer
func NewDeliveryConsumer(jobQueue queue.JobQueue, notifier notify.Notifier, prefetch int, retryBackoff time.Duration, logger *zap.Logger) *DeliveryConsumer {
	if prefetch < 1 {
		prefetch = 1
	}
	if retryBackoff <= 0 {
		retryBackoff = DefaultRetryBackoff
	}
	return &DeliveryConsumer{
		jobQueue:     jobQueue,
		notifier:     notifier,
		prefetch:     prefetch,
		retryBackoff: retryBackoff,
		logger:       logger,
	}
}

// Run consumes until ctx is cancelled or the queue closes the stream.
// Up to prefetch messages are handled concurrently.
func (c *DeliveryConsumer) Run(ctx context.Context) error {
	msgChan, errChan, err := c.jobQueue.Consume(ctx, c.prefetch)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	c.logger.Info("delivery_consumer_started", zap.Int("prefetch", c.prefetch))

	sem := make(chan struct{}, c.prefetch)
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-errChan:
			if ok && err != nil {
				return fmt.Errorf("queue consumer error: %w", err)
			}
			errChan = nil
		case msg, ok := <-msgChan:
			if !ok {
				return errors.New("queue message stream closed")
			}
			sem <- struct{}{}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() { <-sem }()
				c.handle(ctx, msg)
			}()
		}
	}
}

// handle delivers one message and logs the outcome. Successful deliveries
// are acked. Failed ones are re-published with a delay while retries
// remain; afterwards they are dead-lettered.
func (c *DeliveryConsumer) handle(ctx context.Context, msg queue.MessageInterface) {
	job := msg.GetJob()
	if job == nil || job.Type != queue.JobTypeDeliverReminder || job.Notification == nil {
		c.logger.Error("delivery_job_invalid", zap.Any("job", job))
		if err := msg.Nack(false); err != nil {
			c.logger.Error("queue_nack_failed", zap.Error(err))
		}
		return
	}

	logger := c.logger.With(
		zap.String("job_id", job.ID.String()),
		zap.Int("reminder_id", job.Notification.ReminderID),
		zap.String("recipient", job.Notification.Recipient),
	)

	err := c.notifier.Notify(ctx, job.Notification)
	if err == nil {
		if ackErr := msg.Ack(); ackErr != nil {
			logger.Error("queue_ack_failed", zap.Error(ackErr))
		}
		return
	}

	if job.CanRetry() {
		retry := job.Retry(c.retryBackoff * time.Duration(1<<job.RetryCount))
		if enqueueErr := c.jobQueue.Enqueue(ctx, retry); enqueueErr != nil {
			logger.Error("delivery_retry_enqueue_failed", zap.Error(enqueueErr))
			if nackErr := msg.Nack(true); nackErr != nil {
				logger.Error("queue_nack_failed", zap.Error(nackErr))
			}
			return
		}
		if ackErr := msg.Ack(); ackErr != nil {
			logger.Error("queue_ack_failed", zap.Error(ackErr))
		}
		logger.Warn("delivery_retry_scheduled",
			zap.Int("attempt", retry.RetryCount),
			zap.Int("max_retries", retry.MaxRetries),
			zap.Error(err),
		)
		return
	}

	logger.Error("delivery_dead_lettered",
		zap.Int("max_retries", job.MaxRetries),
		zap.Error(err),
	)
	if nackErr := msg.Nack(false); nackErr != nil {
		logger.Error("queue_nack_failed", zap.Error(nackErr))
	}
}

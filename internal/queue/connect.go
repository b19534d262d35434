package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	connectMaxRetries   = 10
	connectInitialDelay = 2 * time.Second
	connectMaxDelay     = 30 * time.Second
)

// Connect dials RabbitMQ, retrying with exponential backoff so that a
// broker that is still starting up does not fail the process.
func Connect(ctx context.Context, amqpURL string, logger *zap.Logger) (*RabbitMQQueue, error) {
	var lastErr error
	for attempt := 0; attempt < connectMaxRetries; attempt++ {
		q, err := NewRabbitMQQueue(amqpURL, logger)
		if err == nil {
			return q, nil
		}
		lastErr = err

		delay := retryDelay(attempt)
		logger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", connectMaxRetries),
			zap.Duration("retry_delay", delay),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", connectMaxRetries, lastErr)
}

func retryDelay(attempt int) time.Duration {
	if attempt >= 5 {
		return connectMaxDelay
	}
	return min(connectInitialDelay*time.Duration(1<<uint(attempt)), connectMaxDelay)
}

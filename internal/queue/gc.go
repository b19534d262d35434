package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const sweepTimeout = 2 * time.Minute

// GarbageCollector periodically drops dead-lettered deliveries older than
// retention so undeliverable reminders do not pile up in the broker.
type GarbageCollector struct {
	purger    DLQPurger
	interval  time.Duration
	retention time.Duration
	logger    *zap.Logger
}

// NewGarbageCollector creates a collector sweeping every interval
func NewGarbageCollector(purger DLQPurger, interval, retention time.Duration, logger *zap.Logger) *GarbageCollector {
	return &GarbageCollector{
		purger:    purger,
		interval:  interval,
		retention: retention,
		logger:    logger.With(zap.Duration("retention", retention)),
	}
}

// Start sweeps once, then on every tick until ctx is cancelled. Sweep
// failures are logged and retried on the next tick.
func (gc *GarbageCollector) Start(ctx context.Context) error {
	ticker := time.NewTicker(gc.interval)
	defer ticker.Stop()
	for {
		if _, err := gc.collect(ctx); err != nil && ctx.Err() == nil {
			gc.logger.Error("dlq_gc_failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// collect runs one bounded sweep and returns how many deliveries it dropped
func (gc *GarbageCollector) collect(ctx context.Context) (int, error) {
	if gc.purger == nil {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	n, err := gc.purger.PurgeOlderThan(ctx, gc.retention)
	if n > 0 {
		gc.logger.Info("dlq_gc_purged", zap.Int("count", n))
	}
	if err != nil {
		return n, fmt.Errorf("failed to purge dead-lettered deliveries: %w", err)
	}
	return n, nil
}

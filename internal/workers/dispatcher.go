package workers

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/benvon/smart-reminders/internal/database"
	"github.com/benvon/smart-reminders/internal/models"
	"github.com/benvon/smart-reminders/internal/queue"
	"github.com/benvon/smart-reminders/internal/services/notify"
	"github.com/benvon/smart-reminders/internal/timeutil"
)

// Dispatcher hands a fired reminder to whatever delivers it.
type Dispatcher interface {
	Dispatch(ctx context.Context, reminder *models.Reminder) error
}

// notifications addresses reminder to every recipient still registered.
// Names that no longer resolve are logged and dropped.
func notifications(ctx context.Context, reminders database.ReminderRepositoryInterface, clock *timeutil.Clock, logger *zap.Logger, reminder *models.Reminder) ([]*notify.Notification, error) {
	epoch, err := clock.EpochSeconds(reminder.FireTime)
	if err != nil {
		return nil, fmt.Errorf("reminder %d: %w", reminder.ID, err)
	}

	people, missing, err := reminders.Recipients(ctx, reminder)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve recipients of reminder %d: %w", reminder.ID, err)
	}
	for _, name := range missing {
		logger.Warn("reminder_recipient_unknown",
			zap.Int("reminder_id", reminder.ID),
			zap.String("name", name),
		)
	}

	out := make([]*notify.Notification, 0, len(people))
	for _, p := range people {
		out = append(out, notify.NewNotification(reminder, p, epoch))
	}
	return out, nil
}

// DirectDispatcher delivers notifications in-process.
type DirectDispatcher struct {
	reminders database.ReminderRepositoryInterface
	notifier  notify.Notifier
	clock     *timeutil.Clock
	logger    *zap.Logger
}

// NewDirectDispatcher creates a dispatcher that calls notifier inline
func NewDirectDispatcher(reminders database.ReminderRepositoryInterface, notifier notify.Notifier, clock *timeutil.Clock, logger *zap.Logger) *DirectDispatcher {
	return &DirectDispatcher{
		reminders: reminders,
		notifier:  notifier,
		clock:     clock,
		logger:    logger,
	}
}

// Dispatch notifies every recipient. A failed recipient does not stop the
// others; all failures are returned joined.
func (d *DirectDispatcher) Dispatch(ctx context.Context, reminder *models.Reminder) error {
	ns, err := notifications(ctx, d.reminders, d.clock, d.logger, reminder)
	if err != nil {
		return err
	}

	var errs []error
	for _, n := range ns {
		if err := d.notifier.Notify(ctx, n); err != nil {
			d.logger.Error("reminder_delivery_failed",
				zap.Int("reminder_id", reminder.ID),
				zap.String("recipient", n.Recipient),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("notify %s: %w", n.Recipient, err))
		}
	}
	return errors.Join(errs...)
}

// QueueDispatcher publishes one delivery job per recipient.
type QueueDispatcher struct {
	reminders database.ReminderRepositoryInterface
	queue     queue.JobQueue
	clock     *timeutil.Clock
	logger    *zap.Logger
}

// NewQueueDispatcher creates a dispatcher that enqueues delivery jobs
func NewQueueDispatcher(reminders database.ReminderRepositoryInterface, jobQueue queue.JobQueue, clock *timeutil.Clock, logger *zap.Logger) *QueueDispatcher {
	return &QueueDispatcher{
		reminders: reminders,
		queue:     jobQueue,
		clock:     clock,
		logger:    logger,
	}
}

// Dispatch enqueues a delivery job for each recipient.
func (d *QueueDispatcher) Dispatch(ctx context.Context, reminder *models.Reminder) error {
	ns, err := notifications(ctx, d.reminders, d.clock, d.logger, reminder)
	if err != nil {
		return err
	}

	var errs []error
	for _, n := range ns {
		job := queue.NewDeliveryJob(n)
		if err := d.queue.Enqueue(ctx, job); err != nil {
			d.logger.Error("delivery_enqueue_failed",
				zap.Int("reminder_id", reminder.ID),
				zap.String("recipient", n.Recipient),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("enqueue delivery for %s: %w", n.Recipient, err))
			continue
		}
		d.logger.Debug("delivery_enqueued",
			zap.String("job_id", job.ID.String()),
			zap.Int("reminder_id", reminder.ID),
			zap.String("recipient", n.Recipient),
		)
	}
	return errors.Join(errs...)
}

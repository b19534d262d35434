package workers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/benvon/smart-reminders/internal/database"
	"github.com/benvon/smart-reminders/internal/models"
	"github.com/benvon/smart-reminders/internal/timeutil"
)

// DefaultPollInterval is how often the scheduler looks for due reminders
const DefaultPollInterval = 60 * time.Second

// SkippedReminder records a reminder a poll could not process
type SkippedReminder struct {
	ReminderID int
	Err        error
}

// PollError lists the reminders skipped during one poll. The rest of the
// poll still completed.
type PollError struct {
	Skipped []SkippedReminder
}

func (e *PollError) Error() string {
	parts := make([]string, 0, len(e.Skipped))
	for _, s := range e.Skipped {
		parts = append(parts, fmt.Sprintf("reminder %d: %v", s.ReminderID, s.Err))
	}
	return fmt.Sprintf("poll skipped %d reminder(s): %s", len(e.Skipped), strings.Join(parts, "; "))
}

func (e *PollError) Unwrap() []error {
	errs := make([]error, 0, len(e.Skipped))
	for _, s := range e.Skipped {
		errs = append(errs, s.Err)
	}
	return errs
}

// Scheduler finds due reminders, retires or reschedules them, and hands
// them to a Dispatcher.
type Scheduler struct {
	reminders  database.ReminderRepositoryInterface
	clock      *timeutil.Clock
	dispatcher Dispatcher
	interval   time.Duration
	logger     *zap.Logger
	tracer     trace.Tracer
}

// NewScheduler creates a new scheduler. dispatcher may be nil when the
// caller only wants Poll.
func NewScheduler(reminders database.ReminderRepositoryInterface, clock *timeutil.Clock, dispatcher Dispatcher, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Scheduler{
		reminders:  reminders,
		clock:      clock,
		dispatcher: dispatcher,
		interval:   interval,
		logger:     logger,
		tracer:     otel.Tracer("github.com/benvon/smart-reminders/internal/workers"),
	}
}

// Poll returns every reminder whose fire time is before now, in store
// order. One-off reminders are deleted and recurring ones advanced past
// now before they are returned; the returned values are the state at the
// time they fired. Reminders that cannot be processed are skipped and
// reported through a *PollError alongside the due list.
func (s *Scheduler) Poll(ctx context.Context, now time.Time) ([]*models.Reminder, error) {
	now = now.In(s.clock.Location()).Truncate(time.Second)

	all, err := s.reminders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}

	due := make([]*models.Reminder, 0)
	var skipped []SkippedReminder
	skip := func(r *models.Reminder, err error) {
		s.logger.Error("poll_record_skipped",
			zap.Int("reminder_id", r.ID),
			zap.String("fire_time", r.FireTime),
			zap.String("recurrence", string(r.Recurrence)),
			zap.Error(err),
		)
		skipped = append(skipped, SkippedReminder{ReminderID: r.ID, Err: err})
	}

	for _, r := range all {
		fire, err := s.clock.ParseCanonical(r.FireTime)
		if err != nil {
			skip(r, err)
			continue
		}
		if !fire.Before(now) {
			continue
		}

		snapshot := r.Clone()
		if !r.Recurrence.IsRecurring() {
			if r.Recurrence != models.RecurrenceOff {
				s.logger.Warn("unknown_recurrence_treated_as_off",
					zap.Int("reminder_id", r.ID),
					zap.String("recurrence", string(r.Recurrence)),
				)
			}
			if err := s.reminders.Delete(ctx, r.ID); err != nil {
				skip(r, err)
				continue
			}
			due = append(due, snapshot)
			continue
		}

		next, err := NextFireTime(fire, r.AnchorDay, r.Recurrence, now)
		if err != nil {
			skip(r, err)
			continue
		}
		if err := s.reminders.Reschedule(ctx, r.ID, next); err != nil {
			skip(r, err)
			continue
		}
		s.logger.Debug("reminder_rescheduled",
			zap.Int("reminder_id", r.ID),
			zap.String("fired_at", r.FireTime),
			zap.String("next_fire_time", s.clock.FormatDateTime(next)),
		)
		due = append(due, snapshot)
	}

	if len(skipped) > 0 {
		return due, &PollError{Skipped: skipped}
	}
	return due, nil
}

// Run polls immediately and then on every tick until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler_started", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler_stopped")
			return ctx.Err()
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs one poll and dispatches whatever came due. Failures are
// logged; the next tick tries again.
func (s *Scheduler) RunOnce(ctx context.Context) []*models.Reminder {
	ctx, span := s.tracer.Start(ctx, "scheduler.poll")
	defer span.End()

	due, err := s.Poll(ctx, s.clock.Now())
	var pollErr *PollError
	switch {
	case errors.As(err, &pollErr):
		span.SetAttributes(attribute.Int("reminders.skipped", len(pollErr.Skipped)))
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "poll failed")
		s.logger.Error("poll_failed", zap.Error(err))
		return nil
	}
	span.SetAttributes(attribute.Int("reminders.due", len(due)))

	if len(due) > 0 {
		s.logger.Info("reminders_due", zap.Int("count", len(due)))
	}
	if s.dispatcher == nil {
		return due
	}
	for _, r := range due {
		if err := s.dispatcher.Dispatch(ctx, r); err != nil {
			span.RecordError(err)
			s.logger.Error("reminder_dispatch_failed",
				zap.Int("reminder_id", r.ID),
				zap.Error(err),
			)
		}
	}
	return due
}

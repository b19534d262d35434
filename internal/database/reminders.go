package database

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/benvon/smart-reminders/internal/models"
	"github.com/benvon/smart-reminders/internal/store"
)

// defaultDeadlineTime is the time of day a reminder fires when it is
// derived from a task deadline.
const defaultDeadlineTime = "10:00"

// ReminderRepository handles reminder persistence
type ReminderRepository struct {
	db *DB
}

// NewReminderRepository creates a new reminder repository
func NewReminderRepository(db *DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

// GetByID retrieves a reminder by id
func (r *ReminderRepository) GetByID(ctx context.Context, id int) (*models.Reminder, error) {
	r.db.remindersMu.RLock()
	defer r.db.remindersMu.RUnlock()

	doc, err := r.db.reminders.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(KindNotFound, "There is no reminder with id `%d`.", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}
	return reminderFromDocument(doc), nil
}

// List returns every reminder in store order
func (r *ReminderRepository) List(ctx context.Context) ([]*models.Reminder, error) {
	r.db.remindersMu.RLock()
	defer r.db.remindersMu.RUnlock()

	docs, err := r.db.reminders.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	reminders := make([]*models.Reminder, 0, len(docs))
	for _, doc := range docs {
		reminders = append(reminders, reminderFromDocument(doc))
	}
	return reminders, nil
}

// Create validates the loose input, fills gaps from the linked task and
// stores the reminder.
func (r *ReminderRepository) Create(ctx context.Context, in models.NewReminder) (*models.Reminder, error) {
	r.db.peopleMu.RLock()
	defer r.db.peopleMu.RUnlock()
	r.db.tasksMu.RLock()
	defer r.db.tasksMu.RUnlock()
	r.db.remindersMu.Lock()
	defer r.db.remindersMu.Unlock()

	names := models.NormalizeNames(in.Names)
	timeText := strings.TrimSpace(in.Time)
	content := strings.TrimSpace(in.Content)

	if in.TaskID != nil {
		doc, err := r.db.tasks.Get(ctx, *in.TaskID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(KindTaskNotFound, "There is no task with id `[%d]`...", *in.TaskID)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get linked task: %w", err)
		}
		task := taskFromDocument(doc)
		if timeText == "" && task.HasDeadline() {
			timeText = task.Deadline + " " + defaultDeadlineTime
		}
		if !slices.Contains(names, task.OwnerName) {
			names = append([]string{task.OwnerName}, names...)
		}
		if content == "" {
			content = task.Content
		}
	}

	var fireTime string
	var fireDay int
	if timeText != "" {
		t, err := r.db.clock.Parse(timeText)
		if err != nil {
			return nil, &Error{Kind: KindDateParseError, Message: err.Error(), Err: err}
		}
		fireTime = r.db.clock.FormatDateTime(t)
		fireDay = t.Day()
	}

	for _, name := range names {
		if _, err := lookupPerson(ctx, r.db, name); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, newError(KindUnknownPerson, "Cannot generate reminder for person `%s` as this name is not recognized.", name)
			}
			return nil, err
		}
	}

	recurrence, ok := models.ParseRecurrence(in.Recurrence)
	if !ok {
		return nil, &Error{Kind: KindInvalidRecurrence, Message: models.RecurrenceHelp}
	}

	if fireTime == "" || len(names) == 0 || content == "" {
		return nil, newError(KindIncompleteReminder, "Either a time and content or a task (with deadline) must be provided to make a reminder.")
	}

	reminder := &models.Reminder{
		FireTime:       fireTime,
		RecipientNames: names,
		Recurrence:     recurrence,
		Content:        content,
	}
	if recurrence == models.RecurrenceMonthly || recurrence == models.RecurrenceYearly {
		reminder.AnchorDay = fireDay
	}
	if in.TaskID != nil {
		id := *in.TaskID
		reminder.LinkedTaskID = &id
	}

	id, err := r.db.reminders.Insert(ctx, reminderFields(reminder))
	if err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}
	reminder.ID = id
	return reminder, nil
}

// Remove deletes a reminder and returns it
func (r *ReminderRepository) Remove(ctx context.Context, id int) (*models.Reminder, error) {
	r.db.remindersMu.Lock()
	defer r.db.remindersMu.Unlock()

	doc, err := r.db.reminders.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(KindNotFound, "There is no reminder with id `%d`.", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}
	if err := r.db.reminders.Remove(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to remove reminder: %w", err)
	}
	return reminderFromDocument(doc), nil
}

// Delete removes a fired one-off reminder
func (r *ReminderRepository) Delete(ctx context.Context, id int) error {
	r.db.remindersMu.Lock()
	defer r.db.remindersMu.Unlock()

	if err := r.db.reminders.Remove(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return newError(KindNotFound, "There is no reminder with id `%d`.", id)
		}
		return fmt.Errorf("failed to delete reminder %d: %w", id, err)
	}
	return nil
}

// Reschedule moves a recurring reminder to its next fire time
func (r *ReminderRepository) Reschedule(ctx context.Context, id int, fireTime time.Time) error {
	r.db.remindersMu.Lock()
	defer r.db.remindersMu.Unlock()

	err := r.db.reminders.Update(ctx, id, store.Fields{fieldFireTime: r.db.clock.FormatDateTime(fireTime)})
	if errors.Is(err, store.ErrNotFound) {
		return newError(KindNotFound, "There is no reminder with id `%d`.", id)
	}
	if err != nil {
		return fmt.Errorf("failed to reschedule reminder %d: %w", id, err)
	}
	return nil
}

// Recipients resolves a reminder's recipient names to people. Names that
// no longer resolve are returned separately.
func (r *ReminderRepository) Recipients(ctx context.Context, reminder *models.Reminder) ([]*models.Person, []string, error) {
	r.db.peopleMu.RLock()
	defer r.db.peopleMu.RUnlock()

	people := make([]*models.Person, 0, len(reminder.RecipientNames))
	var missing []string
	for _, name := range reminder.RecipientNames {
		p, err := lookupPerson(ctx, r.db, name)
		if errors.Is(err, ErrNotFound) {
			missing = append(missing, name)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		people = append(people, p)
	}
	return people, missing, nil
}

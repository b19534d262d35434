package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/benvon/smart-reminders/internal/models"
	"github.com/benvon/smart-reminders/internal/store"
)

// TaskRepository handles task persistence
type TaskRepository struct {
	db *DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// GetByID retrieves a task by id
func (r *TaskRepository) GetByID(ctx context.Context, id int) (*models.Task, error) {
	r.db.tasksMu.RLock()
	defer r.db.tasksMu.RUnlock()

	doc, err := r.db.tasks.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(KindNotFound, "There is no task with id `%d`.", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return taskFromDocument(doc), nil
}

// Create adds a task to ownerName's list. A non-empty deadline is parsed
// loosely and stored as a yyyy-mm-dd date.
func (r *TaskRepository) Create(ctx context.Context, ownerName, content, deadline string) (*models.Task, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, newError(KindEmptyContent, "Cannot add an empty task to the to-do list...")
	}
	ownerName = models.NormalizeName(ownerName)

	r.db.peopleMu.RLock()
	defer r.db.peopleMu.RUnlock()
	r.db.tasksMu.Lock()
	defer r.db.tasksMu.Unlock()

	if err := requirePerson(ctx, r.db, ownerName); err != nil {
		return nil, err
	}

	task := &models.Task{OwnerName: ownerName, Content: content}
	if strings.TrimSpace(deadline) != "" {
		t, err := r.db.clock.Parse(deadline)
		if err != nil {
			return nil, &Error{Kind: KindDateParseError, Message: err.Error(), Err: err}
		}
		task.Deadline = r.db.clock.FormatDate(t)
	}

	id, err := r.db.tasks.Insert(ctx, taskFields(task))
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	task.ID = id
	return task, nil
}

// Remove deletes a task and every reminder linked to it, reminders first
func (r *TaskRepository) Remove(ctx context.Context, id int) (*models.Task, error) {
	r.db.tasksMu.Lock()
	defer r.db.tasksMu.Unlock()
	r.db.remindersMu.Lock()
	defer r.db.remindersMu.Unlock()

	doc, err := r.db.tasks.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(KindNotFound, "There is no task with id `%d`.", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if err := removeTaskLocked(ctx, r.db, id); err != nil {
		return nil, err
	}
	return taskFromDocument(doc), nil
}

// removeTaskLocked deletes the task's reminders and then the task.
// Callers hold the tasks and reminders write locks.
func removeTaskLocked(ctx context.Context, db *DB, id int) error {
	if _, err := db.reminders.RemoveWhere(ctx, fieldLinkedTaskID, id); err != nil {
		return fmt.Errorf("failed to remove reminders of task %d: %w", id, err)
	}
	if err := db.tasks.Remove(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to remove task %d: %w", id, err)
	}
	return nil
}

// requirePerson is the single existence check behind every operation that
// names a person. Callers hold the people lock.
func requirePerson(ctx context.Context, db *DB, name string) error {
	_, err := lookupPerson(ctx, db, name)
	if errors.Is(err, ErrNotFound) {
		return newError(KindUnknownPerson, "No person with name `%s` is known. Register them first.", name)
	}
	return err
}

package database

import (
	"context"
	"time"

	"github.com/benvon/smart-reminders/internal/models"
)

// PersonRepositoryInterface defines the interface for person repository operations
// This interface enables better testability by allowing mock implementations
type PersonRepositoryInterface interface {
	GetByName(ctx context.Context, name string) (*models.Person, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.Person, error)
	List(ctx context.Context) ([]*models.Person, error)
	Register(ctx context.Context, name, displayName, externalID string) (*models.Person, error)
	Remove(ctx context.Context, name string) (*models.Person, error)
	ListTasks(ctx context.Context, name string) ([]*models.Task, error)
	ListReminders(ctx context.Context, name string) ([]*models.Reminder, error)
}

// TaskRepositoryInterface defines the interface for task repository operations
type TaskRepositoryInterface interface {
	GetByID(ctx context.Context, id int) (*models.Task, error)
	Create(ctx context.Context, ownerName, content, deadline string) (*models.Task, error)
	Remove(ctx context.Context, id int) (*models.Task, error)
}

// ReminderRepositoryInterface defines the interface for reminder repository operations
type ReminderRepositoryInterface interface {
	GetByID(ctx context.Context, id int) (*models.Reminder, error)
	List(ctx context.Context) ([]*models.Reminder, error)
	Create(ctx context.Context, in models.NewReminder) (*models.Reminder, error)
	Remove(ctx context.Context, id int) (*models.Reminder, error)
	Delete(ctx context.Context, id int) error
	Reschedule(ctx context.Context, id int, fireTime time.Time) error
	Recipients(ctx context.Context, reminder *models.Reminder) ([]*models.Person, []string, error)
}

// Ensure concrete types implement the interfaces
var (
	_ PersonRepositoryInterface   = (*PersonRepository)(nil)
	_ TaskRepositoryInterface     = (*TaskRepository)(nil)
	_ ReminderRepositoryInterface = (*ReminderRepository)(nil)
)

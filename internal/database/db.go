package database

import (
	"context"
	"sync"

	"github.com/benvon/smart-reminders/internal/store"
	"github.com/benvon/smart-reminders/internal/timeutil"
)

// DB is the shared handle the repositories are built from. It owns the
// three tables and one lock per table. Operations spanning several tables
// acquire locks in the order people, tasks, reminders.
type DB struct {
	store store.Store
	clock *timeutil.Clock

	people    store.Table
	tasks     store.Table
	reminders store.Table

	peopleMu    sync.RWMutex
	tasksMu     sync.RWMutex
	remindersMu sync.RWMutex
}

// New wraps an open store.
func New(s store.Store, clock *timeutil.Clock) *DB {
	return &DB{
		store:     s,
		clock:     clock,
		people:    s.Table(store.TablePeople),
		tasks:     s.Table(store.TableTasks),
		reminders: s.Table(store.TableReminders),
	}
}

// Clock returns the clock used for parsing and formatting times.
func (db *DB) Clock() *timeutil.Clock {
	return db.clock
}

// Ping checks the underlying store.
func (db *DB) Ping(ctx context.Context) error {
	return db.store.Ping(ctx)
}

// Close closes the underlying store.
func (db *DB) Close() error {
	return db.store.Close()
}

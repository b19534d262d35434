// Package store defines the document store the entity layer persists into.
// A Store is a set of named tables; each table holds flat JSON-like
// documents keyed by an auto-incremented integer id.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// ErrNotFound is returned when no document has the requested id or match.
var ErrNotFound = errors.New("document not found")

// Table names used by the entity layer.
const (
	TablePeople    = "people"
	TableTasks     = "tasks"
	TableReminders = "reminders"
)

var tableNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

// ValidateTableName rejects names that are unsafe as SQL identifiers or key prefixes.
func ValidateTableName(name string) error {
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("invalid table name %q", name)
	}
	return nil
}

// Document is a stored record together with its store-assigned id.
type Document struct {
	ID     int
	Fields Fields
}

// Table is one collection of documents. Ids start at 1 and are never reused.
// Every listing operation returns documents in ascending id order.
type Table interface {
	Get(ctx context.Context, id int) (Document, error)
	GetOne(ctx context.Context, field string, value any) (Document, error)
	Search(ctx context.Context, field string, value any) ([]Document, error)
	All(ctx context.Context) ([]Document, error)
	Insert(ctx context.Context, fields Fields) (int, error)
	// Update merges fields into the stored document, key by key.
	Update(ctx context.Context, id int, fields Fields) error
	Remove(ctx context.Context, id int) error
	RemoveWhere(ctx context.Context, field string, value any) (int, error)
}

// Store hands out tables and owns the underlying storage handle.
type Store interface {
	Table(name string) Table
	Ping(ctx context.Context) error
	Close() error
}

// Filter returns the documents matching (field, value), preserving order.
func Filter(docs []Document, field string, value any) []Document {
	out := make([]Document, 0)
	for _, doc := range docs {
		if doc.Fields.Matches(field, value) {
			out = append(out, doc)
		}
	}
	return out
}

// First returns the first matching document or ErrNotFound.
func First(docs []Document, field string, value any) (Document, error) {
	for _, doc := range docs {
		if doc.Fields.Matches(field, value) {
			return doc, nil
		}
	}
	return Document{}, ErrNotFound
}

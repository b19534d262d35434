// Package sqlstore implements store.Store on database/sql. Each table keeps
// an auto-increment id and the document body as JSON text; field lookups
// scan the table and match in Go.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/benvon/smart-reminders/internal/store"
)

// Dialect selects the SQL flavour.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

// Store is a database/sql backed store.Store.
type Store struct {
	db      *sql.DB
	dialect Dialect

	// writes are serialised; SQLite allows a single writer anyway
	writeMu sync.Mutex

	createMu sync.Mutex
	created  map[string]bool
}

var _ store.Store = (*Store)(nil)

// OpenSQLite opens (or creates) a SQLite database at path with WAL enabled.
func OpenSQLite(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}
	return New(db, SQLite), nil
}

// OpenPostgres connects to the PostgreSQL database at dsn.
func OpenPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return New(db, Postgres), nil
}

// New wraps an open database handle.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect, created: make(map[string]bool)}
}

// Table returns the named table; it is created on first use.
func (s *Store) Table(name string) store.Table {
	return &Table{s: s, name: name}
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) quote(name string) string {
	if s.dialect == Postgres {
		return pq.QuoteIdentifier(name)
	}
	return `"` + name + `"`
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) ensureTable(ctx context.Context, name string) error {
	if err := store.ValidateTableName(name); err != nil {
		return err
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()
	if s.created[name] {
		return nil
	}

	idColumn := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.dialect == Postgres {
		idColumn = "id BIGSERIAL PRIMARY KEY"
	}
	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s, doc TEXT NOT NULL)", s.quote(name), idColumn)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create table %s: %w", name, err)
	}
	s.created[name] = true
	return nil
}

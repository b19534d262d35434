package database

import (
	"errors"
	"fmt"

	"github.com/benvon/smart-reminders/internal/store"
	"github.com/benvon/smart-reminders/internal/store/badgerstore"
	"github.com/benvon/smart-reminders/internal/store/filestore"
	"github.com/benvon/smart-reminders/internal/store/sqlstore"
	"github.com/benvon/smart-reminders/internal/timeutil"
)

// Store drivers
const (
	DriverFile     = "file"
	DriverBadger   = "badger"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options selects and locates the document store.
type Options struct {
	Driver string
	Path   string
	URL    string
}

// Open opens the configured store backend and wraps it.
func Open(opts Options, clock *timeutil.Clock) (*DB, error) {
	s, err := OpenStore(opts)
	if err != nil {
		return nil, err
	}
	return New(s, clock), nil
}

// OpenStore opens the configured store backend.
func OpenStore(opts Options) (store.Store, error) {
	switch opts.Driver {
	case DriverFile, "":
		s, err := filestore.Open(opts.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open file store: %w", err)
		}
		return s, nil
	case DriverBadger:
		if opts.Path == "" {
			return nil, errors.New("badger store requires a path")
		}
		return badgerstore.Open(opts.Path)
	case DriverSQLite:
		if opts.Path == "" {
			return nil, errors.New("sqlite store requires a path")
		}
		return sqlstore.OpenSQLite(opts.Path)
	case DriverPostgres:
		if opts.URL == "" {
			return nil, errors.New("postgres store requires a database url")
		}
		return sqlstore.OpenPostgres(opts.URL)
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}

// Package filestore keeps every table in a single YAML document file,
// rewritten atomically after each mutation. Each operation reloads the file
// under an OS-level lock so several processes can share one path. An empty
// path gives a purely in-memory store.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"github.com/benvon/smart-reminders/internal/store"
)

const lockRetryDelay = 10 * time.Millisecond

type tableData struct {
	NextID    int                  `yaml:"next_id"`
	Documents map[int]store.Fields `yaml:"documents"`
}

func (d *tableData) clone() *tableData {
	c := &tableData{NextID: d.NextID, Documents: make(map[int]store.Fields, len(d.Documents))}
	for id, f := range d.Documents {
		c.Documents[id] = f.Clone()
	}
	return c
}

func (d *tableData) sortedIDs() []int {
	ids := make([]int, 0, len(d.Documents))
	for id := range d.Documents {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

type tables map[string]*tableData

// Store is a YAML-file backed store.Store.
type Store struct {
	mu   sync.Mutex
	path string
	lock *flock.Flock

	// memory holds the tables when path is empty
	memory tables
}

var _ store.Store = (*Store)(nil)

// Open checks the document file at path, creating it on first write.
func Open(path string) (*Store, error) {
	s := &Store{path: path, memory: make(tables)}
	if path == "" {
		return s, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	s.lock = flock.New(path + ".lock")

	if err := s.view(context.Background(), func(tables) error { return nil }); err != nil {
		return nil, err
	}
	return s, nil
}

// NewMemory returns a store that never touches disk.
func NewMemory() *Store {
	s, _ := Open("")
	return s
}

// Table returns the named table.
func (s *Store) Table(name string) store.Table {
	return &Table{s: s, name: name}
}

// Ping verifies the document file is still reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.path == "" {
		return nil
	}
	dir := filepath.Dir(s.path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to stat store directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("store directory %s is not a directory", dir)
	}
	return nil
}

// Close releases the lock file handle; every mutation is already on disk.
func (s *Store) Close() error {
	if s.lock == nil {
		return nil
	}
	return s.lock.Close()
}

// table returns the data for name from ts, adding it when create is set.
func table(ts tables, name string, create bool) (*tableData, error) {
	if err := store.ValidateTableName(name); err != nil {
		return nil, err
	}
	t, ok := ts[name]
	if !ok {
		t = &tableData{Documents: make(map[int]store.Fields)}
		if create {
			ts[name] = t
		}
	}
	return t, nil
}

// mutate applies fn to the named table and persists the result. Nothing is
// written when fn fails.
func (s *Store) mutate(ctx context.Context, name string, fn func(t *tableData) error) error {
	if err := store.ValidateTableName(name); err != nil {
		return err
	}
	return s.withTables(ctx, true, func(ts tables) error {
		t, _ := table(ts, name, true)
		if s.path == "" {
			prev := t.clone()
			if err := fn(t); err != nil {
				ts[name] = prev
				return err
			}
			return nil
		}
		if err := fn(t); err != nil {
			return err
		}
		return s.flush(ts)
	})
}

func (s *Store) view(ctx context.Context, fn func(ts tables) error) error {
	return s.withTables(ctx, false, fn)
}

func (s *Store) viewTable(ctx context.Context, name string, fn func(t *tableData) error) error {
	if err := store.ValidateTableName(name); err != nil {
		return err
	}
	return s.view(ctx, func(ts tables) error {
		t, _ := table(ts, name, false)
		return fn(t)
	})
}

// withTables runs fn over the current tables. On disk that means taking the
// lock file (exclusive for writes) and reloading the document.
func (s *Store) withTables(ctx context.Context, write bool, fn func(ts tables) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return fn(s.memory)
	}

	var locked bool
	var err error
	if write {
		locked, err = s.lock.TryLockContext(ctx, lockRetryDelay)
	} else {
		locked, err = s.lock.TryRLockContext(ctx, lockRetryDelay)
	}
	if err != nil {
		return fmt.Errorf("failed to lock store file: %w", err)
	}
	if !locked {
		return errors.New("failed to lock store file")
	}
	defer func() { _ = s.lock.Unlock() }()

	ts, err := s.load()
	if err != nil {
		return err
	}
	return fn(ts)
}

// load reads the document file. A missing file is an empty store.
func (s *Store) load() (tables, error) {
	ts := make(tables)
	data, err := os.ReadFile(s.path) // #nosec G304 - path comes from operator config
	if errors.Is(err, os.ErrNotExist) {
		return ts, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}
	if err := yaml.Unmarshal(data, &ts); err != nil {
		return nil, fmt.Errorf("failed to parse store file: %w", err)
	}
	if ts == nil {
		ts = make(tables)
	}
	for name, t := range ts {
		if err := store.ValidateTableName(name); err != nil {
			return nil, err
		}
		if t == nil {
			t = &tableData{}
			ts[name] = t
		}
		if t.Documents == nil {
			t.Documents = make(map[int]store.Fields)
		}
		for id, f := range t.Documents {
			t.Documents[id] = f.Clone()
			if id > t.NextID {
				t.NextID = id
			}
		}
	}
	return ts, nil
}

// flush writes ts through a temp file and rename. Callers hold the
// exclusive lock.
func (s *Store) flush(ts tables) error {
	data, err := yaml.Marshal(ts)
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to sync store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close store file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}

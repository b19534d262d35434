// Package badgerstore implements store.Store on an embedded Badger database.
// Documents live under "<table>:doc:<id>" with the id encoded big-endian so
// prefix iteration yields id order.
package badgerstore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/benvon/smart-reminders/internal/store"
)

const sequenceBandwidth = 100

// Store wraps a Badger database instance.
type Store struct {
	db *badger.DB

	// writes are serialised so read-modify-write updates never conflict
	writeMu sync.Mutex

	seqMu     sync.Mutex
	sequences map[string]*badger.Sequence
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) a Badger database in the directory at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.SyncWrites = true
	opts.CompactL0OnClose = true
	return open(opts)
}

// OpenInMemory returns a store that keeps everything in memory.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts)
}

func open(opts badger.Options) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	return &Store{db: db, sequences: make(map[string]*badger.Sequence)}, nil
}

// Table returns the named table.
func (s *Store) Table(name string) store.Table {
	return &Table{s: s, name: name, prefix: []byte(name + ":doc:")}
}

// Ping checks the database is open.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return errors.New("badger db is closed")
	}
	return s.db.View(func(txn *badger.Txn) error { return nil })
}

// Close releases leased ids and closes the database.
func (s *Store) Close() error {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()

	var errs []error
	for name, seq := range s.sequences {
		if err := seq.Release(); err != nil {
			errs = append(errs, fmt.Errorf("failed to release sequence for %s: %w", name, err))
		}
	}
	s.sequences = map[string]*badger.Sequence{}
	if err := s.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close badger db: %w", err))
	}
	return errors.Join(errs...)
}

// nextID returns the next id for a table, starting at 1.
func (s *Store) nextID(table string) (int, error) {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()

	seq, ok := s.sequences[table]
	if !ok {
		var err error
		seq, err = s.db.GetSequence([]byte(table+":seq"), sequenceBandwidth)
		if err != nil {
			return 0, fmt.Errorf("failed to get sequence: %w", err)
		}
		s.sequences[table] = seq
	}
	n, err := seq.Next()
	if err != nil {
		return 0, fmt.Errorf("failed to allocate id: %w", err)
	}
	return int(n) + 1, nil
}

func encodeID(prefix []byte, id int) []byte {
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], uint64(id))
	return key
}

func decodeID(prefix, key []byte) int {
	return int(binary.BigEndian.Uint64(key[len(prefix):]))
}

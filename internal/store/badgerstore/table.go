package badgerstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/benvon/smart-reminders/internal/store"
)

// Table is one key prefix inside the Badger database.
type Table struct {
	s      *Store
	name   string
	prefix []byte
}

var _ store.Table = (*Table)(nil)

func (t *Table) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return store.ValidateTableName(t.name)
}

func (t *Table) Get(ctx context.Context, id int) (store.Document, error) {
	if err := t.check(ctx); err != nil {
		return store.Document{}, err
	}

	var doc store.Document
	err := t.s.db.View(func(txn *badger.Txn) error {
		fields, err := t.read(txn, id)
		if err != nil {
			return err
		}
		doc = store.Document{ID: id, Fields: fields}
		return nil
	})
	if err != nil {
		return store.Document{}, err
	}
	return doc, nil
}

func (t *Table) GetOne(ctx context.Context, field string, value any) (store.Document, error) {
	docs, err := t.All(ctx)
	if err != nil {
		return store.Document{}, err
	}
	return store.First(docs, field, value)
}

func (t *Table) Search(ctx context.Context, field string, value any) ([]store.Document, error) {
	docs, err := t.All(ctx)
	if err != nil {
		return nil, err
	}
	return store.Filter(docs, field, value), nil
}

func (t *Table) All(ctx context.Context) ([]store.Document, error) {
	if err := t.check(ctx); err != nil {
		return nil, err
	}

	docs := make([]store.Document, 0)
	err := t.s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = t.prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(t.prefix); it.ValidForPrefix(t.prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			id := decodeID(t.prefix, item.Key())
			err := item.Value(func(val []byte) error {
				fields, err := store.Decode(val)
				if err != nil {
					return fmt.Errorf("failed to decode document %s/%d: %w", t.name, id, err)
				}
				docs = append(docs, store.Document{ID: id, Fields: fields})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (t *Table) Insert(ctx context.Context, fields store.Fields) (int, error) {
	if err := t.check(ctx); err != nil {
		return 0, err
	}
	data, err := store.Encode(fields)
	if err != nil {
		return 0, fmt.Errorf("failed to encode document: %w", err)
	}

	t.s.writeMu.Lock()
	defer t.s.writeMu.Unlock()

	id, err := t.s.nextID(t.name)
	if err != nil {
		return 0, err
	}
	err = t.s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(encodeID(t.prefix, id), data)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert document: %w", err)
	}
	return id, nil
}

func (t *Table) Update(ctx context.Context, id int, fields store.Fields) error {
	if err := t.check(ctx); err != nil {
		return err
	}

	t.s.writeMu.Lock()
	defer t.s.writeMu.Unlock()

	return t.s.db.Update(func(txn *badger.Txn) error {
		current, err := t.read(txn, id)
		if err != nil {
			return err
		}
		data, err := store.Encode(current.Merge(fields))
		if err != nil {
			return fmt.Errorf("failed to encode document: %w", err)
		}
		return txn.Set(encodeID(t.prefix, id), data)
	})
}

func (t *Table) Remove(ctx context.Context, id int) error {
	if err := t.check(ctx); err != nil {
		return err
	}

	t.s.writeMu.Lock()
	defer t.s.writeMu.Unlock()

	return t.s.db.Update(func(txn *badger.Txn) error {
		key := encodeID(t.prefix, id)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return store.ErrNotFound
			}
			return fmt.Errorf("failed to get key: %w", err)
		}
		return txn.Delete(key)
	})
}

func (t *Table) RemoveWhere(ctx context.Context, field string, value any) (int, error) {
	if err := t.check(ctx); err != nil {
		return 0, err
	}

	t.s.writeMu.Lock()
	defer t.s.writeMu.Unlock()

	docs, err := t.All(ctx)
	if err != nil {
		return 0, err
	}
	matches := store.Filter(docs, field, value)
	if len(matches) == 0 {
		return 0, nil
	}

	wb := t.s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, doc := range matches {
		if err := wb.Delete(encodeID(t.prefix, doc.ID)); err != nil {
			return 0, fmt.Errorf("failed to delete document: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("failed to flush deletes: %w", err)
	}
	return len(matches), nil
}

func (t *Table) read(txn *badger.Txn, id int) (store.Fields, error) {
	item, err := txn.Get(encodeID(t.prefix, id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}
	var fields store.Fields
	err = item.Value(func(val []byte) error {
		fields, err = store.Decode(val)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode document %s/%d: %w", t.name, id, err)
	}
	return fields, nil
}

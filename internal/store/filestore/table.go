package filestore

import (
	"context"

	"github.com/benvon/smart-reminders/internal/store"
)

// Table is one named collection inside a Store.
type Table struct {
	s    *Store
	name string
}

var _ store.Table = (*Table)(nil)

func (t *Table) Get(ctx context.Context, id int) (store.Document, error) {
	var doc store.Document
	err := t.s.viewTable(ctx, t.name, func(d *tableData) error {
		f, ok := d.Documents[id]
		if !ok {
			return store.ErrNotFound
		}
		doc = store.Document{ID: id, Fields: f.Clone()}
		return nil
	})
	return doc, err
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
	var docs []store.Document
	err := t.s.viewTable(ctx, t.name, func(d *tableData) error {
		docs = make([]store.Document, 0, len(d.Documents))
		for _, id := range d.sortedIDs() {
			docs = append(docs, store.Document{ID: id, Fields: d.Documents[id].Clone()})
		}
		return nil
	})
	return docs, err
}

func (t *Table) Insert(ctx context.Context, fields store.Fields) (int, error) {
	var id int
	err := t.s.mutate(ctx, t.name, func(d *tableData) error {
		d.NextID++
		id = d.NextID
		d.Documents[id] = fields.Clone()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (t *Table) Update(ctx context.Context, id int, fields store.Fields) error {
	return t.s.mutate(ctx, t.name, func(d *tableData) error {
		current, ok := d.Documents[id]
		if !ok {
			return store.ErrNotFound
		}
		d.Documents[id] = current.Merge(fields)
		return nil
	})
}

func (t *Table) Remove(ctx context.Context, id int) error {
	return t.s.mutate(ctx, t.name, func(d *tableData) error {
		if _, ok := d.Documents[id]; !ok {
			return store.ErrNotFound
		}
		delete(d.Documents, id)
		return nil
	})
}

func (t *Table) RemoveWhere(ctx context.Context, field string, value any) (int, error) {
	var removed int
	err := t.s.mutate(ctx, t.name, func(d *tableData) error {
		for id, f := range d.Documents {
			if f.Matches(field, value) {
				delete(d.Documents, id)
				removed++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/benvon/smart-reminders/internal/store"
)

// Table is one SQL table of JSON documents.
type Table struct {
	s    *Store
	name string
}

var _ store.Table = (*Table)(nil)

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (t *Table) prepare(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.s.ensureTable(ctx, t.name)
}

func (t *Table) Get(ctx context.Context, id int) (store.Document, error) {
	if err := t.prepare(ctx); err != nil {
		return store.Document{}, err
	}
	fields, err := t.read(ctx, t.s.db, id)
	if err != nil {
		return store.Document{}, err
	}
	return store.Document{ID: id, Fields: fields}, nil
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
	if err := t.prepare(ctx); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT id, doc FROM %s ORDER BY id", t.s.quote(t.name))
	rows, err := t.s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", t.name, err)
	}
	defer func() { _ = rows.Close() }()

	docs := make([]store.Document, 0)
	for rows.Next() {
		var (
			id  int
			raw string
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", t.name, err)
		}
		fields, err := store.Decode([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to decode document %s/%d: %w", t.name, id, err)
		}
		docs = append(docs, store.Document{ID: id, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", t.name, err)
	}
	return docs, nil
}

func (t *Table) Insert(ctx context.Context, fields store.Fields) (int, error) {
	if err := t.prepare(ctx); err != nil {
		return 0, err
	}
	data, err := store.Encode(fields)
	if err != nil {
		return 0, fmt.Errorf("failed to encode document: %w", err)
	}

	t.s.writeMu.Lock()
	defer t.s.writeMu.Unlock()

	query := t.s.rebind(fmt.Sprintf("INSERT INTO %s (doc) VALUES (?) RETURNING id", t.s.quote(t.name)))
	var id int
	if err := t.s.db.QueryRowContext(ctx, query, string(data)).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert into %s: %w", t.name, err)
	}
	return id, nil
}

func (t *Table) Update(ctx context.Context, id int, fields store.Fields) error {
	if err := t.prepare(ctx); err != nil {
		return err
	}

	t.s.writeMu.Lock()
	defer t.s.writeMu.Unlock()

	tx, err := t.s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := t.read(ctx, tx, id)
	if err != nil {
		return err
	}
	data, err := store.Encode(current.Merge(fields))
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	query := t.s.rebind(fmt.Sprintf("UPDATE %s SET doc = ? WHERE id = ?", t.s.quote(t.name)))
	if _, err := tx.ExecContext(ctx, query, string(data), id); err != nil {
		return fmt.Errorf("failed to update %s/%d: %w", t.name, id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit update: %w", err)
	}
	return nil
}

func (t *Table) Remove(ctx context.Context, id int) error {
	if err := t.prepare(ctx); err != nil {
		return err
	}

	t.s.writeMu.Lock()
	defer t.s.writeMu.Unlock()

	query := t.s.rebind(fmt.Sprintf("DELETE FROM %s WHERE id = ?", t.s.quote(t.name)))
	res, err := t.s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%d: %w", t.name, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (t *Table) RemoveWhere(ctx context.Context, field string, value any) (int, error) {
	if err := t.prepare(ctx); err != nil {
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
	ids := make([]int64, len(matches))
	for i, doc := range matches {
		ids[i] = int64(doc.ID)
	}

	var (
		query string
		args  []any
	)
	if t.s.dialect == Postgres {
		query = fmt.Sprintf("DELETE FROM %s WHERE id = ANY($1)", t.s.quote(t.name))
		args = []any{pq.Array(ids)}
	} else {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
		query = fmt.Sprintf("DELETE FROM %s WHERE id IN (%s)", t.s.quote(t.name), placeholders)
		for _, id := range ids {
			args = append(args, id)
		}
	}
	res, err := t.s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", t.name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return int(n), nil
}

func (t *Table) read(ctx context.Context, q querier, id int) (store.Fields, error) {
	query := t.s.rebind(fmt.Sprintf("SELECT doc FROM %s WHERE id = ?", t.s.quote(t.name)))
	var raw string
	err := q.QueryRowContext(ctx, query, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%d: %w", t.name, id, err)
	}
	fields, err := store.Decode([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode document %s/%d: %w", t.name, id, err)
	}
	return fields, nil
}

// Package storetest holds the conformance suite every store backend must pass.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benvon/smart-reminders/internal/store"
)

// Run exercises a store.Store implementation. makeStore must return a
// clean, isolated store; the suite closes it when the subtest ends.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	open := func(t *testing.T) store.Store {
		s := makeStore(t)
		t.Cleanup(func() { _ = s.Close() })
		return s
	}

	t.Run("ping", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Ping(context.Background()))
	})

	t.Run("insert assigns increasing ids from one", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		tbl := s.Table("people")

		id1, err := tbl.Insert(ctx, store.Fields{"name": "alice"})
		require.NoError(t, err)
		id2, err := tbl.Insert(ctx, store.Fields{"name": "bob"})
		require.NoError(t, err)

		require.Equal(t, 1, id1)
		require.Equal(t, 2, id2)
	})

	t.Run("ids are never reused", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		tbl := s.Table("tasks")

		_, err := tbl.Insert(ctx, store.Fields{"content": "a"})
		require.NoError(t, err)
		id2, err := tbl.Insert(ctx, store.Fields{"content": "b"})
		require.NoError(t, err)
		require.NoError(t, tbl.Remove(ctx, id2))

		id3, err := tbl.Insert(ctx, store.Fields{"content": "c"})
		require.NoError(t, err)
		require.Equal(t, 3, id3)
	})

	t.Run("tables are independent", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		pid, err := s.Table("people").Insert(ctx, store.Fields{"name": "alice"})
		require.NoError(t, err)
		tid, err := s.Table("tasks").Insert(ctx, store.Fields{"content": "x"})
		require.NoError(t, err)
		require.Equal(t, 1, pid)
		require.Equal(t, 1, tid)

		_, err = s.Table("tasks").Get(ctx, 2)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("get round trips fields", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		tbl := s.Table("reminders")

		id, err := tbl.Insert(ctx, store.Fields{
			"fire_time":       "2024-06-01 10:00:00",
			"recipient_names": []string{"alice", "bob"},
			"recurrence":      "daily",
			"linked_task_id":  7,
			"enabled":         true,
		})
		require.NoError(t, err)

		doc, err := tbl.Get(ctx, id)
		require.NoError(t, err)
		require.Equal(t, id, doc.ID)
		require.Equal(t, "2024-06-01 10:00:00", doc.Fields.String("fire_time"))
		require.Equal(t, []string{"alice", "bob"}, doc.Fields.Strings("recipient_names"))
		taskID, ok := doc.Fields.Int("linked_task_id")
		require.True(t, ok)
		require.Equal(t, 7, taskID)
		require.Equal(t, true, doc.Fields["enabled"])
	})

	t.Run("get missing returns not found", func(t *testing.T) {
		s := open(t)
		_, err := s.Table("people").Get(context.Background(), 42)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("returned documents are copies", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		tbl := s.Table("people")

		fields := store.Fields{"name": "alice"}
		id, err := tbl.Insert(ctx, fields)
		require.NoError(t, err)
		fields["name"] = "mallory"

		doc, err := tbl.Get(ctx, id)
		require.NoError(t, err)
		doc.Fields["name"] = "eve"

		again, err := tbl.Get(ctx, id)
		require.NoError(t, err)
		require.Equal(t, "alice", again.Fields.String("name"))
	})

	t.Run("search matches scalars and list members in id order", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		tbl := s.Table("reminders")

		_, err := tbl.Insert(ctx, store.Fields{"recipient_names": []string{"alice"}, "linked_task_id": 3})
		require.NoError(t, err)
		_, err = tbl.Insert(ctx, store.Fields{"recipient_names": []string{"bob"}})
		require.NoError(t, err)
		_, err = tbl.Insert(ctx, store.Fields{"recipient_names": []string{"bob", "alice"}, "linked_task_id": 3})
		require.NoError(t, err)

		docs, err := tbl.Search(ctx, "recipient_names", "alice")
		require.NoError(t, err)
		require.Len(t, docs, 2)
		require.Equal(t, 1, docs[0].ID)
		require.Equal(t, 3, docs[1].ID)

		docs, err = tbl.Search(ctx, "linked_task_id", 3)
		require.NoError(t, err)
		require.Len(t, docs, 2)

		docs, err = tbl.Search(ctx, "linked_task_id", "3")
		require.NoError(t, err)
		require.Len(t, docs, 2)

		docs, err = tbl.Search(ctx, "recipient_names", "carol")
		require.NoError(t, err)
		require.Empty(t, docs)
	})

	t.Run("get one returns first match", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		tbl := s.Table("people")

		_, err := tbl.Insert(ctx, store.Fields{"name": "alice", "external_id": "u1"})
		require.NoError(t, err)
		_, err = tbl.Insert(ctx, store.Fields{"name": "bob", "external_id": "u2"})
		require.NoError(t, err)

		doc, err := tbl.GetOne(ctx, "external_id", "u2")
		require.NoError(t, err)
		require.Equal(t, "bob", doc.Fields.String("name"))

		_, err = tbl.GetOne(ctx, "external_id", "u3")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("all lists in id order", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		tbl := s.Table("tasks")

		docs, err := tbl.All(ctx)
		require.NoError(t, err)
		require.Empty(t, docs)

		for _, c := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"} {
			_, err := tbl.Insert(ctx, store.Fields{"content": c})
			require.NoError(t, err)
		}
		docs, err = tbl.All(ctx)
		require.NoError(t, err)
		require.Len(t, docs, 11)
		for i, doc := range docs {
			require.Equal(t, i+1, doc.ID)
		}
	})

	t.Run("update merges fields", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		tbl := s.Table("reminders")

		id, err := tbl.Insert(ctx, store.Fields{"fire_time": "2024-06-01 10:00:00", "content": "x"})
		require.NoError(t, err)
		require.NoError(t, tbl.Update(ctx, id, store.Fields{"fire_time": "2024-06-02 10:00:00"}))

		doc, err := tbl.Get(ctx, id)
		require.NoError(t, err)
		require.Equal(t, "2024-06-02 10:00:00", doc.Fields.String("fire_time"))
		require.Equal(t, "x", doc.Fields.String("content"))

		err = tbl.Update(ctx, id+1, store.Fields{"content": "y"})
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("remove", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		tbl := s.Table("tasks")

		id, err := tbl.Insert(ctx, store.Fields{"content": "x"})
		require.NoError(t, err)
		require.NoError(t, tbl.Remove(ctx, id))

		_, err = tbl.Get(ctx, id)
		require.ErrorIs(t, err, store.ErrNotFound)
		require.ErrorIs(t, tbl.Remove(ctx, id), store.ErrNotFound)
	})

	t.Run("remove where", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		tbl := s.Table("tasks")

		for _, owner := range []string{"alice", "bob", "alice"} {
			_, err := tbl.Insert(ctx, store.Fields{"owner_name": owner})
			require.NoError(t, err)
		}

		n, err := tbl.RemoveWhere(ctx, "owner_name", "alice")
		require.NoError(t, err)
		require.Equal(t, 2, n)

		docs, err := tbl.All(ctx)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		require.Equal(t, "bob", docs[0].Fields.String("owner_name"))

		n, err = tbl.RemoveWhere(ctx, "owner_name", "alice")
		require.NoError(t, err)
		require.Zero(t, n)
	})

	t.Run("concurrent inserts get distinct ids", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		tbl := s.Table("tasks")

		const n = 20
		ids := make([]int, n)
		errs := make([]error, n)
		var wg sync.WaitGroup
		for i := range n {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				ids[i], errs[i] = tbl.Insert(ctx, store.Fields{"content": "x"})
			}(i)
		}
		wg.Wait()

		require.NoError(t, errors.Join(errs...))
		seen := make(map[int]bool, n)
		for _, id := range ids {
			require.False(t, seen[id], "duplicate id %d", id)
			seen[id] = true
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		s := open(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := s.Table("tasks").Insert(ctx, store.Fields{"content": "x"})
		require.ErrorIs(t, err, context.Canceled)
	})
}

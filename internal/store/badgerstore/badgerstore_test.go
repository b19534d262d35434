package badgerstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benvon/smart-reminders/internal/store"
	"github.com/benvon/smart-reminders/internal/store/storetest"
)

func TestBadgerStore_Conformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := OpenInMemory()
		require.NoError(t, err)
		return s
	})
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)
	id, err := s.Table("people").Insert(ctx, store.Fields{"name": "alice", "external_id": "u1"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(dir)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	doc, err := reopened.Table("people").Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "alice", doc.Fields.String("name"))

	next, err := reopened.Table("people").Insert(ctx, store.Fields{"name": "bob"})
	require.NoError(t, err)
	require.Greater(t, next, id)
}

func TestBadgerStore_PingAfterClose(t *testing.T) {
	s, err := OpenInMemory()
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.Error(t, s.Ping(context.Background()))
}

func TestEncodeID_SortsNumerically(t *testing.T) {
	t.Parallel()

	prefix := []byte("tasks:doc:")
	a := encodeID(prefix, 9)
	b := encodeID(prefix, 10)

	require.Less(t, string(a), string(b))
	require.Equal(t, 9, decodeID(prefix, a))
	require.Equal(t, 10, decodeID(prefix, b))
}

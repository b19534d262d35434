package sqlstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benvon/smart-reminders/internal/store"
	"github.com/benvon/smart-reminders/internal/store/storetest"
)

func TestSQLiteStore_Conformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := OpenSQLite(filepath.Join(t.TempDir(), "reminders.db"))
		require.NoError(t, err)
		return s
	})
}

func TestPostgresStore_Conformance(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := OpenPostgres(dsn)
		require.NoError(t, err)
		for _, name := range []string{"people", "tasks", "reminders"} {
			_, err := s.db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", s.quote(name)))
			require.NoError(t, err)
		}
		return s
	})
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reminders.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	id, err := s.Table("tasks").Insert(ctx, store.Fields{"content": "buy milk", "deadline": "2024-06-01"})
	require.NoError(t, err)
	require.NoError(t, s.Table("tasks").Remove(ctx, id))
	require.NoError(t, s.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	next, err := reopened.Table("tasks").Insert(ctx, store.Fields{"content": "call mum"})
	require.NoError(t, err)
	require.Equal(t, id+1, next)
}

func TestRebind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		dialect Dialect
		query   string
		want    string
	}{
		{"sqlite unchanged", SQLite, "UPDATE t SET doc = ? WHERE id = ?", "UPDATE t SET doc = ? WHERE id = ?"},
		{"postgres numbered", Postgres, "UPDATE t SET doc = ? WHERE id = ?", "UPDATE t SET doc = $1 WHERE id = $2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := &Store{dialect: tt.dialect}
			require.Equal(t, tt.want, s.rebind(tt.query))
		})
	}
}

func TestSQLiteStore_InvalidTableName(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "reminders.db"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	_, err = s.Table(`people"; DROP TABLE x; --`).All(context.Background())
	require.Error(t, err)
}

package sqlkv

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T, path string) *Store {
	t.Helper()
	s, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	return s
}

func TestSQLite_GetMissing(t *testing.T) {
	s := openTestDB(t, filepath.Join(t.TempDir(), "todo.db"))
	defer s.Close()

	v, ok, err := s.Get(context.Background(), "todos")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestSQLite_SetOverwrites(t *testing.T) {
	s := openTestDB(t, filepath.Join(t.TempDir(), "todo.db"))
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "todos", `[{"id":"a","todo":"x","completed":false}]`))
	require.NoError(t, s.Set(ctx, "todos", `[]`))

	v, ok, err := s.Get(ctx, "todos")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", v)

	var rows int
	require.NoError(t, s.db.GetContext(ctx, &rows, "SELECT COUNT(*) FROM kv_store"))
	assert.Equal(t, 1, rows)
}

func TestSQLite_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "todo.db")
	ctx := context.Background()

	s := openTestDB(t, path)
	require.NoError(t, s.Set(ctx, "todos", "snapshot"))
	require.NoError(t, s.Close())

	reopened := openTestDB(t, path)
	defer reopened.Close()

	v, ok, err := reopened.Get(ctx, "todos")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "snapshot", v)
}

func TestSQLite_UpdatedAt(t *testing.T) {
	s := openTestDB(t, filepath.Join(t.TempDir(), "todo.db"))
	defer s.Close()
	ctx := context.Background()

	fixed := time.UnixMilli(1_700_000_000_000)
	s.now = func() time.Time { return fixed }

	_, ok, err := s.UpdatedAt(ctx, "todos")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "todos", "x"))
	at, ok, err := s.UpdatedAt(ctx, "todos")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, fixed.Equal(at))
}

func TestOpenSQLite_RequiresPath(t *testing.T) {
	_, err := OpenSQLite(context.Background(), "")
	assert.Error(t, err)
}

func TestParseMySQLDSN(t *testing.T) {
	cfg, err := ParseMySQLDSN("user:pass@tcp(127.0.0.1:3306)/todo")
	require.NoError(t, err)
	assert.Equal(t, "todo", cfg.DBName)
	assert.Equal(t, "127.0.0.1:3306", cfg.Addr)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 10*time.Second, cfg.WriteTimeout)

	cfg, err = ParseMySQLDSN("user:pass@tcp(db:3306)/todo?timeout=1s")
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.Timeout)
}

func TestParseMySQLDSN_Invalid(t *testing.T) {
	_, err := ParseMySQLDSN("not a dsn")
	assert.Error(t, err)

	_, err = ParseMySQLDSN("user:pass@tcp(127.0.0.1:3306)/")
	assert.Error(t, err)
}

func TestOpenMySQL_InvalidDSNFailsBeforeConnecting(t *testing.T) {
	_, err := OpenMySQL(context.Background(), "")
	assert.Error(t, err)

	_, err = OpenMySQL(context.Background(), "not a dsn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid dsn")
}

package metadata

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE metadata (
  key        TEXT PRIMARY KEY,
  value      BLOB NOT NULL,
  updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`)
	require.NoError(t, err)
	return db
}

func TestSetAndGet_InsertThenGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "session.token", []byte("abc")))

	v, err := r.Get(ctx, "session.token")
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), v)
}

func TestGet_NotExists_ReturnsNilNil(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	v, err := r.Get(context.Background(), "absent")
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestSet_UpsertOverwritesValue(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "k", []byte("old")))
	require.NoError(t, r.Set(ctx, "k", []byte("new")))

	v, err := r.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("new"), v)
}

func TestDelete_RemovesKey_AndIsIdempotent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "x", []byte{0x01}))
	require.NoError(t, r.Delete(ctx, "x"))

	v, err := r.Get(ctx, "x")
	require.NoError(t, err)
	require.Nil(t, v)

	require.NoError(t, r.Delete(ctx, "x"))
}

func TestPrefixOperations(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "session.token", []byte("t")))
	require.NoError(t, r.Set(ctx, "session.issued_at", []byte("1")))
	require.NoError(t, r.Set(ctx, "sessionx", []byte("other")))
	require.NoError(t, r.Set(ctx, "ui.theme", []byte("dark")))

	m, err := r.ListPrefix(ctx, "session.")
	require.NoError(t, err)
	assert.Len(t, m, 2)
	assert.Equal(t, []byte("t"), m["session.token"])

	require.NoError(t, r.DeletePrefix(ctx, "session."))

	m, err = r.ListPrefix(ctx, "")
	require.NoError(t, err)
	assert.Len(t, m, 2)
	assert.Contains(t, m, "sessionx")
	assert.Contains(t, m, "ui.theme")
}

func TestPrefix_WildcardsAreLiteral(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "a_b", []byte{1}))
	require.NoError(t, r.Set(ctx, "axb", []byte{2}))

	m, err := r.ListPrefix(ctx, "a_")
	require.NoError(t, err)
	assert.Len(t, m, 1)
	assert.Contains(t, m, "a_b")
}

func TestErrorsAreWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Close())

	_, err := r.Get(ctx, "k")
	require.ErrorContains(t, err, "failed to get metadata[k]")

	err = r.Set(ctx, "k", []byte("v"))
	require.ErrorContains(t, err, "failed to set metadata[k]")

	err = r.Delete(ctx, "k")
	require.ErrorContains(t, err, "failed to delete metadata[k]")

	err = r.DeletePrefix(ctx, "session.")
	require.ErrorContains(t, err, "failed to delete metadata[session.*]")

	_, err = r.ListPrefix(ctx, "session.")
	require.ErrorContains(t, err, "failed to list metadata[session.*]")
}

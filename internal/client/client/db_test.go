package client

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitDatabase_CreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "opsdesk.db")

	db, err := InitDatabase(context.Background(), path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`INSERT INTO metadata(key, value) VALUES ('k', x'01')`)
	require.NoError(t, err)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM metadata`).Scan(&n))
	require.Equal(t, 1, n)
}

func TestInitDatabase_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opsdesk.db")
	ctx := context.Background()

	db, err := InitDatabase(ctx, path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = InitDatabase(ctx, path)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

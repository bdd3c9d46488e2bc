package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrateRoundTripCompatibility(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "migrate-roundtrip.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, MigrateUp(ctx, db), "first migrate up")
	require.NoError(t, MigrateDown(ctx, db), "migrate down")
	require.NoError(t, MigrateUp(ctx, db), "second migrate up")
	require.NoError(t, MigrateUp(ctx, db), "migrate up is idempotent")

	kv, err := NewSQLiteKV(db)
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, "k", "v"))

	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", got)
}

package metadata

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/tarkovsync/internal/common"
	"github.com/dmitrijs2005/tarkovsync/internal/migrations"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Run(context.Background(), db))
	return db
}

func TestSetAndGet(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "last_full_sync", "2025-11-01T10:00:00Z"))

	got, err := r.Get(ctx, "last_full_sync")
	require.NoError(t, err)
	assert.Equal(t, "2025-11-01T10:00:00Z", got)
}

func TestSet_OverwritesSingleRow(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "total_markers", "10"))
	require.NoError(t, r.Set(ctx, "total_markers", "25"))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sync_metadata WHERE key='total_markers'`).Scan(&count))
	assert.Equal(t, 1, count)

	got, err := r.Get(ctx, "total_markers")
	require.NoError(t, err)
	assert.Equal(t, "25", got)
}

func TestGet_NotFound(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	_, err := r.Get(context.Background(), "never_set")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrorNotFound))
}

func TestList(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "a", "1"))
	require.NoError(t, r.Set(ctx, "b", "2"))

	got, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, got)
}

package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bookcatalog/internal/storage/storagetest"
)

func setupTestDB(t *testing.T) *SQLiteDB {
	t.Helper()

	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "catalog.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Initialize(context.Background()))
	return db
}

func TestSQLiteDB_RoundTrip(t *testing.T) {
	storagetest.AssertRoundTrip(t, setupTestDB(t))
}

func TestSQLiteDB_InitializeIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Save(ctx, storagetest.SampleSnapshot()))
	require.NoError(t, db.Initialize(ctx))

	got, err := db.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Books, 2)
}

func TestSQLiteDB_ReopenKeepsSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	ctx := context.Background()

	db, err := NewSQLiteDB(path, nil)
	require.NoError(t, err)
	require.NoError(t, db.Initialize(ctx))
	require.NoError(t, db.Save(ctx, storagetest.SampleSnapshot()))
	require.NoError(t, db.Close())

	reopened, err := NewSQLiteDB(path, nil)
	require.NoError(t, err)
	defer reopened.Close()
	require.NoError(t, reopened.Initialize(ctx))

	got, err := reopened.Load(ctx)
	require.NoError(t, err)
	storagetest.AssertSnapshotEqual(t, storagetest.SampleSnapshot(), got)
}

func TestSQLiteDB_EmptyCatalog(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	snap := storagetest.SampleSnapshot()
	snap.Books = nil
	require.NoError(t, db.Save(ctx, snap))

	got, err := db.Load(ctx)
	require.NoError(t, err)
	assert.NotNil(t, got.Books)
	assert.Empty(t, got.Books)
	assert.Equal(t, snap.NextID, got.NextID)
}

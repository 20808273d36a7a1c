package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bookcatalog/internal/storage/storagetest"
)

func newTestFileDB(t *testing.T) (*FileDB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "library.json")
	db := NewFileDB(path, zap.NewNop())
	require.NoError(t, db.Initialize(context.Background()))
	t.Cleanup(func() { db.Close() })
	return db, path
}

func TestFileDB_RoundTrip(t *testing.T) {
	db, _ := newTestFileDB(t)
	storagetest.AssertRoundTrip(t, db)
}

func TestFileDB_DocumentFormat(t *testing.T) {
	db, path := newTestFileDB(t)
	require.NoError(t, db.Save(context.Background(), storagetest.SampleSnapshot()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.EqualValues(t, 1, doc["format_version"])
	assert.Equal(t, "Sample Library", doc["name"])
	assert.EqualValues(t, 4, doc["next_id"])

	books, ok := doc["books"].([]any)
	require.True(t, ok)
	require.Len(t, books, 2)
	first := books[0].(map[string]any)
	for _, key := range []string{"id", "title", "author", "genre", "publication_year", "isbn",
		"date_added", "description", "is_borrowed", "borrowed_date", "return_date", "borrower"} {
		assert.Contains(t, first, key)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestFileDB_LoadErrors(t *testing.T) {
	db, path := newTestFileDB(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := db.Load(ctx)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"format_version": 9, "books": []}`), 0o644))
	_, err = db.Load(ctx)
	assert.ErrorContains(t, err, "unsupported format version")

	require.NoError(t, os.WriteFile(path, []byte(`{"format_version": 1, "name": "Empty", "next_id": 1}`), 0o644))
	snap, err := db.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Empty", snap.Name)
	assert.NotNil(t, snap.Books)
}

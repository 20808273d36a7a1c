package migrations

import (
	"context"
	"database/sql"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"
)

func TestFS(t *testing.T) {
	for _, dialect := range Dialects {
		t.Run(dialect, func(t *testing.T) {
			fsys, err := FS(dialect)
			require.NoError(t, err)

			files, err := fs.Glob(fsys, "*.sql")
			require.NoError(t, err)
			require.NotEmpty(t, files)

			for _, name := range files {
				data, err := fs.ReadFile(fsys, name)
				require.NoError(t, err)
				assert.True(t, strings.HasPrefix(string(data), "-- +goose Up"), "%s must start with an Up section", name)
				assert.Contains(t, string(data), "-- +goose Down")
			}
		})
	}

	_, err := FS("mysql")
	assert.Error(t, err)
}

func TestUp_SQLite(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()

	results, err := Up(ctx, db, "sqlite3")
	require.NoError(t, err)
	assert.NotEmpty(t, results)

	var n int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM books").Scan(&n))
	assert.Zero(t, n)

	results, err = Up(ctx, db, "sqlite3")
	require.NoError(t, err)
	assert.Empty(t, results, "second run has nothing pending")

	_, err = Up(ctx, db, "mysql")
	assert.Error(t, err)
}

package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookcatalog/internal/catalog"
)

func TestSample(t *testing.T) {
	data := Sample()

	require.Len(t, data.Books, 5)
	assert.Equal(t, "The Hobbit", data.Books[0].Title)
	require.NotNil(t, data.Books[0].PublicationYear)
	assert.Equal(t, 1937, *data.Books[0].PublicationYear)
	assert.Equal(t, "9780547928227", data.Books[0].ISBN)
	assert.Contains(t, data.Books[1].Description, `"spice" melange`)
	assert.Equal(t, "Alice", data.Books[1].Borrower)
	assert.Equal(t, "Bob", data.Books[4].Borrower)
}

func TestApply_Sample(t *testing.T) {
	ctx := context.Background()
	store := catalog.NewStore("")

	n, err := Apply(ctx, store, Sample())
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	borrowed, err := store.ListBorrowed(ctx)
	require.NoError(t, err)
	require.Len(t, borrowed, 2)
	assert.Equal(t, "2", borrowed[0].ID)
	assert.Equal(t, "Alice", borrowed[0].Borrower)
	assert.Equal(t, "5", borrowed[1].ID)
	assert.Equal(t, "Bob", borrowed[1].Borrower)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.AvailableBooks)
}

func TestApply_StopsAtInvalidEntry(t *testing.T) {
	ctx := context.Background()
	store := catalog.NewStore("")

	data, err := Parse([]byte(`
books:
  - {title: One, author: A, genre: G}
  - {title: Two, author: "", genre: G}
  - {title: Three, author: C, genre: G}
`))
	require.NoError(t, err)

	n, err := Apply(ctx, store, data)
	assert.ErrorIs(t, err, catalog.ErrValidation)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, store.Len())
}

func TestParse(t *testing.T) {
	_, err := Parse([]byte("books:\n  - title: X\n    auther: typo\n"))
	assert.Error(t, err, "unknown keys are rejected")

	data, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, data.Books)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.yaml")
	require.NoError(t, os.WriteFile(path, []byte("books:\n  - title: T\n    author: A\n    genre: G\n"), 0o644))

	data, err := Load(path)
	require.NoError(t, err)
	require.Len(t, data.Books, 1)
	assert.Nil(t, data.Books[0].PublicationYear)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

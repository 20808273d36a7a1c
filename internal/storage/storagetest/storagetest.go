// Package storagetest holds checks shared by the Storage implementations' tests.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookcatalog/internal/models"
	"bookcatalog/internal/storage"
)

// SampleSnapshot returns a snapshot that sets every book field at least once. Times carry
// nanoseconds so backends that round them fail the round trip.
func SampleSnapshot() models.Snapshot {
	year := 1965
	added := time.Date(2024, 1, 15, 10, 30, 0, 123456789, time.UTC)
	borrowed := time.Date(2024, 2, 1, 9, 0, 0, 987654321, time.UTC)
	returned := time.Date(2024, 2, 20, 18, 15, 0, 1, time.UTC)

	return models.Snapshot{
		Name:    "Sample Library",
		NextID:  4,
		SavedAt: time.Date(2024, 3, 1, 8, 0, 0, 555555555, time.UTC),
		Books: []models.Book{
			{
				ID:              "1",
				Title:           "Dune",
				Author:          "Frank Herbert",
				Genre:           "Science Fiction",
				PublicationYear: &year,
				ISBN:            "9780441172719",
				DateAdded:       added,
				Description:     "Set on the desert planet Arrakis.",
				IsBorrowed:      true,
				BorrowedDate:    &borrowed,
				Borrower:        "Alice",
			},
			{
				ID:           "3",
				Title:        "Die Straße",
				Author:       "Unbekannt",
				Genre:        "Roman",
				DateAdded:    added.Add(time.Hour),
				BorrowedDate: &borrowed,
				ReturnDate:   &returned,
				Borrower:     "Bob",
			},
		},
	}
}

// AssertRoundTrip saves two snapshots in turn and checks that Load returns the last one
// field for field.
func AssertRoundTrip(t *testing.T, s storage.Storage) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Load(ctx)
	require.ErrorIs(t, err, storage.ErrNoSnapshot)

	first := SampleSnapshot()
	require.NoError(t, s.Save(ctx, first))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	AssertSnapshotEqual(t, first, got)

	second := SampleSnapshot()
	second.NextID = 5
	second.SavedAt = second.SavedAt.Add(time.Hour)
	second.Books = second.Books[1:]
	second.Books = append(second.Books, models.Book{
		ID:        "4",
		Title:     "The Hobbit",
		Author:    "J.R.R. Tolkien",
		Genre:     "Fantasy",
		DateAdded: time.Date(2024, 3, 1, 7, 0, 0, 999, time.UTC),
	})
	require.NoError(t, s.Save(ctx, second))

	got, err = s.Load(ctx)
	require.NoError(t, err)
	AssertSnapshotEqual(t, second, got)
}

// AssertSnapshotEqual compares snapshots with time values compared by instant
func AssertSnapshotEqual(t *testing.T, want, got models.Snapshot) {
	t.Helper()

	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.NextID, got.NextID)
	assert.True(t, want.SavedAt.Equal(got.SavedAt), "saved_at: want %v, got %v", want.SavedAt, got.SavedAt)
	require.Len(t, got.Books, len(want.Books))

	for i := range want.Books {
		w, g := want.Books[i], got.Books[i]
		assert.Equal(t, w.ID, g.ID)
		assert.Equal(t, w.Title, g.Title)
		assert.Equal(t, w.Author, g.Author)
		assert.Equal(t, w.Genre, g.Genre)
		assert.Equal(t, w.PublicationYear, g.PublicationYear)
		assert.Equal(t, w.ISBN, g.ISBN)
		assert.True(t, w.DateAdded.Equal(g.DateAdded), "book %s date_added: want %v, got %v", w.ID, w.DateAdded, g.DateAdded)
		assert.Equal(t, w.Description, g.Description)
		assert.Equal(t, w.IsBorrowed, g.IsBorrowed)
		assertTimePtr(t, "borrowed_date", w.BorrowedDate, g.BorrowedDate)
		assertTimePtr(t, "return_date", w.ReturnDate, g.ReturnDate)
		assert.Equal(t, w.Borrower, g.Borrower)
	}
}

func assertTimePtr(t *testing.T, field string, want, got *time.Time) {
	t.Helper()
	if want == nil {
		assert.Nil(t, got, field)
		return
	}
	if assert.NotNil(t, got, field) {
		assert.True(t, want.Equal(*got), "%s: want %v, got %v", field, *want, *got)
	}
}

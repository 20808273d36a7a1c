package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookcatalog/internal/models"
)

func TestStore_RecentlyAdded(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, title := range []string{"A", "B", "C", "D", "E"} {
		addBook(t, s, title, "Author", "Genre")
	}

	recent, err := s.RecentlyAdded(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "E", recent[0].Title)
	assert.Equal(t, "D", recent[1].Title)

	recent, err = s.RecentlyAdded(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, recent, DefaultRecentLimit)
	assert.Equal(t, "E", recent[0].Title)
	assert.Equal(t, "A", recent[4].Title)

	recent, err = s.RecentlyAdded(ctx, 50)
	require.NoError(t, err)
	assert.Len(t, recent, 5)
}

func TestStore_RecentlyAdded_TiesKeepInsertionOrder(t *testing.T) {
	s := NewStore("", WithClock(fixedClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}))
	ctx := context.Background()
	for _, title := range []string{"A", "B", "C"} {
		addBook(t, s, title, "Author", "Genre")
	}

	recent, err := s.RecentlyAdded(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, ids(recent))
}

func TestStore_Stats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedFive(t, s)

	_, err := s.Borrow(ctx, "2", "Alice")
	require.NoError(t, err)
	_, err = s.Borrow(ctx, "5", "Bob")
	require.NoError(t, err)

	st, err := s.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 5, st.TotalBooks)
	assert.Equal(t, 2, st.BorrowedBooks)
	assert.Equal(t, 3, st.AvailableBooks)
	assert.Equal(t, 5, st.UniqueGenres)
	assert.Equal(t, 5, st.UniqueAuthors)
	assert.Len(t, st.TopGenres, 3)
	assert.Equal(t, models.CountEntry{Name: "Fantasy", Count: 1}, st.TopGenres[0])
	assert.Equal(t, models.CountEntry{Name: "J.R.R. Tolkien", Count: 1}, st.TopAuthors[0])
}

func TestStore_Stats_TopRanking(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	addBook(t, s, "1", "Ann", "Poetry")
	addBook(t, s, "2", "Ben", "Drama")
	addBook(t, s, "3", "ben", "drama")
	addBook(t, s, "4", "Cy", "Essay")
	addBook(t, s, "5", "Dee", "Poetry")
	addBook(t, s, "6", "Eve", "Satire")
	addBook(t, s, "7", "Ann", "DRAMA")

	st, err := s.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, st.UniqueGenres)
	assert.Equal(t, 5, st.UniqueAuthors)
	assert.Equal(t, []models.CountEntry{
		{Name: "Drama", Count: 3},
		{Name: "Poetry", Count: 2},
		{Name: "Essay", Count: 1},
	}, st.TopGenres)
	assert.Equal(t, []models.CountEntry{
		{Name: "Ann", Count: 2},
		{Name: "Ben", Count: 2},
		{Name: "Cy", Count: 1},
	}, st.TopAuthors)
}

func TestStore_Stats_Empty(t *testing.T) {
	s := NewStore("")

	st, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, st.TotalBooks)
	assert.Zero(t, st.UniqueGenres)
	assert.Empty(t, st.TopGenres)
	assert.Empty(t, st.TopAuthors)
}

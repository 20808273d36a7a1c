package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookcatalog/internal/models"
)

func TestStore_Search(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedFive(t, s)

	testCases := []struct {
		name     string
		query    string
		field    models.SearchField
		expected []string
	}{
		{"all ignores case", "dune", models.SearchAll, []string{"2"}},
		{"all upper case", "DUNE", models.SearchAll, []string{"2"}},
		{"title substring", "the", models.SearchTitle, []string{"1", "4", "5"}},
		{"author", "king", models.SearchAuthor, []string{"4"}},
		{"genre", "fiction", models.SearchGenre, []string{"2", "5"}},
		{"all matches isbn", "9780141", models.SearchAll, []string{"3"}},
		{"title does not match isbn", "9780141", models.SearchTitle, nil},
		{"all matches author", "herbert", models.SearchAll, []string{"2"}},
		{"empty query matches everything", "", models.SearchAll, []string{"1", "2", "3", "4", "5"}},
		{"empty field defaults to all", "tolkien", "", []string{"1"}},
		{"no match", "zzz", models.SearchAll, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.Search(ctx, tc.query, tc.field)
			require.NoError(t, err)
			if tc.expected == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tc.expected, ids(got))
		})
	}
}

func TestStore_Search_UnicodeFolding(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	addBook(t, s, "Die Straße", "Unbekannt", "Roman")
	addBook(t, s, "ΟΔΥΣΣΕΙΑ", "Όμηρος", "Epic")

	got, err := s.Search(ctx, "STRASSE", models.SearchTitle)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids(got))

	got, err = s.Search(ctx, "οδυσσεια", models.SearchAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, ids(got))
}

func TestStore_Search_UnknownField(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Search(context.Background(), "x", models.SearchField("publisher"))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParseSearchField(t *testing.T) {
	f, err := ParseSearchField("")
	require.NoError(t, err)
	assert.Equal(t, models.SearchAll, f)

	f, err = ParseSearchField(" Author ")
	require.NoError(t, err)
	assert.Equal(t, models.SearchAuthor, f)

	_, err = ParseSearchField("isbn")
	assert.ErrorIs(t, err, ErrValidation)
}

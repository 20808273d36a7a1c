package catalog

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"bookcatalog/internal/models"
)

// ParseSearchField converts user input into a SearchField. An empty string means all fields.
func ParseSearchField(s string) (models.SearchField, error) {
	switch f := models.SearchField(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return models.SearchAll, nil
	case models.SearchTitle, models.SearchAuthor, models.SearchGenre, models.SearchAll:
		return f, nil
	default:
		return "", fmt.Errorf("unknown search field %q: %w", s, ErrValidation)
	}
}

// Search returns the books where query is a case-insensitive substring of the chosen
// field. SearchAll matches title, author, genre or ISBN. An empty query matches every book.
func (s *Store) Search(ctx context.Context, query string, field models.SearchField) ([]models.Book, error) {
	if field == "" {
		field = models.SearchAll
	}

	var fields func(models.Book) []string
	switch field {
	case models.SearchTitle:
		fields = func(b models.Book) []string { return []string{b.Title} }
	case models.SearchAuthor:
		fields = func(b models.Book) []string { return []string{b.Author} }
	case models.SearchGenre:
		fields = func(b models.Book) []string { return []string{b.Genre} }
	case models.SearchAll:
		fields = func(b models.Book) []string { return []string{b.Title, b.Author, b.Genre, b.ISBN} }
	default:
		return nil, fmt.Errorf("search: unknown field %q: %w", field, ErrValidation)
	}

	caser := cases.Fold()
	needle := caser.String(norm.NFKC.String(query))

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filter(func(b models.Book) bool {
		for _, v := range fields(b) {
			if strings.Contains(caser.String(norm.NFKC.String(v)), needle) {
				return true
			}
		}
		return false
	}), nil
}

// foldKey normalizes s for case-insensitive comparison and grouping
func foldKey(s string) string {
	return cases.Fold().String(norm.NFKC.String(strings.TrimSpace(s)))
}

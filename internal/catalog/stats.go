package catalog

import (
	"context"
	"sort"

	"bookcatalog/internal/models"
)

const (
	// DefaultRecentLimit is used when RecentlyAdded gets a non-positive limit
	DefaultRecentLimit = 5

	topN = 3
)

// RecentlyAdded returns up to limit books, newest first. Books added at the same
// instant keep their insertion order.
func (s *Store) RecentlyAdded(ctx context.Context, limit int) ([]models.Book, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	s.mu.RLock()
	sorted := s.filter(func(models.Book) bool { return true })
	s.mu.RUnlock()

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DateAdded.After(sorted[j].DateAdded)
	})

	if limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

// Stats computes counts over the whole catalog
func (s *Store) Stats(ctx context.Context) (models.Stats, error) {
	genres := newTally()
	authors := newTally()

	s.mu.RLock()
	var st models.Stats
	st.TotalBooks = len(s.books)
	for _, b := range s.books {
		if b.IsBorrowed {
			st.BorrowedBooks++
		}
		genres.add(b.Genre)
		authors.add(b.Author)
	}
	s.mu.RUnlock()

	st.AvailableBooks = st.TotalBooks - st.BorrowedBooks
	st.UniqueGenres = len(genres.entries)
	st.UniqueAuthors = len(authors.entries)
	st.TopGenres = genres.top(topN)
	st.TopAuthors = authors.top(topN)
	return st, nil
}

// tally counts occurrences per case-folded key, remembering the first spelling seen
type tally struct {
	index   map[string]int
	entries []models.CountEntry
}

func newTally() *tally {
	return &tally{index: make(map[string]int)}
}

func (t *tally) add(name string) {
	key := foldKey(name)
	if key == "" {
		return
	}
	if i, ok := t.index[key]; ok {
		t.entries[i].Count++
		return
	}
	t.index[key] = len(t.entries)
	t.entries = append(t.entries, models.CountEntry{Name: name, Count: 1})
}

// top returns the n largest counts; equal counts keep first-encountered order
func (t *tally) top(n int) []models.CountEntry {
	out := make([]models.CountEntry, len(t.entries))
	copy(out, t.entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if n < len(out) {
		out = out[:n]
	}
	return out
}

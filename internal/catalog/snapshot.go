package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"bookcatalog/internal/models"
)

// Snapshot captures every record and the identifier counter
func (s *Store) Snapshot(ctx context.Context) models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return models.Snapshot{
		Name:    s.name,
		NextID:  s.nextID,
		SavedAt: s.clock.Now(),
		Books:   s.filter(func(models.Book) bool { return true }),
	}
}

// Restore replaces the store contents with snap. The counter resumes after the highest
// restored identifier even when snap.NextID is lower, so identifiers are never reused.
func (s *Store) Restore(ctx context.Context, snap models.Snapshot) error {
	next := snap.NextID
	if next < 1 {
		next = 1
	}
	seen := make(map[string]struct{}, len(snap.Books))
	books := make([]models.Book, 0, len(snap.Books))
	for _, b := range snap.Books {
		n, err := strconv.ParseInt(b.ID, 10, 64)
		if err != nil || n < 1 {
			return fmt.Errorf("restore: invalid book id %q: %w", b.ID, ErrValidation)
		}
		if _, dup := seen[b.ID]; dup {
			return fmt.Errorf("restore: duplicate book id %q: %w", b.ID, ErrValidation)
		}
		if err := requireFields(b.Title, b.Author, b.Genre); err != nil {
			return fmt.Errorf("restore book %q: %w", b.ID, err)
		}
		if err := checkLoan(b); err != nil {
			return fmt.Errorf("restore book %q: %w", b.ID, err)
		}
		seen[b.ID] = struct{}{}
		if n >= next {
			next = n + 1
		}
		books = append(books, b.Clone())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.Name != "" {
		s.name = snap.Name
	}
	s.books = books
	s.nextID = next
	s.version++

	s.logger.Info("Catalog restored",
		zap.Int("books", len(books)),
		zap.Int64("next_id", next),
	)
	return nil
}

// checkLoan rejects lending fields that Borrow and Return could never have produced
func checkLoan(b models.Book) error {
	switch {
	case b.IsBorrowed && strings.TrimSpace(b.Borrower) == "":
		return fmt.Errorf("borrowed book has no borrower: %w", ErrValidation)
	case b.IsBorrowed && b.BorrowedDate == nil:
		return fmt.Errorf("borrowed book has no borrowed_date: %w", ErrValidation)
	case b.IsBorrowed && b.ReturnDate != nil:
		return fmt.Errorf("borrowed book has a return_date: %w", ErrValidation)
	case b.ReturnDate != nil && b.BorrowedDate == nil:
		return fmt.Errorf("returned book has no borrowed_date: %w", ErrValidation)
	}
	return nil
}

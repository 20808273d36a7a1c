package catalog

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"bookcatalog/internal/models"
)

// Borrow moves an available book to the borrowed state.
//
// A blank borrower is an ErrValidation. A missing book and a book that is already on
// loan both yield ErrInvalidStateOrNotFound.
func (s *Store) Borrow(ctx context.Context, id, borrower string) (models.Book, error) {
	borrower = strings.TrimSpace(borrower)
	if borrower == "" {
		return models.Book{}, fmt.Errorf("borrow book %q: borrower name is required: %w", id, ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 || s.books[i].IsBorrowed {
		return models.Book{}, fmt.Errorf("borrow book %q: %w", id, ErrInvalidStateOrNotFound)
	}

	now := s.clock.Now()
	book := &s.books[i]
	book.IsBorrowed = true
	book.BorrowedDate = &now
	book.Borrower = borrower
	book.ReturnDate = nil
	s.version++

	s.logger.Info("Book borrowed",
		zap.String("id", id),
		zap.String("title", book.Title),
		zap.String("borrower", borrower),
	)
	return book.Clone(), nil
}

// Return moves a borrowed book back to the available state. The borrower field is
// kept as the last borrower.
func (s *Store) Return(ctx context.Context, id string) (models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 || !s.books[i].IsBorrowed {
		return models.Book{}, fmt.Errorf("return book %q: %w", id, ErrInvalidStateOrNotFound)
	}

	now := s.clock.Now()
	book := &s.books[i]
	book.IsBorrowed = false
	book.ReturnDate = &now
	s.version++

	s.logger.Info("Book returned",
		zap.String("id", id),
		zap.String("title", book.Title),
		zap.String("borrower", book.Borrower),
	)
	return book.Clone(), nil
}

// ListBorrowed returns the books currently on loan in collection order
func (s *Store) ListBorrowed(ctx context.Context) ([]models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filter(func(b models.Book) bool { return b.IsBorrowed }), nil
}

// Package catalog implements the in-memory book catalog: record ownership, identifier
// assignment, lending transitions, search, recency ordering and statistics.
//
// All methods are safe for concurrent use. Records handed to callers are copies.
package catalog

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"bookcatalog/internal/models"
)

// DefaultName is used when a store is created without a name
const DefaultName = "My Personal Library"

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// Option configures a Store
type Option func(*Store)

// WithClock replaces the wall clock, mainly for tests
func WithClock(c Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

// WithLogger sets the logger used for mutation logs
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// Store owns all book records and the identifier counter
type Store struct {
	mu     sync.RWMutex
	name   string
	books  []models.Book
	nextID int64

	// version counts mutations so callers can tell whether anything changed
	version uint64

	clock  Clock
	logger *zap.Logger
}

// NewStore creates an empty catalog
func NewStore(name string, opts ...Option) *Store {
	if strings.TrimSpace(name) == "" {
		name = DefaultName
	}
	s := &Store{
		name:   name,
		books:  make([]models.Book, 0),
		nextID: 1,
		clock:  realClock{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the catalog display name
func (s *Store) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

// Add validates the fields, assigns the next identifier and appends the new record
func (s *Store) Add(ctx context.Context, nb models.NewBook) (models.Book, error) {
	title := strings.TrimSpace(nb.Title)
	author := strings.TrimSpace(nb.Author)
	genre := strings.TrimSpace(nb.Genre)
	if err := requireFields(title, author, genre); err != nil {
		return models.Book{}, err
	}

	book := models.Book{
		Title:           title,
		Author:          author,
		Genre:           genre,
		PublicationYear: nb.PublicationYear,
		ISBN:            strings.TrimSpace(nb.ISBN),
		Description:     nb.Description,
	}.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	book.ID = strconv.FormatInt(s.nextID, 10)
	s.nextID++
	book.DateAdded = s.clock.Now()
	s.books = append(s.books, book)
	s.version++

	s.logger.Debug("Book added",
		zap.String("id", book.ID),
		zap.String("title", book.Title),
		zap.String("author", book.Author),
	)
	return book.Clone(), nil
}

// Get returns the record with the given identifier
func (s *Store) Get(ctx context.Context, id string) (models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Book{}, fmt.Errorf("get book %q: %w", id, ErrNotFound)
	}
	return s.books[i].Clone(), nil
}

// Update applies the non-nil patch fields to an existing record
func (s *Store) Update(ctx context.Context, id string, patch models.BookPatch) (models.Book, error) {
	required := []struct {
		field string
		value *string
	}{
		{"title", patch.Title},
		{"author", patch.Author},
		{"genre", patch.Genre},
	}
	for _, r := range required {
		if r.value != nil && strings.TrimSpace(*r.value) == "" {
			return models.Book{}, fmt.Errorf("update book %q: %s must not be empty: %w", id, r.field, ErrValidation)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Book{}, fmt.Errorf("update book %q: %w", id, ErrNotFound)
	}

	book := &s.books[i]
	if patch.Title != nil {
		book.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Author != nil {
		book.Author = strings.TrimSpace(*patch.Author)
	}
	if patch.Genre != nil {
		book.Genre = strings.TrimSpace(*patch.Genre)
	}
	if patch.PublicationYear != nil {
		y := *patch.PublicationYear
		book.PublicationYear = &y
	}
	if patch.ISBN != nil {
		book.ISBN = strings.TrimSpace(*patch.ISBN)
	}
	if patch.Description != nil {
		book.Description = *patch.Description
	}

	s.version++

	s.logger.Debug("Book updated", zap.String("id", id))
	return book.Clone(), nil
}

// Delete removes the record entirely. The identifier is never handed out again.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("delete book %q: %w", id, ErrNotFound)
	}
	s.books = slices.Delete(s.books, i, i+1)
	s.version++

	s.logger.Debug("Book deleted", zap.String("id", id))
	return nil
}

// ListAll returns every record in insertion order
func (s *Store) ListAll(ctx context.Context) ([]models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filter(func(models.Book) bool { return true }), nil
}

// ListByGenre returns the records whose genre equals genre, ignoring case
func (s *Store) ListByGenre(ctx context.Context, genre string) ([]models.Book, error) {
	key := foldKey(genre)

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filter(func(b models.Book) bool { return foldKey(b.Genre) == key }), nil
}

// FindByISBN returns the first record carrying the given ISBN
func (s *Store) FindByISBN(ctx context.Context, isbn string) (models.Book, error) {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return models.Book{}, fmt.Errorf("find by isbn: isbn is required: %w", ErrValidation)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.books {
		if b.ISBN == isbn {
			return b.Clone(), nil
		}
	}
	return models.Book{}, fmt.Errorf("find by isbn %q: %w", isbn, ErrNotFound)
}

// RemoveByTitleOrISBN deletes every record matching the ISBN, or when no ISBN is given,
// every record whose title equals title ignoring case. It returns the number removed.
func (s *Store) RemoveByTitleOrISBN(ctx context.Context, title, isbn string) (int, error) {
	title = strings.TrimSpace(title)
	isbn = strings.TrimSpace(isbn)
	if title == "" && isbn == "" {
		return 0, fmt.Errorf("remove book: title or isbn is required: %w", ErrValidation)
	}

	match := func(b models.Book) bool { return b.ISBN == isbn }
	if isbn == "" {
		key := foldKey(title)
		match = func(b models.Book) bool { return foldKey(b.Title) == key }
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.books[:0]
	removed := 0
	for _, b := range s.books {
		if match(b) {
			removed++
			continue
		}
		kept = append(kept, b)
	}
	// clear the tail so dropped records are not retained by the backing array
	for i := len(kept); i < len(s.books); i++ {
		s.books[i] = models.Book{}
	}
	s.books = kept

	if removed == 0 {
		return 0, fmt.Errorf("remove book (title %q, isbn %q): %w", title, isbn, ErrNotFound)
	}
	s.version++
	s.logger.Debug("Books removed",
		zap.String("title", title),
		zap.String("isbn", isbn),
		zap.Int("count", removed),
	)
	return removed, nil
}

// Version returns a counter that grows with every successful mutation
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Len returns the number of records
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books)
}

// indexOf must be called with s.mu held
func (s *Store) indexOf(id string) int {
	for i := range s.books {
		if s.books[i].ID == id {
			return i
		}
	}
	return -1
}

// filter must be called with s.mu held
func (s *Store) filter(keep func(models.Book) bool) []models.Book {
	out := make([]models.Book, 0, len(s.books))
	for _, b := range s.books {
		if keep(b) {
			out = append(out, b.Clone())
		}
	}
	return out
}

func requireFields(title, author, genre string) error {
	var missing []string
	if title == "" {
		missing = append(missing, "title")
	}
	if author == "" {
		missing = append(missing, "author")
	}
	if genre == "" {
		missing = append(missing, "genre")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s: %w", strings.Join(missing, ", "), ErrValidation)
	}
	return nil
}

// Package sqlite stores the latest catalog snapshot in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"bookcatalog/internal/models"
	"bookcatalog/internal/storage"
	"bookcatalog/internal/storage/migrations"
)

// SQLiteDB keeps one snapshot: the meta row plus one row per book
type SQLiteDB struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteDB opens (or creates) the database file at path
func NewSQLiteDB(path string, logger *zap.Logger) (*SQLiteDB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &SQLiteDB{db: db, logger: logger}, nil
}

// Initialize applies the embedded migrations
func (s *SQLiteDB) Initialize(ctx context.Context) error {
	results, err := migrations.Up(ctx, s.db, "sqlite3")
	if err != nil {
		return err
	}
	for _, r := range results {
		s.logger.Info("Applied migration",
			zap.String("source", r.Source.Path),
			zap.Duration("duration", r.Duration),
		)
	}
	return nil
}

// Save replaces the stored snapshot in a single transaction
func (s *SQLiteDB) Save(ctx context.Context, snap models.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM books`); err != nil {
		return fmt.Errorf("failed to clear books: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO catalog_meta (id, name, next_id, saved_at) VALUES (1, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET name = excluded.name, next_id = excluded.next_id, saved_at = excluded.saved_at`,
		snap.Name, snap.NextID, formatTime(snap.SavedAt))
	if err != nil {
		return fmt.Errorf("failed to save catalog meta: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO books (position, id, title, author, genre, publication_year, isbn, date_added,
		 description, is_borrowed, borrowed_date, return_date, borrower)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare book insert: %w", err)
	}
	defer stmt.Close()

	for i, b := range snap.Books {
		var year sql.NullInt64
		if b.PublicationYear != nil {
			year = sql.NullInt64{Int64: int64(*b.PublicationYear), Valid: true}
		}
		_, err := stmt.ExecContext(ctx,
			i, b.ID, b.Title, b.Author, b.Genre, year, b.ISBN, formatTime(b.DateAdded),
			b.Description, b.IsBorrowed, formatTimePtr(b.BorrowedDate), formatTimePtr(b.ReturnDate), b.Borrower)
		if err != nil {
			return fmt.Errorf("failed to save book %s: %w", b.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	s.logger.Debug("Snapshot saved to SQLite", zap.Int("books", len(snap.Books)))
	return nil
}

// Load returns the stored snapshot or storage.ErrNoSnapshot
func (s *SQLiteDB) Load(ctx context.Context) (models.Snapshot, error) {
	var (
		snap    models.Snapshot
		savedAt string
	)
	err := s.db.QueryRowContext(ctx, `SELECT name, next_id, saved_at FROM catalog_meta WHERE id = 1`).
		Scan(&snap.Name, &snap.NextID, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Snapshot{}, storage.ErrNoSnapshot
	}
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to load catalog meta: %w", err)
	}
	if snap.SavedAt, err = parseTime(savedAt); err != nil {
		return models.Snapshot{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, author, genre, publication_year, isbn, date_added,
		 description, is_borrowed, borrowed_date, return_date, borrower
		 FROM books ORDER BY position`)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to load books: %w", err)
	}
	defer rows.Close()

	snap.Books = []models.Book{}
	for rows.Next() {
		var (
			b                  models.Book
			year               sql.NullInt64
			added              string
			borrowed, returned sql.NullString
		)
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Genre, &year, &b.ISBN, &added,
			&b.Description, &b.IsBorrowed, &borrowed, &returned, &b.Borrower); err != nil {
			return models.Snapshot{}, fmt.Errorf("failed to scan book: %w", err)
		}
		if year.Valid {
			y := int(year.Int64)
			b.PublicationYear = &y
		}
		if b.DateAdded, err = parseTime(added); err != nil {
			return models.Snapshot{}, err
		}
		if b.BorrowedDate, err = parseTimePtr(borrowed); err != nil {
			return models.Snapshot{}, err
		}
		if b.ReturnDate, err = parseTimePtr(returned); err != nil {
			return models.Snapshot{}, err
		}
		snap.Books = append(snap.Books, b)
	}
	if err := rows.Err(); err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to read books: %w", err)
	}
	return snap, nil
}

// Close closes the database
func (s *SQLiteDB) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Timestamps are stored as RFC 3339 text in UTC so they sort and survive driver changes.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored timestamp %q: %w", s, err)
	}
	return t, nil
}

func parseTimePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

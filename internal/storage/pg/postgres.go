// Package pg stores the latest catalog snapshot in PostgreSQL.
//
// Timestamps are kept as Unix nanoseconds in BIGINT columns so they round-trip exactly.
package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"bookcatalog/internal/models"
	"bookcatalog/internal/storage"
	"bookcatalog/internal/storage/migrations"
)

// PostgresDB keeps one snapshot: the meta row plus one row per book
type PostgresDB struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresDB connects to the database at dsn
func NewPostgresDB(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresDB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	return &PostgresDB{pool: pool, logger: logger}, nil
}

// Initialize applies the embedded migrations through a database/sql handle on the same pool
func (db *PostgresDB) Initialize(ctx context.Context) error {
	sqlDB := stdlib.OpenDBFromPool(db.pool)
	defer sqlDB.Close()

	results, err := migrations.Up(ctx, sqlDB, "postgres")
	if err != nil {
		return err
	}
	for _, r := range results {
		db.logger.Info("Applied migration",
			zap.String("source", r.Source.Path),
			zap.Duration("duration", r.Duration),
		)
	}
	return nil
}

// Save replaces the stored snapshot in a single transaction
func (db *PostgresDB) Save(ctx context.Context, snap models.Snapshot) error {
	return pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM books`); err != nil {
			return fmt.Errorf("failed to clear books: %w", err)
		}

		_, err := tx.Exec(ctx,
			`INSERT INTO catalog_meta (id, name, next_id, saved_at) VALUES (1, $1, $2, $3)
			 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, next_id = EXCLUDED.next_id, saved_at = EXCLUDED.saved_at`,
			snap.Name, snap.NextID, snap.SavedAt.UnixNano())
		if err != nil {
			return fmt.Errorf("failed to save catalog meta: %w", err)
		}

		rows := make([][]any, len(snap.Books))
		for i, b := range snap.Books {
			rows[i] = []any{int32(i), b.ID, b.Title, b.Author, b.Genre, yearValue(b.PublicationYear), b.ISBN,
				b.DateAdded.UnixNano(), b.Description, b.IsBorrowed, nanosPtr(b.BorrowedDate), nanosPtr(b.ReturnDate), b.Borrower}
		}
		_, err = tx.CopyFrom(ctx, pgx.Identifier{"books"},
			[]string{"position", "id", "title", "author", "genre", "publication_year", "isbn", "date_added",
				"description", "is_borrowed", "borrowed_date", "return_date", "borrower"},
			pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("failed to save books: %w", err)
		}

		db.logger.Debug("Snapshot saved to PostgreSQL", zap.Int("books", len(snap.Books)))
		return nil
	})
}

// Load returns the stored snapshot or storage.ErrNoSnapshot
func (db *PostgresDB) Load(ctx context.Context) (models.Snapshot, error) {
	var snap models.Snapshot
	var savedAt int64
	err := db.pool.QueryRow(ctx, `SELECT name, next_id, saved_at FROM catalog_meta WHERE id = 1`).
		Scan(&snap.Name, &snap.NextID, &savedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Snapshot{}, storage.ErrNoSnapshot
	}
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to load catalog meta: %w", err)
	}
	snap.SavedAt = fromNanos(savedAt)

	rows, err := db.pool.Query(ctx,
		`SELECT id, title, author, genre, publication_year, isbn, date_added,
		 description, is_borrowed, borrowed_date, return_date, borrower
		 FROM books ORDER BY position`)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to load books: %w", err)
	}

	books, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Book, error) {
		var (
			b                  models.Book
			year               *int32
			added              int64
			borrowed, returned *int64
		)
		err := row.Scan(&b.ID, &b.Title, &b.Author, &b.Genre, &year, &b.ISBN, &added,
			&b.Description, &b.IsBorrowed, &borrowed, &returned, &b.Borrower)
		if err != nil {
			return b, err
		}
		if year != nil {
			y := int(*year)
			b.PublicationYear = &y
		}
		b.DateAdded = fromNanos(added)
		b.BorrowedDate = fromNanosPtr(borrowed)
		b.ReturnDate = fromNanosPtr(returned)
		return b, nil
	})
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to scan books: %w", err)
	}

	snap.Books = books
	if snap.Books == nil {
		snap.Books = []models.Book{}
	}
	return snap, nil
}

func yearValue(y *int) *int32 {
	if y == nil {
		return nil
	}
	v := int32(*y)
	return &v
}

func nanosPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	n := t.UnixNano()
	return &n
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func fromNanosPtr(n *int64) *time.Time {
	if n == nil {
		return nil
	}
	t := fromNanos(*n)
	return &t
}

// Close closes the pool
func (db *PostgresDB) Close() error {
	if db.pool != nil {
		db.pool.Close()
	}
	return nil
}

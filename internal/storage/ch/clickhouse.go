package ch

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/oklog/ulid/v2"

	"bookcatalog/internal/models"
	"bookcatalog/internal/storage"
)

// ClickHouseDB appends every saved snapshot under a new ULID and loads the newest one.
// Older snapshots are kept as history.
type ClickHouseDB struct {
	conn clickhouse.Conn

	mu      sync.Mutex
	entropy io.Reader
}

// NewClickHouseDB creates a new ClickHouse database connection
func NewClickHouseDB(host string, port int, database, user, password string, useTLS bool) (*ClickHouseDB, error) {
	addr := fmt.Sprintf("%s:%d", host, port)

	options := &clickhouse.Options{
		Addr:     []string{addr},
		Protocol: clickhouse.Native,
		Auth: clickhouse.Auth{
			Database: database,
			Username: user,
			Password: password,
		},
	}

	// Configure TLS if enabled
	if useTLS {
		options.TLS = &tls.Config{
			InsecureSkipVerify: false,
		}
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	// Test the connection
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &ClickHouseDB{
		conn:    conn,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}, nil
}

// Initialize is a no-op - tables are managed via migrations
func (db *ClickHouseDB) Initialize(ctx context.Context) error {
	// See cmd/migrate and internal/storage/migrations/clickhouse
	return nil
}

// newSnapshotID returns ids that sort in creation order, even within one millisecond
func (db *ClickHouseDB) newSnapshotID() (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(time.Now()), db.entropy)
	if err != nil {
		return "", fmt.Errorf("failed to generate snapshot id: %w", err)
	}
	return id.String(), nil
}

// Save appends the snapshot. Book rows are written before the header row,
// so Load never sees a header without its books.
func (db *ClickHouseDB) Save(ctx context.Context, snap models.Snapshot) error {
	snapshotID, err := db.newSnapshotID()
	if err != nil {
		return err
	}

	if len(snap.Books) > 0 {
		batch, err := db.conn.PrepareBatch(ctx, `INSERT INTO catalog_books (snapshot_id, position, id, title, author, genre,
			publication_year, isbn, date_added, description, is_borrowed, borrowed_date, return_date, borrower)`)
		if err != nil {
			return fmt.Errorf("failed to prepare book batch: %w", err)
		}

		for i, b := range snap.Books {
			var year *int32
			if b.PublicationYear != nil {
				y := int32(*b.PublicationYear)
				year = &y
			}
			if err := batch.Append(snapshotID, uint32(i), b.ID, b.Title, b.Author, b.Genre,
				year, b.ISBN, b.DateAdded.UTC(), b.Description, b.IsBorrowed,
				utcPtr(b.BorrowedDate), utcPtr(b.ReturnDate), b.Borrower); err != nil {
				batch.Abort()
				return fmt.Errorf("failed to append book %s: %w", b.ID, err)
			}
		}

		if err := batch.Send(); err != nil {
			return fmt.Errorf("failed to save books: %w", err)
		}
	}

	err = db.conn.Exec(ctx, `INSERT INTO catalog_snapshots (snapshot_id, name, next_id, saved_at) VALUES (?, ?, ?, ?)`,
		snapshotID, snap.Name, snap.NextID, snap.SavedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Load returns the most recently saved snapshot
func (db *ClickHouseDB) Load(ctx context.Context) (models.Snapshot, error) {
	var (
		snap       models.Snapshot
		snapshotID string
	)
	err := db.conn.QueryRow(ctx, `SELECT snapshot_id, name, next_id, saved_at
		FROM catalog_snapshots ORDER BY snapshot_id DESC LIMIT 1`).
		Scan(&snapshotID, &snap.Name, &snap.NextID, &snap.SavedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Snapshot{}, storage.ErrNoSnapshot
	}
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to load snapshot: %w", err)
	}

	books, err := db.loadBooks(ctx, snapshotID)
	if err != nil {
		return models.Snapshot{}, err
	}
	snap.Books = books
	return snap, nil
}

func (db *ClickHouseDB) loadBooks(ctx context.Context, snapshotID string) ([]models.Book, error) {
	rows, err := db.conn.Query(ctx, `SELECT id, title, author, genre, publication_year, isbn, date_added,
		description, is_borrowed, borrowed_date, return_date, borrower
		FROM catalog_books WHERE snapshot_id = ? ORDER BY position`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to load books: %w", err)
	}
	defer rows.Close()

	books := []models.Book{}
	for rows.Next() {
		var (
			book models.Book
			year *int32
		)
		if err := rows.Scan(&book.ID, &book.Title, &book.Author, &book.Genre, &year, &book.ISBN,
			&book.DateAdded, &book.Description, &book.IsBorrowed, &book.BorrowedDate,
			&book.ReturnDate, &book.Borrower); err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		if year != nil {
			y := int(*year)
			book.PublicationYear = &y
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read books: %w", err)
	}
	return books, nil
}

// SnapshotCount returns how many snapshots have been saved
func (db *ClickHouseDB) SnapshotCount(ctx context.Context) (uint64, error) {
	var n uint64
	if err := db.conn.QueryRow(ctx, `SELECT count() FROM catalog_snapshots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return n, nil
}

// Close closes the database connection
func (db *ClickHouseDB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

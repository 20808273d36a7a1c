// Package migrations embeds the goose SQL migrations for every SQL snapshot backend.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed sqlite3/*.sql postgres/*.sql clickhouse/*.sql
var embedded embed.FS

// Dialects lists the directories available in FS. Names match goose dialects.
var Dialects = []string{"sqlite3", "postgres", "clickhouse"}

// FS returns the migrations for dialect, rooted so goose sees the .sql files directly
func FS(dialect string) (fs.FS, error) {
	for _, d := range Dialects {
		if d == dialect {
			return fs.Sub(embedded, d)
		}
	}
	return nil, fmt.Errorf("no migrations for dialect %q", dialect)
}

// Up applies every pending migration for dialect and returns what ran
func Up(ctx context.Context, db *sql.DB, dialect string) ([]*goose.MigrationResult, error) {
	fsys, err := FS(dialect)
	if err != nil {
		return nil, err
	}

	provider, err := goose.NewProvider(goose.Dialect(dialect), db, fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return results, nil
}

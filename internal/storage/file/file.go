// Package file stores catalog snapshots as a single JSON document on disk.
//
// The document is an object with "format_version" (currently 1) and the snapshot fields
// "name", "next_id", "saved_at" and "books". Each book uses the same field names as the
// HTTP API. Writes go to a temporary file in the same directory which is then renamed
// over the target, so a crash never leaves a half-written catalog behind.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"bookcatalog/internal/models"
	"bookcatalog/internal/storage"
)

const formatVersion = 1

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type document struct {
	FormatVersion int `json:"format_version"`
	models.Snapshot
}

// FileDB keeps the catalog in a JSON file
type FileDB struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

// NewFileDB returns a store backed by the file at path. The file is created on first Save.
func NewFileDB(path string, logger *zap.Logger) *FileDB {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileDB{path: filepath.Clean(path), logger: logger}
}

// Initialize makes sure the parent directory exists
func (db *FileDB) Initialize(ctx context.Context) error {
	if dir := filepath.Dir(db.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	return nil
}

// Save writes the snapshot atomically
func (db *FileDB) Save(ctx context.Context, snap models.Snapshot) error {
	data, err := json.MarshalIndent(document{FormatVersion: formatVersion, Snapshot: snap}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(db.path), filepath.Base(db.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, db.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}

	db.logger.Debug("Snapshot written",
		zap.String("path", db.path),
		zap.Int("books", len(snap.Books)),
	)
	return nil
}

// Load reads the snapshot file
func (db *FileDB) Load(ctx context.Context) (models.Snapshot, error) {
	db.mu.Lock()
	data, err := os.ReadFile(db.path)
	db.mu.Unlock()

	if errors.Is(err, fs.ErrNotExist) {
		return models.Snapshot{}, storage.ErrNoSnapshot
	}
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return models.Snapshot{}, fmt.Errorf("parse snapshot %s: %w", db.path, err)
	}
	if doc.FormatVersion != formatVersion {
		return models.Snapshot{}, fmt.Errorf("snapshot %s: unsupported format version %d", db.path, doc.FormatVersion)
	}
	if doc.Books == nil {
		doc.Books = []models.Book{}
	}
	return doc.Snapshot, nil
}

// Close does nothing; the file is not held open
func (db *FileDB) Close() error {
	return nil
}

package storage

import (
	"context"
	"errors"

	"bookcatalog/internal/models"
)

// ErrNoSnapshot is returned by Load when nothing has been saved yet
var ErrNoSnapshot = errors.New("no catalog snapshot stored")

// Storage defines the interface for catalog snapshot persistence
type Storage interface {
	// Save persists the full catalog, replacing whatever was saved before
	Save(ctx context.Context, snap models.Snapshot) error

	// Load returns the most recently saved catalog or ErrNoSnapshot
	Load(ctx context.Context) (models.Snapshot, error)

	// Lifecycle
	Initialize(ctx context.Context) error
	Close() error
}

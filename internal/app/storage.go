package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"bookcatalog/internal/catalog"
	"bookcatalog/internal/config"
	"bookcatalog/internal/seed"
	"bookcatalog/internal/storage"
	"bookcatalog/internal/storage/ch"
	"bookcatalog/internal/storage/file"
	"bookcatalog/internal/storage/pg"
	"bookcatalog/internal/storage/sqlite"
	"bookcatalog/internal/storage/stubs"
)

const connectAttempts = 5

// openStorage connects the configured snapshot backend. Network backends are retried
// with exponential backoff since they often start alongside the app.
func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		logger.Info("Using in-memory storage, the catalog is lost on exit")
		return stubs.NewMockDB(), nil

	case config.BackendFile:
		logger.Info("Using JSON snapshot file", zap.String("path", cfg.SnapshotFile))
		return file.NewFileDB(cfg.SnapshotFile, logger), nil

	case config.BackendSQLite:
		logger.Info("Using SQLite", zap.String("path", cfg.SQLitePath))
		return sqlite.NewSQLiteDB(cfg.SQLitePath, logger)

	case config.BackendClickHouse:
		logger.Info("Connecting to ClickHouse",
			zap.String("host", cfg.ClickHouseHost),
			zap.Int("port", cfg.ClickHousePort),
			zap.String("database", cfg.ClickHouseDatabase),
			zap.String("user", cfg.ClickHouseUser),
			zap.Bool("tls", cfg.ClickHouseUseTLS),
		)
		return connectWithRetry(ctx, logger, func(ctx context.Context) (storage.Storage, error) {
			return ch.NewClickHouseDB(cfg.ClickHouseHost, cfg.ClickHousePort, cfg.ClickHouseDatabase,
				cfg.ClickHouseUser, cfg.ClickHousePassword, cfg.ClickHouseUseTLS)
		})

	case config.BackendPostgres:
		logger.Info("Connecting to PostgreSQL")
		return connectWithRetry(ctx, logger, func(ctx context.Context) (storage.Storage, error) {
			return pg.NewPostgresDB(ctx, cfg.PostgresDSN, logger)
		})

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func connectWithRetry(ctx context.Context, logger *zap.Logger, connect func(context.Context) (storage.Storage, error)) (storage.Storage, error) {
	var db storage.Storage
	backoff := retry.WithMaxRetries(connectAttempts-1, retry.NewExponential(500*time.Millisecond))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		db, err = connect(ctx)
		if err != nil {
			logger.Warn("Storage connection failed, retrying", zap.Error(err))
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// loadCatalog restores the last snapshot into store and reports whether one was found.
// An empty backend is seeded from cfg.SeedFile or the built-in sample when asked to, and
// otherwise left empty.
func loadCatalog(ctx context.Context, cfg *config.Config, db storage.Storage, store *catalog.Store, logger *zap.Logger) (bool, error) {
	snap, err := db.Load(ctx)
	switch {
	case err == nil:
		if err := store.Restore(ctx, snap); err != nil {
			return false, fmt.Errorf("failed to restore catalog: %w", err)
		}
		logger.Info("Catalog restored",
			zap.String("name", store.Name()),
			zap.Int("books", store.Len()),
			zap.Time("saved_at", snap.SavedAt),
		)
		return true, nil
	case !errors.Is(err, storage.ErrNoSnapshot):
		return false, fmt.Errorf("failed to load catalog: %w", err)
	}

	var data seed.Data
	switch {
	case cfg.SeedFile != "":
		if data, err = seed.Load(cfg.SeedFile); err != nil {
			return false, err
		}
	case cfg.SeedSampleData:
		data = seed.Sample()
	default:
		logger.Info("No saved catalog found, starting empty")
		return false, nil
	}

	n, err := seed.Apply(ctx, store, data)
	if err != nil {
		return false, err
	}
	logger.Info("Catalog seeded", zap.Int("books", n))
	return false, nil
}

// saveCatalog writes the current catalog to db
func saveCatalog(ctx context.Context, db storage.Storage, store *catalog.Store) error {
	snap := store.Snapshot(ctx)
	if err := db.Save(ctx, snap); err != nil {
		return fmt.Errorf("failed to save catalog: %w", err)
	}
	return nil
}

// snapshotter saves the catalog only when it changed since the last successful save,
// so append-only backends do not collect identical copies
type snapshotter struct {
	db    storage.Storage
	store *catalog.Store

	mu    sync.Mutex
	saved uint64
}

func newSnapshotter(db storage.Storage, store *catalog.Store) *snapshotter {
	return &snapshotter{db: db, store: store}
}

// markSaved records that the backend already holds the current catalog
func (s *snapshotter) markSaved() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = s.store.Version()
}

// saveIfChanged writes the catalog unless nothing changed since the last save. The version
// is read before the snapshot is taken, so a concurrent change is saved again next time.
func (s *snapshotter) saveIfChanged(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.store.Version()
	if v == s.saved {
		return false, nil
	}
	if err := saveCatalog(ctx, s.db, s.store); err != nil {
		return false, err
	}
	s.saved = v
	return true, nil
}

// runSnapshots saves changes every interval until ctx is cancelled
func runSnapshots(ctx context.Context, interval time.Duration, snaps *snapshotter, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			saved, err := snaps.saveIfChanged(ctx)
			if err != nil {
				logger.Error("Periodic snapshot failed", zap.Error(err))
				continue
			}
			if saved {
				logger.Debug("Periodic snapshot saved", zap.Int("books", snaps.store.Len()))
			}
		}
	}
}

package stubs

import (
	"context"
	"sync"

	"bookcatalog/internal/models"
	"bookcatalog/internal/storage"
)

// MockDB is an in-memory implementation of the Storage interface
type MockDB struct {
	mu    sync.RWMutex
	snap  *models.Snapshot
	saves int
}

// NewMockDB creates a new mock database
func NewMockDB() *MockDB {
	return &MockDB{}
}

// Initialize does nothing for mock DB
func (m *MockDB) Initialize(ctx context.Context) error {
	return nil
}

// Save keeps a deep copy of the snapshot
func (m *MockDB) Save(ctx context.Context, snap models.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := copySnapshot(snap)
	m.snap = &c
	m.saves++
	return nil
}

// Load returns a deep copy of the last saved snapshot
func (m *MockDB) Load(ctx context.Context) (models.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.snap == nil {
		return models.Snapshot{}, storage.ErrNoSnapshot
	}
	return copySnapshot(*m.snap), nil
}

// Saves returns how many times Save was called
func (m *MockDB) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

// Close does nothing for mock DB
func (m *MockDB) Close() error {
	return nil
}

func copySnapshot(s models.Snapshot) models.Snapshot {
	c := s
	c.Books = make([]models.Book, len(s.Books))
	for i, b := range s.Books {
		c.Books[i] = b.Clone()
	}
	return c
}

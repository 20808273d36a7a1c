package stubs

import (
	"context"
	"testing"

	"bookcatalog/internal/storage/storagetest"
)

func TestMockDB_RoundTrip(t *testing.T) {
	db := NewMockDB()
	if err := db.Initialize(context.Background()); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}

	storagetest.AssertRoundTrip(t, db)

	if db.Saves() != 2 {
		t.Errorf("Expected 2 saves, got %d", db.Saves())
	}
}

func TestMockDB_LoadReturnsCopy(t *testing.T) {
	db := NewMockDB()
	ctx := context.Background()

	snap := storagetest.SampleSnapshot()
	if err := db.Save(ctx, snap); err != nil {
		t.Fatalf("Failed to save snapshot: %v", err)
	}

	// Mutating the caller's copy must not leak into storage
	*snap.Books[0].PublicationYear = 1
	snap.Books[0].Title = "Changed"

	loaded, err := db.Load(ctx)
	if err != nil {
		t.Fatalf("Failed to load snapshot: %v", err)
	}
	if loaded.Books[0].Title != "Dune" {
		t.Errorf("Expected title 'Dune', got '%s'", loaded.Books[0].Title)
	}
	if *loaded.Books[0].PublicationYear != 1965 {
		t.Errorf("Expected year 1965, got %d", *loaded.Books[0].PublicationYear)
	}

	loaded.Books[0].Title = "Changed again"
	again, _ := db.Load(ctx)
	if again.Books[0].Title != "Dune" {
		t.Errorf("Expected stored title to stay 'Dune', got '%s'", again.Books[0].Title)
	}
}

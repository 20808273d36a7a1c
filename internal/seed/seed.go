// Package seed fills an empty catalog from YAML.
//
// A seed file has a list of books. Each book takes the same
// fields as an add request, plus an optional borrower who gets the book on loan right away.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"bookcatalog/internal/models"
)

//go:embed sample.yaml
var sampleYAML []byte

// Data is the content of a seed file
type Data struct {
	Books []Entry `yaml:"books"`
}

// Entry is one book to add
type Entry struct {
	models.NewBook `yaml:",inline"`
	Borrower       string `yaml:"borrower"`
}

// Catalog is the part of the catalog store seeding needs
type Catalog interface {
	Add(ctx context.Context, nb models.NewBook) (models.Book, error)
	Borrow(ctx context.Context, id, borrower string) (models.Book, error)
}

// Sample returns the built-in demonstration data
func Sample() Data {
	data, err := Parse(sampleYAML)
	if err != nil {
		panic(fmt.Sprintf("seed: embedded sample is invalid: %v", err))
	}
	return data
}

// Load reads a seed file from disk
func Load(path string) (Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Data{}, fmt.Errorf("read seed file: %w", err)
	}
	data, err := Parse(raw)
	if err != nil {
		return Data{}, fmt.Errorf("seed file %s: %w", path, err)
	}
	return data, nil
}

// Parse decodes seed YAML. Unknown keys are rejected so typos do not silently drop fields.
func Parse(raw []byte) (Data, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var data Data
	if err := dec.Decode(&data); err != nil && !errors.Is(err, io.EOF) {
		return Data{}, fmt.Errorf("parse seed: %w", err)
	}
	return data, nil
}

// Apply adds every entry in order and lends out the ones with a borrower.
// It stops at the first failing entry and returns how many books were added before it.
func Apply(ctx context.Context, c Catalog, data Data) (int, error) {
	added := 0
	for i, e := range data.Books {
		b, err := c.Add(ctx, e.NewBook)
		if err != nil {
			return added, fmt.Errorf("seed entry %d (%q): %w", i+1, e.Title, err)
		}
		added++

		if e.Borrower != "" {
			if _, err := c.Borrow(ctx, b.ID, e.Borrower); err != nil {
				return added, fmt.Errorf("seed entry %d (%q): lend to %s: %w", i+1, e.Title, e.Borrower, err)
			}
		}
	}
	return added, nil
}

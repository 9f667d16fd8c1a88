// Package imagestore owns the images directory: render-scoped
// subdirectories, traversal-guarded reads, and file writes. Files are never
// deleted automatically — rendered output stays until an operator cleans
// the directory.
package imagestore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/aaltoxr/xrld/idgen"
	"github.com/aaltoxr/xrld/safeweb"
)

// Store is a directory of rendered images keyed by render ID.
type Store struct {
	dir   string
	newID idgen.Generator
}

// New creates a Store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("imagestore: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("imagestore: mkdir %s: %w", abs, err)
	}
	return &Store{dir: abs, newID: idgen.RenderID()}, nil
}

// Dir returns the absolute images directory.
func (s *Store) Dir() string { return s.dir }

// Render is a render-scoped output directory. Each render gets a fresh
// unique ID, so repeated or concurrent renders of the same URL never
// overwrite each other's files.
type Render struct {
	ID    string
	store *Store
}

// Begin mints a new render ID and creates its directory.
func (s *Store) Begin() (*Render, error) {
	id := s.newID()
	if err := os.MkdirAll(filepath.Join(s.dir, id), 0o755); err != nil {
		return nil, fmt.Errorf("imagestore: begin render: %w", err)
	}
	return &Render{ID: id, store: s}, nil
}

// Save writes data under this render's directory and returns the
// store-relative name ("{renderID}/{name}").
func (r *Render) Save(name string, data []byte) (string, error) {
	rel := filepath.Join(r.ID, name)
	abs, err := safeweb.SafePath(r.store.dir, rel)
	if err != nil {
		return "", fmt.Errorf("imagestore: save %s: %w", name, err)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return "", fmt.Errorf("imagestore: write %s: %w", rel, err)
	}
	return filepath.ToSlash(rel), nil
}

// Path resolves a store-relative name to an absolute path, rejecting
// traversal. The file may or may not exist.
func (s *Store) Path(rel string) (string, error) {
	abs, err := safeweb.SafePath(s.dir, rel)
	if err != nil {
		return "", err
	}
	return abs, nil
}

// Open opens a previously saved file. Returns os.ErrNotExist-wrapping
// errors for unknown names.
func (s *Store) Open(rel string) (*os.File, error) {
	abs, err := s.Path(rel)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("imagestore: open %s: %w", rel, err)
	}
	return f, nil
}

// Renders lists render IDs, oldest first. Render IDs are timestamped, so
// lexical order is chronological.
func (s *Store) Renders() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("imagestore: list: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

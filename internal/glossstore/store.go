// Package glossstore keeps glossary documents as plain-text files in one
// directory.
package glossstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dgallion1/customtrans/internal/dictionary"
)

const ext = ".dict"

var ErrInvalidName = errors.New("invalid glossary name")

// DirStore reads and writes glossaries under a single directory.
type DirStore struct {
	dir string
}

// Open creates dir if needed.
func Open(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("glossary dir: %w", err)
	}
	return &DirStore{dir: dir}, nil
}

func (s *DirStore) Dir() string { return s.dir }

func (s *DirStore) path(name string) (string, error) {
	if name == "" || filepath.Base(name) != name || !strings.HasSuffix(name, ext) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.dir, name), nil
}

// Read returns the named document. A missing file yields a Source with
// Present unset rather than an error.
func (s *DirStore) Read(name string) (dictionary.Source, error) {
	p, err := s.path(name)
	if err != nil {
		return dictionary.Source{}, err
	}
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return dictionary.Source{Name: name}, nil
	}
	if err != nil {
		return dictionary.Source{}, fmt.Errorf("read glossary %s: %w", name, err)
	}
	return dictionary.Source{Name: name, Text: string(data), Present: true}, nil
}

// Write replaces the named document atomically.
func (s *DirStore) Write(name, text string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, ".gloss-*")
	if err != nil {
		return fmt.Errorf("write glossary %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return fmt.Errorf("write glossary %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write glossary %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("write glossary %s: %w", name, err)
	}
	return nil
}

// Rename moves a document. Renaming a missing document is a no-op.
func (s *DirStore) Rename(oldName, newName string) error {
	from, err := s.path(oldName)
	if err != nil {
		return err
	}
	to, err := s.path(newName)
	if err != nil {
		return err
	}
	if from == to {
		return nil
	}
	if err := os.Rename(from, to); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("rename glossary %s: %w", oldName, err)
	}
	return nil
}

// List returns the names of all documents, sorted.
func (s *DirStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list glossaries: %w", err)
	}
	var names []string
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || strings.HasPrefix(n, ".") || !strings.HasSuffix(n, ext) {
			continue
		}
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

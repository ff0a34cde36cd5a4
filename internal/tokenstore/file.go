package tokenstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/gofrs/flock"
)

// FileStore keeps every table in one JSON document. Writes hold an
// advisory lock on path+".lock" so a CLI and a running server can share
// the file.
type FileStore struct {
	mu     sync.RWMutex
	path   string
	lock   *flock.Flock
	tables map[string][]string
}

// OpenFile loads path, creating an empty store when it does not exist.
func OpenFile(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("token store dir: %w", err)
	}
	s := &FileStore{
		path:   path,
		lock:   flock.New(path + ".lock"),
		tables: make(map[string][]string),
	}
	if err := s.lock.RLock(); err != nil {
		return nil, fmt.Errorf("lock token store: %w", err)
	}
	defer s.lock.Unlock()
	if err := s.readLocked(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) Get(_ context.Context, workID string) ([]string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[workID]
	return slices.Clone(t), ok, nil
}

func (s *FileStore) Put(_ context.Context, workID string, tokens []string) error {
	return s.update(func(tables map[string][]string) {
		tables[workID] = slices.Clone(tokens)
	})
}

func (s *FileStore) Delete(_ context.Context, workID string) error {
	return s.update(func(tables map[string][]string) {
		delete(tables, workID)
	})
}

func (s *FileStore) Close() error { return nil }

// update re-reads the file under the exclusive lock, applies fn and
// writes the result back, so concurrent writers in other processes are
// not lost.
func (s *FileStore) update(fn func(map[string][]string)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock token store: %w", err)
	}
	defer s.lock.Unlock()

	if err := s.readLocked(); err != nil {
		return err
	}
	fn(s.tables)
	return s.writeLocked()
}

func (s *FileStore) readLocked() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read token store: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	tables := make(map[string][]string)
	if err := json.Unmarshal(data, &tables); err != nil {
		return fmt.Errorf("decode token store %s: %w", s.path, err)
	}
	s.tables = tables
	return nil
}

func (s *FileStore) writeLocked() error {
	data, err := json.MarshalIndent(s.tables, "", "  ")
	if err != nil {
		return fmt.Errorf("encode token store: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".tokens-*.json")
	if err != nil {
		return fmt.Errorf("write token store: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write token store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write token store: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("write token store: %w", err)
	}
	return nil
}

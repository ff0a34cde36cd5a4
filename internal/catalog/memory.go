package catalog

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"

	"github.com/dgallion1/customtrans/internal/dictionary"
	"github.com/dgallion1/customtrans/internal/hosts"
	"github.com/pelletier/go-toml/v2"
)

// Library is the on-disk TOML form of a catalog.
type Library struct {
	Works      []Work                    `toml:"works"`
	Honorifics []dictionary.Rule         `toml:"honorifics"`
	Glossaries map[string]bool           `toml:"glossaries"`
	Volumes    map[string][]hosts.Volume `toml:"volumes"`
}

// LoadLibrary decodes a library file. A missing file yields an empty
// library.
func LoadLibrary(path string) (Library, error) {
	var lib Library
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return lib, nil
	}
	if err != nil {
		return lib, fmt.Errorf("read library: %w", err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&lib); err != nil {
		return lib, fmt.Errorf("decode library %s: %w", path, err)
	}
	for _, w := range lib.Works {
		if err := w.Validate(); err != nil {
			return lib, fmt.Errorf("library %s: %w", path, err)
		}
	}
	return lib, nil
}

// MemoryStore is an in-process catalog. When created with a path, every
// mutation is written back to that library file.
type MemoryStore struct {
	mu         sync.RWMutex
	path       string
	works      map[string]Work
	volumes    map[string][]hosts.Volume
	honorifics map[string]dictionary.Rule
	order      []string
	glossaries map[string]bool
}

func NewMemoryStore(lib Library, path string) *MemoryStore {
	s := &MemoryStore{
		path:       path,
		works:      make(map[string]Work, len(lib.Works)),
		volumes:    make(map[string][]hosts.Volume, len(lib.Volumes)),
		honorifics: make(map[string]dictionary.Rule, len(lib.Honorifics)),
		glossaries: make(map[string]bool, len(lib.Glossaries)),
	}
	for _, w := range lib.Works {
		s.works[w.ID] = w
	}
	for id, v := range lib.Volumes {
		s.volumes[id] = v
	}
	for i, r := range lib.Honorifics {
		if r.ID == "" {
			r.ID = fmt.Sprintf("%s-%d", r.Language, i+1)
		}
		s.honorifics[r.ID] = r
		s.order = append(s.order, r.ID)
	}
	for name, on := range lib.Glossaries {
		s.glossaries[name] = on
	}
	return s
}

// OpenLibrary loads path and returns a store that persists back to it.
func OpenLibrary(path string) (*MemoryStore, error) {
	lib, err := LoadLibrary(path)
	if err != nil {
		return nil, err
	}
	return NewMemoryStore(lib, path), nil
}

func (s *MemoryStore) Works(context.Context) ([]Work, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Work, 0, len(s.works))
	for _, w := range s.works {
		out = append(out, cloneWork(w))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Work(_ context.Context, id string) (Work, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.works[id]
	if !ok {
		return Work{}, fmt.Errorf("work %s: %w", id, ErrNotFound)
	}
	return cloneWork(w), nil
}

func (s *MemoryStore) PutWork(_ context.Context, w Work) error {
	if err := w.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.works[w.ID] = cloneWork(w)
	return s.persistLocked()
}

func (s *MemoryStore) Volumes(_ context.Context, workID string) ([]hosts.Volume, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.works[workID]; !ok {
		return nil, fmt.Errorf("work %s: %w", workID, ErrNotFound)
	}
	return slices.Clone(s.volumes[workID]), nil
}

func (s *MemoryStore) SetVolumes(_ context.Context, workID string, volumes []hosts.Volume) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.works[workID]; !ok {
		return fmt.Errorf("work %s: %w", workID, ErrNotFound)
	}
	s.volumes[workID] = slices.Clone(volumes)
	return s.persistLocked()
}

func (s *MemoryStore) Honorifics(context.Context) ([]dictionary.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]dictionary.Rule, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.honorifics[id])
	}
	return out, nil
}

func (s *MemoryStore) PutHonorific(_ context.Context, r dictionary.Rule) error {
	if r.ID == "" {
		return fmt.Errorf("honorific id is empty")
	}
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.honorifics[r.ID]; !ok {
		s.order = append(s.order, r.ID)
	}
	s.honorifics[r.ID] = r
	return s.persistLocked()
}

func (s *MemoryStore) DeleteHonorific(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.honorifics[id]; !ok {
		return fmt.Errorf("honorific %s: %w", id, ErrNotFound)
	}
	delete(s.honorifics, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return s.persistLocked()
}

func (s *MemoryStore) GlossaryEnabled(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	on, ok := s.glossaries[name]
	return !ok || on, nil
}

func (s *MemoryStore) SetGlossaryEnabled(_ context.Context, name string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.glossaries[name] = enabled
	return s.persistLocked()
}

// Library returns the store's current contents.
func (s *MemoryStore) Library() Library {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.libraryLocked()
}

func (s *MemoryStore) libraryLocked() Library {
	lib := Library{
		Glossaries: make(map[string]bool, len(s.glossaries)),
		Volumes:    make(map[string][]hosts.Volume, len(s.volumes)),
	}
	for _, w := range s.works {
		lib.Works = append(lib.Works, cloneWork(w))
	}
	sort.Slice(lib.Works, func(i, j int) bool { return lib.Works[i].ID < lib.Works[j].ID })
	for _, id := range s.order {
		lib.Honorifics = append(lib.Honorifics, s.honorifics[id])
	}
	for k, v := range s.glossaries {
		lib.Glossaries[k] = v
	}
	for k, v := range s.volumes {
		lib.Volumes[k] = v
	}
	return lib
}

func (s *MemoryStore) persistLocked() error {
	if s.path == "" {
		return nil
	}
	data, err := toml.Marshal(s.libraryLocked())
	if err != nil {
		return fmt.Errorf("encode library: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".library-*.toml")
	if err != nil {
		return fmt.Errorf("write library: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write library: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write library: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("write library: %w", err)
	}
	return nil
}

func cloneWork(w Work) Work {
	w.Bookmarks = slices.Clone(w.Bookmarks)
	return w
}

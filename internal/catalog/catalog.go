// Package catalog stores the tracked works, their chapter catalogs,
// honorific rules and glossary toggles.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dgallion1/customtrans/internal/dictionary"
	"github.com/dgallion1/customtrans/internal/hosts"
)

var ErrNotFound = errors.New("not found")

// Work is one tracked serial.
type Work struct {
	ID             string     `json:"id" toml:"id"`
	Title          string     `json:"title" toml:"title"`
	Abbr           string     `json:"abbr" toml:"abbr"`
	Host           hosts.Host `json:"host" toml:"host"`
	Code           string     `json:"code" toml:"code"`
	LatestChapter  int        `json:"latest_chapter" toml:"latest"`
	CurrentChapter int        `json:"current_chapter" toml:"current"`
	Bookmarks      []int      `json:"bookmarks" toml:"bookmarks"`
}

// GlossaryName is the work's per-work glossary document name.
func (w Work) GlossaryName() string {
	return dictionary.FileName(w.Abbr, w.Host.String(), w.Code)
}

func (w Work) Bookmarked(chapter int) bool {
	return slices.Contains(w.Bookmarks, chapter)
}

// SetBookmark adds or removes a bookmark, keeping the list sorted.
func (w *Work) SetBookmark(chapter int, on bool) {
	i, found := slices.BinarySearch(w.Bookmarks, chapter)
	switch {
	case on && !found:
		w.Bookmarks = slices.Insert(w.Bookmarks, i, chapter)
	case !on && found:
		w.Bookmarks = slices.Delete(w.Bookmarks, i, i+1)
	}
}

func (w Work) Validate() error {
	if strings.TrimSpace(w.ID) == "" {
		return fmt.Errorf("work id is empty")
	}
	if strings.TrimSpace(w.Title) == "" {
		return fmt.Errorf("work %s: title is empty", w.ID)
	}
	if !validAbbr(w.Abbr) {
		return fmt.Errorf("work %s: abbreviation %q must be letters, digits or underscores", w.ID, w.Abbr)
	}
	if strings.TrimSpace(w.Code) == "" {
		return fmt.Errorf("work %s: code is empty", w.ID)
	}
	if _, err := hosts.ForHost(w.Host); err != nil {
		return fmt.Errorf("work %s: %w", w.ID, err)
	}
	return nil
}

func validAbbr(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}

// Store is the catalog the pipeline reads and the management surface
// writes. Reads return copies, so a caller holds a consistent snapshot.
type Store interface {
	Works(ctx context.Context) ([]Work, error)
	Work(ctx context.Context, id string) (Work, error)
	PutWork(ctx context.Context, w Work) error

	Volumes(ctx context.Context, workID string) ([]hosts.Volume, error)
	SetVolumes(ctx context.Context, workID string, volumes []hosts.Volume) error

	Honorifics(ctx context.Context) ([]dictionary.Rule, error)
	PutHonorific(ctx context.Context, r dictionary.Rule) error
	DeleteHonorific(ctx context.Context, id string) error

	// GlossaryEnabled reports true for glossaries never toggled.
	GlossaryEnabled(ctx context.Context, name string) (bool, error)
	SetGlossaryEnabled(ctx context.Context, name string, enabled bool) error
}

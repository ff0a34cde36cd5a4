// Package render composes annotated chapters into the artifacts the
// render cache stores and the surfaces serve: JSON, an HTML page and a
// DOCX export.
package render

import (
	"encoding/json"
	"fmt"

	"github.com/dgallion1/customtrans/internal/annotate"
	"github.com/dgallion1/customtrans/internal/content"
)

// Frame is what is known about a chapter without its content: enough to
// draw the page header and navigation even when the chapter itself is
// unavailable.
type Frame struct {
	WorkID       string `json:"work_id"`
	WorkTitle    string `json:"work_title"`
	Chapter      int    `json:"chapter"`
	ChapterTitle string `json:"chapter_title,omitempty"`
	Latest       int    `json:"latest"`
	Prev         int    `json:"prev,omitempty"`
	Next         int    `json:"next,omitempty"`
	Bookmarked   bool   `json:"bookmarked"`
	SourceURL    string `json:"source_url,omitempty"`
}

// NewFrame fills navigation from the chapter number and the latest known
// chapter.
func NewFrame(workID, workTitle string, chapter, latest int) Frame {
	f := Frame{WorkID: workID, WorkTitle: workTitle, Chapter: chapter, Latest: latest}
	if chapter > 1 {
		f.Prev = chapter - 1
	}
	if chapter < latest {
		f.Next = chapter + 1
	}
	return f
}

// Level grades a notice.
type Level string

const (
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Artifact is one rendered chapter. Language is the work's source
// language, which selects the raw line shown under each record. Readings
// maps record sequence numbers to katakana readings when the reading aid
// is on.
type Artifact struct {
	Frame     Frame            `json:"frame"`
	Available bool             `json:"available"`
	Language  content.Language `json:"language,omitempty"`
	Chapter   annotate.Chapter `json:"chapter"`
	Readings  map[int]string   `json:"readings,omitempty"`
	Notices   []Notice         `json:"notices,omitempty"`
}

// Unavailable is the artifact shown when the chapter could not be
// fetched or parsed.
func Unavailable(frame Frame, message string) *Artifact {
	return &Artifact{
		Frame:   frame,
		Notices: []Notice{{Level: LevelError, Message: message}},
	}
}

// Warn appends a non-blocking notice.
func (a *Artifact) Warn(format string, args ...any) {
	a.Notices = append(a.Notices, Notice{Level: LevelWarning, Message: fmt.Sprintf(format, args...)})
}

// Encode serializes an artifact for the render cache.
func Encode(a *Artifact) ([]byte, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	return data, nil
}

func Decode(data []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return &a, nil
}

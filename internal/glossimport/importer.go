// Package glossimport converts glossary documents kept in other formats
// into dictionary text. Table rows become definitions, headings become
// comments, and any other text is kept line by line so the compiler can
// judge it.
package glossimport

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Importer converts one document into dictionary text.
type Importer interface {
	Import(r io.Reader, filename string) (string, error)
}

// SupportedExtensions lists file extensions that can be imported.
var SupportedExtensions = map[string]bool{
	".dict":     true,
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the importer for a filename.
func ForFile(filename string) (Importer, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".dict", ".txt":
		return &TextImporter{}, nil
	case ".md", ".markdown":
		return &MarkdownImporter{}, nil
	case ".csv":
		return &CSVImporter{}, nil
	case ".html", ".htm":
		return &HTMLImporter{}, nil
	case ".pdf":
		return &PDFImporter{}, nil
	case ".docx":
		return &DOCXImporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// builder accumulates dictionary lines.
type builder struct {
	lines []string
}

func (b *builder) line(s string) {
	s = strings.TrimSpace(s)
	if s != "" {
		b.lines = append(b.lines, s)
	}
}

// text keeps every non-blank line of a block.
func (b *builder) text(s string) {
	for _, l := range strings.Split(s, "\n") {
		b.line(l)
	}
}

func (b *builder) heading(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	if len(b.lines) > 0 {
		b.lines = append(b.lines, "")
	}
	b.lines = append(b.lines, "// "+s)
}

// row turns table cells into a definition: raw, translation and an
// optional comment. Rows with fewer than two cells are kept as text.
func (b *builder) row(cells []string) {
	for i := range cells {
		cells[i] = strings.TrimSpace(strings.ReplaceAll(cells[i], "\n", " "))
	}
	switch {
	case len(cells) == 0:
	case len(cells) == 1:
		b.line(cells[0])
	case cells[0] == "" && cells[1] == "":
	default:
		def := cells[0] + " --> " + cells[1]
		if len(cells) > 2 && cells[2] != "" {
			def += " // " + cells[2]
		}
		b.lines = append(b.lines, def)
	}
}

func (b *builder) String() string {
	if len(b.lines) == 0 {
		return ""
	}
	return strings.Join(b.lines, "\n") + "\n"
}

// isHeaderRow reports whether the first row of a table names its columns
// rather than holding an entry.
func isHeaderRow(cells []string) bool {
	if len(cells) < 2 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(cells[0]))
	switch first {
	case "raw", "term", "source", "original", "原文", "原語":
		return true
	}
	return false
}

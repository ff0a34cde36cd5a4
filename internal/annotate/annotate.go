// Package annotate overlays a compiled dictionary onto chapter records.
package annotate

import (
	"fmt"
	"html"
	"strings"

	"github.com/dgallion1/customtrans/internal/content"
	"github.com/dgallion1/customtrans/internal/dictionary"
)

// Segment is a run of literal text, or a reference to a glossary item
// when Ref is non-zero.
type Segment struct {
	Text string `json:"text,omitempty"`
	Ref  int    `json:"ref,omitempty"`
}

// Record is a content record with its text split into segments. Image
// records carry no segments.
type Record struct {
	content.Record
	Segments []Segment `json:"segments,omitempty"`
}

// GlossaryItem is one dictionary entry referenced by a chapter. Raw and
// Translation are HTML-escaped, as compiled.
type GlossaryItem struct {
	Index       int    `json:"index"`
	Raw         string `json:"raw"`
	Translation string `json:"translation"`
	Comment     string `json:"comment,omitempty"`
}

// Chapter is an annotated chapter: records in sequence order plus the
// glossary their references index into, numbered from 1.
type Chapter struct {
	Records  []Record       `json:"records"`
	Glossary []GlossaryItem `json:"glossary"`
}

// Section returns the records of one kind, in order.
func (c Chapter) Section(kind content.Kind) []Record {
	var out []Record
	for _, r := range c.Records {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// Title returns the first title record's plain text.
func (c Chapter) Title() string {
	for _, r := range c.Records {
		if r.Kind == content.KindTitle && r.Form == content.FormText {
			return r.Text
		}
	}
	return ""
}

// Annotate replaces every occurrence of each dictionary raw with a
// reference, trying entries in the dictionary's order. Replaced spans
// are no longer text and cannot be matched by later, shorter entries.
// The input is not modified.
func Annotate(records []content.Record, dict *dictionary.Compiled) Chapter {
	entries := dict.Entries()
	needles := make([]string, len(entries))
	for i, e := range entries {
		needles[i] = html.UnescapeString(e.Raw)
	}

	var (
		out      = make([]Record, 0, len(records))
		glossary []GlossaryItem
		refs     = make(map[int]int)
	)
	ref := func(entry int) int {
		if idx, ok := refs[entry]; ok {
			return idx
		}
		e := entries[entry]
		idx := len(glossary) + 1
		glossary = append(glossary, GlossaryItem{Index: idx, Raw: e.Raw, Translation: e.Translation, Comment: e.Comment})
		refs[entry] = idx
		return idx
	}

	for _, rec := range records {
		switch rec.Form {
		case content.FormImage:
			out = append(out, Record{Record: rec})
		case content.FormText:
			segs := []Segment{{Text: rec.Text}}
			for i, needle := range needles {
				if needle == "" || !strings.Contains(rec.Text, needle) {
					continue
				}
				segs = substitute(segs, needle, func() int { return ref(i) })
			}
			out = append(out, Record{Record: rec, Segments: segs})
		default:
			panic(fmt.Sprintf("annotate: record %d has undefined form %d", rec.Sequence, rec.Form))
		}
	}
	return Chapter{Records: out, Glossary: glossary}
}

// substitute splits every literal segment around needle. ref is only
// called when at least one occurrence exists.
func substitute(segs []Segment, needle string, ref func() int) []Segment {
	out := make([]Segment, 0, len(segs))
	for _, s := range segs {
		if s.Ref != 0 || !strings.Contains(s.Text, needle) {
			out = append(out, s)
			continue
		}
		idx := ref()
		parts := strings.Split(s.Text, needle)
		for j, p := range parts {
			if j > 0 {
				out = append(out, Segment{Ref: idx})
			}
			if p != "" {
				out = append(out, Segment{Text: p})
			}
		}
	}
	return out
}

// Placeholder is the markup standing in for a glossary reference.
func Placeholder(idx int) string {
	return fmt.Sprintf(`<span class="placeholder" id="p%d">placeholder</span>`, idx)
}

// HTML renders the record's text with literal runs escaped and
// references as placeholders. Image records render as empty.
func (r Record) HTML() string {
	var b strings.Builder
	for _, s := range r.Segments {
		if s.Ref != 0 {
			b.WriteString(Placeholder(s.Ref))
			continue
		}
		b.WriteString(html.EscapeString(s.Text))
	}
	return b.String()
}

// Translated renders the record as plain text with each reference
// replaced by its translation.
func (r Record) Translated(glossary []GlossaryItem) string {
	var b strings.Builder
	for _, s := range r.Segments {
		if s.Ref == 0 {
			b.WriteString(s.Text)
			continue
		}
		if s.Ref <= len(glossary) {
			b.WriteString(html.UnescapeString(glossary[s.Ref-1].Translation))
		}
	}
	return b.String()
}

// References reports how many placeholders the record carries.
func (r Record) References() int {
	n := 0
	for _, s := range r.Segments {
		if s.Ref != 0 {
			n++
		}
	}
	return n
}

package render

import (
	"fmt"
	"strings"

	"github.com/dgallion1/customtrans/internal/annotate"
	"github.com/dgallion1/customtrans/internal/content"
	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Reader produces katakana reading lines for Japanese text. A Reader is
// safe for concurrent use.
type Reader struct {
	tok *tokenizer.Tokenizer
}

// NewReader loads the IPA dictionary.
func NewReader() (*Reader, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}
	return &Reader{tok: t}, nil
}

// Reading returns the katakana reading of text. Tokens without a
// dictionary reading (latin text, symbols, unknown words) keep their
// surface form.
func (r *Reader) Reading(text string) string {
	var b strings.Builder
	for _, t := range r.tok.Tokenize(text) {
		if reading, ok := t.Reading(); ok && reading != "*" && reading != "" {
			b.WriteString(reading)
			continue
		}
		b.WriteString(t.Surface)
	}
	return b.String()
}

// Annotate fills a.Readings for every main-text record whose reading
// differs from its text.
func (r *Reader) Annotate(a *Artifact) {
	for _, rec := range a.Chapter.Records {
		if rec.Kind != content.KindMain || rec.Form != content.FormText {
			continue
		}
		reading := r.Reading(plainText(rec))
		if reading == "" || reading == rec.Text {
			continue
		}
		if a.Readings == nil {
			a.Readings = make(map[int]string)
		}
		a.Readings[rec.Sequence] = reading
	}
}

// plainText is the record's untranslated literal text, with glossary
// spans left out since their translation replaces them.
func plainText(rec annotate.Record) string {
	var b strings.Builder
	for _, s := range rec.Segments {
		if s.Ref == 0 {
			b.WriteString(s.Text)
		} else {
			b.WriteString(" ")
		}
	}
	return strings.TrimSpace(b.String())
}

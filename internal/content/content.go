package content

import (
	"fmt"
	"strings"
)

// Kind places a record within a chapter.
type Kind int

const (
	KindTitle Kind = iota
	KindPrescript
	KindMain
	KindPostscript
)

var kindNames = [...]string{"title", "prescript", "main", "postscript"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	for i, name := range kindNames {
		if string(b) == name {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown record kind %q", b)
}

// Form distinguishes text lines from embedded images.
type Form int

const (
	FormText Form = iota
	FormImage
)

func (f Form) String() string {
	switch f {
	case FormText:
		return "text"
	case FormImage:
		return "image"
	}
	return fmt.Sprintf("form(%d)", int(f))
}

func (f Form) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Form) UnmarshalText(b []byte) error {
	switch string(b) {
	case "text":
		*f = FormText
	case "image":
		*f = FormImage
	default:
		return fmt.Errorf("unknown record form %q", b)
	}
	return nil
}

// Record is one unit of canonical chapter content.
type Record struct {
	Kind        Kind   `json:"kind"`
	Form        Form   `json:"form"`
	Sequence    int    `json:"sequence"`
	Text        string `json:"text,omitempty"`
	ImageSource string `json:"image_source,omitempty"`
}

// Language is the source language of a host and of the honorifics that
// apply to its works.
type Language string

const (
	Japanese Language = "JP"
	Chinese  Language = "CN"
)

// ParseLanguage accepts the short tags used in seed files.
func ParseLanguage(s string) (Language, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "JP", "JA":
		return Japanese, nil
	case "CN", "ZH":
		return Chinese, nil
	}
	return "", fmt.Errorf("unknown language %q", s)
}

func (l *Language) UnmarshalText(b []byte) error {
	v, err := ParseLanguage(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// Accumulator collects records for a single parse pass. Sequence numbers
// start at 1 and are never shared between passes.
type Accumulator struct {
	records []Record
}

func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// AddText appends a text record. Blank text is dropped and reported false.
func (a *Accumulator) AddText(kind Kind, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	a.records = append(a.records, Record{
		Kind:     kind,
		Form:     FormText,
		Sequence: len(a.records) + 1,
		Text:     text,
	})
	return true
}

// AddImage appends an image record.
func (a *Accumulator) AddImage(kind Kind, src string) bool {
	src = strings.TrimSpace(src)
	if src == "" {
		return false
	}
	a.records = append(a.records, Record{
		Kind:        kind,
		Form:        FormImage,
		Sequence:    len(a.records) + 1,
		ImageSource: src,
	})
	return true
}

// Count returns how many records of the given kind were collected.
func (a *Accumulator) Count(kind Kind) int {
	n := 0
	for _, r := range a.records {
		if r.Kind == kind {
			n++
		}
	}
	return n
}

// Records returns the collected records. The accumulator must not be used
// afterwards.
func (a *Accumulator) Records() []Record {
	out := a.records
	a.records = nil
	return out
}

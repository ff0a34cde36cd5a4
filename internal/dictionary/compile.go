// Package dictionary compiles user-authored glossary text and honorific
// rules into a length-ordered substitution table.
package dictionary

import (
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/customtrans/internal/content"
)

// CommentMaxLen bounds the comment kept for an entry, in characters.
const CommentMaxLen = 100

const (
	nameDivider = "|"
	defDivider  = "-->"
)

var (
	namePattern = regexp.MustCompile(`^\s*@name\{(.+),(.+)\}\s*(//.*)?`)
	defnPattern = regexp.MustCompile(`^([^->]*)` + defDivider + `([^/]*)(//.*)?`)
)

// Entry is one raw to translation mapping. An empty Comment means none.
type Entry struct {
	Raw         string `json:"raw"`
	Translation string `json:"translation"`
	Comment     string `json:"comment,omitempty"`
}

// Compiled is an immutable substitution table ordered by descending raw
// length, ties kept in insertion order. No two entries share a raw.
type Compiled struct {
	entries []Entry
}

// Entries returns a copy of the table in substitution order.
func (c *Compiled) Entries() []Entry {
	if c == nil {
		return nil
	}
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Compiled) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Each calls fn for every entry in substitution order.
func (c *Compiled) Each(fn func(i int, e Entry)) {
	if c == nil {
		return
	}
	for i, e := range c.entries {
		fn(i, e)
	}
}

// Source is one glossary document. Present is false when the document
// does not exist at all.
type Source struct {
	Name    string
	Text    string
	Present bool
}

// Condition explains why a source contributed nothing.
type Condition int

const (
	Missing Condition = iota
	Empty
)

func (c Condition) String() string {
	if c == Empty {
		return "empty"
	}
	return "missing"
}

func (c Condition) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// SourceStatus records a source that was missing or empty.
type SourceStatus struct {
	Name      string    `json:"name"`
	Condition Condition `json:"condition"`
}

// Warning reports one glossary line that was skipped.
type Warning struct {
	Source string `json:"source"`
	Line   int    `json:"line"`
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

func (w Warning) String() string {
	text := w.Text
	if utf8.RuneCountInString(text) > 40 {
		text = string([]rune(text)[:36]) + "..."
	}
	return fmt.Sprintf("ignored misformatted line %q at [%s:%d]: %s", text, w.Source, w.Line, w.Reason)
}

// Result is the outcome of a compilation: the table plus every
// recoverable condition met on the way.
type Result struct {
	Dict     *Compiled      `json:"-"`
	Warnings []Warning      `json:"warnings,omitempty"`
	Absent   []SourceStatus `json:"absent,omitempty"`
}

// AbsentSource reports whether the named source was missing or empty.
func (r *Result) AbsentSource(name string) (SourceStatus, bool) {
	for _, s := range r.Absent {
		if s.Name == name {
			return s, true
		}
	}
	return SourceStatus{}, false
}

// Compile builds the substitution table for lang. Standalone honorifics
// come first, then each source in order. Later definitions of a raw
// override earlier ones but keep the earlier position.
func Compile(sources []Source, rules []Rule, lang content.Language) *Result {
	active := activeRules(rules, lang)
	res := &Result{}

	var working []Entry
	for _, r := range active {
		if r.Standalone {
			working = append(working, Entry{Raw: r.Raw, Translation: r.Translation})
		}
	}

	for _, src := range sources {
		switch {
		case !src.Present:
			res.Absent = append(res.Absent, SourceStatus{Name: src.Name, Condition: Missing})
			continue
		case strings.TrimSpace(src.Text) == "":
			res.Absent = append(res.Absent, SourceStatus{Name: src.Name, Condition: Empty})
			continue
		}
		entries, warnings := parseSource(src, active)
		working = append(working, entries...)
		res.Warnings = append(res.Warnings, warnings...)
	}

	for i := range working {
		working[i].Raw = html.EscapeString(working[i].Raw)
		working[i].Translation = html.EscapeString(working[i].Translation)
	}
	sort.SliceStable(working, func(i, j int) bool {
		return utf8.RuneCountInString(working[i].Raw) > utf8.RuneCountInString(working[j].Raw)
	})

	res.Dict = &Compiled{entries: dedupe(working)}
	return res
}

func dedupe(sorted []Entry) []Entry {
	pos := make(map[string]int, len(sorted))
	out := make([]Entry, 0, len(sorted))
	for _, e := range sorted {
		if i, ok := pos[e.Raw]; ok {
			out[i] = e
			continue
		}
		pos[e.Raw] = len(out)
		out = append(out, e)
	}
	return out
}

// Check parses text as a standalone glossary and returns its warnings.
// It is used to validate edits and imports before they are saved.
func Check(name, text string, rules []Rule, lang content.Language) (int, []Warning) {
	entries, warnings := parseSource(Source{Name: name, Text: text, Present: true}, activeRules(rules, lang))
	return len(entries), warnings
}

func parseSource(src Source, rules []Rule) ([]Entry, []Warning) {
	var (
		entries  []Entry
		warnings []Warning
	)
	for i, line := range strings.Split(src.Text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}

		var reason string
		if m := namePattern.FindStringSubmatch(line); m != nil {
			raws := strings.Split(strings.TrimSpace(m[1]), nameDivider)
			trans := strings.Split(strings.TrimSpace(m[2]), nameDivider)
			if reason = validateName(raws, trans); reason == "" {
				entries = append(entries, ExpandName(raws, trans, comment(m[3]), rules)...)
				continue
			}
		}

		if m := defnPattern.FindStringSubmatch(line); m != nil {
			raw, trans := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
			if raw != "" && trans != "" {
				entries = append(entries, Entry{Raw: raw, Translation: trans, Comment: comment(m[3])})
				continue
			}
			reason = "Cannot have empty entries within a definition"
		}

		if reason == "" {
			reason = "Unrecognized syntactical construct"
		}
		warnings = append(warnings, Warning{Source: src.Name, Line: i + 1, Text: line, Reason: reason})
	}
	return entries, warnings
}

func validateName(raws, trans []string) string {
	if len(raws) != len(trans) {
		return fmt.Sprintf("Misbalanced name tag (left:%d, right:%d)", len(raws), len(trans))
	}
	for i := range raws {
		if raws[i] == "" || trans[i] == "" {
			return "Cannot have empty entries within a name tag"
		}
	}
	return ""
}

// comment strips the marker from a captured "// ..." suffix and bounds it.
func comment(marked string) string {
	if len(marked) < 2 {
		return ""
	}
	r := []rune(marked[2:])
	if len(r) > CommentMaxLen {
		r = r[:CommentMaxLen]
	}
	return strings.TrimSpace(string(r))
}

package hosts

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgallion1/customtrans/internal/content"
	"golang.org/x/text/encoding"
)

// Host names a supported source site.
type Host int

const (
	Syosetu Host = iota
	Kakuyomu
	Biquyun
	Shu69
)

var hostNames = map[Host]string{
	Syosetu:  "Syosetu",
	Kakuyomu: "Kakuyomu",
	Biquyun:  "Biquyun",
	Shu69:    "69shu",
}

// All lists every supported host in declaration order.
var All = []Host{Syosetu, Kakuyomu, Biquyun, Shu69}

func (h Host) String() string {
	if s, ok := hostNames[h]; ok {
		return s
	}
	return fmt.Sprintf("host(%d)", int(h))
}

// ParseHost resolves a host by its name, case-insensitively.
func ParseHost(s string) (Host, error) {
	s = strings.TrimSpace(s)
	for h, name := range hostNames {
		if strings.EqualFold(s, name) {
			return h, nil
		}
	}
	if strings.EqualFold(s, "shu69") {
		return Shu69, nil
	}
	return 0, fmt.Errorf("unknown host %q", s)
}

func (h Host) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Host) UnmarshalText(b []byte) error {
	v, err := ParseHost(string(b))
	if err != nil {
		return err
	}
	*h = v
	return nil
}

// Volume groups chapters under an index-page header.
type Volume struct {
	Number   int           `json:"number" toml:"number"`
	Title    string        `json:"title" toml:"title"`
	Chapters []ChapterInfo `json:"chapters" toml:"chapters"`
}

// ChapterInfo describes one chapter as listed on an index page.
type ChapterInfo struct {
	Ordinal    int       `json:"ordinal" toml:"ordinal"`
	Title      string    `json:"title" toml:"title"`
	DatePosted time.Time `json:"date_posted" toml:"date_posted"`
}

// Adapter normalizes one host's markup. Implementations hold no mutable
// state and are safe for concurrent use.
type Adapter interface {
	Host() Host
	Language() content.Language
	// Encoding is the legacy charset the host serves, or nil when the
	// response declares its own.
	Encoding() encoding.Encoding
	SeriesURL(workCode string) string

	LatestChapterCount(index string) (int, error)
	// ChapterLookupTable returns nil for hosts whose chapter token is the
	// ordinal itself.
	ChapterLookupTable(index string) ([]string, error)
	ChapterURL(workCode string, ordinal int, table []string) (string, error)
	ParseChapter(markup string) ([]content.Record, error)
	VolumesData(index string) ([]Volume, error)
}

// ForHost returns the adapter for a host.
func ForHost(h Host) (Adapter, error) {
	switch h {
	case Syosetu:
		return &SyosetuAdapter{}, nil
	case Kakuyomu:
		return &KakuyomuAdapter{}, nil
	case Biquyun:
		return &BiquyunAdapter{}, nil
	case Shu69:
		return &Shu69Adapter{}, nil
	default:
		return nil, fmt.Errorf("unsupported host: %s", h)
	}
}

// ErrChapterOutOfRange is returned when an ordinal has no chapter token.
var ErrChapterOutOfRange = errors.New("chapter out of range")

// ParseError reports markup that lacks the structure an adapter requires.
type ParseError struct {
	Host   Host
	URL    string
	Reason string
}

func (e *ParseError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("%s: content malformed: %s", e.Host, e.Reason)
	}
	return fmt.Sprintf("%s: content malformed at %s: %s", e.Host, e.URL, e.Reason)
}

// tokenFor resolves an ordinal against a lookup table.
func tokenFor(ordinal int, table []string) (string, error) {
	if ordinal < 1 || ordinal > len(table) {
		return "", fmt.Errorf("%w: %d of %d", ErrChapterOutOfRange, ordinal, len(table))
	}
	return table[ordinal-1], nil
}

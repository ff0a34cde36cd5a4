package hosts

import (
	"html"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgallion1/customtrans/internal/content"
)

var jst = time.FixedZone("JST", 9*60*60)

func newDocument(markup string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(markup))
}

// first returns the first selection matching any selector, in priority
// order, or nil.
func first(doc *goquery.Document, selectors ...string) *goquery.Selection {
	for _, sel := range selectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			return s
		}
	}
	return nil
}

func firstText(doc *goquery.Document, selectors ...string) string {
	s := first(doc, selectors...)
	if s == nil {
		return ""
	}
	return strings.TrimSpace(s.Text())
}

// collectParagraphs appends the direct <p> children of a section. A
// paragraph holding images contributes its images instead of its text;
// image sources are resolved against base.
func collectParagraphs(acc *content.Accumulator, kind content.Kind, base *url.URL, section *goquery.Selection) {
	if section == nil {
		return
	}
	section.ChildrenFiltered("p").Each(func(_ int, p *goquery.Selection) {
		imgs := p.Find("img")
		if imgs.Length() == 0 {
			acc.AddText(kind, p.Text())
			return
		}
		imgs.Each(func(_ int, img *goquery.Selection) {
			src, _ := img.Attr("src")
			if abs, ok := absoluteImage(base, src); ok {
				acc.AddImage(kind, abs)
			}
		})
	})
}

// absoluteImage resolves an image source against base. Protocol-relative
// sources take base's scheme. Empty or unparsable sources are dropped.
func absoluteImage(base *url.URL, src string) (string, bool) {
	src = strings.TrimSpace(src)
	if src == "" {
		return "", false
	}
	ref, err := url.Parse(src)
	if err != nil {
		return "", false
	}
	return base.ResolveReference(ref).String(), true
}

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}

// stripRuby reduces ruby annotations to their base text.
func stripRuby(doc *goquery.Document) {
	doc.Find("ruby rt, ruby rp").Remove()
}

// Lines in the Chinese hosts' chapter bodies are indented with four
// non-breaking spaces and terminated by the next tag.
var nbspLinePattern = regexp.MustCompile(`&nbsp;&nbsp;&nbsp;&nbsp;(.*?)<`)

func nbspLines(markup string) []string {
	matches := nbspLinePattern.FindAllStringSubmatch(markup, -1)
	lines := make([]string, 0, len(matches))
	for _, m := range matches {
		line := strings.TrimSpace(html.UnescapeString(m[1]))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// parseDate tries each layout in turn; unparsable dates yield zero time.
func parseDate(value string, layouts ...string) time.Time {
	value = strings.TrimSpace(value)
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, value, jst); err == nil {
			return t
		}
	}
	return time.Time{}
}

// flatVolume wraps an unstructured chapter list into a single volume.
func flatVolume(titles []string) []Volume {
	if len(titles) == 0 {
		return nil
	}
	v := Volume{Number: 1, Chapters: make([]ChapterInfo, 0, len(titles))}
	for i, t := range titles {
		v.Chapters = append(v.Chapters, ChapterInfo{Ordinal: i + 1, Title: strings.TrimSpace(t)})
	}
	return []Volume{v}
}

package hosts

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgallion1/customtrans/internal/content"
	"golang.org/x/text/encoding"
)

const syosetuBase = "https://ncode.syosetu.com/"

var syosetuRoot = mustParseURL(syosetuBase)

var syosetuStamp = regexp.MustCompile(`\d{4}/\d{2}/\d{2} \d{2}:\d{2}`)

// SyosetuAdapter handles ncode.syosetu.com, where the chapter token is
// the ordinal. Both the classic novel_* markup and the p-novel__* layout
// are accepted.
type SyosetuAdapter struct{}

func (a *SyosetuAdapter) Host() Host                  { return Syosetu }
func (a *SyosetuAdapter) Language() content.Language  { return content.Japanese }
func (a *SyosetuAdapter) Encoding() encoding.Encoding { return nil }

func (a *SyosetuAdapter) SeriesURL(workCode string) string {
	return syosetuBase + strings.ToLower(workCode) + "/"
}

func (a *SyosetuAdapter) LatestChapterCount(index string) (int, error) {
	doc, err := newDocument(index)
	if err != nil {
		return 0, fmt.Errorf("parse syosetu index: %w", err)
	}
	return doc.Find("dl.novel_sublist2, div.p-eplist__sublist").Length(), nil
}

func (a *SyosetuAdapter) ChapterLookupTable(string) ([]string, error) {
	return nil, nil
}

func (a *SyosetuAdapter) ChapterURL(workCode string, ordinal int, _ []string) (string, error) {
	if ordinal < 1 {
		return "", fmt.Errorf("%w: %d", ErrChapterOutOfRange, ordinal)
	}
	return a.SeriesURL(workCode) + strconv.Itoa(ordinal) + "/", nil
}

func (a *SyosetuAdapter) ParseChapter(markup string) ([]content.Record, error) {
	doc, err := newDocument(markup)
	if err != nil {
		return nil, &ParseError{Host: Syosetu, Reason: err.Error()}
	}
	stripRuby(doc)

	main := first(doc,
		"div#novel_honbun",
		"div.p-novel__text:not(.p-novel__text--preface):not(.p-novel__text--afterword)")
	if main == nil {
		return nil, &ParseError{Host: Syosetu, Reason: "main content section not found"}
	}

	acc := content.NewAccumulator()
	acc.AddText(content.KindTitle, firstText(doc, "p.novel_subtitle", "h1.p-novel__title"))
	collectParagraphs(acc, content.KindPrescript, syosetuRoot, first(doc, "div#novel_p", "div.p-novel__text--preface"))
	collectParagraphs(acc, content.KindMain, syosetuRoot, main)
	if acc.Count(content.KindMain) == 0 {
		return nil, &ParseError{Host: Syosetu, Reason: "main content section is empty"}
	}
	collectParagraphs(acc, content.KindPostscript, syosetuRoot, first(doc, "div#novel_a", "div.p-novel__text--afterword"))

	return acc.Records(), nil
}

func (a *SyosetuAdapter) VolumesData(index string) ([]Volume, error) {
	doc, err := newDocument(index)
	if err != nil {
		return nil, fmt.Errorf("parse syosetu index: %w", err)
	}

	var (
		volumes []Volume
		ordinal int
	)
	entries := doc.Find("div.index_box > div.chapter_title, div.index_box > dl.novel_sublist2, " +
		"div.p-eplist > div.p-eplist__chapter-title, div.p-eplist > div.p-eplist__sublist")
	entries.Each(func(_ int, s *goquery.Selection) {
		if s.HasClass("chapter_title") || s.HasClass("p-eplist__chapter-title") {
			volumes = append(volumes, Volume{
				Number: len(volumes) + 1,
				Title:  strings.TrimSpace(s.Text()),
			})
			return
		}
		if len(volumes) == 0 {
			volumes = append(volumes, Volume{Number: 1})
		}
		ordinal++
		title := s.Find("dd.subtitle a, a.p-eplist__subtitle").First().Text()
		// The update cell may carry a trailing revision marker.
		posted := syosetuStamp.FindString(s.Find("dt.long_update, div.p-eplist__update").First().Text())
		v := &volumes[len(volumes)-1]
		v.Chapters = append(v.Chapters, ChapterInfo{
			Ordinal:    ordinal,
			Title:      strings.TrimSpace(title),
			DatePosted: parseDate(posted, "2006/01/02 15:04"),
		})
	})
	return volumes, nil
}

package hosts

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgallion1/customtrans/internal/content"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
)

const shu69Base = "https://www.69shu.org/book/"

// Shu69Adapter handles www.69shu.org. Like Biquyun it serves GBK pages
// with per-chapter codes; the codes are the hrefs of the chapter list.
type Shu69Adapter struct{}

func (a *Shu69Adapter) Host() Host                  { return Shu69 }
func (a *Shu69Adapter) Language() content.Language  { return content.Chinese }
func (a *Shu69Adapter) Encoding() encoding.Encoding { return simplifiedchinese.GBK }

func (a *Shu69Adapter) SeriesURL(workCode string) string {
	return shu69Base + workCode + "/"
}

func (a *Shu69Adapter) LatestChapterCount(index string) (int, error) {
	table, err := a.ChapterLookupTable(index)
	if err != nil {
		return 0, err
	}
	return len(table), nil
}

func (a *Shu69Adapter) chapterLinks(index string) (*goquery.Selection, error) {
	doc, err := newDocument(index)
	if err != nil {
		return nil, fmt.Errorf("parse 69shu index: %w", err)
	}
	list := doc.Find("ul.chapterlist").First()
	if list.Length() == 0 {
		return nil, fmt.Errorf("69shu index has no chapter list")
	}
	// Volume headers are list items with a class; chapters have none.
	return list.Find("li:not([class]) a[href]"), nil
}

func (a *Shu69Adapter) ChapterLookupTable(index string) ([]string, error) {
	links, err := a.chapterLinks(index)
	if err != nil {
		return nil, err
	}
	table := make([]string, 0, links.Length())
	links.Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		table = append(table, strings.TrimSpace(href))
	})
	return table, nil
}

func (a *Shu69Adapter) ChapterURL(workCode string, ordinal int, table []string) (string, error) {
	token, err := tokenFor(ordinal, table)
	if err != nil {
		return "", err
	}
	base, err := url.Parse(a.SeriesURL(workCode))
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(token)
	if err != nil {
		return "", fmt.Errorf("bad chapter token %q: %w", token, err)
	}
	return base.ResolveReference(ref).String(), nil
}

func (a *Shu69Adapter) ParseChapter(markup string) ([]content.Record, error) {
	doc, err := newDocument(markup)
	if err != nil {
		return nil, &ParseError{Host: Shu69, Reason: err.Error()}
	}

	lines := nbspLines(markup)
	if len(lines) == 0 {
		return nil, &ParseError{Host: Shu69, Reason: "no content lines found"}
	}

	title := firstText(doc, "div.h1title h1")
	if title == "" {
		title = "NOTITLE"
	}

	acc := content.NewAccumulator()
	acc.AddText(content.KindTitle, title)
	for _, line := range lines {
		acc.AddText(content.KindMain, line)
	}
	return acc.Records(), nil
}

func (a *Shu69Adapter) VolumesData(index string) ([]Volume, error) {
	links, err := a.chapterLinks(index)
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, links.Length())
	links.Each(func(_ int, s *goquery.Selection) {
		titles = append(titles, s.Text())
	})
	return flatVolume(titles), nil
}

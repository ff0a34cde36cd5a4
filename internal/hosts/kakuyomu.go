package hosts

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgallion1/customtrans/internal/content"
	"golang.org/x/text/encoding"
)

const kakuyomuBase = "https://kakuyomu.jp/works/"

var kakuyomuRoot = mustParseURL("https://kakuyomu.jp/")

// KakuyomuAdapter handles kakuyomu.jp. Episodes are addressed by opaque
// ids scraped from the table of contents, which also groups them into
// volumes.
type KakuyomuAdapter struct{}

func (a *KakuyomuAdapter) Host() Host                  { return Kakuyomu }
func (a *KakuyomuAdapter) Language() content.Language  { return content.Japanese }
func (a *KakuyomuAdapter) Encoding() encoding.Encoding { return nil }

func (a *KakuyomuAdapter) SeriesURL(workCode string) string {
	return kakuyomuBase + workCode
}

func (a *KakuyomuAdapter) LatestChapterCount(index string) (int, error) {
	table, err := a.ChapterLookupTable(index)
	if err != nil {
		return 0, err
	}
	return len(table), nil
}

func (a *KakuyomuAdapter) ChapterLookupTable(index string) ([]string, error) {
	doc, err := newDocument(index)
	if err != nil {
		return nil, fmt.Errorf("parse kakuyomu index: %w", err)
	}
	var table []string
	doc.Find("a.widget-toc-episode-episodeTitle").Each(func(_ int, s *goquery.Selection) {
		if id := episodeID(s); id != "" {
			table = append(table, id)
		}
	})
	return table, nil
}

func (a *KakuyomuAdapter) ChapterURL(workCode string, ordinal int, table []string) (string, error) {
	token, err := tokenFor(ordinal, table)
	if err != nil {
		return "", err
	}
	return a.SeriesURL(workCode) + "/episodes/" + token, nil
}

func (a *KakuyomuAdapter) ParseChapter(markup string) ([]content.Record, error) {
	doc, err := newDocument(markup)
	if err != nil {
		return nil, &ParseError{Host: Kakuyomu, Reason: err.Error()}
	}
	stripRuby(doc)

	body := first(doc, "div.widget-episodeBody")
	if body == nil {
		return nil, &ParseError{Host: Kakuyomu, Reason: "episode body not found"}
	}

	acc := content.NewAccumulator()
	acc.AddText(content.KindTitle, firstText(doc, "p.widget-episodeTitle"))
	collectParagraphs(acc, content.KindMain, kakuyomuRoot, body)
	if acc.Count(content.KindMain) == 0 {
		return nil, &ParseError{Host: Kakuyomu, Reason: "episode body is empty"}
	}
	return acc.Records(), nil
}

func (a *KakuyomuAdapter) VolumesData(index string) ([]Volume, error) {
	doc, err := newDocument(index)
	if err != nil {
		return nil, fmt.Errorf("parse kakuyomu index: %w", err)
	}

	var (
		volumes []Volume
		ordinal int
	)
	doc.Find("li.widget-toc-chapter, li.widget-toc-episode").Each(func(_ int, s *goquery.Selection) {
		if s.HasClass("widget-toc-chapter") {
			volumes = append(volumes, Volume{
				Number: len(volumes) + 1,
				Title:  strings.TrimSpace(s.Text()),
			})
			return
		}
		link := s.Find("a.widget-toc-episode-episodeTitle").First()
		if episodeID(link) == "" {
			return
		}
		if len(volumes) == 0 {
			volumes = append(volumes, Volume{Number: 1})
		}
		ordinal++
		title := link.Find("span.widget-toc-episode-titleLabel").Text()
		if title == "" {
			title = link.Text()
		}
		stamp, _ := s.Find("time.widget-toc-episode-datePublished").Attr("datetime")
		posted, _ := time.Parse(time.RFC3339, stamp)

		v := &volumes[len(volumes)-1]
		v.Chapters = append(v.Chapters, ChapterInfo{
			Ordinal:    ordinal,
			Title:      strings.TrimSpace(title),
			DatePosted: posted,
		})
	})
	return volumes, nil
}

// episodeID extracts the id from an /works/{work}/episodes/{id} link.
func episodeID(link *goquery.Selection) string {
	href, ok := link.Attr("href")
	if !ok || !strings.Contains(href, "/episodes/") {
		return ""
	}
	return path.Base(strings.TrimSuffix(href, "/"))
}

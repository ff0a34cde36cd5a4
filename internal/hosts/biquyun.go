package hosts

import (
	"regexp"

	"github.com/dgallion1/customtrans/internal/content"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
)

const biquyunBase = "https://www.biquyun.com/"

var biquyunChapterLink = regexp.MustCompile(`<a href="/.*?/(.*?)\.html">(.*?)</a>`)

// BiquyunAdapter handles www.biquyun.com. Pages are GBK encoded and
// chapters carry erratic codes listed on the index page.
type BiquyunAdapter struct{}

func (a *BiquyunAdapter) Host() Host                  { return Biquyun }
func (a *BiquyunAdapter) Language() content.Language  { return content.Chinese }
func (a *BiquyunAdapter) Encoding() encoding.Encoding { return simplifiedchinese.GBK }

func (a *BiquyunAdapter) SeriesURL(workCode string) string {
	return biquyunBase + workCode + "/"
}

func (a *BiquyunAdapter) LatestChapterCount(index string) (int, error) {
	table, err := a.ChapterLookupTable(index)
	if err != nil {
		return 0, err
	}
	return len(table), nil
}

func (a *BiquyunAdapter) ChapterLookupTable(index string) ([]string, error) {
	var table []string
	for _, m := range biquyunChapterLink.FindAllStringSubmatch(index, -1) {
		table = append(table, m[1])
	}
	return table, nil
}

func (a *BiquyunAdapter) ChapterURL(workCode string, ordinal int, table []string) (string, error) {
	token, err := tokenFor(ordinal, table)
	if err != nil {
		return "", err
	}
	return a.SeriesURL(workCode) + token + ".html", nil
}

func (a *BiquyunAdapter) ParseChapter(markup string) ([]content.Record, error) {
	doc, err := newDocument(markup)
	if err != nil {
		return nil, &ParseError{Host: Biquyun, Reason: err.Error()}
	}

	lines := nbspLines(markup)
	if len(lines) == 0 {
		return nil, &ParseError{Host: Biquyun, Reason: "no content lines found"}
	}

	acc := content.NewAccumulator()
	acc.AddText(content.KindTitle, firstText(doc, "div.bookname h1"))
	for _, line := range lines {
		acc.AddText(content.KindMain, line)
	}
	return acc.Records(), nil
}

func (a *BiquyunAdapter) VolumesData(index string) ([]Volume, error) {
	matches := biquyunChapterLink.FindAllStringSubmatch(index, -1)
	titles := make([]string, 0, len(matches))
	for _, m := range matches {
		titles = append(titles, m[2])
	}
	return flatVolume(titles), nil
}

package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/customtrans/internal/catalog"
	"github.com/dgallion1/customtrans/internal/glossstore"
	"github.com/dgallion1/customtrans/internal/hosts"
	"github.com/dgallion1/customtrans/internal/rendercache"
	"github.com/dgallion1/customtrans/internal/tokenstore"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding"
)

const (
	nrtIndexURL   = "https://ncode.syosetu.com/n1234ab/"
	nrtChapter1   = "https://ncode.syosetu.com/n1234ab/1/"
	nrtChapter2   = "https://ncode.syosetu.com/n1234ab/2/"
	nrtGlossary   = "NRT_Syosetu_n1234ab.dict"
	bqyIndexURL   = "https://www.biquyun.com/0_703/"
	bqyChapterURL = "https://www.biquyun.com/0_703/xyz789.html"
)

const syosetuChapter = `<html><body>
<p class="novel_subtitle">第一話　始まり</p>
<div id="novel_honbun" class="novel_view">
<p id="L1"><ruby><rb>魔法</rb><rp>(</rp><rt>まほう</rt><rp>)</rp></ruby>を使った</p>
<p id="L2">ナルトは笑った</p>
</div>
</body></html>`

const syosetuIndex = `<html><body>
<div class="index_box">
<div class="chapter_title">第一章</div>
<dl class="novel_sublist2"><dd class="subtitle"><a href="/n1234ab/1/">プロローグ</a></dd><dt class="long_update">2020/01/02 10:00</dt></dl>
<dl class="novel_sublist2"><dd class="subtitle"><a href="/n1234ab/2/">出会い</a></dd><dt class="long_update">2020/01/03 10:00</dt></dl>
<div class="chapter_title">第二章</div>
<dl class="novel_sublist2"><dd class="subtitle"><a href="/n1234ab/3/">旅立ち</a></dd><dt class="long_update">2020/02/01 09:30</dt></dl>
</div>
</body></html>`

const biquyunIndex = `<div id="list"><dl>
<dd><a href="/0_703/abc123.html">第一章 开始</a></dd>
<dd><a href="/0_703/xyz789.html">第二章 相遇</a></dd>
</dl></div>`

const biquyunChapter = `<div class="bookname"><h1>第二章 相遇</h1></div>` +
	`<div id="content">&nbsp;&nbsp;&nbsp;&nbsp;他拿起剑<br /></div>`

// fakeFetcher serves fixed pages. Queued errors for a URL are returned,
// in order, before its page; unknown URLs fail permanently.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	errs  map[string][]error
	calls map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages: make(map[string]string),
		errs:  make(map[string][]error),
		calls: make(map[string]int),
	}
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string, _ encoding.Encoding) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	if q := f.errs[url]; len(q) > 0 {
		f.errs[url] = q[1:]
		return "", q[0]
	}
	page, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("fetch %s: status 404", url)
	}
	return page, nil
}

func (f *fakeFetcher) set(url, page string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[url] = page
}

func (f *fakeFetcher) fail(url string, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[url] = append(f.errs[url], errs...)
}

func (f *fakeFetcher) count(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

type harness struct {
	o       *Orchestrator
	fetch   *fakeFetcher
	catalog *catalog.MemoryStore
	gloss   *glossstore.DirStore
	tokens  *tokenstore.MemoryStore
	cache   *rendercache.Cache
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cat := catalog.NewMemoryStore(catalog.Library{Works: []catalog.Work{
		{ID: "nrt", Title: "Naruto Gaiden", Abbr: "NRT", Host: hosts.Syosetu, Code: "n1234ab", LatestChapter: 2},
		{ID: "bqy", Title: "西游记", Abbr: "BQY", Host: hosts.Biquyun, Code: "0_703", LatestChapter: 2},
	}}, "")
	gloss, err := glossstore.Open(t.TempDir())
	require.NoError(t, err)
	cache, err := rendercache.New(rendercache.DefaultCapacity)
	require.NoError(t, err)

	f := newFakeFetcher()
	f.set(nrtChapter1, syosetuChapter)
	f.set(nrtIndexURL, syosetuIndex)
	f.set(bqyIndexURL, biquyunIndex)
	f.set(bqyChapterURL, biquyunChapter)

	h := &harness{
		fetch:   f,
		catalog: cat,
		gloss:   gloss,
		tokens:  tokenstore.NewMemoryStore(),
		cache:   cache,
	}
	h.o = New(Deps{
		Catalog:    cat,
		Glossaries: gloss,
		Tokens:     h.tokens,
		Fetcher:    f,
		Cache:      cache,
	}, Options{
		Retry:           RetryPolicy{MaxAttempts: 3, Base: time.Millisecond, Max: 2 * time.Millisecond},
		CreateSkeletons: true,
		UpdateWorkers:   2,
		MaxQueueSize:    4,
		JobTTL:          time.Minute,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return h
}

package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/dgallion1/customtrans/internal/catalog"
	"github.com/dgallion1/customtrans/internal/content"
	"github.com/dgallion1/customtrans/internal/dictionary"
	"github.com/dgallion1/customtrans/internal/fetch"
	"github.com/dgallion1/customtrans/internal/render"
	"github.com/dgallion1/customtrans/internal/rendercache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noticeText(a *render.Artifact) string {
	var parts []string
	for _, n := range a.Notices {
		parts = append(parts, n.Message)
	}
	return strings.Join(parts, "\n")
}

func TestChapter_RendersAndCaches(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	require.NoError(t, h.gloss.Write(nrtGlossary, "ナルト --> Naruto\n魔法 --> magic // spell\n"))
	require.NoError(t, h.gloss.Write(dictionary.CommonName, "笑った --> laughed\n"))

	a, err := h.o.Chapter(ctx, "nrt", 1)
	require.NoError(t, err)
	require.True(t, a.Available)
	assert.Empty(t, a.Notices)
	assert.Equal(t, nrtChapter1, a.Frame.SourceURL)
	assert.Equal(t, "第一話　始まり", a.Frame.ChapterTitle)
	assert.Equal(t, 2, a.Frame.Next)

	main := a.Chapter.Section(content.KindMain)
	require.Len(t, main, 2)
	assert.Equal(t, "magicを使った", main[0].Translated(a.Chapter.Glossary))
	assert.Equal(t, "Narutoはlaughed", main[1].Translated(a.Chapter.Glossary))
	assert.Len(t, a.Chapter.Glossary, 3)

	assert.True(t, h.cache.Contains(rendercache.Key{WorkID: "nrt", Chapter: 1}))

	again, err := h.o.Chapter(ctx, "nrt", 1)
	require.NoError(t, err)
	assert.True(t, again.Available)
	assert.Equal(t, a.Frame, again.Frame)
	assert.Len(t, again.Chapter.Glossary, 3)
	assert.Equal(t, 1, h.fetch.count(nrtChapter1))
}

func TestChapter_CreatesSkeletonForMissingGlossary(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)

	a, err := h.o.Chapter(ctx, "nrt", 1)
	require.NoError(t, err)
	require.True(t, a.Available)
	assert.Contains(t, noticeText(a), "Glossary NRT_Syosetu_n1234ab.dict was missing; a new skeleton glossary was created.")
	assert.Contains(t, noticeText(a), "Glossary common_dict.dict is missing.")

	src, err := h.gloss.Read(nrtGlossary)
	require.NoError(t, err)
	require.True(t, src.Present)
	assert.Contains(t, src.Text, "// series_title :  Naruto Gaiden")
	assert.Contains(t, src.Text, "// series_link  :  "+nrtIndexURL)

	// The new skeleton applies at once, and the render that made it is
	// not cached so its notice is shown only once.
	assert.Len(t, a.Chapter.Glossary, 1)
	assert.False(t, h.cache.Contains(rendercache.Key{WorkID: "nrt", Chapter: 1}))

	again, err := h.o.Chapter(ctx, "nrt", 1)
	require.NoError(t, err)
	assert.NotContains(t, noticeText(again), "skeleton")
	assert.Equal(t, a.Chapter.Records, again.Chapter.Records)
	assert.Len(t, again.Chapter.Glossary, 1)
	assert.True(t, h.cache.Contains(rendercache.Key{WorkID: "nrt", Chapter: 1}))
}

func TestChapter_GlossaryWarningsAreNotices(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	require.NoError(t, h.gloss.Write(nrtGlossary, "ナルト --> Naruto\nthis line is wrong\n"))

	a, err := h.o.Chapter(context.Background(), "nrt", 1)
	require.NoError(t, err)
	require.True(t, a.Available)
	assert.Contains(t, noticeText(a), "ignored misformatted line")
	assert.Len(t, a.Chapter.Glossary, 1)
}

func TestChapter_RetriesTransientFailures(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.fetch.fail(nrtChapter1,
		&fetch.RetryableError{StatusCode: 503, Message: "busy"},
		&fetch.RetryableError{Message: "connection reset"})

	a, err := h.o.Chapter(context.Background(), "nrt", 1)
	require.NoError(t, err)
	assert.True(t, a.Available)
	assert.Equal(t, 3, h.fetch.count(nrtChapter1))
}

func TestChapter_UnreachableIsNotCached(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	for range 3 {
		h.fetch.fail(nrtChapter1, &fetch.RetryableError{StatusCode: 502, Message: "bad gateway"})
	}

	a, err := h.o.Chapter(ctx, "nrt", 1)
	require.NoError(t, err)
	assert.False(t, a.Available)
	assert.Contains(t, noticeText(a), "could not be reached after 3 attempt(s)")
	assert.Equal(t, "Naruto Gaiden", a.Frame.WorkTitle)
	assert.False(t, h.cache.Contains(rendercache.Key{WorkID: "nrt", Chapter: 1}))

	a, err = h.o.Chapter(ctx, "nrt", 1)
	require.NoError(t, err)
	assert.True(t, a.Available)
}

func TestChapter_PermanentFailureIsNotRetried(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	a, err := h.o.Chapter(context.Background(), "nrt", 2)
	require.NoError(t, err)
	assert.False(t, a.Available)
	assert.Equal(t, 1, h.fetch.count(nrtChapter2))
}

func TestChapter_ParseErrorIsNotCached(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.fetch.set(nrtChapter2, "<html><body><p>maintenance</p></body></html>")

	a, err := h.o.Chapter(context.Background(), "nrt", 2)
	require.NoError(t, err)
	assert.False(t, a.Available)
	assert.Contains(t, noticeText(a), "could not be read")
	assert.False(t, h.cache.Contains(rendercache.Key{WorkID: "nrt", Chapter: 2}))
}

func TestChapter_ErraticHostUsesTokenTable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)

	a, err := h.o.Chapter(ctx, "bqy", 2)
	require.NoError(t, err)
	require.True(t, a.Available)
	assert.Equal(t, bqyChapterURL, a.Frame.SourceURL)

	table, ok, err := h.tokens.Get(ctx, "bqy")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"abc123", "xyz789"}, table)
	assert.Equal(t, 1, h.fetch.count(bqyIndexURL))

	// Beyond the table: the index is re-read once, then the chapter is
	// reported as unlisted.
	a, err = h.o.Chapter(ctx, "bqy", 3)
	require.NoError(t, err)
	assert.False(t, a.Available)
	assert.Contains(t, noticeText(a), "not listed")
	assert.Equal(t, 2, h.fetch.count(bqyIndexURL))
}

func TestChapter_IndexFailureIsUnreachable(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	for range 3 {
		h.fetch.fail(bqyIndexURL, &fetch.RetryableError{StatusCode: 500, Message: "oops"})
	}

	a, err := h.o.Chapter(context.Background(), "bqy", 1)
	require.NoError(t, err)
	assert.False(t, a.Available)
	assert.Contains(t, noticeText(a), "could not be reached")

	_, ok, err := h.tokens.Get(context.Background(), "bqy")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChapter_UnknownWork(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	_, err := h.o.Chapter(context.Background(), "nope", 1)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestChapter_Cancelled(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.o.Chapter(ctx, "nrt", 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChapter_DisabledGlossaryIsSkipped(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	require.NoError(t, h.gloss.Write(nrtGlossary, "ナルト --> Naruto\n"))
	require.NoError(t, h.o.SetGlossaryEnabled(ctx, nrtGlossary, false))

	a, err := h.o.Chapter(ctx, "nrt", 1)
	require.NoError(t, err)
	assert.Empty(t, a.Chapter.Glossary)
	assert.NotContains(t, noticeText(a), nrtGlossary)
}

func TestChapter_HonorificExpansion(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	h.fetch.set(nrtChapter2, `<html><body><div id="novel_honbun"><p>ナルトさんが来た</p></div></body></html>`)
	require.NoError(t, h.gloss.Write(nrtGlossary, "@name{ナルト, Naruto}\n"))
	require.NoError(t, h.o.PutHonorific(ctx, dictionary.Rule{
		ID: "ja-san", Language: content.Japanese, Raw: "さん", Translation: "san", JoinWithDash: true, Enabled: true,
	}))

	a, err := h.o.Chapter(ctx, "nrt", 2)
	require.NoError(t, err)
	main := a.Chapter.Section(content.KindMain)
	require.Len(t, main, 1)
	assert.Equal(t, "Naruto-sanが来た", main[0].Translated(a.Chapter.Glossary))
}

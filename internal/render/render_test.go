package render

import (
	"bytes"
	"net/url"
	"strings"
	"testing"

	"github.com/dgallion1/customtrans/internal/annotate"
	"github.com/dgallion1/customtrans/internal/content"
	"github.com/dgallion1/customtrans/internal/dictionary"
	"github.com/fumiama/go-docx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleArtifact(t *testing.T) *Artifact {
	t.Helper()
	acc := content.NewAccumulator()
	acc.AddText(content.KindTitle, "第一話")
	acc.AddText(content.KindMain, "ナルトは<剣>を持った")
	acc.AddImage(content.KindMain, "https://example.com/a.png")
	acc.AddText(content.KindPostscript, "あとがき")

	res := dictionary.Compile([]dictionary.Source{{
		Name:    "w.dict",
		Present: true,
		Text:    "ナルト --> Naruto // lead\n剣 --> Sword & Shield\n",
	}}, nil, content.Japanese)
	require.Empty(t, res.Warnings)

	return &Artifact{
		Frame:     NewFrame("nrt", "Naruto Gaiden", 2, 3),
		Available: true,
		Chapter:   annotate.Annotate(acc.Records(), res.Dict),
	}
}

func TestNewFrame(t *testing.T) {
	t.Parallel()

	f := NewFrame("w", "W", 1, 1)
	assert.Zero(t, f.Prev)
	assert.Zero(t, f.Next)

	f = NewFrame("w", "W", 2, 3)
	assert.Equal(t, 1, f.Prev)
	assert.Equal(t, 3, f.Next)
}

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	a := sampleArtifact(t)
	a.Warn("ignored %d lines", 2)
	data, err := Encode(a)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	_, err = Decode([]byte("{"))
	assert.Error(t, err)
}

func TestWriteHTML(t *testing.T) {
	t.Parallel()

	a := sampleArtifact(t)
	a.Warn("ignored misformatted line")
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, a))
	out := buf.String()

	assert.Contains(t, out, `<p class="notice warning">ignored misformatted line</p>`)
	assert.Contains(t, out, `<span class="placeholder" id="p1">placeholder</span>は&lt;<span class="placeholder" id="p2">placeholder</span>&gt;を持った`)
	assert.Contains(t, out, `<img src="https://example.com/a.png">`)
	assert.Contains(t, out, `<li id="d2" data-raw="剣">Sword &amp; Shield</li>`)
	assert.Contains(t, out, `title="lead"`)
	assert.Contains(t, out, `class="prev"`)
	assert.Contains(t, out, `class="next"`)
	assert.Less(t, strings.Index(out, `class="title"`), strings.Index(out, `class="main"`))
	assert.Less(t, strings.Index(out, `class="main"`), strings.Index(out, `class="postscript"`))
}

func TestWriteHTML_RawLines(t *testing.T) {
	t.Parallel()

	a := sampleArtifact(t)
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, a))
	assert.NotContains(t, buf.String(), "content_raw")

	a.Language = content.Japanese
	buf.Reset()
	require.NoError(t, WriteHTML(&buf, a))
	out := buf.String()
	assert.Contains(t, out, `<p class="content_raw notranslate" id="r2">ナルトは&lt;剣&gt;を持った</p>`)
	assert.Contains(t, out, `<p class="content_raw notranslate" id="r4">あとがき</p>`)
	assert.Contains(t, out, `sl=ja`)
	assert.NotContains(t, out, `id="r3"`)

	a.Readings = map[int]string{2: "ナルトハケンヲモッタ"}
	buf.Reset()
	require.NoError(t, WriteHTML(&buf, a))
	assert.Contains(t, buf.String(), `<p class="content_raw notranslate" id="r2">ナルトハケンヲモッタ</p>`)

	a.Language = content.Chinese
	buf.Reset()
	require.NoError(t, WriteHTML(&buf, a))
	out = buf.String()
	assert.Contains(t, out, `<p class="content_raw notranslate" id="r2">ナルトは&lt;剣&gt;を持った</p>`)
	assert.Contains(t, out, `sl=zh-CN`)
}

func TestWriteHTML_NavigationKeepsFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, sampleArtifact(t)))
	out := buf.String()
	assert.Contains(t, out, `<a class="prev" href="1?format=html">`)
	assert.Contains(t, out, `<a class="next" href="3?format=html">`)
}

func TestTranslateURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		lang content.Language
		sl   string
	}{
		{content.Japanese, "ja"},
		{content.Chinese, "zh-CN"},
		{"", "auto"},
	}
	for _, tt := range tests {
		u, err := url.Parse(TranslateURL(tt.lang, `他说"好" & 走`))
		require.NoError(t, err)
		assert.Equal(t, "translate.google.com", u.Host)
		q := u.Query()
		assert.Equal(t, tt.sl, q.Get("sl"))
		assert.Equal(t, "en", q.Get("tl"))
		assert.Equal(t, `他说"好" & 走`, q.Get("text"))
	}
}

func TestWriteHTML_Unavailable(t *testing.T) {
	t.Parallel()

	a := Unavailable(NewFrame("nrt", "Naruto Gaiden", 5, 5), "The source site could not be reached.")
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, a))
	out := buf.String()

	assert.Contains(t, out, "Naruto Gaiden")
	assert.Contains(t, out, `<p class="notice error">The source site could not be reached.</p>`)
	assert.Contains(t, out, `class="prev"`)
	assert.NotContains(t, out, "<section")
}

func TestWriteDOCX(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteDOCX(&buf, sampleArtifact(t)))

	doc, err := docx.Parse(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	var paras []string
	for _, item := range doc.Document.Body.Items {
		p, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		var b strings.Builder
		for _, child := range p.Children {
			if run, ok := child.(*docx.Run); ok {
				for _, rc := range run.Children {
					if txt, ok := rc.(*docx.Text); ok {
						b.WriteString(txt.Text)
					}
				}
			}
		}
		paras = append(paras, b.String())
	}
	assert.Equal(t, []string{
		"Naruto Gaiden",
		"第一話",
		"Narutoは<Sword & Shield>を持った",
		"[image: https://example.com/a.png]",
		"あとがき",
	}, paras)
}

func TestWriteDOCX_Unavailable(t *testing.T) {
	t.Parallel()
	err := WriteDOCX(&bytes.Buffer{}, Unavailable(NewFrame("w", "W", 1, 1), "gone"))
	assert.Error(t, err)
}

func TestReader(t *testing.T) {
	t.Parallel()

	r, err := NewReader()
	require.NoError(t, err)
	assert.Equal(t, "ネコ", r.Reading("猫"))
	assert.Equal(t, "ABC", r.Reading("ABC"))

	a := sampleArtifact(t)
	r.Annotate(a)
	main := a.Chapter.Section(content.KindMain)
	require.Len(t, main, 2)
	assert.NotEmpty(t, a.Readings[main[0].Sequence])
	assert.NotContains(t, a.Readings, main[1].Sequence)
}

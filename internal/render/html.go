package render

import (
	"fmt"
	"html"
	"html/template"
	"io"
	"net/url"

	"github.com/dgallion1/customtrans/internal/annotate"
	"github.com/dgallion1/customtrans/internal/content"
)

var sectionKinds = []content.Kind{content.KindTitle, content.KindPrescript, content.KindMain, content.KindPostscript}

var page = template.Must(template.New("chapter").Funcs(template.FuncMap{
	"kinds":   func() []content.Kind { return sectionKinds },
	"section": func(a *Artifact, kind content.Kind) []annotate.Record { return a.Chapter.Section(kind) },
	"image":   func(r annotate.Record) bool { return r.Form == content.FormImage },
	"body":    func(r annotate.Record) template.HTML { return template.HTML(r.HTML()) },
	"raw":       RawLine,
	"translate": func(a *Artifact, r annotate.Record) string { return TranslateURL(a.Language, r.Text) },
	// Glossary text is stored escaped; the template escapes it again.
	"plain": html.UnescapeString,
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Frame.WorkTitle}} {{.Frame.Chapter}}</title>
</head>
<body>
<header>
<h1 class="work">{{.Frame.WorkTitle}}</h1>
{{- if .Frame.ChapterTitle}}
<h2 class="chapter">{{.Frame.ChapterTitle}}</h2>
{{- end}}
<nav>
{{- if .Frame.Prev}}<a class="prev" href="{{.Frame.Prev}}?format=html">&lt; {{.Frame.Prev}}</a>{{end}}
<span class="position">{{.Frame.Chapter}} / {{.Frame.Latest}}</span>
{{- if .Frame.Next}}<a class="next" href="{{.Frame.Next}}?format=html">{{.Frame.Next}} &gt;</a>{{end}}
</nav>
{{- if .Frame.SourceURL}}
<a class="source" href="{{.Frame.SourceURL}}">source</a>
{{- end}}
</header>
{{- range .Notices}}
<p class="notice {{.Level}}">{{.Message}}</p>
{{- end}}
{{- if .Available}}
{{- $a := .}}
{{- range $kind := kinds}}
<section class="{{$kind}}">
{{- range section $a $kind}}
{{- if image .}}
<img src="{{.ImageSource}}">
{{- else}}
<p id="l{{.Sequence}}">{{body .}}</p>
{{- if $a.Language}}
<a class="raw" href="{{translate $a .}}" target="_blank"><p class="content_raw notranslate" id="r{{.Sequence}}">{{raw $a .}}</p></a>
{{- end}}
{{- end}}
{{- end}}
</section>
{{- end}}
<ol class="dictionary">
{{- range .Chapter.Glossary}}
<li id="d{{.Index}}" data-raw="{{plain .Raw}}"{{if .Comment}} title="{{.Comment}}"{{end}}>{{plain .Translation}}</li>
{{- end}}
</ol>
{{- end}}
</body>
</html>
`))

// translateLanguages maps source languages to the translator's codes.
var translateLanguages = map[content.Language]string{
	content.Japanese: "ja",
	content.Chinese:  "zh-CN",
}

// TranslateURL links text to a machine translation into English.
func TranslateURL(lang content.Language, text string) string {
	sl, ok := translateLanguages[lang]
	if !ok {
		sl = "auto"
	}
	q := url.Values{}
	q.Set("sl", sl)
	q.Set("tl", "en")
	q.Set("op", "translate")
	q.Set("text", text)
	return "https://translate.google.com/?" + q.Encode()
}

// RawLine is the untranslated line shown under a record: its katakana
// reading for Japanese when one is known, the source text otherwise.
func RawLine(a *Artifact, r annotate.Record) string {
	if a.Language == content.Japanese {
		if reading, ok := a.Readings[r.Sequence]; ok {
			return reading
		}
	}
	return r.Text
}

// WriteHTML renders the chapter page. Placeholders are left in place for
// the reader's script to fill from the dictionary list.
func WriteHTML(w io.Writer, a *Artifact) error {
	if err := page.Execute(w, a); err != nil {
		return fmt.Errorf("render chapter page: %w", err)
	}
	return nil
}

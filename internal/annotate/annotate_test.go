package annotate

import (
	"testing"

	"github.com/dgallion1/customtrans/internal/content"
	"github.com/dgallion1/customtrans/internal/dictionary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, text string, rules ...dictionary.Rule) *dictionary.Compiled {
	t.Helper()
	res := dictionary.Compile([]dictionary.Source{{Name: "w.dict", Text: text, Present: true}}, rules, content.Japanese)
	require.Empty(t, res.Warnings)
	return res.Dict
}

func textRecord(seq int, text string) content.Record {
	return content.Record{Kind: content.KindMain, Form: content.FormText, Sequence: seq, Text: text}
}

func TestAnnotate_SimpleDefinition(t *testing.T) {
	t.Parallel()

	ch := Annotate([]content.Record{textRecord(1, "ナルトは笑った")}, compile(t, "ナルト --> Naruto"))

	require.Len(t, ch.Records, 1)
	assert.Equal(t, []Segment{{Ref: 1}, {Text: "は笑った"}}, ch.Records[0].Segments)
	assert.Equal(t, `<span class="placeholder" id="p1">placeholder</span>は笑った`, ch.Records[0].HTML())
	assert.Equal(t, []GlossaryItem{{Index: 1, Raw: "ナルト", Translation: "Naruto"}}, ch.Glossary)
}

func TestAnnotate_LongestMatchWins(t *testing.T) {
	t.Parallel()

	san := dictionary.Rule{Language: content.Japanese, Raw: "さん", Translation: "san", JoinWithDash: true, Enabled: true}
	dict := compile(t, "@name{ナルト, Naruto}", san)

	ch := Annotate([]content.Record{textRecord(1, "ナルトさんが来た")}, dict)
	rec := ch.Records[0]

	assert.Equal(t, 1, rec.References())
	require.Len(t, ch.Glossary, 1)
	assert.Equal(t, "Naruto-san", ch.Glossary[0].Translation)
	assert.Equal(t, "Naruto-sanが来た", rec.Translated(ch.Glossary))
}

func TestAnnotate_ReplacesEveryOccurrence(t *testing.T) {
	t.Parallel()

	dict := compile(t, "ナルト --> Naruto\nサスケ --> Sasuke")
	ch := Annotate([]content.Record{textRecord(1, "ナルトとサスケとナルト")}, dict)

	rec := ch.Records[0]
	assert.Equal(t, 3, rec.References())
	assert.Equal(t, "NarutoとSasukeとNaruto", rec.Translated(ch.Glossary))
}

func TestAnnotate_GlossaryNumberedByFirstUse(t *testing.T) {
	t.Parallel()

	dict := compile(t, "九尾の狐 --> Nine Tailed Fox\n忍者 --> ninja\n里 --> village")
	records := []content.Record{
		textRecord(1, "里の忍者"),
		textRecord(2, "九尾の狐と里"),
		textRecord(3, "何もない"),
	}
	ch := Annotate(records, dict)

	require.Len(t, ch.Glossary, 3)
	assert.Equal(t, "ninja", ch.Glossary[0].Translation)
	assert.Equal(t, "village", ch.Glossary[1].Translation)
	assert.Equal(t, "Nine Tailed Fox", ch.Glossary[2].Translation)

	assert.Equal(t, []Segment{{Ref: 2}, {Text: "の"}, {Ref: 1}}, ch.Records[0].Segments)
	assert.Equal(t, []Segment{{Ref: 3}, {Text: "と"}, {Ref: 2}}, ch.Records[1].Segments)
	assert.Equal(t, []Segment{{Text: "何もない"}}, ch.Records[2].Segments)
}

func TestAnnotate_EscapedEntriesMatchPlainText(t *testing.T) {
	t.Parallel()

	dict := compile(t, `"剣" --> <Sword>`)
	ch := Annotate([]content.Record{textRecord(1, `彼は"剣"を<抜いた>`)}, dict)

	rec := ch.Records[0]
	assert.Equal(t, `彼は<span class="placeholder" id="p1">placeholder</span>を&lt;抜いた&gt;`, rec.HTML())
	assert.Equal(t, "彼は<Sword>を<抜いた>", rec.Translated(ch.Glossary))
}

func TestAnnotate_ImagesPassThrough(t *testing.T) {
	t.Parallel()

	img := content.Record{Kind: content.KindMain, Form: content.FormImage, Sequence: 2, ImageSource: "https://example.com/i.png"}
	in := []content.Record{textRecord(1, "ナルト"), img}
	ch := Annotate(in, compile(t, "ナルト --> Naruto"))

	require.Len(t, ch.Records, 2)
	assert.Equal(t, img, ch.Records[1].Record)
	assert.Nil(t, ch.Records[1].Segments)
	assert.Equal(t, "ナルト", in[0].Text)
}

func TestAnnotate_UndefinedFormPanics(t *testing.T) {
	t.Parallel()

	bad := content.Record{Kind: content.KindMain, Form: content.Form(7), Sequence: 1}
	assert.Panics(t, func() { Annotate([]content.Record{bad}, compile(t, "ナルト --> Naruto")) })
}

func TestAnnotate_EmptyDictionary(t *testing.T) {
	t.Parallel()

	ch := Annotate([]content.Record{textRecord(1, "ナルト")}, nil)
	assert.Empty(t, ch.Glossary)
	assert.Equal(t, "ナルト", ch.Records[0].HTML())
}

func TestChapter_Sections(t *testing.T) {
	t.Parallel()

	records := []content.Record{
		{Kind: content.KindTitle, Form: content.FormText, Sequence: 1, Text: "第一話"},
		{Kind: content.KindPrescript, Form: content.FormText, Sequence: 2, Text: "前書き"},
		textRecord(3, "本文"),
	}
	ch := Annotate(records, nil)

	assert.Equal(t, "第一話", ch.Title())
	assert.Len(t, ch.Section(content.KindPrescript), 1)
	assert.Empty(t, ch.Section(content.KindPostscript))
}

package dictionary

import (
	"strings"
	"testing"

	"github.com/dgallion1/customtrans/internal/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func source(name, text string) Source {
	return Source{Name: name, Text: text, Present: true}
}

func sanSuffix() Rule {
	return Rule{ID: "san", Language: content.Japanese, Raw: "さん", Translation: "san", Affix: Suffix, JoinWithDash: true, Enabled: true}
}

func indexOf(entries []Entry, raw string) int {
	for i, e := range entries {
		if e.Raw == raw {
			return i
		}
	}
	return -1
}

func TestCompile_SimpleDefinition(t *testing.T) {
	t.Parallel()

	res := Compile([]Source{source("w.dict", "ナルト --> Naruto")}, nil, content.Japanese)

	assert.Empty(t, res.Warnings)
	assert.Empty(t, res.Absent)
	assert.Equal(t, []Entry{{Raw: "ナルト", Translation: "Naruto"}}, res.Dict.Entries())
}

func TestCompile_NameMacroWithHonorific(t *testing.T) {
	t.Parallel()

	res := Compile([]Source{source("w.dict", "@name{ナルト, Naruto}")}, []Rule{sanSuffix()}, content.Japanese)
	require.Empty(t, res.Warnings)

	entries := res.Dict.Entries()
	long := indexOf(entries, "ナルトさん")
	short := indexOf(entries, "ナルト")
	require.NotEqual(t, -1, long)
	require.NotEqual(t, -1, short)

	assert.Equal(t, Entry{Raw: "ナルトさん", Translation: "Naruto-san"}, entries[long])
	assert.Equal(t, Entry{Raw: "ナルト", Translation: "Naruto"}, entries[short])
	assert.Less(t, long, short)
	// Single-component combined variants collapse onto the bare name.
	assert.Equal(t, 2, res.Dict.Len())
}

func TestCompile_MalformedLine(t *testing.T) {
	t.Parallel()

	text := "ナルト --> Naruto\nこれは壊れた行\n九尾 --> Kyuubi"
	res := Compile([]Source{source("w.dict", text)}, nil, content.Japanese)

	require.Len(t, res.Warnings, 1)
	assert.Equal(t, 2, res.Warnings[0].Line)
	assert.Equal(t, "w.dict", res.Warnings[0].Source)
	assert.Equal(t, "Unrecognized syntactical construct", res.Warnings[0].Reason)
	assert.Equal(t, 2, res.Dict.Len())
	assert.NotEqual(t, -1, indexOf(res.Dict.Entries(), "九尾"))
}

func TestCompile_WarningReasons(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		line   string
		reason string
	}{
		{"misbalanced name", "@name{ナルト|うずまき, Naruto}", "Misbalanced name tag (left:2, right:1)"},
		{"empty name component", "@name{ナルト|, Naruto|Uzumaki}", "Cannot have empty entries within a name tag"},
		{"empty raw", "--> Naruto", "Cannot have empty entries within a definition"},
		{"empty translation", "ナルト -->   // nothing", "Cannot have empty entries within a definition"},
		{"no divider", "ナルト Naruto", "Unrecognized syntactical construct"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := Compile([]Source{source("w.dict", "// header\n\n"+tt.line)}, nil, content.Japanese)
			require.Len(t, res.Warnings, 1)
			assert.Equal(t, 3, res.Warnings[0].Line)
			assert.Equal(t, tt.reason, res.Warnings[0].Reason)
			assert.Zero(t, res.Dict.Len())
		})
	}
}

func TestCompile_Comments(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("あ", 150)
	text := "九尾の狐 --> Nine Tailed Fox // the fox\n" +
		"忍 --> Shinobi //" + long + "\n" +
		"里 --> Village //   "
	res := Compile([]Source{source("w.dict", text)}, nil, content.Japanese)
	require.Empty(t, res.Warnings)

	entries := res.Dict.Entries()
	assert.Equal(t, Entry{Raw: "九尾の狐", Translation: "Nine Tailed Fox", Comment: "the fox"}, entries[indexOf(entries, "九尾の狐")])
	assert.Equal(t, strings.Repeat("あ", CommentMaxLen), entries[indexOf(entries, "忍")].Comment)
	assert.Empty(t, entries[indexOf(entries, "里")].Comment)
}

func TestCompile_EscapesHTML(t *testing.T) {
	t.Parallel()

	res := Compile([]Source{source("w.dict", `"剣" --> <Sword> & Shield`)}, nil, content.Japanese)
	require.Equal(t, 1, res.Dict.Len())
	assert.Equal(t, Entry{Raw: "&#34;剣&#34;", Translation: "&lt;Sword&gt; &amp; Shield"}, res.Dict.Entries()[0])
}

func TestCompile_LongestFirstStable(t *testing.T) {
	t.Parallel()

	text := "あ --> a\nいい --> ii\nう --> u\nええ --> ee\nおおお --> ooo"
	res := Compile([]Source{source("w.dict", text)}, nil, content.Japanese)

	var raws []string
	res.Dict.Each(func(_ int, e Entry) { raws = append(raws, e.Raw) })
	assert.Equal(t, []string{"おおお", "いい", "ええ", "あ", "う"}, raws)
}

func TestCompile_LaterSourceOverridesInPlace(t *testing.T) {
	t.Parallel()

	sources := []Source{
		source(CommonName, "ナルト --> Naruto // shared\nサスケ --> Sasuke"),
		source("w.dict", "ナルト --> Naru"),
	}
	res := Compile(sources, nil, content.Japanese)

	entries := res.Dict.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{Raw: "ナルト", Translation: "Naru"}, entries[0])
	assert.Equal(t, "サスケ", entries[1].Raw)
}

func TestCompile_Idempotent(t *testing.T) {
	t.Parallel()

	sources := []Source{
		source(CommonName, "魔法 --> magic\n@name{ナルト|うずまき, Naruto|Uzumaki} // hero"),
		source("w.dict", "九尾の狐 --> Nine Tailed Fox\nうずまき --> Whirlpool"),
	}
	rules := []Rule{sanSuffix(), {Language: content.Japanese, Raw: "様", Translation: "Lord", Affix: Prefix, Enabled: true}}

	a := Compile(sources, rules, content.Japanese)
	b := Compile(sources, rules, content.Japanese)
	assert.Equal(t, a.Dict.Entries(), b.Dict.Entries())
}

func TestCompile_AbsentSources(t *testing.T) {
	t.Parallel()

	rules := []Rule{
		{Language: content.Japanese, Raw: "さん", Translation: "san", Standalone: true, Enabled: true},
		{Language: content.Japanese, Raw: "殿", Translation: "dono", Standalone: true, Enabled: false},
		{Language: content.Chinese, Raw: "兄", Translation: "brother", Standalone: true, Enabled: true},
	}
	sources := []Source{
		{Name: CommonName},
		source("w.dict", "  \n\t\n"),
	}
	res := Compile(sources, rules, content.Japanese)

	assert.Equal(t, []SourceStatus{
		{Name: CommonName, Condition: Missing},
		{Name: "w.dict", Condition: Empty},
	}, res.Absent)
	assert.Equal(t, []Entry{{Raw: "さん", Translation: "san"}}, res.Dict.Entries())

	st, ok := res.AbsentSource("w.dict")
	require.True(t, ok)
	assert.Equal(t, Empty, st.Condition)
}

func TestCompile_SkeletonIsClean(t *testing.T) {
	t.Parallel()

	text := Skeleton("Naruto", "NRT", "https://ncode.syosetu.com/n1234ab/")
	res := Compile([]Source{source("NRT_Syosetu_n1234ab.dict", text)}, nil, content.Japanese)

	assert.Empty(t, res.Warnings)
	assert.Equal(t, 7, res.Dict.Len())
	assert.True(t, strings.HasPrefix(text, "// series_title :  Naruto\n// series_abbr  :  NRT\n"))
	assert.Contains(t, text, "// END OF FILE")
}

func TestCheck(t *testing.T) {
	t.Parallel()

	n, warnings := Check("w.dict", "ナルト --> Naruto\nbad line", nil, content.Japanese)
	assert.Equal(t, 1, n)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].String(), "[w.dict:2]")
}

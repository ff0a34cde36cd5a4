package dictionary

import (
	"fmt"
	"regexp"
	"strings"
)

// CommonName is the shared glossary applied to every work.
const CommonName = "common_dict.dict"

var (
	fileNamePattern = regexp.MustCompile(`^(\w+)_(.+)_(.+)\.dict$`)
	titleHeader     = regexp.MustCompile(`^\s*//\s*series_title\s*:.*$`)
	abbrHeader      = regexp.MustCompile(`^\s*//\s*series_abbr\s*:.*$`)
)

var skeletonSections = []string{
	"//=============================[ Names ]==================================",
	"//=============================[ Places ]=================================",
	"//=============================[ Skills ]=================================",
	"//============================[ Monsters ]================================",
	"//===========================[ Terminology ]==============================",
	"//==============================[ Misc ]==================================",
}

// FileName is the canonical glossary name for a work.
func FileName(abbr, host, code string) string {
	return fmt.Sprintf("%s_%s_%s.dict", abbr, host, code)
}

// SpliceFileName reverses FileName.
func SpliceFileName(name string) (abbr, host, code string, ok bool) {
	m := fileNamePattern.FindStringSubmatch(name)
	if m == nil {
		return "", "", "", false
	}
	return m[1], m[2], m[3], true
}

// Skeleton is the document written in place of a missing or empty
// per-work glossary. Its sample lines compile without warnings.
func Skeleton(title, abbr, link string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "// series_title :  %s\n", title)
	fmt.Fprintf(&b, "// series_abbr  :  %s\n", abbr)
	fmt.Fprintf(&b, "// series_link  :  %s\n", link)
	for _, section := range skeletonSections {
		b.WriteString("\n\n")
		b.WriteString(section)
		switch {
		case strings.Contains(section, "[ Names ]"):
			b.WriteString("\n@name{ナルト|うずまき, Naruto|Uzumaki}\t\t// Main character of a popular manga")
		case strings.Contains(section, "[ Terminology ]"):
			b.WriteString("\n九尾の狐 --> Nine Tailed Fox")
		}
	}
	b.WriteString("\n\n// END OF FILE\n")
	return b.String()
}

// RewriteHeader replaces the title and abbreviation header lines of a
// glossary that starts with a skeleton header. Other text is untouched.
func RewriteHeader(text, title, abbr string) string {
	lines := strings.SplitN(text, "\n", 3)
	if len(lines) > 0 && titleHeader.MatchString(lines[0]) {
		lines[0] = "// series_title :  " + title
	}
	if len(lines) > 1 && abbrHeader.MatchString(lines[1]) {
		lines[1] = "// series_abbr  :  " + abbr
	}
	return strings.Join(lines, "\n")
}

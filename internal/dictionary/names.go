package dictionary

import (
	"fmt"
	"strings"
)

// Separators are the connectors seen between name components in raw
// chapters. The set is fixed for every language.
var Separators = []string{"", " ", "・", "＝"}

// ExpandName generates the variants of a name macro: each component
// alone, the components joined by every separator, then every rule
// applied to every component. The rules are used as given; callers pass
// only enabled rules for the source language.
//
// raws and trans must have equal length. Unequal lengths are a caller
// defect and panic.
func ExpandName(raws, trans []string, comment string, rules []Rule) []Entry {
	if len(raws) != len(trans) {
		panic(fmt.Sprintf("dictionary: name components misbalanced (%d raw, %d translated)", len(raws), len(trans)))
	}

	n := len(raws)
	out := make([]Entry, 0, n+len(Separators)+n*len(rules))

	for i := range raws {
		out = append(out, Entry{Raw: raws[i], Translation: trans[i], Comment: comment})
	}

	joined := strings.Join(trans, " ")
	for _, sep := range Separators {
		out = append(out, Entry{Raw: strings.Join(raws, sep), Translation: joined, Comment: comment})
	}

	for _, rule := range rules {
		for i := range raws {
			out = append(out, Entry{
				Raw:         raws[i] + rule.Raw,
				Translation: rule.translate(trans[i]),
				Comment:     comment,
			})
		}
	}
	return out
}

package dictionary

import (
	"fmt"
	"strings"

	"github.com/dgallion1/customtrans/internal/content"
)

// Affix is where an honorific attaches to a name.
type Affix int

const (
	Suffix Affix = iota
	Prefix
)

func (a Affix) String() string {
	if a == Prefix {
		return "prefix"
	}
	return "suffix"
}

func (a Affix) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Affix) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "suffix", "":
		*a = Suffix
	case "prefix":
		*a = Prefix
	default:
		return fmt.Errorf("unknown affix %q", b)
	}
	return nil
}

// Rule is one honorific transformation. Disabled rules stay in storage
// but never reach a compiled dictionary.
type Rule struct {
	ID           string           `json:"id" toml:"id"`
	Language     content.Language `json:"language" toml:"language"`
	Raw          string           `json:"raw" toml:"raw"`
	Translation  string           `json:"translation" toml:"translation"`
	Affix        Affix            `json:"affix" toml:"affix"`
	JoinWithDash bool             `json:"join_with_dash" toml:"join_with_dash"`
	Standalone   bool             `json:"standalone" toml:"standalone"`
	Enabled      bool             `json:"enabled" toml:"enabled"`
}

// Validate checks the fields a management surface must supply.
func (r Rule) Validate() error {
	if strings.TrimSpace(r.Raw) == "" {
		return fmt.Errorf("honorific raw token is empty")
	}
	if strings.TrimSpace(r.Translation) == "" {
		return fmt.Errorf("honorific translation is empty")
	}
	if r.Language != content.Japanese && r.Language != content.Chinese {
		return fmt.Errorf("honorific language %q unsupported", r.Language)
	}
	return nil
}

// translate attaches the rule's translated token to a translated name.
func (r Rule) translate(name string) string {
	if r.Affix == Prefix {
		return r.Translation + " " + name
	}
	if r.JoinWithDash {
		return name + "-" + r.Translation
	}
	return name + " " + r.Translation
}

// activeRules returns the enabled rules for lang, preserving order.
func activeRules(rules []Rule, lang content.Language) []Rule {
	var out []Rule
	for _, r := range rules {
		if r.Enabled && r.Language == lang {
			out = append(out, r)
		}
	}
	return out
}

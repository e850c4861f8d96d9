// Package idiom holds the fixed icon size table: which device idioms exist,
// which virtual device profiles each idiom groups, and the base point sizes
// and scale each profile carries.
package idiom

import (
	"errors"
	"fmt"
	"strings"
)

// Idiom is a device category a caller can request.
type Idiom int

const (
	Phone Idiom = iota
	Tablet
	Watch
	Marketing
	All
)

// Concrete lists the idioms that All expands to, in table order.
var Concrete = []Idiom{Phone, Tablet, Watch, Marketing}

// ErrNoLabel is returned when an output label is requested for All.
// All must be expanded to concrete idioms before serialization.
var ErrNoLabel = errors.New("idiom: all has no output label")

// InvalidIdiomError reports a selector token outside the known set.
type InvalidIdiomError struct {
	Token string
}

func (e *InvalidIdiomError) Error() string {
	return fmt.Sprintf("invalid idiom %q (valid: %s)", e.Token, strings.Join(ValidTokens(), ", "))
}

// tokens maps accepted selector tokens to idioms. The device names from
// the asset catalog format and the generic category names are both accepted.
var tokens = map[string]Idiom{
	"iphone":    Phone,
	"phone":     Phone,
	"ipad":      Tablet,
	"tablet":    Tablet,
	"watch":     Watch,
	"marketing": Marketing,
	"all":       All,
}

// ValidTokens returns the accepted selector tokens in display order.
func ValidTokens() []string {
	return []string{"iphone", "phone", "ipad", "tablet", "watch", "marketing", "all"}
}

// String returns the canonical token for i.
func (i Idiom) String() string {
	switch i {
	case Phone:
		return "phone"
	case Tablet:
		return "tablet"
	case Watch:
		return "watch"
	case Marketing:
		return "marketing"
	case All:
		return "all"
	default:
		return fmt.Sprintf("idiom(%d)", int(i))
	}
}

// Label returns the idiom string written to the asset catalog manifest.
func (i Idiom) Label() (string, error) {
	switch i {
	case Phone:
		return "iphone", nil
	case Tablet:
		return "ipad", nil
	case Watch:
		return "watch", nil
	case Marketing:
		return "ios-marketing", nil
	case All:
		return "", ErrNoLabel
	default:
		return "", fmt.Errorf("idiom: unknown idiom %d", int(i))
	}
}

// Profiles returns the virtual device profiles grouped under i.
// All expands to the profiles of every concrete idiom.
func (i Idiom) Profiles() []Profile {
	switch i {
	case Phone:
		return []Profile{Phone2x, Phone3x}
	case Tablet:
		return []Profile{Tablet1x, Tablet2x}
	case Watch:
		return []Profile{Watch2x, Watch3x}
	case Marketing:
		return []Profile{MarketingProfile}
	case All:
		var out []Profile
		for _, c := range Concrete {
			out = append(out, c.Profiles()...)
		}
		return out
	default:
		return nil
	}
}

// ParseToken parses a single selector token, case-insensitively.
func ParseToken(tok string) (Idiom, error) {
	i, ok := tokens[strings.ToLower(strings.TrimSpace(tok))]
	if !ok {
		return 0, &InvalidIdiomError{Token: tok}
	}
	return i, nil
}

// Parse parses a comma-separated selector such as "iphone,ipad" into
// idioms, in the order given. Empty tokens are skipped; a selector with
// no tokens at all is invalid. Duplicates are kept, resolution dedupes.
func Parse(selector string) ([]Idiom, error) {
	var out []Idiom
	for _, tok := range strings.Split(selector, ",") {
		if strings.TrimSpace(tok) == "" {
			continue
		}
		i, err := ParseToken(tok)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	if len(out) == 0 {
		return nil, &InvalidIdiomError{Token: selector}
	}
	return out, nil
}

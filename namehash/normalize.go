package namehash

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/net/idna"
	"golang.org/x/text/unicode/norm"

	"github.com/tranvictor/bnames/errs"
)

// UTS-46 lookup mapping without STD3 restrictions, so leading underscores
// survive and the label rules below stay in charge of ASCII.
var profile = idna.New(
	idna.MapForLookup(),
	idna.Transitional(false),
	idna.StrictDomainName(false),
)

type scriptGroup struct {
	name   string
	tables []*unicode.RangeTable
}

// Han, Hiragana and Katakana are written together in Japanese names and
// count as one group.
var scriptGroups = []scriptGroup{
	{"Latin", []*unicode.RangeTable{unicode.Latin}},
	{"Greek", []*unicode.RangeTable{unicode.Greek}},
	{"Cyrillic", []*unicode.RangeTable{unicode.Cyrillic}},
	{"Arabic", []*unicode.RangeTable{unicode.Arabic}},
	{"Hebrew", []*unicode.RangeTable{unicode.Hebrew}},
	{"Hangul", []*unicode.RangeTable{unicode.Hangul}},
	{"Thai", []*unicode.RangeTable{unicode.Thai}},
	{"Devanagari", []*unicode.RangeTable{unicode.Devanagari}},
	{"Han", []*unicode.RangeTable{unicode.Han, unicode.Hiragana, unicode.Katakana}},
}

// Normalize maps name to its canonical form and validates every label.
// It is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(name string) (string, error) {
	if name == "" {
		return "", errs.InvalidName(name, fmt.Errorf("empty name"))
	}
	mapped, err := profile.ToUnicode(name)
	if err != nil {
		return "", errs.InvalidName(name, err)
	}
	if !norm.NFC.IsNormalString(mapped) {
		return "", errs.InvalidName(name, fmt.Errorf("not in NFC form"))
	}
	for _, label := range strings.Split(mapped, ".") {
		if err := checkLabel(label); err != nil {
			return "", errs.InvalidName(name, err)
		}
	}
	return mapped, nil
}

// NormalizeLabel is Normalize for a single label. Dots are rejected.
func NormalizeLabel(label string) (string, error) {
	if strings.Contains(label, ".") {
		return "", errs.InvalidName(label, fmt.Errorf("label must not contain '.'"))
	}
	return Normalize(label)
}

func checkLabel(label string) error {
	if label == "" {
		return fmt.Errorf("empty label")
	}

	ascii := true
	leading := true
	for _, r := range label {
		if r > unicode.MaxASCII {
			ascii = false
			leading = false
			continue
		}
		switch {
		case r == '_':
			if !leading {
				return fmt.Errorf("underscore allowed only at the start of label %q", label)
			}
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			leading = false
		default:
			return fmt.Errorf("disallowed character %q in label %q", r, label)
		}
	}
	if ascii && len(label) >= 4 && label[2:4] == "--" {
		return fmt.Errorf("label %q has '--' at positions 3-4", label)
	}
	if ascii {
		return nil
	}
	return checkSingleScript(label)
}

func checkSingleScript(label string) error {
	seen := ""
	for _, r := range label {
		if !unicode.IsLetter(r) {
			continue
		}
		for _, g := range scriptGroups {
			if !unicode.In(r, g.tables...) {
				continue
			}
			if seen != "" && seen != g.name {
				return fmt.Errorf("label %q mixes %s and %s scripts", label, seen, g.name)
			}
			seen = g.name
			break
		}
	}
	return nil
}

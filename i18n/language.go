package i18n

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// NormalizeLanguage canonicalizes a language tag ("EN-us" becomes "en-US").
// Unparseable tags are lowercased and returned as given; an empty tag stays empty.
func NormalizeLanguage(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	t, err := language.Parse(tag)
	if err != nil {
		return strings.ToLower(tag)
	}
	return t.String()
}

// BaseLanguage returns the base subtag of tag ("zh-Hant" becomes "zh").
func BaseLanguage(tag string) string {
	t, err := language.Parse(tag)
	if err != nil {
		return strings.ToLower(tag)
	}
	base, _ := t.Base()
	return base.String()
}

// SortStrings sorts values alphabetically by the collation rules of tag.
func SortStrings(tag string, values []string) {
	collator := newCollator(tag)
	slices.SortStableFunc(values, collator.CompareString)
}

// Compare returns a comparison function following the collation rules of tag.
// The function is not safe for concurrent use.
func Compare(tag string) func(a, b string) int {
	return newCollator(tag).CompareString
}

func newCollator(tag string) *collate.Collator {
	t, err := language.Parse(tag)
	if err != nil {
		t = language.English
	}
	return collate.New(t, collate.IgnoreCase)
}

package types

import (
	"strings"

	"golang.org/x/text/language"
)

// CanonicalLanguage normalizes a BCP 47 tag ("EN_us" becomes "en-US").
// Empty or unparseable input yields fallback.
func CanonicalLanguage(tag, fallback string) string {
	tag = strings.TrimSpace(strings.ReplaceAll(tag, "_", "-"))
	if tag == "" {
		return fallback
	}
	t, err := language.Parse(tag)
	if err != nil {
		return fallback
	}
	return t.String()
}

// BaseLanguage returns the primary subtag, so "en-US" becomes "en".
func BaseLanguage(tag string) string {
	t, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	base, _ := t.Base()
	return base.String()
}

package facematch

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// confidenceSuffix matches a trailing display annotation such as " (91.20%)".
var confidenceSuffix = regexp.MustCompile(`\s*\(\s*\d+(?:\.\d+)?\s*%\s*\)\s*$`)

// NormalizeIdentityName converts a reference directory name into an identity name.
// Filesystems may hand back decomposed Unicode (e.g. macOS), so names are composed
// to NFC and control characters are dropped, otherwise "Jiří" read from two
// different sources would not compare equal.
func NormalizeIdentityName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Cc)), norm.NFC)
	result, _, err := transform.String(t, name)
	if err != nil {
		result = name
	}
	return strings.TrimSpace(result)
}

// CleanName strips a confidence annotation from a display name
// (e.g., "Bob (91.20%)" -> "Bob").
func CleanName(name string) string {
	return strings.TrimSpace(confidenceSuffix.ReplaceAllString(name, ""))
}

package resolve

import (
	"regexp"
	"strings"
)

var (
	whitespaceRE = regexp.MustCompile(`\s+`)
	nonAlnumRE   = regexp.MustCompile(`[^a-z0-9]+`)
)

// Fold canonicalizes a term for comparison: lowercase, runs of whitespace
// collapsed to one space, leading and trailing space removed.
func Fold(s string) string {
	return whitespaceRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
}

// FoldAlnum canonicalizes harder for cross-source name matching:
// lowercase with every non-alphanumeric run collapsed to one space, so
// punctuation and spacing differences between sources cannot block a
// match.
func FoldAlnum(s string) string {
	x := nonAlnumRE.ReplaceAllString(strings.ToLower(s), " ")
	return strings.TrimSpace(x)
}

package openfda

import (
	"regexp"
	"strings"
)

// The search parameter uses a Lucene-like query syntax. All
// user-controlled values are wrapped in double quotes with the dangerous
// characters escaped, so a value can never close the quote and inject
// extra clauses.

var controlCharsRE = regexp.MustCompile(`[\x00-\x1f\x7f]`)

// EscapeValue prepares an untrusted value for embedding in a quoted
// search term.
func EscapeValue(value string) string {
	v := strings.TrimSpace(value)
	v = controlCharsRE.ReplaceAllString(v, " ")
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return v
}

// Qstr returns value as a quoted, escaped search term.
func Qstr(value string) string {
	return `"` + EscapeValue(value) + `"`
}

var nonDigitRE = regexp.MustCompile(`\D`)

// QDigits reduces value to its digits and returns them when the count is
// within [minLen, maxLen], otherwise "".
func QDigits(value string, minLen, maxLen int) string {
	d := nonDigitRE.ReplaceAllString(value, "")
	if d == "" || len(d) < minLen || len(d) > maxLen {
		return ""
	}
	return d
}

package resolve

import (
	"regexp"
	"strings"

	"github.com/rxindex/medinfo-cli/internal/model"
)

var nonDigitRE = regexp.MustCompile(`\D`)

// NDCNormalization is the result of normalizing an NDC input toward the
// canonical 11-digit (5-4-2) form.
type NDCNormalization struct {
	Input  string `json:"input"`
	Digits string `json:"digits"`

	// NDC11 is set when the input determines a single canonical form.
	NDC11 string `json:"ndc11,omitempty"`

	// Candidates is set instead of NDC11 when a bare 10-digit input
	// leaves the dropped leading zero position ambiguous.
	Candidates []model.NDCCandidate `json:"ndc11_candidates,omitempty"`
}

// NormalizeNDC normalizes an NDC toward NDC-11. An 11-digit run is
// already canonical. Hyphenated 3-segment codes are padded by segment
// lengths. A bare 10-digit run is ambiguous and yields one candidate per
// possible segment schema. Anything else leaves both NDC11 and
// Candidates empty.
func NormalizeNDC(input string) NDCNormalization {
	s := strings.TrimSpace(input)
	digits := nonDigitRE.ReplaceAllString(s, "")

	norm := NDCNormalization{Input: s, Digits: digits}

	if len(digits) == 11 {
		norm.NDC11 = digits
		return norm
	}

	if strings.Contains(s, "-") {
		if ndc11 := normalizeHyphenated(s); ndc11 != "" {
			norm.NDC11 = ndc11
			return norm
		}
	}

	if len(digits) == 10 {
		norm.Candidates = candidatesFrom10Digits(digits)
	}
	return norm
}

// normalizeHyphenated pads a 3-segment NDC to 5-4-2 by segment lengths:
// 4-4-2 pads the labeler, 5-3-2 the product, 5-4-1 the package. Returns
// "" for any other grouping.
func normalizeHyphenated(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return -1
	}, s)

	var parts []string
	for _, p := range strings.Split(cleaned, "-") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) != 3 {
		return ""
	}

	a, b, c := parts[0], parts[1], parts[2]
	switch [3]int{len(a), len(b), len(c)} {
	case [3]int{4, 4, 2}:
		return "0" + a + b + c
	case [3]int{5, 3, 2}:
		return a + "0" + b + c
	case [3]int{5, 4, 1}:
		return a + b + "0" + c
	case [3]int{5, 4, 2}:
		return a + b + c
	}
	return ""
}

// candidatesFrom10Digits pads a bare 10-digit NDC one way per segment
// schema, deduplicating collisions and keeping the first schema seen.
func candidatesFrom10Digits(d string) []model.NDCCandidate {
	if len(d) != 10 {
		return nil
	}

	all := []model.NDCCandidate{
		{Value: "0" + d, Schema: model.NDCSchema442},
		{Value: d[:5] + "0" + d[5:], Schema: model.NDCSchema532},
		{Value: d[:9] + "0" + d[9:], Schema: model.NDCSchema541},
	}

	seen := make(map[string]bool, len(all))
	out := make([]model.NDCCandidate, 0, len(all))
	for _, c := range all {
		if seen[c.Value] {
			continue
		}
		seen[c.Value] = true
		out = append(out, c)
	}
	return out
}

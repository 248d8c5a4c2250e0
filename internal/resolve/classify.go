// Package resolve turns raw medication queries into concrete label
// identities: it classifies inputs, normalizes NDC codes, and ranks
// candidate labels.
package resolve

import (
	"regexp"
	"strings"

	"github.com/rxindex/medinfo-cli/internal/model"
)

var (
	setIDRE     = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	ndcDigitsRE = regexp.MustCompile(`^\d{10,11}$`)
	ndcHyphenRE = regexp.MustCompile(`^\d{4,5}-\d{3,4}(-\d{1,2})?$`)
)

// IsSetID reports whether s is an SPL set id (UUID form).
func IsSetID(s string) bool {
	return setIDRE.MatchString(strings.TrimSpace(s))
}

// IsProbableNDC reports whether s looks like an NDC: a bare 10 or 11
// digit run, or 4-5 digit labeler and 3-4 digit product segments with an
// optional 1-2 digit package segment.
func IsProbableNDC(s string) bool {
	s = strings.TrimSpace(s)
	return ndcDigitsRE.MatchString(s) || ndcHyphenRE.MatchString(s)
}

// Classify maps a raw query to its input kind. Set ids win over NDCs;
// anything that is neither is treated as a drug name.
func Classify(q string) model.InputKind {
	switch {
	case IsSetID(q):
		return model.KindSetID
	case IsProbableNDC(q):
		return model.KindNDC
	default:
		return model.KindName
	}
}

package resolve

import (
	"slices"
	"sort"
	"strings"

	"github.com/rxindex/medinfo-cli/internal/model"
)

// Tokens that mark a query as naming a combination product.
var comboTokens = []string{" and ", "/", "+"}

func looksCombo(folded string) bool {
	for _, tok := range comboTokens {
		if strings.Contains(folded, tok) {
			return true
		}
	}
	return false
}

func foldedNonEmpty(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if strings.TrimSpace(s) == "" {
			continue
		}
		out = append(out, Fold(s))
	}
	return out
}

// ScoreLabel rates how well a label matches a name query. Single-substance
// labels are preferred for non-combination queries (+50, multi-substance
// −30), and exact folded matches add +60 for substance, +40 for generic,
// +10 for brand.
func ScoreLabel(query string, l *model.Label) int {
	nm := Fold(query)
	subs := foldedNonEmpty(l.OpenFDA.SubstanceName)
	gens := foldedNonEmpty(l.OpenFDA.GenericName)
	brands := foldedNonEmpty(l.OpenFDA.BrandName)

	score := 0
	if !looksCombo(nm) {
		switch {
		case len(subs) == 1:
			score += 50
		case len(subs) > 1:
			score -= 30
		}
	}
	if slices.Contains(subs, nm) {
		score += 60
	}
	if slices.Contains(gens, nm) {
		score += 40
	}
	if slices.Contains(brands, nm) {
		score += 10
	}
	return score
}

// RankLabels sorts labels in place, best first: higher score, then newer
// effective_time, then original order.
func RankLabels(query string, labels []*model.Label) {
	type key struct {
		score int
		et    string
	}
	keys := make(map[*model.Label]key, len(labels))
	for _, l := range labels {
		keys[l] = key{score: ScoreLabel(query, l), et: l.EffectiveTime}
	}
	sort.SliceStable(labels, func(i, j int) bool {
		ki, kj := keys[labels[i]], keys[labels[j]]
		if ki.score != kj.score {
			return ki.score > kj.score
		}
		return ki.et > kj.et
	})
}

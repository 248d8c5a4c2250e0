package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/rxindex/medinfo-cli/internal/model"
	"github.com/rxindex/medinfo-cli/pkg/openfda"
	"github.com/rxindex/medinfo-cli/pkg/rxnav"
)

const (
	// approxMaxEntries bounds the RxNorm approximate-match candidate list.
	approxMaxEntries = 5
	// ndcLookupLimit bounds NDC directory hits for one code.
	ndcLookupLimit = 5
	// labelCandidateLimit bounds the disambiguation candidate fetch.
	labelCandidateLimit = 10
)

// Options adjust how Resolve selects a label.
type Options struct {
	// ForcedSetID skips classification and looks the label up by this
	// SPL set id directly.
	ForcedSetID string

	// WithCandidates fetches and ranks label candidates for name
	// queries so callers can disambiguate.
	WithCandidates bool

	// Pick selects the Nth (1-based) ranked label candidate instead of
	// the RxCUI-harmonized label. Implies a candidate fetch.
	Pick int
}

// Resolution is the outcome of mapping one raw query to a label identity.
// Fields are filled progressively, so a partial Resolution accompanies
// any upstream error.
type Resolution struct {
	Input model.Identifier

	// NDC is the normalization of an NDC-shaped query.
	NDC *NDCNormalization

	// RxNorm approximate-match results for name queries.
	RxNormCandidates []rxnav.Candidate
	Best             *rxnav.Candidate
	RxCUI            string
	RxName           string

	// NDC directory hits and any SPL set id recovered from them.
	NDCResults []openfda.NDCResult
	NDCSetID   string

	// LabelCandidates holds disambiguation candidates, best first.
	LabelCandidates []*model.Label
	// Picked is the 1-based candidate index when Options.Pick chose the
	// label.
	Picked int

	// Label is the selected label, nil when nothing matched. SetID is
	// its SPL set id when the label carries one.
	Label *model.Label
	SetID string

	Notes []string
}

// Resolver maps raw queries to openFDA labels, going through RxNorm for
// free-text names and the NDC directory for package codes.
type Resolver struct {
	fda openfda.Client
	rx  rxnav.Client
}

func NewResolver(fda openfda.Client, rx rxnav.Client) *Resolver {
	return &Resolver{fda: fda, rx: rx}
}

// PickBestCandidate selects the approximate-match candidate with the
// highest score, breaking ties on the lower (closer) rank. Earlier
// candidates win full ties. Returns nil for an empty list.
func PickBestCandidate(candidates []rxnav.Candidate) *rxnav.Candidate {
	var (
		best      *rxnav.Candidate
		bestScore float64
		bestRank  int
	)
	for i := range candidates {
		c := &candidates[i]
		score, rank := c.ScoreValue(), c.RankValue()
		if best == nil || score > bestScore || (score == bestScore && rank < bestRank) {
			best, bestScore, bestRank = c, score, rank
		}
	}
	return best
}

// Resolve classifies the query, resolves it to an RxCUI and/or SPL set
// id, and walks the label fallback chain until a label matches or every
// path is exhausted. A failed match is reported in Notes, not as an
// error; errors are reserved for upstream failures, and the partial
// Resolution is returned alongside them.
func (r *Resolver) Resolve(ctx context.Context, query string, opts Options) (*Resolution, error) {
	q := strings.TrimSpace(query)
	res := &Resolution{Input: model.Identifier{Query: q, Kind: model.KindName}}

	forced := strings.TrimSpace(opts.ForcedSetID)
	if forced == "" && IsSetID(q) {
		forced = q
	}

	switch {
	case forced != "":
		res.Input.Kind = model.KindSetID
		res.NDCSetID = forced

	case IsProbableNDC(q):
		res.Input.Kind = model.KindNDC
		norm := NormalizeNDC(q)
		res.NDC = &norm
		res.Input.NDCCandidates = norm.Candidates

		results, err := r.fda.NDCLookup(ctx, q, ndcLookupLimit)
		if err != nil {
			return res, err
		}
		res.NDCResults = results

		// Directory hits sometimes carry the SPL set id and RxCUI for
		// the product; keep the first RxCUI seen.
		for _, nr := range results {
			if ids := nr.OpenFDA.SPLSetID; len(ids) > 0 {
				res.NDCSetID = ids[0]
			}
			if cuis := nr.OpenFDA.RxCUI; len(cuis) > 0 && res.RxCUI == "" {
				res.RxCUI = cuis[0]
			}
			if res.NDCSetID != "" && res.RxCUI != "" {
				break
			}
		}
	}

	if res.Input.Kind == model.KindName && res.RxCUI == "" {
		cands, err := r.rx.ApproximateMatches(ctx, q, approxMaxEntries)
		if err != nil {
			return res, err
		}
		res.RxNormCandidates = cands
		if best := PickBestCandidate(cands); best != nil {
			res.Best = best
			res.RxCUI = best.RxCUI
		}
	}

	if res.RxCUI == "" && res.NDCSetID == "" {
		if res.Input.Kind == model.KindNDC {
			res.Notes = append(res.Notes, "No openFDA NDC match found for that code.")
		} else {
			res.Notes = append(res.Notes, "Could not resolve RxCUI from input.")
		}
		return res, nil
	}

	if res.RxCUI != "" {
		name, err := r.rx.NameForRxCUI(ctx, res.RxCUI)
		if err != nil {
			return res, err
		}
		res.RxName = name
	}

	if res.Input.Kind == model.KindName && (opts.WithCandidates || opts.Pick > 0) {
		term := res.RxName
		if term == "" {
			term = q
		}
		labels, err := r.fda.LabelCandidates(ctx, term, labelCandidateLimit)
		if err != nil {
			return res, err
		}
		RankLabels(term, labels)
		res.LabelCandidates = labels
	}

	if res.NDCSetID != "" {
		label, err := r.fda.LabelBySetID(ctx, res.NDCSetID)
		if err != nil {
			return res, err
		}
		res.Label = label
		if label == nil {
			res.Notes = append(res.Notes, "No openFDA label found by set_id from NDC/set_id lookup.")
		}
	}

	if res.Label == nil && opts.Pick > 0 && res.Input.Kind == model.KindName {
		switch {
		case len(res.LabelCandidates) == 0:
			res.Notes = append(res.Notes, "No label candidates available to pick from.")
		case opts.Pick <= len(res.LabelCandidates):
			res.Label = res.LabelCandidates[opts.Pick-1]
			res.Picked = opts.Pick
		default:
			res.Notes = append(res.Notes, fmt.Sprintf("--pick %d out of range (1..%d).", opts.Pick, len(res.LabelCandidates)))
		}
	}

	if res.Label == nil && res.RxCUI != "" {
		label, err := r.fda.LabelByRxCUI(ctx, res.RxCUI)
		if err != nil {
			return res, err
		}
		res.Label = label
	}

	if res.Label == nil && res.RxName != "" {
		res.Notes = append(res.Notes, "No openFDA label found by RxCUI, falling back to generic/substance/brand candidates.")
		if len(res.LabelCandidates) > 0 {
			res.Label = res.LabelCandidates[0]
		} else {
			label, err := r.bestLabelByName(ctx, res.RxName)
			if err != nil {
				return res, err
			}
			res.Label = label
		}
	}

	if res.Label != nil {
		res.SetID = model.FirstOf(res.Label.OpenFDA.SPLSetID)
	} else {
		res.Notes = append(res.Notes, "No openFDA label match found.")
	}

	return res, nil
}

// bestLabelByName fetches label candidates for a name and returns the
// top-ranked one, or nil when nothing matches.
func (r *Resolver) bestLabelByName(ctx context.Context, name string) (*model.Label, error) {
	labels, err := r.fda.LabelCandidates(ctx, name, labelCandidateLimit)
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, nil
	}
	RankLabels(name, labels)
	return labels[0], nil
}

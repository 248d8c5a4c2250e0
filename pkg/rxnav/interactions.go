package rxnav

import (
	"context"
	"net/url"
	"sort"
	"strings"
)

// ConceptRef is a compact reference to one RxNorm concept in an
// interaction pair.
type ConceptRef struct {
	RxCUI string `json:"rxcui,omitempty"`
	Name  string `json:"name,omitempty"`
	TTY   string `json:"tty,omitempty"`
}

// Interaction is one drug interaction pair.
type Interaction struct {
	Severity    string       `json:"severity,omitempty"`
	Description string       `json:"description,omitempty"`
	Concepts    []ConceptRef `json:"concepts,omitempty"`
}

type interactionConcept struct {
	MinConceptItem ConceptRef `json:"minConceptItem"`
}

type interactionPair struct {
	InteractionConcept singleOrList[interactionConcept] `json:"interactionConcept"`
	Severity           string                           `json:"severity"`
	Description        string                           `json:"description"`
}

type interactionType struct {
	InteractionPair singleOrList[interactionPair] `json:"interactionPair"`
}

type interactionTypeGroup struct {
	InteractionType singleOrList[interactionType] `json:"interactionType"`
}

type interactionResponse struct {
	InteractionTypeGroup singleOrList[interactionTypeGroup] `json:"interactionTypeGroup"`
}

// severityRank orders severities for display, most severe first.
// Unknown severities sort last.
func severityRank(severity string) int {
	switch strings.ToLower(strings.TrimSpace(severity)) {
	case "high", "severe":
		return 0
	case "moderate", "medium":
		return 1
	case "low", "minor":
		return 2
	default:
		return 3
	}
}

func (c *httpClient) InteractionsByRxCUI(ctx context.Context, rxcui string) ([]Interaction, error) {
	params := url.Values{}
	params.Set("rxcui", rxcui)
	reqURL := c.baseURL + "/REST/interaction/interaction.json?" + params.Encode()

	var resp interactionResponse
	if err := c.getJSON(ctx, reqURL, &resp); err != nil {
		return nil, err
	}

	var out []Interaction
	for _, group := range resp.InteractionTypeGroup {
		for _, itype := range group.InteractionType {
			for _, pair := range itype.InteractionPair {
				concepts := make([]ConceptRef, 0, 2)
				for i, ic := range pair.InteractionConcept {
					if i >= 2 {
						break
					}
					if ic.MinConceptItem != (ConceptRef{}) {
						concepts = append(concepts, ic.MinConceptItem)
					}
				}
				if pair.Description == "" && pair.Severity == "" && len(concepts) == 0 {
					continue
				}
				out = append(out, Interaction{
					Severity:    pair.Severity,
					Description: pair.Description,
					Concepts:    concepts,
				})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := severityRank(out[i].Severity), severityRank(out[j].Severity)
		if ri != rj {
			return ri < rj
		}
		return out[i].Description < out[j].Description
	})
	return out, nil
}

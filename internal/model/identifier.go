// Package model defines the shared domain types for medication lookups.
package model

// InputKind describes how a raw query string was classified.
type InputKind string

const (
	// KindSetID is an SPL set id (UUID form).
	KindSetID InputKind = "set_id"
	// KindNDC is a National Drug Code in 10/11-digit or segmented form.
	KindNDC InputKind = "ndc"
	// KindName is a free-text drug name.
	KindName InputKind = "name"
)

// NDC segment schemas. A 10-digit NDC omits one leading zero; the schema
// names which segment grouping was assumed when padding to 11 digits.
const (
	NDCSchema442 = "4-4-2"
	NDCSchema532 = "5-3-2"
	NDCSchema541 = "5-4-1"
	NDCSchema542 = "5-4-2"
)

// NDCCandidate is one possible 11-digit normalization of an NDC, tagged
// with the segment schema that produced it.
type NDCCandidate struct {
	Value  string `json:"value"`
	Schema string `json:"schema"`
}

// Identifier is a classified, normalized query input.
type Identifier struct {
	Query string    `json:"query"`
	Kind  InputKind `json:"kind"`

	// NDCCandidates holds the possible canonical forms when Kind is KindNDC.
	NDCCandidates []NDCCandidate `json:"ndc_candidates,omitempty"`
}

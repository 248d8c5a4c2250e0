package model

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// OpenFDAMeta is the openfda harmonization block attached to a label
// document. Every field is a string list in the source data.
type OpenFDAMeta struct {
	ApplicationNumber []string `json:"application_number,omitempty"`
	BrandName         []string `json:"brand_name,omitempty"`
	GenericName       []string `json:"generic_name,omitempty"`
	ManufacturerName  []string `json:"manufacturer_name,omitempty"`
	ProductNDC        []string `json:"product_ndc,omitempty"`
	PackageNDC        []string `json:"package_ndc,omitempty"`
	ProductType       []string `json:"product_type,omitempty"`
	Route             []string `json:"route,omitempty"`
	SubstanceName     []string `json:"substance_name,omitempty"`
	DosageForm        []string `json:"dosage_form,omitempty"`
	RxCUI             []string `json:"rxcui,omitempty"`
	DEASchedule       []string `json:"dea_schedule,omitempty"`
	SPLID             []string `json:"spl_id,omitempty"`
	SPLSetID          []string `json:"spl_set_id,omitempty"`
	UNII              []string `json:"unii,omitempty"`
}

// Label is one openFDA drug label document. The common identification
// fields are decoded into typed form; every top-level field is also kept
// raw, in document order, so section extraction and keyword search see
// exactly what the API returned.
type Label struct {
	ID            string
	SetID         string
	EffectiveTime string
	Version       string
	OpenFDA       OpenFDAMeta

	raw   map[string]json.RawMessage
	order []string
}

// UnmarshalJSON decodes a label object, preserving top-level field order.
func (l *Label) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return eris.Wrap(err, "model: decode label")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return eris.New("model: label is not a JSON object")
	}

	l.raw = make(map[string]json.RawMessage)
	l.order = nil
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return eris.Wrap(err, "model: decode label key")
		}
		key, ok := keyTok.(string)
		if !ok {
			return eris.New("model: label key is not a string")
		}
		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return eris.Wrapf(err, "model: decode label field %q", key)
		}
		if _, seen := l.raw[key]; !seen {
			l.order = append(l.order, key)
		}
		l.raw[key] = val
	}

	l.ID = l.stringField("id")
	l.SetID = l.stringField("set_id")
	l.EffectiveTime = l.stringField("effective_time")
	l.Version = l.stringField("version")
	if rawFDA, ok := l.raw["openfda"]; ok {
		if err := json.Unmarshal(rawFDA, &l.OpenFDA); err != nil {
			return eris.Wrap(err, "model: decode openfda block")
		}
	}
	return nil
}

// MarshalJSON re-emits the raw document so round-trips keep fields the
// typed view does not model.
func (l Label) MarshalJSON() ([]byte, error) {
	if l.raw == nil {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range l.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		nameJSON, err := json.Marshal(key)
		if err != nil {
			return nil, eris.Wrap(err, "model: marshal label key")
		}
		buf.Write(nameJSON)
		buf.WriteByte(':')
		buf.Write(l.raw[key])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (l *Label) stringField(key string) string {
	raw, ok := l.raw[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0]
	}
	return ""
}

// Keys returns the top-level field names in document order.
func (l *Label) Keys() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// Raw returns the undecoded value of a top-level field.
func (l *Label) Raw(key string) (json.RawMessage, bool) {
	raw, ok := l.raw[key]
	return raw, ok
}

// HasKeyPrefix reports whether any top-level field name starts with prefix.
func (l *Label) HasKeyPrefix(prefix string) bool {
	for _, key := range l.order {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// SectionText flattens one label field to display text. String lists are
// joined with blank lines; scalars are trimmed; missing or non-text
// fields yield "".
func (l *Label) SectionText(key string) string {
	raw, ok := l.raw[key]
	if !ok {
		return ""
	}
	return flattenText(raw)
}

// FieldText is one searchable label field with its flattened text.
type FieldText struct {
	Field string
	Text  string
}

// TextFields returns every text-bearing top-level field in document
// order, excluding the openfda block.
func (l *Label) TextFields() []FieldText {
	out := make([]FieldText, 0, len(l.order))
	for _, key := range l.order {
		if key == "openfda" {
			continue
		}
		text := flattenText(l.raw[key])
		if text == "" {
			continue
		}
		out = append(out, FieldText{Field: key, Text: text})
	}
	return out
}

func flattenText(raw json.RawMessage) string {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		return strings.Join(parts, "\n\n")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return ""
}

// FirstOf returns the first entry of a string list, or "".
func FirstOf(list []string) string {
	if len(list) == 0 {
		return ""
	}
	return list[0]
}

// LabelCandidate is the compact summary of one label shown when a name
// lookup matches several products.
type LabelCandidate struct {
	EffectiveTime    string   `json:"effective_time,omitempty"`
	ID               string   `json:"id,omitempty"`
	SetID            string   `json:"setid,omitempty"`
	DailyMedURL      string   `json:"dailymed,omitempty"`
	BrandName        string   `json:"brand_name,omitempty"`
	GenericName      string   `json:"generic_name,omitempty"`
	ManufacturerName string   `json:"manufacturer_name,omitempty"`
	Route            string   `json:"route,omitempty"`
	DosageForm       string   `json:"dosage_form,omitempty"`
	SubstanceName    []string `json:"substance_name,omitempty"`
	ProductNDC       string   `json:"product_ndc,omitempty"`
}

// CandidateFromLabel builds the candidate summary for one label.
// dailymedURL may be empty when the label has no set id.
func CandidateFromLabel(l *Label, dailymedURL string) LabelCandidate {
	return LabelCandidate{
		EffectiveTime:    l.EffectiveTime,
		ID:               l.ID,
		SetID:            l.SetID,
		DailyMedURL:      dailymedURL,
		BrandName:        FirstOf(l.OpenFDA.BrandName),
		GenericName:      FirstOf(l.OpenFDA.GenericName),
		ManufacturerName: FirstOf(l.OpenFDA.ManufacturerName),
		Route:            FirstOf(l.OpenFDA.Route),
		DosageForm:       FirstOf(l.OpenFDA.DosageForm),
		SubstanceName:    l.OpenFDA.SubstanceName,
		ProductNDC:       FirstOf(l.OpenFDA.ProductNDC),
	}
}

package enrich

import "strings"

// SectionsStandard is the default label section bundle.
var SectionsStandard = []string{
	"boxed_warning",
	"indications_and_usage",
	"dosage_and_administration",
	"contraindications",
	"warnings_and_precautions",
	"drug_interactions",
	"adverse_reactions",
}

// SectionsPharmacist is the broader bundle covering the sections
// pharmacists reach for.
var SectionsPharmacist = []string{
	"highlights_of_prescribing_information",
	"recent_major_changes",
	"boxed_warning",
	"indications_and_usage",
	"dosage_and_administration",
	"dosage_forms_and_strengths",
	"contraindications",
	"warnings_and_precautions",
	"drug_interactions",
	"adverse_reactions",
	"use_in_specific_populations",
	"patient_counseling_information",
	"how_supplied",
	"storage_and_handling",
}

// ParseSections flattens repeated, comma-separated --sections values into
// section keys. Returns nil when nothing was selected, meaning use the
// profile default. The value "all" selects the standard bundle.
func ParseSections(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	for _, v := range out {
		if strings.EqualFold(v, "all") {
			return append([]string(nil), SectionsStandard...)
		}
	}
	return out
}

// SectionsForProfile returns the default section bundle for an output
// profile. Unknown profiles get the standard bundle.
func SectionsForProfile(profile string) []string {
	if strings.EqualFold(profile, "pharmacist") {
		return append([]string(nil), SectionsPharmacist...)
	}
	return append([]string(nil), SectionsStandard...)
}

package enrich

import (
	"regexp"
	"strings"

	"github.com/rxindex/medinfo-cli/internal/model"
)

// SafetyFlags is the derived safety block: a conservative reading of the
// label, meant as a hint, never a clinical determination.
type SafetyFlags struct {
	BoxedWarningPresent    bool   `json:"boxed_warning_present"`
	BoxedWarningExcerpt    string `json:"boxed_warning_excerpt,omitempty"`
	DEASchedule            string `json:"dea_schedule,omitempty"`
	ScheduleGuess          string `json:"controlled_substance_schedule_guess,omitempty"`
	ScheduleEvidence       string `json:"controlled_substance_evidence,omitempty"`
	MedicationGuidePresent bool   `json:"medication_guide_field_present"`
}

var scheduleREs = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bSchedule\s*(I|II|III|IV|V|1|2|3|4|5)\b`),
	regexp.MustCompile(`(?i)\bC-?(I|II|III|IV|V)\b`),
}

var romanForDigit = map[string]string{
	"1": "I", "2": "II", "3": "III", "4": "IV", "5": "V",
}

// BuildSafetyFlags derives the safety block from a label: boxed warning
// presence with an excerpt, a controlled-substance schedule guess with
// its evidence snippet, and whether a medication guide field exists.
func BuildSafetyFlags(label *model.Label) *SafetyFlags {
	if label == nil {
		return nil
	}

	flags := &SafetyFlags{}

	if boxed := label.SectionText("boxed_warning"); boxed != "" {
		flags.BoxedWarningPresent = true
		flags.BoxedWarningExcerpt = compactText(boxed, 240)
	}

	flags.DEASchedule = model.FirstOf(label.OpenFDA.DEASchedule)

	fields := label.TextFields()
	flags.ScheduleGuess, flags.ScheduleEvidence = guessSchedule(fields)

	for _, ft := range fields {
		if strings.HasPrefix(strings.ToLower(ft.Field), "medication_guide") {
			flags.MedicationGuidePresent = true
			break
		}
	}

	return flags
}

// guessSchedule scans the combined label text for CSA schedule mentions,
// normalizing digits to Roman numerals and keeping an evidence snippet.
func guessSchedule(fields []model.FieldText) (schedule, evidence string) {
	parts := make([]string, 0, len(fields))
	for _, ft := range fields {
		parts = append(parts, ft.Text)
	}
	combined := strings.Join(parts, "\n\n")

	for _, re := range scheduleREs {
		loc := re.FindStringSubmatchIndex(combined)
		if loc == nil {
			continue
		}
		raw := strings.ToUpper(combined[loc[2]:loc[3]])
		sched := raw
		if roman, ok := romanForDigit[raw]; ok {
			sched = roman
		}
		lo := loc[0] - snippetRadius
		if lo < 0 {
			lo = 0
		}
		hi := loc[1] + snippetRadius
		if hi > len(combined) {
			hi = len(combined)
		}
		return sched, compactText(combined[lo:hi], 0)
	}
	return "", ""
}

var spaceRunRE = regexp.MustCompile(`\s+`)

// compactText collapses whitespace runs and truncates to maxLen runes
// with an ellipsis. maxLen <= 0 means no truncation.
func compactText(s string, maxLen int) string {
	x := strings.TrimSpace(spaceRunRE.ReplaceAllString(s, " "))
	if maxLen <= 0 {
		return x
	}
	runes := []rune(x)
	if len(runes) <= maxLen {
		return x
	}
	return string(runes[:maxLen-1]) + "…"
}

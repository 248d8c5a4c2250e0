package niosh

import (
	"regexp"
	"strings"

	"github.com/rxindex/medinfo-cli/internal/resolve"
)

// Flag names keyed by table. Table 1 carries the MSHI and Biologics
// columns; table 2 carries the BLA and developmental/reproductive-only
// columns.
const (
	FlagMSHI       = "mshi"
	FlagBiologics  = "biologics"
	FlagBLA        = "biologics_license_application"
	FlagDevelRepro = "only_developmental_or_reproductive_hazard"
)

// Record is one hazardous-drug row extracted from the list.
type Record struct {
	Drug  string             `json:"drug"`
	Table int                `json:"table"`
	AHFS  string             `json:"ahfs,omitempty"`
	Flags map[string]*string `json:"flags,omitempty"`
}

var (
	// ahfsRE matches the numeric AHFS classification prefix (e.g. "10:00").
	ahfsRE = regexp.MustCompile(`^\d{1,2}:\d{2}`)
	// bareIntRE matches page numbers and footnote markers standing alone.
	bareIntRE = regexp.MustCompile(`^\d+$`)
	// freshNameRE matches a line that reads like a new lowercase drug name
	// rather than a classification continuation.
	freshNameRE = regexp.MustCompile(`^[a-z0-9][a-z0-9\-\s]+$`)
	anyDigitRE  = regexp.MustCompile(`\d`)
	spaceRunRE  = regexp.MustCompile(`\s+`)
)

// headerLines are the column headings pdftotext repeats at each page
// break, including the misspelled variants present in the source PDF.
var headerLines = map[string]bool{
	"Drug":                        true,
	"AHFS Classifcation":          true,
	"AHFS Classification":         true,
	"MSHI":                        true,
	"Biologics":                   true,
	"Biologics License":           true,
	"Application":                 true,
	"Only Developmental and/":     true,
	"or Reproductive Hazard†":     true,
	"IARC and NTP Classifcation":  true,
	"IARC and NTP Classification": true,
}

// noisePhrases mark prose lines that can never be part of a drug name.
var noisePhrases = []string{
	"te drugs", "tese drugs", "drugs reviewed", "table abbreviations", "foreword", "contents",
}

// parser is the line state machine over the extracted text. table is the
// active table (0 while outside both), pending buffers the last few short
// lines as a possibly multi-line drug name.
type parser struct {
	lines   []string
	table   int
	pending []string
	records []Record
}

// Parse extracts the Table 1 and Table 2 rows from pdftotext output,
// deduplicated by (folded name, table).
func Parse(text string) []Record {
	raw := strings.Split(text, "\n")
	p := &parser{lines: make([]string, len(raw))}
	for i, ln := range raw {
		p.lines[i] = strings.TrimSpace(ln)
	}
	p.run()
	return p.dedupe()
}

func (p *parser) run() {
	i := 0
	for i < len(p.lines) {
		ln := p.lines[i]

		if strings.HasPrefix(ln, "Table 1") {
			p.table, p.pending = 1, nil
			i++
			continue
		}
		if strings.HasPrefix(ln, "Table 2") {
			p.table, p.pending = 2, nil
			i++
			continue
		}

		if p.table == 0 {
			i++
			continue
		}

		if ln == "" || headerLines[ln] {
			p.pending = nil
			i++
			continue
		}

		if ln == "Yes" || ln == "No" || bareIntRE.MatchString(ln) {
			i++
			continue
		}

		if ahfsRE.MatchString(ln) {
			i = p.finishRecord(i)
			continue
		}

		lower := strings.ToLower(ln)
		noisy := false
		for _, phrase := range noisePhrases {
			if strings.Contains(lower, phrase) {
				noisy = true
				break
			}
		}
		if noisy {
			p.pending = nil
			i++
			continue
		}

		// A short line is (part of) a drug name; keep at most three.
		if len(ln) <= 60 {
			p.pending = append(p.pending, ln)
			if len(p.pending) > 3 {
				p.pending = p.pending[len(p.pending)-3:]
			}
		}
		i++
	}
}

// finishRecord closes out the pending drug name at an AHFS line, greedily
// consuming classification continuation lines and the positional Yes/No
// flags. Returns the index to resume scanning from.
func (p *parser) finishRecord(i int) int {
	drug := spaceRunRE.ReplaceAllString(strings.Join(p.pending, " "), " ")
	drug = strings.TrimSpace(drug)
	p.pending = nil

	ahfsParts := []string{p.lines[i]}
	j := i + 1
	for j < len(p.lines) {
		next := p.lines[j]
		if next == "" || next == "Yes" || next == "No" || strings.HasPrefix(next, "Table ") {
			break
		}
		// A plain lowercase line with no digits is a fresh drug name, not
		// more classification text.
		if freshNameRE.MatchString(next) && !anyDigitRE.MatchString(next) {
			break
		}
		ahfsParts = append(ahfsParts, next)
		j++
	}
	ahfs := strings.TrimSpace(spaceRunRE.ReplaceAllString(strings.Join(ahfsParts, " "), " "))

	yn := p.takeYesNo(j, 2)

	rec := Record{Drug: drug, Table: p.table, AHFS: ahfs, Flags: map[string]*string{}}
	if p.table == 1 {
		rec.Flags[FlagMSHI] = pick(yn, 0)
		rec.Flags[FlagBiologics] = pick(yn, 1)
	} else {
		rec.Flags[FlagBLA] = pick(yn, 0)
		rec.Flags[FlagDevelRepro] = pick(yn, 1)
	}

	if drug != "" {
		p.records = append(p.records, rec)
	}
	return j
}

// takeYesNo collects up to n bare Yes/No tokens scanning forward from
// start, skipping anything else.
func (p *parser) takeYesNo(start, n int) []string {
	var out []string
	for k := start; k < len(p.lines) && len(out) < n; k++ {
		if p.lines[k] == "Yes" || p.lines[k] == "No" {
			out = append(out, p.lines[k])
		}
	}
	return out
}

func pick(vals []string, i int) *string {
	if i >= len(vals) {
		return nil
	}
	v := vals[i]
	return &v
}

// dedupe keeps the first record per (folded name, table) pair and drops
// empty names.
func (p *parser) dedupe() []Record {
	type key struct {
		name  string
		table int
	}
	seen := make(map[key]bool, len(p.records))
	out := make([]Record, 0, len(p.records))
	for _, r := range p.records {
		k := key{name: resolve.FoldAlnum(r.Drug), table: r.Table}
		if k.name == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}

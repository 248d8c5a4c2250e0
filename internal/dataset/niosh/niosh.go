// Package niosh ingests the NIOSH hazardous drug list. The source is a
// formatted PDF, so the pipeline is download → pdftotext → line parser,
// with each stage cached independently.
package niosh

import (
	"context"
	"os"
	"time"

	"github.com/rotisserie/eris"

	"github.com/rxindex/medinfo-cli/internal/cache"
	"github.com/rxindex/medinfo-cli/internal/config"
	"github.com/rxindex/medinfo-cli/internal/dataset"
	"github.com/rxindex/medinfo-cli/internal/ocr"
	"github.com/rxindex/medinfo-cli/internal/resolve"
)

const (
	pdfName    = "hazardous-list.pdf"
	txtName    = "hazardous-list.txt"
	parsedName = "hazardous-list.parsed.json"
)

// Result is the outcome of loading the list. OK false means the dataset
// is unavailable for a structural reason (missing tool, bad download);
// Reason and the reference URLs let callers report it without guessing.
type Result struct {
	OK      bool     `json:"ok"`
	Reason  string   `json:"reason,omitempty"`
	DocURL  string   `json:"doc_url,omitempty"`
	PDFURL  string   `json:"pdf_url,omitempty"`
	Count   int      `json:"count,omitempty"`
	Records []Record `json:"records,omitempty"`
}

// MatchResult is the hazardous-list block for one lookup.
type MatchResult struct {
	OK      bool     `json:"ok"`
	Reason  string   `json:"reason,omitempty"`
	DocURL  string   `json:"doc_url,omitempty"`
	PDFURL  string   `json:"pdf_url,omitempty"`
	Matches []Record `json:"matches"`
	Note    string   `json:"note,omitempty"`
}

// List manages the cached hazardous drug list.
type List struct {
	cache     *cache.Store
	extractor ocr.Extractor
	cfg       config.NIOSHConfig
}

// New creates a List over the shared dataset cache, extracting PDF text
// through extractor.
func New(c *cache.Store, extractor ocr.Extractor, cfg config.NIOSHConfig) *List {
	return &List{cache: c, extractor: extractor, cfg: cfg}
}

// Name implements dataset.Dataset.
func (l *List) Name() string { return "niosh" }

// MaxAge implements dataset.Dataset.
func (l *List) MaxAge() time.Duration {
	return time.Duration(l.cfg.MaxAgeDays) * 24 * time.Hour
}

// Refresh re-downloads the PDF and rebuilds the parsed cache. Unlike
// Load, an unavailable extraction tool is an error here so the sync log
// records why the refresh cannot happen.
func (l *List) Refresh(ctx context.Context) (*dataset.Status, error) {
	if !l.extractor.Available() {
		return nil, eris.New("niosh: pdftotext not installed")
	}
	res, err := l.rebuild(ctx, true)
	if err != nil {
		return nil, err
	}
	return &dataset.Status{Rows: res.Count, Note: l.cfg.PDFURL}, nil
}

// Load returns the parsed hazardous list. Structural unavailability
// (missing pdftotext) is reported inside the Result, not as an error.
func (l *List) Load(ctx context.Context) (*Result, error) {
	parsed := l.cache.Path("niosh", parsedName)
	if l.cache.IsFresh(parsed, l.MaxAge()) {
		var res Result
		if err := l.cache.ReadJSON(parsed, &res); err == nil {
			return &res, nil
		}
		// Corrupt parsed cache: fall through and rebuild it.
		_ = l.cache.Remove(parsed)
	}

	if !l.extractor.Available() {
		return &Result{
			OK:     false,
			Reason: "pdftotext not installed",
			DocURL: l.cfg.DocURL,
			PDFURL: l.cfg.PDFURL,
		}, nil
	}

	return l.rebuild(ctx, false)
}

// rebuild regenerates whichever pipeline stages are stale: PDF download,
// text extraction, then the parsed-record JSON cache.
func (l *List) rebuild(ctx context.Context, force bool) (*Result, error) {
	pdf := l.cache.Path("niosh", pdfName)
	if force || !l.cache.IsFresh(pdf, l.MaxAge()) {
		if err := l.cache.DownloadTo(ctx, l.cfg.PDFURL, pdf); err != nil {
			return nil, err
		}
	}

	txt := l.cache.Path("niosh", txtName)
	txtTime, txtExists := l.cache.ModTime(txt)
	pdfTime, _ := l.cache.ModTime(pdf)
	if force || !txtExists || txtTime.Before(pdfTime) {
		text, err := l.extractor.ExtractText(ctx, pdf)
		if err != nil {
			return nil, err
		}
		if err := writeAtomic(txt, []byte(text)); err != nil {
			return nil, err
		}
	}

	raw, err := os.ReadFile(txt)
	if err != nil {
		return nil, eris.Wrapf(err, "niosh: read %s", txt)
	}
	records := Parse(string(raw))

	res := &Result{
		OK:      true,
		DocURL:  l.cfg.DocURL,
		PDFURL:  l.cfg.PDFURL,
		Count:   len(records),
		Records: records,
	}
	if err := l.cache.WriteJSON(l.cache.Path("niosh", parsedName), res); err != nil {
		return nil, err
	}
	return res, nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrapf(err, "niosh: write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return eris.Wrapf(err, "niosh: rename %s", path)
	}
	return nil
}

// Match reports list records whose name exactly equals one of the
// candidate names after folding. Containment would be wrong here; the
// table names are precise terms.
func (l *List) Match(ctx context.Context, candidateNames []string, max int) (*MatchResult, error) {
	wanted := make(map[string]bool, len(candidateNames))
	for _, c := range candidateNames {
		if f := resolve.FoldAlnum(c); f != "" {
			wanted[f] = true
		}
	}

	data, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !data.OK {
		return &MatchResult{
			OK:      false,
			Reason:  data.Reason,
			DocURL:  data.DocURL,
			PDFURL:  data.PDFURL,
			Matches: []Record{},
		}, nil
	}

	matches := []Record{}
	for _, r := range data.Records {
		if len(matches) >= max {
			break
		}
		if wanted[resolve.FoldAlnum(r.Drug)] {
			matches = append(matches, r)
		}
	}

	return &MatchResult{
		OK:      true,
		DocURL:  data.DocURL,
		PDFURL:  data.PDFURL,
		Matches: matches,
		Note:    "NIOSH list matching is best-effort; verify against the full NIOSH document.",
	}, nil
}

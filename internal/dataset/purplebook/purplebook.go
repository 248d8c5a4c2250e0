// Package purplebook ingests the FDA Purple Book monthly CSV export of
// licensed biologics and biosimilars.
//
// The export rotates by calendar month, the current month's file is not
// guaranteed to exist yet, and some months serve an HTML application
// shell instead of data. Fetching therefore walks backward month by
// month, structurally validating each candidate before trusting it.
package purplebook

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/rxindex/medinfo-cli/internal/cache"
	"github.com/rxindex/medinfo-cli/internal/config"
	"github.com/rxindex/medinfo-cli/internal/dataset"
	"github.com/rxindex/medinfo-cli/internal/fetcher"
	"github.com/rxindex/medinfo-cli/internal/resolve"
)

// headerSignature is the start of the real export's header row. Anything
// claiming to be the export without it is rejected.
const headerSignature = "N/R/U,Applicant,BLA Number"

// Entry is one Purple Book product row.
type Entry struct {
	Applicant                 string `json:"applicant,omitempty"`
	BLANumber                 string `json:"bla_number,omitempty"`
	ProprietaryName           string `json:"proprietary_name,omitempty"`
	ProperName                string `json:"proper_name,omitempty"`
	BLAType                   string `json:"bla_type,omitempty"`
	Strength                  string `json:"strength,omitempty"`
	DosageForm                string `json:"dosage_form,omitempty"`
	Route                     string `json:"route,omitempty"`
	Presentation              string `json:"presentation,omitempty"`
	MarketingStatus           string `json:"marketing_status,omitempty"`
	Licensure                 string `json:"licensure,omitempty"`
	ApprovalDate              string `json:"approval_date,omitempty"`
	RefProductProperName      string `json:"ref_product_proper_name,omitempty"`
	RefProductProprietaryName string `json:"ref_product_proprietary_name,omitempty"`
	Interchangeable           string `json:"interchangeable,omitempty"`
}

// Book manages the cached Purple Book export.
type Book struct {
	cache *cache.Store
	cfg   config.PurpleBookConfig

	mu      sync.Mutex
	entries []Entry
	loaded  bool
}

// New creates a Book over the shared dataset cache.
func New(c *cache.Store, cfg config.PurpleBookConfig) *Book {
	return &Book{cache: c, cfg: cfg}
}

// Name implements dataset.Dataset.
func (b *Book) Name() string { return "purplebook" }

// MaxAge implements dataset.Dataset.
func (b *Book) MaxAge() time.Duration {
	return time.Duration(b.cfg.MaxAgeDays) * 24 * time.Hour
}

// Refresh re-runs the month walk ignoring cached freshness.
func (b *Book) Refresh(ctx context.Context) (*dataset.Status, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	path, err := b.downloadLatest(ctx, true)
	if err != nil {
		return nil, err
	}
	entries, err := parseExport(path)
	if err != nil {
		return nil, err
	}
	b.entries, b.loaded = entries, true
	return &dataset.Status{Rows: len(entries), Note: path}, nil
}

// Load returns the parsed rows from the newest validated export,
// downloading when nothing cached is fresh.
func (b *Book) Load(ctx context.Context) ([]Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.loaded {
		return b.entries, nil
	}
	path, err := b.downloadLatest(ctx, false)
	if err != nil {
		return nil, err
	}
	entries, err := parseExport(path)
	if err != nil {
		return nil, err
	}
	b.entries, b.loaded = entries, true
	return b.entries, nil
}

// downloadLatest walks backward from the most recently completed month
// and returns the path of the first validated export. Invalid downloads
// are deleted so a poisoned cache entry cannot satisfy a later walk.
func (b *Book) downloadLatest(ctx context.Context, force bool) (string, error) {
	log := zap.L().With(zap.String("dataset", "purplebook"))
	walker := newMonthWalker(time.Now(), b.cfg.MaxMonthsBack)

	for {
		year, month, ok := walker.next()
		if !ok {
			break
		}

		dest := b.cache.Path("purplebook", fmt.Sprintf("%d-%s.csv", year, month))

		if !force && b.cache.IsFresh(dest, b.MaxAge()) {
			if err := validateExport(dest); err == nil {
				return dest, nil
			}
			// Structurally wrong content must not survive in the cache.
			_ = b.cache.Remove(dest)
		}

		url := exportURL(b.cfg.BaseURL, year, month)
		if err := b.cache.DownloadTo(ctx, url, dest); err != nil {
			log.Debug("month download failed", zap.Int("year", year), zap.String("month", month), zap.Error(err))
			continue
		}
		if err := validateExport(dest); err != nil {
			log.Debug("month failed validation", zap.Int("year", year), zap.String("month", month), zap.Error(err))
			_ = b.cache.Remove(dest)
			continue
		}
		return dest, nil
	}

	return "", eris.Errorf("purplebook: no valid export found in the last %d months", b.cfg.MaxMonthsBack)
}

// validateExport checks that the file is the CSV export and not an HTML
// error shell. Only the leading bytes are examined.
func validateExport(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "purplebook: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	head := make([]byte, 5000)
	n, _ := f.Read(head)
	text := string(head[:n])

	if strings.Contains(text, "<!DOCTYPE html>") || strings.HasPrefix(strings.TrimLeft(text, " \t\r\n"), "<") {
		return eris.New("purplebook: download is HTML, not the CSV export")
	}
	if !strings.Contains(text, headerSignature) {
		return eris.New("purplebook: download missing expected CSV header")
	}
	return nil
}

// parseExport reads a validated export. The header row is located by its
// known leading columns; preamble rows before it are ignored, short rows
// are right-padded, and fully empty rows are skipped.
func parseExport(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "purplebook: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	ctx := context.Background()
	rows, errCh := fetcher.StreamCSV(ctx, f, fetcher.CSVOptions{TrimSpace: true, LazyQuotes: true})

	var header []string
	idx := make(map[string]int)
	var out []Entry

	for row := range rows {
		if header == nil {
			if len(row) >= 3 && row[0] == "N/R/U" && row[1] == "Applicant" && row[2] == "BLA Number" {
				header = row
				for i, h := range header {
					idx[h] = i
				}
			}
			continue
		}

		for len(row) < len(header) {
			row = append(row, "")
		}

		empty := true
		for _, v := range row {
			if v != "" {
				empty = false
				break
			}
		}
		if empty {
			continue
		}

		field := func(name string) string {
			i, ok := idx[name]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}

		out = append(out, Entry{
			Applicant:                 field("Applicant"),
			BLANumber:                 field("BLA Number"),
			ProprietaryName:           field("Proprietary Name"),
			ProperName:                field("Proper Name"),
			BLAType:                   field("BLA Type"),
			Strength:                  field("Strength"),
			DosageForm:                field("Dosage Form"),
			Route:                     field("Route of Administration"),
			Presentation:              field("Product Presentation"),
			MarketingStatus:           field("Marketing Status"),
			Licensure:                 field("Licensure"),
			ApprovalDate:              field("Approval Date"),
			RefProductProperName:      field("Ref. Product Proper Name"),
			RefProductProprietaryName: field("Ref. Product Proprietary Name"),
			Interchangeable:           field("Interchangeable"),
		})
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrap(err, "purplebook: parse export")
	}
	if header == nil {
		return nil, eris.New("purplebook: header row not found")
	}
	return out, nil
}

// searchFields are the folded name/applicant fields containment search
// runs over.
func searchBlob(e Entry) string {
	return strings.Join([]string{
		resolve.Fold(e.ProprietaryName),
		resolve.Fold(e.ProperName),
		resolve.Fold(e.RefProductProprietaryName),
		resolve.Fold(e.RefProductProperName),
		resolve.Fold(e.Applicant),
	}, " ")
}

// Search returns up to max rows containing term in any of the five
// name/applicant fields, deduplicated by the applicant/BLA/name composite
// key. No scoring; the export carries no useful ranking signal.
func (b *Book) Search(ctx context.Context, term string, max int) ([]Entry, error) {
	folded := resolve.Fold(term)
	if folded == "" {
		return nil, nil
	}
	rows, err := b.Load(ctx)
	if err != nil {
		return nil, err
	}

	type key struct {
		bla, proprietary, proper, applicant string
	}
	seen := make(map[key]bool)

	var hits []Entry
	for _, r := range rows {
		if !strings.Contains(searchBlob(r), folded) {
			continue
		}
		k := key{
			bla:         r.BLANumber,
			proprietary: resolve.Fold(r.ProprietaryName),
			proper:      resolve.Fold(r.ProperName),
			applicant:   resolve.Fold(r.Applicant),
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		hits = append(hits, r)
		if len(hits) >= max {
			break
		}
	}
	return hits, nil
}

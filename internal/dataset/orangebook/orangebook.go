// Package orangebook ingests the FDA Orange Book products file and serves
// local substring searches over it.
package orangebook

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/charmap"

	"github.com/rxindex/medinfo-cli/internal/cache"
	"github.com/rxindex/medinfo-cli/internal/config"
	"github.com/rxindex/medinfo-cli/internal/dataset"
	"github.com/rxindex/medinfo-cli/internal/fetcher"
	"github.com/rxindex/medinfo-cli/internal/resolve"
)

const (
	zipName     = "orangebook.zip"
	productsTxt = "products.txt"
)

// Entry is one Orange Book product row.
type Entry struct {
	Ingredient   string `json:"ingredient,omitempty"`
	TradeName    string `json:"trade_name,omitempty"`
	Strength     string `json:"strength,omitempty"`
	DFRoute      string `json:"df_route,omitempty"`
	Applicant    string `json:"applicant,omitempty"`
	ApplType     string `json:"appl_type,omitempty"`
	ApplNo       string `json:"appl_no,omitempty"`
	ProductNo    string `json:"product_no,omitempty"`
	TECode       string `json:"te_code,omitempty"`
	RLD          string `json:"rld,omitempty"`
	RS           string `json:"rs,omitempty"`
	Type         string `json:"type,omitempty"`
	ApprovalDate string `json:"approval_date,omitempty"`
}

// Book manages the cached Orange Book products table.
type Book struct {
	cache *cache.Store
	cfg   config.OrangeBookConfig

	mu      sync.Mutex
	entries []Entry
	loaded  bool
}

// New creates a Book over the shared dataset cache.
func New(c *cache.Store, cfg config.OrangeBookConfig) *Book {
	return &Book{cache: c, cfg: cfg}
}

// Name implements dataset.Dataset.
func (b *Book) Name() string { return "orangebook" }

// MaxAge implements dataset.Dataset.
func (b *Book) MaxAge() time.Duration {
	return time.Duration(b.cfg.MaxAgeDays) * 24 * time.Hour
}

// Refresh downloads the zip, extracts products.txt, and reparses,
// regardless of freshness.
func (b *Book) Refresh(ctx context.Context) (*dataset.Status, error) {
	entries, err := b.load(ctx, true)
	if err != nil {
		return nil, err
	}
	return &dataset.Status{Rows: len(entries), Note: productsTxt}, nil
}

// Load returns the parsed product rows, downloading first when the cached
// copy is missing or stale.
func (b *Book) Load(ctx context.Context) ([]Entry, error) {
	return b.load(ctx, false)
}

func (b *Book) load(ctx context.Context, force bool) ([]Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	products := b.cache.Path("orangebook", productsTxt)
	fresh := b.cache.IsFresh(products, b.MaxAge())

	if b.loaded && fresh && !force {
		return b.entries, nil
	}

	if force || !fresh {
		zipPath := b.cache.Path("orangebook", zipName)
		if err := b.cache.DownloadTo(ctx, b.cfg.URL, zipPath); err != nil {
			return nil, err
		}
		dir, err := b.cache.EnsureDir("orangebook")
		if err != nil {
			return nil, err
		}
		if _, err := fetcher.ExtractZIPFile(zipPath, productsTxt, dir); err != nil {
			return nil, eris.Wrap(err, "orangebook: extract products file")
		}
	}

	raw, err := os.ReadFile(products)
	if err != nil {
		return nil, eris.Wrapf(err, "orangebook: read %s", products)
	}

	// The file is Latin-1, not UTF-8; trade names carry accented characters.
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, eris.Wrap(err, "orangebook: decode latin-1")
	}

	b.entries = parseProducts(string(decoded))
	b.loaded = true
	return b.entries, nil
}

// parseProducts parses the tilde-delimited products table. The first line
// is the header; short rows are right-padded with empty fields, which the
// export produces when trailing fields are empty.
func parseProducts(text string) []Entry {
	lines := strings.Split(text, "\n")
	if len(lines) == 0 {
		return nil
	}

	header := strings.Split(strings.TrimRight(lines[0], "\r"), "~")
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}

	field := func(parts []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(parts) {
			return ""
		}
		return parts[i]
	}

	out := make([]Entry, 0, len(lines)-1)
	for _, line := range lines[1:] {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, "~")
		for len(parts) < len(header) {
			parts = append(parts, "")
		}

		applicant := field(parts, "Applicant_Full_Name")
		if applicant == "" {
			applicant = field(parts, "Applicant")
		}

		out = append(out, Entry{
			Ingredient:   field(parts, "Ingredient"),
			TradeName:    field(parts, "Trade_Name"),
			Strength:     field(parts, "Strength"),
			DFRoute:      field(parts, "DF;Route"),
			Applicant:    applicant,
			ApplType:     field(parts, "Appl_Type"),
			ApplNo:       field(parts, "Appl_No"),
			ProductNo:    field(parts, "Product_No"),
			TECode:       field(parts, "TE_Code"),
			RLD:          field(parts, "RLD"),
			RS:           field(parts, "RS"),
			Type:         field(parts, "Type"),
			ApprovalDate: field(parts, "Approval_Date"),
		})
	}
	return out
}

// Search returns the first max rows whose ingredient or trade name
// contains term after folding. The file is already curated, so hits keep
// file order.
func (b *Book) Search(ctx context.Context, term string, max int) ([]Entry, error) {
	folded := resolve.Fold(term)
	if folded == "" {
		return nil, nil
	}
	rows, err := b.Load(ctx)
	if err != nil {
		return nil, err
	}

	var hits []Entry
	for _, r := range rows {
		if strings.Contains(resolve.Fold(r.Ingredient), folded) ||
			strings.Contains(resolve.Fold(r.TradeName), folded) {
			hits = append(hits, r)
			if len(hits) >= max {
				break
			}
		}
	}
	return hits, nil
}

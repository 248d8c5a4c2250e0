// Package batchfile parses the YAML input for batch lookups: a list of
// queries, each either a bare string or a mapping with per-query options.
package batchfile

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/rxindex/medinfo-cli/internal/enrich"
)

// Query is one batch lookup. In YAML it may be a plain scalar (just the
// query text) or a mapping selecting blocks and sections for that query.
type Query struct {
	Query    string   `yaml:"query"`
	SetID    string   `yaml:"set_id"`
	Profile  string   `yaml:"profile"`
	Sections []string `yaml:"sections"`
	Keywords []string `yaml:"keywords"`
	Blocks   []string `yaml:"blocks"`
}

// UnmarshalYAML accepts both the scalar and the mapping form.
func (q *Query) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		q.Query = strings.TrimSpace(node.Value)
		return nil
	}

	type plain Query
	var p plain
	if err := node.Decode(&p); err != nil {
		return eris.Wrap(err, "batchfile: decode query entry")
	}
	*q = Query(p)
	q.Query = strings.TrimSpace(q.Query)
	return nil
}

// File is a parsed batch input file.
type File struct {
	Queries []Query `yaml:"queries"`
}

// Load reads and validates a batch file. Every entry must carry a
// non-empty query.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "batchfile: read %s", path)
	}
	return Parse(raw)
}

// Parse decodes batch file content.
func Parse(raw []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, eris.Wrap(err, "batchfile: parse yaml")
	}
	if len(f.Queries) == 0 {
		return nil, eris.New("batchfile: no queries listed")
	}
	for i, q := range f.Queries {
		if q.Query == "" {
			return nil, eris.Errorf("batchfile: query %d is empty", i+1)
		}
	}
	return &f, nil
}

// blockFlags maps YAML block names to option setters. Aliases follow the
// CLI flag names.
var blockFlags = map[string]func(*enrich.Options){
	"recalls":      func(o *enrich.Options) { o.Recalls = true },
	"shortages":    func(o *enrich.Options) { o.Shortages = true },
	"faers":        func(o *enrich.Options) { o.FAERS = true },
	"class":        func(o *enrich.Options) { o.Classes = true },
	"classes":      func(o *enrich.Options) { o.Classes = true },
	"interactions": func(o *enrich.Options) { o.Interactions = true },
	"chem":         func(o *enrich.Options) { o.Chemistry = true },
	"history":      func(o *enrich.Options) { o.DailyMed = true },
	"dailymed":     func(o *enrich.Options) { o.DailyMed = true },
	"media":        func(o *enrich.Options) { o.Images = true },
	"images":       func(o *enrich.Options) { o.Images = true },
	"orange":       func(o *enrich.Options) { o.OrangeBook = true },
	"orangebook":   func(o *enrich.Options) { o.OrangeBook = true },
	"purple":       func(o *enrich.Options) { o.PurpleBook = true },
	"purplebook":   func(o *enrich.Options) { o.PurpleBook = true },
	"niosh":        func(o *enrich.Options) { o.NIOSH = true },
	"rems":         func(o *enrich.Options) { o.REMS = true },
	"all":          func(o *enrich.Options) { o.EnableAll() },
}

// EnrichOptions turns the query's YAML selections into enrichment
// options, starting from defaults. Unknown block names are errors so a
// typo in a batch file does not silently skip a block.
func (q Query) EnrichOptions(defaults enrich.Options) (enrich.Options, error) {
	opts := defaults
	for _, name := range q.Blocks {
		set, ok := blockFlags[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return opts, eris.Errorf("batchfile: unknown block %q for query %q", name, q.Query)
		}
		set(&opts)
	}
	if q.Profile != "" {
		opts.Profile = q.Profile
	}
	if sections := enrich.ParseSections(q.Sections); sections != nil {
		opts.Sections = sections
	}
	if len(q.Keywords) > 0 {
		opts.Keywords = q.Keywords
	}
	return opts, nil
}

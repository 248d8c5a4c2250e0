package batchfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxindex/medinfo-cli/internal/enrich"
)

const sampleYAML = `queries:
  - warfarin
  - query: "0002-3227-30"
    blocks: [recalls, shortages]
  - query: adalimumab
    profile: pharmacist
    sections: ["boxed_warning,adverse_reactions"]
    keywords: [injection]
    blocks:
      - purple
      - niosh
`

func TestParseScalarAndMappingEntries(t *testing.T) {
	t.Parallel()

	f, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	require.Len(t, f.Queries, 3)

	assert.Equal(t, "warfarin", f.Queries[0].Query)
	assert.Empty(t, f.Queries[0].Blocks)

	assert.Equal(t, "0002-3227-30", f.Queries[1].Query)
	assert.Equal(t, []string{"recalls", "shortages"}, f.Queries[1].Blocks)

	assert.Equal(t, "adalimumab", f.Queries[2].Query)
	assert.Equal(t, "pharmacist", f.Queries[2].Profile)
}

func TestParseRejectsEmpty(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("queries: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no queries")

	_, err = Parse([]byte("queries:\n  - \"  \"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query 1 is empty")
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("queries: [unclosed\n"))
	require.Error(t, err)
}

func TestLoadFromDisk(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "queries.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, f.Queries, 3)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestEnrichOptions(t *testing.T) {
	t.Parallel()

	f, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	defaults := enrich.Options{Profile: "standard", MaxHits: 20}

	opts, err := f.Queries[0].EnrichOptions(defaults)
	require.NoError(t, err)
	assert.Equal(t, defaults, opts, "scalar entries keep the defaults")

	opts, err = f.Queries[1].EnrichOptions(defaults)
	require.NoError(t, err)
	assert.True(t, opts.Recalls)
	assert.True(t, opts.Shortages)
	assert.False(t, opts.FAERS)

	opts, err = f.Queries[2].EnrichOptions(defaults)
	require.NoError(t, err)
	assert.True(t, opts.PurpleBook)
	assert.True(t, opts.NIOSH)
	assert.Equal(t, "pharmacist", opts.Profile)
	assert.Equal(t, []string{"boxed_warning", "adverse_reactions"}, opts.Sections)
	assert.Equal(t, []string{"injection"}, opts.Keywords)
}

func TestEnrichOptionsAllAndUnknown(t *testing.T) {
	t.Parallel()

	q := Query{Query: "warfarin", Blocks: []string{"ALL"}}
	opts, err := q.EnrichOptions(enrich.Options{})
	require.NoError(t, err)
	assert.True(t, opts.Recalls)
	assert.True(t, opts.REMS)
	assert.True(t, opts.NIOSH)

	q = Query{Query: "warfarin", Blocks: []string{"recals"}}
	_, err = q.EnrichOptions(enrich.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown block "recals"`)
}

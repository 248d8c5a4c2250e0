package orangebook

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxindex/medinfo-cli/internal/cache"
	"github.com/rxindex/medinfo-cli/internal/config"
)

const sampleProducts = "Ingredient~DF;Route~Trade_Name~Applicant~Strength~Appl_Type~Appl_No~Product_No~TE_Code~Approval_Date~RLD~RS~Type~Applicant_Full_Name\r\n" +
	"IBUPROFEN~TABLET;ORAL~MOTRIN~PHARMco~800MG~N~017463~004~AB~May 18, 1974~Yes~Yes~RX~PHARMACIA AND UPJOHN CO\r\n" +
	"METFORMIN HYDROCHLORIDE~TABLET;ORAL~GLUCOPHAGE~BMS~500MG~N~020357~001~AB\r\n" +
	"\r\n"

func TestParseProducts(t *testing.T) {
	t.Parallel()

	entries := parseProducts(sampleProducts)
	require.Len(t, entries, 2)

	assert.Equal(t, "IBUPROFEN", entries[0].Ingredient)
	assert.Equal(t, "MOTRIN", entries[0].TradeName)
	assert.Equal(t, "TABLET;ORAL", entries[0].DFRoute)
	assert.Equal(t, "AB", entries[0].TECode)
	assert.Equal(t, "RX", entries[0].Type)
	// Full applicant name preferred over the short code.
	assert.Equal(t, "PHARMACIA AND UPJOHN CO", entries[0].Applicant)

	// Short row is right-padded, not rejected.
	assert.Equal(t, "METFORMIN HYDROCHLORIDE", entries[1].Ingredient)
	assert.Equal(t, "AB", entries[1].TECode)
	assert.Empty(t, entries[1].RLD)
	// No full name available, falls back to the short applicant field.
	assert.Equal(t, "BMS", entries[1].Applicant)
}

func TestParseProductsEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, parseProducts(""))
	assert.Empty(t, parseProducts("Ingredient~Trade_Name\n"))
}

func seedBook(t *testing.T) *Book {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "orangebook"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orangebook", productsTxt), []byte(sampleProducts), 0o644))

	return New(cache.New(dir, nil), config.OrangeBookConfig{URL: "http://unused.invalid", MaxAgeDays: 30})
}

func TestSearchFoldedSubstring(t *testing.T) {
	t.Parallel()

	b := seedBook(t)
	ctx := context.Background()

	hits, err := b.Search(ctx, "ibuprofen", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "MOTRIN", hits[0].TradeName)

	// Trade-name matches too, and matching is substring containment.
	hits, err = b.Search(ctx, "glucoph", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "METFORMIN HYDROCHLORIDE", hits[0].Ingredient)
}

func TestSearchCapAndEmptyTerm(t *testing.T) {
	t.Parallel()

	b := seedBook(t)
	ctx := context.Background()

	// Both rows contain "o" somewhere; the cap keeps only the first.
	hits, err := b.Search(ctx, "o", 1)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	hits, err = b.Search(ctx, "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchMissesReturnNothing(t *testing.T) {
	t.Parallel()

	b := seedBook(t)
	hits, err := b.Search(context.Background(), "atorvastatin", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

package niosh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleText = `NIOSH List of Hazardous Drugs in Healthcare Settings, 2024

Foreword
Tese drugs were reviewed by the committee.

Table 1: Antineoplastic drugs

Drug
AHFS Classification
MSHI
Biologics

azathioprine
10:00
Yes
No

cyclophosphamide
sterile powder
10:00 Antineoplastic
Agents
Yes
No

azathioprine
10:00
No
No

12

Table 2: Non-antineoplastic hazardous drugs

Drug
AHFS Classification
Biologics License
Application
Only Developmental and/
or Reproductive Hazard†

azathioprine
92:44
No
Yes

warfarin
20:12.04
No
Yes
`

func TestParseTablesAndFlags(t *testing.T) {
	t.Parallel()

	records := Parse(sampleText)

	byKey := map[[2]any]Record{}
	for _, r := range records {
		byKey[[2]any{r.Drug, r.Table}] = r
	}

	// Same name in both tables yields two distinct records; the repeat
	// within table 1 deduplicates to the first occurrence.
	require.Len(t, records, 4)

	aza1, ok := byKey[[2]any{"azathioprine", 1}]
	require.True(t, ok)
	require.NotNil(t, aza1.Flags[FlagMSHI])
	assert.Equal(t, "Yes", *aza1.Flags[FlagMSHI])
	require.NotNil(t, aza1.Flags[FlagBiologics])
	assert.Equal(t, "No", *aza1.Flags[FlagBiologics])

	aza2, ok := byKey[[2]any{"azathioprine", 2}]
	require.True(t, ok)
	require.NotNil(t, aza2.Flags[FlagBLA])
	assert.Equal(t, "No", *aza2.Flags[FlagBLA])
	require.NotNil(t, aza2.Flags[FlagDevelRepro])
	assert.Equal(t, "Yes", *aza2.Flags[FlagDevelRepro])
	assert.Equal(t, "92:44", aza2.AHFS)
}

func TestParseMultiLineNameAndClassification(t *testing.T) {
	t.Parallel()

	records := Parse(sampleText)

	var cyclo *Record
	for i := range records {
		if records[i].Drug == "cyclophosphamide sterile powder" {
			cyclo = &records[i]
		}
	}
	require.NotNil(t, cyclo, "multi-line drug name should be joined")
	assert.Equal(t, 1, cyclo.Table)
	// Classification continuation lines are folded into one string.
	assert.Equal(t, "10:00 Antineoplastic Agents", cyclo.AHFS)
}

func TestParseSkipsNoiseAndOutsideTables(t *testing.T) {
	t.Parallel()

	records := Parse(sampleText)
	for _, r := range records {
		assert.NotContains(t, r.Drug, "Foreword")
		assert.NotContains(t, r.Drug, "NIOSH")
		assert.NotEqual(t, "", r.Drug)
	}
}

func TestParseEmptyInput(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Parse(""))
	assert.Empty(t, Parse("no tables here\njust prose\n"))
}

package resolve

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxindex/medinfo-cli/internal/model"
)

func testLabel(t *testing.T, effectiveTime string, substances, generics, brands []string) *model.Label {
	t.Helper()

	doc := map[string]any{
		"effective_time": effectiveTime,
		"openfda": map[string]any{
			"substance_name": substances,
			"generic_name":   generics,
			"brand_name":     brands,
		},
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var l model.Label
	require.NoError(t, json.Unmarshal(data, &l))
	return &l
}

func TestScoreLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		query      string
		substances []string
		generics   []string
		brands     []string
		want       int
	}{
		{
			name:       "exact single substance and generic",
			query:      "Ibuprofen",
			substances: []string{"IBUPROFEN"},
			generics:   []string{"IBUPROFEN"},
			brands:     []string{"ADVIL"},
			want:       150,
		},
		{
			name:       "brand match on single substance label",
			query:      "advil",
			substances: []string{"IBUPROFEN"},
			generics:   []string{"IBUPROFEN"},
			brands:     []string{"ADVIL"},
			want:       60,
		},
		{
			name:       "multi substance penalty",
			query:      "ibuprofen",
			substances: []string{"IBUPROFEN SODIUM", "DIPHENHYDRAMINE CITRATE"},
			generics:   []string{"IBUPROFEN AND DIPHENHYDRAMINE CITRATE"},
			want:       -30,
		},
		{
			name:       "exact substance offsets multi penalty",
			query:      "ibuprofen",
			substances: []string{"IBUPROFEN", "DIPHENHYDRAMINE CITRATE"},
			want:       30,
		},
		{
			name:       "combo query skips substance count scoring",
			query:      "acetaminophen and codeine",
			substances: []string{"ACETAMINOPHEN", "CODEINE PHOSPHATE"},
			generics:   []string{"ACETAMINOPHEN AND CODEINE"},
			want:       40,
		},
		{
			name:       "slash marks combo",
			query:      "hydrocodone/apap",
			substances: []string{"HYDROCODONE BITARTRATE"},
			want:       0,
		},
		{
			name:       "no openfda block",
			query:      "ibuprofen",
			substances: nil,
			want:       0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			l := testLabel(t, "20240101", tt.substances, tt.generics, tt.brands)
			assert.Equal(t, tt.want, ScoreLabel(tt.query, l))
		})
	}
}

func TestRankLabels_BestFirst(t *testing.T) {
	t.Parallel()

	multi := testLabel(t, "20240601", []string{"IBUPROFEN", "FAMOTIDINE"}, nil, nil)
	exact := testLabel(t, "20230101", []string{"IBUPROFEN"}, []string{"IBUPROFEN"}, nil)
	brandOnly := testLabel(t, "20240301", []string{"NAPROXEN SODIUM"}, nil, []string{"IBUPROFEN"})

	labels := []*model.Label{multi, brandOnly, exact}
	RankLabels("ibuprofen", labels)

	assert.Equal(t, []*model.Label{exact, brandOnly, multi}, labels)
}

func TestRankLabels_TieBreaksOnNewerEffectiveTime(t *testing.T) {
	t.Parallel()

	older := testLabel(t, "20200101", []string{"IBUPROFEN"}, []string{"IBUPROFEN"}, nil)
	newer := testLabel(t, "20250101", []string{"IBUPROFEN"}, []string{"IBUPROFEN"}, nil)

	labels := []*model.Label{older, newer}
	RankLabels("ibuprofen", labels)

	assert.Equal(t, []*model.Label{newer, older}, labels)
}

func TestRankLabels_StableWhenFullyTied(t *testing.T) {
	t.Parallel()

	labels := make([]*model.Label, 4)
	for i := range labels {
		labels[i] = testLabel(t, "20240101", []string{"IBUPROFEN"}, nil, nil)
	}
	want := append([]*model.Label(nil), labels...)

	RankLabels("ibuprofen", labels)

	for i := range want {
		assert.Same(t, want[i], labels[i], fmt.Sprintf("position %d", i))
	}
}

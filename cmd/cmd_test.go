package main

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxindex/medinfo-cli/internal/config"
	"github.com/rxindex/medinfo-cli/internal/dataset"
	"github.com/rxindex/medinfo-cli/internal/model"
)

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "12345678", truncateID("12345678-abcd-efgh"))
	assert.Equal(t, "short", truncateID("short"))
	assert.Equal(t, "", truncateID(""))
}

func TestFormatRunsList_Empty(t *testing.T) {
	assert.Equal(t, "no runs recorded\n", formatRunsList(nil))
}

func TestFormatRunsList(t *testing.T) {
	out := formatRunsList([]model.Run{
		{
			ID:         "aaaabbbb-cccc-dddd",
			Query:      "warfarin",
			Kind:       model.KindName,
			Status:     model.RunStatusComplete,
			RxCUI:      "11289",
			DurationMS: 1200,
			CreatedAt:  time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC),
		},
		{
			ID:        "eeeeffff-0000-1111",
			Query:     "0056-0170",
			Kind:      model.KindNDC,
			Status:    model.RunStatusFailed,
			CreatedAt: time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC),
		},
	})

	assert.Contains(t, out, "aaaabbbb")
	assert.NotContains(t, out, "aaaabbbb-cccc")
	assert.Contains(t, out, "warfarin")
	assert.Contains(t, out, "11289")
	assert.Contains(t, out, "1.2s")
	assert.Contains(t, out, "failed")
}

func TestFormatOutcomes(t *testing.T) {
	out := formatOutcomes([]dataset.Outcome{
		{Dataset: "orangebook", Rows: 42000, Elapsed: 3 * time.Second, Note: "42000 products"},
		{Dataset: "purplebook", Skipped: true},
		{Dataset: "niosh", Error: "download failed"},
	})

	assert.Contains(t, out, "orangebook")
	assert.Contains(t, out, "refreshed")
	assert.Contains(t, out, "fresh")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "download failed")
}

func TestFormatSyncList_Empty(t *testing.T) {
	assert.Equal(t, "no dataset syncs recorded\n", formatSyncList(nil))
}

func TestServeMux_Health(t *testing.T) {
	mux := serveMux(&env{})

	req := httptest.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, 200, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestRecordOptions_BlockNames(t *testing.T) {
	cfg = &config.Config{Lookup: config.LookupConfig{KeywordHitsMax: 20}}

	opts, err := recordOptions("recalls, niosh")
	require.NoError(t, err)
	assert.True(t, opts.Recalls)
	assert.True(t, opts.NIOSH)
	assert.False(t, opts.Shortages)
	assert.Equal(t, 20, opts.MaxHits)

	_, err = recordOptions("bogus")
	assert.Error(t, err)
}

package medlineplus

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(
		WithBaseURL(srv.URL),
		WithRateLimiter(rate.NewLimiter(rate.Inf, 0)),
	)
}

func TestTopicsByRxCUI(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/service", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "application/json", q.Get("knowledgeResponseType"))
		assert.Equal(t, "2.16.840.1.113883.6.88", q.Get("mainSearchCriteria.v.cs"))
		assert.Equal(t, "310965", q.Get("mainSearchCriteria.v.c"))
		assert.Equal(t, "en", q.Get("informationRecipient.languageCode.c"))

		w.Write([]byte(`{"feed": {"entry": [
			{
				"title": {"_value": "Ibuprofen", "type": "text"},
				"link": [{"href": "https://medlineplus.gov/druginfo/meds/a682159.html", "rel": "alternate"}]
			},
			{
				"title": {"_value": "Pain Relievers", "type": "text"},
				"link": [{"href": "https://medlineplus.gov/painrelievers.html"}]
			}
		]}}`))
	})

	topics, err := client.TopicsByRxCUI(context.Background(), "310965")

	require.NoError(t, err)
	require.Len(t, topics, 2)
	assert.Equal(t, "Ibuprofen", topics[0].Title)
	assert.Equal(t, "https://medlineplus.gov/druginfo/meds/a682159.html", topics[0].URL)
}

func TestTopicsByRxCUI_NoEntries(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"feed": {"title": {"_value": "MedlinePlus Connect"}}}`))
	})

	topics, err := client.TopicsByRxCUI(context.Background(), "0")

	require.NoError(t, err)
	assert.Empty(t, topics)
}

func TestTopicsByRxCUI_ServerError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.TopicsByRxCUI(context.Background(), "310965")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestTitleFieldForms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"underscore value", `{"_value": "Ibuprofen"}`, "Ibuprofen"},
		{"plain value key", `{"value": "Ibuprofen"}`, "Ibuprofen"},
		{"bare string", `"Ibuprofen"`, "Ibuprofen"},
		{"empty object", `{}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var f titleField
			require.NoError(t, json.Unmarshal([]byte(tt.in), &f))
			assert.Equal(t, tt.want, f.Value)
		})
	}
}

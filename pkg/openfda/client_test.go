package openfda

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/rxindex/medinfo-cli/internal/requestlog"
)

const testSetID = "9f3a8c77-0d12-4a9b-8f7e-1b2c3d4e5f60"

const testLabelBody = `{"results": [{
	"id": "label-1",
	"set_id": "` + testSetID + `",
	"effective_time": "20240115",
	"indications_and_usage": ["For minor aches."],
	"openfda": {
		"brand_name": ["ADVIL"],
		"generic_name": ["IBUPROFEN"],
		"substance_name": ["IBUPROFEN"],
		"rxcui": ["310965"],
		"spl_set_id": ["` + testSetID + `"]
	}
}]}`

func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("",
		WithBaseURL(srv.URL),
		WithRateLimiter(rate.NewLimiter(rate.Inf, 0)),
	)
}

func TestLabelBySetID_Success(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/drug/label.json", r.URL.Path)
		assert.Equal(t, `set_id:"`+testSetID+`"`, r.URL.Query().Get("search"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "medinfo-cli/1.0", r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(testLabelBody))
	})

	label, err := client.LabelBySetID(context.Background(), testSetID)

	require.NoError(t, err)
	require.NotNil(t, label)
	assert.Equal(t, testSetID, label.SetID)
	assert.Equal(t, "20240115", label.EffectiveTime)
	assert.Equal(t, []string{"ADVIL"}, label.OpenFDA.BrandName)
}

func TestLabelBySetID_MalformedIDSkipsRequest(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	})

	label, err := client.LabelBySetID(context.Background(), "not-a-set-id")

	require.NoError(t, err)
	assert.Nil(t, label)
	assert.Equal(t, int32(0), requests.Load())
}

func TestLabelBySetID_NotFound(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":"NOT_FOUND"}}`))
	})

	label, err := client.LabelBySetID(context.Background(), testSetID)

	require.NoError(t, err)
	assert.Nil(t, label)
}

func TestLabelByRxCUI_StripsNonDigits(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `openfda.rxcui:"310965"`, r.URL.Query().Get("search"))
		w.Write([]byte(testLabelBody))
	})

	label, err := client.LabelByRxCUI(context.Background(), "rxcui: 310965")

	require.NoError(t, err)
	require.NotNil(t, label)
	assert.Equal(t, []string{"310965"}, label.OpenFDA.RxCUI)
}

func TestLabelByRxCUI_TooManyDigitsSkipsRequest(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	})

	label, err := client.LabelByRxCUI(context.Background(), "12345678901234567")

	require.NoError(t, err)
	assert.Nil(t, label)
	assert.Equal(t, int32(0), requests.Load())
}

func TestLabelCandidates_SearchesThreeNameFields(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t,
			`(openfda.generic_name:"ibuprofen" OR openfda.substance_name:"ibuprofen" OR openfda.brand_name:"ibuprofen")`,
			r.URL.Query().Get("search"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		w.Write([]byte(testLabelBody))
	})

	labels, err := client.LabelCandidates(context.Background(), "ibuprofen", 10)

	require.NoError(t, err)
	require.Len(t, labels, 1)
	assert.Equal(t, "label-1", labels[0].ID)
}

func TestNDCLookup_PackageCode(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/drug/ndc.json", r.URL.Path)
		assert.Equal(t,
			`(product_ndc:"0573-0150" OR packaging.package_ndc:"0573-0150-02")`,
			r.URL.Query().Get("search"))
		w.Write([]byte(`{"results": [{
			"product_ndc": "0573-0150",
			"brand_name": "ADVIL",
			"generic_name": "IBUPROFEN",
			"active_ingredients": [{"name": "IBUPROFEN", "strength": "200 mg/1"}],
			"packaging": [{"package_ndc": "0573-0150-02", "description": "100 tablets"}],
			"openfda": {"rxcui": ["310965"], "spl_set_id": ["` + testSetID + `"]}
		}]}`))
	})

	results, err := client.NDCLookup(context.Background(), "0573-0150-02", 5)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "0573-0150", results[0].ProductNDC)
	assert.Equal(t, "IBUPROFEN", results[0].ActiveIngredients[0].Name)
	assert.Equal(t, "0573-0150-02", results[0].Packaging[0].PackageNDC)
	assert.Equal(t, []string{"310965"}, results[0].OpenFDA.RxCUI)
}

func TestNDCLookup_ProductCodeOnly(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `(product_ndc:"0573-0150")`, r.URL.Query().Get("search"))
		w.Write([]byte(`{"results": []}`))
	})

	results, err := client.NDCLookup(context.Background(), "0573-0150", 5)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestNDCLookup_SanitizesInput(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t,
			`(product_ndc:"0573-0150" OR packaging.package_ndc:"0573-0150-02")`,
			r.URL.Query().Get("search"))
		w.Write([]byte(`{"results": []}`))
	})

	_, err := client.NDCLookup(context.Background(), " NDC 0573-0150-02 ", 5)
	require.NoError(t, err)
}

func TestNDCLookup_NotFound(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	results, err := client.NDCLookup(context.Background(), "0573-0150", 5)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEnforcementSearch(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/drug/enforcement.json", r.URL.Path)
		assert.Equal(t, `openfda.product_ndc:"0573-0150"`, r.URL.Query().Get("search"))
		w.Write([]byte(`{"results": [{
			"recall_number": "D-123-2024",
			"status": "Ongoing",
			"classification": "Class II",
			"reason_for_recall": "CGMP deviations"
		}]}`))
	})

	results, err := client.EnforcementSearch(context.Background(), `openfda.product_ndc:"0573-0150"`, 5)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "D-123-2024", results[0].RecallNumber)
	assert.Equal(t, "Class II", results[0].Classification)
}

func TestShortageSearch(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/drug/shortages.json", r.URL.Path)
		w.Write([]byte(`{"results": [{
			"status": "Current",
			"generic_name": "Amoxicillin",
			"shortage_reason": "Demand increase for drug"
		}]}`))
	})

	results, err := client.ShortageSearch(context.Background(), `generic_name:"Amoxicillin"`, 5)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Current", results[0].Status)
	assert.Equal(t, "Demand increase for drug", results[0].ShortageReason)
}

func TestEventCount(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/drug/event.json", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, `patient.drug.medicinalproduct:"ADVIL"`, q.Get("search"))
		assert.Equal(t, "patient.reaction.reactionmeddrapt.exact", q.Get("count"))
		assert.Equal(t, "10", q.Get("limit"))
		w.Write([]byte(`{"results": [
			{"term": "HEADACHE", "count": 4210},
			{"term": "NAUSEA", "count": 3025}
		]}`))
	})

	results, err := client.EventCount(context.Background(),
		`patient.drug.medicinalproduct:"ADVIL"`,
		"patient.reaction.reactionmeddrapt.exact", 10)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "HEADACHE", results[0].Term)
	assert.Equal(t, 4210, results[0].Count)
}

func TestRetryOnServerError(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(testLabelBody))
	})

	label, err := client.LabelBySetID(context.Background(), testSetID)

	require.NoError(t, err)
	require.NotNil(t, label)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestUnexpectedStatus(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error": "api key required"}`))
	})

	_, err := client.LabelBySetID(context.Background(), testSetID)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestAPIKeyIncluded(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret-key", r.URL.Query().Get("api_key"))
		w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	client := NewClient("secret-key",
		WithBaseURL(srv.URL),
		WithRateLimiter(rate.NewLimiter(rate.Inf, 0)),
	)

	_, err := client.LabelCandidates(context.Background(), "ibuprofen", 10)
	require.NoError(t, err)
}

func TestRequestsRecordedWithRedactedKey(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	client := NewClient("secret-key",
		WithBaseURL(srv.URL),
		WithRateLimiter(rate.NewLimiter(rate.Inf, 0)),
	)

	log := requestlog.New()
	ctx := requestlog.NewContext(context.Background(), log)

	_, err := client.LabelCandidates(ctx, "ibuprofen", 10)
	require.NoError(t, err)

	urls := log.URLs()
	require.Len(t, urls, 1)
	assert.Contains(t, urls[0], "/drug/label.json")
	assert.NotContains(t, urls[0], "secret-key")
}

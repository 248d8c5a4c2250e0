// Package openfda provides a client for the openFDA drug endpoints:
// label, ndc, enforcement, shortages, and adverse event counts.
package openfda

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/rxindex/medinfo-cli/internal/model"
	"github.com/rxindex/medinfo-cli/internal/requestlog"
)

// Client defines the openFDA drug operations.
type Client interface {
	// LabelBySetID fetches the label for an SPL set id. Returns nil when
	// the id is malformed or no label matches.
	LabelBySetID(ctx context.Context, setID string) (*model.Label, error)
	// LabelByRxCUI fetches the best label harmonized to an RxCUI.
	// Returns nil when the code is empty or no label matches.
	LabelByRxCUI(ctx context.Context, rxcui string) (*model.Label, error)
	// LabelCandidates searches generic, substance, and brand names for
	// candidate labels. The caller ranks them.
	LabelCandidates(ctx context.Context, name string, limit int) ([]*model.Label, error)
	// NDCLookup searches the NDC directory for a product or package code.
	NDCLookup(ctx context.Context, ndc string, limit int) ([]NDCResult, error)
	// EnforcementSearch queries recall enforcement reports.
	EnforcementSearch(ctx context.Context, search string, limit int) ([]Enforcement, error)
	// ShortageSearch queries current and resolved drug shortages.
	ShortageSearch(ctx context.Context, search string, limit int) ([]Shortage, error)
	// EventCount runs a FAERS count query and returns term buckets.
	EventCount(ctx context.Context, search, countField string, limit int) ([]CountBucket, error)
}

// Option configures the openFDA client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *httpClient) {
		c.userAgent = ua
	}
}

// WithRateLimiter replaces the default request limiter.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(c *httpClient) {
		c.limiter = l
	}
}

type httpClient struct {
	apiKey    string
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewClient creates an openFDA client. apiKey may be empty; with a key
// openFDA allows 240 requests/minute, and the default limiter stays
// inside that.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:    apiKey,
		baseURL:   "https://api.fda.gov",
		userAgent: "medinfo-cli/1.0",
		limiter:   rate.NewLimiter(4, 4),
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// retryableStatusCode returns true if the HTTP status code should trigger a retry.
func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

// retryDo executes an HTTP request with exponential backoff retries on
// transient failures (429, 500, 502, 503). Returns the response body and
// status code on success, or the last error after exhausting retries.
func (c *httpClient) retryDo(ctx context.Context, req *http.Request) ([]byte, int, error) {
	const maxAttempts = 3
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, err
		}

		retryReq := req.Clone(ctx)

		resp, err := c.http.Do(retryReq)
		if err != nil {
			lastErr = err
			if attempt < maxAttempts {
				select {
				case <-ctx.Done():
					return nil, 0, ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
				continue
			}
			return nil, 0, lastErr
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, resp.StatusCode, eris.Wrap(readErr, "openfda: read response body")
		}

		if retryableStatusCode(resp.StatusCode) && attempt < maxAttempts {
			lastErr = eris.Errorf("openfda: status %d: %s", resp.StatusCode, string(body))
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		return body, resp.StatusCode, nil
	}

	return nil, 0, lastErr
}

// getJSON fetches reqURL and decodes the body into out. A 404 means the
// search matched nothing; it reports found=false with no error.
func (c *httpClient) getJSON(ctx context.Context, reqURL string, out any) (bool, error) {
	requestlog.Record(ctx, reqURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return false, eris.Wrap(err, "openfda: create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	body, statusCode, err := c.retryDo(ctx, req)
	if err != nil {
		return false, eris.Wrap(err, "openfda: request failed")
	}

	if statusCode == http.StatusNotFound {
		return false, nil
	}
	if statusCode != http.StatusOK {
		return false, eris.Errorf("openfda: unexpected status %d: %s", statusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return false, eris.Wrap(err, "openfda: unmarshal response")
	}
	return true, nil
}

// searchURL builds an endpoint URL with search, limit, and the api key
// when one is configured.
func (c *httpClient) searchURL(path, search string, limit int) string {
	params := url.Values{}
	params.Set("search", search)
	params.Set("limit", strconv.Itoa(limit))
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	return c.baseURL + path + ".json?" + params.Encode()
}

// countURL builds a count-query URL for aggregation endpoints.
func (c *httpClient) countURL(path, search, countField string, limit int) string {
	params := url.Values{}
	params.Set("search", search)
	params.Set("count", countField)
	params.Set("limit", strconv.Itoa(limit))
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	return c.baseURL + path + ".json?" + params.Encode()
}

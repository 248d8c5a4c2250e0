// Package medlineplus provides a client for the MedlinePlus Connect
// web service.
package medlineplus

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/rxindex/medinfo-cli/internal/requestlog"
)

// rxnormOID is the HL7 code system for RxNorm concept identifiers.
const rxnormOID = "2.16.840.1.113883.6.88"

// Client defines the MedlinePlus Connect operations.
type Client interface {
	// TopicsByRxCUI returns consumer health topics linked to an RxNorm
	// concept.
	TopicsByRxCUI(ctx context.Context, rxcui string) ([]Topic, error)
}

// Topic is one consumer health topic.
type Topic struct {
	Title string `json:"title,omitempty"`
	URL   string `json:"url,omitempty"`
}

// Option configures the MedlinePlus client.
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
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewClient creates a MedlinePlus Connect client. The service asks
// automated clients to stay under ~85 requests/minute.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:   "https://connect.medlineplus.gov",
		userAgent: "medinfo-cli/1.0",
		limiter:   rate.NewLimiter(1, 2),
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

// titleField tolerates the feed title forms MedlinePlus serves: an
// object keyed "_value" or "value", or a bare string.
type titleField struct {
	Value string
}

func (t *titleField) UnmarshalJSON(data []byte) error {
	var obj struct {
		UValue string `json:"_value"`
		Value  string `json:"value"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		if obj.UValue != "" {
			t.Value = obj.UValue
		} else {
			t.Value = obj.Value
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t.Value = s
	return nil
}

type feedLink struct {
	Href string `json:"href"`
}

type feedEntry struct {
	Title titleField `json:"title"`
	Link  []feedLink `json:"link"`
}

type connectResponse struct {
	Feed struct {
		Entry []feedEntry `json:"entry"`
	} `json:"feed"`
}

func (c *httpClient) TopicsByRxCUI(ctx context.Context, rxcui string) ([]Topic, error) {
	params := url.Values{}
	params.Set("knowledgeResponseType", "application/json")
	params.Set("mainSearchCriteria.v.cs", rxnormOID)
	params.Set("mainSearchCriteria.v.c", rxcui)
	params.Set("informationRecipient.languageCode.c", "en")
	reqURL := c.baseURL + "/service?" + params.Encode()
	requestlog.Record(ctx, reqURL)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "medlineplus: create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "medlineplus: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "medlineplus: read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("medlineplus: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var parsed connectResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "medlineplus: unmarshal response")
	}

	topics := make([]Topic, 0, len(parsed.Feed.Entry))
	for _, entry := range parsed.Feed.Entry {
		topic := Topic{Title: entry.Title.Value}
		if len(entry.Link) > 0 {
			topic.URL = entry.Link[0].Href
		}
		if topic.Title == "" && topic.URL == "" {
			continue
		}
		topics = append(topics, topic)
	}
	return topics, nil
}

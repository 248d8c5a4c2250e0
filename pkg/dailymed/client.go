// Package dailymed provides a client for the DailyMed SPL web services.
package dailymed

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

// Client defines the DailyMed operations.
type Client interface {
	// History returns the published version history for an SPL set id.
	History(ctx context.Context, setID string) (*Document, error)
	// Media returns the media manifest (label images) for an SPL set id.
	Media(ctx context.Context, setID string) (*Document, error)
}

// HistoryEntry is one published SPL version.
type HistoryEntry struct {
	SPLVersion    json.Number `json:"spl_version,omitempty"`
	PublishedDate string      `json:"published_date,omitempty"`
}

// MediaItem is one file attached to an SPL document.
type MediaItem struct {
	Name     string `json:"name,omitempty"`
	URL      string `json:"url,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

// Document is the data block common to the history and media services.
type Document struct {
	SetID         string         `json:"setid,omitempty"`
	Title         string         `json:"title,omitempty"`
	SPLVersion    json.Number    `json:"spl_version,omitempty"`
	PublishedDate string         `json:"published_date,omitempty"`
	History       []HistoryEntry `json:"history,omitempty"`
	Media         []MediaItem    `json:"media,omitempty"`
}

type documentResponse struct {
	Data Document `json:"data"`
}

// Option configures the DailyMed client.
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

// NewClient creates a DailyMed client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:   "https://dailymed.nlm.nih.gov",
		userAgent: "medinfo-cli/1.0",
		limiter:   rate.NewLimiter(5, 5),
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

// LabelPageURL returns the human-facing DailyMed page for a set id, or
// "" when the set id is empty.
func LabelPageURL(setID string) string {
	if setID == "" {
		return ""
	}
	return "https://dailymed.nlm.nih.gov/dailymed/drugInfo.cfm?setid=" + url.QueryEscape(setID)
}

// History and media live under /services/v2/spls/{setid}/. The base
// /spls/{setid}.json resource answers 415 for JSON, so it is not used.

func (c *httpClient) History(ctx context.Context, setID string) (*Document, error) {
	return c.getDocument(ctx, setID, "history.json")
}

func (c *httpClient) Media(ctx context.Context, setID string) (*Document, error) {
	return c.getDocument(ctx, setID, "media.json")
}

func (c *httpClient) getDocument(ctx context.Context, setID, resource string) (*Document, error) {
	reqURL := c.baseURL + "/dailymed/services/v2/spls/" + url.PathEscape(setID) + "/" + resource
	requestlog.Record(ctx, reqURL)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "dailymed: create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "dailymed: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "dailymed: read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("dailymed: unexpected status %d for %s: %s", resp.StatusCode, resource, string(body))
	}

	var parsed documentResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "dailymed: unmarshal response")
	}
	return &parsed.Data, nil
}

// Package pubchem provides a client for the PubChem PUG REST compound
// property API.
package pubchem

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/rxindex/medinfo-cli/internal/requestlog"
)

// Client defines the PubChem operations.
type Client interface {
	// CompoundProperties fetches the identity properties for a compound
	// name. Returns nil when PubChem has no match for the name.
	CompoundProperties(ctx context.Context, name string) (*Properties, error)
}

// Properties is the compact identity block for one compound.
// MolecularWeight is a json.Number because PUG REST has served it both
// as a number and as a string.
type Properties struct {
	CID              int64       `json:"CID,omitempty"`
	MolecularFormula string      `json:"MolecularFormula,omitempty"`
	MolecularWeight  json.Number `json:"MolecularWeight,omitempty"`
	IUPACName        string      `json:"IUPACName,omitempty"`
	InChIKey         string      `json:"InChIKey,omitempty"`
	IsomericSMILES   string      `json:"IsomericSMILES,omitempty"`
}

// propertyNames is the property list requested from PUG REST, in request
// order.
var propertyNames = []string{
	"MolecularFormula",
	"MolecularWeight",
	"IUPACName",
	"InChIKey",
	"IsomericSMILES",
}

// Option configures the PubChem client.
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

// NewClient creates a PubChem client. PUG REST asks for at most 5
// requests/second, which is the default limit here.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:   "https://pubchem.ncbi.nlm.nih.gov",
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

type propertyTableResponse struct {
	PropertyTable struct {
		Properties []Properties `json:"Properties"`
	} `json:"PropertyTable"`
}

func (c *httpClient) CompoundProperties(ctx context.Context, name string) (*Properties, error) {
	nm := strings.TrimSpace(name)
	if nm == "" {
		return nil, nil
	}

	reqURL := c.baseURL + "/rest/pug/compound/name/" + url.PathEscape(nm) +
		"/property/" + strings.Join(propertyNames, ",") + "/JSON"
	requestlog.Record(ctx, reqURL)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "pubchem: create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "pubchem: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "pubchem: read response body")
	}

	// PubChem answers an unknown name with a 404 PUGREST.NotFound fault.
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("pubchem: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var parsed propertyTableResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "pubchem: unmarshal response")
	}
	if len(parsed.PropertyTable.Properties) == 0 {
		return nil, nil
	}
	return &parsed.PropertyTable.Properties[0], nil
}

// Package rems provides a best-effort client for the REMS@FDA program
// index. The page is plain HTML and guarded by abuse detection that can
// answer scripted clients with an apology page instead of content.
package rems

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/rxindex/medinfo-cli/internal/requestlog"
	"github.com/rxindex/medinfo-cli/internal/resilience"
	"github.com/rxindex/medinfo-cli/internal/resolve"
)

// Default REMS@FDA locations.
const (
	DefaultDatabaseURL = "https://www.accessdata.fda.gov/scripts/cder/rems/index.cfm"
	DefaultInfoURL     = "https://www.fda.gov/drugs/drug-safety-and-availability/risk-evaluation-and-mitigation-strategies-rems"
)

// maxIndexBytes caps how much of the index page is read.
const maxIndexBytes = 2_000_000

// ErrBlocked means the abuse-detection page was served instead of the
// program index.
var ErrBlocked = eris.New("rems: blocked by FDA abuse detection")

// Program is one REMS program listed in the index.
type Program struct {
	REMSID string `json:"rems_id"`
	Name   string `json:"name"`
	URL    string `json:"url"`
}

// Client defines the REMS@FDA operations.
type Client interface {
	// FetchPrograms downloads and parses the program index. Returns
	// ErrBlocked when abuse detection intervenes.
	FetchPrograms(ctx context.Context) ([]Program, error)
}

// Option configures the REMS client.
type Option func(*httpClient)

// WithDatabaseURL sets a custom index URL (for testing).
func WithDatabaseURL(url string) Option {
	return func(c *httpClient) {
		c.databaseURL = url
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

// WithRetryConfig replaces the default retry policy.
func WithRetryConfig(rc resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = rc
	}
}

type httpClient struct {
	databaseURL string
	userAgent   string
	http        *http.Client
	limiter     *rate.Limiter
	retry       resilience.RetryConfig
}

// NewClient creates a REMS@FDA client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		databaseURL: DefaultDatabaseURL,
		userAgent:   "medinfo-cli/1.0",
		limiter:     rate.NewLimiter(1, 1),
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	c.retry = resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 2 * time.Second,
		OnRetry:        resilience.RetryLogger("rems", "fetch_index"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) FetchPrograms(ctx context.Context) ([]Program, error) {
	html, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (string, error) {
		return c.fetchIndex(ctx)
	})
	if err != nil {
		return nil, err
	}
	return parsePrograms(html, c.databaseURL), nil
}

func (c *httpClient) fetchIndex(ctx context.Context) (string, error) {
	requestlog.Record(ctx, c.databaseURL)

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.databaseURL, nil)
	if err != nil {
		return "", eris.Wrap(err, "rems: create request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "rems: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxIndexBytes))
	if err != nil {
		return "", eris.Wrap(err, "rems: read response body")
	}

	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		return "", resilience.NewTransientError(
			eris.Errorf("rems: status %d from index", resp.StatusCode), resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("rems: unexpected status %d from index", resp.StatusCode)
	}

	html := string(body)
	if isBlockedPage(html) {
		return "", ErrBlocked
	}
	return html, nil
}

// isBlockedPage recognizes the FDA abuse-detection apology page.
func isBlockedPage(html string) bool {
	low := strings.ToLower(html)
	return strings.Contains(low, "fda apology") ||
		strings.Contains(low, "excessive-requests-apology") ||
		strings.Contains(low, "abuse-detection")
}

// Program links look like: <a href="...REMS=17">Opioid Analgesic REMS</a>
var programAnchorRE = regexp.MustCompile(`(?i)href="([^"]*REMS=([0-9]+)[^"]*)"[^>]*>([^<]{1,200})</a>`)

var anchorSpaceRE = regexp.MustCompile(`\s+`)

// parsePrograms extracts program links from the index page, resolving
// relative hrefs against base and deduplicating by REMS id.
func parsePrograms(html, base string) []Program {
	baseURL, baseErr := url.Parse(base)

	var out []Program
	seen := make(map[string]bool)
	for _, m := range programAnchorRE.FindAllStringSubmatch(html, -1) {
		href, id := m[1], m[2]
		name := strings.TrimSpace(anchorSpaceRE.ReplaceAllString(m[3], " "))
		if id == "" || name == "" || seen[id] {
			continue
		}
		seen[id] = true

		resolved := href
		if baseErr == nil {
			if ref, err := url.Parse(href); err == nil {
				resolved = baseURL.ResolveReference(ref).String()
			}
		}
		out = append(out, Program{REMSID: id, Name: name, URL: resolved})
	}
	return out
}

// Match returns the programs whose name contains any of the candidate
// drug names after aggressive folding, capped at max.
func Match(programs []Program, candidateNames []string, max int) []Program {
	folded := make([]string, 0, len(candidateNames))
	for _, name := range candidateNames {
		if f := resolve.FoldAlnum(name); f != "" {
			folded = append(folded, f)
		}
	}

	var out []Program
	for _, p := range programs {
		nm := resolve.FoldAlnum(p.Name)
		for _, cand := range folded {
			if strings.Contains(nm, cand) {
				out = append(out, p)
				break
			}
		}
		if len(out) >= max {
			break
		}
	}
	return out
}

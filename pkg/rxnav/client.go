// Package rxnav provides a client for the NLM RxNav APIs: RxNorm
// approximate name matching, RxClass drug classes, and the drug
// interaction service.
package rxnav

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/rxindex/medinfo-cli/internal/requestlog"
)

// Client defines the RxNav operations.
type Client interface {
	// ApproximateMatches resolves a free-text term to RxNorm concept
	// candidates, best matches first as ranked by RxNorm.
	ApproximateMatches(ctx context.Context, term string, maxEntries int) ([]Candidate, error)
	// NameForRxCUI returns the RxNorm name for a concept, or "" when the
	// concept has none.
	NameForRxCUI(ctx context.Context, rxcui string) (string, error)
	// ClassesByRxCUI returns the drug classes a concept belongs to.
	ClassesByRxCUI(ctx context.Context, rxcui string) ([]DrugClass, error)
	// InteractionsByRxCUI returns known interactions for a concept,
	// most severe first.
	InteractionsByRxCUI(ctx context.Context, rxcui string) ([]Interaction, error)
}

// Option configures the RxNav client.
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

// NewClient creates an RxNav client. NLM asks clients to stay under 20
// requests/second; the default limiter stays well inside that.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:   "https://rxnav.nlm.nih.gov",
		userAgent: "medinfo-cli/1.0",
		limiter:   rate.NewLimiter(10, 10),
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
// transient failures (429, 500, 502, 503).
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
			return nil, resp.StatusCode, eris.Wrap(readErr, "rxnav: read response body")
		}

		if retryableStatusCode(resp.StatusCode) && attempt < maxAttempts {
			lastErr = eris.Errorf("rxnav: status %d: %s", resp.StatusCode, string(body))
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

func (c *httpClient) getJSON(ctx context.Context, reqURL string, out any) error {
	requestlog.Record(ctx, reqURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return eris.Wrap(err, "rxnav: create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	body, statusCode, err := c.retryDo(ctx, req)
	if err != nil {
		return eris.Wrap(err, "rxnav: request failed")
	}
	if statusCode != http.StatusOK {
		return eris.Errorf("rxnav: unexpected status %d: %s", statusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "rxnav: unmarshal response")
	}
	return nil
}

// singleOrList tolerates RxNav fields that hold either one object or a
// list of them.
type singleOrList[T any] []T

func (s *singleOrList[T]) UnmarshalJSON(data []byte) error {
	var list []T
	if err := json.Unmarshal(data, &list); err == nil {
		*s = list
		return nil
	}
	var one T
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*s = singleOrList[T]{one}
	return nil
}

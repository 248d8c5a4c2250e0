// Package requestlog collects redacted upstream request URLs for a single
// lookup so callers can report exactly what was queried.
package requestlog

import (
	"context"
	"net/url"
	"strings"
	"sync"
)

// Log accumulates redacted request URLs. Safe for concurrent use.
type Log struct {
	mu   sync.Mutex
	urls []string
}

// New returns an empty Log.
func New() *Log {
	return &Log{}
}

// Record redacts and appends a request URL.
func (l *Log) Record(rawURL string) {
	if l == nil {
		return
	}
	redacted := Redact(rawURL)
	l.mu.Lock()
	l.urls = append(l.urls, redacted)
	l.mu.Unlock()
}

// URLs returns a copy of the recorded URLs in request order.
func (l *Log) URLs() []string {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.urls))
	copy(out, l.urls)
	return out
}

// Redact strips credential query parameters (api_key) from a URL.
// Unparseable input is returned unchanged.
func Redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	changed := false
	for k := range q {
		if strings.EqualFold(k, "api_key") {
			q.Del(k)
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

type ctxKey struct{}

// NewContext returns a context carrying the Log.
func NewContext(ctx context.Context, l *Log) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the Log carried by ctx, or nil.
func FromContext(ctx context.Context) *Log {
	l, _ := ctx.Value(ctxKey{}).(*Log)
	return l
}

// Record appends a URL to the context's Log when one is present.
func Record(ctx context.Context, rawURL string) {
	FromContext(ctx).Record(rawURL)
}

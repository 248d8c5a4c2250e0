package requestlog

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedact_RemovesAPIKey(t *testing.T) {
	t.Parallel()

	in := "https://api.fda.gov/drug/label.json?search=x&limit=1&api_key=secret123"
	out := Redact(in)
	assert.NotContains(t, out, "secret123")
	assert.NotContains(t, out, "api_key")
	assert.Contains(t, out, "search=x")
	assert.Contains(t, out, "limit=1")
}

func TestRedact_CaseInsensitiveKey(t *testing.T) {
	t.Parallel()

	out := Redact("https://api.fda.gov/drug/ndc.json?API_KEY=abc&limit=5")
	assert.NotContains(t, out, "abc")
	assert.Contains(t, out, "limit=5")
}

func TestRedact_NoKeyUnchanged(t *testing.T) {
	t.Parallel()

	in := "https://rxnav.nlm.nih.gov/REST/approximateTerm.json?term=aspirin&maxEntries=5"
	assert.Equal(t, in, Redact(in))
}

func TestLog_RecordsInOrder(t *testing.T) {
	t.Parallel()

	l := New()
	l.Record("https://a.example/1")
	l.Record("https://a.example/2?api_key=zzz")

	urls := l.URLs()
	assert.Equal(t, []string{"https://a.example/1", "https://a.example/2"}, urls)
}

func TestLog_NilSafe(t *testing.T) {
	t.Parallel()

	var l *Log
	l.Record("https://a.example")
	assert.Nil(t, l.URLs())
}

func TestLog_ConcurrentRecord(t *testing.T) {
	t.Parallel()

	l := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Record("https://a.example/x")
		}()
	}
	wg.Wait()
	assert.Len(t, l.URLs(), 50)
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	l := New()
	ctx := NewContext(context.Background(), l)
	Record(ctx, "https://api.fda.gov/drug/label.json?api_key=k")

	assert.Equal(t, []string{"https://api.fda.gov/drug/label.json"}, l.URLs())
	assert.Same(t, l, FromContext(ctx))
}

func TestRecord_NoLogInContext(t *testing.T) {
	t.Parallel()

	// Must not panic.
	Record(context.Background(), "https://a.example")
	assert.Nil(t, FromContext(context.Background()))
}

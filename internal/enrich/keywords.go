package enrich

import (
	"strings"

	"github.com/rxindex/medinfo-cli/internal/model"
)

// snippetRadius is how many characters of context a keyword hit keeps on
// each side of the match.
const snippetRadius = 60

// Hit is one keyword match inside a label text field.
type Hit struct {
	Keyword string `json:"keyword"`
	Field   string `json:"field"`
	Snippet string `json:"snippet"`
	Index   int    `json:"index"`
}

// FindHits searches every text field for each keyword, case-insensitive,
// and returns compact snippet hits. Order is keyword-major, then field
// encounter order, then match position; the total is capped at maxTotal.
func FindHits(fields []model.FieldText, keywords []string, maxTotal int) []Hit {
	if maxTotal < 1 {
		maxTotal = 1
	}

	var hits []Hit
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		needle := strings.ToLower(kw)
		for _, ft := range fields {
			haystack := strings.ToLower(ft.Text)
			offset := 0
			for {
				rel := strings.Index(haystack[offset:], needle)
				if rel < 0 {
					break
				}
				pos := offset + rel
				hits = append(hits, Hit{
					Keyword: kw,
					Field:   ft.Field,
					Snippet: snippetAround(ft.Text, pos, pos+len(needle)),
					Index:   pos,
				})
				if len(hits) >= maxTotal {
					return hits
				}
				offset = pos + len(needle)
			}
		}
	}
	return hits
}

// snippetAround extracts the context window for a match, folding newlines
// to spaces.
func snippetAround(text string, start, end int) string {
	lo := start - snippetRadius
	if lo < 0 {
		lo = 0
	}
	hi := end + snippetRadius
	if hi > len(text) {
		hi = len(text)
	}
	snip := strings.ReplaceAll(text[lo:hi], "\n", " ")
	return strings.TrimSpace(snip)
}

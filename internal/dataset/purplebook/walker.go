package purplebook

import (
	"fmt"
	"time"
)

// monthNames are the lowercase English month names used in the export URL.
var monthNames = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// monthWalker enumerates candidate export months, newest first, starting
// at the most recently completed month. The export for the current month
// is often not published yet, so the walk begins one month back and is
// bounded by remaining.
type monthWalker struct {
	year      int
	monthIdx  int // 0-based index into monthNames
	remaining int
}

// newMonthWalker starts a walk at the month before now, yielding at most
// maxBack months.
func newMonthWalker(now time.Time, maxBack int) *monthWalker {
	year := now.Year()
	idx := int(now.Month()) - 2 // previous month, 0-based
	if idx < 0 {
		idx += 12
		year--
	}
	return &monthWalker{year: year, monthIdx: idx, remaining: maxBack}
}

// next returns the next candidate (year, lowercase month name). ok is
// false once the walk is exhausted.
func (w *monthWalker) next() (year int, month string, ok bool) {
	if w.remaining <= 0 {
		return 0, "", false
	}
	w.remaining--

	year, month = w.year, monthNames[w.monthIdx]
	w.monthIdx--
	if w.monthIdx < 0 {
		w.monthIdx += 12
		w.year--
	}
	return year, month, true
}

// exportURL builds the download URL for one month's export.
func exportURL(baseURL string, year int, month string) string {
	return fmt.Sprintf("%s/%d/purplebook-search-%s-data-download.csv", baseURL, year, month)
}

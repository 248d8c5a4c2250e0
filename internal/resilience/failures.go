package resilience

import "time"

// FailedLookup records one query a batch run could not complete, with
// enough classification to decide whether a later run should retry it.
type FailedLookup struct {
	Query       string    `json:"query"`
	Error       string    `json:"error"`
	ErrorType   string    `json:"error_type"` // "transient" or "permanent"
	Attempts    int       `json:"attempts"`
	MaxAttempts int       `json:"max_attempts"`
	FailedAt    time.Time `json:"failed_at"`
}

// NewFailedLookup classifies err and stamps the failure.
func NewFailedLookup(query string, err error, attempts, maxAttempts int) FailedLookup {
	return FailedLookup{
		Query:       query,
		Error:       err.Error(),
		ErrorType:   ClassifyError(err),
		Attempts:    attempts,
		MaxAttempts: maxAttempts,
		FailedAt:    time.Now().UTC(),
	}
}

// CanRetry reports whether the failure is transient and has attempts
// left.
func (f *FailedLookup) CanRetry() bool {
	return f.ErrorType == "transient" && f.Attempts < f.MaxAttempts
}

// ClassifyError categorizes an error as "transient" or "permanent".
func ClassifyError(err error) string {
	if IsTransient(err) {
		return "transient"
	}
	return "permanent"
}

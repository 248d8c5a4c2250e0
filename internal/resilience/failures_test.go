package resilience

import (
	"errors"
	"testing"
)

func TestFailedLookup_CanRetry(t *testing.T) {
	tests := []struct {
		name        string
		errorType   string
		attempts    int
		maxAttempts int
		want        bool
	}{
		{"transient below max", "transient", 1, 3, true},
		{"transient at max", "transient", 3, 3, false},
		{"transient above max", "transient", 5, 3, false},
		{"permanent never retries", "permanent", 0, 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := FailedLookup{
				ErrorType:   tt.errorType,
				Attempts:    tt.attempts,
				MaxAttempts: tt.maxAttempts,
			}
			if got := f.CanRetry(); got != tt.want {
				t.Errorf("CanRetry() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewFailedLookup(t *testing.T) {
	f := NewFailedLookup("warfarin", NewTransientError(errors.New("503"), 503), 2, 3)
	if f.Query != "warfarin" {
		t.Errorf("Query = %q", f.Query)
	}
	if f.ErrorType != "transient" {
		t.Errorf("ErrorType = %q, want transient", f.ErrorType)
	}
	if !f.CanRetry() {
		t.Error("expected retryable failure")
	}
	if f.FailedAt.IsZero() {
		t.Error("FailedAt not stamped")
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"transient error", NewTransientError(errors.New("503"), 503), "transient"},
		{"permanent error", errors.New("invalid input"), "permanent"},
		{"connection reset", errors.New("connection reset by peer"), "transient"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError() = %q, want %q", got, tt.want)
			}
		})
	}
}

package model

import "time"

// RunStatus tracks a recorded lookup through its lifecycle.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run records one lookup invocation in the local history log.
type Run struct {
	ID         string    `json:"id"`
	Query      string    `json:"query"`
	Kind       InputKind `json:"kind"`
	Status     RunStatus `json:"status"`
	RxCUI      string    `json:"rxcui,omitempty"`
	SetID      string    `json:"set_id,omitempty"`
	Error      string    `json:"error,omitempty"`
	URLs       []string  `json:"urls,omitempty"`
	DurationMS int64     `json:"duration_ms,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// RunResult is what a finished lookup writes back onto its run row.
type RunResult struct {
	RxCUI      string   `json:"rxcui,omitempty"`
	SetID      string   `json:"set_id,omitempty"`
	URLs       []string `json:"urls,omitempty"`
	DurationMS int64    `json:"duration_ms"`
}

// SyncStatus tracks a dataset refresh through its lifecycle.
type SyncStatus string

const (
	SyncStatusRunning  SyncStatus = "running"
	SyncStatusComplete SyncStatus = "complete"
	SyncStatusFailed   SyncStatus = "failed"
)

// DatasetSync records one dataset refresh attempt.
type DatasetSync struct {
	ID         string     `json:"id"`
	Dataset    string     `json:"dataset"`
	Status     SyncStatus `json:"status"`
	Note       string     `json:"note,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

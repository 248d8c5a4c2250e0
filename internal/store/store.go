package store

import (
	"context"

	"github.com/rxindex/medinfo-cli/internal/model"
)

// RunFilter specifies criteria for listing recorded lookups.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
}

// Store defines the persistence interface for the lookup history and the
// dataset sync log.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, query string, kind model.InputKind) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, result model.RunResult) error
	FailRun(ctx context.Context, runID string, cause string) error
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Dataset syncs
	StartSync(ctx context.Context, dataset string) (*model.DatasetSync, error)
	CompleteSync(ctx context.Context, syncID string, note string) error
	FailSync(ctx context.Context, syncID string, cause string) error
	LastSuccessfulSync(ctx context.Context, dataset string) (*model.DatasetSync, error)
	ListSyncs(ctx context.Context, limit int) ([]model.DatasetSync, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

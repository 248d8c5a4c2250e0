package dataset

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/rxindex/medinfo-cli/internal/store"
)

// Engine runs dataset refreshes and records their outcomes in the sync log.
type Engine struct {
	reg *Registry
	st  store.Store
}

// RunOpts selects which datasets to refresh and how.
type RunOpts struct {
	Datasets []string // restrict to specific dataset names; empty means all
	Force    bool     // refresh even when the last sync is still fresh
}

// Outcome is the per-dataset result of one engine run.
type Outcome struct {
	Dataset string        `json:"dataset"`
	Skipped bool          `json:"skipped,omitempty"`
	Rows    int           `json:"rows,omitempty"`
	Note    string        `json:"note,omitempty"`
	Error   string        `json:"error,omitempty"`
	Elapsed time.Duration `json:"elapsed_ms,omitempty"`
}

// NewEngine creates a refresh engine over the registry, logging to st.
func NewEngine(reg *Registry, st store.Store) *Engine {
	return &Engine{reg: reg, st: st}
}

// Run refreshes the selected datasets sequentially. A failed dataset is
// recorded and skipped, not fatal; the error return is reserved for
// selection mistakes and sync-log failures.
func (e *Engine) Run(ctx context.Context, opts RunOpts) ([]Outcome, error) {
	log := zap.L().With(zap.String("component", "dataset.engine"))

	datasets, err := e.reg.Select(opts.Datasets)
	if err != nil {
		return nil, err
	}
	if len(datasets) == 0 {
		log.Info("no datasets registered")
		return nil, nil
	}

	now := time.Now().UTC()
	outcomes := make([]Outcome, 0, len(datasets))

	for _, ds := range datasets {
		select {
		case <-ctx.Done():
			return outcomes, ctx.Err()
		default:
		}

		dsLog := log.With(zap.String("dataset", ds.Name()))

		if !opts.Force {
			last, err := e.st.LastSuccessfulSync(ctx, ds.Name())
			if err != nil {
				return outcomes, eris.Wrapf(err, "engine: check last sync for %s", ds.Name())
			}
			if last != nil && last.FinishedAt != nil && now.Sub(*last.FinishedAt) < ds.MaxAge() {
				dsLog.Debug("skipping (still fresh)")
				outcomes = append(outcomes, Outcome{Dataset: ds.Name(), Skipped: true})
				continue
			}
		}

		dsLog.Info("starting refresh")
		sync, err := e.st.StartSync(ctx, ds.Name())
		if err != nil {
			return outcomes, eris.Wrapf(err, "engine: start sync log for %s", ds.Name())
		}

		start := time.Now()
		status, err := ds.Refresh(ctx)
		elapsed := time.Since(start)

		if err != nil {
			dsLog.Error("refresh failed", zap.Error(err), zap.Duration("elapsed", elapsed))
			if logErr := e.st.FailSync(ctx, sync.ID, err.Error()); logErr != nil {
				dsLog.Error("failed to record sync failure", zap.Error(logErr))
			}
			outcomes = append(outcomes, Outcome{Dataset: ds.Name(), Error: err.Error(), Elapsed: elapsed})
			continue
		}

		if status == nil {
			status = &Status{}
		}
		if err := e.st.CompleteSync(ctx, sync.ID, status.Note); err != nil {
			dsLog.Error("failed to record sync completion", zap.Error(err))
		}

		dsLog.Info("refresh complete",
			zap.Int("rows", status.Rows),
			zap.Duration("elapsed", elapsed),
		)
		outcomes = append(outcomes, Outcome{
			Dataset: ds.Name(),
			Rows:    status.Rows,
			Note:    status.Note,
			Elapsed: elapsed,
		})
	}

	return outcomes, nil
}

package main

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rxindex/medinfo-cli/internal/batchfile"
	"github.com/rxindex/medinfo-cli/internal/enrich"
	"github.com/rxindex/medinfo-cli/internal/model"
	"github.com/rxindex/medinfo-cli/internal/requestlog"
	"github.com/rxindex/medinfo-cli/internal/resilience"
	"github.com/rxindex/medinfo-cli/internal/resolve"
)

var (
	batchFile        string
	batchConcurrency int
)

// batchItem is the per-query JSON result of a batch run.
type batchItem struct {
	Query      string          `json:"query"`
	Kind       model.InputKind `json:"kind,omitempty"`
	RxCUI      string          `json:"rxcui,omitempty"`
	SetID      string          `json:"setid,omitempty"`
	Record     *enrich.Record  `json:"record,omitempty"`
	Error      string          `json:"error,omitempty"`
	ErrorType  string          `json:"error_type,omitempty"`
	DurationMS int64           `json:"duration_ms"`
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Resolve a YAML file of queries with bounded concurrency",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("batch"); err != nil {
			return err
		}

		file, err := batchfile.Load(batchFile)
		if err != nil {
			return err
		}

		e, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		concurrency := batchConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Batch.Concurrency
		}

		defaults := enrich.Options{
			Profile: "standard",
			MaxHits: cfg.Lookup.KeywordHitsMax,
		}

		log := zap.L().With(zap.String("component", "batch"))
		log.Info("starting batch",
			zap.Int("queries", len(file.Queries)),
			zap.Int("concurrency", concurrency))

		var succeeded, failed atomic.Int64
		results := make([]batchItem, len(file.Queries))

		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(concurrency)
		for i, q := range file.Queries {
			g.Go(func() error {
				item := runBatchQuery(ctx, e, q, defaults)
				results[i] = item
				if item.Error != "" {
					failed.Add(1)
				} else {
					succeeded.Add(1)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		log.Info("batch finished",
			zap.Int64("succeeded", succeeded.Load()),
			zap.Int64("failed", failed.Load()))

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	},
}

// runBatchQuery resolves and enriches one batch entry. Failures land in
// the item, not an error: one bad query never aborts the batch.
func runBatchQuery(ctx context.Context, e *env, q batchfile.Query, defaults enrich.Options) batchItem {
	item := batchItem{Query: q.Query}

	opts, err := q.EnrichOptions(defaults)
	if err != nil {
		item.Error = err.Error()
		return item
	}

	rl := requestlog.New()
	ctx = requestlog.NewContext(ctx, rl)

	run, err := e.store.CreateRun(ctx, q.Query, resolve.Classify(q.Query))
	if err != nil {
		item.Error = err.Error()
		return item
	}

	start := time.Now()
	res, err := e.resolver.Resolve(ctx, q.Query, resolve.Options{ForcedSetID: q.SetID})
	if err != nil {
		fl := resilience.NewFailedLookup(q.Query, err, 1, 1)
		item.Error = fl.Error
		item.ErrorType = fl.ErrorType
		item.DurationMS = time.Since(start).Milliseconds()
		_ = e.store.FailRun(ctx, run.ID, err.Error())
		zap.L().Warn("batch query failed",
			zap.String("query", q.Query),
			zap.String("error_type", item.ErrorType),
			zap.Error(err))
		return item
	}

	item.Record = e.aggregator.Enrich(ctx, res, opts)
	item.Kind = res.Input.Kind
	item.RxCUI = res.RxCUI
	item.SetID = res.SetID
	item.DurationMS = time.Since(start).Milliseconds()

	if err := e.store.CompleteRun(ctx, run.ID, model.RunResult{
		RxCUI:      res.RxCUI,
		SetID:      res.SetID,
		URLs:       rl.URLs(),
		DurationMS: item.DurationMS,
	}); err != nil {
		zap.L().Warn("record run", zap.Error(err))
	}
	return item
}

func init() {
	batchCmd.Flags().StringVarP(&batchFile, "file", "f", "", "YAML file of queries (required)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "parallel lookups (default from config)")
	_ = batchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(batchCmd)
}

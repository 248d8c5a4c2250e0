package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rxindex/medinfo-cli/internal/batchfile"
	"github.com/rxindex/medinfo-cli/internal/enrich"
	"github.com/rxindex/medinfo-cli/internal/requestlog"
	"github.com/rxindex/medinfo-cli/internal/resolve"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve lookups over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		e, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      serveMux(e),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 120 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("listening", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	},
}

// serveMux builds the HTTP routes over the lookup stack.
func serveMux(e *env) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /v1/resolve", func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if query == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing q parameter"})
			return
		}

		ctx := requestlog.NewContext(r.Context(), requestlog.New())
		res, err := e.resolver.Resolve(ctx, query, resolve.Options{
			ForcedSetID: r.URL.Query().Get("set_id"),
		})
		if err != nil {
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, resolveResponse(query, res))
	})

	mux.HandleFunc("GET /v1/record", func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if query == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing q parameter"})
			return
		}

		opts, err := recordOptions(r.URL.Query().Get("blocks"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		ctx := requestlog.NewContext(r.Context(), requestlog.New())
		res, err := e.resolver.Resolve(ctx, query, resolve.Options{
			ForcedSetID: r.URL.Query().Get("set_id"),
		})
		if err != nil {
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
			return
		}

		out := resolveResponse(query, res)
		out.Record = e.aggregator.Enrich(ctx, res, opts)
		writeJSON(w, http.StatusOK, out)
	})

	return mux
}

func resolveResponse(query string, res *resolve.Resolution) lookupResult {
	return lookupResult{
		Query:  query,
		Kind:   res.Input.Kind,
		RxCUI:  res.RxCUI,
		RxName: res.RxName,
		SetID:  res.SetID,
		NDC:    res.NDC,
		Notes:  res.Notes,
	}
}

// recordOptions maps the blocks query parameter onto enrichment options
// using the batch-file block names.
func recordOptions(blocks string) (enrich.Options, error) {
	var q batchfile.Query
	for _, b := range strings.Split(blocks, ",") {
		if b = strings.TrimSpace(b); b != "" {
			q.Blocks = append(q.Blocks, b)
		}
	}
	return q.EnrichOptions(enrich.Options{
		Profile: "standard",
		MaxHits: cfg.Lookup.KeywordHitsMax,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response", zap.Error(err))
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

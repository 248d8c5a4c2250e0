package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rxindex/medinfo-cli/internal/dataset"
	"github.com/rxindex/medinfo-cli/internal/model"
)

var (
	syncForce   bool
	statusLimit int
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "Manage the bulk reference datasets",
}

var datasetsSyncCmd = &cobra.Command{
	Use:   "sync [dataset...]",
	Short: "Refresh the Orange Book, Purple Book, and NIOSH datasets",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("datasets"); err != nil {
			return err
		}

		e, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		outcomes, err := e.engine.Run(cmd.Context(), dataset.RunOpts{
			Datasets: args,
			Force:    syncForce,
		})
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), formatOutcomes(outcomes))
		return nil
	},
}

var datasetsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent dataset sync history",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("datasets"); err != nil {
			return err
		}

		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		syncs, err := st.ListSyncs(cmd.Context(), statusLimit)
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), formatSyncList(syncs))
		return nil
	},
}

func formatOutcomes(outcomes []dataset.Outcome) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATASET\tRESULT\tROWS\tELAPSED\tNOTE")
	for _, o := range outcomes {
		result := "refreshed"
		note := o.Note
		switch {
		case o.Skipped:
			result = "fresh"
		case o.Error != "":
			result = "failed"
			note = o.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			o.Dataset, result, o.Rows, o.Elapsed.Round(time.Millisecond), note)
	}
	_ = w.Flush()
	return b.String()
}

func formatSyncList(syncs []model.DatasetSync) string {
	if len(syncs) == 0 {
		return "no dataset syncs recorded\n"
	}
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATASET\tSTATUS\tSTARTED\tFINISHED\tNOTE")
	for _, s := range syncs {
		finished := "-"
		if s.FinishedAt != nil {
			finished = s.FinishedAt.Format(time.RFC3339)
		}
		note := s.Note
		if s.Error != "" {
			note = s.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			s.Dataset, s.Status, s.StartedAt.Format(time.RFC3339), finished, note)
	}
	_ = w.Flush()
	return b.String()
}

func init() {
	datasetsSyncCmd.Flags().BoolVar(&syncForce, "force", false, "refresh even when the cached copy is fresh")
	datasetsStatusCmd.Flags().IntVar(&statusLimit, "limit", 20, "max syncs to show")
	datasetsCmd.AddCommand(datasetsSyncCmd)
	datasetsCmd.AddCommand(datasetsStatusCmd)
	rootCmd.AddCommand(datasetsCmd)
}

package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rxindex/medinfo-cli/internal/model"
	"github.com/rxindex/medinfo-cli/internal/store"
)

var (
	runsLimit  int
	runsStatus string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent lookups",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("runs"); err != nil {
			return err
		}

		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		runs, err := st.ListRuns(cmd.Context(), store.RunFilter{
			Status: model.RunStatus(runsStatus),
			Limit:  runsLimit,
		})
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), formatRunsList(runs))
		return nil
	},
}

func formatRunsList(runs []model.Run) string {
	if len(runs) == 0 {
		return "no runs recorded\n"
	}
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tQUERY\tKIND\tSTATUS\tRXCUI\tSET ID\tTOOK\tWHEN")
	for _, r := range runs {
		took := "-"
		if r.DurationMS > 0 {
			took = (time.Duration(r.DurationMS) * time.Millisecond).String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateID(r.ID), r.Query, r.Kind, r.Status,
			orDash(r.RxCUI), orDash(truncateID(r.SetID)), took,
			r.CreatedAt.Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
	return b.String()
}

// truncateID shortens a uuid for display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "max runs to show")
	runsCmd.Flags().StringVar(&runsStatus, "status", "", "filter by status (running, complete, failed)")
	rootCmd.AddCommand(runsCmd)
}

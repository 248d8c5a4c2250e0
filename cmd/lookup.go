package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rxindex/medinfo-cli/internal/enrich"
	"github.com/rxindex/medinfo-cli/internal/model"
	"github.com/rxindex/medinfo-cli/internal/requestlog"
	"github.com/rxindex/medinfo-cli/internal/resolve"
)

var (
	lookupJSON         bool
	lookupSections     []string
	lookupPharmacist   bool
	lookupKeywords     []string
	lookupMaxHits      int
	lookupRecalls      bool
	lookupShortages    bool
	lookupFAERS        bool
	lookupClass        bool
	lookupInteractions bool
	lookupChem         bool
	lookupMedia        bool
	lookupHistory      bool
	lookupOrange       bool
	lookupPurple       bool
	lookupNIOSH        bool
	lookupREMS         bool
	lookupAll          bool
	lookupSetID        string
	lookupShowURLs     bool
	lookupCandidates   bool
	lookupPick         int
)

// lookupResult is the JSON shape of one lookup.
type lookupResult struct {
	Query      string                    `json:"query"`
	Kind       model.InputKind           `json:"kind"`
	RxCUI      string                    `json:"rxcui,omitempty"`
	RxName     string                    `json:"rxname,omitempty"`
	SetID      string                    `json:"setid,omitempty"`
	NDC        *resolve.NDCNormalization `json:"ndc,omitempty"`
	Candidates []*model.Label            `json:"candidates,omitempty"`
	Picked     int                       `json:"picked,omitempty"`
	Notes      []string                  `json:"notes,omitempty"`
	Record     *enrich.Record            `json:"record,omitempty"`
	URLs       []string                  `json:"urls,omitempty"`
	DurationMS int64                     `json:"duration_ms"`
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <query>",
	Short: "Resolve a drug name, NDC, or set id and print its record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("lookup"); err != nil {
			return err
		}

		e, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		rl := requestlog.New()
		ctx := requestlog.NewContext(cmd.Context(), rl)

		query := strings.TrimSpace(args[0])
		kind := resolve.Classify(query)
		if lookupSetID != "" {
			kind = model.KindSetID
		}

		run, err := e.store.CreateRun(ctx, query, kind)
		if err != nil {
			return err
		}

		start := time.Now()
		res, err := e.resolver.Resolve(ctx, query, resolve.Options{
			ForcedSetID:    lookupSetID,
			WithCandidates: lookupCandidates || lookupPick > 0,
			Pick:           lookupPick,
		})
		if err != nil {
			_ = e.store.FailRun(ctx, run.ID, err.Error())
			return err
		}

		rec := e.aggregator.Enrich(ctx, res, lookupOptions())
		elapsed := time.Since(start)

		if err := e.store.CompleteRun(ctx, run.ID, model.RunResult{
			RxCUI:      res.RxCUI,
			SetID:      res.SetID,
			URLs:       rl.URLs(),
			DurationMS: elapsed.Milliseconds(),
		}); err != nil {
			zap.L().Warn("record run", zap.Error(err))
		}

		out := lookupResult{
			Query:      query,
			Kind:       res.Input.Kind,
			RxCUI:      res.RxCUI,
			RxName:     res.RxName,
			SetID:      res.SetID,
			NDC:        res.NDC,
			Picked:     res.Picked,
			Notes:      res.Notes,
			Record:     rec,
			DurationMS: elapsed.Milliseconds(),
		}
		if lookupCandidates {
			out.Candidates = res.LabelCandidates
		}
		if lookupShowURLs {
			out.URLs = rl.URLs()
		}

		if lookupJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}
		printLookup(cmd.OutOrStdout(), out)
		return nil
	},
}

// lookupOptions translates the lookup flags into enrichment options,
// falling back to the configured caps.
func lookupOptions() enrich.Options {
	opts := enrich.Options{
		Recalls:      lookupRecalls,
		Shortages:    lookupShortages,
		FAERS:        lookupFAERS,
		Classes:      lookupClass,
		Interactions: lookupInteractions,
		Chemistry:    lookupChem,
		DailyMed:     lookupHistory,
		Images:       lookupMedia,
		OrangeBook:   lookupOrange,
		PurpleBook:   lookupPurple,
		NIOSH:        lookupNIOSH,
		REMS:         lookupREMS,
		Profile:      "standard",
		Sections:     enrich.ParseSections(lookupSections),
		Keywords:     lookupKeywords,
		MaxHits:      lookupMaxHits,
	}
	if lookupPharmacist {
		opts.Profile = "pharmacist"
	}
	if opts.MaxHits <= 0 {
		opts.MaxHits = cfg.Lookup.KeywordHitsMax
	}
	if lookupAll {
		opts.EnableAll()
	}
	return opts
}

func printLookup(w io.Writer, out lookupResult) {
	fmt.Fprintf(w, "Query:  %s (%s)\n", out.Query, out.Kind)
	if out.RxCUI != "" {
		fmt.Fprintf(w, "RxCUI:  %s  %s\n", out.RxCUI, out.RxName)
	}
	if out.SetID != "" {
		fmt.Fprintf(w, "Set ID: %s\n", out.SetID)
	}
	if out.NDC != nil {
		if out.NDC.NDC11 != "" {
			fmt.Fprintf(w, "NDC-11: %s\n", out.NDC.NDC11)
		}
		for _, c := range out.NDC.Candidates {
			fmt.Fprintf(w, "NDC-11 candidate: %s (%s)\n", c.Value, c.Schema)
		}
	}
	for i, c := range out.Candidates {
		cand := model.CandidateFromLabel(c, "")
		fmt.Fprintf(w, "  candidate %d: %s / %s (set id %s)\n", i+1, cand.BrandName, cand.GenericName, cand.SetID)
	}
	if out.Record != nil {
		printRecord(w, out.Record)
	}
	for _, n := range out.Notes {
		fmt.Fprintf(w, "note: %s\n", n)
	}
	for _, u := range out.URLs {
		fmt.Fprintf(w, "url: %s\n", u)
	}
}

func printRecord(w io.Writer, rec *enrich.Record) {
	for _, s := range rec.Sections {
		fmt.Fprintf(w, "\n== %s ==\n", s.Key)
		if s.Text == "" {
			fmt.Fprintln(w, "(not present in label)")
		} else {
			fmt.Fprintln(w, s.Text)
		}
	}
	if rec.Safety != nil {
		fmt.Fprintln(w, "\n== safety ==")
		fmt.Fprintf(w, "boxed warning: %v\n", rec.Safety.BoxedWarningPresent)
		if rec.Safety.DEASchedule != "" {
			fmt.Fprintf(w, "dea schedule: %s\n", rec.Safety.DEASchedule)
		}
		if rec.Safety.ScheduleGuess != "" {
			fmt.Fprintf(w, "schedule: %s (%s)\n", rec.Safety.ScheduleGuess, rec.Safety.ScheduleEvidence)
		}
		fmt.Fprintf(w, "medication guide: %v\n", rec.Safety.MedicationGuidePresent)
	}
	if rec.Find != nil {
		fmt.Fprintf(w, "\n== find: %s ==\n", strings.Join(rec.Find.Keywords, ", "))
		for _, h := range rec.Find.Hits {
			fmt.Fprintf(w, "[%s] %s: …%s…\n", h.Keyword, h.Field, h.Snippet)
		}
	}
	if rec.Recalls != nil {
		fmt.Fprintf(w, "\n== recalls (%d) ==\n", len(rec.Recalls.Results))
		for _, r := range rec.Recalls.Results {
			fmt.Fprintf(w, "%s %s: %s\n", r.Status, r.Classification, r.ReasonForRecall)
		}
	}
	if rec.Shortages != nil {
		fmt.Fprintf(w, "\n== shortages (%d) ==\n", len(rec.Shortages.Results))
		for _, s := range rec.Shortages.Results {
			fmt.Fprintf(w, "%s: %s\n", s.GenericName, s.Status)
		}
	}
	if rec.FAERS != nil {
		fmt.Fprintf(w, "\n== faers top reactions ==\n")
		for _, b := range rec.FAERS.Reactions {
			fmt.Fprintf(w, "%6d  %s\n", b.Count, b.Term)
		}
	}
	if len(rec.Classes) > 0 {
		fmt.Fprintln(w, "\n== drug classes ==")
		for _, c := range rec.Classes {
			fmt.Fprintf(w, "%s (%s)\n", c.ClassName, c.ClassType)
		}
	}
	if rec.Interactions != nil {
		fmt.Fprintf(w, "\n== interactions (%d) ==\n", len(rec.Interactions.Results))
	}
	if rec.Chemistry != nil && rec.Chemistry.Properties != nil {
		fmt.Fprintln(w, "\n== chemistry ==")
		fmt.Fprintf(w, "formula: %s  weight: %s\n", rec.Chemistry.Properties.MolecularFormula, rec.Chemistry.Properties.MolecularWeight)
	}
	if rec.NIOSH != nil {
		fmt.Fprintln(w, "\n== niosh hazardous list ==")
		if !rec.NIOSH.OK {
			fmt.Fprintf(w, "unavailable: %s\n", rec.NIOSH.Reason)
		} else {
			fmt.Fprintf(w, "matches: %d\n", len(rec.NIOSH.Matches))
		}
	}
	if rec.REMS != nil {
		fmt.Fprintln(w, "\n== rems ==")
		fmt.Fprintf(w, "%s\n", rec.REMS.Note)
	}
	for _, n := range rec.Notes {
		fmt.Fprintf(w, "note: %s\n", n)
	}
}

func init() {
	lookupCmd.Flags().BoolVar(&lookupJSON, "json", false, "print the full record as JSON")
	lookupCmd.Flags().StringSliceVar(&lookupSections, "sections", nil, "label sections to include (comma separated, or 'all')")
	lookupCmd.Flags().BoolVar(&lookupPharmacist, "pharmacist", false, "use the pharmacist section bundle")
	lookupCmd.Flags().StringSliceVar(&lookupKeywords, "keywords", nil, "keywords to search for across the label text")
	lookupCmd.Flags().IntVar(&lookupMaxHits, "max-hits", 0, "cap on keyword hits (default from config)")
	lookupCmd.Flags().BoolVar(&lookupRecalls, "recalls", false, "include recall enforcement reports")
	lookupCmd.Flags().BoolVar(&lookupShortages, "shortages", false, "include drug shortage status")
	lookupCmd.Flags().BoolVar(&lookupFAERS, "faers", false, "include top FAERS adverse reactions")
	lookupCmd.Flags().BoolVar(&lookupClass, "class", false, "include RxClass drug classes")
	lookupCmd.Flags().BoolVar(&lookupInteractions, "interactions", false, "include RxNav interactions")
	lookupCmd.Flags().BoolVar(&lookupChem, "chem", false, "include PubChem chemistry properties")
	lookupCmd.Flags().BoolVar(&lookupMedia, "media", false, "include DailyMed media and label images")
	lookupCmd.Flags().BoolVar(&lookupHistory, "history", false, "include DailyMed SPL version history")
	lookupCmd.Flags().BoolVar(&lookupOrange, "orange", false, "include Orange Book entries")
	lookupCmd.Flags().BoolVar(&lookupPurple, "purple", false, "include Purple Book entries")
	lookupCmd.Flags().BoolVar(&lookupNIOSH, "niosh", false, "include the NIOSH hazardous-drug check")
	lookupCmd.Flags().BoolVar(&lookupREMS, "rems", false, "include REMS program matches")
	lookupCmd.Flags().BoolVar(&lookupAll, "all", false, "include every optional block")
	lookupCmd.Flags().StringVar(&lookupSetID, "set-id", "", "skip resolution and use this SPL set id")
	lookupCmd.Flags().BoolVar(&lookupShowURLs, "show-urls", false, "print every upstream URL fetched (redacted)")
	lookupCmd.Flags().BoolVar(&lookupCandidates, "candidates", false, "list ranked label candidates for ambiguous names")
	lookupCmd.Flags().IntVar(&lookupPick, "pick", 0, "select the Nth ranked label candidate")
	rootCmd.AddCommand(lookupCmd)
}

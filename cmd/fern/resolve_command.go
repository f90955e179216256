package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/pkg/dataset"
	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/processor"
	"github.com/Ramsey-B/fern/pkg/resolution"
)

type resolveOptions struct {
	pathA     string
	pathB     string
	outPath   string
	auditPath string
	workers   int
	store     bool
	publish   bool
	jsonOut   bool
}

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var opts resolveOptions

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve dataset A against dataset B and write the resolved and audit CSVs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, ctx, opts)
		},
	}

	cmd.Flags().StringVar(&opts.pathA, "a", "", "Dataset A CSV")
	cmd.Flags().StringVar(&opts.pathB, "b", "", "Dataset B CSV")
	cmd.Flags().StringVarP(&opts.outPath, "out", "o", "resolved.csv", "Resolved records output CSV")
	cmd.Flags().StringVar(&opts.auditPath, "audit", "audit.csv", "Audit trail output CSV")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Blocks evaluated concurrently (default FERN_WORKERS)")
	cmd.Flags().BoolVar(&opts.store, "store", false, "Save the run to the configured database")
	cmd.Flags().BoolVar(&opts.publish, "publish", false, "Publish resolution events to Kafka")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Print the run summary as JSON")
	_ = cmd.MarkFlagRequired("a")
	_ = cmd.MarkFlagRequired("b")

	return cmd
}

func runResolve(cmd *cobra.Command, ctx *commandContext, opts resolveOptions) error {
	cfg := ctx.config
	runCtx := cmd.Context()

	stopTracing, err := ctx.startTracing(runCtx)
	if err != nil {
		return err
	}
	defer stopTracing()

	profile, err := ctx.matchProfile()
	if err != nil {
		return err
	}

	readA, err := dataset.ReadFile(opts.pathA, models.SourceA)
	if err != nil {
		return err
	}
	readB, err := dataset.ReadFile(opts.pathB, models.SourceB)
	if err != nil {
		return err
	}

	workers := opts.workers
	if workers <= 0 {
		workers = cfg.Workers
	}
	pipeline, err := resolution.New(ctx.logger, profile, resolution.WithWorkers(workers))
	if err != nil {
		return err
	}

	var store processor.RunStore
	if opts.store {
		db, repo, err := ctx.openStore(runCtx)
		if err != nil {
			return err
		}
		defer db.Close()
		store = repo
	}
	var emitter processor.RunEmitter
	if opts.publish {
		producer, e := ctx.openEmitter()
		defer producer.Close()
		emitter = e
	}

	result, run, runErr := processor.NewRunProcessor(ctx.logger, pipeline, store, emitter).Process(runCtx, readA.Records, readB.Records)
	if result == nil {
		return runErr
	}

	if err := dataset.WriteResolvedFile(opts.outPath, result.Resolved); err != nil {
		return err
	}
	if err := dataset.WriteAuditFile(opts.auditPath, result.Trail.All()); err != nil {
		return err
	}

	skipped := make([]*errors.RecordValidationError, 0, len(readA.Skipped)+len(readB.Skipped)+len(result.Skipped))
	skipped = append(skipped, readA.Skipped...)
	skipped = append(skipped, readB.Skipped...)
	skipped = append(skipped, result.Skipped...)
	for _, s := range skipped {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped: %v\n", s)
	}

	if err := printSummary(cmd.OutOrStdout(), run, len(skipped), opts); err != nil {
		return err
	}
	return runErr
}

func printSummary(out io.Writer, run *models.Run, skipped int, opts resolveOptions) error {
	if opts.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			*models.Run
			SkippedRows int    `json:"skipped_rows"`
			Resolved    string `json:"resolved_csv"`
			Audit       string `json:"audit_csv"`
		}{run, skipped, opts.outPath, opts.auditPath})
	}

	s := run.RunStats
	rows := [][]string{
		{"Run", run.ID},
		{"Dataset A records", strconv.Itoa(s.RecordsA)},
		{"Dataset B records", strconv.Itoa(s.RecordsB)},
		{"Skipped rows", strconv.Itoa(skipped)},
		{"Blocks", strconv.Itoa(s.Blocks)},
		{"Unblocked records", strconv.Itoa(s.Unblocked)},
		{"Comparisons", strconv.Itoa(s.Comparisons)},
		{"Decided pairs", strconv.Itoa(s.Decided)},
		{"Matched", strconv.Itoa(s.Matched)},
		{"Unmatched A", strconv.Itoa(s.UnmatchedA)},
		{"Unmatched B", strconv.Itoa(s.UnmatchedB)},
		{"Resolved records", strconv.Itoa(s.Resolved)},
		{"Field warnings", strconv.Itoa(s.Warnings)},
	}
	fmt.Fprintln(out, renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
	fmt.Fprintf(out, "Wrote %s and %s\n", opts.outPath, opts.auditPath)
	return nil
}

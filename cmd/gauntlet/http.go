package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gauntlet-qa/gauntlet/internal/config"
	"github.com/gauntlet-qa/gauntlet/internal/httpx"
	"github.com/gauntlet-qa/gauntlet/internal/report"
	"github.com/gauntlet-qa/gauntlet/internal/runner"
	"github.com/gauntlet-qa/gauntlet/internal/sheets"
)

func httpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Run an HTTP test suite",
		Long: `Run a spreadsheet-defined suite against an HTTP service.

Each row issues a request, checks the status code, optionally extracts a
slice of the response body with a JSON path, and scores it against the
expected output. A wrong status code fails the case even when the body
matches.

Examples:
  gauntlet http --suite api_cases.xlsx --base-url https://staging.example.com
  gauntlet http --suite api_cases.xlsx --mode json --report json,xlsx`,
		RunE: runHTTP,
	}
	addSuiteFlags(cmd, "http_run")
	cmd.Flags().String("base-url", "", "base URL prefixed to endpoint paths")
	_ = viper.BindPFlag("http.base_url", cmd.Flags().Lookup("base-url"))
	return cmd
}

func runHTTP(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	opts, err := resolveSuiteOptions(cmd, "http_run")
	if err != nil {
		return err
	}

	reader, err := sheets.Open(opts.SuitePath, logger)
	if err != nil {
		return err
	}
	cases, err := reader.HTTPCases(opts.Sheet, sheets.DefaultHTTPColumns())
	closeErr := reader.Close()
	if err != nil {
		return err
	}
	if closeErr != nil {
		logger.Warn("failed to close suite file", "error", closeErr)
	}
	if len(cases) == 0 {
		return fmt.Errorf("suite %s contains no test cases", opts.SuitePath)
	}

	comparator, err := buildComparator(opts, logger)
	if err != nil {
		return err
	}

	r := runner.NewHTTP(runner.HTTPConfig{
		Client:         httpx.New(config.LoadHTTP(), logger),
		Comparator:     comparator,
		Logger:         logger,
		ProgressWriter: progressWriter(opts),
		Workers:        opts.Workers,
	})

	startedAt := time.Now()
	results := r.RunSuite(ctx, cases, opts.Mode)
	summary := runner.SummarizeHTTP(results, opts.Mode, uuid.NewString(), startedAt)

	generator, err := openGenerator(opts, logger)
	if err != nil {
		return err
	}
	if reportRequested(opts.Reports, "json") {
		if _, err := generator.WriteHTTPJSON(summary, results); err != nil {
			return err
		}
	}
	if reportRequested(opts.Reports, "html") {
		if _, err := generator.WriteHTTPHTML(summary, results); err != nil {
			return err
		}
	}
	if reportRequested(opts.Reports, "xlsx") {
		if _, err := generator.WriteHTTPExcel(summary, results); err != nil {
			return err
		}
	}

	if opts.SaveRun {
		store, err := openRunStore()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		if err := store.Migrate(ctx); err != nil {
			return err
		}
		if err := store.SaveHTTPRun(ctx, summary, results); err != nil {
			return err
		}
	}

	if err := report.RenderSummary(os.Stdout, summary); err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d tests failed", summary.Failed, summary.Total)
	}
	return nil
}

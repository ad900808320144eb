package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gauntlet-qa/gauntlet/internal/config"
	"github.com/gauntlet-qa/gauntlet/internal/llm"
	"github.com/gauntlet-qa/gauntlet/internal/report"
	"github.com/gauntlet-qa/gauntlet/internal/runner"
	"github.com/gauntlet-qa/gauntlet/internal/sheets"
)

func llmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "llm",
		Short: "Run an LLM test suite",
		Long: `Run a spreadsheet-defined suite against the configured LLM provider.

Each row sends its input as a prompt, optionally extracts a slice of the
reply with a JSON path, and scores it against the expected output.

Examples:
  gauntlet llm --suite cases.xlsx
  gauntlet llm --suite cases.xlsx --mode fuzzy --threshold 0.9
  gauntlet llm --suite cases.xlsx --mode semantic --report json,html`,
		RunE: runLLM,
	}
	addSuiteFlags(cmd, "llm_run")
	return cmd
}

func runLLM(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	opts, err := resolveSuiteOptions(cmd, "llm_run")
	if err != nil {
		return err
	}

	reader, err := sheets.Open(opts.SuitePath, logger)
	if err != nil {
		return err
	}
	cases, err := reader.LLMCases(opts.Sheet, sheets.DefaultLLMColumns())
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

	client, err := llm.NewClient(config.LoadLLM())
	if err != nil {
		return err
	}

	comparator, err := buildComparator(opts, logger)
	if err != nil {
		return err
	}

	r := runner.NewLLM(runner.LLMConfig{
		Client:         client,
		Comparator:     comparator,
		Logger:         logger,
		ProgressWriter: progressWriter(opts),
		Workers:        opts.Workers,
	})

	startedAt := time.Now()
	results := r.RunSuite(ctx, cases, opts.Mode)
	summary := runner.SummarizeLLM(results, opts.Mode, uuid.NewString(), startedAt)

	generator, err := openGenerator(opts, logger)
	if err != nil {
		return err
	}
	if reportRequested(opts.Reports, "json") {
		if _, err := generator.WriteLLMJSON(summary, results); err != nil {
			return err
		}
	}
	if reportRequested(opts.Reports, "html") {
		if _, err := generator.WriteLLMHTML(summary, results); err != nil {
			return err
		}
	}
	if reportRequested(opts.Reports, "xlsx") {
		if _, err := generator.WriteLLMExcel(summary, results); err != nil {
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
		if err := store.SaveLLMRun(ctx, summary, results); err != nil {
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

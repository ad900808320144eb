package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gauntlet-qa/gauntlet/internal/compare"
	"github.com/gauntlet-qa/gauntlet/internal/config"
	"github.com/gauntlet-qa/gauntlet/internal/extract"
	"github.com/gauntlet-qa/gauntlet/internal/llm"
	"github.com/gauntlet-qa/gauntlet/internal/report"
	"github.com/gauntlet-qa/gauntlet/internal/storage"
)

// addSuiteFlags registers the flags shared by the llm and http run
// commands and binds them under the given viper prefix.
func addSuiteFlags(cmd *cobra.Command, prefix string) {
	cmd.Flags().StringP("suite", "s", "", "xlsx suite file (required)")
	cmd.Flags().String("sheet", "", "sheet name (default: first sheet)")
	cmd.Flags().StringP("mode", "m", "exact", "comparison mode (exact, fuzzy, contains, json, semantic)")
	cmd.Flags().Float64P("threshold", "t", 0, "similarity threshold for fuzzy and semantic modes")
	cmd.Flags().String("failure-mode", "", "extraction failure mode (ignore, error, empty)")
	cmd.Flags().Bool("case-sensitive", false, "disable case folding before comparison")
	cmd.Flags().Bool("keep-whitespace", false, "disable whitespace collapsing before comparison")
	cmd.Flags().IntP("workers", "w", 0, "parallel workers (0 = per-suite default)")
	cmd.Flags().StringSlice("report", []string{"json"}, "report formats to write (json, html, xlsx)")
	cmd.Flags().StringP("output-dir", "o", "", "directory for report files")
	cmd.Flags().Bool("no-progress", false, "disable the progress bar")
	cmd.Flags().Bool("no-save", false, "skip recording the run in history")
	_ = cmd.MarkFlagRequired("suite")

	for _, name := range []string{"mode", "threshold", "failure-mode", "case-sensitive", "keep-whitespace", "workers", "report", "no-progress", "no-save"} {
		key := prefix + "." + strings.ReplaceAll(name, "-", "_")
		_ = viper.BindPFlag(key, cmd.Flags().Lookup(name))
	}
}

// suiteOptions is the resolved view of the shared run flags.
type suiteOptions struct {
	SuitePath      string
	Sheet          string
	Mode           compare.Mode
	Reports        []string
	OutputDir      string
	Workers        int
	Threshold      float64
	FailureMode    extract.FailureMode
	CaseSensitive  bool
	KeepWhitespace bool
	ShowProgress   bool
	SaveRun        bool
}

func resolveSuiteOptions(cmd *cobra.Command, prefix string) (suiteOptions, error) {
	get := func(name string) string { return prefix + "." + strings.ReplaceAll(name, "-", "_") }

	mode, err := compare.ParseMode(viper.GetString(get("mode")))
	if err != nil {
		return suiteOptions{}, err
	}

	fm := viper.GetString(get("failure_mode"))
	if fm == "" {
		fm = viper.GetString("comparison.failure_mode")
	}
	failureMode, err := extract.ParseFailureMode(fm)
	if err != nil {
		return suiteOptions{}, err
	}

	threshold := viper.GetFloat64(get("threshold"))
	if threshold == 0 {
		threshold = viper.GetFloat64("comparison.threshold")
	}

	suite, _ := cmd.Flags().GetString("suite")
	sheet, _ := cmd.Flags().GetString("sheet")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	if outputDir == "" {
		outputDir = viper.GetString("test.output_dir")
	}

	return suiteOptions{
		SuitePath:      config.ExpandPath(suite),
		Sheet:          sheet,
		Mode:           mode,
		Reports:        viper.GetStringSlice(get("report")),
		OutputDir:      config.ExpandPath(outputDir),
		Workers:        viper.GetInt(get("workers")),
		Threshold:      threshold,
		FailureMode:    failureMode,
		CaseSensitive:  viper.GetBool(get("case_sensitive")),
		KeepWhitespace: viper.GetBool(get("keep_whitespace")),
		ShowProgress:   !viper.GetBool(get("no_progress")),
		SaveRun:        !viper.GetBool(get("no_save")),
	}, nil
}

// buildComparator assembles the comparator with an optional semantic
// judge. The judge is only constructed when the run needs it.
func buildComparator(opts suiteOptions, logger *slog.Logger) (*compare.Comparator, error) {
	var judge compare.Judge
	if opts.Mode == compare.ModeSemantic {
		judgeClient, err := llm.NewClient(config.LoadJudge())
		if err != nil {
			return nil, fmt.Errorf("semantic mode needs a judge: %w", err)
		}
		judge = llm.AsJudge(judgeClient)
	}

	return compare.New(compare.Config{
		Extractor:      extract.New(opts.FailureMode, logger),
		Judge:          judge,
		Logger:         logger,
		Threshold:      opts.Threshold,
		CaseSensitive:  opts.CaseSensitive,
		KeepWhitespace: opts.KeepWhitespace,
	}), nil
}

func progressWriter(opts suiteOptions) io.Writer {
	if !opts.ShowProgress {
		return nil
	}
	return os.Stderr
}

func openGenerator(opts suiteOptions, logger *slog.Logger) (*report.Generator, error) {
	return report.NewGenerator(opts.OutputDir, logger)
}

func openRunStore() (*storage.RunStore, error) {
	dbPath := config.ExpandPath(viper.GetString("database.path"))
	store, err := storage.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open run history: %w", err)
	}
	return store, nil
}

func reportRequested(formats []string, want string) bool {
	for _, f := range formats {
		if strings.EqualFold(strings.TrimSpace(f), want) {
			return true
		}
	}
	return false
}

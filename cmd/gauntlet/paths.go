package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gauntlet-qa/gauntlet/internal/config"
	"github.com/gauntlet-qa/gauntlet/internal/extract"
	"github.com/gauntlet-qa/gauntlet/internal/sheets"
)

func pathsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paths <suite.xlsx>",
		Short: "Validate the extract-path columns of a suite",
		Long: `Check every extract-path cell of a suite for syntactic validity
without running any tests. Useful before committing suite changes,
since the runners fall back to whole-content comparison on invalid
paths instead of failing loudly.`,
		Args: cobra.ExactArgs(1),
		RunE: runPaths,
	}
	cmd.Flags().String("sheet", "", "sheet name (default: first sheet)")
	return cmd
}

func runPaths(cmd *cobra.Command, args []string) error {
	logger := slog.Default()
	sheet, _ := cmd.Flags().GetString("sheet")

	reader, err := sheets.Open(config.ExpandPath(args[0]), logger)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	cols := sheets.DefaultLLMColumns()
	cells, err := reader.ExtractPathCells(sheet, cols.ID, []string{
		cols.ExpectedExtractPath,
		cols.ActualExtractPath,
	})
	if err != nil {
		return err
	}

	invalid := 0
	for _, c := range cells {
		if !extract.ValidPath(c.Path) {
			invalid++
			fmt.Printf("%s: invalid path %q in column %q\n", c.TestID, c.Path, c.Column)
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%d invalid extract paths among %d cells", invalid, len(cells))
	}
	fmt.Printf("all %d extract-path cells valid\n", len(cells))
	return nil
}

package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/gauntlet-qa/gauntlet/internal/report"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past runs",
		Long: `List recorded runs, newest first. Pass a run id to show that run's
full summary.

Examples:
  gauntlet history
  gauntlet history --limit 5
  gauntlet history 4d2f0f0e-6cc4-4b94-bb50-6035c06f8a87`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistory,
	}
	cmd.Flags().IntP("limit", "n", 20, "number of runs to list (0 = all)")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := openRunStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	if err := store.Migrate(ctx); err != nil {
		return err
	}

	if len(args) == 1 {
		summary, err := store.GetRun(ctx, args[0])
		if err != nil {
			return err
		}
		return report.RenderSummary(os.Stdout, summary)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded yet")
		return nil
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		headerStyle.Render("Started"),
		headerStyle.Render("Kind"),
		headerStyle.Render("Mode"),
		headerStyle.Render("Tests"),
		headerStyle.Render("Pass Rate"),
		headerStyle.Render("Avg Sim"),
		headerStyle.Render("Run ID")); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		strings.Repeat("─", 16),
		strings.Repeat("─", 4),
		strings.Repeat("─", 8),
		strings.Repeat("─", 5),
		strings.Repeat("─", 9),
		strings.Repeat("─", 7),
		strings.Repeat("─", 36)); err != nil {
		return err
	}

	for _, run := range runs {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.1f%%\t%.3f\t%s\n",
			run.StartedAt.Format("2006-01-02 15:04"),
			run.Kind,
			run.Mode,
			run.Total,
			run.PassRate*100,
			run.AvgSimilarity,
			run.RunID); err != nil {
			return err
		}
	}
	return w.Flush()
}

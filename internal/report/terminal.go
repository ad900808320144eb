package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/gauntlet-qa/gauntlet/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	passStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	failStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// RenderSummary writes a styled run summary to w.
func RenderSummary(w io.Writer, summary model.RunSummary) error {
	var b strings.Builder

	title := fmt.Sprintf("%s run %s", strings.ToUpper(summary.Kind), summary.RunID)
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("mode %s, started %s",
		summary.Mode, summary.StartedAt.Format("2006-01-02 15:04:05"))))
	b.WriteString("\n\n")

	passed := passStyle.Render(fmt.Sprintf("%d passed", summary.Passed))
	failed := fmt.Sprintf("%d failed", summary.Failed)
	if summary.Failed > 0 {
		failed = failStyle.Render(failed)
	}
	line := fmt.Sprintf("%d tests: %s, %s", summary.Total, passed, failed)
	if summary.Errors > 0 {
		line += ", " + warnStyle.Render(fmt.Sprintf("%d errors", summary.Errors))
	}
	b.WriteString(line)
	b.WriteString("\n\n")

	rows := [][2]string{
		{"Pass rate", fmt.Sprintf("%.1f%%", summary.PassRate*100)},
		{"Avg similarity", fmt.Sprintf("%.3f", summary.AvgSimilarity)},
		{"Similarity range", fmt.Sprintf("%.3f to %.3f", summary.MinSimilarity, summary.MaxSimilarity)},
		{"Total duration", summary.TotalDuration.Round(10 * time.Millisecond).String()},
	}
	if summary.AvgResponseTime > 0 {
		rows = append(rows, [2]string{"Avg response time", summary.AvgResponseTime.Round(time.Millisecond).String()})
	}
	if summary.TotalTokens > 0 {
		rows = append(rows, [2]string{"Total tokens", fmt.Sprintf("%d", summary.TotalTokens)})
	}
	for _, row := range rows {
		b.WriteString(fmt.Sprintf("  %s %s\n", labelStyle.Render(fmt.Sprintf("%-18s", row[0])), row[1]))
	}

	_, err := fmt.Fprint(w, b.String())
	return err
}

package sheets

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gauntlet-qa/gauntlet/internal/compare"
	"github.com/gauntlet-qa/gauntlet/internal/model"
	"github.com/xuri/excelize/v2"
)

const (
	resultsSheet = "Results"
	summarySheet = "Summary"
)

// Writer exports run results to an xlsx workbook with a per-case results
// sheet and a run summary sheet.
type Writer struct {
	logger *slog.Logger
}

// NewWriter creates a results writer.
func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{logger: logger}
}

// WriteLLMResults writes LLM run results and their summary to path.
func (w *Writer) WriteLLMResults(path string, results []model.TestResult, summary model.RunSummary) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	header := []any{
		"Test ID", "Input", "Expected", "Actual",
		"Extracted Expected", "Extracted Actual",
		"Expected Extract Path", "Actual Extract Path",
		"Model", "Mode", "Match", "Similarity", "Threshold", "Reasoning",
		"Execution Time (s)", "Response Time (s)", "Error", "Timestamp",
	}
	if err := w.initSheets(f, header); err != nil {
		return err
	}

	for i, r := range results {
		row := []any{
			r.TestCase.ID,
			r.TestCase.Input,
			r.TestCase.Expected,
			r.Response.Content,
			detailString(r.Comparison, compare.DetailExtractedExpected),
			detailString(r.Comparison, compare.DetailExtractedActual),
			detailString(r.Comparison, compare.DetailExpectedExtractPath),
			detailString(r.Comparison, compare.DetailActualExtractPath),
			r.Response.Model,
			string(r.Comparison.Mode),
			verdict(r.Comparison.IsMatch),
			fmt.Sprintf("%.3f", r.Comparison.Score),
			detailString(r.Comparison, "threshold"),
			detailString(r.Comparison, "reasoning"),
			fmt.Sprintf("%.3f", r.ExecutionTime.Seconds()),
			fmt.Sprintf("%.3f", r.Response.ResponseTime.Seconds()),
			firstNonEmpty(r.Response.Error, r.Comparison.ErrorMessage),
			r.Timestamp.Format(time.RFC3339),
		}
		if err := f.SetSheetRow(resultsSheet, cellRef(i+2), &row); err != nil {
			return fmt.Errorf("failed to write result row: %w", err)
		}
	}

	if err := w.writeSummary(f, summary); err != nil {
		return err
	}
	return w.save(f, path, len(results))
}

// WriteHTTPResults writes HTTP run results and their summary to path.
func (w *Writer) WriteHTTPResults(path string, results []model.HTTPTestResult, summary model.RunSummary) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	header := []any{
		"Test ID", "Method", "Endpoint", "Expected", "Actual",
		"Extracted Expected", "Extracted Actual",
		"Expected Extract Path", "Actual Extract Path",
		"Status", "Expected Status", "Status Match",
		"Mode", "Content Match", "Similarity", "Threshold",
		"Execution Time (s)", "Response Time (s)", "Error", "Timestamp",
	}
	if err := w.initSheets(f, header); err != nil {
		return err
	}

	for i, r := range results {
		expectedStatus := r.TestCase.ExpectedStatus
		if expectedStatus == 0 {
			expectedStatus = 200
		}
		row := []any{
			r.TestCase.ID,
			r.TestCase.Method,
			r.TestCase.Endpoint,
			r.TestCase.Expected,
			r.Response.Body,
			detailString(r.Comparison, compare.DetailExtractedExpected),
			detailString(r.Comparison, compare.DetailExtractedActual),
			detailString(r.Comparison, compare.DetailExpectedExtractPath),
			detailString(r.Comparison, compare.DetailActualExtractPath),
			r.Response.StatusCode,
			expectedStatus,
			verdict(r.StatusCodeMatch),
			string(r.Comparison.Mode),
			verdict(r.Comparison.IsMatch),
			fmt.Sprintf("%.3f", r.Comparison.Score),
			detailString(r.Comparison, "threshold"),
			fmt.Sprintf("%.3f", r.ExecutionTime.Seconds()),
			fmt.Sprintf("%.3f", r.Response.ResponseTime.Seconds()),
			firstNonEmpty(r.Response.Error, r.Comparison.ErrorMessage),
			r.Timestamp.Format(time.RFC3339),
		}
		if err := f.SetSheetRow(resultsSheet, cellRef(i+2), &row); err != nil {
			return fmt.Errorf("failed to write result row: %w", err)
		}
	}

	if err := w.writeSummary(f, summary); err != nil {
		return err
	}
	return w.save(f, path, len(results))
}

func (w *Writer) initSheets(f *excelize.File, header []any) error {
	if err := f.SetSheetName(f.GetSheetName(0), resultsSheet); err != nil {
		return fmt.Errorf("failed to name results sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := f.SetSheetRow(resultsSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}
	return nil
}

func (w *Writer) writeSummary(f *excelize.File, summary model.RunSummary) error {
	rows := [][]any{
		{"Run ID", summary.RunID},
		{"Kind", summary.Kind},
		{"Mode", summary.Mode},
		{"Started At", summary.StartedAt.Format(time.RFC3339)},
		{"Total", summary.Total},
		{"Passed", summary.Passed},
		{"Failed", summary.Failed},
		{"Errors", summary.Errors},
		{"Pass Rate", fmt.Sprintf("%.2f%%", summary.PassRate*100)},
		{"Average Similarity", fmt.Sprintf("%.3f", summary.AvgSimilarity)},
		{"Min Similarity", fmt.Sprintf("%.3f", summary.MinSimilarity)},
		{"Max Similarity", fmt.Sprintf("%.3f", summary.MaxSimilarity)},
		{"Average Response Time (s)", fmt.Sprintf("%.3f", summary.AvgResponseTime.Seconds())},
		{"Total Tokens", summary.TotalTokens},
		{"Total Duration (s)", fmt.Sprintf("%.3f", summary.TotalDuration.Seconds())},
	}
	for i := range rows {
		if err := f.SetSheetRow(summarySheet, cellRef(i+1), &rows[i]); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}
	return nil
}

func (w *Writer) save(f *excelize.File, path string, rows int) error {
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save spreadsheet %s: %w", path, err)
	}
	w.logger.Info("wrote results spreadsheet", "file", path, "rows", rows)
	return nil
}

func cellRef(row int) string {
	return fmt.Sprintf("A%d", row)
}

func detailString(r compare.Result, key string) string {
	v, ok := r.Details[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func verdict(matched bool) string {
	if matched {
		return "yes"
	}
	return "no"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

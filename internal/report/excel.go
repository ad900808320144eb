package report

import (
	"github.com/gauntlet-qa/gauntlet/internal/model"
	"github.com/gauntlet-qa/gauntlet/internal/sheets"
)

// WriteLLMExcel exports an LLM run as an xlsx workbook and returns its
// path.
func (g *Generator) WriteLLMExcel(summary model.RunSummary, results []model.TestResult) (string, error) {
	path := g.reportPath("llm", "xlsx")
	if err := sheets.NewWriter(g.logger).WriteLLMResults(path, results, summary); err != nil {
		return "", err
	}
	return path, nil
}

// WriteHTTPExcel exports an HTTP run as an xlsx workbook and returns its
// path.
func (g *Generator) WriteHTTPExcel(summary model.RunSummary, results []model.HTTPTestResult) (string, error) {
	path := g.reportPath("http", "xlsx")
	if err := sheets.NewWriter(g.logger).WriteHTTPResults(path, results, summary); err != nil {
		return "", err
	}
	return path, nil
}

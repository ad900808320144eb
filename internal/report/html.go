package report

import (
	"fmt"
	"html/template"
	"os"
	"time"

	"github.com/gauntlet-qa/gauntlet/internal/model"
)

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem; color: #1f2430; }
h1 { font-size: 1.4rem; }
table { border-collapse: collapse; width: 100%; margin-top: 1rem; }
th, td { border: 1px solid #d8dee9; padding: 0.4rem 0.6rem; text-align: left; vertical-align: top; font-size: 0.85rem; }
th { background: #eceff4; }
.stats { display: flex; gap: 1rem; flex-wrap: wrap; margin-top: 1rem; }
.stat { border: 1px solid #d8dee9; border-radius: 6px; padding: 0.6rem 1rem; min-width: 8rem; }
.stat .value { font-size: 1.3rem; font-weight: 600; }
.pass { color: #2e7d32; font-weight: 600; }
.fail { color: #c62828; font-weight: 600; }
.error { color: #c62828; }
td.mono { font-family: ui-monospace, monospace; white-space: pre-wrap; max-width: 28rem; overflow-wrap: anywhere; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>Generated at {{.GeneratedAt}} &middot; run {{.Summary.RunID}} &middot; mode {{.Summary.Mode}}</p>
<div class="stats">
<div class="stat"><div>Total</div><div class="value">{{.Summary.Total}}</div></div>
<div class="stat"><div>Passed</div><div class="value pass">{{.Summary.Passed}}</div></div>
<div class="stat"><div>Failed</div><div class="value fail">{{.Summary.Failed}}</div></div>
<div class="stat"><div>Errors</div><div class="value">{{.Summary.Errors}}</div></div>
<div class="stat"><div>Pass rate</div><div class="value">{{printf "%.1f%%" .PassRatePercent}}</div></div>
<div class="stat"><div>Avg similarity</div><div class="value">{{printf "%.3f" .Summary.AvgSimilarity}}</div></div>
</div>
<table>
<tr>
<th>ID</th>{{if .ShowHTTP}}<th>Method</th><th>Endpoint</th><th>Status</th>{{else}}<th>Input</th>{{end}}<th>Expected</th><th>Actual</th><th>Match</th><th>Score</th><th>Error</th>
</tr>
{{range .Rows}}<tr>
<td>{{.ID}}</td>{{if $.ShowHTTP}}<td>{{.Method}}</td><td class="mono">{{.Endpoint}}</td><td>{{.Status}}</td>{{else}}<td class="mono">{{.Input}}</td>{{end}}<td class="mono">{{.Expected}}</td><td class="mono">{{.Actual}}</td><td class="{{if .Match}}pass{{else}}fail{{end}}">{{if .Match}}pass{{else}}fail{{end}}</td><td>{{printf "%.3f" .Score}}</td><td class="error">{{.Error}}</td>
</tr>
{{end}}</table>
</body>
</html>
`

var reportTemplate = template.Must(template.New("report").Parse(htmlTemplate))

type htmlView struct {
	Title       string
	GeneratedAt string
	Summary     model.RunSummary
	Rows        []htmlRow
	ShowHTTP    bool
}

func (v htmlView) PassRatePercent() float64 {
	return v.Summary.PassRate * 100
}

type htmlRow struct {
	ID       string
	Input    string
	Method   string
	Endpoint string
	Status   string
	Expected string
	Actual   string
	Error    string
	Score    float64
	Match    bool
}

// WriteLLMHTML renders an LLM run as an HTML page and returns its path.
func (g *Generator) WriteLLMHTML(summary model.RunSummary, results []model.TestResult) (string, error) {
	rows := make([]htmlRow, 0, len(results))
	for _, r := range results {
		rows = append(rows, htmlRow{
			ID:       r.TestCase.ID,
			Input:    r.TestCase.Input,
			Expected: r.TestCase.Expected,
			Actual:   r.Response.Content,
			Match:    r.Comparison.IsMatch,
			Score:    r.Comparison.Score,
			Error:    firstNonEmpty(r.Response.Error, r.Comparison.ErrorMessage),
		})
	}
	return g.writeHTML(htmlView{
		Title:       "LLM Test Report",
		GeneratedAt: time.Now().Format(time.RFC3339),
		Summary:     summary,
		Rows:        rows,
	}, "llm")
}

// WriteHTTPHTML renders an HTTP run as an HTML page and returns its path.
func (g *Generator) WriteHTTPHTML(summary model.RunSummary, results []model.HTTPTestResult) (string, error) {
	rows := make([]htmlRow, 0, len(results))
	for _, r := range results {
		rows = append(rows, htmlRow{
			ID:       r.TestCase.ID,
			Method:   r.TestCase.Method,
			Endpoint: r.TestCase.Endpoint,
			Status:   fmt.Sprintf("%d", r.Response.StatusCode),
			Expected: r.TestCase.Expected,
			Actual:   r.Response.Body,
			Match:    r.Comparison.IsMatch,
			Score:    r.Comparison.Score,
			Error:    firstNonEmpty(r.Response.Error, r.Comparison.ErrorMessage),
		})
	}
	return g.writeHTML(htmlView{
		Title:       "HTTP Test Report",
		GeneratedAt: time.Now().Format(time.RFC3339),
		Summary:     summary,
		Rows:        rows,
		ShowHTTP:    true,
	}, "http")
}

func (g *Generator) writeHTML(view htmlView, kind string) (string, error) {
	path := g.reportPath(kind, "html")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	if err := reportTemplate.Execute(f, view); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}

	g.logger.Info("wrote HTML report", "file", path, "results", len(view.Rows))
	return path, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

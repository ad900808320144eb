package report

import (
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/gauntlet-qa/gauntlet/internal/compare"
	"github.com/gauntlet-qa/gauntlet/internal/model"
)

func sampleLLMRun() (model.RunSummary, []model.TestResult) {
	summary := model.RunSummary{
		StartedAt:     time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		RunID:         "run-llm",
		Kind:          "llm",
		Mode:          "exact",
		Total:         2,
		Passed:        1,
		Failed:        1,
		PassRate:      0.5,
		AvgSimilarity: 0.75,
		MaxSimilarity: 1.0,
		MinSimilarity: 0.5,
	}
	results := []model.TestResult{
		{
			TestCase:   model.TestCase{ID: "ok", Input: "2+2", Expected: "4"},
			Response:   model.LLMResponse{Content: "4", Model: "m"},
			Comparison: compare.Result{Mode: compare.ModeExact, IsMatch: true, Score: 1.0},
		},
		{
			TestCase:   model.TestCase{ID: "bad", Input: "2+3", Expected: "5"},
			Response:   model.LLMResponse{Content: "6", Model: "m"},
			Comparison: compare.Result{Mode: compare.ModeExact, Score: 0.5},
		},
	}
	return summary, results
}

func TestWriteLLMJSON(t *testing.T) {
	g, err := NewGenerator(t.TempDir(), nil)
	require.NoError(t, err)

	summary, results := sampleLLMRun()
	path, err := g.WriteLLMJSON(summary, results)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "metadata")
	assert.Contains(t, doc, "summary")
	assert.Contains(t, doc, "results")

	var meta jsonMetadata
	require.NoError(t, json.Unmarshal(doc["metadata"], &meta))
	assert.Equal(t, "llm", meta.Kind)
	assert.Equal(t, 2, meta.Total)

	var parsed []model.TestResult
	require.NoError(t, json.Unmarshal(doc["results"], &parsed))
	require.Len(t, parsed, 2)
	assert.Equal(t, "ok", parsed[0].TestCase.ID)
}

func TestWriteLLMHTML(t *testing.T) {
	g, err := NewGenerator(t.TempDir(), nil)
	require.NoError(t, err)

	summary, results := sampleLLMRun()
	results[1].Response.Content = `<script>alert("x")</script>`

	path, err := g.WriteLLMHTML(summary, results)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	page := string(data)

	assert.Contains(t, page, "LLM Test Report")
	assert.Contains(t, page, "run-llm")
	assert.Contains(t, page, ">ok<")
	assert.NotContains(t, page, "<script>alert", "result content is escaped")
	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
}

func TestWriteHTTPHTML(t *testing.T) {
	g, err := NewGenerator(t.TempDir(), nil)
	require.NoError(t, err)

	summary := model.RunSummary{RunID: "run-http", Kind: "http", Mode: "contains", Total: 1, Passed: 1, PassRate: 1}
	results := []model.HTTPTestResult{
		{
			TestCase:   model.HTTPTestCase{ID: "h1", Method: "GET", Endpoint: "/health", Expected: "ok"},
			Response:   model.HTTPResponse{StatusCode: 200, Body: "ok"},
			Comparison: compare.Result{Mode: compare.ModeContains, IsMatch: true, Score: 1.0},
		},
	}

	path, err := g.WriteHTTPHTML(summary, results)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "/health")
	assert.Contains(t, string(data), "<th>Status</th>")
}

func TestWriteLLMExcel(t *testing.T) {
	g, err := NewGenerator(t.TempDir(), nil)
	require.NoError(t, err)

	summary, results := sampleLLMRun()
	path, err := g.WriteLLMExcel(summary, results)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Results")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestRenderSummary(t *testing.T) {
	summary := model.RunSummary{
		StartedAt:       time.Now(),
		RunID:           "run-5",
		Kind:            "llm",
		Mode:            "semantic",
		Total:           4,
		Passed:          3,
		Failed:          1,
		Errors:          1,
		PassRate:        0.75,
		AvgSimilarity:   0.8,
		MinSimilarity:   0.4,
		MaxSimilarity:   1.0,
		AvgResponseTime: 120 * time.Millisecond,
		TotalTokens:     321,
		TotalDuration:   2 * time.Second,
	}

	var b strings.Builder
	require.NoError(t, RenderSummary(&b, summary))
	out := b.String()

	assert.Contains(t, out, "run-5")
	assert.Contains(t, out, "3 passed")
	assert.Contains(t, out, "1 failed")
	assert.Contains(t, out, "1 errors")
	assert.Contains(t, out, "75.0%")
	assert.Contains(t, out, "321")
}

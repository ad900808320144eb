package report

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gauntlet-qa/gauntlet/internal/model"
)

// Generator writes report files into a single output directory.
type Generator struct {
	logger    *slog.Logger
	outputDir string
}

// NewGenerator creates a Generator, creating outputDir if needed.
func NewGenerator(outputDir string, logger *slog.Logger) (*Generator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create report directory %s: %w", outputDir, err)
	}
	return &Generator{outputDir: outputDir, logger: logger}, nil
}

// jsonReport is the on-disk shape of a JSON report file.
type jsonReport struct {
	Metadata jsonMetadata     `json:"metadata"`
	Summary  model.RunSummary `json:"summary"`
	Results  any              `json:"results"`
}

type jsonMetadata struct {
	Kind        string `json:"kind"`
	GeneratedAt string `json:"generated_at"`
	Total       int    `json:"total_results"`
}

// WriteLLMJSON writes an LLM run as a JSON report and returns its path.
func (g *Generator) WriteLLMJSON(summary model.RunSummary, results []model.TestResult) (string, error) {
	return g.writeJSON("llm", len(results), summary, results)
}

// WriteHTTPJSON writes an HTTP run as a JSON report and returns its path.
func (g *Generator) WriteHTTPJSON(summary model.RunSummary, results []model.HTTPTestResult) (string, error) {
	return g.writeJSON("http", len(results), summary, results)
}

func (g *Generator) writeJSON(kind string, total int, summary model.RunSummary, results any) (string, error) {
	doc := jsonReport{
		Metadata: jsonMetadata{
			Kind:        kind,
			GeneratedAt: time.Now().Format(time.RFC3339),
			Total:       total,
		},
		Summary: summary,
		Results: results,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	path := g.reportPath(kind, "json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write report %s: %w", path, err)
	}

	g.logger.Info("wrote JSON report", "file", path, "results", total)
	return path, nil
}

// reportPath builds a timestamped report filename inside the output dir.
func (g *Generator) reportPath(kind, ext string) string {
	name := fmt.Sprintf("%s_report_%s.%s", kind, time.Now().Format("20060102_150405"), ext)
	return filepath.Join(g.outputDir, name)
}

package runner

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/gauntlet-qa/gauntlet/internal/compare"
	"github.com/gauntlet-qa/gauntlet/internal/llm"
	"github.com/gauntlet-qa/gauntlet/internal/model"
)

const defaultLLMWorkers = 5

// LLMConfig configures an LLMRunner. The zero value of optional fields
// picks sensible defaults; Client is required.
type LLMConfig struct {
	Client     llm.Client
	Comparator *compare.Comparator
	Logger     *slog.Logger
	// ProgressWriter receives a progress bar during suite runs. Nil
	// disables progress output.
	ProgressWriter io.Writer
	Workers        int
}

// LLMRunner drives LLM test cases end to end: generate, extract, compare.
type LLMRunner struct {
	client     llm.Client
	comparator *compare.Comparator
	logger     *slog.Logger
	progressW  io.Writer
	workers    int
}

// NewLLM creates a runner from cfg.
func NewLLM(cfg LLMConfig) *LLMRunner {
	if cfg.Comparator == nil {
		cfg.Comparator = compare.New(compare.Config{Logger: cfg.Logger})
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultLLMWorkers
	}
	return &LLMRunner{
		client:     cfg.Client,
		comparator: cfg.Comparator,
		logger:     cfg.Logger,
		progressW:  cfg.ProgressWriter,
		workers:    cfg.Workers,
	}
}

// RunCase executes one test case. Generation failures are captured in the
// result record; RunCase never returns an error.
func (r *LLMRunner) RunCase(ctx context.Context, tc model.TestCase, mode compare.Mode) model.TestResult {
	start := time.Now()

	resp, err := r.client.Generate(ctx, llm.Request{
		Prompt:        tc.Input,
		SystemMessage: tc.SystemMessage,
	})
	if err != nil {
		r.logger.Error("test case failed", "test_id", tc.ID, "error", err)
		return model.TestResult{
			Timestamp: start,
			TestCase:  tc,
			Response:  model.LLMResponse{Model: r.client.Model(), Error: err.Error()},
			Comparison: compare.Result{
				Mode:         mode,
				Expected:     tc.Expected,
				ErrorMessage: err.Error(),
			},
			ExecutionTime: time.Since(start),
		}
	}

	expectedPath, actualPath := tc.ExtractPaths()
	comparison := r.comparator.Compare(ctx, tc.Expected, resp.Content, mode, expectedPath, actualPath)

	r.logger.Info("test case completed",
		"test_id", tc.ID,
		"match", comparison.IsMatch,
		"score", comparison.Score)

	return model.TestResult{
		Timestamp: start,
		TestCase:  tc,
		Response: model.LLMResponse{
			Content:      resp.Content,
			Model:        resp.Model,
			Error:        resp.Error,
			ResponseTime: resp.ResponseTime,
			TotalTokens:  resp.Usage.TotalTokens,
		},
		Comparison:    comparison,
		ExecutionTime: time.Since(start),
	}
}

// RunSuite executes cases with bounded parallelism and returns one result
// per case, in input order.
func (r *LLMRunner) RunSuite(ctx context.Context, cases []model.TestCase, mode compare.Mode) []model.TestResult {
	r.logger.Info("starting LLM suite", "cases", len(cases), "mode", string(mode), "workers", r.workers)

	bar := newSuiteBar(r.progressW, len(cases), "Running LLM tests...")
	results := make([]model.TestResult, len(cases))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, tc := range cases {
		i, tc := i, tc
		g.Go(func() error {
			results[i] = r.RunCase(ctx, tc, mode)
			barAdd(bar, r.logger)
			return nil
		})
	}
	// Workers never return errors; results carry their own failures.
	_ = g.Wait()

	return results
}

// SummarizeLLM reduces a finished run to its summary statistics.
func SummarizeLLM(results []model.TestResult, mode compare.Mode, runID string, startedAt time.Time) model.RunSummary {
	s := model.RunSummary{
		StartedAt: startedAt,
		RunID:     runID,
		Kind:      "llm",
		Mode:      string(mode),
		Total:     len(results),
	}
	if len(results) == 0 {
		return s
	}

	var scoreSum float64
	var responseTimeSum time.Duration
	var timedResponses int
	s.MinSimilarity = results[0].Comparison.Score
	for _, r := range results {
		if r.Comparison.IsMatch {
			s.Passed++
		}
		if r.Response.Error != "" {
			s.Errors++
		}
		score := r.Comparison.Score
		scoreSum += score
		if score < s.MinSimilarity {
			s.MinSimilarity = score
		}
		if score > s.MaxSimilarity {
			s.MaxSimilarity = score
		}
		if r.Response.ResponseTime > 0 {
			responseTimeSum += r.Response.ResponseTime
			timedResponses++
		}
		s.TotalTokens += r.Response.TotalTokens
		s.TotalDuration += r.ExecutionTime
	}
	s.Failed = s.Total - s.Passed
	s.PassRate = float64(s.Passed) / float64(s.Total)
	s.AvgSimilarity = scoreSum / float64(s.Total)
	if timedResponses > 0 {
		s.AvgResponseTime = responseTimeSum / time.Duration(timedResponses)
	}
	return s
}

func newSuiteBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	if w == nil {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(description),
	)
}

func barAdd(bar *progressbar.ProgressBar, logger *slog.Logger) {
	if bar == nil {
		return
	}
	if err := bar.Add(1); err != nil {
		logger.Warn("failed to update progress bar", "error", err)
	}
}

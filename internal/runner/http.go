package runner

import (
	"context"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gauntlet-qa/gauntlet/internal/compare"
	"github.com/gauntlet-qa/gauntlet/internal/httpx"
	"github.com/gauntlet-qa/gauntlet/internal/model"
)

const defaultHTTPWorkers = 10

// Detail keys the HTTP runner adds to every comparison result.
const (
	DetailStatusCodeMatch    = "status_code_match"
	DetailExpectedStatusCode = "expected_status_code"
	DetailActualStatusCode   = "actual_status_code"
)

// HTTPConfig configures an HTTPRunner. Client is required.
type HTTPConfig struct {
	Client     *httpx.Client
	Comparator *compare.Comparator
	Logger     *slog.Logger
	// ProgressWriter receives a progress bar during suite runs. Nil
	// disables progress output.
	ProgressWriter io.Writer
	Workers        int
	// DefaultExpectedStatus applies to cases without an expected status
	// of their own. Zero means 200.
	DefaultExpectedStatus int
}

// HTTPRunner drives HTTP test cases: request, extract, compare, and fold
// the status-code check into the overall verdict.
type HTTPRunner struct {
	client         *httpx.Client
	comparator     *compare.Comparator
	logger         *slog.Logger
	progressW      io.Writer
	workers        int
	expectedStatus int
}

// NewHTTP creates a runner from cfg.
func NewHTTP(cfg HTTPConfig) *HTTPRunner {
	if cfg.Comparator == nil {
		cfg.Comparator = compare.New(compare.Config{Logger: cfg.Logger})
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultHTTPWorkers
	}
	if cfg.DefaultExpectedStatus == 0 {
		cfg.DefaultExpectedStatus = 200
	}
	return &HTTPRunner{
		client:         cfg.Client,
		comparator:     cfg.Comparator,
		logger:         cfg.Logger,
		progressW:      cfg.ProgressWriter,
		workers:        cfg.Workers,
		expectedStatus: cfg.DefaultExpectedStatus,
	}
}

// RunCase executes one HTTP test case. Transport failures are carried in
// the response record and scored like any other mismatch; RunCase never
// returns an error.
func (r *HTTPRunner) RunCase(ctx context.Context, tc model.HTTPTestCase, mode compare.Mode) model.HTTPTestResult {
	start := time.Now()

	var timeout time.Duration
	if tc.TimeoutSeconds > 0 {
		timeout = time.Duration(tc.TimeoutSeconds) * time.Second
	}

	resp := r.client.Do(ctx, httpx.Request{
		Method:  tc.Method,
		Path:    tc.Endpoint,
		Headers: tc.Headers,
		Params:  tc.Params,
		Body:    tc.Body,
		Timeout: timeout,
	})

	expectedStatus := tc.ExpectedStatus
	if expectedStatus == 0 {
		expectedStatus = r.expectedStatus
	}
	statusMatch := resp.StatusCode == expectedStatus

	actual := resp.Body
	if resp.Error != "" {
		actual = "ERROR: " + resp.Error
	}

	expectedPath, actualPath := tc.ExtractPaths()
	comparison := r.comparator.Compare(ctx, tc.Expected, actual, mode, expectedPath, actualPath)

	// A wrong status code fails the case even when the body matches.
	overall := statusMatch && comparison.IsMatch
	comparison.IsMatch = overall
	if comparison.Details == nil {
		comparison.Details = make(map[string]any)
	}
	comparison.Details[DetailStatusCodeMatch] = statusMatch
	comparison.Details[DetailExpectedStatusCode] = expectedStatus
	comparison.Details[DetailActualStatusCode] = resp.StatusCode

	r.logger.Info("http test case completed",
		"test_id", tc.ID,
		"status", resp.StatusCode,
		"match", overall)

	return model.HTTPTestResult{
		Timestamp:       start,
		TestCase:        tc,
		Response:        resp,
		Comparison:      comparison,
		StatusCodeMatch: statusMatch,
		ExecutionTime:   time.Since(start),
	}
}

// RunSuite executes cases with bounded parallelism and returns one result
// per case, in input order.
func (r *HTTPRunner) RunSuite(ctx context.Context, cases []model.HTTPTestCase, mode compare.Mode) []model.HTTPTestResult {
	r.logger.Info("starting HTTP suite", "cases", len(cases), "mode", string(mode), "workers", r.workers)

	bar := newSuiteBar(r.progressW, len(cases), "Running HTTP tests...")
	results := make([]model.HTTPTestResult, len(cases))

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
	_ = g.Wait()

	return results
}

// SummarizeHTTP reduces a finished HTTP run to its summary statistics.
func SummarizeHTTP(results []model.HTTPTestResult, mode compare.Mode, runID string, startedAt time.Time) model.RunSummary {
	s := model.RunSummary{
		StartedAt: startedAt,
		RunID:     runID,
		Kind:      "http",
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

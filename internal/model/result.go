package model

import (
	"time"

	"github.com/gauntlet-qa/gauntlet/internal/compare"
)

// TestResult is the outcome of driving one LLM test case end to end.
type TestResult struct {
	Timestamp     time.Time      `json:"timestamp"`
	TestCase      TestCase       `json:"test_case"`
	Response      LLMResponse    `json:"llm_response"`
	Comparison    compare.Result `json:"comparison_result"`
	ExecutionTime time.Duration  `json:"execution_time"`
}

// LLMResponse is the harness-side record of a completed generation call.
type LLMResponse struct {
	Content      string        `json:"content"`
	Model        string        `json:"model"`
	Error        string        `json:"error,omitempty"`
	ResponseTime time.Duration `json:"response_time"`
	TotalTokens  int           `json:"total_tokens,omitempty"`
}

// HTTPTestResult is the outcome of driving one HTTP test case.
type HTTPTestResult struct {
	Timestamp       time.Time      `json:"timestamp"`
	TestCase        HTTPTestCase   `json:"test_case"`
	Response        HTTPResponse   `json:"http_response"`
	Comparison      compare.Result `json:"comparison_result"`
	ExecutionTime   time.Duration  `json:"execution_time"`
	StatusCodeMatch bool           `json:"status_code_match"`
}

// HTTPResponse is the harness-side record of a completed HTTP call.
type HTTPResponse struct {
	Headers      map[string]string `json:"headers,omitempty"`
	Body         string            `json:"body"`
	URL          string            `json:"url"`
	Method       string            `json:"method"`
	Error        string            `json:"error,omitempty"`
	StatusCode   int               `json:"status_code"`
	ResponseTime time.Duration     `json:"response_time"`
}

// RunSummary aggregates one batch run for reporting and persistence.
type RunSummary struct {
	StartedAt       time.Time     `json:"started_at"`
	RunID           string        `json:"run_id"`
	Kind            string        `json:"kind"`
	Mode            string        `json:"mode"`
	Total           int           `json:"total_tests"`
	Passed          int           `json:"passed_tests"`
	Failed          int           `json:"failed_tests"`
	Errors          int           `json:"error_tests"`
	PassRate        float64       `json:"pass_rate"`
	AvgSimilarity   float64       `json:"average_similarity"`
	MinSimilarity   float64       `json:"min_similarity"`
	MaxSimilarity   float64       `json:"max_similarity"`
	AvgResponseTime time.Duration `json:"average_response_time,omitempty"`
	TotalTokens     int           `json:"total_tokens,omitempty"`
	TotalDuration   time.Duration `json:"total_duration"`
}

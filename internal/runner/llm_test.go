package runner

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gauntlet-qa/gauntlet/internal/compare"
	"github.com/gauntlet-qa/gauntlet/internal/llm"
	"github.com/gauntlet-qa/gauntlet/internal/model"
)

// scriptedClient answers prompts from a fixed table and counts its
// in-flight calls to verify the parallelism bound.
type scriptedClient struct {
	replies     map[string]string
	err         error
	delay       time.Duration
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (c *scriptedClient) Generate(_ context.Context, req llm.Request) (llm.Response, error) {
	current := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		peak := c.maxInFlight.Load()
		if current <= peak || c.maxInFlight.CompareAndSwap(peak, current) {
			break
		}
	}
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	if c.err != nil {
		return llm.Response{}, c.err
	}
	return llm.Response{
		Content:      c.replies[req.Prompt],
		Model:        "scripted",
		ResponseTime: time.Millisecond,
		Usage:        llm.Usage{TotalTokens: 7},
	}, nil
}

func (c *scriptedClient) Model() string { return "scripted" }

func TestRunCaseMatch(t *testing.T) {
	r := NewLLM(LLMConfig{Client: &scriptedClient{replies: map[string]string{"2+2": "4"}}})

	res := r.RunCase(context.Background(), model.TestCase{ID: "t1", Input: "2+2", Expected: "4"}, compare.ModeExact)

	assert.True(t, res.Comparison.IsMatch)
	assert.Equal(t, 1.0, res.Comparison.Score)
	assert.Equal(t, "4", res.Response.Content)
	assert.Equal(t, 7, res.Response.TotalTokens)
	assert.Greater(t, res.ExecutionTime, time.Duration(0))
}

func TestRunCaseUsesExtractPaths(t *testing.T) {
	client := &scriptedClient{replies: map[string]string{"q": `{"answer": "42", "confidence": 0.9}`}}
	r := NewLLM(LLMConfig{Client: client})

	tc := model.TestCase{
		ID:       "t2",
		Input:    "q",
		Expected: "42",
		Metadata: map[string]string{model.MetaActualExtractPath: "$.answer"},
	}
	res := r.RunCase(context.Background(), tc, compare.ModeExact)

	require.True(t, res.Comparison.IsMatch)
	assert.Equal(t, "42", res.Comparison.Details[compare.DetailExtractedActual])
	assert.Equal(t, "$.answer", res.Comparison.Details[compare.DetailActualExtractPath])
}

func TestRunCaseGenerationFailure(t *testing.T) {
	r := NewLLM(LLMConfig{Client: &scriptedClient{err: errors.New("provider down")}})

	res := r.RunCase(context.Background(), model.TestCase{ID: "t3", Input: "q", Expected: "x"}, compare.ModeFuzzy)

	assert.False(t, res.Comparison.IsMatch)
	assert.Zero(t, res.Comparison.Score)
	assert.Contains(t, res.Comparison.ErrorMessage, "provider down")
	assert.Equal(t, "provider down", res.Response.Error)
	assert.Equal(t, "scripted", res.Response.Model)
	assert.Equal(t, "x", res.Comparison.Expected)
}

func TestRunSuitePreservesOrder(t *testing.T) {
	replies := make(map[string]string)
	var cases []model.TestCase
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		replies["input-"+id] = "out-" + id
		cases = append(cases, model.TestCase{
			ID:       id,
			Input:    "input-" + id,
			Expected: "out-" + strings.ToUpper(id),
		})
	}
	client := &scriptedClient{replies: replies, delay: 5 * time.Millisecond}
	r := NewLLM(LLMConfig{Client: client, Workers: 3})

	results := r.RunSuite(context.Background(), cases, compare.ModeExact)

	require.Len(t, results, len(cases))
	for i, res := range results {
		assert.Equal(t, cases[i].ID, res.TestCase.ID)
		assert.True(t, res.Comparison.IsMatch, "default normalization folds case")
	}
	assert.LessOrEqual(t, client.maxInFlight.Load(), int32(3), "worker limit respected")
}

func TestSummarizeLLM(t *testing.T) {
	started := time.Now()
	results := []model.TestResult{
		{
			Comparison: compare.Result{IsMatch: true, Score: 1.0},
			Response:   model.LLMResponse{ResponseTime: 100 * time.Millisecond, TotalTokens: 10},
		},
		{
			Comparison: compare.Result{IsMatch: false, Score: 0.5},
			Response:   model.LLMResponse{ResponseTime: 300 * time.Millisecond, TotalTokens: 20},
		},
		{
			Comparison: compare.Result{IsMatch: false, Score: 0},
			Response:   model.LLMResponse{Error: "provider down"},
		},
	}

	s := SummarizeLLM(results, compare.ModeFuzzy, "run-1", started)

	assert.Equal(t, "run-1", s.RunID)
	assert.Equal(t, "llm", s.Kind)
	assert.Equal(t, "fuzzy", s.Mode)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.Passed)
	assert.Equal(t, 2, s.Failed)
	assert.Equal(t, 1, s.Errors)
	assert.InDelta(t, 1.0/3.0, s.PassRate, 1e-9)
	assert.InDelta(t, 0.5, s.AvgSimilarity, 1e-9)
	assert.Equal(t, 0.0, s.MinSimilarity)
	assert.Equal(t, 1.0, s.MaxSimilarity)
	assert.Equal(t, 200*time.Millisecond, s.AvgResponseTime, "errored case excluded from the average")
	assert.Equal(t, 30, s.TotalTokens)
}

func TestSummarizeLLMEmpty(t *testing.T) {
	s := SummarizeLLM(nil, compare.ModeExact, "run-0", time.Now())
	assert.Zero(t, s.Total)
	assert.Zero(t, s.PassRate)
}

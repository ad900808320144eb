package compare

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// stubJudge returns a canned response and records the prompt it was given.
type stubJudge struct {
	err        error
	resp       JudgeResponse
	lastPrompt string
}

func (s *stubJudge) Generate(_ context.Context, prompt string) (JudgeResponse, error) {
	s.lastPrompt = prompt
	return s.resp, s.err
}

func TestSemanticNoJudgeConfigured(t *testing.T) {
	c := New(Config{})

	result := c.Compare(context.Background(), "a", "b", ModeSemantic, "$", "$")
	assert.False(t, result.IsMatch)
	assert.Zero(t, result.Score)
	assert.Contains(t, result.ErrorMessage, "no judge client configured")
}

func TestSemanticMatchAboveThreshold(t *testing.T) {
	judge := &stubJudge{resp: JudgeResponse{
		Content:      `{"similarity_score": 92, "reasoning": "Both texts describe the same refund policy."}`,
		Model:        "gpt-4-turbo-preview",
		ResponseTime: 1200 * time.Millisecond,
	}}
	c := New(Config{Judge: judge})

	result := c.Compare(context.Background(), "refunds within 30 days", "we refund purchases for a month", ModeSemantic, "$", "$")

	assert.True(t, result.IsMatch)
	assert.InDelta(t, 0.92, result.Score, 1e-9)
	assert.Equal(t, "gpt-4-turbo-preview", result.Details["judge_model"])
	assert.Equal(t, 92.0, result.Details["judge_score"])
	assert.InDelta(t, 1.2, result.Details["judge_response_time"].(float64), 1e-9)
	assert.Equal(t, "Both texts describe the same refund policy.", result.Details["reasoning"])
	assert.Equal(t, 0.8, result.Details["threshold"])

	// Both texts must appear in the prompt the judge saw.
	assert.Contains(t, judge.lastPrompt, "refunds within 30 days")
	assert.Contains(t, judge.lastPrompt, "we refund purchases for a month")
	assert.Contains(t, judge.lastPrompt, "similarity_score")
}

func TestSemanticBelowThreshold(t *testing.T) {
	judge := &stubJudge{resp: JudgeResponse{
		Content: `{"similarity_score": 35, "reasoning": "Related topic, different claims."}`,
		Model:   "gpt-4",
	}}
	c := New(Config{Judge: judge})

	result := c.Compare(context.Background(), "x", "y", ModeSemantic, "$", "$")
	assert.False(t, result.IsMatch)
	assert.InDelta(t, 0.35, result.Score, 1e-9)
	assert.Empty(t, result.ErrorMessage)
}

func TestSemanticThresholdDecisionIsLocal(t *testing.T) {
	// The judge may editorialize about matching; only the score counts.
	judge := &stubJudge{resp: JudgeResponse{
		Content: `{"similarity_score": 50, "reasoning": "These definitely match."}`,
	}}
	c := New(Config{Judge: judge, Threshold: 0.6})

	result := c.Compare(context.Background(), "x", "y", ModeSemantic, "$", "$")
	assert.False(t, result.IsMatch)

	lenient := New(Config{Judge: judge, Threshold: 0.4})
	result = lenient.Compare(context.Background(), "x", "y", ModeSemantic, "$", "$")
	assert.True(t, result.IsMatch)
}

func TestSemanticFencedReply(t *testing.T) {
	judge := &stubJudge{resp: JudgeResponse{
		Content: "```json\n{\"similarity_score\": 85, \"reasoning\": \"close enough\"}\n```",
	}}
	c := New(Config{Judge: judge})

	result := c.Compare(context.Background(), "x", "y", ModeSemantic, "$", "$")
	assert.True(t, result.IsMatch)
	assert.InDelta(t, 0.85, result.Score, 1e-9)
}

func TestSemanticJudgeCallError(t *testing.T) {
	judge := &stubJudge{err: errors.New("connection refused")}
	c := New(Config{Judge: judge})

	result := c.Compare(context.Background(), "x", "y", ModeSemantic, "$", "$")
	assert.False(t, result.IsMatch)
	assert.Contains(t, result.ErrorMessage, "judge call failed")
	assert.Contains(t, result.ErrorMessage, "connection refused")
}

func TestSemanticJudgeReportedError(t *testing.T) {
	judge := &stubJudge{resp: JudgeResponse{Error: "model overloaded"}}
	c := New(Config{Judge: judge})

	result := c.Compare(context.Background(), "x", "y", ModeSemantic, "$", "$")
	assert.False(t, result.IsMatch)
	assert.Contains(t, result.ErrorMessage, "judge returned error")
	assert.Contains(t, result.ErrorMessage, "model overloaded")
}

func TestSemanticUnparseableReply(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "prose reply", content: "I think these are about 80% similar."},
		{name: "missing score key", content: `{"reasoning": "no score here"}`},
		{name: "non-numeric score", content: `{"similarity_score": "high", "reasoning": "?"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			judge := &stubJudge{resp: JudgeResponse{Content: tt.content}}
			c := New(Config{Judge: judge})

			result := c.Compare(context.Background(), "x", "y", ModeSemantic, "$", "$")
			assert.False(t, result.IsMatch)
			assert.Zero(t, result.Score)
			assert.Contains(t, result.ErrorMessage, "unparseable judge reply")
			assert.Contains(t, result.ErrorMessage, tt.content, "raw reply preserved for diagnosis")
		})
	}
}

func TestSemanticScoreClamped(t *testing.T) {
	judge := &stubJudge{resp: JudgeResponse{
		Content: `{"similarity_score": 150, "reasoning": "overshoot"}`,
	}}
	c := New(Config{Judge: judge})

	result := c.Compare(context.Background(), "x", "y", ModeSemantic, "$", "$")
	assert.Equal(t, 1.0, result.Score)
}

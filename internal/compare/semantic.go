package compare

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gauntlet-qa/gauntlet/internal/common"
	"github.com/gauntlet-qa/gauntlet/internal/extract"
)

// Judge is the external text-generation capability behind semantic
// comparison. Implementations are expected to be synchronous; timeouts are
// the implementation's concern and surface here as errors.
type Judge interface {
	Generate(ctx context.Context, prompt string) (JudgeResponse, error)
}

// JudgeResponse is a completed judge call.
type JudgeResponse struct {
	Content      string
	Model        string
	Error        string
	ResponseTime time.Duration
}

// judgeVerdict is the JSON shape the judge is asked to reply with. The
// score pointer distinguishes a missing key from a zero score.
type judgeVerdict struct {
	SimilarityScore *float64 `json:"similarity_score"`
	Reasoning       string   `json:"reasoning"`
}

const judgePromptTemplate = `You are evaluating how semantically similar two texts are.

Expected text:
---
%s
---

Actual text:
---
%s
---

Rate the similarity of the actual text to the expected text on a scale of 0 to 100:
- 90-100: nearly identical meaning
- 70-89: same core meaning with minor differences
- 50-69: partially overlapping meaning
- 30-49: related topic but different meaning
- 0-29: unrelated

Respond with ONLY a JSON object in exactly this form, no other text:
{"similarity_score": <number 0-100>, "reasoning": "<one or two sentences>"}`

// semanticMatch asks the judge for a 0-100 similarity verdict and applies
// this comparator's own threshold to the normalized score. The judge's
// opinion of whether the texts "match" is never consulted.
func (c *Comparator) semanticMatch(ctx context.Context, expected, actual string) Result {
	if c.judge == nil {
		return Result{ErrorMessage: fmt.Sprintf("semantic comparison unavailable: %v", common.ErrNoJudge)}
	}

	prompt := fmt.Sprintf(judgePromptTemplate, expected, actual)

	resp, err := c.judge.Generate(ctx, prompt)
	if err != nil {
		return Result{ErrorMessage: fmt.Sprintf("judge call failed: %v", err)}
	}
	if resp.Error != "" {
		return Result{ErrorMessage: fmt.Sprintf("judge returned error: %s", resp.Error)}
	}

	verdict, err := parseJudgeReply(resp.Content)
	if err != nil {
		return Result{ErrorMessage: fmt.Sprintf("unparseable judge reply: %v (raw reply: %s)", err, resp.Content)}
	}

	score := *verdict.SimilarityScore / 100.0
	if score < 0 {
		score = 0
	} else if score > 1 {
		score = 1
	}

	result := Result{
		IsMatch: score >= c.threshold,
		Score:   score,
	}
	result.detail("judge_model", resp.Model)
	result.detail("judge_score", *verdict.SimilarityScore)
	result.detail("judge_response_time", resp.ResponseTime.Seconds())
	result.detail("reasoning", verdict.Reasoning)
	result.detail("threshold", c.threshold)
	return result
}

// parseJudgeReply decodes the judge's verdict from its raw reply, directly
// or from a fenced block.
func parseJudgeReply(content string) (judgeVerdict, error) {
	var verdict judgeVerdict

	err := json.Unmarshal([]byte(content), &verdict)
	if err != nil {
		err = json.Unmarshal([]byte(extract.StripFence(content)), &verdict)
	}
	if err != nil {
		return judgeVerdict{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if verdict.SimilarityScore == nil {
		return judgeVerdict{}, fmt.Errorf("missing similarity_score")
	}
	return verdict, nil
}

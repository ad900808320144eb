package llm

import (
	"context"

	"github.com/gauntlet-qa/gauntlet/internal/compare"
)

// judgeAdapter exposes a generation Client as the semantic-comparison
// judge capability.
type judgeAdapter struct {
	client Client
}

// AsJudge adapts client for use as a compare.Judge. A nil client returns
// nil so the comparator reports "not configured" instead of panicking.
func AsJudge(client Client) compare.Judge {
	if client == nil {
		return nil
	}
	return &judgeAdapter{client: client}
}

func (a *judgeAdapter) Generate(ctx context.Context, prompt string) (compare.JudgeResponse, error) {
	resp, err := a.client.Generate(ctx, Request{Prompt: prompt})
	if err != nil {
		return compare.JudgeResponse{}, err
	}
	return compare.JudgeResponse{
		Content:      resp.Content,
		Model:        resp.Model,
		Error:        resp.Error,
		ResponseTime: resp.ResponseTime,
	}, nil
}

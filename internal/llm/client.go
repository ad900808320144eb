package llm

import (
	"context"
	"time"
)

// Client defines the interface for text-generation providers.
type Client interface {
	Generate(ctx context.Context, req Request) (Response, error)
	Model() string
}

// Request is a single generation call.
type Request struct {
	Prompt        string
	SystemMessage string
}

// Response contains the provider's reply. Error is set for provider-level
// failures that still produced a response envelope; transport failures
// come back as Go errors from Generate.
type Response struct {
	Content      string
	Model        string
	Error        string
	ResponseTime time.Duration
	Usage        Usage
}

// Usage records token consumption for a single call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Config holds provider configuration resolved from file and environment.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
	// RequestsPerMinute caps the client-side call rate. Zero means 60.
	RequestsPerMinute int
}

package llm

import (
	"fmt"
	"strings"
)

// NewClient creates a generation client for the configured provider.
// Providers exposing OpenAI-compatible APIs (deepseek, moonshot, local
// gateways) are selected as "openai" with a custom base URL.
func NewClient(cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai", "":
		return newOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

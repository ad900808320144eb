package config

import (
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/gauntlet-qa/gauntlet/internal/httpx"
	"github.com/gauntlet-qa/gauntlet/internal/llm"
)

// SetDefaults registers every configuration default with viper. Call once
// from CLI setup before reading any keys.
func SetDefaults() {
	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.model", "")
	viper.SetDefault("llm.temperature", 0.3)
	viper.SetDefault("llm.max_tokens", 1000)
	viper.SetDefault("llm.timeout_seconds", 30)
	viper.SetDefault("llm.max_retries", 3)
	viper.SetDefault("llm.retry_delay_seconds", 1)
	viper.SetDefault("llm.requests_per_minute", 60)

	viper.SetDefault("http.timeout_seconds", 30)
	viper.SetDefault("http.retry_count", 3)
	viper.SetDefault("http.retry_delay_seconds", 1)

	viper.SetDefault("comparison.threshold", 0.8)
	viper.SetDefault("comparison.failure_mode", "ignore")

	viper.SetDefault("test.output_dir", "output")
	viper.SetDefault("database.path", "~/.local/share/gauntlet/gauntlet.db")
}

// LoadLLM resolves the generation-client configuration from viper with an
// OPENAI_API_KEY environment fallback for the key itself.
func LoadLLM() llm.Config {
	cfg := llm.Config{
		Provider:    viper.GetString("llm.provider"),
		APIKey:      viper.GetString("llm.api_key"),
		Model:       viper.GetString("llm.model"),
		BaseURL:     viper.GetString("llm.base_url"),
		Temperature: viper.GetFloat64("llm.temperature"),
		MaxTokens:   viper.GetInt("llm.max_tokens"),
		Timeout:     time.Duration(viper.GetInt("llm.timeout_seconds")) * time.Second,
		MaxRetries:  viper.GetInt("llm.max_retries"),
		RetryDelay:  time.Duration(viper.GetInt("llm.retry_delay_seconds")) * time.Second,

		RequestsPerMinute: viper.GetInt("llm.requests_per_minute"),
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return cfg
}

// LoadJudge resolves the semantic-judge configuration. Judge keys fall
// back to the generation-client settings so a single provider block is
// enough for both roles.
func LoadJudge() llm.Config {
	cfg := LoadLLM()
	if v := viper.GetString("judge.provider"); v != "" {
		cfg.Provider = v
	}
	if v := viper.GetString("judge.api_key"); v != "" {
		cfg.APIKey = v
	}
	if v := viper.GetString("judge.model"); v != "" {
		cfg.Model = v
	}
	if v := viper.GetString("judge.base_url"); v != "" {
		cfg.BaseURL = v
	}
	return cfg
}

// LoadHTTP resolves the target-endpoint client configuration from viper.
func LoadHTTP() httpx.Config {
	return httpx.Config{
		BaseURL:    viper.GetString("http.base_url"),
		Headers:    viper.GetStringMapString("http.headers"),
		Timeout:    time.Duration(viper.GetInt("http.timeout_seconds")) * time.Second,
		MaxRetries: viper.GetInt("http.retry_count"),
		RetryDelay: time.Duration(viper.GetInt("http.retry_delay_seconds")) * time.Second,
	}
}

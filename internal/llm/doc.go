// Package llm provides text-generation clients for the test harness. It
// supports OpenAI-compatible chat-completion endpoints with retry and
// timeout handling, and adapts any client into the semantic-comparison
// judge capability.
package llm

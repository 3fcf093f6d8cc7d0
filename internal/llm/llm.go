// Package llm wraps an OpenAI-compatible chat-completions endpoint behind a
// small Generator interface so dialog components never touch HTTP directly.
package llm

import (
	"context"
	"errors"
	"time"
)

// Message is one chat turn sent to the completions endpoint.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generator produces assistant text from a system prompt and prior messages.
// Generate blocks until the full reply is available. GenerateStream returns a
// channel of incremental deltas plus an error channel; both are closed when
// the stream ends. Every call carries a bounded deadline.
type Generator interface {
	Generate(ctx context.Context, system string, msgs []Message) (string, error)
	GenerateStream(ctx context.Context, system string, msgs []Message) (<-chan string, <-chan error)
}

// Config holds client settings.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// ErrNotConfigured is returned when no API key is set. Callers treat it like
// any other upstream failure and fall back to rule-based output.
var ErrNotConfigured = errors.New("llm: api key not configured")

package llm

import (
	"context"
	"errors"
	"time"
)

// Request is a single text-generation request.
type Request struct {
	SystemPrompt string
	Prompt       string
	Model        string
	MaxTokens    int
	// Deterministic pins decoding to temperature 0 for reproducible planning.
	Deterministic bool
}

// Response is the trimmed generation result.
type Response struct {
	Content   string
	Model     string
	Latency   time.Duration
	Timestamp time.Time
}

// Client is the minimal generation backend the pipeline depends on.
type Client interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// ErrNotConfigured means no API key was supplied. This is a configuration
// error, never retried.
var ErrNotConfigured = errors.New("llm backend not configured")

// CallOptions parameterize GenerateWithFallback: the prioritized model list,
// the per-model retry budget and the per-attempt timeout.
type CallOptions struct {
	Models         []string
	Attempts       int
	InitialBackoff time.Duration
	Timeout        time.Duration
}

// DefaultCallOptions returns production defaults: 4 tries per model with a
// 250ms doubling backoff and a 30s attempt timeout.
func DefaultCallOptions(models []string) CallOptions {
	return CallOptions{
		Models:         models,
		Attempts:       4,
		InitialBackoff: 250 * time.Millisecond,
		Timeout:        30 * time.Second,
	}
}

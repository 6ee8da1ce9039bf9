package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingClient fails a fixed number of times before succeeding and keeps
// the model used on every attempt.
type recordingClient struct {
	failures int
	failWith error
	models   []string
}

func (r *recordingClient) Generate(_ context.Context, req Request) (*Response, error) {
	r.models = append(r.models, req.Model)
	if len(r.models) <= r.failures {
		return nil, r.failWith
	}
	return &Response{Content: "ok", Model: req.Model}, nil
}

func fastOptions(models ...string) CallOptions {
	return CallOptions{
		Models:         models,
		Attempts:       3,
		InitialBackoff: time.Millisecond,
		Timeout:        time.Second,
	}
}

func TestGenerateWithFallbackFirstAttemptSucceeds(t *testing.T) {
	client := &recordingClient{}
	response, err := GenerateWithFallback(context.Background(), client, Request{}, fastOptions("alpha", "beta"), nil)
	require.NoError(t, err)

	assert.Equal(t, "alpha", response.Model)
	assert.Equal(t, []string{"alpha"}, client.models)
}

func TestGenerateWithFallbackRetriesTransientErrors(t *testing.T) {
	client := &recordingClient{
		failures: 2,
		failWith: &openai.APIError{HTTPStatusCode: 429},
	}
	response, err := GenerateWithFallback(context.Background(), client, Request{}, fastOptions("alpha", "beta"), nil)
	require.NoError(t, err)

	// Retries stay on the same model until its attempt budget runs out.
	assert.Equal(t, []string{"alpha", "alpha", "alpha"}, client.models)
	assert.Equal(t, "alpha", response.Model)
}

func TestGenerateWithFallbackSkipsToNextModelOnHardError(t *testing.T) {
	client := &recordingClient{
		failures: 1,
		failWith: &openai.APIError{HTTPStatusCode: 401},
	}
	response, err := GenerateWithFallback(context.Background(), client, Request{}, fastOptions("alpha", "beta"), nil)
	require.NoError(t, err)

	// A non-transient error burns no retries on the failing model.
	assert.Equal(t, []string{"alpha", "beta"}, client.models)
	assert.Equal(t, "beta", response.Model)
}

func TestGenerateWithFallbackExhaustsEveryModel(t *testing.T) {
	client := &recordingClient{
		failures: 100,
		failWith: &openai.APIError{HTTPStatusCode: 503},
	}
	_, err := GenerateWithFallback(context.Background(), client, Request{}, fastOptions("alpha", "beta"), nil)
	require.Error(t, err)

	var apiErr *openai.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Len(t, client.models, 6, "3 attempts across 2 models")
}

func TestGenerateWithFallbackNilClient(t *testing.T) {
	_, err := GenerateWithFallback(context.Background(), nil, Request{}, fastOptions("alpha"), nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestGenerateWithFallbackNotConfiguredIsFatal(t *testing.T) {
	client := &recordingClient{failures: 100, failWith: ErrNotConfigured}
	_, err := GenerateWithFallback(context.Background(), client, Request{}, fastOptions("alpha", "beta"), nil)

	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Len(t, client.models, 1, "no retries once the client reports missing credentials")
}

func TestGenerateWithFallbackHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &recordingClient{failures: 100, failWith: &openai.APIError{HTTPStatusCode: 429}}
	_, err := GenerateWithFallback(ctx, client, Request{}, fastOptions("alpha"), nil)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limited", &openai.APIError{HTTPStatusCode: 429}, true},
		{"bad gateway", &openai.APIError{HTTPStatusCode: 502}, true},
		{"service unavailable", &openai.APIError{HTTPStatusCode: 503}, true},
		{"unauthorized", &openai.APIError{HTTPStatusCode: 401}, false},
		{"bad request", &openai.APIError{HTTPStatusCode: 400}, false},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"wrapped deadline", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsTransient(tc.err))
		})
	}
}

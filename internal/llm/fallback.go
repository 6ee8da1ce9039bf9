package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// GenerateWithFallback walks the prioritized model list, retrying each model
// up to opts.Attempts times with exponential backoff on transient failures.
// A non-transient error or an exhausted retry budget moves on to the next
// model; the planner, synthesizer and role classifier all share this loop so
// the backoff policy lives in exactly one place.
func GenerateWithFallback(ctx context.Context, client Client, req Request, opts CallOptions, logger *zap.Logger) (*Response, error) {
	if client == nil {
		return nil, ErrNotConfigured
	}
	if len(opts.Models) == 0 {
		opts.Models = []string{req.Model}
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 1
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = 250 * time.Millisecond
	}

	var lastErr error
	for _, model := range opts.Models {
		backoff := opts.InitialBackoff
		for attempt := 1; attempt <= opts.Attempts; attempt++ {
			attemptReq := req
			attemptReq.Model = model

			attemptCtx := ctx
			var cancel context.CancelFunc
			if opts.Timeout > 0 {
				attemptCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
			}
			response, err := client.Generate(attemptCtx, attemptReq)
			if cancel != nil {
				cancel()
			}
			if err == nil {
				return response, nil
			}
			lastErr = err

			if errors.Is(err, ErrNotConfigured) {
				return nil, err
			}
			if ctx.Err() != nil {
				return nil, fmt.Errorf("generation canceled: %w", ctx.Err())
			}
			if !IsTransient(err) {
				if logger != nil {
					logger.Warn("model failed with non-transient error, moving on",
						zap.String("model", model), zap.Error(err))
				}
				break
			}
			if logger != nil {
				logger.Debug("transient backend error, backing off",
					zap.String("model", model),
					zap.Int("attempt", attempt),
					zap.Duration("backoff", backoff),
					zap.Error(err))
			}
			if attempt < opts.Attempts {
				select {
				case <-time.After(backoff):
				case <-ctx.Done():
					return nil, fmt.Errorf("generation canceled: %w", ctx.Err())
				}
				backoff *= 2
			}
		}
	}

	return nil, fmt.Errorf("all models exhausted: %w", lastErr)
}

// IsTransient reports whether an error justifies a retry: rate limits,
// service unavailability and overload, plus per-attempt timeouts (a slow
// model should yield to the next one, not hang the request).
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}

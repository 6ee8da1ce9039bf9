// Package planner translates a free-text question into a query expression in
// the restricted db.collection.method() mini-language. The primary path asks a
// generation backend; when every remote model is exhausted a local heuristic
// planner synthesizes a safe query instead, so planning as a whole never
// depends on the network being up.
package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/yourusername/fabriq-ai-query/internal/llm"
	"github.com/yourusername/fabriq-ai-query/internal/schema"
	"github.com/yourusername/fabriq-ai-query/models"
)

// Sentinel tokens the model may answer with instead of a query.
const (
	SentinelOffTopic  = "OFFTOPIC"
	SentinelForbidden = "FORBIDDEN"
)

// Planner plans queries with a remote backend and a local fallback.
type Planner struct {
	client     llm.Client
	descriptor *schema.Descriptor
	options    llm.CallOptions
	fallback   *HeuristicPlanner
	logger     *zap.Logger
}

// New creates a planner. client may be nil, in which case every plan comes
// from the heuristic fallback.
func New(client llm.Client, descriptor *schema.Descriptor, options llm.CallOptions, logger *zap.Logger) *Planner {
	return &Planner{
		client:     client,
		descriptor: descriptor,
		options:    options,
		fallback:   NewHeuristicPlanner(descriptor),
		logger:     logger,
	}
}

// Plan produces a PlannerResponse for the question. The returned query is
// either a sentinel token or an expression starting with the db. root; the
// Source field reports whether the model or the local fallback produced it.
func (p *Planner) Plan(ctx context.Context, question string) (*models.PlannerResponse, error) {
	if p.client != nil {
		response, err := llm.GenerateWithFallback(ctx, p.client, llm.Request{
			Prompt:        BuildPrompt(question, p.descriptor),
			Deterministic: true,
		}, p.options, p.logger)

		switch {
		case err == nil:
			cleaned := CleanOutput(response.Content)
			if IsSentinel(cleaned) || strings.HasPrefix(cleaned, "db.") {
				return &models.PlannerResponse{
					Query:  cleaned,
					Source: models.SourceLLM,
					Model:  response.Model,
				}, nil
			}
			p.logger.Warn("model output did not match the query grammar, using fallback",
				zap.String("model", response.Model))

		case errors.Is(err, llm.ErrNotConfigured):
			return nil, fmt.Errorf("%w: %v", models.ErrPlannerUnavailable, err)

		default:
			p.logger.Warn("all remote planning attempts failed, using fallback", zap.Error(err))
		}
	}

	query := p.fallback.Plan(question)
	return &models.PlannerResponse{Query: query, Source: models.SourceFallback}, nil
}

// CleanOutput strips code fences, surrounding whitespace and a trailing
// statement terminator from raw model output.
func CleanOutput(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		// drop a language tag such as "json" or "javascript"
		if newline := strings.IndexByte(cleaned, '\n'); newline >= 0 {
			first := strings.TrimSpace(cleaned[:newline])
			if first != "" && !strings.HasPrefix(first, "db.") && !IsSentinel(first) {
				cleaned = cleaned[newline+1:]
			}
		}
	}
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimSuffix(cleaned, ";")
	return strings.TrimSpace(cleaned)
}

// IsSentinel reports whether cleaned output is one of the reserved tokens.
func IsSentinel(s string) bool {
	upper := strings.ToUpper(strings.TrimSpace(s))
	return upper == SentinelOffTopic || upper == SentinelForbidden
}

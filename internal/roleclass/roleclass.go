// Package roleclass decides which audience a synthesized answer is safe for.
// The default audience is the end user; answers that surface internals are
// restricted to administrators. When the optional backend classification
// fails, the conservative default is admin: showing admin-only content to a
// user is the higher-severity mistake.
package roleclass

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/yourusername/fabriq-ai-query/internal/llm"
	"github.com/yourusername/fabriq-ai-query/internal/schema"
	"github.com/yourusername/fabriq-ai-query/models"
)

// sensitiveMarkers are substrings whose presence in an answer means it leaks
// internals: literal query text, operators, stack traces or configuration.
var sensitiveMarkers = []string{
	"db.",
	"$lookup",
	"$group",
	"$match",
	"aggregate(",
	"countdocuments(",
	"objectid(",
	"stack trace",
	"goroutine ",
	"panic:",
	"connection string",
	"mongodb://",
	"api key",
	"_id:",
}

// Classifier classifies answers. client may be nil to run heuristics only.
type Classifier struct {
	client     llm.Client
	options    llm.CallOptions
	descriptor *schema.Descriptor
	logger     *zap.Logger
}

// New creates a role classifier; the descriptor supplies the field names whose
// mention marks an answer as internal.
func New(client llm.Client, options llm.CallOptions, descriptor *schema.Descriptor, logger *zap.Logger) *Classifier {
	return &Classifier{client: client, options: options, descriptor: descriptor, logger: logger}
}

// Classify returns the audience for an answer. The keyword heuristic decides
// first; only when it is clean and a backend is configured does the remote
// check get a veto, and a failed or ambiguous remote check defaults to admin.
func (c *Classifier) Classify(ctx context.Context, answerText string) models.Role {
	if c.heuristicSensitive(answerText) {
		return models.RoleAdmin
	}
	if c.client == nil {
		return models.RoleUser
	}

	role, err := c.remoteClassify(ctx, answerText)
	if err != nil {
		if c.logger != nil {
			c.logger.Debug("role classification call failed, defaulting to admin", zap.Error(err))
		}
		return models.RoleAdmin
	}
	return role
}

// heuristicSensitive scans for internals: query syntax, operators, schema
// field names, stack traces, configuration values.
func (c *Classifier) heuristicSensitive(answerText string) bool {
	lower := strings.ToLower(answerText)
	for _, marker := range sensitiveMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	// Raw schema field names are internal vocabulary; a user-facing answer
	// talks about prices, not price fields.
	for _, collection := range c.descriptor.Collections {
		for _, field := range collection.Fields {
			if strings.Contains(field.Name, "_") && strings.Contains(lower, field.Name) {
				return true
			}
		}
	}
	return false
}

// remoteClassify delegates the decision to the backend, normalized to exactly
// one of the two tokens.
func (c *Classifier) remoteClassify(ctx context.Context, answerText string) (models.Role, error) {
	prompt := fmt.Sprintf(`You are a security reviewer for an e-commerce assistant. Classify the following answer text.

Answer:
"%s"

If the answer only contains customer-appropriate information (product names, prices, availability, order status), respond with the single word: user
If the answer exposes internal details (database queries, collection or field names, stack traces, configuration values, other customers' data), respond with the single word: admin

Respond with exactly one word.`, answerText)

	response, err := llm.GenerateWithFallback(ctx, c.client, llm.Request{Prompt: prompt, Deterministic: true}, c.options, c.logger)
	if err != nil {
		return models.RoleAdmin, err
	}

	switch strings.ToLower(strings.TrimSpace(response.Content)) {
	case "user":
		return models.RoleUser, nil
	case "admin":
		return models.RoleAdmin, nil
	default:
		return models.RoleAdmin, fmt.Errorf("ambiguous role classification %q", response.Content)
	}
}

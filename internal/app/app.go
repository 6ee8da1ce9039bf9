// Package app wires the pipeline together and sequences one invocation:
// classify, short-circuit, plan, validate, evaluate, execute, synthesize,
// role-classify. Every outcome, success or failure, becomes a QueryResponse.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/yourusername/fabriq-ai-query/internal/classifier"
	"github.com/yourusername/fabriq-ai-query/internal/planner"
	"github.com/yourusername/fabriq-ai-query/models"
)

const smalltalkReply = "Hello! I can answer questions about the store's products, fabrics, orders and users. " +
	"Try something like \"how many cotton products are under 1500?\""

// Planner is what the pipeline needs from the query planner.
type Planner interface {
	Plan(ctx context.Context, question string) (*models.PlannerResponse, error)
}

// QueryParser validates raw planner output.
type QueryParser interface {
	Parse(raw string) (*models.PlannedQuery, error)
}

// QueryExecutor dispatches a validated query to the store.
type QueryExecutor interface {
	Execute(ctx context.Context, planned *models.PlannedQuery) (interface{}, error)
}

// AnswerSynthesizer renders a result set as natural language.
type AnswerSynthesizer interface {
	Synthesize(ctx context.Context, question, queryText string, result interface{}) string
}

// RoleClassifier decides the audience for an answer.
type RoleClassifier interface {
	Classify(ctx context.Context, answerText string) models.Role
}

// Pipeline is the orchestrator. It holds no per-request state and is safe for
// concurrent invocations.
type Pipeline struct {
	classifier  *classifier.Classifier
	planner     Planner
	parser      QueryParser
	executor    QueryExecutor
	synthesizer AnswerSynthesizer
	roles       RoleClassifier
	logger      *zap.Logger
}

// NewPipeline assembles the orchestrator from its stages.
func NewPipeline(
	triage *classifier.Classifier,
	queryPlanner Planner,
	parser QueryParser,
	queryExecutor QueryExecutor,
	answerSynthesizer AnswerSynthesizer,
	roles RoleClassifier,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		classifier:  triage,
		planner:     queryPlanner,
		parser:      parser,
		executor:    queryExecutor,
		synthesizer: answerSynthesizer,
		roles:       roles,
		logger:      logger,
	}
}

// Ask runs one question through the whole pipeline. The response is always
// usable; the returned error, when non-nil, is a taxonomy value the HTTP
// boundary maps to a status code.
func (p *Pipeline) Ask(ctx context.Context, question string) (*models.QueryResponse, error) {
	if question == "" {
		return &models.QueryResponse{
			OK:    false,
			Role:  models.RoleUser,
			Error: "A 'question' is required in the request body.",
		}, models.ErrEmptyInput
	}

	// Local triage first: neither branch ever reaches the planner.
	triage := p.classifier.Classify(question)
	if triage.IsSmalltalk {
		return &models.QueryResponse{
			OK:            true,
			PlannerSource: models.SourceSmalltalk,
			Results:       []interface{}{},
			Answer:        smalltalkReply,
			Role:          models.RoleUser,
		}, nil
	}
	if triage.IsDestructive {
		p.logger.Warn("destructive intent blocked", zap.String("rule", triage.MatchedRule))
		return &models.QueryResponse{
			OK:            false,
			PlannerSource: models.SourceBlocked,
			Role:          models.RoleUser,
			Error:         "This type of query is not allowed.",
		}, models.ErrBlockedDestructive
	}

	planned, err := p.planner.Plan(ctx, question)
	if err != nil {
		p.logger.Error("planning failed", zap.Error(err))
		return &models.QueryResponse{
			OK:    false,
			Role:  models.RoleUser,
			Error: "The query planner is currently unavailable.",
		}, models.ErrPlannerUnavailable
	}
	p.logger.Info("query planned",
		zap.String("source", string(planned.Source)),
		zap.String("model", planned.Model),
		zap.String("query", planned.Query))

	// Sentinel short-circuits: the executor must never see these.
	switch strings.ToUpper(strings.TrimSpace(planned.Query)) {
	case planner.SentinelOffTopic:
		return &models.QueryResponse{
			OK:            false,
			PlannerSource: planned.Source,
			Role:          models.RoleUser,
			Error:         "I can only answer questions about the database. Please ask something about users, products, or orders.",
		}, models.ErrOffTopic
	case planner.SentinelForbidden:
		return &models.QueryResponse{
			OK:            false,
			PlannerSource: planned.Source,
			Role:          models.RoleUser,
			Error:         "This type of query is not allowed.",
		}, models.ErrForbidden
	}

	parsed, err := p.parser.Parse(planned.Query)
	if err != nil {
		return p.validationFailure(planned, err), err
	}

	result, err := p.executor.Execute(ctx, parsed)
	if err != nil {
		p.logger.Error("query execution failed",
			zap.String("query", parsed.Raw), zap.Error(err))
		return p.executionFailure(planned, err), err
	}

	answer := p.synthesizer.Synthesize(ctx, question, parsed.Raw, result)
	role := p.roles.Classify(ctx, answer)

	response := &models.QueryResponse{
		OK:            true,
		PlannerSource: planned.Source,
		MongoDBQuery:  parsed.Raw,
		ResultCount:   resultCount(result),
		Results:       result,
		Answer:        answer,
		Role:          role,
	}
	return response, nil
}

// validationFailure reports a planner output the validator refused. The raw
// planner text is internal detail, so these responses are always addressed to
// the admin audience.
func (p *Pipeline) validationFailure(planned *models.PlannerResponse, err error) *models.QueryResponse {
	p.logger.Warn("planner output rejected",
		zap.String("query", planned.Query), zap.Error(err))

	message := "The generated query could not be validated."
	if errors.Is(err, models.ErrForbiddenOperation) ||
		errors.Is(err, models.ErrDisallowedMethod) ||
		errors.Is(err, models.ErrDisallowedCollection) {
		message = "This query contains a forbidden operation and cannot be processed."
	}
	return &models.QueryResponse{
		OK:            false,
		PlannerSource: planned.Source,
		Role:          models.RoleAdmin,
		Error:         message,
		Detail:        fmt.Sprintf("rejected query %q: %v", planned.Query, err),
	}
}

// executionFailure reports a store-layer failure generically; detail stays in
// the server logs.
func (p *Pipeline) executionFailure(planned *models.PlannerResponse, err error) *models.QueryResponse {
	message := "Query execution failed."
	if errors.Is(err, models.ErrStoreUnavailable) {
		message = "The database is currently unavailable."
	}
	return &models.QueryResponse{
		OK:            false,
		PlannerSource: planned.Source,
		Role:          models.RoleUser,
		Error:         message,
	}
}

// resultCount is the scalar itself for counts, the row count otherwise.
func resultCount(result interface{}) int {
	switch v := result.(type) {
	case int64:
		return int(v)
	case []bson.M:
		return len(v)
	case []interface{}:
		return len(v)
	default:
		return 0
	}
}

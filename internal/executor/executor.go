// Package executor dispatches validated queries to the document store. Only
// the three read methods on the allow-list are reachable; everything else was
// rejected upstream and is rejected again here.
package executor

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/yourusername/fabriq-ai-query/models"
)

// DefaultResultCap bounds find results when the planner did not ask for a
// narrower limit.
const DefaultResultCap = 20

// Executor runs read-only queries against an injected database handle. The
// connection's lifecycle is owned by the host; the executor never opens,
// closes or transacts.
type Executor struct {
	db     *mongo.Database
	logger *zap.Logger
}

// New creates an executor over the given database handle.
func New(db *mongo.Database, logger *zap.Logger) *Executor {
	return &Executor{db: db, logger: logger}
}

// Execute dispatches a validated query and returns its raw result set: an
// int64 for counts, or a []bson.M for find and aggregate.
func (e *Executor) Execute(ctx context.Context, planned *models.PlannedQuery) (interface{}, error) {
	if e.db == nil {
		return nil, models.ErrStoreUnavailable
	}

	collection := e.db.Collection(planned.Collection)

	switch planned.Method {
	case models.MethodFind:
		return e.runFind(ctx, collection, planned)
	case models.MethodCountDocuments:
		return e.runCount(ctx, collection, planned)
	case models.MethodAggregate:
		return e.runAggregate(ctx, collection, planned)
	default:
		// Unreachable past the validator, kept as defense in depth.
		return nil, fmt.Errorf("%w: %q", models.ErrDisallowedMethod, planned.Method)
	}
}

// runFind applies [filter, projection?] with the result cap.
func (e *Executor) runFind(ctx context.Context, collection *mongo.Collection, planned *models.PlannedQuery) (interface{}, error) {
	filter, err := documentArg(planned.Args, 0)
	if err != nil {
		return nil, err
	}

	findOptions := options.Find().SetLimit(effectiveLimit(planned.Limit))
	if len(planned.Args) > 1 {
		projection, err := documentArg(planned.Args, 1)
		if err != nil {
			return nil, err
		}
		if len(projection) > 0 {
			findOptions.SetProjection(projection)
		}
	}

	cursor, err := collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrExecution, err)
	}
	defer cursor.Close(ctx)

	var documents []bson.M
	if err := cursor.All(ctx, &documents); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrExecution, err)
	}
	if documents == nil {
		documents = []bson.M{}
	}
	return documents, nil
}

// runCount applies [filter] and returns a scalar.
func (e *Executor) runCount(ctx context.Context, collection *mongo.Collection, planned *models.PlannedQuery) (interface{}, error) {
	filter, err := documentArg(planned.Args, 0)
	if err != nil {
		return nil, err
	}
	count, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrExecution, err)
	}
	return count, nil
}

// runAggregate applies [pipelineArray]. The first argument must actually be
// an array.
func (e *Executor) runAggregate(ctx context.Context, collection *mongo.Collection, planned *models.PlannedQuery) (interface{}, error) {
	if len(planned.Args) == 0 {
		return nil, fmt.Errorf("%w: aggregate requires a pipeline array", models.ErrArgumentSyntax)
	}
	pipeline, ok := planned.Args[0].(bson.A)
	if !ok {
		return nil, fmt.Errorf("%w: aggregate pipeline must be an array", models.ErrArgumentSyntax)
	}

	cursor, err := collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrExecution, err)
	}
	defer cursor.Close(ctx)

	var rows []bson.M
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrExecution, err)
	}
	if rows == nil {
		rows = []bson.M{}
	}
	return rows, nil
}

// documentArg fetches args[i] as a document; a missing argument is an empty
// filter, anything non-document is rejected.
func documentArg(args []interface{}, i int) (bson.M, error) {
	if i >= len(args) || args[i] == nil {
		return bson.M{}, nil
	}
	doc, ok := args[i].(bson.M)
	if !ok {
		return nil, fmt.Errorf("%w: argument %d must be a document", models.ErrArgumentSyntax, i+1)
	}
	return doc, nil
}

// effectiveLimit narrows to the planner's limit only when it is tighter than
// the default cap.
func effectiveLimit(requested int64) int64 {
	if requested > 0 && requested < DefaultResultCap {
		return requested
	}
	return DefaultResultCap
}

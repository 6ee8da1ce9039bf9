package models

import "errors"

// Pipeline error taxonomy. The HTTP boundary maps these one-to-one to status
// codes; packages wrap them with context via fmt.Errorf("...: %w", err).
var (
	// ErrEmptyInput - no question text supplied; nothing was called.
	ErrEmptyInput = errors.New("empty question")

	// ErrBlockedDestructive - the local classifier refused the question
	// before any remote call was made.
	ErrBlockedDestructive = errors.New("destructive intent blocked")

	// ErrPlannerUnavailable - every remote model and the local fallback
	// failed, usually missing credentials.
	ErrPlannerUnavailable = errors.New("query planner unavailable")

	// ErrOffTopic - the planner answered with the OFFTOPIC sentinel.
	ErrOffTopic = errors.New("question is off-topic for the catalog database")

	// ErrForbidden - the planner answered with the FORBIDDEN sentinel.
	ErrForbidden = errors.New("query type is not allowed")

	// Validation failures. Never retried, never echoed verbatim to end users.
	ErrMalformedQuery       = errors.New("malformed query expression")
	ErrDisallowedCollection = errors.New("collection is not on the allow-list")
	ErrDisallowedMethod     = errors.New("method is not on the allow-list")
	ErrForbiddenOperation   = errors.New("query contains a forbidden operation")
	ErrArgumentSyntax       = errors.New("invalid query argument syntax")

	// Store-layer failures, surfaced generically to callers.
	ErrExecution        = errors.New("query execution failed")
	ErrStoreUnavailable = errors.New("document store unavailable")
)

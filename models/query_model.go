// Why this file: ./models/query_model.go
// This defines the data structures that flow through the NL-to-query pipeline:
// the inbound question, the planner's answer, and the parsed/validated query
// that the executor is allowed to run.

package models

import "strings"

// QueryMethod enumerates the only store methods the pipeline may dispatch.
type QueryMethod string

const (
	MethodFind           QueryMethod = "find"
	MethodCountDocuments QueryMethod = "countDocuments"
	MethodAggregate      QueryMethod = "aggregate"
)

// PlannerSource records where a planned query (or short-circuit) came from.
// It is the only provenance the system keeps.
type PlannerSource string

const (
	SourceLLM       PlannerSource = "llm"
	SourceFallback  PlannerSource = "fallback"
	SourceSmalltalk PlannerSource = "smalltalk"
	SourceBlocked   PlannerSource = "blocked"
)

// QueryRequest is the inbound body of the AI query endpoint. The canonical
// field is "question"; "query" and "message" are accepted aliases.
type QueryRequest struct {
	Question string `json:"question"`
	Query    string `json:"query,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Text returns the question text, whichever alias carried it.
func (r QueryRequest) Text() string {
	for _, s := range []string{r.Question, r.Query, r.Message} {
		if t := strings.TrimSpace(s); t != "" {
			return t
		}
	}
	return ""
}

// PlannerResponse is the planner's output: either a raw query expression in
// the db.collection.method() mini-language, or empty with Source explaining why.
type PlannerResponse struct {
	Query  string        `json:"query"`
	Source PlannerSource `json:"source"`
	Model  string        `json:"model,omitempty"`
}

// PlannedQuery is a parsed and validated query, ready for execution.
// Args hold materialized BSON values produced by the argument evaluator.
type PlannedQuery struct {
	Collection string        `json:"collection"`
	Method     QueryMethod   `json:"method"`
	Args       []interface{} `json:"args"`
	// Limit is a chained .limit(n) if the planner emitted one; 0 means the
	// executor applies its default cap.
	Limit int64 `json:"limit,omitempty"`
	// Raw is the original expression text, kept for logging and the response.
	Raw string `json:"raw"`
}

// Role is the audience a synthesized answer is safe for.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

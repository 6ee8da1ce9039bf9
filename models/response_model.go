// Why this file: ./models/response_model.go
// This defines the terminal response shape of the pipeline. Every invocation,
// successful or not, is funneled into a QueryResponse; nothing escapes uncaught.

package models

// QueryResponse is the JSON object returned to the host for every invocation.
type QueryResponse struct {
	OK            bool          `json:"ok"`
	PlannerSource PlannerSource `json:"planner_source,omitempty"`
	MongoDBQuery  string        `json:"mongodb_query,omitempty"`
	ResultCount   int           `json:"result_count"`
	Results       interface{}   `json:"results"`
	Answer        string        `json:"answer"`
	Role          Role          `json:"role"`
	Error         string        `json:"error,omitempty"`
	// Detail carries validator/evaluator specifics. It is only populated when
	// the answer is classified for the admin audience; user-role responses
	// never see raw planner text.
	Detail string `json:"detail,omitempty"`
}

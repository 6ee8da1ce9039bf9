// Package synthesizer converts raw result sets into natural-language answers.
// Shape detection is heuristic and deterministic; a generation backend may
// optionally rephrase the answer, but the heuristic rendering is always the
// ground truth fallback.
package synthesizer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/yourusername/fabriq-ai-query/internal/llm"
)

// metricFields are the numeric summary fields a grouped-aggregate row may
// carry, in lookup order.
var metricFields = []string{"value", "total", "count", "sum", "avg", "min", "max"}

// nameFields are the fields tried, in order, for an entity's display name.
var nameFields = []string{"product_name", "fabric_name", "username", "name", "title", "email"}

// Synthesizer renders answers. client may be nil to disable the phrasing pass.
type Synthesizer struct {
	client  llm.Client
	options llm.CallOptions
	logger  *zap.Logger
}

// New creates a synthesizer with an optional generation backend.
func New(client llm.Client, options llm.CallOptions, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{client: client, options: options, logger: logger}
}

// Synthesize produces the answer text for a result set. The optional richer
// phrasing call is best-effort: any backend failure degrades to the heuristic
// rendering.
func (s *Synthesizer) Synthesize(ctx context.Context, question, queryText string, result interface{}) string {
	heuristic := Render(question, result)

	if s.client == nil {
		return heuristic
	}
	phrased, err := s.rephrase(ctx, question, queryText, result)
	if err != nil || phrased == "" {
		if err != nil && s.logger != nil {
			s.logger.Debug("phrasing pass failed, keeping heuristic answer", zap.Error(err))
		}
		return heuristic
	}
	return phrased
}

// rephrase asks the backend for a fluent answer grounded in the JSON result.
func (s *Synthesizer) rephrase(ctx context.Context, question, queryText string, result interface{}) (string, error) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	// Large result sets are truncated; the model only needs a sample to phrase
	// a summary and the heuristic answer already carries the counts.
	payload := string(resultJSON)
	if len(payload) > 4000 {
		payload = payload[:4000] + "…"
	}

	prompt := fmt.Sprintf(`You are a helpful e-commerce shop assistant. A customer asked:
"%s"

The database query %s returned this JSON result:
%s

Answer the customer's question in one or two friendly sentences based only on the result. Do not mention the query, collections or field names.`,
		question, queryText, payload)

	response, err := llm.GenerateWithFallback(ctx, s.client, llm.Request{Prompt: prompt}, s.options, s.logger)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Content), nil
}

// Render is the deterministic heuristic answer path, exported for tests and
// for use when no backend is configured.
func Render(question string, result interface{}) string {
	if n, ok := scalarValue(result); ok {
		return scalarSentence(question, n)
	}

	rows := documentRows(result)
	if rows == nil {
		// Unknown shape; show it raw rather than invent anything.
		return fmt.Sprintf("Result: %v", result)
	}

	if grouped, ok := groupedRows(rows); ok {
		return renderGrouped(grouped)
	}
	return renderEntities(question, rows)
}

// --- scalar shape ---

// scalarValue detects a bare number, a one-element numeric list, or a
// one-row result exposing a count/total/value style field.
func scalarValue(result interface{}) (float64, bool) {
	if n, ok := asNumber(result); ok {
		return n, true
	}
	rows := documentRows(result)
	if len(rows) != 1 {
		if list, ok := result.([]interface{}); ok && len(list) == 1 {
			return asNumber(list[0])
		}
		return 0, false
	}
	for _, field := range metricFields {
		if v, present := rows[0][field]; present {
			if n, ok := asNumber(v); ok {
				return n, true
			}
		}
	}
	return 0, false
}

func scalarSentence(question string, n float64) string {
	q := strings.ToLower(question)
	value := formatNumber(n)
	switch {
	case strings.Contains(q, "how many") || strings.Contains(q, "count"):
		return fmt.Sprintf("There are %s matching %s.", value, entityNoun(question, true))
	case strings.Contains(q, "average") || strings.Contains(q, "avg"):
		return fmt.Sprintf("The average is %s.", value)
	case strings.Contains(q, "sum") || strings.Contains(q, "total"):
		return fmt.Sprintf("The total is %s.", value)
	case strings.Contains(q, "min") || strings.Contains(q, "lowest") || strings.Contains(q, "cheapest"):
		return fmt.Sprintf("The minimum is %s.", value)
	case strings.Contains(q, "max") || strings.Contains(q, "highest") || strings.Contains(q, "most expensive"):
		return fmt.Sprintf("The maximum is %s.", value)
	default:
		return fmt.Sprintf("Result: %s", value)
	}
}

// --- grouped aggregate shape ---

type groupedRow struct {
	key    string
	metric float64
}

// groupedRows detects rows carrying an _id grouping key plus one numeric
// metric field.
func groupedRows(rows []bson.M) ([]groupedRow, bool) {
	if len(rows) == 0 {
		return nil, false
	}
	grouped := make([]groupedRow, 0, len(rows))
	for _, row := range rows {
		id, hasID := row["_id"]
		if !hasID {
			return nil, false
		}
		metric, found := 0.0, false
		for _, field := range metricFields {
			if v, present := row[field]; present {
				if n, ok := asNumber(v); ok {
					metric, found = n, true
					break
				}
			}
		}
		if !found {
			return nil, false
		}
		grouped = append(grouped, groupedRow{key: keyString(id), metric: metric})
	}
	return grouped, true
}

func renderGrouped(rows []groupedRow) string {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].metric > rows[j].metric })

	shown := rows
	if len(shown) > 5 {
		shown = shown[:5]
	}
	var b strings.Builder
	b.WriteString("Here is the breakdown:\n")
	for _, row := range shown {
		fmt.Fprintf(&b, "• %s: %s\n", row.key, formatNumber(row.metric))
	}
	if extra := len(rows) - len(shown); extra > 0 {
		fmt.Fprintf(&b, "…and %d more.", extra)
	}
	return strings.TrimRight(b.String(), "\n")
}

// --- entity list shape ---

func renderEntities(question string, rows []bson.M) string {
	if len(rows) == 0 {
		return fmt.Sprintf("I could not find any %s for that. Try relaxing the filters.", entityNoun(question, true))
	}

	shown := rows
	if len(shown) > 5 {
		shown = shown[:5]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "I found %d %s:\n", len(rows), entityNoun(question, len(rows) != 1))
	for _, row := range shown {
		fmt.Fprintf(&b, "• %s\n", describeEntity(row))
	}
	if extra := len(rows) - len(shown); extra > 0 {
		fmt.Fprintf(&b, "…and %d more.", extra)
	}
	return strings.TrimRight(b.String(), "\n")
}

// describeEntity combines whichever descriptive fields are present.
func describeEntity(row bson.M) string {
	var parts []string

	name := ""
	for _, field := range nameFields {
		if v, ok := row[field].(string); ok && v != "" {
			name = v
			break
		}
	}
	if name == "" {
		name = "(unnamed)"
	}
	parts = append(parts, name)

	if v, ok := asNumber(row["price"]); ok {
		parts = append(parts, fmt.Sprintf("price %s", formatNumber(v)))
	}
	if v, ok := asNumber(row["stock_quantity"]); ok {
		parts = append(parts, fmt.Sprintf("%s in stock", formatNumber(v)))
	}
	if v, ok := row["color"].(string); ok && v != "" {
		parts = append(parts, v)
	}
	if v, ok := row["material"].(string); ok && v != "" {
		parts = append(parts, v)
	}
	if v, ok := row["status"].(string); ok && v != "" {
		parts = append(parts, fmt.Sprintf("status %s", v))
	}
	if v, ok := asNumber(row["total_amount"]); ok {
		parts = append(parts, fmt.Sprintf("total %s", formatNumber(v)))
	}
	if v, ok := row["order_date"]; ok && v != nil {
		parts = append(parts, fmt.Sprintf("ordered %v", v))
	}

	return strings.Join(parts, ", ")
}

// entityNoun scans the question for the entity being asked about.
func entityNoun(question string, plural bool) string {
	q := strings.ToLower(question)
	noun := "item"
	switch {
	case strings.Contains(q, "product"):
		noun = "product"
	case strings.Contains(q, "order"):
		noun = "order"
	case strings.Contains(q, "review"):
		noun = "review"
	case strings.Contains(q, "user") || strings.Contains(q, "customer"):
		noun = "user"
	case strings.Contains(q, "fabric"):
		noun = "fabric"
	}
	if plural {
		return noun + "s"
	}
	return noun
}

// --- helpers ---

// documentRows normalizes the executor's list results.
func documentRows(result interface{}) []bson.M {
	switch rows := result.(type) {
	case []bson.M:
		return rows
	case bson.A:
		out := make([]bson.M, 0, len(rows))
		for _, r := range rows {
			m, ok := r.(bson.M)
			if !ok {
				return nil
			}
			out = append(out, m)
		}
		return out
	default:
		return nil
	}
}

func asNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'f', 2, 64)
}

// keyString renders a grouping key, including the null key of whole-set
// aggregations.
func keyString(id interface{}) string {
	if id == nil {
		return "all"
	}
	if s, ok := id.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", id)
}

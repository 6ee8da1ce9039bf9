package synthesizer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/yourusername/fabriq-ai-query/internal/llm"
)

func TestRenderScalarCount(t *testing.T) {
	answer := Render("how many products do you have?", int64(42))
	assert.Equal(t, "There are 42 matching products.", answer)
}

func TestRenderScalarTotalFromSingleRow(t *testing.T) {
	rows := []bson.M{{"_id": nil, "total": float64(12500)}}
	answer := Render("what is the total revenue?", rows)
	assert.Equal(t, "The total is 12500.", answer)
}

func TestRenderScalarAverage(t *testing.T) {
	rows := []bson.M{{"avg": 349.5}}
	answer := Render("what is the average price?", rows)
	assert.Equal(t, "The average is 349.50.", answer)
}

func TestRenderGroupedBreakdown(t *testing.T) {
	rows := []bson.M{
		{"_id": "delivered", "count": int64(3)},
		{"_id": "pending", "count": int64(10)},
		{"_id": "shipped", "count": int64(7)},
	}
	answer := Render("orders by status", rows)

	assert.Contains(t, answer, "Here is the breakdown:")
	// Sorted descending by metric.
	assert.Regexp(t, `(?s)pending: 10.*shipped: 7.*delivered: 3`, answer)
	assert.NotContains(t, answer, "more.")
}

func TestRenderGroupedTruncatesToTopFive(t *testing.T) {
	rows := []bson.M{
		{"_id": "a", "count": int64(9)},
		{"_id": "b", "count": int64(8)},
		{"_id": "c", "count": int64(7)},
		{"_id": "d", "count": int64(6)},
		{"_id": "e", "count": int64(5)},
		{"_id": "f", "count": int64(4)},
		{"_id": "g", "count": int64(3)},
	}
	answer := Render("breakdown by category", rows)

	assert.Contains(t, answer, "…and 2 more.")
	assert.NotContains(t, answer, "g: 3")
}

func TestRenderEmptyResult(t *testing.T) {
	answer := Render("show me purple fabrics", []bson.M{})
	assert.Equal(t, "I could not find any fabrics for that. Try relaxing the filters.", answer)
}

func TestRenderEntityList(t *testing.T) {
	rows := []bson.M{
		{"product_name": "Silk Saree", "price": int64(2500), "stock_quantity": int32(4)},
		{"product_name": "Cotton Kurta", "price": 799.0},
	}
	answer := Render("show me products", rows)

	assert.Contains(t, answer, "I found 2 products:")
	assert.Contains(t, answer, "• Silk Saree, price 2500, 4 in stock")
	assert.Contains(t, answer, "• Cotton Kurta, price 799")
}

func TestRenderSingularNoun(t *testing.T) {
	rows := []bson.M{{"username": "meera", "email": "meera@example.com"}}
	answer := Render("which user spent the most?", rows)
	assert.Contains(t, answer, "I found 1 user:")
}

func TestRenderNullGroupKey(t *testing.T) {
	rows := []bson.M{
		{"_id": nil, "total": int64(99)},
		{"_id": "silk", "total": int64(12)},
	}
	answer := Render("totals", rows)
	assert.Contains(t, answer, "all: 99")
}

func TestSynthesizeWithoutClientUsesHeuristic(t *testing.T) {
	s := New(nil, llm.DefaultCallOptions(nil), zap.NewNop())
	answer := s.Synthesize(context.Background(), "how many orders?", "db.orders.countDocuments({})", int64(7))
	assert.Equal(t, "There are 7 matching orders.", answer)
}

type stubClient struct {
	content string
	err     error
}

func (s *stubClient) Generate(context.Context, llm.Request) (*llm.Response, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &llm.Response{Content: s.content, Model: "stub"}, nil
}

func stubOptions() llm.CallOptions {
	return llm.CallOptions{Models: []string{"stub"}, Attempts: 1, InitialBackoff: time.Millisecond, Timeout: time.Second}
}

func TestSynthesizePrefersPhrasedAnswer(t *testing.T) {
	s := New(&stubClient{content: "We have 7 orders on record."}, stubOptions(), zap.NewNop())
	answer := s.Synthesize(context.Background(), "how many orders?", "db.orders.countDocuments({})", int64(7))
	assert.Equal(t, "We have 7 orders on record.", answer)
}

func TestSynthesizeDegradesOnBackendFailure(t *testing.T) {
	s := New(&stubClient{err: errors.New("backend down")}, stubOptions(), zap.NewNop())
	answer := s.Synthesize(context.Background(), "how many orders?", "db.orders.countDocuments({})", int64(7))
	assert.Equal(t, "There are 7 matching orders.", answer)
}

func TestSynthesizeDegradesOnEmptyPhrasing(t *testing.T) {
	s := New(&stubClient{content: "   "}, stubOptions(), zap.NewNop())
	answer := s.Synthesize(context.Background(), "how many orders?", "db.orders.countDocuments({})", int64(7))
	assert.Equal(t, "There are 7 matching orders.", answer)
}

package planner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/fabriq-ai-query/internal/querylang"
	"github.com/yourusername/fabriq-ai-query/internal/schema"
)

func TestHeuristicPlannerIsTotal(t *testing.T) {
	h := NewHeuristicPlanner(schema.Default())
	parser := querylang.NewParser(schema.Default())

	// Whatever the question, the output must match the parser's grammar.
	inputs := []string{
		"show me products",
		"how many orders do we have?",
		"red cotton shirts under 1500 in stock",
		"???",
		"lorem ipsum dolor sit amet",
		"what fabrics are there",
		"orders between 500 and 2000",
		"users",
		"   spaced    out    question   ",
	}
	for _, input := range inputs {
		query := h.Plan(input)
		_, err := parser.Parse(query)
		require.NoError(t, err, "fallback produced unparseable query %q for %q", query, input)
	}
}

func TestHeuristicPlannerPriceBounds(t *testing.T) {
	h := NewHeuristicPlanner(schema.Default())

	query := h.Plan("products under 1500")
	assert.Contains(t, query, "price: {$lte: 1500}")

	query = h.Plan("products between 500 and 2000")
	assert.Contains(t, query, "price: {$gte: 500, $lte: 2000}")

	query = h.Plan("products over 3000")
	assert.Contains(t, query, "price: {$gte: 3000}")
}

func TestHeuristicPlannerInStock(t *testing.T) {
	h := NewHeuristicPlanner(schema.Default())

	query := h.Plan("which shirts are in stock?")
	assert.Contains(t, query, "stock_quantity: {$gt: 0}")
	assert.True(t, strings.HasPrefix(query, "db.products.find("))
}

func TestHeuristicPlannerCount(t *testing.T) {
	h := NewHeuristicPlanner(schema.Default())

	query := h.Plan("how many orders are there?")
	assert.True(t, strings.HasPrefix(query, "db.orders.countDocuments("), query)
}

func TestHeuristicPlannerFabricJoin(t *testing.T) {
	h := NewHeuristicPlanner(schema.Default())
	parser := querylang.NewParser(schema.Default())

	query := h.Plan("show me red cotton products under 2000")
	assert.True(t, strings.HasPrefix(query, "db.products.aggregate("), query)
	assert.Contains(t, query, "$lookup")
	assert.Contains(t, query, `"fabric.color"`)
	assert.Contains(t, query, `"fabric.material"`)

	planned, err := parser.Parse(query)
	require.NoError(t, err)
	assert.Equal(t, "products", planned.Collection)
}

func TestHeuristicPlannerCountedFabricJoin(t *testing.T) {
	h := NewHeuristicPlanner(schema.Default())

	query := h.Plan("how many silk sarees do you have?")
	assert.True(t, strings.HasPrefix(query, "db.products.aggregate("), query)
	assert.Contains(t, query, "$count")
}

func TestHeuristicPlannerDefaultsToProducts(t *testing.T) {
	h := NewHeuristicPlanner(schema.Default())

	query := h.Plan("something entirely unrecognizable")
	assert.Equal(t, "db.products.find({}).limit(20)", query)
}

func TestHeuristicPlannerBareFabricQuestion(t *testing.T) {
	h := NewHeuristicPlanner(schema.Default())

	query := h.Plan("what fabrics do you sell?")
	assert.True(t, strings.HasPrefix(query, "db.fabrics.find("), query)
}

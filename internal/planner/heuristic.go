package planner

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yourusername/fabriq-ai-query/internal/schema"
)

// HeuristicPlanner pattern-matches known question shapes into safe queries.
// It is total: any non-empty question yields a syntactically valid expression,
// falling back to an empty-filter product listing when nothing matches.
type HeuristicPlanner struct {
	descriptor *schema.Descriptor
}

// NewHeuristicPlanner builds the fallback planner.
func NewHeuristicPlanner(descriptor *schema.Descriptor) *HeuristicPlanner {
	return &HeuristicPlanner{descriptor: descriptor}
}

// Fixed vocabulary of fabric attributes the storefront actually sells.
var (
	knownColors = []string{
		"red", "blue", "green", "black", "white", "yellow",
		"pink", "purple", "orange", "brown", "grey", "gray", "beige", "maroon",
	}
	knownMaterials = []string{
		"cotton", "silk", "linen", "wool", "polyester", "denim", "velvet", "rayon", "chiffon",
	}
	knownCategories = []string{
		"shirt", "kurta", "saree", "dress", "scarf", "bedsheet", "curtain", "cushion", "towel",
	}

	priceUnder   = regexp.MustCompile(`(?:under|below|less than|cheaper than|up to|at most)\s*(?:rs\.?|inr|\$)?\s*(\d+(?:\.\d+)?)`)
	priceOver    = regexp.MustCompile(`(?:over|above|more than|at least)\s*(?:rs\.?|inr|\$)?\s*(\d+(?:\.\d+)?)`)
	priceBetween = regexp.MustCompile(`between\s*(?:rs\.?|inr|\$)?\s*(\d+(?:\.\d+)?)\s*and\s*(?:rs\.?|inr|\$)?\s*(\d+(?:\.\d+)?)`)
	inStock      = regexp.MustCompile(`in\s+stock|available`)
	countWords   = regexp.MustCompile(`how many|count|number of`)
)

// Plan synthesizes a query expression for the question. It never fails.
func (h *HeuristicPlanner) Plan(question string) string {
	input := strings.ToLower(strings.TrimSpace(question))

	collection := h.pickCollection(input)
	wantsCount := countWords.MatchString(input)

	color := firstMatch(input, knownColors)
	material := firstMatch(input, knownMaterials)

	// Color/material live on the fabrics relation, so product questions about
	// them need the two-stage join-then-filter pipeline.
	if collection == "products" && (color != "" || material != "") {
		return h.fabricJoinPipeline(input, color, material, wantsCount)
	}

	filter := h.buildFilter(input, collection)
	if wantsCount {
		return fmt.Sprintf("db.%s.countDocuments(%s)", collection, filter)
	}
	return fmt.Sprintf("db.%s.find(%s).limit(20)", collection, filter)
}

// pickCollection scans for the collection noun; products is the default.
func (h *HeuristicPlanner) pickCollection(input string) string {
	switch {
	case strings.Contains(input, "order"):
		return "orders"
	case strings.Contains(input, "user") || strings.Contains(input, "customer"):
		return "users"
	case strings.Contains(input, "fabric") || strings.Contains(input, "material"):
		// Bare material questions ("what materials do you have") target the
		// fabrics collection directly.
		if firstMatch(input, knownMaterials) == "" && firstMatch(input, knownColors) == "" {
			return "fabrics"
		}
		return "products"
	case strings.Contains(input, "cart"):
		return "carts"
	default:
		return "products"
	}
}

// buildFilter renders the flat filter document for a collection.
func (h *HeuristicPlanner) buildFilter(input, collection string) string {
	var clauses []string

	if collection == "products" {
		if category := firstMatch(input, knownCategories); category != "" {
			clauses = append(clauses, fmt.Sprintf(`product_name: {$regex: %q, $options: "i"}`, category))
		}
		if clause := priceClause(input); clause != "" {
			clauses = append(clauses, clause)
		}
		if inStock.MatchString(input) {
			clauses = append(clauses, `stock_quantity: {$gt: 0}`)
		}
	}

	if collection == "fabrics" {
		if color := firstMatch(input, knownColors); color != "" {
			clauses = append(clauses, fmt.Sprintf(`color: {$regex: %q, $options: "i"}`, color))
		}
		if material := firstMatch(input, knownMaterials); material != "" {
			clauses = append(clauses, fmt.Sprintf(`material: {$regex: %q, $options: "i"}`, material))
		}
	}

	if len(clauses) == 0 {
		return "{}"
	}
	return "{" + strings.Join(clauses, ", ") + "}"
}

// fabricJoinPipeline emits the two-stage lookup pipeline matching products by
// fabric color or material.
func (h *HeuristicPlanner) fabricJoinPipeline(input, color, material string, wantsCount bool) string {
	var fabricClauses []string
	if color != "" {
		fabricClauses = append(fabricClauses, fmt.Sprintf(`"fabric.color": {$regex: %q, $options: "i"}`, color))
	}
	if material != "" {
		fabricClauses = append(fabricClauses, fmt.Sprintf(`"fabric.material": {$regex: %q, $options: "i"}`, material))
	}
	if clause := priceClause(input); clause != "" {
		fabricClauses = append(fabricClauses, clause)
	}
	if inStock.MatchString(input) {
		fabricClauses = append(fabricClauses, `stock_quantity: {$gt: 0}`)
	}

	stages := []string{
		`{$lookup: {from: "fabrics", localField: "fabric_id", foreignField: "_id", as: "fabric"}}`,
		`{$unwind: "$fabric"}`,
		"{$match: {" + strings.Join(fabricClauses, ", ") + "}}",
	}
	if wantsCount {
		stages = append(stages, `{$count: "count"}`)
	} else {
		stages = append(stages, `{$limit: 20}`)
	}
	return fmt.Sprintf("db.products.aggregate([%s])", strings.Join(stages, ", "))
}

// priceClause turns "under N", "between A and B" and "over N" phrases into a
// price filter.
func priceClause(input string) string {
	if m := priceBetween.FindStringSubmatch(input); m != nil {
		return fmt.Sprintf("price: {$gte: %s, $lte: %s}", m[1], m[2])
	}
	if m := priceUnder.FindStringSubmatch(input); m != nil {
		return fmt.Sprintf("price: {$lte: %s}", m[1])
	}
	if m := priceOver.FindStringSubmatch(input); m != nil {
		return fmt.Sprintf("price: {$gte: %s}", m[1])
	}
	return ""
}

func firstMatch(input string, vocabulary []string) string {
	for _, word := range vocabulary {
		if strings.Contains(input, word) {
			return word
		}
	}
	return ""
}

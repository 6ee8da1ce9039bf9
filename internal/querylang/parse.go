// Package querylang parses and validates the constrained query mini-language
// the planner emits: db.<collection>.<method>(<args>) with an optional
// .limit(n) chain. Arguments are evaluated by a restricted literal parser
// (see eval.go), never by a general-purpose interpreter.
package querylang

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yourusername/fabriq-ai-query/internal/schema"
	"github.com/yourusername/fabriq-ai-query/models"
)

// ForbiddenKeywords is the deny-list scanned case-insensitively over the whole
// raw expression, string literals included. The policy is deliberately blunt:
// if the words appear at all, the query never runs.
var ForbiddenKeywords = []string{
	"delete",
	"remove",
	"drop",
	"update",
	"insert",
	"create",
	"runcommand",
}

// allowedMethods is the closed set of dispatchable read methods.
var allowedMethods = map[string]models.QueryMethod{
	"find":           models.MethodFind,
	"countDocuments": models.MethodCountDocuments,
	"aggregate":      models.MethodAggregate,
}

// Parser validates raw planner output against the grammar, the schema-driven
// collection allow-list, the method allow-list and the keyword deny-list.
type Parser struct {
	descriptor *schema.Descriptor
}

// NewParser builds a parser whose collection allow-list comes from the same
// descriptor that rendered the planner prompt.
func NewParser(descriptor *schema.Descriptor) *Parser {
	return &Parser{descriptor: descriptor}
}

// Parse turns raw planner output into a validated PlannedQuery. Checks run
// cheapest-first: grammar, collection and method allow-lists, the keyword
// deny scan, and only then argument evaluation. The deny scan also covers
// ungrammatical input, so a write keyword is reported as the forbidden
// operation it is rather than as a syntax accident.
func (p *Parser) Parse(raw string) (*models.PlannedQuery, error) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimSuffix(trimmed, ";")
	trimmed = strings.TrimSpace(trimmed)

	collection, method, argsText, limit, err := splitExpression(trimmed)
	if err != nil {
		if denyErr := scanForbidden(trimmed); denyErr != nil {
			return nil, denyErr
		}
		return nil, err
	}

	if !p.descriptor.HasCollection(collection) {
		return nil, fmt.Errorf("%w: %q", models.ErrDisallowedCollection, collection)
	}
	queryMethod, ok := allowedMethods[method]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrDisallowedMethod, method)
	}

	if err := scanForbidden(trimmed); err != nil {
		return nil, err
	}

	args, err := EvaluateArgs(argsText)
	if err != nil {
		return nil, err
	}

	return &models.PlannedQuery{
		Collection: collection,
		Method:     queryMethod,
		Args:       args,
		Limit:      limit,
		Raw:        trimmed,
	}, nil
}

// scanForbidden rejects the expression when any deny-listed keyword appears
// anywhere in it, independent of grammar validity.
func scanForbidden(raw string) error {
	lower := strings.ToLower(raw)
	for _, keyword := range ForbiddenKeywords {
		if strings.Contains(lower, keyword) {
			return fmt.Errorf("%w: contains %q", models.ErrForbiddenOperation, keyword)
		}
	}
	return nil
}

// splitExpression dissects db.<collection>.<method>(<args>)[.limit(n)].
func splitExpression(raw string) (collection, method, argsText string, limit int64, err error) {
	rest, ok := strings.CutPrefix(raw, "db.")
	if !ok {
		return "", "", "", 0, fmt.Errorf("%w: expression must start with db.", models.ErrMalformedQuery)
	}

	collection, rest, ok = cutIdentifier(rest)
	if !ok || !strings.HasPrefix(rest, ".") {
		return "", "", "", 0, fmt.Errorf("%w: missing collection name", models.ErrMalformedQuery)
	}
	rest = rest[1:]

	method, rest, ok = cutIdentifier(rest)
	if !ok || !strings.HasPrefix(rest, "(") {
		return "", "", "", 0, fmt.Errorf("%w: missing method call", models.ErrMalformedQuery)
	}

	argsText, rest, err = cutParenGroup(rest)
	if err != nil {
		return "", "", "", 0, err
	}

	rest = strings.TrimSpace(rest)
	if rest != "" {
		limit, err = cutLimitChain(rest)
		if err != nil {
			return "", "", "", 0, err
		}
	}

	return collection, method, argsText, limit, nil
}

// cutIdentifier consumes a leading bare identifier.
func cutIdentifier(s string) (ident, rest string, ok bool) {
	i := 0
	for i < len(s) {
		c := s[i]
		if c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || i > 0 && c >= '0' && c <= '9' {
			i++
			continue
		}
		break
	}
	if i == 0 {
		return "", s, false
	}
	return s[:i], s[i:], true
}

// cutParenGroup consumes a balanced (...) group, respecting nested brackets
// and quoted strings, and returns its inner text.
func cutParenGroup(s string) (inner, rest string, err error) {
	if !strings.HasPrefix(s, "(") {
		return "", "", fmt.Errorf("%w: expected (", models.ErrMalformedQuery)
	}
	depth := 0
	inString := byte(0)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString != 0 {
			if c == '\\' {
				i++
				continue
			}
			if c == inString {
				inString = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			inString = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth == 0 {
				if c != ')' {
					return "", "", fmt.Errorf("%w: unbalanced brackets", models.ErrMalformedQuery)
				}
				return s[1:i], s[i+1:], nil
			}
		}
	}
	return "", "", fmt.Errorf("%w: unterminated argument list", models.ErrMalformedQuery)
}

// cutLimitChain parses the only chain the grammar allows: .limit(<integer>).
func cutLimitChain(rest string) (int64, error) {
	after, ok := strings.CutPrefix(rest, ".limit(")
	if !ok {
		return 0, fmt.Errorf("%w: unexpected trailing %q", models.ErrMalformedQuery, rest)
	}
	closing := strings.Index(after, ")")
	if closing < 0 || strings.TrimSpace(after[closing+1:]) != "" {
		return 0, fmt.Errorf("%w: malformed limit chain", models.ErrMalformedQuery)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(after[:closing]), 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: limit must be a non-negative integer", models.ErrMalformedQuery)
	}
	return n, nil
}

package querylang

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/yourusername/fabriq-ai-query/models"
)

// EvaluateArgs parses the raw argument text of a query expression into
// materialized BSON values. The only constructors recognized are ObjectId,
// ISODate / new Date and the NumberInt/NumberLong wrappers; there are no other
// bindings, so the evaluator can only ever yield plain data.
func EvaluateArgs(argsText string) ([]interface{}, error) {
	p := &literalParser{src: argsText}
	nodes, err := p.parseArgList()
	if err != nil {
		return nil, err
	}

	args := make([]interface{}, 0, len(nodes))
	for _, n := range nodes {
		value, err := materialize(n)
		if err != nil {
			return nil, err
		}
		args = append(args, value)
	}
	return args, nil
}

// materialize turns an AST node into a native BSON value.
func materialize(n Node) (interface{}, error) {
	switch node := n.(type) {
	case Literal:
		return node.Value, nil

	case ArrayLit:
		arr := make(bson.A, 0, len(node.Elems))
		for _, elem := range node.Elems {
			value, err := materialize(elem)
			if err != nil {
				return nil, err
			}
			arr = append(arr, value)
		}
		return arr, nil

	case ObjectLit:
		// Extended-JSON date: {$date: "..."} becomes a real BSON date, not a
		// document with a literal $date field.
		if len(node.Keys) == 1 && node.Keys[0] == "$date" {
			if lit, ok := node.Values[0].(Literal); ok {
				if s, ok := lit.Value.(string); ok {
					return materialize(DateRef{Value: s})
				}
			}
		}
		doc := make(bson.M, len(node.Keys))
		for i, key := range node.Keys {
			value, err := materialize(node.Values[i])
			if err != nil {
				return nil, err
			}
			doc[key] = value
		}
		return doc, nil

	case IdRef:
		id, err := primitive.ObjectIDFromHex(node.Hex)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid ObjectId %q", models.ErrArgumentSyntax, node.Hex)
		}
		return id, nil

	case DateRef:
		if node.Value == "" {
			return primitive.NewDateTimeFromTime(time.Now().UTC()), nil
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, node.Value); err == nil {
				return primitive.NewDateTimeFromTime(t), nil
			}
		}
		return nil, fmt.Errorf("%w: unparseable date %q", models.ErrArgumentSyntax, node.Value)

	default:
		return nil, fmt.Errorf("%w: unknown node", models.ErrArgumentSyntax)
	}
}

// literalParser is a scannerless recursive-descent parser over the argument
// text.
type literalParser struct {
	src string
	pos int
}

func (p *literalParser) errf(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%w: %s at offset %d", models.ErrArgumentSyntax, msg, p.pos)
}

// parseArgList parses zero or more comma-separated values to end of input.
func (p *literalParser) parseArgList() ([]Node, error) {
	var nodes []Node
	p.skipSpace()
	if p.eof() {
		return nodes, nil
	}
	for {
		node, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
		p.skipSpace()
		if p.eof() {
			return nodes, nil
		}
		if !p.consume(',') {
			return nil, p.errf("expected ',' between arguments")
		}
		p.skipSpace()
		if p.eof() { // tolerate a trailing comma
			return nodes, nil
		}
	}
}

func (p *literalParser) parseValue() (Node, error) {
	p.skipSpace()
	if p.eof() {
		return nil, p.errf("unexpected end of input")
	}
	switch c := p.src[p.pos]; {
	case c == '{':
		return p.parseObject()
	case c == '[':
		return p.parseArray()
	case c == '"' || c == '\'':
		s, err := p.parseString()
		if err != nil {
			return nil, err
		}
		return Literal{Value: s}, nil
	case c == '-' || c == '+' || c == '.' || c >= '0' && c <= '9':
		return p.parseNumber()
	default:
		return p.parseIdentValue()
	}
}

func (p *literalParser) parseObject() (Node, error) {
	p.pos++ // {
	obj := ObjectLit{}
	p.skipSpace()
	if p.consume('}') {
		return obj, nil
	}
	for {
		p.skipSpace()
		key, err := p.parseKey()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if !p.consume(':') {
			return nil, p.errf("expected ':' after key %q", key)
		}
		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		obj.Keys = append(obj.Keys, key)
		obj.Values = append(obj.Values, value)
		p.skipSpace()
		if p.consume('}') {
			return obj, nil
		}
		if !p.consume(',') {
			return nil, p.errf("expected ',' or '}' in object")
		}
		p.skipSpace()
		if p.consume('}') { // tolerate a trailing comma
			return obj, nil
		}
	}
}

func (p *literalParser) parseArray() (Node, error) {
	p.pos++ // [
	arr := ArrayLit{}
	p.skipSpace()
	if p.consume(']') {
		return arr, nil
	}
	for {
		elem, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		arr.Elems = append(arr.Elems, elem)
		p.skipSpace()
		if p.consume(']') {
			return arr, nil
		}
		if !p.consume(',') {
			return nil, p.errf("expected ',' or ']' in array")
		}
		p.skipSpace()
		if p.consume(']') { // tolerate a trailing comma
			return arr, nil
		}
	}
}

// parseKey accepts quoted strings and bare identifiers, including the
// $-prefixed operator keys the shell allows unquoted.
func (p *literalParser) parseKey() (string, error) {
	if p.eof() {
		return "", p.errf("unexpected end of input in object key")
	}
	if c := p.src[p.pos]; c == '"' || c == '\'' {
		return p.parseString()
	}
	start := p.pos
	for !p.eof() {
		c := p.src[p.pos]
		if c == '$' || c == '_' || c == '.' ||
			c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
			p.pos++
			continue
		}
		break
	}
	if p.pos == start {
		return "", p.errf("expected object key")
	}
	return p.src[start:p.pos], nil
}

func (p *literalParser) parseString() (string, error) {
	quote := p.src[p.pos]
	p.pos++
	var b strings.Builder
	for !p.eof() {
		c := p.src[p.pos]
		if c == '\\' {
			if p.pos+1 >= len(p.src) {
				return "", p.errf("unterminated escape")
			}
			next := p.src[p.pos+1]
			switch next {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(next)
			}
			p.pos += 2
			continue
		}
		if c == quote {
			p.pos++
			return b.String(), nil
		}
		b.WriteByte(c)
		p.pos++
	}
	return "", p.errf("unterminated string")
}

func (p *literalParser) parseNumber() (Node, error) {
	start := p.pos
	if c := p.src[p.pos]; c == '-' || c == '+' {
		p.pos++
	}
	isFloat := false
	for !p.eof() {
		c := p.src[p.pos]
		if c >= '0' && c <= '9' {
			p.pos++
			continue
		}
		if c == '.' || c == 'e' || c == 'E' {
			isFloat = true
			p.pos++
			if c != '.' && !p.eof() && (p.src[p.pos] == '-' || p.src[p.pos] == '+') {
				p.pos++
			}
			continue
		}
		break
	}
	text := p.src[start:p.pos]
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, p.errf("invalid number %q", text)
		}
		return Literal{Value: f}, nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, p.errf("invalid number %q", text)
	}
	return Literal{Value: n}, nil
}

// parseIdentValue handles keywords and the small constructor vocabulary.
func (p *literalParser) parseIdentValue() (Node, error) {
	ident := p.readIdent()
	switch ident {
	case "true":
		return Literal{Value: true}, nil
	case "false":
		return Literal{Value: false}, nil
	case "null", "undefined":
		return Literal{Value: nil}, nil
	case "ObjectId":
		inner, err := p.parseCallArg(true)
		if err != nil {
			return nil, err
		}
		return IdRef{Hex: inner}, nil
	case "ISODate", "Date":
		inner, err := p.parseCallArg(false)
		if err != nil {
			return nil, err
		}
		return DateRef{Value: inner}, nil
	case "new":
		p.skipSpace()
		next := p.readIdent()
		if next != "Date" {
			return nil, p.errf("unsupported constructor new %s", next)
		}
		inner, err := p.parseCallArg(false)
		if err != nil {
			return nil, err
		}
		return DateRef{Value: inner}, nil
	case "NumberInt", "NumberLong":
		inner, err := p.parseCallArg(true)
		if err != nil {
			return nil, err
		}
		n, convErr := strconv.ParseInt(strings.TrimSpace(inner), 10, 64)
		if convErr != nil {
			return nil, p.errf("invalid %s argument %q", ident, inner)
		}
		return Literal{Value: n}, nil
	case "":
		return nil, p.errf("unexpected character %q", p.src[p.pos])
	default:
		return nil, p.errf("unknown identifier %q", ident)
	}
}

// parseCallArg consumes ( [string|number] ). When required is false the call
// may be empty, as in new Date().
func (p *literalParser) parseCallArg(required bool) (string, error) {
	p.skipSpace()
	if !p.consume('(') {
		return "", p.errf("expected '(' after constructor")
	}
	p.skipSpace()
	if p.consume(')') {
		if required {
			return "", p.errf("constructor requires an argument")
		}
		return "", nil
	}
	var inner string
	if c := p.src[p.pos]; c == '"' || c == '\'' {
		s, err := p.parseString()
		if err != nil {
			return "", err
		}
		inner = s
	} else {
		start := p.pos
		for !p.eof() && p.src[p.pos] != ')' {
			p.pos++
		}
		inner = strings.TrimSpace(p.src[start:p.pos])
	}
	p.skipSpace()
	if !p.consume(')') {
		return "", p.errf("expected ')' after constructor argument")
	}
	return inner, nil
}

func (p *literalParser) readIdent() string {
	start := p.pos
	for !p.eof() {
		c := p.src[p.pos]
		if c == '_' || c == '$' ||
			c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

func (p *literalParser) skipSpace() {
	for !p.eof() {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *literalParser) consume(c byte) bool {
	if !p.eof() && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *literalParser) eof() bool {
	return p.pos >= len(p.src)
}

package querylang

// The argument evaluator is a recursive-descent parser over a JSON superset:
// the Mongo shell's literal syntax. It produces a tagged AST which a separate
// materialization step turns into BSON values. Nothing executable can ever be
// represented, so there is no sandbox to escape.

// Node is one AST node of a parsed argument literal.
type Node interface{ node() }

// Literal is a string, number, boolean or null.
type Literal struct {
	Value interface{}
}

// ObjectLit is an object literal with keys in source order.
type ObjectLit struct {
	Keys   []string
	Values []Node
}

// ArrayLit is an array literal.
type ArrayLit struct {
	Elems []Node
}

// IdRef is an ObjectId("...") constructor call.
type IdRef struct {
	Hex string
}

// DateRef is an ISODate("...")/new Date("...") constructor call, or a
// {$date: "..."} extended-JSON object. An empty Value means "now".
type DateRef struct {
	Value string
}

func (Literal) node()   {}
func (ObjectLit) node() {}
func (ArrayLit) node()  {}
func (IdRef) node()     {}
func (DateRef) node()   {}

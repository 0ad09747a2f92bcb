package rewrite

import (
	"go/ast"
	"go/token"
)

// ReductionTemplate is an (init, combine) pair of expression builders
// for one (operator, type) reduction: init produces the per-worker
// accumulator's starting value, combine folds a worker's private
// accumulator into the shared result.
type ReductionTemplate struct {
	// Init returns the initializer expression for a private accumulator
	// of this reduction, e.g. `0` for `+`, `1` for `*`.
	Init func() ast.Expr
	// Combine returns the folded value `acc <op> contribution`; the
	// caller (processors' combineStmt) assigns it back to acc inside the
	// team mutex after a worker's last chunk.
	Combine func(acc, contribution ast.Expr) ast.Expr
}

// ReductionTable is keyed first by operator symbol, then by target
// type name (an empty type key is the operator's numeric default,
// used when no type-specific override has been declared). It also
// holds user-declared reductions registered by `declare reduction` at
// transform time.
type ReductionTable struct {
	entries map[string]map[string]*ReductionTemplate
}

// NewReductionTable returns a table pre-populated with the standard
// arithmetic, logical, and bitwise operators.
func NewReductionTable() *ReductionTable {
	t := &ReductionTable{entries: map[string]map[string]*ReductionTemplate{}}
	zero := func() ast.Expr { return IntLit(0) }
	one := func() ast.Expr { return IntLit(1) }
	allOnes := func() ast.Expr { return &ast.UnaryExpr{Op: token.XOR, X: IntLit(0)} }
	combine := func(op string) func(acc, c ast.Expr) ast.Expr {
		tok := binTokenFor(op)
		return func(acc, c ast.Expr) ast.Expr { return BinOp(acc, tok, c) }
	}
	t.register("+", "", &ReductionTemplate{Init: zero, Combine: combine("+")})
	t.register("-", "", &ReductionTemplate{Init: zero, Combine: combine("+")}) // subtraction reduces as a sum of signed terms
	t.register("*", "", &ReductionTemplate{Init: one, Combine: combine("*")})
	t.register("&", "", &ReductionTemplate{Init: allOnes, Combine: combine("&")})
	t.register("|", "", &ReductionTemplate{Init: zero, Combine: combine("|")})
	t.register("^", "", &ReductionTemplate{Init: zero, Combine: combine("^")})
	t.register("&&", "", &ReductionTemplate{Init: func() ast.Expr { return Ident("true") }, Combine: combine("&&")})
	t.register("||", "", &ReductionTemplate{Init: func() ast.Expr { return Ident("false") }, Combine: combine("||")})
	return t
}

func (t *ReductionTable) register(op, typ string, tpl *ReductionTemplate) {
	m, ok := t.entries[op]
	if !ok {
		m = map[string]*ReductionTemplate{}
		t.entries[op] = m
	}
	m[typ] = tpl
}

// Register adds or overrides a user-declared reduction for op/typ,
// called by processors/declarereduction.go when it rewrites a `declare
// reduction` directive.
func (t *ReductionTable) Register(op, typ string, tpl *ReductionTemplate) {
	t.register(op, typ, tpl)
}

// Lookup returns the template for op specialized to typ, falling back
// to the operator's default (empty type key) entry.
func (t *ReductionTable) Lookup(op, typ string) (*ReductionTemplate, bool) {
	m, ok := t.entries[op]
	if !ok {
		return nil, false
	}
	if tpl, ok := m[typ]; ok {
		return tpl, true
	}
	tpl, ok := m[""]
	return tpl, ok
}

func binTokenFor(op string) token.Token {
	switch op {
	case "+":
		return token.ADD
	case "*":
		return token.MUL
	case "&":
		return token.AND
	case "|":
		return token.OR
	case "^":
		return token.XOR
	case "&&":
		return token.LAND
	case "||":
		return token.LOR
	}
	return token.ADD
}

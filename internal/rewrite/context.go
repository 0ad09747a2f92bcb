package rewrite

import (
	"go/ast"
	"go/token"

	"github.com/ompgo/ompgo/internal/symtab"
)

// Context carries the state a processor needs to rewrite one marker's
// governed statement: filename, the alias used to detect directives, a
// stack of enclosing AST nodes, the scope symbol table, and fresh name
// generation (folded into the symbol table's Fresh).
//
// Invariant: at any processor invocation, Stack[len(Stack)-1] is the
// statement being rewritten (the *ast.FuncDecl for a marker placed above
// a function declaration).
type Context struct {
	Fset     *token.FileSet
	Filename string
	Alias    string // marker prefix, e.g. "ompgo" for "//ompgo:"
	Stack    []ast.Node
	Scope    *symtab.Table

	// Worker is the expression a processor uses to obtain the current
	// *ompgort.Worker: the identifier bound by the nearest enclosing
	// lifted region FuncLit, or a call to ompgort.CurrentImplicit() at
	// the outermost, non-nested call site. Every processor that lifts a
	// body into a FuncLit rebinds this to that FuncLit's own parameter
	// name before the engine descends into the new body (see
	// engine.go's lifted-block tracking), so nested directives always
	// resolve to the right worker without any goroutine-local lookup.
	Worker ast.Expr

	// Reductions is the operator/type-keyed reduction template table
	// shared by every processor in this Engine.Run pass (internal/rewrite/reduction.go).
	Reductions *ReductionTable
}

// FreshWorkerName returns a parameter name for a newly lifted FuncLit,
// guaranteed not to collide with any name already in Scope.
func (c *Context) FreshWorkerName() string {
	return c.Scope.Fresh("w")
}

// FreshName returns a name, derived from base, guaranteed not to
// collide with any name already in Scope — used by processors for
// synthesized locals (team/task handles, chunk cursors, accumulators).
func (c *Context) FreshName(base string) string {
	return c.Scope.Fresh(base)
}

// Push appends n to the node stack, returning a function that restores
// the previous stack depth; callers defer the returned function.
func (c *Context) Push(n ast.Node) func() {
	c.Stack = append(c.Stack, n)
	depth := len(c.Stack)
	return func() {
		c.Stack = c.Stack[:depth-1]
	}
}

// Current returns the innermost node on the stack, or nil if empty.
func (c *Context) Current() ast.Node {
	if len(c.Stack) == 0 {
		return nil
	}
	return c.Stack[len(c.Stack)-1]
}

// Line returns the 1-based source line of pos.
func (c *Context) Line(pos token.Pos) int {
	return c.Fset.Position(pos).Line
}

// Col returns the 1-based source column of pos.
func (c *Context) Col(pos token.Pos) int {
	return c.Fset.Position(pos).Column
}

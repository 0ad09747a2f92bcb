package rewrite

import (
	"go/ast"

	"github.com/ompgo/ompgo/internal/directive"
)

// Processor rewrites one marker's governed node — a statement for a
// directive-as-context/statement marker, or a *ast.FuncDecl for a
// directive positioned above a function declaration (the
// "decorator on a function or class") — into its replacement form.
// stmt is nil when governing is a FuncDecl (decl is non-nil then, and
// vice versa).
type Processor func(ctx *Context, dir *directive.Directive, stmt ast.Stmt, decl *ast.FuncDecl) ([]ast.Stmt, error)

// registry is the process-wide directive-name -> Processor table,
// populated by internal/rewrite/processors' init() functions.
var registry = map[string]Processor{}

// Register adds p as the processor for directive name (the head name
// of a directive or composed chain, e.g. "parallel", "parallel for",
// "declare reduction"). Called from processors package init()
// functions; panics on a duplicate registration, which can only be a
// programming error since names are compile-time constants.
func Register(name string, p Processor) {
	if _, exists := registry[name]; exists {
		panic("rewrite: duplicate processor registration for " + name)
	}
	registry[name] = p
}

func lookup(dir *directive.Directive) (Processor, bool) {
	p, ok := registry[dir.Name()]
	return p, ok
}

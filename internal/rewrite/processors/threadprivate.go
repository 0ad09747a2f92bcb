package processors

import (
	"go/ast"

	"github.com/ompgo/ompgo/internal/directive"
	"github.com/ompgo/ompgo/internal/rewrite"
)

func init() {
	rewrite.Register("threadprivate", Threadprivate)
}

// Threadprivate lowers `threadprivate`: the marked name becomes an
// accessor function — `//ompgo: threadprivate` sits above a nullary
// `func name() T { return <master-init-expr> }` the way
// `declare reduction` sits above its own implementing func — and every
// worker thread that calls it sees its own independent binding, lazily
// initialized from the original body on that thread's first call.
//
// A decl-level processor mutates decl in place rather than returning
// statements (dispatchDeclMarkers discards the return value, matching
// declare-reduction's own shape). Since ompgo has no goroutine-local
// lookup, the accessor gains a *ompgort.Worker parameter — the same
// explicit-threading discipline every lifted region body already
// follows (worker.go's own doc comment) — so call sites inside a
// lifted FuncLit pass their bound worker identifier through.
func Threadprivate(ctx *rewrite.Context, dir *directive.Directive, stmt ast.Stmt, decl *ast.FuncDecl) ([]ast.Stmt, error) {
	originalBody := decl.Body.List
	name := decl.Name.Name

	workerField := &ast.Field{
		Names: []*ast.Ident{rewrite.Ident(workerParam)},
		Type:  rewrite.Star(rewrite.RTType("Worker")),
	}
	decl.Type.Params.List = append([]*ast.Field{workerField}, decl.Type.Params.List...)

	initFn := &ast.FuncLit{
		Type: &ast.FuncType{Params: &ast.FieldList{}, Results: decl.Type.Results},
		Body: &ast.BlockStmt{List: originalBody},
	}
	call := rewrite.RTCall("ThreadLocalFor", rewrite.Ident(workerParam), rewrite.StringLit(name), initFn)
	decl.Body = &ast.BlockStmt{List: []ast.Stmt{&ast.ReturnStmt{Results: []ast.Expr{call}}}}

	return nil, nil
}

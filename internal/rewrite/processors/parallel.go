package processors

import (
	"go/ast"
	"go/token"

	"github.com/ompgo/ompgo/internal/directive"
	"github.com/ompgo/ompgo/internal/rewrite"
)

func init() {
	rewrite.Register("parallel", Parallel)
}

// workerParam is the fixed parameter name every lifted region FuncLit
// binds its worker to. Because Go resolves identifiers lexically, a
// nested region's own "w" simply shadows its enclosing region's "w" —
// exactly the semantics needed (code inside a nested team should only
// ever see its own immediate worker) — so the rewriter never needs to
// invent per-region unique names for it. User source below a marker
// that calls into the omp_* API (ompgort.GetThreadNum(w), and so on)
// relies on this same fixed name being in scope.
const workerParam = "w"

// Parallel lowers a `parallel` region: compute the team size, spawn
// team_size-1 extra workers plus run the body on every worker
// (including the caller); each worker folds its reduction contribution
// at the end of its body, then joins the team barrier. An `if(false)`
// clause runs the body inline on the calling worker instead: no team is
// spawned and no NewRegionEnv frame is entered, so active levels are
// not incremented.
func Parallel(ctx *rewrite.Context, dir *directive.Directive, stmt ast.Stmt, decl *ast.FuncDecl) ([]ast.Stmt, error) {
	body := bodyStmts(stmt)
	defaultPrelude, err := applyDefaultDataSharing(ctx, dir, body)
	if err != nil {
		return nil, err
	}
	prelude, postlude := liftDataSharing(ctx, dir, body)
	lifted := append(append(append(defaultPrelude, prelude...), body...), postlude...)

	if ifClauseFalse(dir) {
		// Inline execution: no team, no new DataEnv level — run the
		// (still data-sharing-rewritten) body directly on the caller.
		return lifted, nil
	}

	teamSize := numThreadsExpr(dir)
	envVar := ctx.FreshName("env")
	teamVar := ctx.FreshName("team")
	errVar := ctx.FreshName("err")

	out := []ast.Stmt{
		rewrite.AssignDefine(envVar, rewrite.RTCall("NewRegionEnv",
			rewrite.Call(rewrite.Sel(ctx.Worker, "ICV")), teamSize, rewrite.IntLit(0), rewrite.Ident("true"))),
		rewrite.AssignDefine(teamVar, rewrite.RTCall("NewParallelTask", rewrite.Ident(envVar))),
	}
	out = append(out, copyinStmts(ctx, dir, teamSize)...)
	out = append(out,
		rewrite.AssignDefine(errVar, rewrite.Call(
			rewrite.Sel(rewrite.Ident(teamVar), "RunTeam"), teamSize, rewrite.FuncLitWorker(workerParam, lifted))),
		rewrite.IfStmt(rewrite.BinOp(rewrite.Ident(errVar), token.NEQ, rewrite.Ident("nil")),
			rewrite.PanicStmt(rewrite.Ident(errVar))),
	)
	return out, nil
}

// copyinStmts lowers `copyin`, which copies the master's value into
// every worker's threadprivate binding: for each name in
// the copyin clause (a threadprivate accessor function), read the
// calling thread's own current binding once, then seed threads
// 0..teamSize-1 with that value before the team spawns, so no worker
// ever sees a threadprivate accessor's own lazy-init run instead of
// the master's value.
func copyinStmts(ctx *rewrite.Context, dir *directive.Directive, teamSize ast.Expr) []ast.Stmt {
	c := dir.Clause("copyin")
	if c == nil {
		return nil
	}
	var out []ast.Stmt
	for _, name := range nameList(c) {
		masterVar := ctx.FreshName(name + "Master")
		out = append(out, rewrite.AssignDefine(masterVar, rewrite.Call(rewrite.Ident(name), ctx.Worker)))
		iVar := ctx.FreshName("i")
		loopBody := rewrite.ExprStmt(rewrite.RTCall("SeedThreadLocal",
			rewrite.StringLit(name), rewrite.Ident(iVar), rewrite.Ident(masterVar)))
		out = append(out, &ast.ForStmt{
			Init: rewrite.AssignDefine(iVar, rewrite.IntLit(0)),
			Cond: rewrite.BinOp(rewrite.Ident(iVar), token.LSS, teamSize),
			Post: &ast.IncDecStmt{X: rewrite.Ident(iVar), Tok: token.INC},
			Body: rewrite.Block(loopBody),
		})
	}
	return out
}

package processors

import (
	"go/ast"
	"go/token"

	"github.com/ompgo/ompgo/internal/directive"
	"github.com/ompgo/ompgo/internal/rewrite"
)

func init() {
	rewrite.Register("teams", Teams)
}

// Teams lowers a `teams` region: computes the league size from
// num_teams(lower[, upper]), honors the same data-sharing subset as
// `parallel`, and emits a league dispatch call. A league is
// structurally identical to a team — a fixed number of independent
// initial threads each running the governed body once — so this reuses
// ParallelTask.RunTeam exactly as parallel.go does, the same
// fan-out-and-join shape, with the spawned DataEnv's LeagueSize
// stamped instead of relying on TeamSize alone. `teams` is meant to
// nest only `parallel`/`distribute` children; a nested `distribute`
// reads the league size back off its own worker's ICV via LeagueSize
// (processors/distribute.go).
func Teams(ctx *rewrite.Context, dir *directive.Directive, stmt ast.Stmt, decl *ast.FuncDecl) ([]ast.Stmt, error) {
	body := bodyStmts(stmt)
	defaultPrelude, err := applyDefaultDataSharing(ctx, dir, body)
	if err != nil {
		return nil, err
	}
	prelude, postlude := liftDataSharing(ctx, dir, body)
	lifted := append(append(append(defaultPrelude, prelude...), body...), postlude...)

	leagueSize := numTeamsExpr(dir)
	envVar := ctx.FreshName("env")
	teamVar := ctx.FreshName("league")
	errVar := ctx.FreshName("err")

	out := []ast.Stmt{
		rewrite.AssignDefine(envVar, rewrite.RTCall("NewRegionEnv",
			rewrite.Call(rewrite.Sel(ctx.Worker, "ICV")), leagueSize, rewrite.IntLit(0), rewrite.Ident("true"))),
	}
	out = append(out, &ast.AssignStmt{
		Lhs: []ast.Expr{rewrite.Sel(rewrite.Ident(envVar), "LeagueSize")},
		Tok: token.ASSIGN,
		Rhs: []ast.Expr{leagueSize},
	})
	out = append(out,
		rewrite.AssignDefine(teamVar, rewrite.RTCall("NewParallelTask", rewrite.Ident(envVar))),
		rewrite.AssignDefine(errVar, rewrite.Call(
			rewrite.Sel(rewrite.Ident(teamVar), "RunTeam"), leagueSize, rewrite.FuncLitWorker(workerParam, lifted))),
		rewrite.IfStmt(rewrite.BinOp(rewrite.Ident(errVar), token.NEQ, rewrite.Ident("nil")),
			rewrite.PanicStmt(rewrite.Ident(errVar))),
	)
	return out, nil
}

// numTeamsExpr reads the first item of a num_teams(lower[, upper])
// clause, falling back to the process default league size.
func numTeamsExpr(dir *directive.Directive) ast.Expr {
	c := dir.Clause("num_teams")
	if c == nil {
		return rewrite.RTCall("DefaultLeagueSize")
	}
	names := nameList(c)
	if len(names) == 0 {
		return rewrite.RTCall("DefaultLeagueSize")
	}
	return exprText(names[0])
}

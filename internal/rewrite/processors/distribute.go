package processors

import (
	"go/ast"
	"go/token"

	"github.com/ompgo/ompgo/internal/directive"
	"github.com/ompgo/ompgo/internal/rewrite"
)

func init() {
	rewrite.Register("distribute", Distribute)
}

// distScheduleChunk reads dist_schedule(static[, chunk]) — distribute
// only ever uses a static schedule — defaulting the chunk to "let the
// runtime pick" the same way scheduleKindExpr does for `for`.
func distScheduleChunk(dir *directive.Directive) ast.Expr {
	c := dir.Clause("dist_schedule")
	if c == nil {
		return rewrite.IntLit(0)
	}
	names := nameList(c)
	if len(names) < 2 {
		return rewrite.IntLit(0)
	}
	return exprText(names[1])
}

// Distribute is the worksharing half of `teams distribute`: the
// governed range loop is divided once across the enclosing league's
// members (not a team's own worker count — a `distribute` construct
// only ever runs directly inside a `teams` region), using the same
// ForTask/LoopScheduler chunk-claim machinery `for`/`parallel for`
// share, forced to a static schedule.
// Unlike WorkshareFor/ParallelFor this never emits its own barrier
// wait: the enclosing `teams` region's RunTeam already rendezvouses
// every league member once the governed body returns (processors/teams.go),
// and distribute's schema carries no `nowait`/`ordered` clause to honor
// in the first place.
func Distribute(ctx *rewrite.Context, dir *directive.Directive, stmt ast.Stmt, decl *ast.FuncDecl) ([]ast.Stmt, error) {
	fs, ok := stmt.(*ast.ForStmt)
	if !ok {
		return nil, &nonRangeLoopError{}
	}
	lb, ok := extractLoopBounds(fs)
	if !ok {
		return nil, &nonRangeLoopError{}
	}
	if err := forbidBreak(fs.Body); err != nil {
		return nil, err
	}

	body := fs.Body.List
	prelude, postlude := liftDataSharing(ctx, dir, body)

	collapse := collapseExpr(dir)
	chunk := distScheduleChunk(dir)
	leagueSizeExpr := rewrite.Sel(rewrite.Call(rewrite.Sel(ctx.Worker, "ICV")), "LeagueSize")

	schedVar := ctx.FreshName("sched")
	chunkVar := ctx.FreshName("chunk")
	okVar := ctx.FreshName("ok")

	innerFor := &ast.ForStmt{
		Init: rewrite.AssignDefine(lb.Var, rewrite.Call(rewrite.Ident("int"), rewrite.Sel(rewrite.Ident(chunkVar), "Start"))),
		Cond: rewrite.BinOp(rewrite.Ident(lb.Var), lb.CmpOp, rewrite.Call(rewrite.Ident("int"), rewrite.Sel(rewrite.Ident(chunkVar), "Stop"))),
		Post: &ast.AssignStmt{Lhs: []ast.Expr{rewrite.Ident(lb.Var)}, Tok: token.ADD_ASSIGN, Rhs: []ast.Expr{lb.Step}},
		Body: rewrite.Block(body...),
	}
	outerFor := &ast.ForStmt{
		Body: rewrite.Block(
			rewrite.AssignMulti([]string{chunkVar, okVar}, token.DEFINE,
				rewrite.Call(rewrite.Sel(rewrite.Ident(schedVar), "Next"))),
			rewrite.IfStmt(&ast.UnaryExpr{Op: token.NOT, X: rewrite.Ident(okVar)},
				&ast.BranchStmt{Tok: token.BREAK}),
			innerFor,
		),
	}

	claimStmts, ftVar := claimShared(ctx, dir, "distribute", rewrite.RTCall("NewForTask",
		rewrite.Sel(ctx.Worker, "Team"), rewrite.Sel(rewrite.Ident("ompgort"), "ScheduleStatic"), collapse,
		int64Of(lb.Start), int64Of(lb.Stop), int64Of(lb.Step), int64Of(chunk), leagueSizeExpr), "ForTask")

	out := append([]ast.Stmt{}, prelude...)
	out = append(out, claimStmts...)
	out = append(out, rewrite.AssignDefine(schedVar, rewrite.Call(rewrite.Sel(rewrite.Ident(ftVar), "Scheduler"),
		rewrite.Sel(ctx.Worker, "ThreadNum"))))
	out = append(out, outerFor)
	out = append(out, postlude...)
	return out, nil
}

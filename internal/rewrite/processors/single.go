package processors

import (
	"fmt"
	"go/ast"
	"go/token"

	"github.com/ompgo/ompgo/internal/directive"
	"github.com/ompgo/ompgo/internal/rewrite"
)

func init() {
	rewrite.Register("single", Single)
}

// Single lowers to `if claim() { body }`, where claim atomically sets
// a shared flag once per team (the claimed SingleTask is itself
// claimed-once-per-team via the same shared-context mechanism
// `claimShared` gives every worksharing construct). nowait suppresses
// the implicit barrier; a copyprivate clause replaces it with a
// copy-from/copy-to publication every worker, not only the claiming
// one, participates in.
func Single(ctx *rewrite.Context, dir *directive.Directive, stmt ast.Stmt, decl *ast.FuncDecl) ([]ast.Stmt, error) {
	body := bodyStmts(stmt)
	prelude, postlude := liftDataSharing(ctx, dir, body)

	claimStmts, singleVar := claimShared(ctx, dir, "single",
		rewrite.RTCall("NewSingleTask", rewrite.Sel(ctx.Worker, "Team")), "SingleTask")

	ifBody := append(append(prelude, body...), postlude...)
	claimCond := rewrite.Call(rewrite.Sel(rewrite.Ident(singleVar), "Claim"))

	out := append([]ast.Stmt{}, claimStmts...)
	out = append(out, rewrite.IfStmt(claimCond, ifBody...))

	copyStmts := copyPrivateStmts(ctx, dir)
	out = append(out, copyStmts...)

	if !hasNowait(dir) && len(copyStmts) == 0 {
		teamSizeExpr := rewrite.Sel(rewrite.Call(rewrite.Sel(ctx.Worker, "ICV")), "TeamSize")
		barrierWait := rewrite.Sel(rewrite.Sel(rewrite.Sel(ctx.Worker, "Team"), "Barrier"), "Wait")
		out = append(out, rewrite.ExprStmt(rewrite.Call(barrierWait, ctx.Worker, teamSizeExpr)))
	}
	return out, nil
}

// copyPrivateStmts builds `name = ompgort.CopyPrivate(w, tag, name)`
// for every copyprivate-clause variable: every worker of the team
// calls this, so the claiming worker's value is the one every worker
// ends up with, all via one shared-context publication per name.
func copyPrivateStmts(ctx *rewrite.Context, dir *directive.Directive) []ast.Stmt {
	c := dir.Clause("copyprivate")
	if c == nil {
		return nil
	}
	var out []ast.Stmt
	for _, name := range nameList(c) {
		tag := fmt.Sprintf("copyprivate:%s:%d:%d", name, dir.Pos.Line, dir.Pos.Col)
		rhs := rewrite.RTCall("CopyPrivate", ctx.Worker, rewrite.StringLit(tag), rewrite.Ident(name))
		out = append(out, &ast.AssignStmt{Lhs: []ast.Expr{rewrite.Ident(name)}, Tok: token.ASSIGN, Rhs: []ast.Expr{rhs}})
	}
	return out
}

package processors

import (
	"go/ast"
	"go/token"

	"github.com/ompgo/ompgo/internal/directive"
	"github.com/ompgo/ompgo/internal/rewrite"
)

func init() {
	rewrite.Register("sections", Sections)
	rewrite.Register("section", Section)
}

// Sections lowers a `sections` block: every top-level statement
// governed by the construct is one section, claimed at most once
// across the team via a shared monotonic counter (the same
// claim-once-per-team shared-context mechanism `for`'s ForTask uses),
// guarded by `if idx == i`. `nowait` suppresses the implicit barrier.
func Sections(ctx *rewrite.Context, dir *directive.Directive, stmt ast.Stmt, decl *ast.FuncDecl) ([]ast.Stmt, error) {
	children := bodyStmts(stmt)
	prelude, postlude := liftDataSharing(ctx, dir, children)

	negOne := &ast.UnaryExpr{Op: token.SUB, X: rewrite.IntLit(1)}
	claimStmts, counterVar := claimShared(ctx, dir, "sections", rewrite.RTCall("NewAtomicInt", negOne), "AtomicInt")
	idxVar := ctx.FreshName("secIdx")

	out := append([]ast.Stmt{}, prelude...)
	out = append(out, claimStmts...)
	// Each worker keeps claiming the next unclaimed index until the
	// counter runs past the last section.
	claimLoop := []ast.Stmt{rewrite.AssignDefine(idxVar,
		rewrite.Call(rewrite.Sel(rewrite.Ident(counterVar), "Add"), rewrite.IntLit(1))),
		rewrite.IfStmt(rewrite.BinOp(rewrite.Ident(idxVar), token.GEQ, rewrite.IntLit(len(children))),
			&ast.BranchStmt{Tok: token.BREAK})}
	for i, child := range children {
		cond := rewrite.BinOp(rewrite.Ident(idxVar), token.EQL, rewrite.IntLit(i))
		claimLoop = append(claimLoop, rewrite.IfStmt(cond, child))
	}
	out = append(out, &ast.ForStmt{Body: rewrite.Block(claimLoop...)})
	out = append(out, postlude...)

	if !hasNowait(dir) {
		teamSizeExpr := rewrite.Sel(rewrite.Call(rewrite.Sel(ctx.Worker, "ICV")), "TeamSize")
		barrierWait := rewrite.Sel(rewrite.Sel(rewrite.Sel(ctx.Worker, "Team"), "Barrier"), "Wait")
		out = append(out, rewrite.ExprStmt(rewrite.Call(barrierWait, ctx.Worker, teamSizeExpr)))
	}
	return out, nil
}

// Section is a documentation-only marker inside a sections block: the
// enclosing Sections processor already treats every governed top-level
// statement as its own section, so a `section` marker left on an
// individual child (to label it, or to sit alongside the
// recognized-directive list) passes its statement through unchanged.
func Section(ctx *rewrite.Context, dir *directive.Directive, stmt ast.Stmt, decl *ast.FuncDecl) ([]ast.Stmt, error) {
	return bodyStmts(stmt), nil
}

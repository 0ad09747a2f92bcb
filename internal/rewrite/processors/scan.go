package processors

import (
	"go/ast"

	"github.com/ompgo/ompgo/internal/directive"
	"github.com/ompgo/ompgo/internal/rewrite"
)

func init() {
	rewrite.Register("scan", Scan)
}

// Scan lowers the `scan` construct found inside a worksharing loop body:
// the governed fold statements run under a team-shared ScanCell's lock,
// so every worker's contribution lands on the shared scan variables
// atomically (see internal/runtime/scan.go for what this minimal model
// does and does not attempt). The inclusive/exclusive mode — the schema
// requires exactly one of the two clauses — is folded into the claim tag,
// so a team whose workers disagree on the mode at the same construct is
// diagnosed as worker-path divergence instead of silently computing two
// different prefixes.
func Scan(ctx *rewrite.Context, dir *directive.Directive, stmt ast.Stmt, decl *ast.FuncDecl) ([]ast.Stmt, error) {
	mode := "inclusive"
	if dir.Clause("exclusive") != nil {
		mode = "exclusive"
	}

	claimStmts, cellVar := claimShared(ctx, dir, "scan-"+mode, rewrite.RTCall("NewScanCell"), "ScanCell")

	fn := &ast.FuncLit{
		Type: &ast.FuncType{Params: &ast.FieldList{}},
		Body: &ast.BlockStmt{List: bodyStmts(stmt)},
	}
	fold := rewrite.ExprStmt(rewrite.Call(
		rewrite.Sel(rewrite.Ident(cellVar), "Fold"),
		rewrite.Call(rewrite.Sel(ctx.Worker, "LockID")), fn))

	return append(claimStmts, fold), nil
}

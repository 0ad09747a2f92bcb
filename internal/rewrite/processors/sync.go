package processors

import (
	"fmt"
	"go/ast"
	"go/token"

	"github.com/ompgo/ompgo/internal/directive"
	"github.com/ompgo/ompgo/internal/rewrite"
)

func init() {
	rewrite.Register("barrier", Barrier)
	rewrite.Register("critical", Critical)
	rewrite.Register("atomic", Atomic)
	rewrite.Register("master", Master)
	rewrite.Register("ordered", Ordered)
}

// Barrier lowers the explicit barrier directive: every
// worker of the team drains the task queue, then rendezvouses. Like
// taskwait, it governs no block of its own.
func Barrier(ctx *rewrite.Context, dir *directive.Directive, stmt ast.Stmt, decl *ast.FuncDecl) ([]ast.Stmt, error) {
	teamSizeExpr := rewrite.Sel(rewrite.Call(rewrite.Sel(ctx.Worker, "ICV")), "TeamSize")
	call := rewrite.ExprStmt(rewrite.Call(
		rewrite.Sel(rewrite.Sel(rewrite.Sel(ctx.Worker, "Team"), "Barrier"), "Wait"), ctx.Worker, teamSizeExpr))
	return append([]ast.Stmt{call}, bodyStmts(stmt)...), nil
}

// Critical acquires the team mutex around the body, with release
// guaranteed on all exit paths — the same w.Team.Mutex.WithLock wiring
// combineStmt already uses for reduction publication. `name` is
// accepted by the schema (multiple critical sections can share a
// label) but this model has only one mutex per team, so every
// critical region of a team already serializes against every other;
// name carries no further effect.
func Critical(ctx *rewrite.Context, dir *directive.Directive, stmt ast.Stmt, decl *ast.FuncDecl) ([]ast.Stmt, error) {
	return wrapInTeamMutex(ctx, bodyStmts(stmt)), nil
}

// Atomic lowers the atomic-update directive: the governed
// statement must be a single augmented assignment whose right-hand
// side does not reference the target, validated here since the
// runtime has no compare-and-swap generic enough for an arbitrary
// target type. The update then runs under one dedicated process-wide
// mutex distinct from any team's critical-section mutex, matching
// atomic's global (not team-scoped) mutual exclusion. `kind`
// (read/write/update/capture) is accepted by the schema but not
// given a distinct code path; every shape this validation admits is
// already a plain update.
func Atomic(ctx *rewrite.Context, dir *directive.Directive, stmt ast.Stmt, decl *ast.FuncDecl) ([]ast.Stmt, error) {
	body := bodyStmts(stmt)
	if err := validateAtomicBody(dir, body); err != nil {
		return nil, err
	}
	return wrapInNamedMutex(ctx, "__atomic__", body), nil
}

func validateAtomicBody(dir *directive.Directive, body []ast.Stmt) error {
	if len(body) != 1 {
		return fmt.Errorf("atomic: expected exactly one statement, got %d", len(body))
	}
	assign, ok := body[0].(*ast.AssignStmt)
	if !ok || !isAugmentedAssignOp(assign.Tok) || len(assign.Lhs) != 1 || len(assign.Rhs) != 1 {
		return fmt.Errorf("atomic: expected a single augmented assignment (e.g. x += y)")
	}
	target, ok := assign.Lhs[0].(*ast.Ident)
	if !ok {
		return fmt.Errorf("atomic: assignment target must be a simple name")
	}
	references := false
	ast.Inspect(assign.Rhs[0], func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok && id.Name == target.Name {
			references = true
		}
		return true
	})
	if references {
		return fmt.Errorf("atomic: right-hand side of %s may not reference %s", dir.Name(), target.Name)
	}
	return nil
}

func isAugmentedAssignOp(tok token.Token) bool {
	switch tok {
	case token.ADD_ASSIGN, token.SUB_ASSIGN, token.MUL_ASSIGN, token.QUO_ASSIGN, token.REM_ASSIGN,
		token.AND_ASSIGN, token.OR_ASSIGN, token.XOR_ASSIGN, token.SHL_ASSIGN, token.SHR_ASSIGN, token.AND_NOT_ASSIGN:
		return true
	default:
		return false
	}
}

func wrapInTeamMutex(ctx *rewrite.Context, body []ast.Stmt) []ast.Stmt {
	mutex := rewrite.Sel(rewrite.Sel(ctx.Worker, "Team"), "Mutex")
	return []ast.Stmt{withLockStmt(ctx, mutex, body)}
}

func wrapInNamedMutex(ctx *rewrite.Context, name string, body []ast.Stmt) []ast.Stmt {
	mutex := rewrite.RTCall("NamedMutex", rewrite.StringLit(name))
	return []ast.Stmt{withLockStmt(ctx, mutex, body)}
}

// withLockStmt builds `<mutex>.WithLock(w.LockID(), func() { <body> })`;
// the callback takes no params since the body runs inline, closing
// over the enclosing worker expression directly.
func withLockStmt(ctx *rewrite.Context, mutex ast.Expr, body []ast.Stmt) ast.Stmt {
	lockID := rewrite.Call(rewrite.Sel(ctx.Worker, "LockID"))
	fn := &ast.FuncLit{
		Type: &ast.FuncType{Params: &ast.FieldList{}},
		Body: &ast.BlockStmt{List: body},
	}
	return rewrite.ExprStmt(rewrite.Call(rewrite.Sel(mutex, "WithLock"), lockID, fn))
}

// Master lowers `master`: the governed body runs
// only on the team's thread 0, with no implicit barrier.
func Master(ctx *rewrite.Context, dir *directive.Directive, stmt ast.Stmt, decl *ast.FuncDecl) ([]ast.Stmt, error) {
	cond := rewrite.BinOp(rewrite.Sel(ctx.Worker, "ThreadNum"), token.EQL, rewrite.IntLit(0))
	return []ast.Stmt{rewrite.IfStmt(cond, bodyStmts(stmt)...)}, nil
}

// Ordered implements the standalone `ordered` construct. Inside a
// `for`/`parallel for` body governed by an `ordered` clause, the
// enclosing loop's OrderedGate already wraps the entire chunk body in
// Enter/Exit (see processors/for.go), so a nested standalone `ordered`
// marker found within it is accepted — the schema validates its
// `threads`/`simd` clauses — but passes its body through unchanged
// rather than claiming a second, unrelated gate.
func Ordered(ctx *rewrite.Context, dir *directive.Directive, stmt ast.Stmt, decl *ast.FuncDecl) ([]ast.Stmt, error) {
	return bodyStmts(stmt), nil
}

package processors

import (
	"go/ast"

	"github.com/ompgo/ompgo/internal/directive"
	"github.com/ompgo/ompgo/internal/rewrite"
)

func init() {
	rewrite.Register("task", Task)
	rewrite.Register("taskwait", Taskwait)
}

// Task lowers the `task` directive: the governed body is lifted into a
// FuncLit closing over a private/firstprivate copy snapshotted at
// creation time (not at whatever later point a worker claims and runs
// it), wrapped into a CustomTask and pushed onto the team's queue.
// `untied` is accepted by the schema but has no separate runtime
// representation here — every task in this model may already be
// claimed and run by any team worker, which is `untied`'s own behavior
// (the same inert acknowledgment given to `proc_bind`/`allocate`). An
// `if(false)` clause runs the body immediately instead of deferring it.
func Task(ctx *rewrite.Context, dir *directive.Directive, stmt ast.Stmt, decl *ast.FuncDecl) ([]ast.Stmt, error) {
	body := bodyStmts(stmt)
	defaultPrelude, err := applyDefaultDataSharing(ctx, dir, body)
	if err != nil {
		return nil, err
	}
	prelude, postlude := liftDataSharing(ctx, dir, body)
	fnBody := append(append([]ast.Stmt{}, body...), postlude...)

	if ifClauseFalse(dir) {
		return append(append(append([]ast.Stmt{}, defaultPrelude...), prelude...), fnBody...), nil
	}

	idVar := ctx.FreshName("taskID")
	taskVar := ctx.FreshName("task")

	out := append([]ast.Stmt{}, defaultPrelude...)
	out = append(out, prelude...)
	out = append(out, rewrite.AssignDefine(idVar, rewrite.RTCall("NewTaskID")))
	out = append(out, rewrite.AssignDefine(taskVar, rewrite.RTCall("NewCustomTask",
		rewrite.Ident(idVar), rewrite.Sel(ctx.Worker, "Team"), rewrite.FuncLitWorker(workerParam, fnBody))))
	out = append(out, rewrite.ExprStmt(rewrite.Call(
		rewrite.Sel(rewrite.Sel(rewrite.Sel(ctx.Worker, "Team"), "Queue"), "Push"), rewrite.Ident(taskVar))))
	return out, nil
}

// Taskwait lowers `taskwait`: drain and await every task queued up to
// this point, re-raising any captured task panic on the calling
// thread. taskwait has no governed block of its own; any statement the
// marker still precedes (a bare-directive placeholder) passes through
// unchanged after the wait.
func Taskwait(ctx *rewrite.Context, dir *directive.Directive, stmt ast.Stmt, decl *ast.FuncDecl) ([]ast.Stmt, error) {
	call := rewrite.ExprStmt(rewrite.Call(
		rewrite.Sel(rewrite.Sel(rewrite.Sel(ctx.Worker, "Team"), "Queue"), "TaskWait"), ctx.Worker))
	return append([]ast.Stmt{call}, bodyStmts(stmt)...), nil
}

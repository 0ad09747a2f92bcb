// Package processors implements one file per OpenMP directive kind,
// each a rewrite.Processor registered at init() time with
// rewrite.Register. Each processor shares one lifting pattern: the
// governed body moves into a fresh function literal whose calls land in
// the ompgort runtime.
package processors

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"

	"github.com/ompgo/ompgo/internal/directive"
	"github.com/ompgo/ompgo/internal/rewrite"
)

// bodyStmts returns the statements governed by a directive: a
// *ast.BlockStmt's own List, or the single statement itself wrapped in
// a one-element slice for a bare governed statement (the
// "directive-as-context"/"directive-as-statement" duality).
func bodyStmts(stmt ast.Stmt) []ast.Stmt {
	if stmt == nil {
		return nil
	}
	if b, ok := stmt.(*ast.BlockStmt); ok {
		return b.List
	}
	return []ast.Stmt{stmt}
}

// nameList collects every positional argument across a clause's
// possibly ';'-chained Args groups (private/firstprivate/shared/
// reduction's variable list).
func nameList(c *directive.Clause) []string {
	if c == nil || c.Args == nil {
		return nil
	}
	var out []string
	for a := c.Args; a != nil; a = a.Next {
		for _, item := range a.Items {
			out = append(out, item.Text)
		}
	}
	return out
}

// exprText parses a clause argument as a Go expression, falling back
// to a bare identifier of the same text on failure (the shape
// validation in internal/directive/args.go does not check that a
// general expression parses as Go).
func exprText(text string) ast.Expr {
	e, err := parser.ParseExpr(text)
	if err != nil {
		return rewrite.Ident(text)
	}
	return e
}

// renameInStmts replaces every *ast.Ident named from with to across
// stmts, in place — the AST-level form of Table.Rename's monotonic
// renaming. It does not account for a nested redeclaration that
// intentionally shadows `from` inside the region (e.g. a fresh `for`
// loop variable reusing the name); resolving that needs go/types
// scope information this AST-only pass doesn't load.
func renameInStmts(stmts []ast.Stmt, from, to string) {
	for _, s := range stmts {
		ast.Inspect(s, func(n ast.Node) bool {
			if id, ok := n.(*ast.Ident); ok && id.Name == from {
				id.Name = to
			}
			return true
		})
	}
}

// privatized is one private/firstprivate/reduction variable being
// rebound inside a lifted region body.
type privatized struct {
	Orig, Local string
	Kind        string // "private", "firstprivate", "reduction"
	Op          string // reduction operator symbol, kind == "reduction" only
}

// collectPrivatized reads the private/firstprivate/reduction clauses
// of dir and assigns each named variable a fresh local name.
func collectPrivatized(ctx *rewrite.Context, dir *directive.Directive) []privatized {
	var out []privatized
	add := func(clauseName, kind string) {
		c := dir.Clause(clauseName)
		if c == nil {
			return
		}
		for _, name := range nameList(c) {
			out = append(out, privatized{Orig: name, Local: ctx.FreshName(name), Kind: kind})
		}
	}
	add("private", "private")
	add("firstprivate", "firstprivate")
	if c := dir.Clause("reduction"); c != nil {
		op := ""
		if c.Args != nil && len(c.Args.Modifiers) > 0 {
			op = c.Args.Modifiers[0].Name
		}
		for _, name := range nameList(c) {
			out = append(out, privatized{Orig: name, Local: ctx.FreshName(name), Kind: "reduction", Op: op})
		}
	}
	return out
}

// liftDataSharing rewrites body in place for every private/
// firstprivate/reduction variable dir names, and returns the
// prelude statements (local initialization) to prepend and the
// postlude statements (reduction publication) to append.
// A private variable is initialized from a copy of the outer value,
// exactly like firstprivate, rather than from a zero value of its type.
// Shared/default(shared) variables need no generated code at all: a Go
// closure already captures them by reference, which is exactly the
// "shared" contract.
func liftDataSharing(ctx *rewrite.Context, dir *directive.Directive, body []ast.Stmt) (prelude, postlude []ast.Stmt) {
	for _, p := range collectPrivatized(ctx, dir) {
		switch p.Kind {
		case "firstprivate", "private":
			prelude = append(prelude, rewrite.AssignDefine(p.Local, rewrite.Ident(p.Orig)))
		case "reduction":
			var initExpr ast.Expr = rewrite.IntLit(0)
			if tpl, ok := ctx.Reductions.Lookup(p.Op, ""); ok {
				initExpr = tpl.Init()
			}
			// Declared as a copy of the original first so the accumulator
			// takes the target's type, then reset to the operator's
			// neutral value — an untyped constant adapts to int and
			// float targets alike, which a bare `:= 0` would not.
			prelude = append(prelude,
				rewrite.AssignDefine(p.Local, rewrite.Ident(p.Orig)),
				rewrite.AssignMulti([]string{p.Local}, token.ASSIGN, initExpr))
		}
		renameInStmts(body, p.Orig, p.Local)
		if p.Kind == "reduction" {
			tpl, ok := ctx.Reductions.Lookup(p.Op, "")
			if !ok {
				continue
			}
			postlude = append(postlude, combineStmt(ctx, p, tpl))
		}
	}
	return prelude, postlude
}

// combineStmt builds `w.Team.Mutex.WithLock(w.LockID(), func() { orig
// = orig <op> local })`, run once a worker finishes its share of the
// region so the reduction template's combiner folds its private
// accumulator into the shared result under the team mutex.
func combineStmt(ctx *rewrite.Context, p privatized, tpl *rewrite.ReductionTemplate) ast.Stmt {
	mutex := rewrite.Sel(rewrite.Sel(ctx.Worker, "Team"), "Mutex")
	lockID := rewrite.Call(rewrite.Sel(ctx.Worker, "LockID"))
	combined := tpl.Combine(rewrite.Ident(p.Orig), rewrite.Ident(p.Local))
	body := rewrite.Block(rewrite.AssignMulti([]string{p.Orig}, token.ASSIGN, combined))
	fn := &ast.FuncLit{Type: &ast.FuncType{Params: &ast.FieldList{}}, Body: body}
	return rewrite.ExprStmt(rewrite.Call(rewrite.Sel(mutex, "WithLock"), lockID, fn))
}

// claimShared builds the three statements a worksharing construct needs
// to agree on a single shared instance across every worker of the
// current team: `<raw>, <err> := w.ClaimShared(tag, valueExpr)`, a panic
// on a non-nil error (worker-path divergence), and `<out> :=
// <raw>.(*ompgort.<typeName>)`. tag is derived from the directive's
// source position so every worker's copy of the lifted body constructs
// an identical tag string for the same construct occurrence. Returns the
// statements plus the name bound to the claimed, type-asserted value.
func claimShared(ctx *rewrite.Context, dir *directive.Directive, kind string, valueExpr ast.Expr, typeName string) ([]ast.Stmt, string) {
	tag := fmt.Sprintf("%s:%d:%d", kind, dir.Pos.Line, dir.Pos.Col)
	rawVar := ctx.FreshName("shared")
	errVar := ctx.FreshName("err")
	outVar := ctx.FreshName(kind)
	stmts := []ast.Stmt{
		rewrite.AssignMulti([]string{rawVar, errVar}, token.DEFINE,
			rewrite.Call(rewrite.Sel(ctx.Worker, "ClaimShared"), rewrite.StringLit(tag), valueExpr)),
		rewrite.IfStmt(rewrite.BinOp(rewrite.Ident(errVar), token.NEQ, rewrite.Ident("nil")),
			rewrite.PanicStmt(rewrite.Ident(errVar))),
		rewrite.AssignDefine(outVar, rewrite.TypeAssert(rewrite.Ident(rawVar), rewrite.Star(rewrite.RTType(typeName)))),
	}
	return stmts, outVar
}

// numThreadsExpr reads the first item of a num_threads clause — the
// team size is the first entry of the effective nthreads list —
// falling back to the process default team size.
func numThreadsExpr(dir *directive.Directive) ast.Expr {
	c := dir.Clause("num_threads")
	if c == nil {
		return rewrite.RTCall("DefaultTeamSize")
	}
	names := nameList(c)
	if len(names) == 0 {
		return rewrite.RTCall("DefaultTeamSize")
	}
	return exprText(names[0])
}

// ifClauseFalse reports whether dir carries a literal-false `if`
// clause, which runs the region inline on the current thread.
func ifClauseFalse(dir *directive.Directive) bool {
	c := dir.Clause("if")
	if c == nil {
		return false
	}
	names := nameList(c)
	return len(names) == 1 && names[0] == "false"
}

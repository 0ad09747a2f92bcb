package processors

import (
	"go/ast"
	"go/token"

	"github.com/ompgo/ompgo/internal/directive"
	"github.com/ompgo/ompgo/internal/rewrite"
)

func init() {
	rewrite.Register("for", WorkshareFor)
	rewrite.Register("parallel for", ParallelFor)
}

// loopBounds is one range-style for loop's start/stop/step, extracted
// from its Init/Cond/Post clauses; a work-sharing directive's governed
// loop must have this arity-1..3 range form.
type loopBounds struct {
	Var              string
	Start, Stop, Step ast.Expr
	CmpOp            token.Token // the Cond's comparison operator, preserved for the inner replay loop
}

// extractLoopBounds reads the governed loop's iteration space. Only
// the outermost loop's space feeds the scheduler; collapse folding
// beyond one dimension is out of scope for this pass.
func extractLoopBounds(fs *ast.ForStmt) (*loopBounds, bool) {
	asn, ok := fs.Init.(*ast.AssignStmt)
	if !ok || len(asn.Lhs) != 1 || asn.Tok != token.DEFINE {
		return nil, false
	}
	varIdent, ok := asn.Lhs[0].(*ast.Ident)
	if !ok {
		return nil, false
	}
	cond, ok := fs.Cond.(*ast.BinaryExpr)
	if !ok {
		return nil, false
	}
	var step ast.Expr
	switch post := fs.Post.(type) {
	case *ast.IncDecStmt:
		if post.Tok == token.INC {
			step = rewrite.IntLit(1)
		} else {
			step = rewrite.IntLit(-1)
		}
	case *ast.AssignStmt:
		if len(post.Rhs) != 1 {
			return nil, false
		}
		step = post.Rhs[0]
		if post.Tok == token.SUB_ASSIGN {
			step = &ast.UnaryExpr{Op: token.SUB, X: step}
		}
	default:
		return nil, false
	}
	return &loopBounds{
		Var: varIdent.Name, Start: asn.Rhs[0], Stop: cond.Y, Step: step, CmpOp: cond.Op,
	}, true
}

// scheduleKindExpr reads the schedule clause's kind and optional
// chunk, defaulting to static with a runtime-resolved chunk.
func scheduleKindExpr(dir *directive.Directive) (kind ast.Expr, chunk ast.Expr) {
	c := dir.Clause("schedule")
	if c == nil {
		return rewrite.Sel(rewrite.Ident("ompgort"), "ScheduleStatic"), rewrite.IntLit(0)
	}
	names := nameList(c)
	kindName := "static"
	if len(names) > 0 {
		kindName = names[0]
	}
	switch kindName {
	case "dynamic":
		kind = rewrite.Sel(rewrite.Ident("ompgort"), "ScheduleDynamic")
	case "guided":
		kind = rewrite.Sel(rewrite.Ident("ompgort"), "ScheduleGuided")
	case "auto":
		kind = rewrite.Sel(rewrite.Ident("ompgort"), "ScheduleAuto")
	case "runtime":
		kind = rewrite.Sel(rewrite.Ident("ompgort"), "ScheduleRuntime")
	default:
		kind = rewrite.Sel(rewrite.Ident("ompgort"), "ScheduleStatic")
	}
	chunk = rewrite.IntLit(0)
	if len(names) > 1 {
		chunk = exprText(names[1])
	}
	return kind, chunk
}

func collapseExpr(dir *directive.Directive) ast.Expr {
	c := dir.Clause("collapse")
	if c == nil {
		return rewrite.IntLit(1)
	}
	names := nameList(c)
	if len(names) == 0 {
		return rewrite.IntLit(1)
	}
	return exprText(names[0])
}

func hasNowait(dir *directive.Directive) bool {
	return dir.Clause("nowait") != nil
}

func hasOrdered(dir *directive.Directive) bool {
	return dir.Clause("ordered") != nil
}

// buildForChunking lowers fs into the ForTask/LoopScheduler chunk-claim
// loop: a chunk-advancing outer loop per worker,
// each chunk replayed through an inner loop binding fs's loop variable,
// optionally gated by an ordered sequence number. ctx.Worker names the
// worker executing this work-sharing construct; teamSizeExpr is the
// team size the chunked iteration space is divided across.
func buildForChunking(ctx *rewrite.Context, dir *directive.Directive, fs *ast.ForStmt, teamSizeExpr ast.Expr) ([]ast.Stmt, error) {
	lb, ok := extractLoopBounds(fs)
	if !ok {
		return nil, &nonRangeLoopError{}
	}
	if err := forbidBreak(fs.Body); err != nil {
		return nil, err
	}
	body := fs.Body.List
	// parallel for reuses the parallel directive's own default(...)
	// resolution exactly, so the two cannot drift apart.
	defaultPrelude, err := applyDefaultDataSharing(ctx, dir, body)
	if err != nil {
		return nil, err
	}
	prelude, postlude := liftDataSharing(ctx, dir, body)
	prelude = append(defaultPrelude, prelude...)

	// lastprivate renames like private, then publishes the renamed local
	// back to the outer variable on the iteration that is sequentially
	// last in the whole loop, whichever worker happens to run it.
	var lastPub []ast.Stmt
	if c := dir.Clause("lastprivate"); c != nil {
		for _, name := range nameList(c) {
			local := ctx.FreshName(name)
			prelude = append(prelude, rewrite.AssignDefine(local, rewrite.Ident(name)))
			renameInStmts(body, name, local)
			lastPub = append(lastPub, &ast.AssignStmt{
				Lhs: []ast.Expr{rewrite.Ident(name)}, Tok: token.ASSIGN,
				Rhs: []ast.Expr{rewrite.Ident(local)},
			})
		}
	}

	kind, chunk := scheduleKindExpr(dir)
	collapse := collapseExpr(dir)

	schedVar := ctx.FreshName("sched")
	chunkVar := ctx.FreshName("chunk")
	okVar := ctx.FreshName("ok")

	// ordered's gate is claimed once per team via the shared-context list,
	// same as the ForTask itself below, so every worker serializes
	// against the same OrderedGate instance: ordered imposes a total
	// order equal to iteration number.
	var orderedClaim []ast.Stmt
	var gateVar string
	if hasOrdered(dir) {
		orderedClaim, gateVar = claimShared(ctx, dir, "ordered", rewrite.RTCall("NewOrderedGate"), "OrderedGate")
	}

	var innerBody []ast.Stmt
	if hasOrdered(dir) {
		seqVar := ctx.FreshName("seq")
		offset := &ast.ParenExpr{X: rewrite.BinOp(rewrite.Ident(lb.Var), token.SUB, lb.Start)}
		seqExpr := rewrite.Call(rewrite.Ident("int64"), rewrite.BinOp(offset, token.QUO, &ast.ParenExpr{X: lb.Step}))
		innerBody = append(innerBody, rewrite.AssignDefine(seqVar, seqExpr))
		innerBody = append(innerBody, rewrite.ExprStmt(rewrite.Call(rewrite.Sel(rewrite.Ident(gateVar), "Enter"), rewrite.Ident(seqVar))))
		innerBody = append(innerBody, body...)
		innerBody = append(innerBody, rewrite.ExprStmt(rewrite.Call(rewrite.Sel(rewrite.Ident(gateVar), "Exit"), rewrite.Ident(seqVar))))
	} else {
		innerBody = body
	}
	if len(lastPub) > 0 {
		lastIter := rewrite.UnaryNot(rewrite.BinOp(
			rewrite.BinOp(rewrite.Ident(lb.Var), token.ADD, lb.Step), lb.CmpOp, lb.Stop))
		innerBody = append(innerBody, rewrite.IfStmt(lastIter, lastPub...))
	}

	// The chunk fields are int64; the replayed loop variable stays an
	// int like the user wrote it, so body expressions (indexing,
	// arithmetic against other ints) keep their original types.
	innerFor := &ast.ForStmt{
		Init: rewrite.AssignDefine(lb.Var, rewrite.Call(rewrite.Ident("int"), rewrite.Sel(rewrite.Ident(chunkVar), "Start"))),
		Cond: rewrite.BinOp(rewrite.Ident(lb.Var), lb.CmpOp, rewrite.Call(rewrite.Ident("int"), rewrite.Sel(rewrite.Ident(chunkVar), "Stop"))),
		Post: &ast.AssignStmt{Lhs: []ast.Expr{rewrite.Ident(lb.Var)}, Tok: token.ADD_ASSIGN, Rhs: []ast.Expr{lb.Step}},
		Body: rewrite.Block(innerBody...),
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

	// The ForTask (and, for dynamic/guided, its shared monotonic counter)
	// must be one single instance observed by every worker of the team,
	// not independently constructed per worker -- otherwise each worker
	// would seed its own counter and the chunk assignment would no
	// longer be exclusive; the shared-context list exists exactly to
	// publish this kind of per-construct shared state once.
	// Bounds arguments are converted to int64 explicitly: the user's
	// start/stop/step expressions are typically plain ints (len(s), a
	// loop limit variable) and would not convert implicitly.
	claimStmts, ftVar := claimShared(ctx, dir, "for", rewrite.RTCall("NewForTask",
		rewrite.Sel(ctx.Worker, "Team"), kind, collapse,
		int64Of(lb.Start), int64Of(lb.Stop), int64Of(lb.Step), int64Of(chunk), teamSizeExpr), "ForTask")

	out := append([]ast.Stmt{}, prelude...)
	out = append(out, orderedClaim...)
	out = append(out, claimStmts...)
	out = append(out,
		rewrite.AssignDefine(schedVar, rewrite.Call(rewrite.Sel(rewrite.Ident(ftVar), "Scheduler"),
			rewrite.Sel(ctx.Worker, "ThreadNum"))),
	)
	out = append(out, outerFor)
	out = append(out, postlude...)

	if !hasNowait(dir) {
		barrierWait := rewrite.Sel(rewrite.Sel(rewrite.Sel(ctx.Worker, "Team"), "Barrier"), "Wait")
		out = append(out, rewrite.ExprStmt(rewrite.Call(barrierWait, ctx.Worker, teamSizeExpr)))
	}
	return out, nil
}

// int64Of wraps e in an int64 conversion. A redundant conversion of an
// untyped literal is harmless and keeping it unconditional means every
// NewForTask call site type-checks regardless of what the user wrote.
func int64Of(e ast.Expr) ast.Expr {
	return rewrite.Call(rewrite.Ident("int64"), e)
}

// nonRangeLoopError is the structural diagnostic for a
// for/parallel-for body that is not a single range-style loop.
type nonRangeLoopError struct{}

func (e *nonRangeLoopError) Error() string {
	return "for/parallel for: governed statement must be a single range-style for loop (start; cond; step)"
}

// breakInParallelForError: break inside a work-sharing loop is
// forbidden, diagnosed statically.
type breakInParallelForError struct{}

func (e *breakInParallelForError) Error() string {
	return "for/parallel for: break is not permitted inside a work-sharing loop body"
}

// forbidBreak walks body for a *ast.BranchStmt{Tok: BREAK}, labeled or
// not, that would escape the work-sharing loop itself, not recursing
// into a nested loop/switch/select whose own break it would target
// instead (a break inside such a nested statement is not examined, even
// when labeled).
func forbidBreak(body ast.Node) error {
	var found error
	ast.Inspect(body, func(n ast.Node) bool {
		if found != nil {
			return false
		}
		switch n.(type) {
		case *ast.ForStmt, *ast.RangeStmt, *ast.SwitchStmt, *ast.TypeSwitchStmt, *ast.SelectStmt:
			return false
		}
		if bs, ok := n.(*ast.BranchStmt); ok && bs.Tok == token.BREAK {
			found = &breakInParallelForError{}
			return false
		}
		return true
	})
	return found
}

// WorkshareFor implements a standalone `for` inside an already-running
// team: chunk the loop across the enclosing team's size and join the
// team barrier unless `nowait`.
func WorkshareFor(ctx *rewrite.Context, dir *directive.Directive, stmt ast.Stmt, decl *ast.FuncDecl) ([]ast.Stmt, error) {
	fs, ok := stmt.(*ast.ForStmt)
	if !ok {
		return nil, &nonRangeLoopError{}
	}
	teamSizeExpr := rewrite.Sel(rewrite.Call(rewrite.Sel(ctx.Worker, "ICV")), "TeamSize")
	return buildForChunking(ctx, dir, fs, teamSizeExpr)
}

// ParallelFor implements the composed `parallel for` directive: spawn a
// team sized per num_threads, and inside it run the identical chunking
// logic WorkshareFor uses, against the new team's own size.
func ParallelFor(ctx *rewrite.Context, dir *directive.Directive, stmt ast.Stmt, decl *ast.FuncDecl) ([]ast.Stmt, error) {
	fs, ok := stmt.(*ast.ForStmt)
	if !ok {
		return nil, &nonRangeLoopError{}
	}

	teamSize := numThreadsExpr(dir)
	envVar := ctx.FreshName("env")
	teamVar := ctx.FreshName("team")
	errVar := ctx.FreshName("err")

	inner := &rewrite.Context{
		Fset: ctx.Fset, Filename: ctx.Filename, Alias: ctx.Alias, Scope: ctx.Scope,
		Worker: rewrite.Ident(workerParam), Reductions: ctx.Reductions,
	}
	chunking, err := buildForChunking(inner, dir, fs, teamSize)
	if err != nil {
		return nil, err
	}

	if ifClauseFalse(dir) {
		return chunking, nil
	}

	out := []ast.Stmt{
		rewrite.AssignDefine(envVar, rewrite.RTCall("NewRegionEnv",
			rewrite.Call(rewrite.Sel(ctx.Worker, "ICV")), teamSize, rewrite.IntLit(0), rewrite.Ident("true"))),
		rewrite.AssignDefine(teamVar, rewrite.RTCall("NewParallelTask", rewrite.Ident(envVar))),
		rewrite.AssignDefine(errVar, rewrite.Call(
			rewrite.Sel(rewrite.Ident(teamVar), "RunTeam"), teamSize, rewrite.FuncLitWorker(workerParam, chunking))),
		rewrite.IfStmt(rewrite.BinOp(rewrite.Ident(errVar), token.NEQ, rewrite.Ident("nil")),
			rewrite.PanicStmt(rewrite.Ident(errVar))),
	}
	return out, nil
}

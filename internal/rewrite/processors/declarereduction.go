package processors

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/ompgo/ompgo/internal/directive"
	"github.com/ompgo/ompgo/internal/rewrite"
)

func init() {
	rewrite.Register("declare reduction", DeclareReduction)
}

// ompOut and ompIn are the conventional names a combiner expression uses
// for the shared accumulator and a worker's private contribution; ompPriv
// names the initializer's target. These follow the declare-reduction
// convention of the source language the directive grammar comes from.
const (
	ompOut  = "omp_out"
	ompIn   = "omp_in"
	ompPriv = "omp_priv"
)

// DeclareReduction registers a user-declared reduction into the pass's
// reduction table. The marker
// generates no code of its own: a statement it happens to precede passes
// through unchanged, and a declaration it decorates is left as-is — its
// whole effect is that later `reduction(<identifier>: v)` clauses in the
// same run resolve to the declared (init, combine) pair.
//
//	//ompgo: declare reduction identifier(maxi) combiner(omp_out = max(omp_out, omp_in)) initializer(omp_priv = 0)
func DeclareReduction(ctx *rewrite.Context, dir *directive.Directive, stmt ast.Stmt, decl *ast.FuncDecl) ([]ast.Stmt, error) {
	ids := nameList(dir.Clause("identifier"))
	if len(ids) != 1 {
		return nil, fmt.Errorf("declare reduction: identifier clause must name exactly one operator")
	}
	op := ids[0]

	combinerItems := nameList(dir.Clause("combiner"))
	if len(combinerItems) != 1 {
		return nil, fmt.Errorf("declare reduction: combiner clause must hold exactly one statement")
	}
	combineText := combinerItems[0]
	if _, err := combinerExpr(combineText, rewrite.Ident(ompOut), rewrite.Ident(ompIn)); err != nil {
		return nil, fmt.Errorf("declare reduction %q: %w", op, err)
	}

	initText := ""
	if c := dir.Clause("initializer"); c != nil {
		items := nameList(c)
		if len(items) != 1 {
			return nil, fmt.Errorf("declare reduction %q: initializer clause must hold exactly one statement", op)
		}
		initText = items[0]
		if _, err := initializerExpr(initText); err != nil {
			return nil, fmt.Errorf("declare reduction %q: %w", op, err)
		}
	}

	// The closures re-parse their stored text on every call so each
	// reduction site gets fresh AST nodes instead of aliasing one tree
	// across the whole file.
	ctx.Reductions.Register(op, "", &rewrite.ReductionTemplate{
		Init: func() ast.Expr {
			if initText == "" {
				return rewrite.IntLit(0)
			}
			e, _ := initializerExpr(initText)
			return e
		},
		Combine: func(acc, contribution ast.Expr) ast.Expr {
			e, _ := combinerExpr(combineText, acc, contribution)
			return e
		},
	})

	return bodyStmts(stmt), nil
}

// combinerExpr parses text as the combiner statement `omp_out = <expr>`
// (or an augmented form such as `omp_out += omp_in`) and returns the
// folded-value expression with omp_out replaced by acc and omp_in by
// contribution.
func combinerExpr(text string, acc, contribution ast.Expr) (ast.Expr, error) {
	assign, err := parseAssignText(text)
	if err != nil {
		return nil, err
	}
	target, ok := assign.Lhs[0].(*ast.Ident)
	if !ok || target.Name != ompOut {
		return nil, fmt.Errorf("combiner must assign to %s", ompOut)
	}
	rhs := assign.Rhs[0]
	if assign.Tok != token.ASSIGN {
		binOp, ok := augmentedBinOp(assign.Tok)
		if !ok {
			return nil, fmt.Errorf("combiner must be an assignment to %s", ompOut)
		}
		rhs = rewrite.BinOp(rewrite.Ident(ompOut), binOp, rhs)
	}
	return substituteIdents(rhs, map[string]ast.Expr{ompOut: acc, ompIn: contribution}), nil
}

// initializerExpr parses text as `omp_priv = <expr>` and returns the
// initializer expression.
func initializerExpr(text string) (ast.Expr, error) {
	assign, err := parseAssignText(text)
	if err != nil {
		return nil, err
	}
	target, ok := assign.Lhs[0].(*ast.Ident)
	if !ok || target.Name != ompPriv || assign.Tok != token.ASSIGN {
		return nil, fmt.Errorf("initializer must assign to %s", ompPriv)
	}
	return assign.Rhs[0], nil
}

// parseAssignText parses a clause-carried statement string into a
// single-target assignment by wrapping it in a throwaway function body.
func parseAssignText(text string) (*ast.AssignStmt, error) {
	src := "package p\nfunc _() {\n" + text + "\n}"
	f, err := parser.ParseFile(token.NewFileSet(), "", src, 0)
	if err != nil {
		return nil, fmt.Errorf("%q does not parse as a statement", text)
	}
	body := f.Decls[0].(*ast.FuncDecl).Body.List
	if len(body) != 1 {
		return nil, fmt.Errorf("%q must be a single statement", text)
	}
	assign, ok := body[0].(*ast.AssignStmt)
	if !ok || len(assign.Lhs) != 1 || len(assign.Rhs) != 1 {
		return nil, fmt.Errorf("%q must be a single-target assignment", text)
	}
	return assign, nil
}

func augmentedBinOp(tok token.Token) (token.Token, bool) {
	switch tok {
	case token.ADD_ASSIGN:
		return token.ADD, true
	case token.SUB_ASSIGN:
		return token.SUB, true
	case token.MUL_ASSIGN:
		return token.MUL, true
	case token.AND_ASSIGN:
		return token.AND, true
	case token.OR_ASSIGN:
		return token.OR, true
	case token.XOR_ASSIGN:
		return token.XOR, true
	}
	return token.ILLEGAL, false
}

// substituteIdents replaces every identifier named in repl across e,
// returning the (possibly new) root expression.
func substituteIdents(e ast.Expr, repl map[string]ast.Expr) ast.Expr {
	if id, ok := e.(*ast.Ident); ok {
		if r, ok := repl[id.Name]; ok {
			return r
		}
		return e
	}
	out := astutil.Apply(e, func(c *astutil.Cursor) bool {
		if id, ok := c.Node().(*ast.Ident); ok {
			if r, ok := repl[id.Name]; ok {
				c.Replace(r)
			}
		}
		return true
	}, nil)
	return out.(ast.Expr)
}

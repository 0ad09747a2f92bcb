package rewrite

import (
	"go/ast"
	"go/token"
)

// The helpers below are small, named AST-construction functions used
// in place of inline node literals, so every processor builds its
// generated code the same way.

func Ident(name string) *ast.Ident { return ast.NewIdent(name) }

func StringLit(s string) *ast.BasicLit {
	return &ast.BasicLit{Kind: token.STRING, Value: "\"" + s + "\""}
}

func IntLit(n int) *ast.BasicLit {
	return &ast.BasicLit{Kind: token.INT, Value: itoa(n)}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func Sel(x ast.Expr, name string) *ast.SelectorExpr {
	return &ast.SelectorExpr{X: x, Sel: Ident(name)}
}

// RTCall builds ompgort.<fn>(args...).
func RTCall(fn string, args ...ast.Expr) *ast.CallExpr {
	return &ast.CallExpr{Fun: Sel(Ident("ompgort"), fn), Args: args}
}

func Call(fn ast.Expr, args ...ast.Expr) *ast.CallExpr {
	return &ast.CallExpr{Fun: fn, Args: args}
}

func ExprStmt(x ast.Expr) *ast.ExprStmt { return &ast.ExprStmt{X: x} }

func AssignDefine(lhs string, rhs ast.Expr) *ast.AssignStmt {
	return &ast.AssignStmt{Lhs: []ast.Expr{Ident(lhs)}, Tok: token.DEFINE, Rhs: []ast.Expr{rhs}}
}

func AssignMulti(lhs []string, tok token.Token, rhs ...ast.Expr) *ast.AssignStmt {
	l := make([]ast.Expr, len(lhs))
	for i, n := range lhs {
		l[i] = Ident(n)
	}
	return &ast.AssignStmt{Lhs: l, Tok: tok, Rhs: rhs}
}

func Block(stmts ...ast.Stmt) *ast.BlockStmt { return &ast.BlockStmt{List: stmts} }

// FuncLitWorker builds `func(<paramName> *ompgort.Worker) { <body> }` —
// the only parameter shape a lifted region body needs.
func FuncLitWorker(paramName string, body []ast.Stmt) *ast.FuncLit {
	return &ast.FuncLit{
		Type: &ast.FuncType{
			Params: &ast.FieldList{List: []*ast.Field{
				{Names: []*ast.Ident{Ident(paramName)}, Type: &ast.StarExpr{X: Sel(Ident("ompgort"), "Worker")}},
			}},
		},
		Body: &ast.BlockStmt{List: body},
	}
}

func DeferCall(x ast.Expr) *ast.DeferStmt { return &ast.DeferStmt{Call: x.(*ast.CallExpr)} }

func IfStmt(cond ast.Expr, body ...ast.Stmt) *ast.IfStmt {
	return &ast.IfStmt{Cond: cond, Body: Block(body...)}
}

func IfElseStmt(cond ast.Expr, thenBody []ast.Stmt, elseBody []ast.Stmt) *ast.IfStmt {
	return &ast.IfStmt{Cond: cond, Body: Block(thenBody...), Else: Block(elseBody...)}
}

func PanicStmt(x ast.Expr) *ast.ExprStmt {
	return ExprStmt(Call(Ident("panic"), x))
}

func BinOp(x ast.Expr, op token.Token, y ast.Expr) *ast.BinaryExpr {
	return &ast.BinaryExpr{X: x, Op: op, Y: y}
}

// TypeAssert builds `x.(typ)`, used to recover a concrete runtime type
// (*ompgort.ForTask, *ompgort.SingleTask, ...) from the `any` a shared-
// context claim returns.
func TypeAssert(x ast.Expr, typ ast.Expr) *ast.TypeAssertExpr {
	return &ast.TypeAssertExpr{X: x, Type: typ}
}

func Star(x ast.Expr) *ast.StarExpr { return &ast.StarExpr{X: x} }

// RTType builds the selector expression for a type in the ompgort
// package, e.g. RTType("ForTask") -> ompgort.ForTask.
func RTType(name string) ast.Expr { return Sel(Ident("ompgort"), name) }

func UnaryNot(x ast.Expr) *ast.UnaryExpr { return &ast.UnaryExpr{Op: token.NOT, X: x} }

package processors

import (
	"fmt"
	"go/ast"

	"github.com/ompgo/ompgo/internal/directive"
	"github.com/ompgo/ompgo/internal/rewrite"
	"github.com/ompgo/ompgo/internal/symtab"
)

// defaultKind reads a parallel/parallel-for directive's default
// clause, returning "" when none is present. default(shared|none|
// private|firstprivate) governs every name not given an explicit
// data-sharing clause.
func defaultKind(dir *directive.Directive) string {
	c := dir.Clause("default")
	if c == nil {
		return ""
	}
	names := nameList(c)
	if len(names) != 1 {
		return ""
	}
	return names[0]
}

// explicitDataSharingNames collects every variable already named by an
// explicit private/firstprivate/shared/reduction clause on dir, so
// default-clause resolution only ever touches names the user didn't
// already decide for themselves.
func explicitDataSharingNames(dir *directive.Directive) map[string]bool {
	out := map[string]bool{}
	for _, clause := range []string{"private", "firstprivate", "shared", "reduction"} {
		if c := dir.Clause(clause); c != nil {
			for _, n := range nameList(c) {
				out[n] = true
			}
		}
	}
	return out
}

// enclosingFunc walks ctx.Stack outward from its top (which, during the
// engine's traversal, is populated up to and including the node
// currently being descended into) to find the nearest *ast.FuncDecl or
// *ast.FuncLit — the function whose parameters and locals form "the
// outer scope" a not-yet-lifted region body is still physically part of.
func enclosingFunc(ctx *rewrite.Context) ast.Node {
	for i := len(ctx.Stack) - 1; i >= 0; i-- {
		switch ctx.Stack[i].(type) {
		case *ast.FuncDecl, *ast.FuncLit:
			return ctx.Stack[i]
		}
	}
	return nil
}

// outerNames approximates the "names bound in the outer
// scope" for a region about to be lifted: every parameter of the
// enclosing function, plus every name that function declares outside
// of body itself. A name declared only within body is left unlisted,
// so Analyze classifies it ClassLocal unless it shadows an outer
// binding. This does not walk into scopes nested between the enclosing
// function and body (an intervening if/for's own locals); that
// precision needs go/types-backed analysis this AST-only pass doesn't
// load.
func outerNames(ctx *rewrite.Context, body []ast.Stmt) map[string]bool {
	names := map[string]bool{}
	fn := enclosingFunc(ctx)
	if fn == nil {
		return names
	}
	exclude := map[ast.Stmt]bool{}
	for _, s := range body {
		exclude[s] = true
	}
	var params *ast.FieldList
	var fnBody *ast.BlockStmt
	switch f := fn.(type) {
	case *ast.FuncDecl:
		params = f.Type.Params
		fnBody = f.Body
	case *ast.FuncLit:
		params = f.Type.Params
		fnBody = f.Body
	}
	if params != nil {
		for _, field := range params.List {
			for _, id := range field.Names {
				names[id.Name] = true
			}
		}
	}
	if fnBody != nil {
		for _, s := range fnBody.List {
			if exclude[s] {
				continue
			}
			collectDeclared(s, names)
		}
	}
	return names
}

// collectDeclared walks stmt for every name it binds (var/const
// declarations, := assignments, range loop variables), without
// descending into nested function literals.
func collectDeclared(stmt ast.Stmt, names map[string]bool) {
	ast.Inspect(stmt, func(n ast.Node) bool {
		switch s := n.(type) {
		case *ast.FuncLit:
			return false
		case *ast.AssignStmt:
			if s.Tok.String() == ":=" {
				for _, lhs := range s.Lhs {
					if id, ok := lhs.(*ast.Ident); ok {
						names[id.Name] = true
					}
				}
			}
		case *ast.RangeStmt:
			if s.Tok.String() == ":=" {
				if id, ok := s.Key.(*ast.Ident); ok {
					names[id.Name] = true
				}
				if id, ok := s.Value.(*ast.Ident); ok {
					names[id.Name] = true
				}
			}
		case *ast.GenDecl:
			for _, spec := range s.Specs {
				if vs, ok := spec.(*ast.ValueSpec); ok {
					for _, id := range vs.Names {
						names[id.Name] = true
					}
				}
			}
		}
		return true
	})
}

// applyDefaultDataSharing resolves dir's default clause against every
// name body references that has no explicit private/firstprivate/
// shared/reduction clause of its own. default(shared),
// or the absence of a default clause, needs no generated code: a Go
// closure already captures an outer name by reference. default(none)
// demands every such name be listed explicitly, and is reported as an
// error otherwise. default(private) and default(firstprivate) rebind
// each unlisted captured name exactly as the like-named explicit clause
// would, via the same rename-in-place technique liftDataSharing uses.
func applyDefaultDataSharing(ctx *rewrite.Context, dir *directive.Directive, body []ast.Stmt) ([]ast.Stmt, error) {
	kind := defaultKind(dir)
	if kind == "" || kind == "shared" {
		return nil, nil
	}

	explicit := explicitDataSharingNames(dir)
	outer := outerNames(ctx, body)
	fv := symtab.Analyze(&ast.BlockStmt{List: body}, func(name string) bool { return outer[name] })

	var unresolved []string
	var prelude []ast.Stmt
	for _, name := range fv.Captured() {
		if explicit[name] {
			continue
		}
		unresolved = append(unresolved, name)
		switch kind {
		case "none":
			// handled after the loop: collecting every offending name
			// gives one useful error instead of failing on the first.
		case "private", "firstprivate":
			// Matching liftDataSharing's own private==firstprivate
			// simplification: without go/types on hand to synthesize a
			// zero value of the right type, private starts from a copy
			// of the outer value rather than a true zero value.
			local := ctx.FreshName(name)
			prelude = append(prelude, rewrite.AssignDefine(local, rewrite.Ident(name)))
			renameInStmts(body, name, local)
		}
	}

	if kind == "none" && len(unresolved) > 0 {
		return nil, fmt.Errorf("%s: default(none) requires an explicit data-sharing clause for %v", dir.Name(), unresolved)
	}
	if kind == "private" || kind == "firstprivate" {
		return prelude, nil
	}
	return nil, nil
}

package rewrite

import (
	"go/ast"
	"go/token"

	"golang.org/x/tools/go/ast/astutil"
)

// runtimeImportPath is the package every generated call site needs.
const runtimeImportPath = "github.com/ompgo/ompgo/internal/runtime"

// ensureRuntimeImport makes sure f imports the ompgort runtime package
// exactly once, named "ompgort" regardless of the import path's last
// element (internal/runtime).
func ensureRuntimeImport(fset *token.FileSet, f *ast.File) {
	astutil.AddNamedImport(fset, f, "ompgort", runtimeImportPath)
}

// dropRuntimeImportIfUnused removes the ompgort import when no generated
// code ended up referencing the runtime — all of a file's markers were
// no-op directives, or an if(false) region collapsed to its inline body.
func dropRuntimeImportIfUnused(fset *token.FileSet, f *ast.File) {
	if !referencesRuntime(f) {
		astutil.DeleteNamedImport(fset, f, "ompgort", runtimeImportPath)
	}
}

// referencesRuntime reports whether any non-import code in f selects
// through the ompgort package identifier.
func referencesRuntime(f *ast.File) bool {
	found := false
	for _, decl := range f.Decls {
		if gd, ok := decl.(*ast.GenDecl); ok && gd.Tok == token.IMPORT {
			continue
		}
		ast.Inspect(decl, func(n ast.Node) bool {
			if found {
				return false
			}
			if sel, ok := n.(*ast.SelectorExpr); ok {
				if id, ok := sel.X.(*ast.Ident); ok && id.Name == "ompgort" {
					found = true
					return false
				}
			}
			return true
		})
	}
	return found
}

package symtab

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"
)

func analyzeSrc(t *testing.T, src string, outerNames map[string]bool) *FreeVars {
	t.Helper()
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "region.go", "package p\nfunc f() {\n"+src+"\n}", 0)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	funcDecl := f.Decls[0].(*ast.FuncDecl)
	return Analyze(funcDecl.Body, func(name string) bool { return outerNames[name] })
}

func TestAnalyze_CapturedVsLocal(t *testing.T) {
	outer := map[string]bool{"total": true}
	src := `
total = total + i
count := 1
count = count + 1
`
	fv := analyzeSrc(t, src, outer)

	captured := fv.Captured()
	local := fv.Local()

	hasCaptured := false
	for _, n := range captured {
		if n == "total" {
			hasCaptured = true
		}
	}
	if !hasCaptured {
		t.Errorf("expected %q to be captured, got captured=%v local=%v", "total", captured, local)
	}

	hasLocal := false
	for _, n := range local {
		if n == "count" {
			hasLocal = true
		}
	}
	if !hasLocal {
		t.Errorf("expected %q to be local, got captured=%v local=%v", "count", captured, local)
	}
}

func TestAnalyze_SkipsNestedFuncLit(t *testing.T) {
	outer := map[string]bool{"shared": true}
	src := `
helper := func() {
	shared = shared + 1
}
_ = helper
`
	fv := analyzeSrc(t, src, outer)
	for _, n := range fv.Order {
		if n == "shared" {
			t.Errorf("expected the FuncLit body to be skipped, but %q was classified", "shared")
		}
	}
}

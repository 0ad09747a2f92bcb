package symtab

import (
	"go/ast"
)

// Classification is the outcome of free-variable analysis for one name
// referenced inside a region body about to be lifted into a nested
// function.
type Classification int

const (
	// ClassLocal is assigned inside the region and not declared outside
	// it: the lifted function may keep it as an ordinary local.
	ClassLocal Classification = iota
	// ClassCaptured is bound outside the region and read (and possibly
	// written) inside it: the lifted function needs an explicit capture.
	ClassCaptured
)

// FreeVars is the result of walking a region body: every identifier the
// body references, classified as local or captured, in first-use order.
type FreeVars struct {
	Order []string
	Class map[string]Classification
}

// Captured returns the names classified as captured, in first-use order.
func (f *FreeVars) Captured() []string {
	var out []string
	for _, n := range f.Order {
		if f.Class[n] == ClassCaptured {
			out = append(out, n)
		}
	}
	return out
}

// Local returns the names classified as local, in first-use order.
func (f *FreeVars) Local() []string {
	var out []string
	for _, n := range f.Order {
		if f.Class[n] == ClassLocal {
			out = append(out, n)
		}
	}
	return out
}

// Analyze walks body, computing which referenced names are bound in the
// outer scope (captured) versus assigned fresh inside the region
// (local): before lifting a region body into a nested function, the
// rewriter computes which names used inside are bound outside — these
// become captured references — while names assigned inside but not
// declared outside stay local.
//
// outer reports whether a name is already bound in the enclosing scope.
// Nested function literals are not recursed into: a closure nested
// inside the region captures its own free variables independently once
// it is itself lifted.
func Analyze(body ast.Node, outer func(name string) bool) *FreeVars {
	fv := &FreeVars{Class: map[string]Classification{}}

	// A name's classification is decided on first sight and never
	// revisited: a later assignment can't downgrade a name already read
	// as captured, and a name first assigned fresh stays local even if
	// read again afterward.
	note := func(name string, assign bool) {
		if name == "_" || name == "" {
			return
		}
		if _, seen := fv.Class[name]; seen {
			return
		}
		fv.Order = append(fv.Order, name)
		if assign && !outer(name) {
			fv.Class[name] = ClassLocal
		} else {
			fv.Class[name] = ClassCaptured
		}
	}

	ast.Inspect(body, func(n ast.Node) bool {
		switch expr := n.(type) {
		case *ast.FuncLit:
			// Boundary: a nested lambda/closure computes its own free
			// variables when it is itself lifted.
			return false
		case *ast.AssignStmt:
			for _, lhs := range expr.Lhs {
				if id, ok := lhs.(*ast.Ident); ok {
					note(id.Name, true)
				} else {
					noteIdentsIn(lhs, note)
				}
			}
			for _, rhs := range expr.Rhs {
				noteIdentsIn(rhs, note)
			}
			return false
		case *ast.Ident:
			note(expr.Name, false)
		}
		return true
	})

	return fv
}

// noteIdentsIn walks expr for identifier references, honoring the same
// FuncLit boundary as Analyze's top-level walk.
func noteIdentsIn(expr ast.Node, note func(name string, assign bool)) {
	ast.Inspect(expr, func(m ast.Node) bool {
		switch id := m.(type) {
		case *ast.FuncLit:
			return false
		case *ast.Ident:
			note(id.Name, false)
		}
		return true
	})
}

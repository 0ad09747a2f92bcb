// Package symtab tracks identifier bindings across a lifted parallel
// region: original name, scope, renaming history, and usage, so the
// rewrite engine can generate collision-free names for variables moved
// into a nested function.
package symtab

import "fmt"

// Annotation records why an entry was renamed or classified, set by the
// data-sharing processors (private/firstprivate/reduction/shared).
type Annotation string

const (
	AnnotationNone         Annotation = ""
	AnnotationPrivate      Annotation = "private"
	AnnotationFirstprivate Annotation = "firstprivate"
	AnnotationLastprivate  Annotation = "lastprivate"
	AnnotationReduction    Annotation = "reduction"
	AnnotationShared       Annotation = "shared"
	AnnotationCaptured     Annotation = "captured"
)

// Entry is one identifier's bookkeeping record: its owning scope, the
// name it had before a rename, usage/assignment flags, and an optional
// data-sharing annotation.
type Entry struct {
	Scope      string
	Previous   string
	Used       bool
	Assigned   bool
	Annotation Annotation
}

// Table is a scope's identifier→Entry mapping with a monotonic renaming
// counter. Once a name is renamed, every later reference uses the new
// name consistently ("renaming is monotonic").
type Table struct {
	scope   string
	parent  *Table
	entries map[string]*Entry
	counter int
}

// NewTable creates a root symbol table for the named scope (typically a
// function or lifted-region identifier).
func NewTable(scope string) *Table {
	return &Table{scope: scope, entries: map[string]*Entry{}}
}

// Nested creates a child scope whose lookups fall through to parent on
// miss, so nested function bodies inherit the outer symbol table scope.
func (t *Table) Nested(scope string) *Table {
	return &Table{scope: scope, parent: t, entries: map[string]*Entry{}}
}

// Scope returns this table's scope name.
func (t *Table) Scope() string { return t.scope }

// Declare registers name as bound in this scope if not already present,
// returning its entry.
func (t *Table) Declare(name string) *Entry {
	if e, ok := t.entries[name]; ok {
		return e
	}
	e := &Entry{Scope: t.scope}
	t.entries[name] = e
	return e
}

// Lookup finds name's entry, searching enclosing scopes outward. The
// bool reports whether name is bound anywhere in the chain.
func (t *Table) Lookup(name string) (*Entry, bool) {
	for s := t; s != nil; s = s.parent {
		if e, ok := s.entries[name]; ok {
			return e, true
		}
	}
	return nil, false
}

// MarkUsed records a read reference to name in the scope that owns it,
// declaring it as a free reference to the root if it is bound nowhere
// in the chain (the module/global namespace).
func (t *Table) MarkUsed(name string) {
	if e, ok := t.Lookup(name); ok {
		e.Used = true
		return
	}
	root := t
	for root.parent != nil {
		root = root.parent
	}
	root.Declare(name).Used = true
}

// MarkAssigned records a write to name, declaring it locally if unbound.
func (t *Table) MarkAssigned(name string) {
	if e, ok := t.Lookup(name); ok {
		e.Assigned = true
		return
	}
	t.Declare(name).Assigned = true
}

// Annotate sets name's data-sharing annotation, declaring it if needed.
func (t *Table) Annotate(name string, a Annotation) {
	e, ok := t.entries[name]
	if !ok {
		e = t.Declare(name)
	}
	e.Annotation = a
}

// Rename assigns name a fresh, collision-free identifier and records the
// previous name on the entry so later references can be rewritten
// consistently (renaming is monotonic). It is an error to
// rename a name not yet declared in this exact scope.
func (t *Table) Rename(name string) (string, error) {
	e, ok := t.entries[name]
	if !ok {
		return "", fmt.Errorf("symtab: %q is not declared in scope %q", name, t.scope)
	}
	t.counter++
	fresh := fmt.Sprintf("%s_%s_%d", name, t.scope, t.counter)
	e.Previous = name
	t.entries[fresh] = e
	delete(t.entries, name)
	return fresh, nil
}

// Fresh generates a new collision-free name derived from base without
// renaming any existing entry, used for synthetic helper variables the
// rewriter introduces (loop chunk counters, barrier handles, and so on).
func (t *Table) Fresh(base string) string {
	for {
		t.counter++
		candidate := fmt.Sprintf("__%s_%d", base, t.counter)
		if _, ok := t.entries[candidate]; !ok {
			return candidate
		}
	}
}

// Names returns every identifier currently bound directly in this scope
// (not including ancestors), in no particular order.
func (t *Table) Names() []string {
	out := make([]string, 0, len(t.entries))
	for n := range t.entries {
		out = append(out, n)
	}
	return out
}

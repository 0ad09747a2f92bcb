package symtab

import "testing"

func TestTable_DeclareLookup(t *testing.T) {
	tbl := NewTable("region1")
	tbl.Declare("x")
	e, ok := tbl.Lookup("x")
	if !ok {
		t.Fatal("Lookup(x) not found")
	}
	if e.Scope != "region1" {
		t.Errorf("Scope = %q, want %q", e.Scope, "region1")
	}
}

func TestTable_NestedLookupFallsThrough(t *testing.T) {
	outer := NewTable("outer")
	outer.Declare("n")
	inner := outer.Nested("inner")
	_, ok := inner.Lookup("n")
	if !ok {
		t.Fatal("expected inner.Lookup(n) to fall through to outer")
	}
}

func TestTable_NestedDoesNotLeakUpward(t *testing.T) {
	outer := NewTable("outer")
	inner := outer.Nested("inner")
	inner.Declare("local")
	if _, ok := outer.Lookup("local"); ok {
		t.Error("outer.Lookup(local) should not see inner's declaration")
	}
}

func TestTable_RenameIsMonotonic(t *testing.T) {
	tbl := NewTable("region1")
	tbl.Declare("sum")
	fresh1, err := tbl.Rename("sum")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := tbl.Lookup("sum"); ok {
		t.Error("old name should no longer resolve after rename")
	}
	e, ok := tbl.Lookup(fresh1)
	if !ok {
		t.Fatal("renamed entry should resolve under its fresh name")
	}
	if e.Previous != "sum" {
		t.Errorf("Previous = %q, want %q", e.Previous, "sum")
	}
}

func TestTable_RenameUnknown(t *testing.T) {
	tbl := NewTable("region1")
	if _, err := tbl.Rename("nope"); err == nil {
		t.Fatal("expected an error renaming an undeclared name")
	}
}

func TestTable_FreshNamesDoNotCollide(t *testing.T) {
	tbl := NewTable("region1")
	a := tbl.Fresh("chunk")
	b := tbl.Fresh("chunk")
	if a == b {
		t.Errorf("Fresh returned the same name twice: %q", a)
	}
}

func TestTable_MarkUsedAndAssigned(t *testing.T) {
	tbl := NewTable("region1")
	tbl.MarkUsed("a")
	tbl.MarkAssigned("b")
	ea, _ := tbl.Lookup("a")
	eb, _ := tbl.Lookup("b")
	if !ea.Used {
		t.Error("a.Used = false, want true")
	}
	if !eb.Assigned {
		t.Error("b.Assigned = false, want true")
	}
}

func TestTable_Annotate(t *testing.T) {
	tbl := NewTable("region1")
	tbl.Declare("x")
	tbl.Annotate("x", AnnotationPrivate)
	e, _ := tbl.Lookup("x")
	if e.Annotation != AnnotationPrivate {
		t.Errorf("Annotation = %q, want %q", e.Annotation, AnnotationPrivate)
	}
}

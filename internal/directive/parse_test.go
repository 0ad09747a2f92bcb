package directive

import "testing"

func TestParseDirective_Parallel(t *testing.T) {
	reg := NewRegistry()
	d, err := ParseDirective(reg, "parallel num_threads(4) private(x, y)", "demo.go", 10, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Name() != "parallel" {
		t.Errorf("Name() = %q, want %q", d.Name(), "parallel")
	}
	if len(d.Clauses) != 2 {
		t.Fatalf("len(Clauses) = %d, want 2", len(d.Clauses))
	}
	nt := d.Clause("num_threads")
	if nt == nil || len(nt.Args.Items) != 1 || nt.Args.Items[0].Text != "4" {
		t.Errorf("num_threads clause = %+v", nt)
	}
	pr := d.Clause("private")
	if pr == nil || len(pr.Args.Items) != 2 {
		t.Errorf("private clause = %+v", pr)
	}
}

func TestParseDirective_ParallelFor(t *testing.T) {
	reg := NewRegistry()
	d, err := ParseDirective(reg, "parallel for schedule(static, 4) reduction(+: sum)", "demo.go", 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Name() != "parallel for" {
		t.Errorf("Name() = %q, want %q", d.Name(), "parallel for")
	}
}

func TestParseDirective_DeclareReduction(t *testing.T) {
	reg := NewRegistry()
	d, err := ParseDirective(reg, `declare reduction identifier(sum) combiner(a = a + b)`, "demo.go", 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Name() != "declare reduction" {
		t.Errorf("Name() = %q, want %q", d.Name(), "declare reduction")
	}
}

func TestParseDirective_DeclareMustBeFollowedByRegisteredSuffix(t *testing.T) {
	reg := NewRegistry()
	_, err := ParseDirective(reg, "declare parallel", "demo.go", 1, 1)
	if err == nil {
		t.Fatal("expected an error: \"parallel\" is not a registered suffix of \"declare\"")
	}
}

func TestParseDirective_UnrecognizedDirective(t *testing.T) {
	reg := NewRegistry()
	_, err := ParseDirective(reg, "bogus", "demo.go", 1, 1)
	if err == nil {
		t.Fatal("expected an error for an unrecognized directive")
	}
}

func TestParseDirective_UnrecognizedClause(t *testing.T) {
	reg := NewRegistry()
	_, err := ParseDirective(reg, "parallel bogus_clause", "demo.go", 1, 1)
	if err == nil {
		t.Fatal("expected an error for an unrecognized clause")
	}
}

func TestParseDirective_MissingRequiredClause(t *testing.T) {
	reg := NewRegistry()
	_, err := ParseDirective(reg, "threadprivate", "demo.go", 1, 1)
	if err == nil {
		t.Fatal("expected an error: threadprivate requires a vars clause")
	}
	if _, ok := err.(*MissingRequiredError); !ok {
		t.Errorf("got %T, want *MissingRequiredError", err)
	}
}

func TestParseDirective_ScanExclusiveGroup(t *testing.T) {
	reg := NewRegistry()
	_, err := ParseDirective(reg, "scan inclusive(x) exclusive(y)", "demo.go", 1, 1)
	if err == nil {
		t.Fatal("expected an error: inclusive and exclusive are mutually exclusive")
	}
}

func TestParseDirective_ScanRequiresOneGroupMember(t *testing.T) {
	reg := NewRegistry()
	_, err := ParseDirective(reg, "scan", "demo.go", 1, 1)
	if err == nil {
		t.Fatal("expected an error: scan requires inclusive or exclusive")
	}
}

func TestParseDirective_NonRepeatableClauseRepeated(t *testing.T) {
	reg := NewRegistry()
	_, err := ParseDirective(reg, "parallel if(x) if(y)", "demo.go", 1, 1)
	if err == nil {
		t.Fatal("expected an error: if may not repeat")
	}
}

func TestParseDirective_Empty(t *testing.T) {
	reg := NewRegistry()
	_, err := ParseDirective(reg, "", "demo.go", 1, 1)
	if err == nil {
		t.Fatal("expected an error for an empty directive")
	}
}

func TestParseDirective_Barrier(t *testing.T) {
	reg := NewRegistry()
	d, err := ParseDirective(reg, "barrier", "demo.go", 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.Clauses) != 0 {
		t.Errorf("len(Clauses) = %d, want 0", len(d.Clauses))
	}
}

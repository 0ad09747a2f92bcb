package directive

import "testing"

func TestNewRegistry_KnownDirectives(t *testing.T) {
	reg := NewRegistry()
	names := []string{
		"parallel", "teams", "distribute", "for", "parallel for",
		"sections", "section", "single", "task", "taskwait", "barrier",
		"critical", "atomic", "master", "ordered", "threadprivate",
		"declare", "reduction", "scan",
	}
	for _, n := range names {
		if reg.Lookup(n) == nil {
			t.Errorf("Lookup(%q) = nil, want a schema", n)
		}
	}
}

func TestNewRegistry_UnknownDirective(t *testing.T) {
	reg := NewRegistry()
	if reg.Lookup("nonesuch") != nil {
		t.Errorf("Lookup(%q) = non-nil, want nil", "nonesuch")
	}
}

func TestRegistry_IsSuffixOf(t *testing.T) {
	reg := NewRegistry()
	if !reg.IsSuffixOf("declare", "reduction") {
		t.Errorf("IsSuffixOf(declare, reduction) = false, want true")
	}
	if reg.IsSuffixOf("declare", "parallel") {
		t.Errorf("IsSuffixOf(declare, parallel) = true, want false")
	}
	if reg.IsSuffixOf("parallel", "reduction") {
		t.Errorf("IsSuffixOf(parallel, reduction) = true, want false")
	}
}

func TestNewRegistry_ThreadprivateRequiresVars(t *testing.T) {
	reg := NewRegistry()
	d := reg.Lookup("threadprivate")
	cs, ok := d.Clauses["vars"]
	if !ok {
		t.Fatal("threadprivate has no vars clause")
	}
	if !cs.Required || !cs.Repeatable {
		t.Errorf("vars clause = %+v, want Required && Repeatable", cs)
	}
}

func TestNewRegistry_ScanGroupExclusive(t *testing.T) {
	reg := NewRegistry()
	d := reg.Lookup("scan")
	if len(d.Groups) != 1 {
		t.Fatalf("scan has %d groups, want 1", len(d.Groups))
	}
	g := d.Groups[0]
	if !g.Required || !g.Exclusive {
		t.Errorf("scan group = %+v, want Required && Exclusive", g)
	}
}

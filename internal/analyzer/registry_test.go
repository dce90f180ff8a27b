package analyzer

import "testing"

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(
		NewWorkersAnalyzer(),
		NewPipelinesAnalyzer("default", nil),
		NewSystemAnalyzer(),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return r
}

func TestRegistry_ResolveAll(t *testing.T) {
	r := testRegistry(t)
	analyzers, err := r.Resolve(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(analyzers) != 3 {
		t.Fatalf("expected 3 analyzers, got %d", len(analyzers))
	}
	// Resolution preserves declaration order regardless of input.
	if analyzers[0].Name() != "workers" || analyzers[2].Name() != "system" {
		t.Fatalf("unexpected order: %s, %s", analyzers[0].Name(), analyzers[2].Name())
	}
}

func TestRegistry_ResolveSubsetKeepsOrder(t *testing.T) {
	r := testRegistry(t)
	analyzers, err := r.Resolve([]string{"system", "workers"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(analyzers) != 2 {
		t.Fatalf("expected 2 analyzers, got %d", len(analyzers))
	}
	if analyzers[0].Name() != "workers" || analyzers[1].Name() != "system" {
		t.Fatalf("expected declaration order, got %s, %s", analyzers[0].Name(), analyzers[1].Name())
	}
}

func TestRegistry_UnknownName(t *testing.T) {
	r := testRegistry(t)
	if _, err := r.Resolve([]string{"workers", "nope"}); err == nil {
		t.Fatal("expected error for unknown analyzer")
	}
}

func TestRegistry_DuplicateName(t *testing.T) {
	if _, err := NewRegistry(NewWorkersAnalyzer(), NewWorkersAnalyzer()); err == nil {
		t.Fatal("expected error for duplicate analyzer name")
	}
}

func TestRegistry_Names(t *testing.T) {
	r := testRegistry(t)
	names := r.Names()
	if len(names) != 3 || names[1] != "pipelines" {
		t.Fatalf("unexpected names: %v", names)
	}
}

package score

import (
	"reflect"
	"testing"

	"github.com/KnottyDyes/cribl-hc-sub001/internal/analyzer"
)

func finding(id string, cat analyzer.Category, sev analyzer.Severity) analyzer.Finding {
	return analyzer.Finding{ID: id, Category: cat, Severity: sev}
}

func TestCompute_EmptyFindingsIsPerfect(t *testing.T) {
	hs, err := Compute(nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hs.Overall != 100 {
		t.Fatalf("expected overall 100, got %d", hs.Overall)
	}
	for cat, c := range hs.Components {
		if c.Score != 100 {
			t.Fatalf("expected %s score 100, got %d", cat, c.Score)
		}
		if c.Rationale != "no findings" {
			t.Fatalf("expected 'no findings' rationale, got %q", c.Rationale)
		}
	}
}

func TestCompute_PenaltyTable(t *testing.T) {
	findings := []analyzer.Finding{
		finding("a", analyzer.CategoryWorkers, analyzer.SeverityCritical), // -25
		finding("b", analyzer.CategoryWorkers, analyzer.SeverityHigh),     // -15
		finding("c", analyzer.CategoryPipelines, analyzer.SeverityMedium), // -8
		finding("d", analyzer.CategorySystem, analyzer.SeverityLow),       // -3
		finding("e", analyzer.CategorySystem, analyzer.SeverityInfo),      // -0
	}

	hs, err := Compute(findings, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := hs.Components["workers"].Score; got != 60 {
		t.Fatalf("expected workers 60, got %d", got)
	}
	if got := hs.Components["pipelines"].Score; got != 92 {
		t.Fatalf("expected pipelines 92, got %d", got)
	}
	if got := hs.Components["system"].Score; got != 97 {
		t.Fatalf("expected system 97, got %d", got)
	}
	// 60*.35 + 92*.35 + 97*.30 = 21 + 32.2 + 29.1 = 82.3 -> 82
	if hs.Overall != 82 {
		t.Fatalf("expected overall 82, got %d", hs.Overall)
	}
}

func TestCompute_ClampAtZero(t *testing.T) {
	var findings []analyzer.Finding
	for i := 0; i < 6; i++ {
		findings = append(findings, finding(string(rune('a'+i)), analyzer.CategoryWorkers, analyzer.SeverityCritical))
	}

	hs, err := Compute(findings, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hs.Components["workers"].Score != 0 {
		t.Fatalf("expected clamped 0, got %d", hs.Components["workers"].Score)
	}
}

func TestCompute_Deterministic(t *testing.T) {
	findings := []analyzer.Finding{
		finding("a", analyzer.CategoryWorkers, analyzer.SeverityHigh),
		finding("b", analyzer.CategoryPipelines, analyzer.SeverityMedium),
		finding("c", analyzer.CategorySystem, analyzer.SeverityCritical),
	}

	first, err := Compute(findings, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 50; i++ {
		again, err := Compute(findings, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %+v vs %+v", i, first, again)
		}
	}
}

func TestCompute_SeverityMonotonicity(t *testing.T) {
	base := []analyzer.Finding{
		finding("a", analyzer.CategoryWorkers, analyzer.SeverityMedium),
	}
	before, err := Compute(base, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	withCritical := append([]analyzer.Finding{}, base...)
	withCritical = append(withCritical, finding("b", analyzer.CategoryWorkers, analyzer.SeverityCritical))
	after, err := Compute(withCritical, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if after.Components["workers"].Score > before.Components["workers"].Score {
		t.Fatalf("adding a critical finding raised the score: %d -> %d",
			before.Components["workers"].Score, after.Components["workers"].Score)
	}
	if after.Overall > before.Overall {
		t.Fatalf("adding a critical finding raised the overall: %d -> %d", before.Overall, after.Overall)
	}
}

func TestCompute_WeightsMustSumToOne(t *testing.T) {
	weights := map[string]float64{"workers": 0.5, "pipelines": 0.2}
	if _, err := Compute(nil, weights); err == nil {
		t.Fatal("expected error for weights summing to 0.7")
	}
}

func TestCompute_UnweightedCategoryIsError(t *testing.T) {
	weights := map[string]float64{"workers": 1.0}
	findings := []analyzer.Finding{finding("x", analyzer.CategorySystem, analyzer.SeverityLow)}
	if _, err := Compute(findings, weights); err == nil {
		t.Fatal("expected error for category without weight")
	}
}

func TestCompute_RationaleCounts(t *testing.T) {
	findings := []analyzer.Finding{
		finding("a", analyzer.CategoryWorkers, analyzer.SeverityCritical),
		finding("b", analyzer.CategoryWorkers, analyzer.SeverityCritical),
		finding("c", analyzer.CategoryWorkers, analyzer.SeverityLow),
	}
	hs, err := Compute(findings, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "3 findings (2 critical, 1 low)"
	if hs.Components["workers"].Rationale != want {
		t.Fatalf("expected %q, got %q", want, hs.Components["workers"].Rationale)
	}
}

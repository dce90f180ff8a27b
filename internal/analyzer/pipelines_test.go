package analyzer

import (
	"testing"

	"github.com/KnottyDyes/cribl-hc-sub001/internal/cribl"
)

func pipelineView(pipelines, routes []map[string]any) *cribl.ResourceView {
	return makeView(map[cribl.ResourceRequest][]map[string]any{
		{Name: cribl.ResourcePipelines, Scope: "default"}: pipelines,
		{Name: cribl.ResourceRoutes, Scope: "default"}:    routes,
	})
}

func routeTable(entries ...map[string]any) []map[string]any {
	anyEntries := make([]any, len(entries))
	for i, e := range entries {
		anyEntries[i] = e
	}
	return []map[string]any{{"id": "default", "routes": anyEntries}}
}

func TestPipelinesAnalyzer_DanglingRoute(t *testing.T) {
	pipelines := []map[string]any{
		{"id": "main", "conf": map[string]any{"functions": []any{map[string]any{"id": "eval"}}}},
	}
	routes := routeTable(
		map[string]any{"name": "r1", "pipeline": "main"},
		map[string]any{"name": "r2", "pipeline": "ghost"},
	)

	a := NewPipelinesAnalyzer("default", nil)
	findings, err := a.Analyze(pipelineView(pipelines, routes))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	if findings[0].ID != FindingRouteMissingPipeline {
		t.Fatalf("expected ROUTE_MISSING_PIPELINE, got %s", findings[0].ID)
	}
	if findings[0].Severity != SeverityHigh {
		t.Fatalf("expected high severity, got %s", findings[0].Severity)
	}
	if len(findings[0].Remediation) == 0 {
		t.Fatal("high finding must carry remediation")
	}
}

func TestPipelinesAnalyzer_RuleNoFunctions(t *testing.T) {
	pipelines := []map[string]any{
		{"id": "empty", "conf": map[string]any{"functions": []any{}}},
		{"id": "main", "conf": map[string]any{"functions": []any{map[string]any{"id": "eval"}}}},
	}
	routes := routeTable(
		map[string]any{"name": "r1", "pipeline": "main"},
		map[string]any{"name": "r2", "pipeline": "empty"},
	)
	rules := []Rule{{
		ID:          "BP001",
		Category:    CategoryPipelines,
		Severity:    SeverityMedium,
		Match:       "no_functions",
		Description: "Pipelines without functions pass events through unchanged.",
	}}

	a := NewPipelinesAnalyzer("default", rules)
	findings, err := a.Analyze(pipelineView(pipelines, routes))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	f := findings[0]
	if f.ID != "BP001" {
		t.Fatalf("expected rule id BP001, got %s", f.ID)
	}
	if len(f.AffectedComponents) != 1 || f.AffectedComponents[0] != "empty" {
		t.Fatalf("expected pipeline 'empty' matched, got %v", f.AffectedComponents)
	}
}

func TestPipelinesAnalyzer_RuleAllDisabled(t *testing.T) {
	pipelines := []map[string]any{
		{"id": "dead", "conf": map[string]any{"functions": []any{
			map[string]any{"id": "eval", "disabled": true},
			map[string]any{"id": "drop", "disabled": true},
		}}},
	}
	routes := routeTable(map[string]any{"name": "r1", "pipeline": "dead"})
	rules := []Rule{{ID: "BP002", Category: CategoryPipelines, Severity: SeverityLow, Match: "all_functions_disabled"}}

	a := NewPipelinesAnalyzer("default", rules)
	findings, err := a.Analyze(pipelineView(pipelines, routes))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(findings) != 1 || findings[0].ID != "BP002" {
		t.Fatalf("expected BP002 finding, got %+v", findings)
	}
}

func TestPipelinesAnalyzer_RuleUnrouted(t *testing.T) {
	pipelines := []map[string]any{
		{"id": "orphan", "conf": map[string]any{"functions": []any{map[string]any{"id": "eval"}}}},
		{"id": "main", "conf": map[string]any{"functions": []any{map[string]any{"id": "eval"}}}},
	}
	routes := routeTable(map[string]any{"name": "r1", "pipeline": "main"})
	rules := []Rule{{ID: "BP003", Category: CategoryPipelines, Severity: SeverityInfo, Match: "unrouted_pipeline"}}

	a := NewPipelinesAnalyzer("default", rules)
	findings, err := a.Analyze(pipelineView(pipelines, routes))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	if got := findings[0].AffectedComponents; len(got) != 1 || got[0] != "orphan" {
		t.Fatalf("expected orphan matched, got %v", got)
	}
}

func TestPipelinesAnalyzer_UnknownPredicateSkipped(t *testing.T) {
	pipelines := []map[string]any{{"id": "main", "conf": map[string]any{}}}
	rules := []Rule{{ID: "BP999", Category: CategoryPipelines, Severity: SeverityHigh, Match: "quantum_entangled"}}

	a := NewPipelinesAnalyzer("default", rules)
	findings, err := a.Analyze(pipelineView(pipelines, routeTable()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, f := range findings {
		if f.ID == "BP999" {
			t.Fatal("unknown predicate must not produce findings")
		}
	}
}

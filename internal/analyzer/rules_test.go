package analyzer

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRules_Valid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	content := `rules:
  - id: BP001
    category: pipelines
    severity: medium
    match: no_functions
    description: Pipelines without functions pass events through unchanged.
    doc_url: https://docs.example.com/bp001
  - id: BP003
    category: pipelines
    severity: info
    match: unrouted_pipeline
    description: Pipelines not referenced by any route are dead config.
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write rules: %v", err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	if rules[0].ID != "BP001" || rules[0].Severity != SeverityMedium {
		t.Fatalf("unexpected first rule: %+v", rules[0])
	}
	if rules[1].Match != "unrouted_pipeline" {
		t.Fatalf("unexpected second rule match: %s", rules[1].Match)
	}
}

func TestLoadRules_MissingFile(t *testing.T) {
	if _, err := LoadRules(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadRules_MissingID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	if err := os.WriteFile(path, []byte("rules:\n  - category: pipelines\n"), 0o644); err != nil {
		t.Fatalf("write rules: %v", err)
	}
	if _, err := LoadRules(path); err == nil {
		t.Fatal("expected error for rule without id")
	}
}

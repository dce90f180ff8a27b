package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/KnottyDyes/cribl-hc-sub001/internal/analyzer"
)

const sarifSchema = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json"

// SARIFReporter writes SARIF v2.1.0 for CI annotation pipelines.
type SARIFReporter struct {
	Writer io.Writer
}

// sarifReport is the top-level SARIF v2.1.0 structure.
type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string            `json:"id"`
	ShortDescription sarifMessage      `json:"shortDescription"`
	DefaultConfig    sarifDefaultLevel `json:"defaultConfiguration"`
}

type sarifDefaultLevel struct {
	Level string `json:"level"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID    string         `json:"ruleId"`
	Level     string         `json:"level"`
	Message   sarifMessage   `json:"message"`
	Locations []sarifLoc     `json:"locations,omitempty"`
	Props     map[string]any `json:"properties,omitempty"`
}

type sarifLoc struct {
	PhysicalLocation sarifPhysical `json:"physicalLocation"`
}

type sarifPhysical struct {
	ArtifactLocation sarifArtifact `json:"artifactLocation"`
}

type sarifArtifact struct {
	URI string `json:"uri"`
}

// Generate writes SARIF v2.1.0 output.
func (r *SARIFReporter) Generate(data Data) error {
	var findings []analyzer.Finding
	if data.Run != nil {
		findings = data.Run.Findings
	}

	rules := buildSARIFRules(findings)
	results := make([]sarifResult, 0, len(findings))

	for _, f := range findings {
		results = append(results, sarifResult{
			RuleID:  ruleID(f.ID),
			Level:   sarifLevel(f.Severity),
			Message: sarifMessage{Text: f.Title},
			Locations: []sarifLoc{
				{
					PhysicalLocation: sarifPhysical{
						ArtifactLocation: sarifArtifact{
							URI: fmt.Sprintf("cribl://%s/%s/%s", data.Target.Product, f.Category, f.ID),
						},
					},
				},
			},
			Props: map[string]any{
				"confidence":          string(f.Confidence),
				"affected_components": f.AffectedComponents,
				"metadata":            f.Metadata,
			},
		})
	}

	report := sarifReport{
		Schema:  sarifSchema,
		Version: "2.1.0",
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:    data.Tool,
						Version: data.Version,
						Rules:   rules,
					},
				},
				Results: results,
			},
		},
	}

	enc := json.NewEncoder(r.Writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode SARIF report: %w", err)
	}
	return nil
}

func sarifLevel(s analyzer.Severity) string {
	switch s {
	case analyzer.SeverityCritical, analyzer.SeverityHigh:
		return "error"
	case analyzer.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}

// ruleID strips per-instance suffixes like "SYSTEM_DISK_PRESSURE:host"
// so one rule covers all its occurrences.
func ruleID(findingID string) string {
	if i := strings.IndexByte(findingID, ':'); i > 0 {
		return findingID[:i]
	}
	return findingID
}

// buildSARIFRules derives the rule table from the findings present so
// custom rule-pack ids appear alongside the built-in ones.
func buildSARIFRules(findings []analyzer.Finding) []sarifRule {
	seen := make(map[string]bool)
	rules := make([]sarifRule, 0, len(findings))
	for _, f := range findings {
		id := ruleID(f.ID)
		if seen[id] {
			continue
		}
		seen[id] = true
		rules = append(rules, sarifRule{
			ID:               id,
			ShortDescription: sarifMessage{Text: f.Title},
			DefaultConfig:    sarifDefaultLevel{Level: sarifLevel(f.Severity)},
		})
	}
	return rules
}

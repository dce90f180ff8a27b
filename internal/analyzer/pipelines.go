package analyzer

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/KnottyDyes/cribl-hc-sub001/internal/cribl"
)

// Finding ids produced by the pipelines analyzer outside rule matches.
const (
	FindingRouteMissingPipeline = "ROUTE_MISSING_PIPELINE"
)

// Match predicates the pipelines analyzer knows how to evaluate.
// Rule records using other predicates are skipped, not guessed at.
const (
	matchNoFunctions      = "no_functions"
	matchAllDisabled      = "all_functions_disabled"
	matchUnroutedPipeline = "unrouted_pipeline"
)

// PipelinesAnalyzer validates pipeline configuration against injected
// best-practice rules and checks route/pipeline referential integrity.
type PipelinesAnalyzer struct {
	group string
	rules []Rule
}

// NewPipelinesAnalyzer creates the pipelines check for one worker
// group (or fleet). Rules arrive pre-validated from the rule source.
func NewPipelinesAnalyzer(group string, rules []Rule) *PipelinesAnalyzer {
	return &PipelinesAnalyzer{group: group, rules: rules}
}

func (a *PipelinesAnalyzer) Name() string  { return "pipelines" }
func (a *PipelinesAnalyzer) Priority() int { return 20 }

func (a *PipelinesAnalyzer) RequiredResources() []cribl.ResourceRequest {
	return []cribl.ResourceRequest{
		{Name: cribl.ResourcePipelines, Scope: a.group},
		{Name: cribl.ResourceRoutes, Scope: a.group},
	}
}

func (a *PipelinesAnalyzer) EstimatedCalls() int { return 3 }

// Analyze applies rule predicates to every pipeline and flags routes
// pointing at pipelines that do not exist.
func (a *PipelinesAnalyzer) Analyze(view *cribl.ResourceView) ([]Finding, error) {
	pipelines, err := view.Records(cribl.ResourceRequest{Name: cribl.ResourcePipelines, Scope: a.group})
	if err != nil {
		return nil, err
	}
	routes, err := view.Records(cribl.ResourceRequest{Name: cribl.ResourceRoutes, Scope: a.group})
	if err != nil {
		return nil, err
	}

	routed := make(map[string]bool)
	pipelineIDs := make(map[string]bool, len(pipelines))
	for _, p := range pipelines {
		pipelineIDs[strField(p, "id")] = true
	}

	var findings []Finding

	// Routes reference pipelines by id; a dangling reference drops data.
	var dangling []string
	for _, route := range routes {
		for _, r := range sliceField(route, "routes") {
			rec, ok := r.(map[string]any)
			if !ok {
				continue
			}
			target := strField(rec, "pipeline")
			if target == "" {
				continue
			}
			routed[target] = true
			if !pipelineIDs[target] {
				dangling = append(dangling, fmt.Sprintf("%s -> %s", strField(rec, "name"), target))
			}
		}
	}
	if len(dangling) > 0 {
		sort.Strings(dangling)
		findings = append(findings, Finding{
			ID:                 FindingRouteMissingPipeline,
			Category:           CategoryPipelines,
			Severity:           SeverityHigh,
			Title:              fmt.Sprintf("%d routes reference missing pipelines", len(dangling)),
			Description:        "Events matching these routes are sent to pipelines that do not exist.",
			AffectedComponents: dangling,
			Remediation: []string{
				"Recreate the missing pipelines or repoint the routes",
			},
			Confidence: ConfidenceHigh,
		})
	}

	for _, rule := range a.rules {
		matched := a.applyRule(rule, pipelines, routed)
		if len(matched) == 0 {
			continue
		}
		sort.Strings(matched)
		f := Finding{
			ID:                 rule.ID,
			Category:           rule.Category,
			Severity:           rule.Severity,
			Title:              fmt.Sprintf("%d pipelines match rule %s", len(matched), rule.ID),
			Description:        rule.Description,
			AffectedComponents: matched,
			Confidence:         ConfidenceMedium,
			Metadata:           map[string]any{"rule": rule.ID, "doc_url": rule.DocURL},
		}
		if rule.Severity == SeverityCritical || rule.Severity == SeverityHigh {
			f.Remediation = []string{"Review the rule documentation and update the affected pipelines"}
			if rule.DocURL != "" {
				f.Remediation = append(f.Remediation, "See "+rule.DocURL)
			}
		}
		findings = append(findings, f)
	}

	return findings, nil
}

func (a *PipelinesAnalyzer) applyRule(rule Rule, pipelines []map[string]any, routed map[string]bool) []string {
	var matched []string
	for _, p := range pipelines {
		id := strField(p, "id")
		conf := mapField(p, "conf")
		functions := sliceField(conf, "functions")

		switch rule.Match {
		case matchNoFunctions:
			if len(functions) == 0 {
				matched = append(matched, id)
			}
		case matchAllDisabled:
			if len(functions) > 0 && allDisabled(functions) {
				matched = append(matched, id)
			}
		case matchUnroutedPipeline:
			if !routed[id] {
				matched = append(matched, id)
			}
		default:
			slog.Debug("Skipping rule with unknown predicate", "rule", rule.ID, "match", rule.Match)
			return nil
		}
	}
	return matched
}

func allDisabled(functions []any) bool {
	for _, f := range functions {
		rec, ok := f.(map[string]any)
		if !ok {
			continue
		}
		if !boolField(rec, "disabled") {
			return false
		}
	}
	return true
}

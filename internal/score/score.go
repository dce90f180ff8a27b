package score

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KnottyDyes/cribl-hc-sub001/internal/analyzer"
)

// severityPenalty is the fixed penalty table. It is identical across
// all analyzers so scores stay comparable release to release.
var severityPenalty = map[analyzer.Severity]int{
	analyzer.SeverityCritical: 25,
	analyzer.SeverityHigh:     15,
	analyzer.SeverityMedium:   8,
	analyzer.SeverityLow:      3,
	analyzer.SeverityInfo:     0,
}

const weightEpsilon = 0.001

// ComponentScore is one category's contribution to the overall score.
type ComponentScore struct {
	Score     int     `json:"score"`
	Weight    float64 `json:"weight"`
	Rationale string  `json:"rationale"`
}

// HealthScore is the composite 0-100 deployment score. It is derived
// and recomputable: the finding set is the source of truth.
type HealthScore struct {
	Overall    int                       `json:"overall"`
	Components map[string]ComponentScore `json:"components"`
}

// DefaultWeights covers the reference analyzer categories.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		string(analyzer.CategoryWorkers):   0.35,
		string(analyzer.CategoryPipelines): 0.35,
		string(analyzer.CategorySystem):    0.30,
	}
}

// Compute derives the health score from a finding set. Pure and
// idempotent: identical findings yield bit-identical output. Weights
// must sum to 1.0; a category present in findings but absent from the
// weight table is a configuration error, not something to paper over.
func Compute(findings []analyzer.Finding, weights map[string]float64) (*HealthScore, error) {
	if len(weights) == 0 {
		weights = DefaultWeights()
	}

	var sum float64
	for _, w := range weights {
		sum += w
	}
	if math.Abs(sum-1.0) > weightEpsilon {
		return nil, fmt.Errorf("component weights sum to %.3f, want 1.0", sum)
	}

	byCategory := make(map[string][]analyzer.Finding)
	for _, f := range findings {
		byCategory[string(f.Category)] = append(byCategory[string(f.Category)], f)
	}
	for cat := range byCategory {
		if _, ok := weights[cat]; !ok {
			return nil, fmt.Errorf("no weight configured for category %q", cat)
		}
	}

	// Iterate categories in sorted order so float accumulation is
	// deterministic.
	categories := make([]string, 0, len(weights))
	for cat := range weights {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	components := make(map[string]ComponentScore, len(categories))
	var overall float64
	for _, cat := range categories {
		catFindings := byCategory[cat]
		score := componentScore(catFindings)
		components[cat] = ComponentScore{
			Score:     score,
			Weight:    weights[cat],
			Rationale: rationale(catFindings),
		}
		overall += float64(score) * weights[cat]
	}

	return &HealthScore{
		Overall:    clamp(int(math.Round(overall))),
		Components: components,
	}, nil
}

func componentScore(findings []analyzer.Finding) int {
	score := 100
	for _, f := range findings {
		score -= severityPenalty[f.Severity]
	}
	return clamp(score)
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// rationale explains a component score from its finding counts.
// Absence of findings scores 100 by convention: absence of evidence of
// a problem, not positive evidence of health.
func rationale(findings []analyzer.Finding) string {
	if len(findings) == 0 {
		return "no findings"
	}

	counts := make(map[analyzer.Severity]int)
	for _, f := range findings {
		counts[f.Severity]++
	}

	order := []analyzer.Severity{
		analyzer.SeverityCritical, analyzer.SeverityHigh,
		analyzer.SeverityMedium, analyzer.SeverityLow, analyzer.SeverityInfo,
	}
	parts := make([]string, 0, len(order))
	for _, sev := range order {
		if counts[sev] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[sev], sev))
		}
	}
	return fmt.Sprintf("%d findings (%s)", len(findings), strings.Join(parts, ", "))
}

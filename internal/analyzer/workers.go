package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KnottyDyes/cribl-hc-sub001/internal/cribl"
)

// Finding ids produced by the workers analyzer.
const (
	FindingWorkersDown       = "WORKERS_DOWN"
	FindingWorkerVersionSkew = "WORKER_VERSION_SKEW"
	FindingNoWorkers         = "NO_WORKERS"
)

// WorkersAnalyzer checks fleet liveness and version consistency.
type WorkersAnalyzer struct{}

// NewWorkersAnalyzer creates the workers check.
func NewWorkersAnalyzer() *WorkersAnalyzer {
	return &WorkersAnalyzer{}
}

func (a *WorkersAnalyzer) Name() string  { return "workers" }
func (a *WorkersAnalyzer) Priority() int { return 30 }

func (a *WorkersAnalyzer) RequiredResources() []cribl.ResourceRequest {
	return []cribl.ResourceRequest{{Name: cribl.ResourceWorkers}}
}

func (a *WorkersAnalyzer) EstimatedCalls() int { return 2 }

// Analyze flags disconnected workers and version skew across the fleet.
func (a *WorkersAnalyzer) Analyze(view *cribl.ResourceView) ([]Finding, error) {
	workers, err := view.Records(cribl.ResourceRequest{Name: cribl.ResourceWorkers})
	if err != nil {
		return nil, err
	}

	if len(workers) == 0 {
		return []Finding{{
			ID:          FindingNoWorkers,
			Category:    CategoryWorkers,
			Severity:    SeverityHigh,
			Title:       "No workers registered",
			Description: "The leader reports zero workers; no data is being processed.",
			Remediation: []string{
				"Verify worker nodes are running and can reach the leader",
				"Check worker auth tokens and leader connection settings",
			},
			Confidence: ConfidenceHigh,
		}}, nil
	}

	var findings []Finding

	var down []string
	versions := make(map[string][]string)
	for _, w := range workers {
		id := strField(w, "id")
		status := strings.ToLower(strField(w, "status"))
		if status != "" && status != "healthy" && status != "connected" {
			down = append(down, id)
		}
		info := mapField(w, "info")
		version := strField(info, "version")
		if version == "" {
			version = strField(w, "version")
		}
		if version != "" {
			versions[version] = append(versions[version], id)
		}
	}

	if len(down) > 0 {
		sort.Strings(down)
		severity := SeverityHigh
		if len(down)*2 >= len(workers) {
			severity = SeverityCritical
		}
		findings = append(findings, Finding{
			ID:                 FindingWorkersDown,
			Category:           CategoryWorkers,
			Severity:           severity,
			Title:              fmt.Sprintf("%d of %d workers are not healthy", len(down), len(workers)),
			Description:        "Workers reporting a non-healthy status are not processing events.",
			AffectedComponents: down,
			Remediation: []string{
				"Inspect worker process logs on the affected nodes",
				"Confirm network connectivity between workers and the leader",
			},
			Confidence: ConfidenceHigh,
			Metadata:   map[string]any{"down_count": len(down), "total": len(workers)},
		})
	}

	if len(versions) > 1 {
		versionList := make([]string, 0, len(versions))
		for v := range versions {
			versionList = append(versionList, v)
		}
		sort.Strings(versionList)
		findings = append(findings, Finding{
			ID:          FindingWorkerVersionSkew,
			Category:    CategoryWorkers,
			Severity:    SeverityMedium,
			Title:       fmt.Sprintf("Fleet runs %d different versions", len(versions)),
			Description: "Mixed worker versions can produce inconsistent processing behavior between nodes.",
			Remediation: []string{
				"Upgrade all workers to the leader's version",
			},
			Confidence: ConfidenceMedium,
			Metadata:   map[string]any{"versions": versionList},
		})
	}

	return findings, nil
}

package analyzer

import (
	"fmt"

	"github.com/KnottyDyes/cribl-hc-sub001/internal/cribl"
)

// Finding ids produced by the system analyzer.
const (
	FindingDiskPressure = "SYSTEM_DISK_PRESSURE"
	FindingCPUPressure  = "SYSTEM_CPU_PRESSURE"
)

const (
	diskWarnFreePct = 20.0
	diskCritFreePct = 10.0
	cpuWarnLoadPct  = 85.0
)

// SystemAnalyzer checks host-level pressure from the status endpoint.
// Cloud deployments expose no system_status resource, so there the
// fetch carries an UnsupportedResourceError and this analyzer's
// outcome is failed; that is deliberate, not silently omitted.
type SystemAnalyzer struct{}

// NewSystemAnalyzer creates the system pressure check.
func NewSystemAnalyzer() *SystemAnalyzer {
	return &SystemAnalyzer{}
}

func (a *SystemAnalyzer) Name() string  { return "system" }
func (a *SystemAnalyzer) Priority() int { return 10 }

func (a *SystemAnalyzer) RequiredResources() []cribl.ResourceRequest {
	return []cribl.ResourceRequest{{Name: cribl.ResourceSystemStatus}}
}

func (a *SystemAnalyzer) EstimatedCalls() int { return 1 }

// Analyze flags low free disk and sustained CPU saturation.
func (a *SystemAnalyzer) Analyze(view *cribl.ResourceView) ([]Finding, error) {
	status, err := view.Records(cribl.ResourceRequest{Name: cribl.ResourceSystemStatus})
	if err != nil {
		return nil, err
	}

	var findings []Finding
	for _, rec := range status {
		host := strField(rec, "hostname")
		if host == "" {
			host = strField(rec, "id")
		}

		if disk := mapField(rec, "disk"); disk != nil {
			free, okFree := floatField(disk, "free")
			total, okTotal := floatField(disk, "total")
			if okFree && okTotal && total > 0 {
				freePct := free / total * 100
				if freePct < diskCritFreePct {
					findings = append(findings, diskFinding(host, freePct, SeverityCritical))
				} else if freePct < diskWarnFreePct {
					findings = append(findings, diskFinding(host, freePct, SeverityHigh))
				}
			}
		}

		if cpu := mapField(rec, "cpu"); cpu != nil {
			if load, ok := floatField(cpu, "load_percent"); ok && load > cpuWarnLoadPct {
				findings = append(findings, Finding{
					ID:                 fmt.Sprintf("%s:%s", FindingCPUPressure, host),
					Category:           CategorySystem,
					Severity:           SeverityMedium,
					Title:              fmt.Sprintf("CPU at %.0f%% on %s", load, host),
					Description:        "Sustained CPU saturation delays event processing and can back up sources.",
					AffectedComponents: []string{host},
					Confidence:         ConfidenceMedium,
					Metadata:           map[string]any{"load_percent": load},
				})
			}
		}
	}

	return findings, nil
}

func diskFinding(host string, freePct float64, severity Severity) Finding {
	return Finding{
		ID:                 fmt.Sprintf("%s:%s", FindingDiskPressure, host),
		Category:           CategorySystem,
		Severity:           severity,
		Title:              fmt.Sprintf("Only %.1f%% disk free on %s", freePct, host),
		Description:        "Persistent queues and lookups fail once the disk fills.",
		AffectedComponents: []string{host},
		Remediation: []string{
			"Free disk space or extend the volume",
			"Review persistent queue limits and retention settings",
		},
		Confidence: ConfidenceHigh,
		Metadata:   map[string]any{"free_percent": freePct},
	}
}

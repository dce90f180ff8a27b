package report

import (
	"fmt"
	"io"
	"time"

	"github.com/KnottyDyes/cribl-hc-sub001/internal/analyzer"
	"github.com/KnottyDyes/cribl-hc-sub001/internal/orchestrator"
)

// Target identifies the analyzed deployment without leaking secrets.
// URIHash is a sha256 over the base URL so reports can be correlated
// across runs without storing the URL itself.
type Target struct {
	Type    string `json:"type"`
	Product string `json:"product"`
	Mode    string `json:"mode"`
	URIHash string `json:"uri_hash"`
}

// ReportConfig echoes the effective run configuration into the report.
type ReportConfig struct {
	Analyzers   []string `json:"analyzers,omitempty"`
	MaxAPICalls int      `json:"max_api_calls,omitempty"`
	Timeout     string   `json:"timeout,omitempty"`
}

// Summary aggregates run results for quick triage.
type Summary struct {
	TotalFindings    int            `json:"total_findings"`
	BySeverity       map[string]int `json:"by_severity"`
	ByCategory       map[string]int `json:"by_category"`
	AnalyzersRun     int            `json:"analyzers_run"`
	AnalyzersSkipped int            `json:"analyzers_skipped"`
	APICallsUsed     int            `json:"api_calls_used"`
	Duration         string         `json:"duration"`
}

// Data is the format-independent payload every reporter consumes.
type Data struct {
	Tool      string            `json:"tool"`
	Version   string            `json:"version"`
	Timestamp time.Time         `json:"timestamp"`
	Target    Target            `json:"target"`
	Config    ReportConfig      `json:"config"`
	Run       *orchestrator.Run `json:"run"`
	Summary   Summary           `json:"summary"`
}

// Reporter renders Data in one output format.
type Reporter interface {
	Generate(data Data) error
}

// New returns the reporter for a format name.
func New(format string, w io.Writer) (Reporter, error) {
	switch format {
	case "json":
		return &JSONReporter{Writer: w}, nil
	case "text", "":
		return &TextReporter{Writer: w}, nil
	case "sarif":
		return &SARIFReporter{Writer: w}, nil
	default:
		return nil, fmt.Errorf("unknown report format %q (json, text, sarif)", format)
	}
}

// BuildSummary derives the triage summary from a finished run.
func BuildSummary(run *orchestrator.Run) Summary {
	s := Summary{
		BySeverity:   make(map[string]int),
		ByCategory:   make(map[string]int),
		APICallsUsed: run.TotalAPICalls,
		Duration:     run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond).String(),
	}
	for _, out := range run.Outcomes {
		if out.Status == analyzer.StatusSkipped {
			s.AnalyzersSkipped++
		} else {
			s.AnalyzersRun++
		}
	}
	for _, f := range run.Findings {
		s.TotalFindings++
		s.BySeverity[string(f.Severity)]++
		s.ByCategory[string(f.Category)]++
	}
	return s
}

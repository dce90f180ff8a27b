package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/KnottyDyes/cribl-hc-sub001/internal/analyzer"
)

// TextReporter writes the human-readable report.
type TextReporter struct {
	Writer io.Writer
}

// Generate writes the console report.
func (r *TextReporter) Generate(data Data) error {
	w := r.Writer
	run := data.Run

	fmt.Fprintf(w, "%s v%s\n", data.Tool, data.Version)
	fmt.Fprintf(w, "Target: %s %s (%s)\n", data.Target.Type, data.Target.Product, data.Target.Mode)
	if run != nil {
		fmt.Fprintf(w, "Run: %s  status: %s\n", run.RunID, run.Status)
	}
	fmt.Fprintln(w)

	if run != nil && run.Score != nil {
		fmt.Fprintf(w, "Health Score: %d/100\n", run.Score.Overall)
		categories := make([]string, 0, len(run.Score.Components))
		for name := range run.Score.Components {
			categories = append(categories, name)
		}
		sort.Strings(categories)
		for _, name := range categories {
			c := run.Score.Components[name]
			fmt.Fprintf(w, "  %-12s %3d  %s\n", name, c.Score, c.Rationale)
		}
		fmt.Fprintln(w)
	}

	if run == nil || len(run.Findings) == 0 {
		fmt.Fprintln(w, "No health issues found.")
	} else {
		fmt.Fprintf(w, "Findings (%d)\n", len(run.Findings))
		for _, f := range run.Findings {
			fmt.Fprintf(w, "  [%s] %s: %s\n", f.Severity, f.ID, f.Title)
			if len(f.AffectedComponents) > 0 {
				fmt.Fprintf(w, "      affects: %s\n", strings.Join(f.AffectedComponents, ", "))
			}
			for _, step := range f.Remediation {
				fmt.Fprintf(w, "      - %s\n", step)
			}
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Summary")
	fmt.Fprintf(w, "  analyzers run: %d", data.Summary.AnalyzersRun)
	if data.Summary.AnalyzersSkipped > 0 {
		fmt.Fprintf(w, " (%d skipped for budget)", data.Summary.AnalyzersSkipped)
	}
	fmt.Fprintln(w)
	if run != nil {
		for _, out := range run.Outcomes {
			if out.Status == analyzer.StatusOK {
				continue
			}
			fmt.Fprintf(w, "  %s: %s%s\n", out.Analyzer, out.Status, outcomeDetail(out))
		}
	}
	fmt.Fprintf(w, "  api calls used: %d\n", data.Summary.APICallsUsed)
	fmt.Fprintf(w, "  duration: %s\n", data.Summary.Duration)
	return nil
}

func outcomeDetail(out analyzer.Outcome) string {
	if out.Error == "" {
		return ""
	}
	return " (" + out.Error + ")"
}

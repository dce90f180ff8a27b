package analyzer

import "github.com/KnottyDyes/cribl-hc-sub001/internal/cribl"

// Severity levels for findings.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Confidence expresses how certain an analyzer is about a finding.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Category groups findings for component scoring.
type Category string

const (
	CategoryWorkers   Category = "workers"
	CategoryPipelines Category = "pipelines"
	CategorySystem    Category = "system"
)

// Finding is one detected issue or observation. Immutable; its ID must
// be unique within a run.
type Finding struct {
	ID                 string         `json:"id"`
	Category           Category       `json:"category"`
	Severity           Severity       `json:"severity"`
	Title              string         `json:"title"`
	Description        string         `json:"description"`
	AffectedComponents []string       `json:"affected_components,omitempty"`
	Remediation        []string       `json:"remediation_steps,omitempty"`
	Confidence         Confidence     `json:"confidence"`
	Metadata           map[string]any `json:"metadata,omitempty"`
}

// OutcomeStatus is the terminal state of one analyzer within a run.
type OutcomeStatus string

const (
	StatusOK      OutcomeStatus = "ok"
	StatusPartial OutcomeStatus = "partial"
	StatusFailed  OutcomeStatus = "failed"
	StatusSkipped OutcomeStatus = "skipped_for_budget"
)

// Outcome is the result of running one analyzer.
type Outcome struct {
	Analyzer     string        `json:"analyzer"`
	Status       OutcomeStatus `json:"status"`
	Findings     []Finding     `json:"findings,omitempty"`
	APICallsUsed int           `json:"api_calls_used"`
	Error        string        `json:"error,omitempty"`
}

// Usable reports whether the outcome contributes findings to the run.
func (o Outcome) Usable() bool {
	return o.Status == StatusOK || o.Status == StatusPartial
}

// Analyzer is a pure check module: it declares the resources it needs
// and turns fetched data into findings. Analyzers never perform their
// own I/O; all fetching is centralized in the API client.
type Analyzer interface {
	// Name uniquely identifies the analyzer within a registry.
	Name() string
	// Priority orders budget degradation; lower-priority analyzers are
	// dropped first when estimates exceed the call budget.
	Priority() int
	// RequiredResources lists the resource requests this analyzer
	// reads. The orchestrator deduplicates them across analyzers.
	RequiredResources() []cribl.ResourceRequest
	// EstimatedCalls is the declared API-call cost of the required
	// resources, used for budget planning before any fetch happens.
	EstimatedCalls() int
	// Analyze inspects the read-only view and emits findings.
	Analyze(view *cribl.ResourceView) ([]Finding, error)
}

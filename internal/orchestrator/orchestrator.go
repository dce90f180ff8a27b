package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/KnottyDyes/cribl-hc-sub001/internal/analyzer"
	"github.com/KnottyDyes/cribl-hc-sub001/internal/cribl"
	"github.com/KnottyDyes/cribl-hc-sub001/internal/score"
)

// RunStatus is the lifecycle state of an analysis run.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusPartial   RunStatus = "partial"
	StatusFailed    RunStatus = "failed"
)

// Budget caps one run's API-call volume and wall-clock duration.
// Zero values mean unlimited.
type Budget struct {
	MaxAPICalls int           `json:"max_api_calls"`
	MaxDuration time.Duration `json:"max_duration"`
}

// Run is the sealed artifact of one analysis. The orchestrator mutates
// it only while Status is running; after the terminal transition it is
// handed to reporting read-only.
type Run struct {
	RunID         string             `json:"run_id"`
	Deployment    cribl.Deployment   `json:"deployment"`
	StartedAt     time.Time          `json:"started_at"`
	CompletedAt   time.Time          `json:"completed_at"`
	Status        RunStatus          `json:"status"`
	TotalAPICalls int                `json:"total_api_calls_used"`
	Outcomes      []analyzer.Outcome `json:"outcomes"`
	Findings      []analyzer.Finding `json:"findings"`
	Score         *score.HealthScore `json:"health_score,omitempty"`
}

// Fetcher is the slice of the API client the orchestrator needs. All
// I/O is centralized here; analyzers only ever see fetched data.
type Fetcher interface {
	FetchMany(ctx context.Context, reqs []cribl.ResourceRequest) *cribl.FetchedResourceSet
	CallsUsed() int
	Deployment() cribl.Deployment
}

const defaultWorkers = 4

// Orchestrator schedules analyzer execution against one deployment
// under a shared budget. It holds no global state, so multiple
// orchestrators can run concurrently without cross-talk.
type Orchestrator struct {
	registry *analyzer.Registry
	weights  map[string]float64
	workers  int
}

// New creates an orchestrator over an explicitly constructed registry.
// A nil weights map selects the default component weights.
func New(registry *analyzer.Registry, weights map[string]float64) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		weights:  weights,
		workers:  defaultWorkers,
	}
}

// Run executes the named analyzers (all registered when empty) against
// the deployment behind client. It returns only on a terminal state.
// The returned error is non-nil only for pre-run argument problems and
// DataIntegrityError; every environmental failure degrades into the
// run's status instead.
func (o *Orchestrator) Run(ctx context.Context, client Fetcher, names []string, budget Budget) (*Run, error) {
	selected, err := o.registry.Resolve(names)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no analyzers selected")
	}

	run := &Run{
		RunID:      uuid.NewString(),
		Deployment: client.Deployment(),
		StartedAt:  time.Now().UTC(),
		Status:     StatusRunning,
	}

	if budget.MaxDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, budget.MaxDuration)
		defer cancel()
	}

	active, skipped := planBudget(selected, budget.MaxAPICalls)
	slog.Info("Starting analysis run",
		"run_id", run.RunID, "analyzers", len(active), "skipped_for_budget", len(skipped))

	// One deduplicated fetch for the union of required resources.
	union := make([]cribl.ResourceRequest, 0)
	for _, a := range active {
		union = append(union, a.RequiredResources()...)
	}
	fetched := client.FetchMany(ctx, union)

	outcomes := o.dispatch(ctx, active, fetched)

	// Outcomes surface in declaration order of the resolved set, with
	// budget-skipped analyzers in place, regardless of completion order.
	run.Outcomes = make([]analyzer.Outcome, 0, len(selected))
	for _, a := range selected {
		if out, ok := outcomes[a.Name()]; ok {
			run.Outcomes = append(run.Outcomes, out)
			continue
		}
		run.Outcomes = append(run.Outcomes, analyzer.Outcome{
			Analyzer: a.Name(),
			Status:   analyzer.StatusSkipped,
			Error:    "skipped_for_budget",
		})
	}

	if err := checkIntegrity(run.Outcomes); err != nil {
		run.Status = StatusFailed
		run.CompletedAt = time.Now().UTC()
		return nil, err
	}

	for _, out := range run.Outcomes {
		if out.Usable() {
			run.Findings = append(run.Findings, out.Findings...)
		}
	}

	run.TotalAPICalls = client.CallsUsed()
	run.Status = terminalStatus(run.Outcomes)

	if run.Status != StatusFailed {
		hs, err := score.Compute(run.Findings, o.weights)
		if err != nil {
			return nil, fmt.Errorf("compute health score: %w", err)
		}
		run.Score = hs
	}

	run.CompletedAt = time.Now().UTC()
	slog.Info("Analysis run finished",
		"run_id", run.RunID, "status", run.Status,
		"findings", len(run.Findings), "api_calls", run.TotalAPICalls)
	return run, nil
}

// planBudget drops analyzers, lowest priority first, until the summed
// call estimates fit the budget. Ties drop the more expensive analyzer
// first, then by name, so degradation is deterministic and documented
// rather than an error.
func planBudget(selected []analyzer.Analyzer, maxCalls int) (active, skipped []analyzer.Analyzer) {
	active = make([]analyzer.Analyzer, len(selected))
	copy(active, selected)
	if maxCalls <= 0 {
		return active, nil
	}

	total := 0
	for _, a := range active {
		total += a.EstimatedCalls()
	}

	for total > maxCalls && len(active) > 0 {
		victim := 0
		for i := 1; i < len(active); i++ {
			a, b := active[i], active[victim]
			switch {
			case a.Priority() != b.Priority():
				if a.Priority() < b.Priority() {
					victim = i
				}
			case a.EstimatedCalls() != b.EstimatedCalls():
				if a.EstimatedCalls() > b.EstimatedCalls() {
					victim = i
				}
			case a.Name() < b.Name():
				victim = i
			}
		}

		dropped := active[victim]
		slog.Warn("Dropping analyzer for budget",
			"analyzer", dropped.Name(), "estimated_calls", dropped.EstimatedCalls(), "budget", maxCalls)
		total -= dropped.EstimatedCalls()
		skipped = append(skipped, dropped)
		active = append(active[:victim], active[victim+1:]...)
	}
	return active, skipped
}

// dispatch runs analyzers concurrently under a bounded worker pool.
// Each analyzer gets a wall-clock slice of the remaining deadline; one
// overrunning or panicking analyzer never takes its siblings down.
func (o *Orchestrator) dispatch(ctx context.Context, active []analyzer.Analyzer, fetched *cribl.FetchedResourceSet) map[string]analyzer.Outcome {
	var (
		mu       sync.Mutex
		outcomes = make(map[string]analyzer.Outcome, len(active))
		pending  = int64(len(active))
	)

	g, gctx := errgroup.WithContext(ctx)
	limit := o.workers
	if len(active) < limit {
		limit = len(active)
	}
	g.SetLimit(limit)

	for _, a := range active {
		a := a
		g.Go(func() error {
			out := o.runOne(gctx, a, fetched, &pending)
			mu.Lock()
			outcomes[a.Name()] = out
			mu.Unlock()
			return nil // outcome isolation: errors live in the outcome
		})
	}
	_ = g.Wait()
	return outcomes
}

// runOne executes a single analyzer inside its time slice with panic
// containment. This is the one place error policy is enforced.
func (o *Orchestrator) runOne(ctx context.Context, a analyzer.Analyzer, fetched *cribl.FetchedResourceSet, pending *int64) analyzer.Outcome {
	slice := remainingSlice(ctx, pending)
	actx := ctx
	if slice > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, slice)
		defer cancel()
	}

	reqs := a.RequiredResources()
	view := fetched.View(reqs)

	type result struct {
		findings []analyzer.Finding
		err      error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("analyzer panic: %v", r)}
			}
		}()
		findings, err := a.Analyze(view)
		done <- result{findings: findings, err: err}
	}()

	calls := callsFor(view, reqs)

	select {
	case <-actx.Done():
		slog.Warn("Analyzer cancelled", "analyzer", a.Name(), "reason", actx.Err())
		return analyzer.Outcome{
			Analyzer:     a.Name(),
			Status:       analyzer.StatusFailed,
			APICallsUsed: calls,
			Error:        "timeout: " + actx.Err().Error(),
		}
	case res := <-done:
		if res.err != nil {
			return failedOutcome(a.Name(), calls, res.err)
		}
		status := analyzer.StatusOK
		if degraded(view, reqs) {
			status = analyzer.StatusPartial
		}
		return analyzer.Outcome{
			Analyzer:     a.Name(),
			Status:       status,
			Findings:     res.findings,
			APICallsUsed: calls,
		}
	}
}

// failedOutcome converts an analyzer error into a failed outcome that
// also carries the message as a low-confidence informational finding.
func failedOutcome(name string, calls int, err error) analyzer.Outcome {
	return analyzer.Outcome{
		Analyzer:     name,
		Status:       analyzer.StatusFailed,
		APICallsUsed: calls,
		Error:        err.Error(),
		Findings: []analyzer.Finding{{
			ID:          fmt.Sprintf("ANALYZER_ERROR:%s", name),
			Category:    analyzer.Category(name),
			Severity:    analyzer.SeverityInfo,
			Title:       fmt.Sprintf("Analyzer %s did not complete", name),
			Description: err.Error(),
			Confidence:  analyzer.ConfidenceLow,
		}},
	}
}

// remainingSlice divides the remaining deadline evenly across the
// analyzers that have not started yet. No deadline means no slice.
func remainingSlice(ctx context.Context, pending *int64) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0
	}
	left := atomic.LoadInt64(pending)
	if left < 1 {
		left = 1
	}
	atomic.AddInt64(pending, -1)

	remaining := time.Until(deadline)
	if remaining <= 0 {
		return time.Nanosecond // already expired; fail fast
	}
	return remaining / time.Duration(left)
}

// callsFor sums the fetch cost of the resources a view exposes.
func callsFor(view *cribl.ResourceView, reqs []cribl.ResourceRequest) int {
	total := 0
	for _, req := range reqs {
		if r := view.Get(req); r != nil {
			total += r.CallsUsed
		}
	}
	return total
}

// degraded reports whether any required resource failed or was
// truncated while the analyzer still produced output.
func degraded(view *cribl.ResourceView, reqs []cribl.ResourceRequest) bool {
	for _, req := range reqs {
		r := view.Get(req)
		if r == nil || r.Err != nil || r.Truncated {
			return true
		}
	}
	return false
}

// checkIntegrity rejects finding-id collisions across analyzers. A
// collision is an authoring bug, not an environmental condition, so it
// aborts the whole run.
func checkIntegrity(outcomes []analyzer.Outcome) error {
	seen := make(map[string]string)
	for _, out := range outcomes {
		for _, f := range out.Findings {
			if f.ID == "" {
				return &cribl.DataIntegrityError{
					Reason: fmt.Sprintf("analyzer %s produced a finding without an id", out.Analyzer),
				}
			}
			if prev, dup := seen[f.ID]; dup {
				return &cribl.DataIntegrityError{
					Reason: fmt.Sprintf("finding id %q produced by both %s and %s", f.ID, prev, out.Analyzer),
				}
			}
			seen[f.ID] = out.Analyzer
			if (f.Severity == analyzer.SeverityCritical || f.Severity == analyzer.SeverityHigh) && len(f.Remediation) == 0 {
				return &cribl.DataIntegrityError{
					Reason: fmt.Sprintf("finding %q is %s but has no remediation steps", f.ID, f.Severity),
				}
			}
		}
	}
	return nil
}

// terminalStatus applies the run status rules: completed iff every
// outcome is ok, failed iff zero outcomes are usable, otherwise
// partial.
func terminalStatus(outcomes []analyzer.Outcome) RunStatus {
	usable, ok := 0, 0
	for _, out := range outcomes {
		if out.Usable() {
			usable++
		}
		if out.Status == analyzer.StatusOK {
			ok++
		}
	}
	switch {
	case usable == 0:
		return StatusFailed
	case ok == len(outcomes):
		return StatusCompleted
	default:
		return StatusPartial
	}
}

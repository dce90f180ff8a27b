package cribl

import (
	"errors"
	"fmt"
	"time"
)

// ProductType identifies which sub-product a deployment runs.
type ProductType string

const (
	ProductStream ProductType = "stream"
	ProductEdge   ProductType = "edge"
	ProductSearch ProductType = "search"
	ProductLake   ProductType = "lake"
)

// HostingMode distinguishes cloud from self-hosted deployments.
type HostingMode string

const (
	ModeCloud      HostingMode = "cloud"
	ModeSelfHosted HostingMode = "self_hosted"
)

// Deployment describes the remote platform instance under analysis.
// It is immutable once an analysis run starts; the credential
// collaborator resolves the token before handing it over.
type Deployment struct {
	ID      string      `json:"id"`
	BaseURL string      `json:"base_url"`
	Token   string      `json:"-"`
	Mode    HostingMode `json:"mode"`
	Product ProductType `json:"product"`
	Version string      `json:"version,omitempty"`
}

// ResourceName is the closed vocabulary of logical resources the
// product adapter can resolve.
type ResourceName string

const (
	ResourceWorkers      ResourceName = "workers"
	ResourcePipelines    ResourceName = "pipelines"
	ResourceRoutes       ResourceName = "routes"
	ResourceInputs       ResourceName = "inputs"
	ResourceOutputs      ResourceName = "outputs"
	ResourceSystemStatus ResourceName = "system_status"
	ResourceSystemInfo   ResourceName = "system_info"
	ResourceMetrics      ResourceName = "metrics"
	ResourceLakeDatasets ResourceName = "lake_datasets"
	ResourceSearchJobs   ResourceName = "search_jobs"
)

// ResourceRequest names a logical resource an analyzer needs, with an
// optional scope (worker group, fleet, workspace or lake identifier).
// Its value is the dedup key for shared fetches within a run.
type ResourceRequest struct {
	Name  ResourceName `json:"name"`
	Scope string       `json:"scope,omitempty"`
}

func (r ResourceRequest) String() string {
	if r.Scope == "" {
		return string(r.Name)
	}
	return fmt.Sprintf("%s[%s]", r.Name, r.Scope)
}

// FetchedResource holds the decoded payload for one resource request
// plus per-fetch metadata. Failures are captured here, not thrown.
type FetchedResource struct {
	Request   ResourceRequest  `json:"request"`
	Records   []map[string]any `json:"records,omitempty"`
	CallsUsed int              `json:"calls_used"`
	Latency   time.Duration    `json:"latency"`
	Truncated bool             `json:"truncated,omitempty"`
	Err       error            `json:"-"`
}

// OK reports whether the fetch produced usable records.
func (f *FetchedResource) OK() bool {
	return f != nil && f.Err == nil
}

// FetchedResourceSet maps resource requests to their fetch results.
// It is built once per run and shared read-only across analyzers.
type FetchedResourceSet struct {
	resources map[ResourceRequest]*FetchedResource
}

// NewFetchedResourceSet builds a set from fetch results.
func NewFetchedResourceSet(resources []*FetchedResource) *FetchedResourceSet {
	m := make(map[ResourceRequest]*FetchedResource, len(resources))
	for _, r := range resources {
		m[r.Request] = r
	}
	return &FetchedResourceSet{resources: m}
}

// View returns a read-only view restricted to the given requests.
// Analyzers only ever see views, never the set itself.
func (s *FetchedResourceSet) View(reqs []ResourceRequest) *ResourceView {
	subset := make(map[ResourceRequest]*FetchedResource, len(reqs))
	for _, req := range reqs {
		if r, ok := s.resources[req]; ok {
			subset[req] = r
		}
	}
	return &ResourceView{resources: subset}
}

// Len returns the number of fetched resources in the set.
func (s *FetchedResourceSet) Len() int {
	return len(s.resources)
}

// CallsUsed sums the API calls consumed building the set.
func (s *FetchedResourceSet) CallsUsed() int {
	total := 0
	for _, r := range s.resources {
		total += r.CallsUsed
	}
	return total
}

// ResourceView is the immutable slice of a FetchedResourceSet handed
// to a single analyzer.
type ResourceView struct {
	resources map[ResourceRequest]*FetchedResource
}

// Get returns the fetch result for a request, or nil if the view does
// not contain it.
func (v *ResourceView) Get(req ResourceRequest) *FetchedResource {
	if v == nil {
		return nil
	}
	return v.resources[req]
}

// Records returns the decoded records for a request. It returns an
// error if the resource is missing from the view or its fetch failed,
// so analyzers degrade instead of reading stale data.
func (v *ResourceView) Records(req ResourceRequest) ([]map[string]any, error) {
	r := v.Get(req)
	if r == nil {
		return nil, fmt.Errorf("resource %s not fetched", req)
	}
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Records, nil
}

// Error taxonomy. Transport and throttling failures stay inside the
// client; UnsupportedResource is fatal to the requesting analyzer
// only; BudgetExceeded stops further fetches for the run.

// TransportError wraps a network, timeout or non-2xx failure.
type TransportError struct {
	Request    ResourceRequest
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.Request, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.Request, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UnsupportedResourceError reports a logical resource with no mapping
// for the bound product and hosting mode. Silent fallback to a default
// path is forbidden.
type UnsupportedResourceError struct {
	Resource ResourceName
	Product  ProductType
	Mode     HostingMode
}

func (e *UnsupportedResourceError) Error() string {
	return fmt.Sprintf("resource %q is not supported on %s (%s)", e.Resource, e.Product, e.Mode)
}

// ErrBudgetExceeded marks fetches refused because the run's API-call
// budget is spent.
var ErrBudgetExceeded = errors.New("api call budget exceeded")

// DataIntegrityError reports malformed analyzer output, such as a
// Finding id collision. It is the only error that aborts a whole run.
type DataIntegrityError struct {
	Reason string
}

func (e *DataIntegrityError) Error() string {
	return "data integrity: " + e.Reason
}

package cribl

import "strings"

// scopePlaceholder marks where a worker-group, fleet or similar scope
// identifier is substituted into a route.
const scopePlaceholder = "{scope}"

// routeKey binds a logical resource to one product/hosting-mode pair.
type routeKey struct {
	resource ResourceName
	product  ProductType
	mode     HostingMode
}

// routes is the closed mapping from logical resources to concrete API
// paths. A missing entry means the combination is unsupported; the
// adapter never guesses a default path.
var routes = map[routeKey]string{
	// Stream, self-hosted (leader API).
	{ResourceWorkers, ProductStream, ModeSelfHosted}:      "/api/v1/master/workers",
	{ResourcePipelines, ProductStream, ModeSelfHosted}:    "/api/v1/m/{scope}/pipelines",
	{ResourceRoutes, ProductStream, ModeSelfHosted}:       "/api/v1/m/{scope}/routes",
	{ResourceInputs, ProductStream, ModeSelfHosted}:       "/api/v1/m/{scope}/system/inputs",
	{ResourceOutputs, ProductStream, ModeSelfHosted}:      "/api/v1/m/{scope}/system/outputs",
	{ResourceSystemStatus, ProductStream, ModeSelfHosted}: "/api/v1/system/status",
	{ResourceSystemInfo, ProductStream, ModeSelfHosted}:   "/api/v1/system/info",
	{ResourceMetrics, ProductStream, ModeSelfHosted}:      "/api/v1/system/metrics",

	// Stream, cloud. Workspaces front the same leader API surface but
	// expose no host-level status endpoint (no disk to report on).
	{ResourceWorkers, ProductStream, ModeCloud}:    "/api/v1/master/workers",
	{ResourcePipelines, ProductStream, ModeCloud}:  "/api/v1/m/{scope}/pipelines",
	{ResourceRoutes, ProductStream, ModeCloud}:     "/api/v1/m/{scope}/routes",
	{ResourceInputs, ProductStream, ModeCloud}:     "/api/v1/m/{scope}/system/inputs",
	{ResourceOutputs, ProductStream, ModeCloud}:    "/api/v1/m/{scope}/system/outputs",
	{ResourceSystemInfo, ProductStream, ModeCloud}: "/api/v1/system/info",
	{ResourceMetrics, ProductStream, ModeCloud}:    "/api/v1/system/metrics",

	// Edge scopes by fleet; the path shape matches worker groups.
	{ResourceWorkers, ProductEdge, ModeSelfHosted}:      "/api/v1/master/workers",
	{ResourcePipelines, ProductEdge, ModeSelfHosted}:    "/api/v1/m/{scope}/pipelines",
	{ResourceRoutes, ProductEdge, ModeSelfHosted}:       "/api/v1/m/{scope}/routes",
	{ResourceInputs, ProductEdge, ModeSelfHosted}:       "/api/v1/m/{scope}/system/inputs",
	{ResourceOutputs, ProductEdge, ModeSelfHosted}:      "/api/v1/m/{scope}/system/outputs",
	{ResourceSystemStatus, ProductEdge, ModeSelfHosted}: "/api/v1/system/status",
	{ResourceSystemInfo, ProductEdge, ModeSelfHosted}:   "/api/v1/system/info",
	{ResourceWorkers, ProductEdge, ModeCloud}:           "/api/v1/master/workers",
	{ResourcePipelines, ProductEdge, ModeCloud}:         "/api/v1/m/{scope}/pipelines",
	{ResourceRoutes, ProductEdge, ModeCloud}:            "/api/v1/m/{scope}/routes",
	{ResourceInputs, ProductEdge, ModeCloud}:            "/api/v1/m/{scope}/system/inputs",
	{ResourceOutputs, ProductEdge, ModeCloud}:           "/api/v1/m/{scope}/system/outputs",
	{ResourceSystemInfo, ProductEdge, ModeCloud}:        "/api/v1/system/info",

	// Search and Lake are cloud products with narrow surfaces.
	{ResourceSearchJobs, ProductSearch, ModeCloud}: "/api/v1/search/jobs",
	{ResourceSystemInfo, ProductSearch, ModeCloud}: "/api/v1/system/info",
	{ResourceLakeDatasets, ProductLake, ModeCloud}: "/api/v1/lake/datasets",
	{ResourceSystemInfo, ProductLake, ModeCloud}:   "/api/v1/system/info",
}

// ProductAdapter resolves logical resource names to concrete URL paths
// for one product/hosting-mode combination. The binding happens once
// per deployment, at client construction, and never changes mid-run.
type ProductAdapter struct {
	product      ProductType
	mode         HostingMode
	defaultScope string
}

// NewProductAdapter binds an adapter to a product and hosting mode.
// defaultScope fills scoped routes when a request carries no scope of
// its own (e.g. the "default" worker group).
func NewProductAdapter(product ProductType, mode HostingMode, defaultScope string) *ProductAdapter {
	if defaultScope == "" {
		defaultScope = "default"
	}
	return &ProductAdapter{product: product, mode: mode, defaultScope: defaultScope}
}

// Product returns the bound product type.
func (a *ProductAdapter) Product() ProductType { return a.product }

// Mode returns the bound hosting mode.
func (a *ProductAdapter) Mode() HostingMode { return a.mode }

// Resolve maps a resource request to its concrete API path. It fails
// with UnsupportedResourceError when the bound product/mode has no
// route for the resource.
func (a *ProductAdapter) Resolve(req ResourceRequest) (string, error) {
	path, ok := routes[routeKey{req.Name, a.product, a.mode}]
	if !ok {
		return "", &UnsupportedResourceError{Resource: req.Name, Product: a.product, Mode: a.mode}
	}

	if strings.Contains(path, scopePlaceholder) {
		scope := req.Scope
		if scope == "" {
			scope = a.defaultScope
		}
		path = strings.ReplaceAll(path, scopePlaceholder, scope)
	}
	return path, nil
}

// Supports reports whether the bound product/mode can serve a resource.
func (a *ProductAdapter) Supports(name ResourceName) bool {
	_, ok := routes[routeKey{name, a.product, a.mode}]
	return ok
}

package cribl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultMaxPages  = 20
	defaultPageSize  = 100
	throttleRetries  = 3
	fetchConcurrency = 4
)

// ClientOptions tune fetch behavior.
type ClientOptions struct {
	RatePerSecond float64
	RateBurst     int
	MaxPages      int
	MaxAPICalls   int
	PageSize      int
	HTTPClient    *http.Client
}

// Client wraps the HTTP transport with the rate limiter and product
// adapter. All network I/O for a run flows through one client so the
// orchestrator retains full budget visibility.
type Client struct {
	deployment Deployment
	adapter    *ProductAdapter
	limiter    *RateLimiter
	http       *http.Client

	maxPages    int
	pageSize    int
	maxAPICalls int64
	callsUsed   atomic.Int64
}

// NewClient builds a client bound to a deployment. The deployment must
// already carry its product/mode binding (see Detect).
func NewClient(deployment Deployment, adapter *ProductAdapter, opts ClientOptions) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	return &Client{
		deployment:  deployment,
		adapter:     adapter,
		limiter:     NewRateLimiter(opts.RatePerSecond, opts.RateBurst),
		http:        httpClient,
		maxPages:    maxPages,
		pageSize:    pageSize,
		maxAPICalls: int64(opts.MaxAPICalls),
	}
}

// Deployment returns the bound deployment.
func (c *Client) Deployment() Deployment { return c.deployment }

// Adapter returns the bound product adapter.
func (c *Client) Adapter() *ProductAdapter { return c.adapter }

// CallsUsed returns the API calls consumed so far in this run.
func (c *Client) CallsUsed() int {
	return int(c.callsUsed.Load())
}

// Fetch retrieves one logical resource, following pagination until
// exhaustion or the max-pages guard. Failures are captured on the
// returned FetchedResource, never raised, so one unreachable endpoint
// degrades that resource and nothing else.
func (c *Client) Fetch(ctx context.Context, req ResourceRequest) *FetchedResource {
	start := time.Now()
	res := &FetchedResource{Request: req}

	path, err := c.adapter.Resolve(req)
	if err != nil {
		res.Err = err
		return res
	}

	offset := 0
	for page := 0; ; page++ {
		if page >= c.maxPages {
			res.Truncated = true
			slog.Warn("Pagination guard hit", "resource", req.String(), "pages", page)
			break
		}

		records, total, err := c.fetchPage(ctx, req, path, offset)
		if err != nil {
			// Keep records from pages already fetched only if we never
			// got a complete first page; a partial tail is still marked.
			if page == 0 {
				res.Err = err
			} else {
				res.Truncated = true
			}
			break
		}

		res.Records = append(res.Records, records...)
		offset += len(records)
		if len(records) < c.pageSize || (total > 0 && offset >= total) {
			break
		}
	}

	res.Latency = time.Since(start)
	return res
}

// FetchMany retrieves a set of resources in parallel, deduplicating
// identical requests so the run never pays twice for the same data.
func (c *Client) FetchMany(ctx context.Context, reqs []ResourceRequest) *FetchedResourceSet {
	seen := make(map[ResourceRequest]bool, len(reqs))
	unique := make([]ResourceRequest, 0, len(reqs))
	for _, req := range reqs {
		if !seen[req] {
			seen[req] = true
			unique = append(unique, req)
		}
	}

	var (
		mu      sync.Mutex
		results = make([]*FetchedResource, 0, len(unique))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)

	for _, req := range unique {
		req := req
		g.Go(func() error {
			fetched := c.Fetch(gctx, req)
			mu.Lock()
			results = append(results, fetched)
			mu.Unlock()
			return nil // a failed fetch must not abort sibling fetches
		})
	}

	_ = g.Wait()
	return NewFetchedResourceSet(results)
}

// fetchPage performs one paginated GET, charging exactly one API call
// against the budget. Throttling responses are retried internally with
// backoff and never surface to callers.
func (c *Client) fetchPage(ctx context.Context, req ResourceRequest, path string, offset int) ([]map[string]any, int, error) {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Acquire(ctx); err != nil {
			return nil, 0, err
		}
		if !c.chargeCall() {
			return nil, 0, ErrBudgetExceeded
		}

		records, total, status, err := c.doGET(ctx, req, path, offset)
		if status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable {
			wait := c.limiter.OnThrottled()
			slog.Debug("Throttled by deployment", "path", path, "backoff", wait)
			if attempt < throttleRetries {
				continue
			}
			return nil, 0, &TransportError{Request: req, StatusCode: status, Err: fmt.Errorf("throttled after %d retries", attempt+1)}
		}
		if err != nil {
			return nil, 0, err
		}

		c.limiter.OnSuccess()
		return records, total, nil
	}
}

// chargeCall increments the run counter, refusing once the hard cap
// would be exceeded. A zero cap means unlimited.
func (c *Client) chargeCall() bool {
	if c.maxAPICalls <= 0 {
		c.callsUsed.Add(1)
		return true
	}
	for {
		used := c.callsUsed.Load()
		if used >= c.maxAPICalls {
			return false
		}
		if c.callsUsed.CompareAndSwap(used, used+1) {
			return true
		}
	}
}

type pagedResponse struct {
	Items []map[string]any `json:"items"`
	Count int              `json:"count"`
}

func (c *Client) doGET(ctx context.Context, rreq ResourceRequest, path string, offset int) ([]map[string]any, int, int, error) {
	u := strings.TrimRight(c.deployment.BaseURL, "/") + path
	q := url.Values{}
	q.Set("offset", fmt.Sprint(offset))
	q.Set("limit", fmt.Sprint(c.pageSize))
	u += "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, 0, &TransportError{Request: rreq, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.deployment.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, 0, &TransportError{Request: rreq, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, 0, resp.StatusCode, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, 0, resp.StatusCode, &TransportError{Request: rreq, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, resp.StatusCode, &TransportError{Request: rreq, Err: err}
	}

	var paged pagedResponse
	if err := json.Unmarshal(body, &paged); err == nil && paged.Items != nil {
		return paged.Items, paged.Count, resp.StatusCode, nil
	}

	// Some endpoints return a bare array instead of the items envelope.
	var bare []map[string]any
	if err := json.Unmarshal(body, &bare); err != nil {
		return nil, 0, resp.StatusCode, &TransportError{Request: rreq, Err: fmt.Errorf("decode response: %w", err)}
	}
	return bare, len(bare), resp.StatusCode, nil
}

package cribl

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// ProductInfo is the result of the one-shot detection probe.
type ProductInfo struct {
	Product ProductType `json:"product"`
	Mode    HostingMode `json:"mode"`
	Version string      `json:"version"`
}

// systemInfo models the relevant slice of GET /api/v1/system/info.
type systemInfo struct {
	Items []struct {
		BuildInfo struct {
			Version string `json:"version"`
			Product string `json:"product"`
		} `json:"BUILD"`
		Deployment struct {
			Distributed bool   `json:"distributed"`
			Cloud       bool   `json:"cloud"`
			Mode        string `json:"mode"`
		} `json:"DEPLOYMENT"`
	} `json:"items"`
}

// Detect probes a deployment once to bind product type, hosting mode
// and version. The binding is never re-resolved mid-run, so a run
// stays internally consistent even when probing is flaky.
func Detect(ctx context.Context, httpClient *http.Client, baseURL, token string) (ProductInfo, error) {
	url := strings.TrimRight(baseURL, "/") + "/api/v1/system/info"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ProductInfo{}, fmt.Errorf("build probe request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := httpClient.Do(req)
	if err != nil {
		return ProductInfo{}, fmt.Errorf("probe %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return ProductInfo{}, fmt.Errorf("probe %s: HTTP %d", url, resp.StatusCode)
	}

	var info systemInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return ProductInfo{}, fmt.Errorf("decode probe response: %w", err)
	}
	if len(info.Items) == 0 {
		return ProductInfo{}, fmt.Errorf("probe %s: empty system info", url)
	}

	item := info.Items[0]
	detected := ProductInfo{
		Product: parseProduct(item.BuildInfo.Product),
		Mode:    ModeSelfHosted,
		Version: item.BuildInfo.Version,
	}
	if item.Deployment.Cloud {
		detected.Mode = ModeCloud
	}

	slog.Debug("Detected deployment",
		"product", detected.Product, "mode", detected.Mode, "version", detected.Version)
	return detected, nil
}

func parseProduct(s string) ProductType {
	switch strings.ToLower(s) {
	case "edge":
		return ProductEdge
	case "search":
		return ProductSearch
	case "lake":
		return ProductLake
	default:
		// Stream is the original product and the one older builds
		// report either as "stream" or not at all.
		return ProductStream
	}
}

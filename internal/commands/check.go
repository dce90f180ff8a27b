package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/KnottyDyes/cribl-hc-sub001/internal/analyzer"
	"github.com/KnottyDyes/cribl-hc-sub001/internal/cribl"
	"github.com/KnottyDyes/cribl-hc-sub001/internal/orchestrator"
	"github.com/KnottyDyes/cribl-hc-sub001/internal/report"
	"github.com/spf13/cobra"
)

const tokenEnvVar = "CRIBLHC_TOKEN"

var checkFlags struct {
	url         string
	token       string
	analyzers   []string
	maxAPICalls int
	timeout     time.Duration
	rate        float64
	burst       int
	maxPages    int
	format      string
	outputFile  string
	rulesFile   string
	workerGroup string
	product     string
	mode        string
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Analyze the health of a deployment",
	Long: `Check a deployment's health through its REST API. Fetches worker, pipeline,
routing, and system state under a shared API-call budget, runs the selected
analyzers concurrently, and reports findings with a weighted health score.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkFlags.url, "url", "", "Deployment base URL (e.g. https://leader.example.com:9000)")
	checkCmd.Flags().StringVar(&checkFlags.token, "token", "", "API bearer token (default: "+tokenEnvVar+" env var)")
	checkCmd.Flags().StringSliceVar(&checkFlags.analyzers, "analyzers", nil, "Comma-separated analyzer filter (default: all)")
	checkCmd.Flags().IntVar(&checkFlags.maxAPICalls, "max-api-calls", 100, "API call budget for the run (0 = unlimited)")
	checkCmd.Flags().DurationVar(&checkFlags.timeout, "timeout", 2*time.Minute, "Run deadline")
	checkCmd.Flags().Float64Var(&checkFlags.rate, "rate", 0, "Request rate limit per second (default: 10)")
	checkCmd.Flags().IntVar(&checkFlags.burst, "burst", 0, "Request burst size (default: 5)")
	checkCmd.Flags().IntVar(&checkFlags.maxPages, "max-pages", 0, "Pagination safety limit per resource (default: 20)")
	checkCmd.Flags().StringVar(&checkFlags.format, "format", "text", "Output format: text, json, sarif")
	checkCmd.Flags().StringVarP(&checkFlags.outputFile, "output", "o", "", "Output file path (default: stdout)")
	checkCmd.Flags().StringVar(&checkFlags.rulesFile, "rules", "", "Pipeline rule pack YAML file")
	checkCmd.Flags().StringVar(&checkFlags.workerGroup, "worker-group", "", "Worker group to inspect (default: default)")
	checkCmd.Flags().StringVar(&checkFlags.product, "product", "", "Skip detection: stream, edge, search, lake")
	checkCmd.Flags().StringVar(&checkFlags.mode, "mode", "", "Skip detection: cloud, self_hosted")
}

func runCheck(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if checkFlags.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, checkFlags.timeout)
		defer cancel()
	}

	// Apply config file defaults where flags were not explicitly set
	applyConfigDefaults()

	if checkFlags.url == "" {
		return fmt.Errorf("no deployment URL; use --url or set url in .criblhc.yaml")
	}
	token := resolveToken()
	if token == "" {
		return fmt.Errorf("no API token; use --token or set %s", tokenEnvVar)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}

	deployment, err := resolveDeployment(ctx, httpClient, token)
	if err != nil {
		return enhanceError("detect deployment", err)
	}
	slog.Info("Checking deployment",
		"product", deployment.Product, "mode", deployment.Mode, "version", deployment.Version)

	adapter := cribl.NewProductAdapter(deployment.Product, deployment.Mode, checkFlags.workerGroup)
	client := cribl.NewClient(deployment, adapter, cribl.ClientOptions{
		RatePerSecond: checkFlags.rate,
		RateBurst:     checkFlags.burst,
		MaxPages:      checkFlags.maxPages,
		MaxAPICalls:   checkFlags.maxAPICalls,
		HTTPClient:    httpClient,
	})

	registry, err := buildRegistry()
	if err != nil {
		return err
	}

	orch := orchestrator.New(registry, cfg.Weights)
	run, err := orch.Run(ctx, client, checkFlags.analyzers, orchestrator.Budget{
		MaxAPICalls: checkFlags.maxAPICalls,
	})
	if err != nil {
		return enhanceError("analyze deployment", err)
	}

	data := report.Data{
		Tool:      "cribl-hc",
		Version:   version,
		Timestamp: time.Now().UTC(),
		Target: report.Target{
			Type:    "cribl-deployment",
			Product: string(deployment.Product),
			Mode:    string(deployment.Mode),
			URIHash: computeTargetHash(checkFlags.url),
		},
		Config: report.ReportConfig{
			Analyzers:   checkFlags.analyzers,
			MaxAPICalls: checkFlags.maxAPICalls,
			Timeout:     checkFlags.timeout.String(),
		},
		Run:     run,
		Summary: report.BuildSummary(run),
	}

	reporter, err := selectReporter(checkFlags.format, checkFlags.outputFile)
	if err != nil {
		return err
	}
	if err := reporter.Generate(data); err != nil {
		return err
	}

	if run.Status == orchestrator.StatusFailed {
		return fmt.Errorf("analysis failed: no analyzer produced usable output")
	}
	return nil
}

// resolveToken prefers the flag so the env var stays overridable per run.
func resolveToken() string {
	if checkFlags.token != "" {
		return checkFlags.token
	}
	return os.Getenv(tokenEnvVar)
}

// resolveDeployment probes the API for product and hosting mode unless
// both were pinned on the command line.
func resolveDeployment(ctx context.Context, httpClient *http.Client, token string) (cribl.Deployment, error) {
	deployment := cribl.Deployment{
		ID:      computeTargetHash(checkFlags.url),
		BaseURL: checkFlags.url,
		Token:   token,
	}

	if checkFlags.product != "" && checkFlags.mode != "" {
		deployment.Product = cribl.ProductType(checkFlags.product)
		deployment.Mode = cribl.HostingMode(checkFlags.mode)
		return deployment, nil
	}

	info, err := cribl.Detect(ctx, httpClient, checkFlags.url, token)
	if err != nil {
		return cribl.Deployment{}, err
	}
	deployment.Product = info.Product
	deployment.Mode = info.Mode
	deployment.Version = info.Version

	if checkFlags.product != "" {
		deployment.Product = cribl.ProductType(checkFlags.product)
	}
	if checkFlags.mode != "" {
		deployment.Mode = cribl.HostingMode(checkFlags.mode)
	}
	return deployment, nil
}

func buildRegistry() (*analyzer.Registry, error) {
	var rules []analyzer.Rule
	if checkFlags.rulesFile != "" {
		loaded, err := analyzer.LoadRules(checkFlags.rulesFile)
		if err != nil {
			return nil, enhanceError("load rule pack", err)
		}
		rules = loaded
		slog.Debug("Loaded rule pack", "file", checkFlags.rulesFile, "rules", len(rules))
	}

	group := checkFlags.workerGroup
	if group == "" {
		group = "default"
	}

	return analyzer.NewRegistry(
		analyzer.NewWorkersAnalyzer(),
		analyzer.NewPipelinesAnalyzer(group, rules),
		analyzer.NewSystemAnalyzer(),
	)
}

func applyConfigDefaults() {
	if checkFlags.url == "" && cfg.URL != "" {
		checkFlags.url = cfg.URL
	}
	if len(checkFlags.analyzers) == 0 && len(cfg.Analyzers) > 0 {
		checkFlags.analyzers = cfg.Analyzers
	}
	if checkFlags.maxAPICalls == 100 && cfg.MaxAPICalls > 0 {
		checkFlags.maxAPICalls = cfg.MaxAPICalls
	}
	if checkFlags.timeout == 2*time.Minute && cfg.TimeoutDuration() > 0 {
		checkFlags.timeout = cfg.TimeoutDuration()
	}
	if checkFlags.rate == 0 && cfg.RatePerSecond > 0 {
		checkFlags.rate = cfg.RatePerSecond
	}
	if checkFlags.burst == 0 && cfg.RateBurst > 0 {
		checkFlags.burst = cfg.RateBurst
	}
	if checkFlags.maxPages == 0 && cfg.MaxPages > 0 {
		checkFlags.maxPages = cfg.MaxPages
	}
	if checkFlags.format == "text" && cfg.Format != "" {
		checkFlags.format = cfg.Format
	}
	if checkFlags.rulesFile == "" && cfg.RulesFile != "" {
		checkFlags.rulesFile = cfg.RulesFile
	}
	if checkFlags.workerGroup == "" && cfg.WorkerGroup != "" {
		checkFlags.workerGroup = cfg.WorkerGroup
	}
}

func selectReporter(format, outputFile string) (report.Reporter, error) {
	w := os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return nil, fmt.Errorf("create output file: %w", err)
		}
		w = f
	}
	return report.New(format, w)
}

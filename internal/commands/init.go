package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initFlags struct {
	force bool
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate sample config and rule pack",
	Long:  `Creates a sample .criblhc.yaml config file and a criblhc-rules.yaml pipeline rule pack.`,
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initFlags.force, "force", false, "Overwrite existing files")
}

func runInit(_ *cobra.Command, _ []string) error {
	configPath := ".criblhc.yaml"
	rulesPath := "criblhc-rules.yaml"

	if err := writeIfNotExists(configPath, sampleConfig, initFlags.force); err != nil {
		return err
	}
	if err := writeIfNotExists(rulesPath, sampleRules, initFlags.force); err != nil {
		return err
	}

	fmt.Printf("Created %s and %s\n", configPath, rulesPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit .criblhc.yaml to point at your deployment")
	fmt.Println("  2. Export " + tokenEnvVar + " with a read-only API token")
	fmt.Println("  3. Run: cribl-hc check")
	return nil
}

func writeIfNotExists(path, content string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			fmt.Printf("Skipping %s (already exists, use --force to overwrite)\n", path)
			return nil
		}
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return os.WriteFile(path, []byte(content), 0o644)
}

const sampleConfig = `# cribl-hc configuration

# Deployment base URL (the leader's API endpoint)
# url: https://leader.example.com:9000

# Analyzers to run (default: all)
# analyzers:
#   - workers
#   - pipelines
#   - system

# API call budget per run (0 = unlimited)
max_api_calls: 100

# Run deadline
timeout: 2m

# Request rate limiting
rate_per_second: 10
rate_burst: 5

# Pagination safety limit per resource
max_pages: 20

# Output format: text, json, or sarif
format: text

# Worker group to inspect
# worker_group: default

# Pipeline rule pack
# rules_file: criblhc-rules.yaml

# Health score component weights (must sum to 1.0)
# weights:
#   workers: 0.35
#   pipelines: 0.35
#   system: 0.30
`

const sampleRules = `# cribl-hc pipeline rule pack
#
# Supported match predicates:
#   no_functions           pipeline has no functions at all
#   all_functions_disabled every function in the pipeline is disabled
#   unrouted_pipeline      no route references the pipeline

rules:
  - id: BP001
    category: pipelines
    severity: medium
    match: no_functions
    description: Pipeline has no functions and passes data through unchanged

  - id: BP002
    category: pipelines
    severity: high
    match: all_functions_disabled
    description: Every function in the pipeline is disabled
    doc_url: https://docs.cribl.io/stream/pipelines

  - id: BP003
    category: pipelines
    severity: low
    match: unrouted_pipeline
    description: Pipeline is not referenced by any route
`

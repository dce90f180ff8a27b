package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds criblhc configuration loaded from .criblhc.yaml.
type Config struct {
	URL           string             `yaml:"url"`
	Analyzers     []string           `yaml:"analyzers"`
	MaxAPICalls   int                `yaml:"max_api_calls"`
	Timeout       string             `yaml:"timeout"`
	RatePerSecond float64            `yaml:"rate_per_second"`
	RateBurst     int                `yaml:"rate_burst"`
	MaxPages      int                `yaml:"max_pages"`
	Format        string             `yaml:"format"`
	RulesFile     string             `yaml:"rules_file"`
	Weights       map[string]float64 `yaml:"weights"`
	WorkerGroup   string             `yaml:"worker_group"`
}

// TimeoutDuration parses the timeout string as a duration.
func (c Config) TimeoutDuration() time.Duration {
	if c.Timeout == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Load searches for .criblhc.yaml or .criblhc.yml in the given directory
// and returns the parsed config. Returns an empty Config if no file is found.
func Load(dir string) (Config, error) {
	candidates := []string{
		filepath.Join(dir, ".criblhc.yaml"),
		filepath.Join(dir, ".criblhc.yml"),
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}

		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		return cfg, nil
	}

	return Config{}, nil
}

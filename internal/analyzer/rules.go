package analyzer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rule is one declarative best-practice record. Rules arrive already
// validated; analyzers consume them as data.
type Rule struct {
	ID          string   `yaml:"id" json:"id"`
	Category    Category `yaml:"category" json:"category"`
	Severity    Severity `yaml:"severity" json:"severity"`
	Match       string   `yaml:"match" json:"match"`
	Description string   `yaml:"description" json:"description"`
	DocURL      string   `yaml:"doc_url" json:"doc_url,omitempty"`
}

type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads best-practice rule records from a YAML file.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}

	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rules %s: %w", path, err)
	}

	for i, r := range f.Rules {
		if r.ID == "" {
			return nil, fmt.Errorf("rules %s: rule %d has no id", path, i)
		}
	}
	return f.Rules, nil
}

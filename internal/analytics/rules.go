package analytics

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// Keywords are the versioned classification keyword lists. They are domain
// configuration, not algorithm: lists changed across dashboard revisions and
// the rule set is tagged with the revision it was taken from.
type Keywords struct {
	DeepCommunication []string `yaml:"deep_communication"`
	InvalidData       []string `yaml:"invalid_data"`
	NoConnection      []string `yaml:"no_connection"`
}

type Thresholds struct {
	// NoConnectionRate is the whole-history unreachable cutoff
	// (strictly greater than).
	NoConnectionRate float64 `yaml:"no_connection_rate"`
	// WindowNoConnectionRate is the rolling-window cutoff; 1.0 means every
	// windowed note must hit a no-connection keyword.
	WindowNoConnectionRate float64 `yaml:"window_no_connection_rate"`
}

type RuleSet struct {
	Version    int        `yaml:"version"`
	WindowDays int        `yaml:"window_days"`
	Thresholds Thresholds `yaml:"thresholds"`
	Keywords   Keywords   `yaml:"keywords"`
}

func (r RuleSet) validate() error {
	if len(r.Keywords.DeepCommunication) == 0 ||
		len(r.Keywords.InvalidData) == 0 ||
		len(r.Keywords.NoConnection) == 0 {
		return fmt.Errorf("rule set v%d: empty keyword list", r.Version)
	}
	if r.Thresholds.NoConnectionRate <= 0 || r.Thresholds.NoConnectionRate > 1 {
		return fmt.Errorf("rule set v%d: no_connection_rate out of (0,1]", r.Version)
	}
	if r.Thresholds.WindowNoConnectionRate <= 0 || r.Thresholds.WindowNoConnectionRate > 1 {
		return fmt.Errorf("rule set v%d: window_no_connection_rate out of (0,1]", r.Version)
	}
	if r.WindowDays <= 0 {
		return fmt.Errorf("rule set v%d: window_days must be positive", r.Version)
	}
	return nil
}

// DefaultRules returns the embedded canonical rule set.
func DefaultRules() RuleSet {
	rs, err := parseRules(defaultRulesYAML)
	if err != nil {
		// The embedded file ships with the binary; failing to parse it is a
		// build defect, not a runtime condition.
		panic(err)
	}
	return rs
}

// LoadRules reads a rule set override from a YAML file.
func LoadRules(path string) (RuleSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("read rules file: %w", err)
	}
	return parseRules(raw)
}

func parseRules(raw []byte) (RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(raw, &rs); err != nil {
		return RuleSet{}, fmt.Errorf("parse rules yaml: %w", err)
	}
	if err := rs.validate(); err != nil {
		return RuleSet{}, err
	}
	return rs, nil
}

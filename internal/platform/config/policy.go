package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy holds the quiz and grading policy knobs. Deployments override the
// defaults with a YAML file pointed at by AUDITRANK_POLICY_PATH.
type Policy struct {
	Gate    GatePolicy    `yaml:"gate"`
	Grading GradingPolicy `yaml:"grading"`
	Tiers   []Tier        `yaml:"tiers"`
	// RoleCaps maps a role name to the highest tier it may select.
	// Roles absent from the map may select any tier.
	RoleCaps map[string]string `yaml:"role_caps"`
}

// GatePolicy configures the local keyword pre-check.
type GatePolicy struct {
	MinKeywordMatches int `yaml:"min_keyword_matches"`
}

// GradingPolicy configures the batch grading engine.
type GradingPolicy struct {
	MaxBatchSize int `yaml:"max_batch_size"`
	MaxRetries   int `yaml:"max_retries"`
}

// Tier maps a difficulty name to a question count. Count 0 means "all
// remaining questions" (admin only in the default policy).
type Tier struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

// DefaultPolicy returns the built-in policy matching the shipped product
// behavior: a 3-keyword gate and beginner/intermediate/advanced tiers with
// free roles capped at intermediate.
func DefaultPolicy() Policy {
	return Policy{
		Gate:    GatePolicy{MinKeywordMatches: 3},
		Grading: GradingPolicy{MaxBatchSize: 10, MaxRetries: 1},
		Tiers: []Tier{
			{Name: "beginner", Count: 1},
			{Name: "intermediate", Count: 3},
			{Name: "advanced", Count: 5},
			{Name: "all", Count: 0},
		},
		RoleCaps: map[string]string{
			"GUEST":  "intermediate",
			"MEMBER": "intermediate",
			"PRO":    "advanced",
		},
	}
}

// LoadPolicy reads a policy YAML file, filling unset fields from the
// defaults. An empty path returns the defaults unchanged.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("reading policy file: %w", err)
	}

	var loaded Policy
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return p, fmt.Errorf("parsing policy file: %w", err)
	}

	if loaded.Gate.MinKeywordMatches > 0 {
		p.Gate.MinKeywordMatches = loaded.Gate.MinKeywordMatches
	}
	if loaded.Grading.MaxBatchSize > 0 {
		p.Grading.MaxBatchSize = loaded.Grading.MaxBatchSize
	}
	if loaded.Grading.MaxRetries > 0 {
		p.Grading.MaxRetries = loaded.Grading.MaxRetries
	}
	if len(loaded.Tiers) > 0 {
		p.Tiers = loaded.Tiers
	}
	if len(loaded.RoleCaps) > 0 {
		p.RoleCaps = loaded.RoleCaps
	}

	return p, nil
}

// TierCount returns the question count for a named tier.
func (p Policy) TierCount(name string) (int, bool) {
	for _, t := range p.Tiers {
		if t.Name == name {
			return t.Count, true
		}
	}
	return 0, false
}

// TierAllowed reports whether a role may select the named tier. Tiers are
// ordered from easiest to hardest; a role capped at tier X may select X and
// anything before it.
func (p Policy) TierAllowed(role, tier string) bool {
	cap, capped := p.RoleCaps[role]
	if !capped {
		return true
	}
	for _, t := range p.Tiers {
		if t.Name == tier {
			return true
		}
		if t.Name == cap {
			return false
		}
	}
	return false
}

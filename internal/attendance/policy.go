package attendance

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// PolicySet holds the default shift policy and per-role overrides.
type PolicySet struct {
	Default Policy
	ByRole  map[string]Policy
}

// For returns the policy for role, falling back to the default.
func (ps PolicySet) For(role string) Policy {
	if p, ok := ps.ByRole[role]; ok {
		return p
	}
	if ps.Default.ShiftStart == "" {
		return DefaultPolicy()
	}
	return ps.Default
}

type policyFile struct {
	Default policyEntry            `yaml:"default"`
	Roles   map[string]policyEntry `yaml:"roles"`
}

type policyEntry struct {
	ShiftHours      float64 `yaml:"shift_hours"`
	ShiftStart      string  `yaml:"shift_start"`
	OnTimeTolerance string  `yaml:"on_time_tolerance"`
}

// LoadPolicies reads a YAML policy file. An empty path yields the default set.
// Role entries inherit unset fields from the file's default entry.
func LoadPolicies(path string) (PolicySet, error) {
	ps := PolicySet{Default: DefaultPolicy()}
	if path == "" {
		return ps, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return PolicySet{}, fmt.Errorf("policy: read file %s: %w", path, err)
	}
	return ParsePolicies(b)
}

// ParsePolicies decodes YAML policy content.
func ParsePolicies(b []byte) (PolicySet, error) {
	var f policyFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return PolicySet{}, fmt.Errorf("policy: parse yaml: %w", err)
	}

	def, err := f.Default.resolve(DefaultPolicy())
	if err != nil {
		return PolicySet{}, fmt.Errorf("policy: default: %w", err)
	}

	ps := PolicySet{Default: def, ByRole: make(map[string]Policy, len(f.Roles))}
	for role, entry := range f.Roles {
		if !ValidRole(role) {
			return PolicySet{}, fmt.Errorf("policy: roles.%s: %w", role, ErrInvalidRole)
		}
		p, err := entry.resolve(def)
		if err != nil {
			return PolicySet{}, fmt.Errorf("policy: roles.%s: %w", role, err)
		}
		ps.ByRole[role] = p
	}
	return ps, nil
}

func (e policyEntry) resolve(base Policy) (Policy, error) {
	p := base
	if e.ShiftHours != 0 {
		p.ShiftHours = e.ShiftHours
	}
	if e.ShiftStart != "" {
		p.ShiftStart = e.ShiftStart
	}
	if e.OnTimeTolerance != "" {
		d, err := time.ParseDuration(e.OnTimeTolerance)
		if err != nil {
			return Policy{}, fmt.Errorf("on_time_tolerance: %w", err)
		}
		p.OnTimeTolerance = d
	}

	if p.ShiftHours <= 0 {
		return Policy{}, fmt.Errorf("shift_hours must be positive, got %v", p.ShiftHours)
	}
	if _, ok := ParseClock(p.ShiftStart); !ok {
		return Policy{}, fmt.Errorf("shift_start %q is not HH:MM:SS", p.ShiftStart)
	}
	if p.OnTimeTolerance < 0 {
		return Policy{}, fmt.Errorf("on_time_tolerance must not be negative")
	}
	return p, nil
}

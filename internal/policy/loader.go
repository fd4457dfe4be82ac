package policy

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// File is the on-disk shape of a policy configuration.
type File struct {
	Policies []Policy `yaml:"policies" json:"policies"`
}

// Load reads a policy file, normalizes its conditions and returns the
// policies sorted by ascending priority. The sort is stable so equal
// priorities keep their declaration order. Structural problems (unknown
// operators or actions, missing IDs) are configuration errors and fail
// the load.
func Load(path string) ([]Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse policy file %s: %w", path, err)
	}

	if len(f.Policies) == 0 {
		return nil, fmt.Errorf("policy file %s: no policies defined", path)
	}

	for i := range f.Policies {
		if err := normalize(&f.Policies[i]); err != nil {
			return nil, fmt.Errorf("policy file %s: %w", path, err)
		}
	}

	sort.SliceStable(f.Policies, func(i, j int) bool {
		return f.Policies[i].Priority < f.Policies[j].Priority
	})

	return f.Policies, nil
}

func normalize(p *Policy) error {
	if p.ID == "" {
		return fmt.Errorf("policy %q: missing id", p.Name)
	}
	if !ValidAction(p.Action) {
		return fmt.Errorf("policy %s: invalid action %q", p.ID, p.Action)
	}

	for key, cond := range p.Conditions {
		op, err := ParseOperator(string(cond.Operator))
		if err != nil {
			return fmt.Errorf("policy %s, condition %s: %w", p.ID, key, err)
		}
		cond.Operator = op
		p.Conditions[key] = cond
	}

	return nil
}

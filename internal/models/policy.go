package models

import "fmt"

type ToleranceMode string

const (
	ToleranceExact    ToleranceMode = "exact"
	ToleranceRelative ToleranceMode = "relative"
)

// ToleranceSpec: Exact(epsilon) либо Relative(factor), bound = factor * |claimed|.
type ToleranceSpec struct {
	Mode  ToleranceMode `json:"mode" yaml:"mode" mapstructure:"mode" validate:"oneof=exact relative"`
	Value float32       `json:"value" yaml:"value" mapstructure:"value" validate:"gte=0"`
}

func Exact(epsilon float32) ToleranceSpec {
	return ToleranceSpec{Mode: ToleranceExact, Value: epsilon}
}

func Relative(factor float32) ToleranceSpec {
	return ToleranceSpec{Mode: ToleranceRelative, Value: factor}
}

func (t ToleranceSpec) String() string {
	return fmt.Sprintf("%s(%g)", t.Mode, t.Value)
}

type CommitMode string

const (
	// CommitBoolean: в журнал попадает только флаг принятия.
	CommitBoolean CommitMode = "boolean"
	// CommitNumeric: в журнал попадает посчитанный PnL.
	CommitNumeric CommitMode = "numeric"
)

// PolicyConfig parameterises the single verification policy.
type PolicyConfig struct {
	Name      string        `json:"name" yaml:"name" mapstructure:"name" validate:"required"`
	Leverage  bool          `json:"leverage" yaml:"leverage" mapstructure:"leverage"`
	Tolerance ToleranceSpec `json:"tolerance" yaml:"tolerance" mapstructure:"tolerance"`
	Commit    CommitMode    `json:"commit" yaml:"commit" mapstructure:"commit" validate:"oneof=boolean numeric"`
}

// Arity is the number of input values the policy reads.
func (c PolicyConfig) Arity() int {
	if c.Leverage {
		return 4
	}
	return 3
}

func (c PolicyConfig) String() string {
	return fmt.Sprintf("%s[leverage=%t tolerance=%s commit=%s]", c.Name, c.Leverage, c.Tolerance, c.Commit)
}

const (
	PolicyExact          = "exact"
	PolicyExactLeveraged = "exact-leveraged"
	PolicyRelative       = "relative"
	PolicyLeveraged      = "leveraged"
)

// DefaultPolicies covers every leverage/tolerance combination the bot ships with.
func DefaultPolicies() []PolicyConfig {
	return []PolicyConfig{
		{Name: PolicyExact, Leverage: false, Tolerance: Exact(0.0001), Commit: CommitNumeric},
		{Name: PolicyExactLeveraged, Leverage: true, Tolerance: Exact(0.0001), Commit: CommitNumeric},
		{Name: PolicyRelative, Leverage: false, Tolerance: Relative(0.15), Commit: CommitBoolean},
		{Name: PolicyLeveraged, Leverage: true, Tolerance: Relative(0.15), Commit: CommitBoolean},
	}
}

// FindPolicy ищет политику по имени.
func FindPolicy(policies []PolicyConfig, name string) (PolicyConfig, bool) {
	for _, p := range policies {
		if p.Name == name {
			return p, true
		}
	}
	return PolicyConfig{}, false
}

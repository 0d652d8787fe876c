// Package matcher scores funding programs against organization profiles
// using a twelve-factor rubric with hard eligibility gates, soft flags, and
// generated Korean-language explanations.
package matcher

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
)

// FactorWeight is one sub-factor's raw ceiling and its partial-credit value,
// granted when the program specifies no requirement for that dimension.
// Over 90% of production programs omit most eligibility fields; granting
// full marks for "no requirement" would destroy ranking differentiation.
type FactorWeight struct {
	Max     float64 `yaml:"max" mapstructure:"max"`
	Partial float64 `yaml:"partial" mapstructure:"partial"`
}

// Weights holds the twelve sub-factor weights.
type Weights struct {
	CompanyScale    FactorWeight `yaml:"company_scale" mapstructure:"company_scale"`
	Revenue         FactorWeight `yaml:"revenue" mapstructure:"revenue"`
	Employee        FactorWeight `yaml:"employee" mapstructure:"employee"`
	BusinessAge     FactorWeight `yaml:"business_age" mapstructure:"business_age"`
	Region          FactorWeight `yaml:"region" mapstructure:"region"`
	Certification   FactorWeight `yaml:"certification" mapstructure:"certification"`
	BizType         FactorWeight `yaml:"biz_type" mapstructure:"biz_type"`
	Lifecycle       FactorWeight `yaml:"lifecycle" mapstructure:"lifecycle"`
	IndustryContent FactorWeight `yaml:"industry_content" mapstructure:"industry_content"`
	Deadline        FactorWeight `yaml:"deadline" mapstructure:"deadline"`
	Financial       FactorWeight `yaml:"financial" mapstructure:"financial"`
	SupportType     FactorWeight `yaml:"support_type" mapstructure:"support_type"`
}

// Config configures the scoring rubric. Passing it explicitly (rather than
// package globals) keeps runs with overridden weights deterministic and
// testable.
type Config struct {
	Weights    Weights `yaml:"weights" mapstructure:"weights"`
	RawCeiling float64 `yaml:"raw_ceiling" mapstructure:"raw_ceiling"`
}

// DefaultConfig returns the production rubric. Factor maxima sum to the raw
// ceiling of 150; the normalized score is round(raw/150*100).
func DefaultConfig() Config {
	return Config{
		RawCeiling: 150,
		Weights: Weights{
			CompanyScale:    FactorWeight{Max: 20, Partial: 10},
			Revenue:         FactorWeight{Max: 15, Partial: 7},
			Employee:        FactorWeight{Max: 10, Partial: 5},
			BusinessAge:     FactorWeight{Max: 10, Partial: 5},
			Region:          FactorWeight{Max: 10, Partial: 7}, // nationwide is "open", not "matched"
			Certification:   FactorWeight{Max: 5, Partial: 0},  // bonus-only
			BizType:         FactorWeight{Max: 28, Partial: 8},
			Lifecycle:       FactorWeight{Max: 2, Partial: 1},
			IndustryContent: FactorWeight{Max: 30, Partial: 8},
			Deadline:        FactorWeight{Max: 15, Partial: 5},
			Financial:       FactorWeight{Max: 2, Partial: 1},
			SupportType:     FactorWeight{Max: 3, Partial: 1},
		},
	}
}

// factorList returns name/weight pairs for validation and explanation.
func (w Weights) factorList() []struct {
	Name   string
	Weight FactorWeight
} {
	return []struct {
		Name   string
		Weight FactorWeight
	}{
		{"company_scale", w.CompanyScale},
		{"revenue", w.Revenue},
		{"employee", w.Employee},
		{"business_age", w.BusinessAge},
		{"region", w.Region},
		{"certification", w.Certification},
		{"biz_type", w.BizType},
		{"lifecycle", w.Lifecycle},
		{"industry_content", w.IndustryContent},
		{"deadline", w.Deadline},
		{"financial", w.Financial},
		{"support_type", w.SupportType},
	}
}

// ValidateConfig checks that a rubric is internally consistent.
func ValidateConfig(c Config) error {
	var errs []string

	if c.RawCeiling <= 0 {
		errs = append(errs, "raw_ceiling must be > 0")
	}

	var sum float64
	for _, f := range c.Weights.factorList() {
		if f.Weight.Max <= 0 {
			errs = append(errs, fmt.Sprintf("%s max must be > 0", f.Name))
		}
		if f.Weight.Partial < 0 || f.Weight.Partial >= f.Weight.Max {
			errs = append(errs, fmt.Sprintf("%s partial must be in [0, max)", f.Name))
		}
		sum += f.Weight.Max
	}

	// Factor maxima must sum to the ceiling, otherwise normalization skews.
	if c.RawCeiling > 0 && math.Abs(sum-c.RawCeiling) > 0.001 {
		errs = append(errs, fmt.Sprintf("factor maxima sum to %.1f, want raw_ceiling %.1f", sum, c.RawCeiling))
	}

	if len(errs) > 0 {
		return eris.Errorf("matcher: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

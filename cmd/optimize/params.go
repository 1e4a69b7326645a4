// Package main provides CMA-ES optimization for ecosystem parameters.
package main

import (
	"github.com/pthm-cable/ecosystem/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value

	field func(*config.Config) *float64
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// archetypeField addresses a field of the named archetype.
func archetypeField(name string, f func(*config.ArchetypeConfig) *float64) func(*config.Config) *float64 {
	return func(c *config.Config) *float64 {
		idx, ok := c.Derived.ArchetypeIndex[name]
		if !ok {
			return nil
		}
		return f(&c.Archetypes[idx])
	}
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Food
			{Name: "food_energy", Path: "food.energy", Min: 0.1, Max: 1.0, Default: 0.4,
				field: func(c *config.Config) *float64 { return &c.Food.Energy }},
			{Name: "food_regrow_rate", Path: "food.regrow_rate", Min: 0.005, Max: 0.1, Default: 0.02,
				field: func(c *config.Config) *float64 { return &c.Food.RegrowRate }},
			{Name: "food_spawn_rate", Path: "food.spawn_rate", Min: 0.2, Max: 5.0, Default: 1.5,
				field: func(c *config.Config) *float64 { return &c.Food.SpawnRate }},
			// Feeding
			{Name: "graze_rate", Path: "energy.graze_rate", Min: 0.1, Max: 1.5, Default: 0.5,
				field: func(c *config.Config) *float64 { return &c.Energy.GrazeRate }},
			{Name: "bite_damage", Path: "energy.bite_damage", Min: 0.1, Max: 0.6, Default: 0.3,
				field: func(c *config.Config) *float64 { return &c.Energy.BiteDamage }},
			{Name: "transfer_eff", Path: "energy.transfer_efficiency", Min: 0.4, Max: 1.0, Default: 0.8,
				field: func(c *config.Config) *float64 { return &c.Energy.TransferEfficiency }},
			{Name: "digest_factor", Path: "energy.digest_factor", Min: 0.5, Max: 5.0, Default: 2.0,
				field: func(c *config.Config) *float64 { return &c.Energy.DigestFactor }},
			// Metabolism
			{Name: "herb_base_cost", Path: "archetypes.herbivore.base_cost", Min: 0.002, Max: 0.05, Default: 0.012,
				field: archetypeField("herbivore", func(a *config.ArchetypeConfig) *float64 { return &a.BaseCost })},
			{Name: "herb_move_cost", Path: "archetypes.herbivore.move_cost", Min: 0.005, Max: 0.08, Default: 0.02,
				field: archetypeField("herbivore", func(a *config.ArchetypeConfig) *float64 { return &a.MoveCost })},
			{Name: "carn_base_cost", Path: "archetypes.carnivore.base_cost", Min: 0.002, Max: 0.05, Default: 0.01,
				field: archetypeField("carnivore", func(a *config.ArchetypeConfig) *float64 { return &a.BaseCost })},
			{Name: "carn_move_cost", Path: "archetypes.carnivore.move_cost", Min: 0.005, Max: 0.08, Default: 0.025,
				field: archetypeField("carnivore", func(a *config.ArchetypeConfig) *float64 { return &a.MoveCost })},
			// Reproduction
			{Name: "repro_threshold", Path: "reproduction.threshold", Min: 0.5, Max: 0.95, Default: 0.8,
				field: func(c *config.Config) *float64 { return &c.Reproduction.Threshold }},
			{Name: "maturity_age", Path: "reproduction.maturity_age", Min: 2.0, Max: 15.0, Default: 6.0,
				field: func(c *config.Config) *float64 { return &c.Reproduction.MaturityAge }},
			{Name: "repro_cooldown", Path: "reproduction.cooldown", Min: 3.0, Max: 20.0, Default: 8.0,
				field: func(c *config.Config) *float64 { return &c.Reproduction.Cooldown }},
			{Name: "parent_cost", Path: "reproduction.parent_cost", Min: 0.2, Max: 0.7, Default: 0.45,
				field: func(c *config.Config) *float64 { return &c.Reproduction.ParentCost }},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	for i, spec := range pv.Specs {
		if p := spec.field(cfg); p != nil {
			*p = clamped[i]
		}
	}
}

// ExtractFromConfig reads the current parameter values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		if p := spec.field(cfg); p != nil {
			v[i] = *p
		}
	}
	return v
}

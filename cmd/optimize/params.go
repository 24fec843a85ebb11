package main

import (
	"github.com/pthm-cable/biosphere/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Metabolism
			{Name: "base_metabolic_cost", Path: "creature.base_metabolic_cost", Min: 0.01, Max: 0.08, Default: 0.03},
			{Name: "move_cost", Path: "creature.move_cost", Min: 0.01, Max: 0.10, Default: 0.04},
			// Reproduction
			{Name: "min_reproduction_energy", Path: "creature.min_reproduction_energy", Min: 40, Max: 90, Default: 60},
			{Name: "reproduction_cost", Path: "creature.reproduction_cost", Min: 10, Max: 40, Default: 25},
			{Name: "offspring_efficiency", Path: "creature.offspring_efficiency", Min: 0.5, Max: 1.0, Default: 0.8},
			{Name: "reproduction_cooldown", Path: "creature.reproduction_cooldown", Min: 100, Max: 600, Default: 300},
			// Resources
			{Name: "plant_spawn_rate", Path: "environment.plant_spawn_rate", Min: 0.5, Max: 5.0, Default: 2.0},
			{Name: "plant_energy", Path: "environment.plant_energy", Min: 5, Max: 30, Default: 15},
			// Combat
			{Name: "damage_factor", Path: "combat.damage_factor", Min: 10, Max: 40, Default: 25},
			{Name: "predation_energy", Path: "combat.predation_energy", Min: 10, Max: 50, Default: 30},
			// Population pressure
			{Name: "target_population", Path: "environment.carrying_capacity.target_population", Min: 150, Max: 380, Default: 300},
			{Name: "density_stress_factor", Path: "environment.carrying_capacity.density_stress_factor", Min: 0, Max: 0.01, Default: 0.002},
			{Name: "mortality_rate", Path: "environment.carrying_capacity.mortality_rate", Min: 0, Max: 0.1, Default: 0.02},
			{Name: "resource_scaling_factor", Path: "environment.carrying_capacity.resource_scaling_factor", Min: 0, Max: 2.0, Default: 1.0},
			{Name: "stress_radius", Path: "environment.carrying_capacity.stress_radius", Min: 10, Max: 100, Default: 40},
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

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	i := 0

	// Metabolism
	cfg.Creature.BaseMetabolicCost = clamped[i]; i++
	cfg.Creature.MoveCost = clamped[i]; i++

	// Reproduction
	cfg.Creature.MinReproductionEnergy = clamped[i]; i++
	cfg.Creature.ReproductionCost = clamped[i]; i++
	cfg.Creature.OffspringEfficiency = clamped[i]; i++
	cfg.Creature.ReproductionCooldown = int(clamped[i]); i++

	// Resources
	cfg.Environment.PlantSpawnRate = clamped[i]; i++
	cfg.Environment.PlantEnergy = clamped[i]; i++

	// Combat
	cfg.Combat.DamageFactor = clamped[i]; i++
	cfg.Combat.PredationEnergy = clamped[i]; i++

	// Population pressure (max_population stays at the base value)
	cc := &cfg.Environment.CarryingCapacity
	cc.TargetPopulation = min(int(clamped[i]), cc.MaxPopulation); i++
	cc.DensityStressFactor = clamped[i]; i++
	cc.MortalityRate = clamped[i]; i++
	cc.ResourceScalingFactor = clamped[i]; i++
	cc.StressRadius = clamped[i]
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	cc := cfg.Environment.CarryingCapacity
	return []float64{
		cfg.Creature.BaseMetabolicCost,
		cfg.Creature.MoveCost,
		cfg.Creature.MinReproductionEnergy,
		cfg.Creature.ReproductionCost,
		cfg.Creature.OffspringEfficiency,
		float64(cfg.Creature.ReproductionCooldown),
		cfg.Environment.PlantSpawnRate,
		cfg.Environment.PlantEnergy,
		cfg.Combat.DamageFactor,
		cfg.Combat.PredationEnergy,
		float64(cc.TargetPopulation),
		cc.DensityStressFactor,
		cc.MortalityRate,
		cc.ResourceScalingFactor,
		cc.StressRadius,
	}
}

package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for values that would make the
// simulation meaningless, including the three population limits, which
// must nest: target <= carrying-capacity max <= driver max.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	sim := c.Simulation
	check(sim.WorldWidth > 0 && sim.WorldHeight > 0,
		"simulation.world_width/height must be positive, got %gx%g", sim.WorldWidth, sim.WorldHeight)
	check(sim.MaxPopulation > 0, "simulation.max_population must be positive, got %d", sim.MaxPopulation)
	check(sim.InitialPopulation >= 0 && sim.InitialPopulation <= sim.MaxPopulation,
		"simulation.initial_population %d must be within [0, max_population %d]", sim.InitialPopulation, sim.MaxPopulation)
	check(sim.TargetTickRate >= 0, "simulation.target_tick_rate must not be negative")

	env := c.Environment
	switch env.Bounds.Shape {
	case "rect":
		check(env.Bounds.Width > 0 && env.Bounds.Height > 0,
			"environment.bounds width/height must be positive, got %gx%g", env.Bounds.Width, env.Bounds.Height)
	case "circle":
		check(env.Bounds.Radius > 0, "environment.bounds.radius must be positive, got %g", env.Bounds.Radius)
	default:
		errs = append(errs, fmt.Errorf("environment.bounds.shape %q must be rect or circle", env.Bounds.Shape))
	}
	check(env.CellSize > 0, "environment.cell_size must be positive, got %g", env.CellSize)
	check(env.MaxFood >= 0 && env.MaxPrey >= 0 && env.MaxMushrooms >= 0, "environment food caps must not be negative")
	check(env.PlantSpawnRate >= 0 && env.MushroomSpawnRate >= 0 && env.PreySpawnRate >= 0,
		"environment spawn rates must not be negative")
	check(env.FoodSize > 0, "environment.food_size must be positive")

	if cc := env.CarryingCapacity; cc.Enabled {
		check(cc.TargetPopulation > 0, "carrying_capacity.target_population must be positive, got %d", cc.TargetPopulation)
		check(cc.TargetPopulation <= cc.MaxPopulation,
			"carrying_capacity.target_population %d exceeds max_population %d", cc.TargetPopulation, cc.MaxPopulation)
		check(cc.MaxPopulation <= sim.MaxPopulation,
			"carrying_capacity.max_population %d exceeds simulation.max_population %d", cc.MaxPopulation, sim.MaxPopulation)
		check(cc.MortalityRate >= 0 && cc.MortalityRate <= 1,
			"carrying_capacity.mortality_rate must be within [0,1], got %g", cc.MortalityRate)
		check(cc.DensityStressFactor >= 0, "carrying_capacity.density_stress_factor must not be negative")
		check(cc.ResourceScalingFactor >= 0, "carrying_capacity.resource_scaling_factor must not be negative")
		check(cc.StressRadius > 0, "carrying_capacity.stress_radius must be positive")
	}

	cr := c.Creature
	for _, th := range []struct {
		name string
		v    float64
	}{
		{"eat_threshold", cr.EatThreshold},
		{"attack_threshold", cr.AttackThreshold},
		{"reproduce_threshold", cr.ReproduceThreshold},
	} {
		check(th.v >= 0 && th.v <= 1, "creature.%s must be within [0,1], got %g", th.name, th.v)
	}
	check(cr.InitialEnergy > 0 && cr.InitialEnergy <= 100, "creature.initial_energy must be within (0,100]")
	check(cr.SpeciesThreshold > 0, "creature.species_threshold must be positive")
	check(cr.MinReproductionEnergy >= cr.ReproductionCost,
		"creature.min_reproduction_energy %g must cover reproduction_cost %g", cr.MinReproductionEnergy, cr.ReproductionCost)

	check(c.Carrion.DecayTicks > 0, "carrion.decay_ticks must be positive")
	check(c.Carrion.ResidualFraction >= 0 && c.Carrion.ResidualFraction <= 1,
		"carrion.residual_fraction must be within [0,1]")

	for i, n := range c.Neural.HiddenLayers {
		check(n > 0, "neural.hidden_layers[%d] must be positive, got %d", i, n)
	}
	check(c.Telemetry.StatsWindow > 0, "telemetry.stats_window must be positive")

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

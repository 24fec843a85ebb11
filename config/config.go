// Package config provides configuration loading and validation for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all simulation configuration parameters.
type Config struct {
	Simulation  SimulationConfig  `yaml:"simulation" toml:"simulation"`
	Environment EnvironmentConfig `yaml:"environment" toml:"environment"`
	Creature    CreatureConfig    `yaml:"creature" toml:"creature"`
	Combat      CombatConfig      `yaml:"combat" toml:"combat"`
	Feeding     FeedingConfig     `yaml:"feeding" toml:"feeding"`
	Carrion     CarrionConfig     `yaml:"carrion" toml:"carrion"`
	Mutation    MutationConfig    `yaml:"mutation" toml:"mutation"`
	Neural      NeuralConfig      `yaml:"neural" toml:"neural"`
	Fitness     FitnessConfig     `yaml:"fitness" toml:"fitness"`
	Telemetry   TelemetryConfig   `yaml:"telemetry" toml:"telemetry"`
}

// SimulationConfig holds the tick driver's knobs.
type SimulationConfig struct {
	InitialPopulation int     `yaml:"initial_population" toml:"initial_population"`
	MaxPopulation     int     `yaml:"max_population" toml:"max_population"` // Driver cap; carrying capacity must fit under it
	WorldWidth        float64 `yaml:"world_width" toml:"world_width"`
	WorldHeight       float64 `yaml:"world_height" toml:"world_height"`
	TargetTickRate    float64 `yaml:"target_tick_rate" toml:"target_tick_rate"` // Ticks per second, 0 = unthrottled
	MaxTicks          int64   `yaml:"max_ticks" toml:"max_ticks"`               // 0 = run until stopped
	Seed              int64   `yaml:"seed" toml:"seed"`                         // 0 = time-based
}

// BoundsConfig describes the world boundary.
type BoundsConfig struct {
	Shape   string  `yaml:"shape" toml:"shape"` // "rect" or "circle"
	Width   float64 `yaml:"width" toml:"width"` // 0 = simulation.world_width
	Height  float64 `yaml:"height" toml:"height"`
	CenterX float64 `yaml:"center_x" toml:"center_x"` // circle only, 0 = world center
	CenterY float64 `yaml:"center_y" toml:"center_y"`
	Radius  float64 `yaml:"radius" toml:"radius"` // circle only, 0 = half the shorter side
}

// CarryingCapacityConfig holds the population-pressure controller parameters.
type CarryingCapacityConfig struct {
	Enabled               bool    `yaml:"enabled" toml:"enabled"`
	TargetPopulation      int     `yaml:"target_population" toml:"target_population"`
	MaxPopulation         int     `yaml:"max_population" toml:"max_population"`
	DensityStressFactor   float64 `yaml:"density_stress_factor" toml:"density_stress_factor"` // Energy drain per neighbour per tick
	MortalityRate         float64 `yaml:"mortality_rate" toml:"mortality_rate"`
	ResourceScalingFactor float64 `yaml:"resource_scaling_factor" toml:"resource_scaling_factor"`
	StressRadius          float64 `yaml:"stress_radius" toml:"stress_radius"`
}

// EnvironmentConfig holds world, resource and pressure parameters.
type EnvironmentConfig struct {
	Bounds            BoundsConfig           `yaml:"bounds" toml:"bounds"`
	Biome             string                 `yaml:"biome" toml:"biome"`
	CellSize          float64                `yaml:"cell_size" toml:"cell_size"`
	MaxFood           int                    `yaml:"max_food" toml:"max_food"`
	MaxMushrooms      int                    `yaml:"max_mushrooms" toml:"max_mushrooms"`
	MaxPrey           int                    `yaml:"max_prey" toml:"max_prey"`
	InitialFood       int                    `yaml:"initial_food" toml:"initial_food"`
	PlantSpawnRate    float64                `yaml:"plant_spawn_rate" toml:"plant_spawn_rate"` // Expected spawns per tick with an empty stock
	MushroomSpawnRate float64                `yaml:"mushroom_spawn_rate" toml:"mushroom_spawn_rate"`
	PreySpawnRate     float64                `yaml:"prey_spawn_rate" toml:"prey_spawn_rate"`
	PlantEnergy       float64                `yaml:"plant_energy" toml:"plant_energy"`
	MushroomEnergy    float64                `yaml:"mushroom_energy" toml:"mushroom_energy"`
	PreyEnergy        float64                `yaml:"prey_energy" toml:"prey_energy"`
	FoodSize          float64                `yaml:"food_size" toml:"food_size"`
	PreySpeed         float64                `yaml:"prey_speed" toml:"prey_speed"`
	FertilityScale    float64                `yaml:"fertility_scale" toml:"fertility_scale"` // Noise frequency of the plant fertility field
	SeasonLength      int64                  `yaml:"season_length" toml:"season_length"`     // Ticks per seasonal cycle
	Obstacles         int                    `yaml:"obstacles" toml:"obstacles"`
	WaterSources      int                    `yaml:"water_sources" toml:"water_sources"`
	Shelters          int                    `yaml:"shelters" toml:"shelters"`
	FeatureRadius     float64                `yaml:"feature_radius" toml:"feature_radius"`
	WaterHealRate     float64                `yaml:"water_heal_rate" toml:"water_heal_rate"` // Health per tick inside water
	CarryingCapacity  CarryingCapacityConfig `yaml:"carrying_capacity" toml:"carrying_capacity"`
}

// CreatureConfig holds agent thresholds and costs.
type CreatureConfig struct {
	InitialEnergy         float64 `yaml:"initial_energy" toml:"initial_energy"`
	BaseMetabolicCost     float64 `yaml:"base_metabolic_cost" toml:"base_metabolic_cost"`
	MoveCost              float64 `yaml:"move_cost" toml:"move_cost"`
	EatThreshold          float64 `yaml:"eat_threshold" toml:"eat_threshold"`
	AttackThreshold       float64 `yaml:"attack_threshold" toml:"attack_threshold"`
	ReproduceThreshold    float64 `yaml:"reproduce_threshold" toml:"reproduce_threshold"`
	MinReproductionEnergy float64 `yaml:"min_reproduction_energy" toml:"min_reproduction_energy"`
	ReproductionCost      float64 `yaml:"reproduction_cost" toml:"reproduction_cost"`         // Paid by each parent
	OffspringEfficiency   float64 `yaml:"offspring_efficiency" toml:"offspring_efficiency"`   // Fraction of paid energy the child receives
	ReproductionCooldown  int     `yaml:"reproduction_cooldown" toml:"reproduction_cooldown"` // Ticks, scaled down by fertility
	MateRange             float64 `yaml:"mate_range" toml:"mate_range"`                       // Gap allowed between bodies
	SpawnOffset           float64 `yaml:"spawn_offset" toml:"spawn_offset"`
	AttackCooldown        int     `yaml:"attack_cooldown" toml:"attack_cooldown"`
	HealthRegen           float64 `yaml:"health_regen" toml:"health_regen"`
	RegenEnergyThreshold  float64 `yaml:"regen_energy_threshold" toml:"regen_energy_threshold"`
	SpeciesThreshold      float64 `yaml:"species_threshold" toml:"species_threshold"`
	DensityRadius         float64 `yaml:"density_radius" toml:"density_radius"`     // Radius for the density sensor
	DensityNormalize      float64 `yaml:"density_normalize" toml:"density_normalize"` // Neighbour count that reads as 1
}

// CombatConfig holds combat resolution parameters.
type CombatConfig struct {
	DamageFactor        float64 `yaml:"damage_factor" toml:"damage_factor"`           // damage = power * size * this
	AttackCostFactor    float64 `yaml:"attack_cost_factor" toml:"attack_cost_factor"` // attacker pays power * this
	MissCost            float64 `yaml:"miss_cost" toml:"miss_cost"`                   // out-of-range attempt
	PredationEnergy     float64 `yaml:"predation_energy" toml:"predation_energy"`     // per unit of victim size
	ShelterDamageFactor float64 `yaml:"shelter_damage_factor" toml:"shelter_damage_factor"`
}

// FeedingConfig holds feeding resolution parameters.
type FeedingConfig struct {
	Margin   float64 `yaml:"margin" toml:"margin"`
	MissCost float64 `yaml:"miss_cost" toml:"miss_cost"`
}

// CarrionConfig holds decay parameters.
type CarrionConfig struct {
	DecayTicks       int64   `yaml:"decay_ticks" toml:"decay_ticks"`
	ResidualFraction float64 `yaml:"residual_fraction" toml:"residual_fraction"` // Energy left at full decay
	EnergyFraction   float64 `yaml:"energy_fraction" toml:"energy_fraction"`     // Share of the creature's energy kept
	SizeEnergy       float64 `yaml:"size_energy" toml:"size_energy"`             // Energy per unit of body size
}

// MutationConfig holds mutation parameters applied at birth.
type MutationConfig struct {
	GeneticStrength float64 `yaml:"genetic_strength" toml:"genetic_strength"`
	BrainRate       float64 `yaml:"brain_rate" toml:"brain_rate"`
	BrainStrength   float64 `yaml:"brain_strength" toml:"brain_strength"`
}

// NeuralConfig holds neural network parameters.
type NeuralConfig struct {
	HiddenLayers []int `yaml:"hidden_layers" toml:"hidden_layers"` // Sizes of hidden layers, e.g. [12]
}

// FitnessConfig weights the fitness score.
type FitnessConfig struct {
	SurvivalWeight  float64 `yaml:"survival_weight" toml:"survival_weight"`
	OffspringWeight float64 `yaml:"offspring_weight" toml:"offspring_weight"`
	FoodWeight      float64 `yaml:"food_weight" toml:"food_weight"`
	KillsWeight     float64 `yaml:"kills_weight" toml:"kills_weight"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow int64  `yaml:"stats_window" toml:"stats_window"` // Ticks per stats window
	PerfWindow  int    `yaml:"perf_window" toml:"perf_window"`   // Ticks kept by the perf collector
	OutputDir   string `yaml:"output_dir" toml:"output_dir"`
	EventLog    string `yaml:"event_log" toml:"event_log"` // zstd JSONL file, empty = off
}

// Load loads configuration from a YAML or TOML file, merging with embedded
// defaults. If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Decode into the same struct - only overwrites fields present in file
		if strings.EqualFold(filepath.Ext(path), ".toml") {
			if _, err := toml.Decode(string(data), cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad is like Load but panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("config: failed to load: %v", err))
	}
	return cfg
}

// Default returns the embedded defaults.
func Default() *Config {
	return MustLoad("")
}

// computeDerived fills values left at zero from related settings.
func (c *Config) computeDerived() {
	b := &c.Environment.Bounds
	if b.Shape == "" {
		b.Shape = "rect"
	}
	if b.Width == 0 {
		b.Width = c.Simulation.WorldWidth
	}
	if b.Height == 0 {
		b.Height = c.Simulation.WorldHeight
	}
	if b.CenterX == 0 && b.CenterY == 0 {
		b.CenterX = b.Width / 2
		b.CenterY = b.Height / 2
	}
	if b.Radius == 0 {
		b.Radius = min(b.Width, b.Height) / 2
	}
}

// Clone returns a deep copy, safe to modify independently.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Neural.HiddenLayers = append([]int(nil), c.Neural.HiddenLayers...)
	return &clone
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

package main

import (
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/biosphere/config"
	"github.com/pthm-cable/biosphere/game"
	"github.com/pthm-cable/biosphere/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	maxTicks    int64
	seeds       []int64
	baseConfig  *config.Config
	statsWindow int64

	mu          sync.Mutex
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int64, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: 300,
	}
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// Minimum viable population: staying below it for extinctionGraceTicks
// consecutive ticks counts as functional extinction.
const (
	minViablePop         = 4
	extinctionGraceTicks = 600
	warmupTicks          = 150
)

// runResult holds the results from a single simulation run.
type runResult struct {
	survivalTicks int64                   // ticks before functional extinction (or maxTicks if survived)
	target        int                     // carrying-capacity target the run was scored against
	windowStats   []telemetry.WindowStats // collected via StatsCallback each window
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness float64
	quality float64
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	// Seeds run in parallel; each simulation owns its environment and rng.
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			result := fe.runSimulation(x, s)
			quality := computeQuality(result.windowStats, result.target)
			results[idx] = seedResult{
				fitness: computeFitness(result.survivalTicks, quality),
				quality: quality,
			}
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalQuality float64
	for _, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
	}
	n := float64(len(fe.seeds))

	fe.mu.Lock()
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return totalFitness / n
}

// runSimulation executes a single headless simulation run.
// Runs until functional extinction or maxTicks, whichever comes first.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) *runResult {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)
	cfg.Simulation.TargetTickRate = 0
	cfg.Telemetry.StatsWindow = fe.statsWindow
	cfg.Telemetry.OutputDir = ""
	cfg.Telemetry.EventLog = ""

	result := &runResult{target: cfg.Environment.CarryingCapacity.TargetPopulation}
	if !cfg.Environment.CarryingCapacity.Enabled {
		result.target = cfg.Simulation.MaxPopulation / 2
	}

	sim, err := game.New(cfg, game.Options{
		Seed:   seed,
		Logger: slog.New(slog.DiscardHandler),
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		},
	})
	if err != nil {
		// Parameter combination the config rejects scores as an immediate extinction.
		slog.Warn("invalid parameter set", "seed", seed, "error", err)
		return result
	}
	defer sim.Close()

	var belowTicks int64
	for sim.Tick() < fe.maxTicks {
		sim.Step()

		tick := sim.Tick()
		if tick < warmupTicks {
			continue
		}

		pop := sim.Stats().Population
		if pop == 0 {
			result.survivalTicks = tick
			return result
		}
		if pop < minViablePop {
			belowTicks++
		} else {
			belowTicks = 0
		}
		if belowTicks >= extinctionGraceTicks {
			result.survivalTicks = tick
			return result
		}
	}

	result.survivalTicks = fe.maxTicks
	return result
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(survivalTicks × (1.0 + 0.5 × quality))
// Survival dominates; quality separates configs that all survive.
func computeFitness(survivalTicks int64, quality float64) float64 {
	return -(float64(survivalTicks) * (1.0 + 0.5*quality))
}

// Quality component weights.
const (
	qualityWeightTarget    = 0.35
	qualityWeightStability = 0.25
	qualityWeightEnergy    = 0.20
	qualityWeightTurnover  = 0.20

	qualityWarmupWindows = 2 // skip first N windows (warmup)
)

// computeQuality scores ecosystem quality ∈ [0, 1] from window stats: how
// close the population sits to target, how steady it is, how fed it is and
// how much of its turnover comes from births rather than culling.
func computeQuality(windows []telemetry.WindowStats, target int) float64 {
	if len(windows) <= qualityWarmupWindows || target <= 0 {
		return 0
	}
	valid := windows[qualityWarmupWindows:]

	var targetSum, energySum float64
	var births, culls int
	pops := make([]float64, 0, len(valid))

	for _, w := range valid {
		if w.Population < minViablePop {
			continue
		}
		pops = append(pops, float64(w.Population))

		relErr := (float64(w.Population) - float64(target)) / float64(target)
		targetSum += math.Exp(-relErr * relErr / 0.1)

		energySum += math.Exp(-math.Pow((w.EnergyP50-50)/25, 2))

		births += w.Births
		culls += w.Culls + w.DeathsOverpopulation
	}
	if len(pops) == 0 {
		return 0
	}
	n := float64(len(pops))

	stabilityScore := 0.0
	if len(pops) >= 2 {
		mean, std := stat.MeanStdDev(pops, nil)
		if mean > 0 {
			cv := std / mean
			stabilityScore = math.Exp(-cv * cv * 4)
		}
	}

	turnoverScore := 0.0
	if births+culls > 0 {
		turnoverScore = float64(births) / float64(births+culls)
	}

	quality := qualityWeightTarget*targetSum/n +
		qualityWeightStability*stabilityScore +
		qualityWeightEnergy*energySum/n +
		qualityWeightTurnover*turnoverScore

	return clamp01(quality)
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	return min(max(x, 0), 1)
}

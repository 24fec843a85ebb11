package ecosystem

import (
	"github.com/pthm-cable/biosphere/creature"
	"github.com/pthm-cable/biosphere/systems"
	"github.com/pthm-cable/biosphere/telemetry"
)

// applyPressure runs the carrying-capacity controller on the living
// creatures: density-dependent mortality, social-stress drain, then the
// emergency hard cap. Creatures it kills are only marked dead; cleanup
// reaps them later in the tick. The overpopulation ratio also sets the
// resource scaling used by the spawn phase.
func (e *Environment) applyPressure(living []*creature.Creature) {
	cc := e.cfg.Environment.CarryingCapacity
	e.ratio = 0
	e.resourceScale = 1
	if !cc.Enabled || len(living) <= cc.TargetPopulation {
		return
	}

	population := len(living)
	e.ratio = systems.OverpopulationRatio(population, cc.TargetPopulation)
	e.resourceScale = systems.ResourceScaling(cc.ResourceScalingFactor, e.ratio)
	p := systems.MortalityProbability(cc.MortalityRate, e.ratio)

	deaths := 0
	for _, c := range living {
		if e.rng.Float64() < p {
			c.Die(creature.CauseOverpopulation)
			deaths++
		}
	}

	factor := cc.DensityStressFactor * e.biome.Competition
	if factor > 0 {
		for _, c := range living {
			if !c.IsAlive() {
				continue
			}
			drain := systems.StressDrain(factor, e.neighbours(c, cc.StressRadius))
			c.Physics.Energy = max(c.Physics.Energy-drain, 0)
		}
	}

	alive := population - deaths
	if alive > cc.MaxPopulation {
		cands := make([]systems.CullCandidate, 0, alive)
		byID := make(map[uint64]*creature.Creature, alive)
		for _, c := range living {
			if !c.IsAlive() {
				continue
			}
			cands = append(cands, systems.CullCandidate{ID: c.ID, Fitness: c.Stats.Fitness, Age: c.Physics.Age})
			byID[c.ID] = c
		}
		culled := systems.SelectCull(cands, alive-cc.MaxPopulation)
		for _, id := range culled {
			byID[id].Die(creature.CauseCull)
		}
		alive -= len(culled)
		e.rec.Record(telemetry.NewCullEvent(e.tick, len(culled), alive, cc.MaxPopulation))
	}

	e.rec.Record(telemetry.NewPopulationEvent(e.tick, population, cc.TargetPopulation, e.ratio, p, deaths))
}

package creature

import (
	"math"

	"github.com/pthm-cable/biosphere/components"
	"github.com/pthm-cable/biosphere/neural"
	"github.com/pthm-cable/biosphere/systems"
	"github.com/pthm-cable/biosphere/telemetry"
	"github.com/pthm-cable/biosphere/traits"
)

// CanReproduce reports whether the creature itself is ready to breed.
func (c *Creature) CanReproduce() bool {
	return c.State == Alive &&
		c.ReproductionCooldown == 0 &&
		c.IsMature() &&
		c.Physics.Energy >= c.cfg.Creature.MinReproductionEnergy
}

// cooldownFor returns the reproduction cooldown, shortened by fertility.
func (c *Creature) cooldownFor() int {
	base := float64(c.cfg.Creature.ReproductionCooldown)
	return int(math.Round(base * (1 - 0.5*c.Genetics.Fertility)))
}

// findMate returns the nearest ready same-species creature within mate range.
func (c *Creature) findMate() *Creature {
	pos := c.Physics.Position
	var mate *Creature
	bestDist := 0.0
	for _, cs := range c.nearby.Creatures {
		other := cs.Creature
		if other == c || !other.CanReproduce() || !c.IsSameSpecies(other) {
			continue
		}
		reach := c.Radius() + other.Radius() + c.cfg.Creature.MateRange
		d := pos.Dist(other.Physics.Position)
		if d > reach {
			continue
		}
		if mate == nil || d < bestDist {
			mate, bestDist = other, d
		}
	}
	return mate
}

func (c *Creature) tryReproduce(w World) {
	if !c.CanReproduce() || w.AtCapacity() {
		return
	}
	c.Stats.ReproductionAttempts++

	mate := c.findMate()
	if mate == nil {
		return
	}
	child := c.Reproduce(mate, w)
	w.AddCreature(child)
	w.Recorder().Record(telemetry.NewBirthEvent(w.Tick(), child.ID, child.ParentIDs, child.Generation))
}

// Reproduce creates an offspring with mate by crossover and mutation of
// genes and brains. Both parents pay the reproduction cost and enter
// cooldown. The child is returned unregistered.
func (c *Creature) Reproduce(mate *Creature, w World) *Creature {
	rng := w.Rand()
	cc := &c.cfg.Creature
	mc := &c.cfg.Mutation

	genes := traits.Crossover(c.Genetics, mate.Genetics, rng)
	rate := (c.Genetics.MutationRate + mate.Genetics.MutationRate) / 2
	genes.Mutate(rng, rate, mc.GeneticStrength)

	brain := neural.Crossover(c.Brain, mate.Brain, rng)
	brain.Mutate(rng, mc.BrainRate, mc.BrainStrength)

	paid := 0.0
	for _, p := range []*Creature{c, mate} {
		cost := min(cc.ReproductionCost, p.Physics.Energy)
		p.Physics.Energy -= cost
		paid += cost
		p.ReproductionCooldown = p.cooldownFor()
		p.Stats.Offspring++
	}

	mid := c.Physics.Position.Add(mate.Physics.Position).Scale(0.5)
	offset := components.Vec2{
		X: (rng.Float64()*2 - 1) * cc.SpawnOffset,
		Y: (rng.Float64()*2 - 1) * cc.SpawnOffset,
	}
	pos := w.ConstrainPosition(mid.Add(offset), genes.CollisionRadius())

	child := New(w.NextCreatureID(), genes, brain, pos, c.cfg)
	child.Generation = max(c.Generation, mate.Generation) + 1
	child.ParentIDs = []uint64{c.ID, mate.ID}
	child.Physics.Energy = min(paid*cc.OffspringEfficiency, systems.MaxEnergy)
	return child
}

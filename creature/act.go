package creature

import (
	"github.com/pthm-cable/biosphere/components"
	"github.com/pthm-cable/biosphere/systems"
)

// Act translates brain outputs into movement, feeding, combat and
// reproduction. Outputs are indexed by the Out* constants.
func (c *Creature) Act(outputs []float64, w World) {
	if c.State == Dead || len(outputs) < NumOutputs {
		return
	}

	cc := &c.cfg.Creature
	c.move(outputs[OutMoveX], outputs[OutMoveY], w)
	c.Stats.Thought = thought(outputs, cc.EatThreshold, cc.AttackThreshold, cc.ReproduceThreshold)

	if outputs[OutEat] > cc.EatThreshold {
		c.tryEat(outputs[OutEat], w)
	}
	if c.State == Alive && outputs[OutAttack] > cc.AttackThreshold && c.AttackCooldown == 0 {
		c.tryAttack(outputs[OutAttack], w)
	}
	if c.State == Alive && outputs[OutReproduce] > cc.ReproduceThreshold {
		c.tryReproduce(w)
	}
}

func (c *Creature) move(mx, my float64, w World) {
	maxSpeed := c.MaxSpeed()
	vel := components.Vec2{X: mx, Y: my}.Scale(maxSpeed).Limit(maxSpeed)

	prev := c.Physics.Position
	c.Physics.Position = w.ConstrainPosition(prev.Add(vel), c.Radius())
	c.Physics.Velocity = c.Physics.Position.Sub(prev)
	c.Stats.DistanceTraveled += c.Physics.Velocity.Len()

	c.Physics.Energy -= systems.MovementCost(
		c.cfg.Creature.MoveCost, vel.Len(), maxSpeed, c.Genetics.Size, c.Genetics.Endurance,
	)
}

// tryEat feeds on the nearest reachable food or carrion seen this tick.
func (c *Creature) tryEat(power float64, w World) {
	pos := c.Physics.Position
	margin := c.cfg.Feeding.Margin

	best := -1
	bestDist := 0.0
	for i := range c.nearby.Food {
		f := &c.nearby.Food[i]
		if !systems.CanReach(pos, c.Radius(), f.Pos, f.Size, margin) {
			continue
		}
		if d := pos.DistSq(f.Pos); best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return
	}
	w.ProcessFeeding(c, c.nearby.Food[best].Entity, power)
}

// tryAttack attacks the nearest touching creature, preferring other species.
func (c *Creature) tryAttack(power float64, w World) {
	pos := c.Physics.Position
	var target *Creature
	targetOther := false
	bestDist := 0.0

	for _, cs := range c.nearby.Creatures {
		other := cs.Creature
		if other == c || !other.IsAlive() {
			continue
		}
		op := other.Physics.Position
		if !systems.InContact(pos, c.Radius(), op, other.Radius()) {
			continue
		}
		isOther := !c.IsSameSpecies(other)
		d := pos.DistSq(op)
		switch {
		case target == nil,
			isOther && !targetOther,
			isOther == targetOther && d < bestDist:
			target, targetOther, bestDist = other, isOther, d
		}
	}
	if target == nil {
		return
	}

	w.ProcessCombat(c, target, power)
	c.AttackCooldown = c.cfg.Creature.AttackCooldown
}

// thought names the dominant action for display.
func thought(out []float64, eat, attack, reproduce float64) string {
	switch {
	case out[OutReproduce] > reproduce:
		return "reproduce"
	case out[OutAttack] > attack:
		return "attack"
	case out[OutEat] > eat:
		return "eat"
	case out[OutMoveX] != 0 || out[OutMoveY] != 0:
		return "move"
	}
	return "idle"
}

package ecosystem

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/biosphere/components"
	"github.com/pthm-cable/biosphere/creature"
	"github.com/pthm-cable/biosphere/systems"
	"github.com/pthm-cable/biosphere/telemetry"
)

// ProcessFeeding lets c eat the food or carrion entity target.
//
// The gain is energyValue * power * dietMultiplier and the eater's energy
// is capped at MaxEnergy. A successful meal removes the entity at once, so
// later creatures in the same tick see it as not found. Out of reach costs
// a small fixed amount.
func (e *Environment) ProcessFeeding(c *creature.Creature, target ecs.Entity, power float64) creature.Outcome {
	if c == nil || !c.IsAlive() {
		return creature.Outcome{Reason: creature.ReasonDead}
	}
	if !e.world.Alive(target) {
		return creature.Outcome{Reason: creature.ReasonNotFound}
	}

	var (
		kind   components.EntityKind
		energy float64
		size   float64
	)
	switch {
	case e.foodMap.Has(target):
		f := e.foodMap.Get(target)
		kind, energy, size = f.Kind, f.Energy, f.Size
	case e.carrionMap.Has(target):
		cr := e.carrionMap.Get(target)
		kind, energy, size = components.KindCarrion, cr.CurrentEnergyValue, cr.Size
	default:
		return creature.Outcome{Reason: creature.ReasonNotFound}
	}
	pos := e.posMap.Get(target).Vec2

	if !systems.CanReach(c.Physics.Position, c.Radius(), pos, size, e.cfg.Feeding.Margin) {
		cost := min(e.cfg.Feeding.MissCost, c.Physics.Energy)
		c.Physics.Energy -= cost
		return creature.Outcome{Reason: creature.ReasonOutOfRange, EnergyDelta: -cost}
	}

	diet := systems.DietMultiplier(kind, c.Genetics.PlantPreference, c.Genetics.MeatPreference)
	gain := systems.FeedingGain(energy, power, diet)
	before := c.Physics.Energy
	c.Physics.Energy = min(before+gain, systems.MaxEnergy)
	delta := c.Physics.Energy - before

	c.Stats.FoodEaten++
	c.Stats.EnergyConsumed += delta
	e.removeFood(target, kind, pos)
	e.rec.Record(telemetry.NewFeedingEvent(e.tick, c.ID, kind.String(), delta))

	return creature.Outcome{Success: true, Reason: creature.ReasonOK, EnergyDelta: delta}
}

// ProcessCombat resolves one attack.
//
// Bodies that do not touch cost the attacker a fixed miss cost and leave
// the defender untouched. In range the attacker always pays power times
// the attack cost factor; a hit deals power * size * damage factor,
// halved when the defender shelters, and a kill transfers predation
// energy to the attacker.
func (e *Environment) ProcessCombat(attacker, defender *creature.Creature, power float64) creature.Outcome {
	if attacker == nil || !attacker.IsAlive() {
		return creature.Outcome{Reason: creature.ReasonDead}
	}
	if defender == nil || attacker == defender || e.Creature(defender.ID) != defender {
		return creature.Outcome{Reason: creature.ReasonNotFound}
	}
	if !defender.IsAlive() {
		return creature.Outcome{Reason: creature.ReasonDead}
	}

	cc := e.cfg.Combat
	power = systems.Clamp01(power)

	if !systems.InContact(attacker.Physics.Position, attacker.Radius(), defender.Physics.Position, defender.Radius()) {
		cost := min(cc.MissCost, attacker.Physics.Energy)
		attacker.Physics.Energy -= cost
		e.rec.Record(telemetry.NewCombatEvent(e.tick, attacker.ID, defender.ID, telemetry.OutcomeOutOfRange, 0, false))
		return creature.Outcome{Reason: creature.ReasonOutOfRange, EnergyDelta: -cost}
	}

	attacker.Stats.AttacksGiven++
	defender.Stats.AttacksReceived++
	cost := min(systems.AttackCost(power, cc.AttackCostFactor), attacker.Physics.Energy)
	attacker.Physics.Energy -= cost

	chance := systems.HitChance(fighter(attacker), fighter(defender), power)
	if e.rng.Float64() >= chance {
		e.rec.Record(telemetry.NewCombatEvent(e.tick, attacker.ID, defender.ID, telemetry.OutcomeMiss, 0, false))
		return creature.Outcome{Reason: creature.ReasonMiss, EnergyDelta: -cost}
	}

	damage := systems.Damage(power, attacker.Genetics.Size, cc.DamageFactor)
	if e.inFeature(defender.Physics.Position, components.KindShelter) {
		damage *= cc.ShelterDamageFactor
	}
	defender.Physics.Health = max(defender.Physics.Health-damage, 0)

	out := creature.Outcome{Success: true, Reason: creature.ReasonHit, Damage: damage, EnergyDelta: -cost}
	if defender.Physics.Health <= 0 {
		defender.Die(creature.CausePredation)
		gain := systems.PredationGain(defender.Genetics.Size, attacker.Genetics.MeatPreference, cc.PredationEnergy)
		before := attacker.Physics.Energy
		attacker.Physics.Energy = min(before+gain, systems.MaxEnergy)
		attacker.Stats.Kills++
		out.Killed = true
		out.EnergyDelta += attacker.Physics.Energy - before
	}
	e.rec.Record(telemetry.NewCombatEvent(e.tick, attacker.ID, defender.ID, telemetry.OutcomeHit, damage, out.Killed))
	return out
}

func fighter(c *creature.Creature) systems.Fighter {
	return systems.Fighter{
		Size:       c.Genetics.Size,
		Speed:      c.Genetics.Speed,
		Aggression: c.Genetics.Aggression,
	}
}

// ConstrainPosition keeps a body of the given radius inside the world and
// out of obstacles.
func (e *Environment) ConstrainPosition(pos components.Vec2, radius float64) components.Vec2 {
	pos = e.bounds.Clamp(pos, radius)
	for i := range e.features {
		f := &e.features[i]
		if f.kind != components.KindObstacle {
			continue
		}
		minDist := f.radius + radius
		d := pos.Sub(f.pos)
		if d.LenSq() >= minDist*minDist {
			continue
		}
		dir := d.Normalize()
		if dir == (components.Vec2{}) {
			dir = components.Vec2{X: 1}
		}
		pos = f.pos.Add(dir.Scale(minDist))
	}
	return e.bounds.Clamp(pos, radius)
}

// inFeature reports whether p lies inside a feature of the given kind.
func (e *Environment) inFeature(p components.Vec2, kind components.EntityKind) bool {
	for i := range e.features {
		f := &e.features[i]
		if f.kind == kind && p.DistSq(f.pos) <= f.radius*f.radius {
			return true
		}
	}
	return false
}

package ecosystem

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/biosphere/components"
	"github.com/pthm-cable/biosphere/creature"
	"github.com/pthm-cable/biosphere/systems"
	"github.com/pthm-cable/biosphere/telemetry"
)

// Update advances the environment by one tick. The phases always run in
// this order:
//
//  1. move prey
//  2. decay carrion, removing fully decayed remains
//  3. population pressure
//  4. update every living creature
//  5. spawn food and prey
//  6. remove dead creatures (leaving carrion) and consumed food
//  7. rebuild the spatial grid
//  8. recompute stats
func (e *Environment) Update() {
	e.perf.StartTick()
	e.grid.ResetCounters()
	e.tick++

	e.perf.StartPhase(telemetry.PhasePrey)
	e.movePrey()

	e.perf.StartPhase(telemetry.PhaseCarrion)
	e.decayCarrion()

	e.perf.StartPhase(telemetry.PhasePressure)
	living := e.livingCreatures()
	e.applyPressure(living)

	e.perf.StartPhase(telemetry.PhaseCreatures)
	e.updateCreatures(living)

	e.perf.StartPhase(telemetry.PhaseSpawn)
	e.spawnFood()

	e.perf.StartPhase(telemetry.PhaseCleanup)
	e.cleanup()

	e.perf.StartPhase(telemetry.PhaseGrid)
	e.rebuildGrid()

	e.perf.StartPhase(telemetry.PhaseStats)
	e.computeStats()

	e.stats.LastUpdate = e.perf.EndTick()
}

// livingCreatures snapshots the living creatures in storage order. Creature
// updates add and remove entities, which is not allowed while a query is
// open, so the tick works from this slice.
func (e *Environment) livingCreatures() []*creature.Creature {
	e.snapshot = e.snapshot[:0]
	query := e.agentFilter.Query()
	for query.Next() {
		if c := query.Get().C; c.IsAlive() {
			e.snapshot = append(e.snapshot, c)
		}
	}
	return e.snapshot
}

// movePrey gives every mobile food item a new random heading.
func (e *Environment) movePrey() {
	query := e.foodFilter.Query()
	for query.Next() {
		pos, food := query.Get()
		if food.MaxSpeed <= 0 || !food.Active {
			continue
		}
		a := e.rng.Float64() * 2 * math.Pi
		food.Velocity = components.Vec2{X: math.Cos(a), Y: math.Sin(a)}.Scale(food.MaxSpeed)
		pos.Vec2 = e.ConstrainPosition(pos.Vec2.Add(food.Velocity), food.Size)
	}
}

type removal struct {
	entity ecs.Entity
	kind   components.EntityKind
	pos    components.Vec2
}

// decayCarrion ages all carrion and removes what has fully decayed.
func (e *Environment) decayCarrion() {
	cc := e.cfg.Carrion
	var gone []removal

	query := e.carrionFilter.Query()
	for query.Next() {
		pos, carrion := query.Get()
		if systems.DecayCarrion(carrion, e.tick, cc.DecayTicks, cc.ResidualFraction) {
			carrion.Active = false
			gone = append(gone, removal{query.Entity(), components.KindCarrion, pos.Vec2})
		}
	}

	for _, r := range gone {
		e.removeFood(r.entity, r.kind, r.pos)
	}
}

func (e *Environment) updateCreatures(living []*creature.Creature) {
	heal := e.cfg.Environment.WaterHealRate
	for _, c := range living {
		if !c.IsAlive() {
			continue
		}
		c.Update(e)
		if heal > 0 && c.IsAlive() && e.inFeature(c.Physics.Position, components.KindWaterSource) {
			c.Physics.Health = min(c.Physics.Health+heal, systems.MaxHealth)
		}
	}
}

// spawnFood tops up plants, mushrooms and prey. Each kind spawns at its
// base rate scaled by the biome, the season and the resource scaling from
// population pressure, slowing as its stock approaches the cap.
func (e *Environment) spawnFood() {
	env := e.cfg.Environment
	scale := e.resourceScale * e.biome.Season(e.tick, env.SeasonLength)

	e.spawn(components.KindPlantFood, env.PlantSpawnRate*e.biome.PlantDensity*scale, env.MaxFood, env.PlantEnergy)
	e.spawn(components.KindMushroomFood, env.MushroomSpawnRate*(0.5+e.biome.Humidity)*scale, env.MaxMushrooms, env.MushroomEnergy)
	e.spawn(components.KindSmallPrey, env.PreySpawnRate*e.biome.PreyDensity*scale, env.MaxPrey, env.PreyEnergy)
}

func (e *Environment) spawn(kind components.EntityKind, rate float64, limit int, energy float64) {
	stock := e.stock[kind]
	if rate <= 0 || limit <= 0 || stock >= limit {
		return
	}
	expected := rate * (1 - float64(stock)/float64(limit))
	n := int(expected)
	if e.rng.Float64() < expected-float64(n) {
		n++
	}
	size := e.cfg.Environment.FoodSize
	for range min(n, limit-stock) {
		var pos components.Vec2
		if kind == components.KindSmallPrey {
			pos = e.bounds.RandomPoint(e.rng, size)
		} else {
			pos = e.fertilePoint(size)
		}
		e.AddFood(kind, pos, energy)
	}
}

// cleanup reaps dead creatures into carrion and drops spent food.
func (e *Environment) cleanup() {
	var dead []uint64
	agents := e.agentFilter.Query()
	for agents.Next() {
		if c := agents.Get().C; !c.IsAlive() {
			dead = append(dead, c.ID)
		}
	}
	for _, id := range dead {
		e.RemoveCreature(id)
	}

	var gone []removal
	food := e.foodFilter.Query()
	for food.Next() {
		pos, f := food.Get()
		if !f.Active || f.Energy <= 0 {
			gone = append(gone, removal{food.Entity(), f.Kind, pos.Vec2})
		}
	}
	carrion := e.carrionFilter.Query()
	for carrion.Next() {
		pos, c := carrion.Get()
		if !c.Active || c.CurrentEnergyValue <= 0 {
			gone = append(gone, removal{carrion.Entity(), components.KindCarrion, pos.Vec2})
		}
	}
	for _, r := range gone {
		e.removeFood(r.entity, r.kind, r.pos)
	}
}

// rebuildGrid reinserts every entity at its current position.
func (e *Environment) rebuildGrid() {
	e.grid.Clear()

	agents := e.agentFilter.Query()
	for agents.Next() {
		c := agents.Get().C
		e.grid.Insert(systems.Occupant{E: agents.Entity(), Kind: components.KindCreature, Pos: c.Physics.Position})
	}
	food := e.foodFilter.Query()
	for food.Next() {
		pos, f := food.Get()
		e.grid.Insert(systems.Occupant{E: food.Entity(), Kind: f.Kind, Pos: pos.Vec2})
	}
	carrion := e.carrionFilter.Query()
	for carrion.Next() {
		pos, _ := carrion.Get()
		e.grid.Insert(systems.Occupant{E: carrion.Entity(), Kind: components.KindCarrion, Pos: pos.Vec2})
	}
	for _, f := range e.features {
		e.grid.Insert(systems.Occupant{E: f.e, Kind: f.kind, Pos: f.pos})
	}
}

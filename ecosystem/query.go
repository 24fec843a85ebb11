package ecosystem

import (
	"cmp"
	"math"
	"slices"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/biosphere/components"
	"github.com/pthm-cable/biosphere/creature"
	"github.com/pthm-cable/biosphere/systems"
)

// maskFor returns the grid buckets a query has to scan.
func maskFor(q *creature.Query) systems.BucketMask {
	if len(q.Types) == 0 {
		return systems.MaskAll
	}
	var mask systems.BucketMask
	for _, k := range q.Types {
		mask |= 1 << systems.BucketOf(k)
	}
	return mask
}

// QueryNearbyEntities returns the entities within q.Radius of q.Position.
// Only grid cells overlapping the query's bounding box are scanned, and
// each candidate is tested against its current position. Handles of
// entities removed since the last rebuild are skipped.
func (e *Environment) QueryNearbyEntities(q creature.Query) creature.Nearby {
	var out creature.Nearby
	if q.Radius < 0 {
		return out
	}
	radiusSq := q.Radius * q.Radius
	var zero ecs.Entity

	e.grid.Visit(q.Position, q.Radius, maskFor(&q), func(o *systems.Occupant) bool {
		if !q.Wants(o.Kind) || (q.ExcludeEntity != zero && o.E == q.ExcludeEntity) {
			return true
		}
		if !e.world.Alive(o.E) {
			return true
		}

		switch {
		case o.Kind == components.KindCreature:
			c := e.agentMap.Get(o.E).C
			if c.ID == q.ExcludeID {
				return true
			}
			if d := c.Physics.Position.DistSq(q.Position); d <= radiusSq {
				out.Creatures = append(out.Creatures, creature.CreatureSighting{Creature: c, Dist: math.Sqrt(d)})
			}

		case o.Kind == components.KindCarrion:
			pos := e.posMap.Get(o.E).Vec2
			if d := pos.DistSq(q.Position); d <= radiusSq {
				cr := e.carrionMap.Get(o.E)
				out.Food = append(out.Food, creature.FoodSighting{
					Entity:    o.E,
					Kind:      components.KindCarrion,
					Pos:       pos,
					Size:      cr.Size,
					Energy:    cr.CurrentEnergyValue,
					Freshness: cr.Freshness(),
					Dist:      math.Sqrt(d),
				})
			}

		case o.Kind.IsFeature():
			// Features never move, so the stored position is current.
			if d := o.Pos.DistSq(q.Position); d <= radiusSq {
				out.Environmental = append(out.Environmental, creature.FeatureSighting{
					Entity: o.E,
					Kind:   o.Kind,
					Pos:    o.Pos,
					Radius: e.featureRadius(o.E),
					Dist:   math.Sqrt(d),
				})
			}

		default:
			pos := e.posMap.Get(o.E).Vec2
			if d := pos.DistSq(q.Position); d <= radiusSq {
				f := e.foodMap.Get(o.E)
				out.Food = append(out.Food, creature.FoodSighting{
					Entity:    o.E,
					Kind:      f.Kind,
					Pos:       pos,
					Size:      f.Size,
					Energy:    f.Energy,
					Freshness: 1,
					Dist:      math.Sqrt(d),
				})
			}
		}
		return true
	})

	if q.SortByDistance {
		slices.SortStableFunc(out.Food, func(a, b creature.FoodSighting) int { return cmp.Compare(a.Dist, b.Dist) })
		slices.SortStableFunc(out.Creatures, func(a, b creature.CreatureSighting) int { return cmp.Compare(a.Dist, b.Dist) })
		slices.SortStableFunc(out.Environmental, func(a, b creature.FeatureSighting) int { return cmp.Compare(a.Dist, b.Dist) })
	}
	if n := q.MaxResults; n > 0 {
		out.Food = out.Food[:min(n, len(out.Food))]
		out.Creatures = out.Creatures[:min(n, len(out.Creatures))]
		out.Environmental = out.Environmental[:min(n, len(out.Environmental))]
	}
	return out
}

func (e *Environment) featureRadius(entity ecs.Entity) float64 {
	for i := range e.features {
		if e.features[i].e == entity {
			return e.features[i].radius
		}
	}
	return 0
}

// neighbours counts creatures within radius of c, excluding c itself.
func (e *Environment) neighbours(c *creature.Creature, radius float64) int {
	return e.grid.CountRadius(c.Physics.Position, radius, systems.MaskCreatures, e.creatures[c.ID])
}

package creature

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/biosphere/components"
	"github.com/pthm-cable/biosphere/telemetry"
)

// World is what a creature needs from its environment. It is implemented by
// ecosystem.Environment; tests use small fakes.
type World interface {
	QueryNearbyEntities(q Query) Nearby
	ProcessFeeding(c *Creature, target ecs.Entity, power float64) Outcome
	ProcessCombat(attacker, defender *Creature, power float64) Outcome
	AddCreature(c *Creature)
	NextCreatureID() uint64
	AtCapacity() bool
	ConstrainPosition(pos components.Vec2, radius float64) components.Vec2
	MetabolicMultiplier() float64
	Rand() *rand.Rand
	Tick() int64
	Recorder() telemetry.Recorder
}

// Query selects entities around a point.
type Query struct {
	Position components.Vec2
	Radius   float64

	// Types restricts results to these kinds; empty means every kind.
	Types []components.EntityKind

	ExcludeID     uint64     // creature ID to skip, 0 for none
	ExcludeEntity ecs.Entity // non-creature entity to skip, zero for none

	MaxResults     int // per result list, 0 for unlimited
	SortByDistance bool
}

// Wants reports whether the query accepts kind.
func (q *Query) Wants(kind components.EntityKind) bool {
	if len(q.Types) == 0 {
		return true
	}
	for _, k := range q.Types {
		if k == kind {
			return true
		}
	}
	return false
}

// FoodSighting is a food or carrion entity found by a query.
type FoodSighting struct {
	Entity    ecs.Entity
	Kind      components.EntityKind
	Pos       components.Vec2
	Size      float64
	Energy    float64
	Freshness float64 // 1 for living food
	Dist      float64
}

// CreatureSighting is a creature found by a query.
type CreatureSighting struct {
	Creature *Creature
	Dist     float64
}

// FeatureSighting is an environmental feature found by a query.
type FeatureSighting struct {
	Entity ecs.Entity
	Kind   components.EntityKind
	Pos    components.Vec2
	Radius float64
	Dist   float64
}

// Nearby holds query results grouped by entity family.
type Nearby struct {
	Food          []FoodSighting
	Creatures     []CreatureSighting
	Environmental []FeatureSighting
}

// Reset empties the result lists, keeping their storage.
func (n *Nearby) Reset() {
	n.Food = n.Food[:0]
	n.Creatures = n.Creatures[:0]
	n.Environmental = n.Environmental[:0]
}

// Outcome reasons.
const (
	ReasonOK         = "ok"
	ReasonHit        = "hit"
	ReasonMiss       = "miss"
	ReasonNotFound   = "not_found"
	ReasonOutOfRange = "out_of_range"
	ReasonDead       = "dead"
)

// Outcome is the result of a feeding or combat interaction. Failed
// interactions are outcomes, not errors.
type Outcome struct {
	Success     bool
	Reason      string
	EnergyDelta float64 // change in the acting creature's energy
	Damage      float64
	Killed      bool
}

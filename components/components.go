// Package components defines ECS components for the simulation.
package components

// EntityKind tags every non-creature entity at insertion time.
// The kind decides which archetype an entity lives in, so it is never
// probed from the data at runtime.
type EntityKind uint8

const (
	KindPlantFood EntityKind = iota
	KindMushroomFood
	KindSmallPrey
	KindCarrion
	KindObstacle
	KindWaterSource
	KindShelter
	KindCreature
)

var kindNames = [...]string{
	KindPlantFood:    "plant",
	KindMushroomFood: "mushroom",
	KindSmallPrey:    "prey",
	KindCarrion:      "carrion",
	KindObstacle:     "obstacle",
	KindWaterSource:  "water",
	KindShelter:      "shelter",
	KindCreature:     "creature",
}

func (k EntityKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsFood reports whether the kind is edible living food.
func (k EntityKind) IsFood() bool {
	return k == KindPlantFood || k == KindMushroomFood || k == KindSmallPrey
}

// IsMeat reports whether eating the kind draws on meat preference.
// Carrion counts as meat.
func (k EntityKind) IsMeat() bool {
	return k == KindSmallPrey || k == KindCarrion
}

// IsFeature reports whether the kind is a static environmental feature.
func (k EntityKind) IsFeature() bool {
	return k == KindObstacle || k == KindWaterSource || k == KindShelter
}

// Position is an entity's world position.
type Position struct {
	Vec2
}

// Food is an edible entity: plants, mushrooms and wandering small prey.
type Food struct {
	Kind     EntityKind
	Energy   float64
	Size     float64
	Velocity Vec2    // only prey move
	MaxSpeed float64 // zero for stationary food
	Active   bool
}

// Carrion is the decaying remains of a dead creature.
type Carrion struct {
	OriginalCreatureID uint64
	TimeOfDeath        int64
	OriginalEnergy     float64
	CurrentEnergyValue float64
	CurrentDecayStage  float64 // 0 fresh, 1 fully decayed
	Scent              float64
	Size               float64
	Active             bool
}

// Freshness is the inverse of the decay stage, in [0,1].
func (c *Carrion) Freshness() float64 {
	f := 1 - c.CurrentDecayStage
	if f < 0 {
		return 0
	}
	return f
}

// Feature is a static environmental feature.
type Feature struct {
	Kind   EntityKind
	Radius float64
	Active bool
}

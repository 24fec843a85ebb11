// Package traits defines the heritable genome of a creature.
package traits

import (
	"math"
	"math/rand"
)

// Trait indexes one gene of a Genetics value.
type Trait uint8

const (
	Speed Trait = iota
	Size
	Aggression
	PlantPreference
	MeatPreference
	VisionRange
	Lifespan
	MaturityAge
	Sociability
	Curiosity
	Metabolism
	Fertility
	Endurance
	MutationRate

	NumTraits = int(MutationRate) + 1
)

// Range is the legal closed interval of a trait.
type Range struct {
	Min, Max float64
}

// Span returns Max-Min.
func (r Range) Span() float64 { return r.Max - r.Min }

// Clamp limits v to the range.
func (r Range) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return r.Min
	}
	return math.Max(r.Min, math.Min(r.Max, v))
}

// Ranges holds the legal interval of every trait.
var Ranges = [NumTraits]Range{
	Speed:           {0.5, 2.0},
	Size:            {0.5, 2.0},
	Aggression:      {0, 1},
	PlantPreference: {0, 1},
	MeatPreference:  {0, 1},
	VisionRange:     {0.5, 2.0},
	Lifespan:        {3000, 12000}, // ticks
	MaturityAge:     {300, 1500},   // ticks
	Sociability:     {0, 1},
	Curiosity:       {0, 1},
	Metabolism:      {0.5, 1.5},
	Fertility:       {0, 1},
	Endurance:       {0, 1},
	MutationRate:    {0.01, 0.3},
}

var traitNames = [NumTraits]string{
	"speed", "size", "aggression", "plant_preference", "meat_preference",
	"vision_range", "lifespan", "maturity_age", "sociability", "curiosity",
	"metabolism", "fertility", "endurance", "mutation_rate",
}

func (t Trait) String() string {
	if int(t) < NumTraits {
		return traitNames[t]
	}
	return "unknown"
}

// integral reports whether the trait counts whole ticks.
func (t Trait) integral() bool {
	return t == Lifespan || t == MaturityAge
}

// Base values the genome scales.
const (
	BaseRadius      = 5.0   // collision radius at size 1
	BaseSpeed       = 2.0   // max speed at speed 1
	VisionUnit      = 100.0 // vision distance per unit of vision range
	SpeciesDistance = 0.35  // default same-species threshold
)

// Genetics is a creature's heritable trait vector.
// Every field stays within Ranges after Random, Crossover and Mutate.
type Genetics struct {
	Speed           float64 `json:"speed"`
	Size            float64 `json:"size"`
	Aggression      float64 `json:"aggression"`
	PlantPreference float64 `json:"plant_preference"`
	MeatPreference  float64 `json:"meat_preference"`
	VisionRange     float64 `json:"vision_range"`
	Lifespan        float64 `json:"lifespan"`
	MaturityAge     float64 `json:"maturity_age"`
	Sociability     float64 `json:"sociability"`
	Curiosity       float64 `json:"curiosity"`
	Metabolism      float64 `json:"metabolism"`
	Fertility       float64 `json:"fertility"`
	Endurance       float64 `json:"endurance"`
	MutationRate    float64 `json:"mutation_rate"`
}

func (g *Genetics) ptr(t Trait) *float64 {
	switch t {
	case Speed:
		return &g.Speed
	case Size:
		return &g.Size
	case Aggression:
		return &g.Aggression
	case PlantPreference:
		return &g.PlantPreference
	case MeatPreference:
		return &g.MeatPreference
	case VisionRange:
		return &g.VisionRange
	case Lifespan:
		return &g.Lifespan
	case MaturityAge:
		return &g.MaturityAge
	case Sociability:
		return &g.Sociability
	case Curiosity:
		return &g.Curiosity
	case Metabolism:
		return &g.Metabolism
	case Fertility:
		return &g.Fertility
	case Endurance:
		return &g.Endurance
	default:
		return &g.MutationRate
	}
}

// Get returns the value of trait t.
func (g *Genetics) Get(t Trait) float64 { return *g.ptr(t) }

// Set assigns trait t, clamped to its range.
func (g *Genetics) Set(t Trait, v float64) {
	v = Ranges[t].Clamp(v)
	if t.integral() {
		v = math.Round(v)
	}
	*g.ptr(t) = v
}

// Clamp forces every trait back into its legal range.
func (g *Genetics) Clamp() {
	for t := Trait(0); int(t) < NumTraits; t++ {
		g.Set(t, g.Get(t))
	}
}

// Valid reports whether every trait is within range.
func (g *Genetics) Valid() bool {
	for t := Trait(0); int(t) < NumTraits; t++ {
		v := g.Get(t)
		if math.IsNaN(v) || v < Ranges[t].Min || v > Ranges[t].Max {
			return false
		}
	}
	return true
}

// Random draws every trait uniformly from its range.
func Random(rng *rand.Rand) Genetics {
	var g Genetics
	for t := Trait(0); int(t) < NumTraits; t++ {
		r := Ranges[t]
		g.Set(t, r.Min+rng.Float64()*r.Span())
	}
	return g
}

// Crossover mixes two parents trait by trait: a third of traits come from
// a, a third from b and the rest are a random blend of both.
func Crossover(a, b Genetics, rng *rand.Rand) Genetics {
	var child Genetics
	for t := Trait(0); int(t) < NumTraits; t++ {
		va, vb := a.Get(t), b.Get(t)
		var v float64
		switch rng.Intn(3) {
		case 0:
			v = va
		case 1:
			v = vb
		default:
			v = va + rng.Float64()*(vb-va)
		}
		child.Set(t, v)
	}
	return child
}

// Mutate perturbs each trait with probability rate by a Gaussian delta of
// strength times the trait's span. Returns the number of mutated traits.
func (g *Genetics) Mutate(rng *rand.Rand, rate, strength float64) int {
	mutated := 0
	for t := Trait(0); int(t) < NumTraits; t++ {
		if rng.Float64() >= rate {
			continue
		}
		g.Set(t, g.Get(t)+rng.NormFloat64()*strength*Ranges[t].Span())
		mutated++
	}
	return mutated
}

// Distance is the species metric over diet preferences, aggression and
// size, each normalized by its span. Result is in [0,1].
func Distance(a, b Genetics) float64 {
	var sum float64
	for _, t := range [...]Trait{PlantPreference, MeatPreference, Aggression, Size} {
		d := (a.Get(t) - b.Get(t)) / Ranges[t].Span()
		sum += d * d
	}
	return math.Sqrt(sum / 4)
}

// VisionDistance is how far a creature can see, in world units.
func (g *Genetics) VisionDistance() float64 { return g.VisionRange * VisionUnit }

// CollisionRadius is the body radius derived from size.
func (g *Genetics) CollisionRadius() float64 { return g.Size * BaseRadius }

// MaxSpeed is the speed cap derived from the speed trait.
func (g *Genetics) MaxSpeed() float64 { return g.Speed * BaseSpeed }

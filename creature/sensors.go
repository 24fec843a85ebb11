package creature

import (
	"math"

	"github.com/pthm-cable/biosphere/components"
	"github.com/pthm-cable/biosphere/systems"
)

// Sensor indices in the brain input vector.
const (
	SensorFoodDist = iota
	SensorFoodDirX
	SensorFoodDirY
	SensorCarrionDist
	SensorCarrionFreshness
	SensorThreatDist
	SensorThreatDirX
	SensorThreatDirY
	SensorMateDist
	SensorMateDirX
	SensorMateDirY
	SensorEnergy
	SensorHealth
	SensorAge
	SensorDensity
	SensorVisionEast
	SensorVisionNorth
	SensorVisionWest
	SensorVisionSouth
	NumSensors
)

// Output indices in the brain output vector.
const (
	OutMoveX = iota
	OutMoveY
	OutEat
	OutAttack
	OutReproduce
	NumOutputs
)

// Vision cone headings, in screen coordinates (y grows downward).
var coneHeadings = [4]float64{0, -math.Pi / 2, math.Pi, math.Pi / 2}

const coneHalfWidth = math.Pi / 4

// Sensors holds one tick of normalized sensor readings.
// Distances read 0 when adjacent and 1 when nothing is within vision range.
// Directions are unit vector components mapped to [0,1]; 0.5 when nothing
// is seen.
type Sensors struct {
	FoodDist, FoodDirX, FoodDirY       float64
	CarrionDist, CarrionFreshness      float64
	ThreatDist, ThreatDirX, ThreatDirY float64
	MateDist, MateDirX, MateDirY       float64
	Energy, Health, Age, Density       float64
	Vision                             [4]float64 // east, north, west, south
}

// emptySensors is the reading with nothing in sight.
func emptySensors() Sensors {
	return Sensors{
		FoodDist:    1,
		FoodDirX:    0.5,
		FoodDirY:    0.5,
		CarrionDist: 1,
		ThreatDist:  1,
		ThreatDirX:  0.5,
		ThreatDirY:  0.5,
		MateDist:    1,
		MateDirX:    0.5,
		MateDirY:    0.5,
		Vision:      [4]float64{1, 1, 1, 1},
	}
}

// AppendInputs appends the NumSensors brain inputs to dst.
//
// Input mapping:
//
//	[0]     nearest food distance
//	[1-2]   nearest food direction
//	[3]     nearest carrion distance
//	[4]     nearest carrion freshness (0 when none)
//	[5]     nearest threat distance
//	[6-7]   nearest threat direction
//	[8]     nearest mate distance
//	[9-10]  nearest mate direction
//	[11]    energy / max energy
//	[12]    health / max health
//	[13]    age / lifespan
//	[14]    local creature density
//	[15-18] vision cones east, north, west, south
func (s *Sensors) AppendInputs(dst []float64) []float64 {
	dst = append(dst,
		s.FoodDist, s.FoodDirX, s.FoodDirY,
		s.CarrionDist, s.CarrionFreshness,
		s.ThreatDist, s.ThreatDirX, s.ThreatDirY,
		s.MateDist, s.MateDirX, s.MateDirY,
		s.Energy, s.Health, s.Age, s.Density,
		s.Vision[0], s.Vision[1], s.Vision[2], s.Vision[3],
	)
	for i := len(dst) - NumSensors; i < len(dst); i++ {
		dst[i] = systems.Clamp01(dst[i])
	}
	return dst
}

// ToInputs returns the brain input vector.
func (s *Sensors) ToInputs() []float64 {
	return s.AppendInputs(make([]float64, 0, NumSensors))
}

// direction maps the unit vector from a to b into [0,1]² (0.5, 0.5 when
// the points coincide).
func direction(a, b components.Vec2) (float64, float64) {
	d := b.Sub(a).Normalize()
	return (d.X + 1) / 2, (d.Y + 1) / 2
}

// Sense queries the world around the creature and builds its sensor
// readings. The query results are kept for Act.
func (c *Creature) Sense(w World) Sensors {
	s := emptySensors()
	pos := c.Physics.Position
	vision := c.Genetics.VisionDistance()
	densityRadius := c.cfg.Creature.DensityRadius

	c.nearby = w.QueryNearbyEntities(Query{
		Position:       pos,
		Radius:         max(vision, densityRadius),
		ExcludeID:      c.ID,
		SortByDistance: true,
	})

	norm := func(d float64) float64 {
		if vision <= 0 {
			return 1
		}
		return systems.Clamp01(d / vision)
	}
	see := func(p components.Vec2, d float64) {
		if d > vision {
			return
		}
		heading := p.Sub(pos).Angle()
		for i, h := range coneHeadings {
			if systems.AngleDiff(heading, h) <= coneHalfWidth {
				s.Vision[i] = min(s.Vision[i], norm(d))
			}
		}
	}

	var foundFood, foundCarrion bool
	for i := range c.nearby.Food {
		f := &c.nearby.Food[i]
		if f.Dist > vision {
			continue
		}
		see(f.Pos, f.Dist)
		if f.Kind == components.KindCarrion {
			if !foundCarrion {
				foundCarrion = true
				s.CarrionDist = norm(f.Dist)
				s.CarrionFreshness = f.Freshness
			}
			continue
		}
		if !foundFood {
			foundFood = true
			s.FoodDist = norm(f.Dist)
			s.FoodDirX, s.FoodDirY = direction(pos, f.Pos)
		}
	}

	var foundThreat, foundMate bool
	neighbours := 0
	for _, cs := range c.nearby.Creatures {
		other := cs.Creature
		if !other.IsAlive() {
			continue
		}
		if cs.Dist <= densityRadius {
			neighbours++
		}
		if cs.Dist > vision {
			continue
		}
		see(other.Physics.Position, cs.Dist)

		same := c.IsSameSpecies(other)
		if !foundThreat && !same && other.Genetics.Aggression > c.Genetics.Aggression {
			foundThreat = true
			s.ThreatDist = norm(cs.Dist)
			s.ThreatDirX, s.ThreatDirY = direction(pos, other.Physics.Position)
		}
		if !foundMate && same && other.IsMature() {
			foundMate = true
			s.MateDist = norm(cs.Dist)
			s.MateDirX, s.MateDirY = direction(pos, other.Physics.Position)
		}
	}

	for _, fs := range c.nearby.Environmental {
		see(fs.Pos, fs.Dist)
	}

	s.Energy = c.Physics.Energy / systems.MaxEnergy
	s.Health = c.Physics.Health / systems.MaxHealth
	if c.Genetics.Lifespan > 0 {
		s.Age = float64(c.Physics.Age) / c.Genetics.Lifespan
	}
	if n := c.cfg.Creature.DensityNormalize; n > 0 {
		s.Density = float64(neighbours) / n
	}

	c.LastSensors = s
	return s
}

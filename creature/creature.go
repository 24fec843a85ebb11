// Package creature implements the creature agent: sensing, neural decision
// making, acting, reproduction and death.
package creature

import (
	"math/rand"

	"github.com/pthm-cable/biosphere/components"
	"github.com/pthm-cable/biosphere/config"
	"github.com/pthm-cable/biosphere/neural"
	"github.com/pthm-cable/biosphere/systems"
	"github.com/pthm-cable/biosphere/telemetry"
	"github.com/pthm-cable/biosphere/traits"
)

// State is a creature's lifecycle state. Dead is terminal.
type State uint8

const (
	Alive State = iota
	Dead
)

func (s State) String() string {
	if s == Dead {
		return "dead"
	}
	return "alive"
}

// DeathCause records why a creature died.
type DeathCause uint8

const (
	CauseNone DeathCause = iota
	CauseStarvation
	CauseInjury
	CauseOldAge
	CausePredation
	CauseOverpopulation
	CauseCull
)

var causeNames = [...]string{
	CauseNone:           "none",
	CauseStarvation:     telemetry.CauseStarvation,
	CauseInjury:         telemetry.CauseInjury,
	CauseOldAge:         telemetry.CauseOldAge,
	CausePredation:      telemetry.CausePredation,
	CauseOverpopulation: telemetry.CauseOverpopulation,
	CauseCull:           telemetry.CauseCull,
}

func (c DeathCause) String() string {
	if int(c) < len(causeNames) {
		return causeNames[c]
	}
	return "unknown"
}

// Physics is a creature's physical state.
type Physics struct {
	Position components.Vec2
	Velocity components.Vec2
	Energy   float64 // [0, MaxEnergy]
	Health   float64 // [0, MaxHealth]
	Age      int64   // ticks
}

// Stats accumulates lifetime counters.
type Stats struct {
	FoodEaten            int
	EnergyConsumed       float64
	AttacksGiven         int
	AttacksReceived      int
	Kills                int
	ReproductionAttempts int
	Offspring            int
	DistanceTraveled     float64
	Fitness              float64
	Thought              string // dominant action of the last tick
}

// Creature is an autonomous agent with a genome and a neural controller.
type Creature struct {
	ID         uint64
	Generation int
	ParentIDs  []uint64

	Genetics traits.Genetics
	Physics  Physics
	Brain    *neural.FFNN
	Stats    Stats

	State State
	Cause DeathCause

	ReproductionCooldown int
	AttackCooldown       int

	// Last tick's sensor readings and brain outputs, for inspection.
	LastSensors Sensors
	LastOutputs []float64

	cfg      *config.Config
	nearby   Nearby
	inputBuf []float64
}

// OutputActivations are the activations of the brain's output neurons, in
// output index order.
var OutputActivations = []neural.Activation{
	OutMoveX:     neural.Tanh,
	OutMoveY:     neural.Tanh,
	OutEat:       neural.Sigmoid,
	OutAttack:    neural.Sigmoid,
	OutReproduce: neural.Sigmoid,
}

// NewBrain creates a random brain sized for the sensor and output layout.
func NewBrain(rng *rand.Rand, cfg *config.Config) *neural.FFNN {
	return neural.NewFFNN(rng, neural.Layout{
		Inputs:  NumSensors,
		Hidden:  cfg.Neural.HiddenLayers,
		Outputs: OutputActivations,
	})
}

// New creates a living creature with full health and the configured
// initial energy.
func New(id uint64, g traits.Genetics, brain *neural.FFNN, pos components.Vec2, cfg *config.Config) *Creature {
	g.Clamp()
	return &Creature{
		ID:       id,
		Genetics: g,
		Brain:    brain,
		Physics: Physics{
			Position: pos,
			Energy:   min(cfg.Creature.InitialEnergy, systems.MaxEnergy),
			Health:   systems.MaxHealth,
		},
		cfg: cfg,
	}
}

// NewRandom creates a generation-zero creature with random genes and brain.
func NewRandom(id uint64, rng *rand.Rand, pos components.Vec2, cfg *config.Config) *Creature {
	return New(id, traits.Random(rng), NewBrain(rng, cfg), pos, cfg)
}

// Radius returns the collision radius.
func (c *Creature) Radius() float64 { return c.Genetics.CollisionRadius() }

// MaxSpeed returns the top speed per tick.
func (c *Creature) MaxSpeed() float64 { return c.Genetics.MaxSpeed() }

// IsAlive reports whether the creature is alive.
func (c *Creature) IsAlive() bool { return c.State == Alive }

// IsMature reports whether the creature has reached maturity age.
func (c *Creature) IsMature() bool {
	return float64(c.Physics.Age) >= c.Genetics.MaturityAge
}

// IsSameSpecies reports whether other is genetically close enough to mate.
func (c *Creature) IsSameSpecies(other *Creature) bool {
	return traits.Distance(c.Genetics, other.Genetics) < c.cfg.Creature.SpeciesThreshold
}

// Die marks the creature dead. Only the first cause is kept.
func (c *Creature) Die(cause DeathCause) {
	if c.State == Dead {
		return
	}
	c.State = Dead
	c.Cause = cause
	c.Physics.Health = 0
	c.Physics.Velocity = components.Vec2{}
}

// Update advances the creature by one tick: aging, metabolism, death checks,
// then sense, think and act.
func (c *Creature) Update(w World) {
	if c.State == Dead {
		return
	}

	c.Physics.Age++
	c.Physics.Energy -= systems.MetabolicCost(
		c.cfg.Creature.BaseMetabolicCost,
		c.Genetics.Metabolism, c.Genetics.Size, c.Genetics.Speed,
		w.MetabolicMultiplier(),
	)
	c.clampVitals(w)
	if c.checkDeath() {
		return
	}

	sensors := c.Sense(w)
	outputs, err := c.Think(sensors)
	if err != nil {
		w.Recorder().Record(telemetry.NewErrorEvent(w.Tick(), c.ID, err.Error()))
		c.Physics.Velocity = components.Vec2{}
		c.Stats.Thought = "idle"
	} else {
		c.Act(outputs, w)
	}

	if c.ReproductionCooldown > 0 {
		c.ReproductionCooldown--
	}
	if c.AttackCooldown > 0 {
		c.AttackCooldown--
	}

	if c.State == Alive && c.Physics.Energy > c.cfg.Creature.RegenEnergyThreshold {
		c.Physics.Health += c.cfg.Creature.HealthRegen
	}

	c.clampVitals(w)
	c.checkDeath()
	c.updateFitness()
}

// Think evaluates the brain on the sensor vector.
func (c *Creature) Think(s Sensors) ([]float64, error) {
	c.inputBuf = s.AppendInputs(c.inputBuf[:0])
	out, err := c.Brain.Evaluate(c.inputBuf)
	if err != nil {
		return nil, err
	}
	c.LastOutputs = out
	return out, nil
}

// clampVitals keeps energy and health in range. Non-finite values are
// reported and zeroed, which kills the creature through the normal checks.
func (c *Creature) clampVitals(w World) {
	var badEnergy, badHealth bool
	c.Physics.Energy, badEnergy = systems.ClampVital(c.Physics.Energy, systems.MaxEnergy)
	c.Physics.Health, badHealth = systems.ClampVital(c.Physics.Health, systems.MaxHealth)
	if badEnergy {
		w.Recorder().Record(telemetry.NewErrorEvent(w.Tick(), c.ID, "invalid energy"))
	}
	if badHealth {
		w.Recorder().Record(telemetry.NewErrorEvent(w.Tick(), c.ID, "invalid health"))
	}
}

// checkDeath applies the death transitions and reports whether the creature
// is dead.
func (c *Creature) checkDeath() bool {
	switch {
	case c.State == Dead:
	case c.Physics.Health <= 0:
		c.Die(CauseInjury)
	case c.Physics.Energy <= 0:
		c.Die(CauseStarvation)
	case float64(c.Physics.Age) >= c.Genetics.Lifespan:
		c.Die(CauseOldAge)
	}
	return c.State == Dead
}

func (c *Creature) updateFitness() {
	f := c.cfg.Fitness
	survival := 0.0
	if c.Genetics.Lifespan > 0 {
		survival = float64(c.Physics.Age) / c.Genetics.Lifespan
	}
	c.Stats.Fitness = f.SurvivalWeight*survival +
		f.OffspringWeight*float64(c.Stats.Offspring) +
		f.FoodWeight*float64(c.Stats.FoodEaten) +
		f.KillsWeight*float64(c.Stats.Kills)
}

// Package ecosystem implements the Environment: entity storage on an ark
// ECS world, the per-tick update pipeline, proximity queries, feeding and
// combat resolution, and the population-pressure controller.
package ecosystem

import (
	"errors"
	"math/rand"
	"time"

	"github.com/mlange-42/ark/ecs"
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/biosphere/components"
	"github.com/pthm-cable/biosphere/config"
	"github.com/pthm-cable/biosphere/creature"
	"github.com/pthm-cable/biosphere/systems"
	"github.com/pthm-cable/biosphere/telemetry"
)

// Agent is the ECS component that ties an entity to its creature.
type Agent struct {
	C *creature.Creature
}

// feature caches a static environmental feature for movement and effects.
type feature struct {
	e      ecs.Entity
	kind   components.EntityKind
	pos    components.Vec2
	radius float64
}

const numKinds = int(components.KindCreature) + 1

// Environment owns every entity of one simulated world. It is not safe
// for concurrent use.
type Environment struct {
	cfg       *config.Config
	biome     Biome
	bounds    systems.Bounds
	rng       *rand.Rand
	rec       telemetry.Recorder
	perf      *telemetry.PerfCollector
	fertility opensimplex.Noise

	world *ecs.World

	// ECS mappers
	foodMapper    *ecs.Map2[components.Position, components.Food]
	carrionMapper *ecs.Map2[components.Position, components.Carrion]
	featureMapper *ecs.Map2[components.Position, components.Feature]
	agentMap      *ecs.Map1[Agent]
	posMap        *ecs.Map[components.Position]
	foodMap       *ecs.Map[components.Food]
	carrionMap    *ecs.Map[components.Carrion]

	// Filters
	foodFilter    *ecs.Filter2[components.Position, components.Food]
	carrionFilter *ecs.Filter2[components.Position, components.Carrion]
	agentFilter   *ecs.Filter1[Agent]

	creatures map[uint64]ecs.Entity
	features  []feature
	grid      *systems.SpatialGrid
	stock     [numKinds]int

	tick          int64
	nextID        uint64
	ratio         float64
	resourceScale float64
	births        int
	deaths        map[string]int
	stats         Stats

	// Scratch buffers reused across ticks
	snapshot []*creature.Creature
	neighbor []systems.Neighbor
}

// Option configures an Environment.
type Option func(*Environment)

// WithRand uses rng for every random draw.
func WithRand(rng *rand.Rand) Option {
	return func(e *Environment) { e.rng = rng }
}

// WithSeed seeds a fresh generator.
func WithSeed(seed int64) Option {
	return func(e *Environment) { e.rng = rand.New(rand.NewSource(seed)) }
}

// WithRecorder sends events to rec.
func WithRecorder(rec telemetry.Recorder) Option {
	return func(e *Environment) { e.rec = rec }
}

// New creates an Environment with its features and initial food.
// Configuration problems are reported here rather than during the run.
func New(cfg *config.Config, opts ...Option) (*Environment, error) {
	if cfg == nil {
		return nil, errors.New("ecosystem: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	biome, err := LookupBiome(cfg.Environment.Biome)
	if err != nil {
		return nil, err
	}

	world := ecs.NewWorld()
	e := &Environment{
		cfg:           cfg,
		biome:         biome,
		bounds:        systems.BoundsFromConfig(cfg.Environment.Bounds),
		rec:           telemetry.Discard,
		perf:          telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		world:         world,
		foodMapper:    ecs.NewMap2[components.Position, components.Food](world),
		carrionMapper: ecs.NewMap2[components.Position, components.Carrion](world),
		featureMapper: ecs.NewMap2[components.Position, components.Feature](world),
		agentMap:      ecs.NewMap1[Agent](world),
		posMap:        ecs.NewMap[components.Position](world),
		foodMap:       ecs.NewMap[components.Food](world),
		carrionMap:    ecs.NewMap[components.Carrion](world),
		foodFilter:    ecs.NewFilter2[components.Position, components.Food](world),
		carrionFilter: ecs.NewFilter2[components.Position, components.Carrion](world),
		agentFilter:   ecs.NewFilter1[Agent](world),
		creatures:     make(map[uint64]ecs.Entity),
		grid:          systems.NewSpatialGrid(cfg.Environment.CellSize),
		nextID:        1,
		resourceScale: 1,
		deaths:        make(map[string]int),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		seed := cfg.Simulation.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		e.rng = rand.New(rand.NewSource(seed))
	}
	if e.rec == nil {
		e.rec = telemetry.Discard
	}
	e.fertility = opensimplex.NewNormalized(e.rng.Int63())

	e.placeFeatures()
	e.placeInitialFood()
	e.computeStats()
	return e, nil
}

func (e *Environment) placeFeatures() {
	env := e.cfg.Environment
	for _, f := range []struct {
		kind  components.EntityKind
		count int
	}{
		{components.KindObstacle, env.Obstacles},
		{components.KindWaterSource, env.WaterSources},
		{components.KindShelter, env.Shelters},
	} {
		for range f.count {
			e.AddFeature(f.kind, e.bounds.RandomPoint(e.rng, env.FeatureRadius), env.FeatureRadius)
		}
	}
}

func (e *Environment) placeInitialFood() {
	env := e.cfg.Environment
	for range min(env.InitialFood, env.MaxFood) {
		e.AddFood(components.KindPlantFood, e.fertilePoint(env.FoodSize), env.PlantEnergy)
	}
}

// Config returns the configuration the environment was built with.
func (e *Environment) Config() *config.Config { return e.cfg }

// Biome returns the climate preset.
func (e *Environment) Biome() Biome { return e.biome }

// Bounds returns the world boundary.
func (e *Environment) Bounds() systems.Bounds { return e.bounds }

// Grid returns the spatial index.
func (e *Environment) Grid() *systems.SpatialGrid { return e.grid }

// Perf returns the per-phase timing collector.
func (e *Environment) Perf() *telemetry.PerfCollector { return e.perf }

// Tick returns the number of completed updates.
func (e *Environment) Tick() int64 { return e.tick }

// Rand returns the environment's random source.
func (e *Environment) Rand() *rand.Rand { return e.rng }

// Recorder returns the event sink.
func (e *Environment) Recorder() telemetry.Recorder { return e.rec }

// MetabolicMultiplier returns the biome's metabolism scale.
func (e *Environment) MetabolicMultiplier() float64 { return e.biome.MetabolicMultiplier() }

// NextCreatureID reserves a fresh creature ID.
func (e *Environment) NextCreatureID() uint64 {
	id := e.nextID
	e.nextID++
	return id
}

// MaxPopulation is the hard population limit: the carrying-capacity
// maximum when pressure is enabled, the driver maximum otherwise.
func (e *Environment) MaxPopulation() int {
	if cc := e.cfg.Environment.CarryingCapacity; cc.Enabled {
		return cc.MaxPopulation
	}
	return e.cfg.Simulation.MaxPopulation
}

// AtCapacity reports whether new creatures must be refused. Dead
// creatures awaiting cleanup still count.
func (e *Environment) AtCapacity() bool {
	return len(e.creatures) >= e.MaxPopulation()
}

// AddCreature registers c. A zero ID is replaced with a fresh one; an ID
// already present is ignored.
func (e *Environment) AddCreature(c *creature.Creature) {
	if c == nil {
		return
	}
	if c.ID == 0 {
		c.ID = e.NextCreatureID()
	}
	if _, ok := e.creatures[c.ID]; ok {
		return
	}
	if c.ID >= e.nextID {
		e.nextID = c.ID + 1
	}
	c.Physics.Position = e.ConstrainPosition(c.Physics.Position, c.Radius())

	entity := e.agentMap.NewEntity(&Agent{C: c})
	e.creatures[c.ID] = entity
	e.grid.Insert(systems.Occupant{E: entity, Kind: components.KindCreature, Pos: c.Physics.Position})
	if c.Generation > 0 {
		e.births++
	}
}

// SpawnCreature adds a random generation-zero creature at pos.
// It returns nil when the environment is at capacity.
func (e *Environment) SpawnCreature(pos components.Vec2) *creature.Creature {
	if e.AtCapacity() {
		return nil
	}
	c := creature.NewRandom(e.NextCreatureID(), e.rng, pos, e.cfg)
	e.AddCreature(c)
	return c
}

// SeedPopulation spawns up to n random creatures at random positions and
// returns how many were added.
func (e *Environment) SeedPopulation(n int) int {
	added := 0
	for range n {
		if e.SpawnCreature(e.bounds.RandomPoint(e.rng, 10)) == nil {
			break
		}
		added++
	}
	return added
}

// RemoveCreature deletes a creature, leaving carrion at its last position.
// A living creature is killed first. Unknown IDs return false.
func (e *Environment) RemoveCreature(id uint64) bool {
	entity, ok := e.creatures[id]
	if !ok || !e.world.Alive(entity) {
		delete(e.creatures, id)
		return false
	}
	c := e.agentMap.Get(entity).C
	if c.IsAlive() {
		c.Die(creature.CauseCull)
	}

	e.AddCarrion(c)
	e.grid.Remove(entity, components.KindCreature, c.Physics.Position)
	e.world.RemoveEntity(entity)
	delete(e.creatures, id)

	cause := c.Cause.String()
	e.deaths[cause]++
	e.rec.Record(telemetry.NewDeathEvent(e.tick, c.ID, cause, c.Physics.Age, c.Stats.Fitness))
	return true
}

// Creature returns the creature with the given ID, or nil.
func (e *Environment) Creature(id uint64) *creature.Creature {
	entity, ok := e.creatures[id]
	if !ok || !e.world.Alive(entity) {
		return nil
	}
	return e.agentMap.Get(entity).C
}

// Creatures returns every registered creature in storage order, including
// dead ones awaiting cleanup.
func (e *Environment) Creatures() []*creature.Creature {
	out := make([]*creature.Creature, 0, len(e.creatures))
	query := e.agentFilter.Query()
	for query.Next() {
		out = append(out, query.Get().C)
	}
	return out
}

// Population returns the number of living creatures.
func (e *Environment) Population() int {
	n := 0
	query := e.agentFilter.Query()
	for query.Next() {
		if query.Get().C.IsAlive() {
			n++
		}
	}
	return n
}

// FoodItem is a read-only view of a food entity.
type FoodItem struct {
	Entity ecs.Entity
	Pos    components.Vec2
	Food   components.Food
}

// AllFood returns every food entity.
func (e *Environment) AllFood() []FoodItem {
	var out []FoodItem
	query := e.foodFilter.Query()
	for query.Next() {
		pos, food := query.Get()
		out = append(out, FoodItem{Entity: query.Entity(), Pos: pos.Vec2, Food: *food})
	}
	return out
}

// CarrionItem is a read-only view of a carrion entity.
type CarrionItem struct {
	Entity  ecs.Entity
	Pos     components.Vec2
	Carrion components.Carrion
}

// Carrion returns every carrion entity.
func (e *Environment) Carrion() []CarrionItem {
	var out []CarrionItem
	query := e.carrionFilter.Query()
	for query.Next() {
		pos, c := query.Get()
		out = append(out, CarrionItem{Entity: query.Entity(), Pos: pos.Vec2, Carrion: *c})
	}
	return out
}

// FeatureItem is a read-only view of an environmental feature.
type FeatureItem struct {
	Entity ecs.Entity
	Kind   components.EntityKind
	Pos    components.Vec2
	Radius float64
}

// Features returns the environmental features.
func (e *Environment) Features() []FeatureItem {
	out := make([]FeatureItem, len(e.features))
	for i, f := range e.features {
		out[i] = FeatureItem{Entity: f.e, Kind: f.kind, Pos: f.pos, Radius: f.radius}
	}
	return out
}

// AddFood creates a food entity of the given kind. Prey get the configured
// speed; plants and mushrooms are stationary.
func (e *Environment) AddFood(kind components.EntityKind, pos components.Vec2, energy float64) ecs.Entity {
	size := e.cfg.Environment.FoodSize
	food := components.Food{Kind: kind, Energy: energy, Size: size, Active: true}
	if kind == components.KindSmallPrey {
		food.MaxSpeed = e.cfg.Environment.PreySpeed * (0.5 + e.biome.PredationPressure)
	}
	pos = e.bounds.Clamp(pos, size)
	entity := e.foodMapper.NewEntity(&components.Position{Vec2: pos}, &food)
	e.grid.Insert(systems.Occupant{E: entity, Kind: kind, Pos: pos})
	e.stock[kind]++
	return entity
}

// AddCarrion leaves the remains of c at its position. The energy value is
// a share of the creature's energy plus a part proportional to its size.
func (e *Environment) AddCarrion(c *creature.Creature) ecs.Entity {
	cc := e.cfg.Carrion
	energy := c.Physics.Energy*cc.EnergyFraction + c.Genetics.Size*cc.SizeEnergy
	energy = min(energy, systems.MaxEnergy)
	carrion := components.Carrion{
		OriginalCreatureID: c.ID,
		TimeOfDeath:        e.tick,
		OriginalEnergy:     energy,
		CurrentEnergyValue: energy,
		Scent:              1,
		Size:               c.Radius(),
		Active:             true,
	}
	pos := c.Physics.Position
	entity := e.carrionMapper.NewEntity(&components.Position{Vec2: pos}, &carrion)
	e.grid.Insert(systems.Occupant{E: entity, Kind: components.KindCarrion, Pos: pos})
	e.stock[components.KindCarrion]++
	return entity
}

// AddFeature creates a static environmental feature.
func (e *Environment) AddFeature(kind components.EntityKind, pos components.Vec2, radius float64) ecs.Entity {
	entity := e.featureMapper.NewEntity(
		&components.Position{Vec2: pos},
		&components.Feature{Kind: kind, Radius: radius, Active: true},
	)
	e.features = append(e.features, feature{e: entity, kind: kind, pos: pos, radius: radius})
	e.grid.Insert(systems.Occupant{E: entity, Kind: kind, Pos: pos})
	e.stock[kind]++
	return entity
}

// removeFood deletes a food or carrion entity. The grid entry is dropped
// when it can be found; any leftover handle fails the liveness check.
func (e *Environment) removeFood(entity ecs.Entity, kind components.EntityKind, pos components.Vec2) {
	if !e.world.Alive(entity) {
		return
	}
	e.grid.Remove(entity, kind, pos)
	e.world.RemoveEntity(entity)
	e.stock[kind]--
}

// fertilePoint draws a point biased toward fertile ground.
func (e *Environment) fertilePoint(margin float64) components.Vec2 {
	scale := e.cfg.Environment.FertilityScale
	p := e.bounds.RandomPoint(e.rng, margin)
	if scale <= 0 {
		return p
	}
	for range 8 {
		if e.rng.Float64() < e.Fertility(p) {
			return p
		}
		p = e.bounds.RandomPoint(e.rng, margin)
	}
	return p
}

// Fertility returns the plant fertility at p, in [0,1].
func (e *Environment) Fertility(p components.Vec2) float64 {
	scale := e.cfg.Environment.FertilityScale
	if scale <= 0 {
		return 1
	}
	return e.fertility.Eval2(p.X*scale, p.Y*scale)
}

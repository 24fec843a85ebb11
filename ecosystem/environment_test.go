package ecosystem

import (
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/pthm-cable/biosphere/components"
	"github.com/pthm-cable/biosphere/config"
	"github.com/pthm-cable/biosphere/creature"
	"github.com/pthm-cable/biosphere/systems"
	"github.com/pthm-cable/biosphere/telemetry"
	"github.com/pthm-cable/biosphere/traits"
)

// quietConfig returns defaults with no features and no food, so tests
// place everything themselves.
func quietConfig() *config.Config {
	cfg := config.Default().Clone()
	env := &cfg.Environment
	env.InitialFood = 0
	env.Obstacles = 0
	env.WaterSources = 0
	env.Shelters = 0
	env.PlantSpawnRate = 0
	env.MushroomSpawnRate = 0
	env.PreySpawnRate = 0
	return cfg
}

func newTestEnv(t *testing.T, cfg *config.Config, opts ...Option) *Environment {
	t.Helper()
	env, err := New(cfg, append([]Option{WithSeed(42)}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return env
}

// addCreature registers a creature with the given genes adjusted by fn.
func addCreature(env *Environment, pos components.Vec2, fn func(g *traits.Genetics)) *creature.Creature {
	rng := env.Rand()
	g := traits.Random(rng)
	if fn != nil {
		fn(&g)
	}
	c := creature.New(env.NextCreatureID(), g, creature.NewBrain(rng, env.Config()), pos, env.Config())
	env.AddCreature(c)
	return c
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(cfg *config.Config)
	}{
		{"target above max", func(cfg *config.Config) {
			cfg.Environment.CarryingCapacity.TargetPopulation = 500
			cfg.Environment.CarryingCapacity.MaxPopulation = 400
		}},
		{"zero cell size", func(cfg *config.Config) { cfg.Environment.CellSize = 0 }},
		{"bad bounds", func(cfg *config.Config) { cfg.Environment.Bounds.Width = -1 }},
		{"unknown biome", func(cfg *config.Config) { cfg.Environment.Biome = "moon" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := quietConfig()
			tt.modify(cfg)
			_, err := New(cfg, WithSeed(1))
			if !errors.Is(err, config.ErrInvalidConfig) {
				t.Errorf("New() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestNewPlacesFeaturesAndFood(t *testing.T) {
	cfg := config.Default().Clone()
	env := newTestEnv(t, cfg)

	s := env.Stats()
	want := cfg.Environment.Obstacles + cfg.Environment.WaterSources + cfg.Environment.Shelters
	if s.Features != want {
		t.Errorf("features = %d, want %d", s.Features, want)
	}
	if s.Plants != min(cfg.Environment.InitialFood, cfg.Environment.MaxFood) {
		t.Errorf("plants = %d, want %d", s.Plants, cfg.Environment.InitialFood)
	}
	for _, f := range env.AllFood() {
		if !env.Bounds().Contains(f.Pos, 0) {
			t.Errorf("food at %v outside bounds", f.Pos)
		}
	}
}

func TestProcessFeedingGain(t *testing.T) {
	tests := []struct {
		name       string
		energy     float64
		wantEnergy float64
	}{
		{"plain gain", 50, 54.5},
		{"capped", 99, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, quietConfig())
			c := addCreature(env, components.Vec2{X: 500, Y: 400}, func(g *traits.Genetics) {
				g.PlantPreference = 0.9
			})
			c.Physics.Energy = tt.energy
			food := env.AddFood(components.KindPlantFood, components.Vec2{X: 505, Y: 400}, 5)

			out := env.ProcessFeeding(c, food, 1.0)
			if !out.Success {
				t.Fatalf("feeding failed: %+v", out)
			}
			if math.Abs(c.Physics.Energy-tt.wantEnergy) > 1e-9 {
				t.Errorf("energy = %v, want %v", c.Physics.Energy, tt.wantEnergy)
			}
			if n := len(env.AllFood()); n != 0 {
				t.Errorf("food left = %d, want 0", n)
			}
			if c.Stats.FoodEaten != 1 {
				t.Errorf("FoodEaten = %d, want 1", c.Stats.FoodEaten)
			}

			again := env.ProcessFeeding(c, food, 1.0)
			if again.Success || again.Reason != creature.ReasonNotFound {
				t.Errorf("second feeding = %+v, want not found", again)
			}
		})
	}
}

func TestProcessFeedingOutOfRange(t *testing.T) {
	env := newTestEnv(t, quietConfig())
	c := addCreature(env, components.Vec2{X: 100, Y: 100}, nil)
	c.Physics.Energy = 50
	food := env.AddFood(components.KindPlantFood, components.Vec2{X: 400, Y: 400}, 5)

	out := env.ProcessFeeding(c, food, 1)
	if out.Success || out.Reason != creature.ReasonOutOfRange {
		t.Fatalf("outcome = %+v, want out of range", out)
	}
	if c.Physics.Energy >= 50 {
		t.Errorf("energy = %v, want miss cost paid", c.Physics.Energy)
	}
	if n := len(env.AllFood()); n != 1 {
		t.Errorf("food left = %d, want 1", n)
	}
}

func TestProcessFeedingCarrionUsesMeatPreference(t *testing.T) {
	env := newTestEnv(t, quietConfig())
	victim := addCreature(env, components.Vec2{X: 300, Y: 300}, nil)
	victim.Die(creature.CauseStarvation)
	if !env.RemoveCreature(victim.ID) {
		t.Fatal("RemoveCreature returned false")
	}
	carrion := env.Carrion()
	if len(carrion) != 1 {
		t.Fatalf("carrion = %d, want 1", len(carrion))
	}

	eater := addCreature(env, components.Vec2{X: 302, Y: 300}, func(g *traits.Genetics) {
		g.MeatPreference = 0.5
	})
	eater.Physics.Energy = 10
	value := carrion[0].Carrion.CurrentEnergyValue

	out := env.ProcessFeeding(eater, carrion[0].Entity, 1)
	if !out.Success {
		t.Fatalf("feeding failed: %+v", out)
	}
	want := min(10+value*0.5, systems.MaxEnergy)
	if math.Abs(eater.Physics.Energy-want) > 1e-9 {
		t.Errorf("energy = %v, want %v", eater.Physics.Energy, want)
	}
	if n := len(env.Carrion()); n != 0 {
		t.Errorf("carrion left = %d, want 0", n)
	}
}

func TestProcessCombatRangeGating(t *testing.T) {
	env := newTestEnv(t, quietConfig())
	attacker := addCreature(env, components.Vec2{X: 100, Y: 100}, nil)
	defender := addCreature(env, components.Vec2{X: 300, Y: 300}, nil)
	attacker.Physics.Energy = 100

	for i := range 50 {
		out := env.ProcessCombat(attacker, defender, 1)
		if out.Reason != creature.ReasonOutOfRange {
			t.Fatalf("attempt %d: reason = %q, want out of range", i, out.Reason)
		}
		if defender.Physics.Health != systems.MaxHealth {
			t.Fatalf("attempt %d: defender health = %v, want untouched", i, defender.Physics.Health)
		}
	}
	if attacker.Stats.AttacksGiven != 0 {
		t.Errorf("AttacksGiven = %d, want 0 for out-of-range attempts", attacker.Stats.AttacksGiven)
	}
	if attacker.Physics.Energy >= 100 {
		t.Errorf("attacker energy = %v, want miss costs paid", attacker.Physics.Energy)
	}
}

func strongAttacker(g *traits.Genetics) {
	g.Size = 2
	g.Aggression = 1
	g.MeatPreference = 1
}

func weakDefender(g *traits.Genetics) {
	g.Size = 1
	g.Speed = 0.5
}

func TestProcessCombatKill(t *testing.T) {
	buf := &telemetry.Buffer{}
	env := newTestEnv(t, quietConfig(), WithRecorder(buf))
	attacker := addCreature(env, components.Vec2{X: 200, Y: 200}, strongAttacker)
	defender := addCreature(env, components.Vec2{X: 212, Y: 200}, weakDefender)

	for i := 0; i < 100 && defender.IsAlive(); i++ {
		attacker.Physics.Energy = 50
		before := defender.Physics.Health
		out := env.ProcessCombat(attacker, defender, 1)
		if out.Reason == creature.ReasonMiss && defender.Physics.Health != before {
			t.Fatal("miss changed defender health")
		}
	}

	if defender.IsAlive() {
		t.Fatal("defender survived 100 attacks")
	}
	if defender.Cause != creature.CausePredation {
		t.Errorf("cause = %v, want predation", defender.Cause)
	}
	if attacker.Stats.Kills != 1 {
		t.Errorf("Kills = %d, want 1", attacker.Stats.Kills)
	}
	if attacker.Physics.Energy <= 50-systems.AttackCost(1, env.Config().Combat.AttackCostFactor) {
		t.Errorf("attacker energy = %v, want predation gain", attacker.Physics.Energy)
	}
	if out := env.ProcessCombat(attacker, defender, 1); out.Reason != creature.ReasonDead {
		t.Errorf("attack on dead defender = %+v, want dead", out)
	}

	kills := 0
	for _, ev := range buf.ByCategory(telemetry.CategoryCombat) {
		if ev.Data["killed"] == true {
			kills++
		}
	}
	if kills != 1 {
		t.Errorf("kill events = %d, want 1", kills)
	}
}

func TestProcessCombatShelterHalvesDamage(t *testing.T) {
	env := newTestEnv(t, quietConfig())
	attacker := addCreature(env, components.Vec2{X: 200, Y: 200}, strongAttacker)
	defender := addCreature(env, components.Vec2{X: 212, Y: 200}, weakDefender)
	env.AddFeature(components.KindShelter, components.Vec2{X: 212, Y: 200}, 20)

	for range 100 {
		attacker.Physics.Energy = 50
		out := env.ProcessCombat(attacker, defender, 1)
		if out.Reason != creature.ReasonHit {
			continue
		}
		want := 1 * 2 * env.Config().Combat.DamageFactor * env.Config().Combat.ShelterDamageFactor
		if math.Abs(out.Damage-want) > 1e-9 {
			t.Errorf("damage = %v, want %v", out.Damage, want)
		}
		return
	}
	t.Fatal("no hit in 100 attempts")
}

func TestRemoveCreature(t *testing.T) {
	buf := &telemetry.Buffer{}
	env := newTestEnv(t, quietConfig(), WithRecorder(buf))

	if env.RemoveCreature(999) {
		t.Error("RemoveCreature(unknown) = true, want false")
	}

	c := addCreature(env, components.Vec2{X: 321, Y: 123}, nil)
	c.Die(creature.CauseStarvation)
	if !env.RemoveCreature(c.ID) {
		t.Fatal("RemoveCreature = false, want true")
	}
	if env.Creature(c.ID) != nil {
		t.Error("creature still registered")
	}
	carrion := env.Carrion()
	if len(carrion) != 1 {
		t.Fatalf("carrion = %d, want 1", len(carrion))
	}
	if carrion[0].Pos != c.Physics.Position || carrion[0].Carrion.OriginalCreatureID != c.ID {
		t.Errorf("carrion = %+v, want at %v from %d", carrion[0], c.Physics.Position, c.ID)
	}
	deaths := buf.ByCategory(telemetry.CategoryDeath)
	if len(deaths) != 1 || deaths[0].Data["cause"] != telemetry.CauseStarvation {
		t.Errorf("death events = %+v", deaths)
	}
	if env.RemoveCreature(c.ID) {
		t.Error("second RemoveCreature = true, want false")
	}

	alive := addCreature(env, components.Vec2{X: 500, Y: 500}, nil)
	if !env.RemoveCreature(alive.ID) {
		t.Fatal("RemoveCreature(alive) = false")
	}
	if alive.IsAlive() || alive.Cause != creature.CauseCull {
		t.Errorf("removed creature state = %v cause %v, want dead by cull", alive.State, alive.Cause)
	}
	if len(env.Carrion()) != 2 {
		t.Errorf("carrion = %d, want 2", len(env.Carrion()))
	}
}

func TestCarrionDecaysMonotonically(t *testing.T) {
	cfg := quietConfig()
	cfg.Carrion.DecayTicks = 20
	env := newTestEnv(t, cfg)

	c := addCreature(env, components.Vec2{X: 400, Y: 400}, nil)
	c.Die(creature.CauseInjury)
	env.RemoveCreature(c.ID)

	prev := env.Carrion()[0].Carrion
	removed := false
	for range 30 {
		env.Update()
		items := env.Carrion()
		if len(items) == 0 {
			removed = true
			break
		}
		cur := items[0].Carrion
		if cur.CurrentDecayStage < prev.CurrentDecayStage {
			t.Fatalf("decay stage went back: %v -> %v", prev.CurrentDecayStage, cur.CurrentDecayStage)
		}
		if cur.CurrentEnergyValue > prev.CurrentEnergyValue {
			t.Fatalf("energy rose: %v -> %v", prev.CurrentEnergyValue, cur.CurrentEnergyValue)
		}
		prev = cur
	}
	if !removed {
		t.Error("fully decayed carrion was not removed")
	}
}

func TestDeadCreaturesBecomeCarrionOnUpdate(t *testing.T) {
	env := newTestEnv(t, quietConfig())
	c := addCreature(env, components.Vec2{X: 400, Y: 400}, nil)
	c.Physics.Energy = 0.0001
	c.Physics.Health = 0

	env.Update()

	if env.Creature(c.ID) != nil {
		t.Error("dead creature not reaped")
	}
	if got := len(env.Carrion()); got != 1 {
		t.Errorf("carrion = %d, want 1", got)
	}
	if s := env.Stats(); s.Deaths != 1 || s.DeathsByCause[telemetry.CauseInjury] != 1 {
		t.Errorf("stats = %+v, want one injury death", s)
	}
}

func TestQueryMatchesBruteForce(t *testing.T) {
	env := newTestEnv(t, quietConfig())
	rng := rand.New(rand.NewSource(42))
	b := env.Bounds()

	for range 150 {
		kind := []components.EntityKind{
			components.KindPlantFood, components.KindMushroomFood, components.KindSmallPrey,
		}[rng.Intn(3)]
		env.AddFood(kind, b.RandomPoint(rng, 3), 10)
	}
	for range 60 {
		addCreature(env, b.RandomPoint(rng, 10), nil)
	}
	for range 5 {
		env.AddFeature(components.KindShelter, b.RandomPoint(rng, 20), 20)
	}

	type key struct {
		kind components.EntityKind
		pos  components.Vec2
	}
	for i := range 200 {
		q := creature.Query{
			Position: components.Vec2{X: rng.Float64() * 1300, Y: rng.Float64() * 900},
			Radius:   rng.Float64() * 200,
		}
		if i%3 == 0 {
			q.Types = []components.EntityKind{components.KindPlantFood, components.KindCreature}
		}

		want := map[key]bool{}
		for _, f := range env.AllFood() {
			if q.Wants(f.Food.Kind) && f.Pos.Dist(q.Position) <= q.Radius {
				want[key{f.Food.Kind, f.Pos}] = true
			}
		}
		for _, c := range env.Creatures() {
			if q.Wants(components.KindCreature) && c.Physics.Position.Dist(q.Position) <= q.Radius {
				want[key{components.KindCreature, c.Physics.Position}] = true
			}
		}
		for _, f := range env.Features() {
			if q.Wants(f.Kind) && f.Pos.Dist(q.Position) <= q.Radius {
				want[key{f.Kind, f.Pos}] = true
			}
		}

		got := map[key]bool{}
		n := env.QueryNearbyEntities(q)
		for _, f := range n.Food {
			got[key{f.Kind, f.Pos}] = true
		}
		for _, c := range n.Creatures {
			got[key{components.KindCreature, c.Creature.Physics.Position}] = true
		}
		for _, f := range n.Environmental {
			got[key{f.Kind, f.Pos}] = true
		}

		if !reflect.DeepEqual(got, want) {
			t.Fatalf("query %d (%+v): got %d entities, want %d", i, q, len(got), len(want))
		}
	}
}

func TestQuerySortAndLimit(t *testing.T) {
	env := newTestEnv(t, quietConfig())
	center := components.Vec2{X: 600, Y: 400}
	for _, dx := range []float64{40, 10, 30, 20} {
		env.AddFood(components.KindPlantFood, center.Add(components.Vec2{X: dx}), 10)
	}

	n := env.QueryNearbyEntities(creature.Query{
		Position:       center,
		Radius:         100,
		SortByDistance: true,
		MaxResults:     3,
	})
	if len(n.Food) != 3 {
		t.Fatalf("results = %d, want 3", len(n.Food))
	}
	for i, want := range []float64{10, 20, 30} {
		if math.Abs(n.Food[i].Dist-want) > 1e-9 {
			t.Errorf("result %d dist = %v, want %v", i, n.Food[i].Dist, want)
		}
	}
}

func TestQuerySkipsRemovedEntities(t *testing.T) {
	env := newTestEnv(t, quietConfig())
	c := addCreature(env, components.Vec2{X: 600, Y: 400}, func(g *traits.Genetics) { g.PlantPreference = 1 })
	food := env.AddFood(components.KindPlantFood, components.Vec2{X: 603, Y: 400}, 10)

	if out := env.ProcessFeeding(c, food, 1); !out.Success {
		t.Fatalf("feeding failed: %+v", out)
	}
	n := env.QueryNearbyEntities(creature.Query{Position: c.Physics.Position, Radius: 50, ExcludeID: c.ID})
	if len(n.Food) != 0 || len(n.Creatures) != 0 {
		t.Errorf("query = %+v, want nothing", n)
	}
}

func TestConstrainPositionAvoidsObstacles(t *testing.T) {
	env := newTestEnv(t, quietConfig())
	obstacle := components.Vec2{X: 600, Y: 400}
	env.AddFeature(components.KindObstacle, obstacle, 30)

	p := env.ConstrainPosition(components.Vec2{X: 610, Y: 400}, 5)
	if d := p.Dist(obstacle); d < 35-1e-9 {
		t.Errorf("distance to obstacle = %v, want >= 35", d)
	}
	p = env.ConstrainPosition(components.Vec2{X: -50, Y: 2000}, 5)
	if !env.Bounds().Contains(p, 5) {
		t.Errorf("position %v outside bounds", p)
	}
}

func TestPopulationPressureScenario(t *testing.T) {
	cfg := quietConfig()
	cc := &cfg.Environment.CarryingCapacity
	cc.Enabled = true
	cc.TargetPopulation = 300
	cc.MaxPopulation = 400
	cc.MortalityRate = 0.02
	cfg.Simulation.MaxPopulation = 400

	buf := &telemetry.Buffer{}
	env := newTestEnv(t, cfg, WithRecorder(buf))
	rng := rand.New(rand.NewSource(7))
	center := env.Bounds().Center
	for range 400 {
		offset := components.Vec2{X: rng.Float64()*100 - 50, Y: rng.Float64()*100 - 50}
		addCreature(env, center.Add(offset), nil)
	}
	start := env.Population()
	if start != 400 {
		t.Fatalf("seeded %d creatures, want 400", start)
	}

	for tick := range 50 {
		env.Update()
		if pop := env.Population(); pop > 400 {
			t.Fatalf("tick %d: population %d exceeds 400", tick, pop)
		}
		if s := env.Stats(); s.Population != env.Population() {
			t.Fatalf("tick %d: stats population %d, counted %d", tick, s.Population, env.Population())
		}
	}

	if end := env.Population(); end >= start {
		t.Errorf("population %d did not fall from %d", end, start)
	}
	if len(buf.ByCategory(telemetry.CategoryPopulation)) == 0 {
		t.Error("no population events recorded")
	}
}

func TestHardCapCulls(t *testing.T) {
	cfg := quietConfig()
	cc := &cfg.Environment.CarryingCapacity
	cc.Enabled = true
	cc.TargetPopulation = 300
	cc.MaxPopulation = 400
	cc.MortalityRate = 0
	cc.DensityStressFactor = 0
	cfg.Simulation.MaxPopulation = 500

	buf := &telemetry.Buffer{}
	env := newTestEnv(t, cfg, WithRecorder(buf))
	rng := rand.New(rand.NewSource(3))
	for range 450 {
		addCreature(env, env.Bounds().RandomPoint(rng, 10), nil)
	}

	env.Update()

	if pop := env.Population(); pop > 400 {
		t.Errorf("population = %d, want <= 400", pop)
	}
	culls := buf.ByCategory(telemetry.CategoryCull)
	if len(culls) != 1 {
		t.Fatalf("cull events = %d, want 1", len(culls))
	}
	if got := env.Stats().DeathsByCause[telemetry.CauseCull]; got != 50 {
		t.Errorf("culled = %d, want 50", got)
	}
}

func TestVitalsStayInBounds(t *testing.T) {
	cfg := config.Default().Clone()
	env := newTestEnv(t, cfg)
	env.SeedPopulation(60)

	for tick := range 200 {
		env.Update()
		for _, c := range env.Creatures() {
			e, h := c.Physics.Energy, c.Physics.Health
			if e < 0 || e > systems.MaxEnergy || h < 0 || h > systems.MaxHealth {
				t.Fatalf("tick %d: creature %d energy %v health %v out of range", tick, c.ID, e, h)
			}
		}
	}
}

func TestSameSeedSameStats(t *testing.T) {
	run := func() []Stats {
		env := newTestEnv(t, config.Default().Clone())
		env.SeedPopulation(40)
		var out []Stats
		for range 100 {
			env.Update()
			s := env.Stats()
			s.LastUpdate = 0
			out = append(out, s)
		}
		return out
	}
	a, b := run(), run()
	if !reflect.DeepEqual(a, b) {
		t.Error("runs with the same seed diverged")
	}
}

func TestAtCapacityBlocksSpawning(t *testing.T) {
	cfg := quietConfig()
	cfg.Environment.CarryingCapacity.Enabled = false
	cfg.Simulation.MaxPopulation = 5
	cfg.Simulation.InitialPopulation = 5
	env := newTestEnv(t, cfg)

	if got := env.SeedPopulation(10); got != 5 {
		t.Errorf("SeedPopulation = %d, want 5", got)
	}
	if !env.AtCapacity() {
		t.Error("AtCapacity = false at the limit")
	}
	if c := env.SpawnCreature(components.Vec2{X: 10, Y: 10}); c != nil {
		t.Error("SpawnCreature succeeded at capacity")
	}
}

func TestSpawnRespectsCaps(t *testing.T) {
	cfg := config.Default().Clone()
	cfg.Environment.MaxFood = 20
	cfg.Environment.MaxMushrooms = 5
	cfg.Environment.MaxPrey = 3
	cfg.Environment.InitialFood = 0
	cfg.Environment.PlantSpawnRate = 50
	cfg.Environment.MushroomSpawnRate = 50
	cfg.Environment.PreySpawnRate = 50
	env := newTestEnv(t, cfg)

	for range 50 {
		env.Update()
		s := env.Stats()
		if s.Plants > 20 || s.Mushrooms > 5 || s.Prey > 3 {
			t.Fatalf("stock %d/%d/%d exceeds caps", s.Plants, s.Mushrooms, s.Prey)
		}
	}
	for _, f := range env.AllFood() {
		if !env.Bounds().Contains(f.Pos, 0) {
			t.Errorf("%v at %v outside bounds", f.Food.Kind, f.Pos)
		}
	}
}

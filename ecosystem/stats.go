package ecosystem

import (
	"log/slog"
	"maps"
	"time"

	"github.com/pthm-cable/biosphere/components"
	"github.com/pthm-cable/biosphere/telemetry"
)

// Stats is the aggregate state after the last update.
type Stats struct {
	Tick        int64
	Population  int // living creatures
	DeadPending int // dead creatures not yet reaped

	Births        int            // creatures born since creation
	Deaths        int            // creatures reaped since creation
	DeathsByCause map[string]int // reaped creatures by cause

	Plants    int
	Mushrooms int
	Prey      int
	Carrion   int
	Features  int

	// Per-tick spatial index work, reset every update
	SpatialQueries  int
	CollisionChecks int

	OverpopulationRatio float64
	ResourceScale       float64

	MeanEnergy     float64
	MeanGeneration float64
	MaxGeneration  int

	LastUpdate time.Duration
}

// LogValue implements slog.LogValuer.
func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("tick", s.Tick),
		slog.Int("population", s.Population),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths),
		slog.Int("plants", s.Plants),
		slog.Int("mushrooms", s.Mushrooms),
		slog.Int("prey", s.Prey),
		slog.Int("carrion", s.Carrion),
		slog.Float64("mean_energy", s.MeanEnergy),
		slog.Int("max_generation", s.MaxGeneration),
		slog.Duration("last_update", s.LastUpdate),
	)
}

// Stats returns a copy of the statistics computed by the last update.
func (e *Environment) Stats() Stats {
	s := e.stats
	s.DeathsByCause = maps.Clone(e.stats.DeathsByCause)
	return s
}

func (e *Environment) computeStats() {
	s := Stats{
		Tick:                e.tick,
		Births:              e.births,
		DeathsByCause:       e.deaths,
		Plants:              e.stock[components.KindPlantFood],
		Mushrooms:           e.stock[components.KindMushroomFood],
		Prey:                e.stock[components.KindSmallPrey],
		Carrion:             e.stock[components.KindCarrion],
		Features:            len(e.features),
		OverpopulationRatio: e.ratio,
		ResourceScale:       e.resourceScale,
		LastUpdate:          e.stats.LastUpdate,
	}
	for _, n := range e.deaths {
		s.Deaths += n
	}
	gs := e.grid.Stats()
	s.SpatialQueries = gs.Queries
	s.CollisionChecks = gs.DistanceChecks

	var energy, gen float64
	query := e.agentFilter.Query()
	for query.Next() {
		c := query.Get().C
		if !c.IsAlive() {
			s.DeadPending++
			continue
		}
		s.Population++
		energy += c.Physics.Energy
		gen += float64(c.Generation)
		s.MaxGeneration = max(s.MaxGeneration, c.Generation)
	}
	if s.Population > 0 {
		s.MeanEnergy = energy / float64(s.Population)
		s.MeanGeneration = gen / float64(s.Population)
	}
	e.stats = s
}

// Sample collects the per-creature values the window telemetry
// summarizes.
func (e *Environment) Sample() telemetry.PopulationSample {
	var s telemetry.PopulationSample
	query := e.agentFilter.Query()
	for query.Next() {
		c := query.Get().C
		if !c.IsAlive() {
			continue
		}
		s.Energies = append(s.Energies, c.Physics.Energy)
		s.Aggression = append(s.Aggression, c.Genetics.Aggression)
		s.MeatPref = append(s.MeatPref, c.Genetics.MeatPreference)
		s.Generations = append(s.Generations, float64(c.Generation))
	}
	s.Plants = e.stock[components.KindPlantFood]
	s.Mushrooms = e.stock[components.KindMushroomFood]
	s.Prey = e.stock[components.KindSmallPrey]
	s.Carrion = e.stock[components.KindCarrion]
	return s
}

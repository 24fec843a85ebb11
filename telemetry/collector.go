package telemetry

// Death cause names as carried in death event data.
const (
	CauseStarvation     = "starvation"
	CauseInjury         = "injury"
	CauseOldAge         = "old_age"
	CausePredation      = "predation"
	CauseOverpopulation = "overpopulation"
	CauseCull           = "cull"
)

// Combat outcome names as carried in combat event data.
const (
	OutcomeHit        = "hit"
	OutcomeMiss       = "miss"
	OutcomeOutOfRange = "out_of_range"
)

// Collector accumulates events within tick windows and produces WindowStats.
// It implements Recorder.
type Collector struct {
	windowTicks     int64
	windowStartTick int64

	births     int
	deaths     int
	deathsBy   map[string]int
	culls      int
	errors     int
	feedings   int
	foodEnergy float64
	attacks    int
	hits       int
	kills      int
}

// NewCollector creates a collector that closes a window every windowTicks.
func NewCollector(windowTicks int64) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{
		windowTicks: windowTicks,
		deathsBy:    make(map[string]int),
	}
}

// Record counts e toward the current window.
func (c *Collector) Record(e Event) {
	switch e.Category {
	case CategoryBirth:
		c.births++
	case CategoryDeath:
		c.deaths++
		if cause, ok := e.Data["cause"].(string); ok {
			c.deathsBy[cause]++
		}
	case CategoryFeeding:
		c.feedings++
		if gain, ok := e.Data["gain"].(float64); ok {
			c.foodEnergy += gain
		}
	case CategoryCombat:
		outcome, _ := e.Data["outcome"].(string)
		if outcome == OutcomeOutOfRange {
			return
		}
		c.attacks++
		if outcome == OutcomeHit {
			c.hits++
		}
		if killed, ok := e.Data["killed"].(bool); ok && killed {
			c.kills++
		}
	case CategoryCull:
		c.culls++
	case CategoryError:
		c.errors++
	}
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	return currentTick-c.windowStartTick >= c.windowTicks
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int64, sample PopulationSample) WindowStats {
	var hitRate, killRate float64
	if c.attacks > 0 {
		hitRate = float64(c.hits) / float64(c.attacks)
	}
	if c.hits > 0 {
		killRate = float64(c.kills) / float64(c.hits)
	}

	energy := Describe(sample.Energies)
	agg := Describe(sample.Aggression)
	meat := Describe(sample.MeatPref)
	gen := Describe(sample.Generations)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,

		Population: len(sample.Energies),
		Plants:     sample.Plants,
		Mushrooms:  sample.Mushrooms,
		Prey:       sample.Prey,
		Carrion:    sample.Carrion,

		Births:               c.births,
		Deaths:               c.deaths,
		DeathsStarvation:     c.deathsBy[CauseStarvation],
		DeathsInjury:         c.deathsBy[CauseInjury],
		DeathsOldAge:         c.deathsBy[CauseOldAge],
		DeathsPredation:      c.deathsBy[CausePredation],
		DeathsOverpopulation: c.deathsBy[CauseOverpopulation],
		DeathsCull:           c.deathsBy[CauseCull],
		Culls:                c.culls,
		Errors:               c.errors,

		Feedings:   c.feedings,
		FoodEnergy: c.foodEnergy,

		Attacks:  c.attacks,
		Hits:     c.hits,
		Kills:    c.kills,
		HitRate:  hitRate,
		KillRate: killRate,

		EnergyMean: energy.Mean,
		EnergyP10:  energy.P10,
		EnergyP50:  energy.P50,
		EnergyP90:  energy.P90,

		AggressionMean: agg.Mean,
		AggressionStd:  agg.Std,
		MeatPrefMean:   meat.Mean,
		MeatPrefStd:    meat.Std,

		MeanGeneration: gen.Mean,
		MaxGeneration:  int(gen.Max),
	}

	c.windowStartTick = currentTick
	c.births, c.deaths, c.culls, c.errors = 0, 0, 0, 0
	c.feedings, c.foodEnergy = 0, 0
	c.attacks, c.hits, c.kills = 0, 0, 0
	clear(c.deathsBy)

	return stats
}

// WindowTicks returns the number of ticks per window.
func (c *Collector) WindowTicks() int64 {
	return c.windowTicks
}

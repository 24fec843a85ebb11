package telemetry

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int64 `csv:"-"`
	WindowEndTick   int64 `csv:"window_end"`

	// Counts at window end
	Population int `csv:"population"`
	Plants     int `csv:"plants"`
	Mushrooms  int `csv:"mushrooms"`
	Prey       int `csv:"prey"`
	Carrion    int `csv:"carrion"`

	// Events during window
	Births               int `csv:"births"`
	Deaths               int `csv:"deaths"`
	DeathsStarvation     int `csv:"deaths_starvation"`
	DeathsInjury         int `csv:"deaths_injury"`
	DeathsOldAge         int `csv:"deaths_old_age"`
	DeathsPredation      int `csv:"deaths_predation"`
	DeathsOverpopulation int `csv:"deaths_overpopulation"`
	DeathsCull           int `csv:"deaths_cull"`
	Culls                int `csv:"culls"`
	Errors               int `csv:"errors"`

	// Feeding
	Feedings   int     `csv:"feedings"`
	FoodEnergy float64 `csv:"food_energy"`

	// Combat
	Attacks  int     `csv:"attacks"`
	Hits     int     `csv:"hits"`
	Kills    int     `csv:"kills"`
	HitRate  float64 `csv:"hit_rate"`
	KillRate float64 `csv:"kill_rate"`

	// Energy distribution (sampled at window end)
	EnergyMean float64 `csv:"energy_mean"`
	EnergyP10  float64 `csv:"energy_p10"`
	EnergyP50  float64 `csv:"energy_p50"`
	EnergyP90  float64 `csv:"energy_p90"`

	// Trait drift
	AggressionMean float64 `csv:"aggression_mean"`
	AggressionStd  float64 `csv:"aggression_std"`
	MeatPrefMean   float64 `csv:"meat_pref_mean"`
	MeatPrefStd    float64 `csv:"meat_pref_std"`

	MeanGeneration float64 `csv:"mean_generation"`
	MaxGeneration  int     `csv:"max_generation"`
}

// PopulationSample is the per-creature state sampled when a window closes.
type PopulationSample struct {
	Energies    []float64
	Aggression  []float64
	MeatPref    []float64
	Generations []float64

	Plants, Mushrooms, Prey, Carrion int
}

// Distribution summarizes a sample.
type Distribution struct {
	Mean, Std     float64 // population standard deviation
	Min, Max      float64
	P10, P50, P90 float64
}

// Describe computes the distribution of values without modifying them.
// An empty sample yields the zero Distribution.
func Describe(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	d := Distribution{Min: sorted[0], Max: sorted[len(sorted)-1]}
	d.Mean, d.Std = stat.PopMeanStdDev(sorted, nil)
	d.P10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	d.P50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	d.P90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	return d
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_start", s.WindowStartTick),
		slog.Int64("window_end", s.WindowEndTick),
		slog.Int("population", s.Population),
		slog.Int("plants", s.Plants),
		slog.Int("mushrooms", s.Mushrooms),
		slog.Int("prey", s.Prey),
		slog.Int("carrion", s.Carrion),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths),
		slog.Int("deaths_starvation", s.DeathsStarvation),
		slog.Int("deaths_injury", s.DeathsInjury),
		slog.Int("deaths_old_age", s.DeathsOldAge),
		slog.Int("deaths_predation", s.DeathsPredation),
		slog.Int("deaths_overpopulation", s.DeathsOverpopulation),
		slog.Int("deaths_cull", s.DeathsCull),
		slog.Int("culls", s.Culls),
		slog.Int("errors", s.Errors),
		slog.Int("feedings", s.Feedings),
		slog.Float64("food_energy", s.FoodEnergy),
		slog.Int("attacks", s.Attacks),
		slog.Int("hits", s.Hits),
		slog.Int("kills", s.Kills),
		slog.Float64("hit_rate", s.HitRate),
		slog.Float64("kill_rate", s.KillRate),
		slog.Float64("energy_mean", s.EnergyMean),
		slog.Float64("energy_p10", s.EnergyP10),
		slog.Float64("energy_p50", s.EnergyP50),
		slog.Float64("energy_p90", s.EnergyP90),
		slog.Float64("aggression_mean", s.AggressionMean),
		slog.Float64("aggression_std", s.AggressionStd),
		slog.Float64("meat_pref_mean", s.MeatPrefMean),
		slog.Float64("meat_pref_std", s.MeatPrefStd),
		slog.Float64("mean_generation", s.MeanGeneration),
		slog.Int("max_generation", s.MaxGeneration),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}

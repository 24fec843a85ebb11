package game

import "log/slog"

// flushTelemetry closes the stats window when due and handles bookmarks.
// Callers hold s.mu.
func (s *Simulation) flushTelemetry() {
	tick := s.env.Tick()
	if !s.collector.ShouldFlush(tick) {
		return
	}

	stats := s.collector.Flush(tick, s.env.Sample())
	perfStats := s.env.Perf().Stats()

	if s.opts.StatsCallback != nil {
		s.opts.StatsCallback(stats)
	}

	if s.opts.LogStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := s.output.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := s.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}

	for _, bm := range s.bookmarks.Check(stats) {
		if s.opts.LogStats {
			bm.LogBookmark()
		}
		if err := s.output.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
	}
}

// Summary describes the run so far.
type Summary struct {
	Seed        int64
	Tick        int64
	Population  int
	Births      int
	Deaths      int
	MaxGen      int
	MeanEnergy  float64
	EventsSaved int
	OutputDir   string
}

// LogValue implements slog.LogValuer.
func (s Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("seed", s.Seed),
		slog.Int64("tick", s.Tick),
		slog.Int("population", s.Population),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths),
		slog.Int("max_generation", s.MaxGen),
		slog.Float64("mean_energy", s.MeanEnergy),
		slog.Int("events_saved", s.EventsSaved),
		slog.String("output_dir", s.OutputDir),
	)
}

// Summary returns totals for the run.
func (s *Simulation) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.env.Stats()
	sum := Summary{
		Seed:       s.seed,
		Tick:       st.Tick,
		Population: st.Population,
		Births:     st.Births,
		Deaths:     st.Deaths,
		MaxGen:     st.MaxGeneration,
		MeanEnergy: st.MeanEnergy,
		OutputDir:  s.output.Dir(),
	}
	if s.eventLog != nil {
		sum.EventsSaved = s.eventLog.Count()
	}
	return sum
}

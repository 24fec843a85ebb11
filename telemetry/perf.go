package telemetry

import (
	"log/slog"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase identifies one stage of the environment update.
type Phase uint8

// Update phases in execution order.
const (
	PhasePrey Phase = iota
	PhaseCarrion
	PhasePressure
	PhaseCreatures
	PhaseSpawn
	PhaseCleanup
	PhaseGrid
	PhaseStats
	NumPhases
)

var phaseNames = [NumPhases]string{
	"prey", "carrion", "pressure", "creatures", "spawn", "cleanup", "grid", "stats",
}

func (p Phase) String() string {
	if p < NumPhases {
		return phaseNames[p]
	}
	return "unknown"
}

// tickTiming is the measured cost of one tick.
type tickTiming struct {
	total  time.Duration
	phases [NumPhases]time.Duration
}

// PerfCollector keeps the timings of the last windowSize ticks in a ring.
// A nil collector ignores every call.
type PerfCollector struct {
	ring  []tickTiming
	next  int
	count int

	cur        tickTiming
	tickStart  time.Time
	phaseStart time.Time
	running    Phase
	inPhase    bool
}

// NewPerfCollector creates a collector averaging over windowSize ticks.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{ring: make([]tickTiming, windowSize)}
}

// StartTick begins timing a tick.
func (p *PerfCollector) StartTick() {
	if p == nil {
		return
	}
	p.cur = tickTiming{}
	p.inPhase = false
	p.tickStart = time.Now()
}

// StartPhase closes the running phase, if any, and opens phase.
func (p *PerfCollector) StartPhase(phase Phase) {
	if p == nil {
		return
	}
	now := time.Now()
	p.closePhase(now)
	p.running, p.inPhase, p.phaseStart = phase, true, now
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase && p.running < NumPhases {
		p.cur.phases[p.running] += now.Sub(p.phaseStart)
	}
	p.inPhase = false
}

// EndTick stores the tick in the ring and returns its duration.
func (p *PerfCollector) EndTick() time.Duration {
	if p == nil {
		return 0
	}
	now := time.Now()
	p.closePhase(now)
	p.cur.total = now.Sub(p.tickStart)

	p.ring[p.next] = p.cur
	p.next = (p.next + 1) % len(p.ring)
	p.count = min(p.count+1, len(p.ring))
	return p.cur.total
}

// PerfStats summarizes the ticks currently in the window.
type PerfStats struct {
	Samples         int
	AvgTickDuration time.Duration
	P95TickDuration time.Duration
	MaxTickDuration time.Duration
	TicksPerSecond  float64

	PhaseAvg [NumPhases]time.Duration
	PhasePct [NumPhases]float64 // share of the average tick, in percent
}

// Stats aggregates the window.
func (p *PerfCollector) Stats() PerfStats {
	if p == nil || p.count == 0 {
		return PerfStats{}
	}

	totals := make([]float64, p.count)
	var phaseSum [NumPhases]time.Duration
	var maxTick time.Duration
	for i, t := range p.ring[:p.count] {
		totals[i] = float64(t.total)
		maxTick = max(maxTick, t.total)
		for ph, d := range t.phases {
			phaseSum[ph] += d
		}
	}

	avg := time.Duration(stat.Mean(totals, nil))
	slices.Sort(totals)
	s := PerfStats{
		Samples:         p.count,
		AvgTickDuration: avg,
		P95TickDuration: time.Duration(stat.Quantile(0.95, stat.Empirical, totals, nil)),
		MaxTickDuration: maxTick,
	}
	if avg > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(avg)
	}
	for ph := range NumPhases {
		s.PhaseAvg[ph] = phaseSum[ph] / time.Duration(p.count)
		if avg > 0 {
			s.PhasePct[ph] = 100 * float64(s.PhaseAvg[ph]) / float64(avg)
		}
	}
	return s
}

// LogStats logs the window through slog.
func (s PerfStats) LogStats() {
	slog.Info("perf", "perf", s)
}

// LogValue implements slog.LogValuer. Phases under 0.1% are omitted.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("p95_tick_us", s.P95TickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	for ph := range NumPhases {
		if pct := s.PhasePct[ph]; pct > 0.1 {
			attrs = append(attrs, slog.Float64(ph.String()+"_pct", float64(int(pct*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is the perf.csv row.
type PerfStatsCSV struct {
	WindowEnd    int64   `csv:"window_end"`
	AvgTickUS    int64   `csv:"avg_tick_us"`
	P95TickUS    int64   `csv:"p95_tick_us"`
	MaxTickUS    int64   `csv:"max_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	PreyPct      float64 `csv:"prey_pct"`
	CarrionPct   float64 `csv:"carrion_pct"`
	PressurePct  float64 `csv:"pressure_pct"`
	CreaturesPct float64 `csv:"creatures_pct"`
	SpawnPct     float64 `csv:"spawn_pct"`
	CleanupPct   float64 `csv:"cleanup_pct"`
	GridPct      float64 `csv:"grid_pct"`
	StatsPct     float64 `csv:"stats_pct"`
}

// ToCSV flattens s into a perf.csv row.
func (s PerfStats) ToCSV(windowEnd int64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		AvgTickUS:    s.AvgTickDuration.Microseconds(),
		P95TickUS:    s.P95TickDuration.Microseconds(),
		MaxTickUS:    s.MaxTickDuration.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		PreyPct:      s.PhasePct[PhasePrey],
		CarrionPct:   s.PhasePct[PhaseCarrion],
		PressurePct:  s.PhasePct[PhasePressure],
		CreaturesPct: s.PhasePct[PhaseCreatures],
		SpawnPct:     s.PhasePct[PhaseSpawn],
		CleanupPct:   s.PhasePct[PhaseCleanup],
		GridPct:      s.PhasePct[PhaseGrid],
		StatsPct:     s.PhasePct[PhaseStats],
	}
}

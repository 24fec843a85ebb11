package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector(t *testing.T) {
	pc := NewPerfCollector(10)
	for range 5 {
		pc.StartTick()
		pc.StartPhase(PhaseGrid)
		time.Sleep(20 * time.Microsecond)
		pc.StartPhase(PhaseCreatures)
		time.Sleep(300 * time.Microsecond)
		if d := pc.EndTick(); d <= 0 {
			t.Fatalf("EndTick() = %v, want positive", d)
		}
	}

	stats := pc.Stats()
	if stats.Samples != 5 {
		t.Errorf("samples = %d, want 5", stats.Samples)
	}
	if stats.AvgTickDuration <= 0 || stats.TicksPerSecond <= 0 {
		t.Errorf("tick timing not recorded: %+v", stats)
	}
	if stats.P95TickDuration < stats.AvgTickDuration/2 || stats.P95TickDuration > stats.MaxTickDuration {
		t.Errorf("p95 %v outside [avg/2, max %v]", stats.P95TickDuration, stats.MaxTickDuration)
	}
	if stats.PhaseAvg[PhaseGrid] <= 0 || stats.PhaseAvg[PhaseCreatures] <= 0 {
		t.Errorf("phase averages missing: %v", stats.PhaseAvg)
	}
	if stats.PhasePct[PhaseCreatures] <= stats.PhasePct[PhaseGrid] {
		t.Errorf("creatures %.1f%% should exceed grid %.1f%%",
			stats.PhasePct[PhaseCreatures], stats.PhasePct[PhaseGrid])
	}
	if stats.PhaseAvg[PhaseSpawn] != 0 {
		t.Errorf("untimed phase has average %v", stats.PhaseAvg[PhaseSpawn])
	}
}

func TestPerfCollectorRollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)
	for range 12 {
		pc.StartTick()
		pc.StartPhase(PhaseGrid)
		pc.EndTick()
	}
	if got := pc.Stats().Samples; got != 5 {
		t.Errorf("samples = %d, want window size 5", got)
	}
}

func TestPerfCollectorEmptyAndNil(t *testing.T) {
	if s := NewPerfCollector(10).Stats(); s.Samples != 0 || s.AvgTickDuration != 0 {
		t.Errorf("empty collector stats = %+v", s)
	}

	var pc *PerfCollector
	pc.StartTick()
	pc.StartPhase(PhasePrey)
	if d := pc.EndTick(); d != 0 {
		t.Errorf("nil EndTick() = %v", d)
	}
	if s := pc.Stats(); s.Samples != 0 {
		t.Errorf("nil Stats() = %+v", s)
	}
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		p    Phase
		want string
	}{
		{PhasePrey, "prey"},
		{PhaseStats, "stats"},
		{NumPhases, "unknown"},
	}
	for _, tt := range tests {
		if got := tt.p.String(); got != tt.want {
			t.Errorf("Phase(%d).String() = %q, want %q", tt.p, got, tt.want)
		}
	}
}

func TestPerfStatsToCSV(t *testing.T) {
	var stats PerfStats
	stats.AvgTickDuration = 1500 * time.Microsecond
	stats.PhasePct[PhaseCreatures] = 62.5
	stats.PhasePct[PhaseGrid] = 10

	row := stats.ToCSV(900)
	if row.WindowEnd != 900 || row.AvgTickUS != 1500 {
		t.Errorf("unexpected row header fields: %+v", row)
	}
	if row.CreaturesPct != 62.5 || row.GridPct != 10 || row.SpawnPct != 0 {
		t.Errorf("phase percentages not mapped: %+v", row)
	}
}

package telemetry

import (
	"math"
	"testing"
)

func TestCollectorCountsEvents(t *testing.T) {
	c := NewCollector(100)

	events := []Event{
		NewBirthEvent(1, 10, []uint64{1, 2}, 3),
		NewBirthEvent(2, 11, []uint64{1, 2}, 3),
		NewDeathEvent(3, 4, CauseStarvation, 500, 1.2),
		NewDeathEvent(3, 5, CausePredation, 200, 0.4),
		NewDeathEvent(4, 6, CausePredation, 900, 2.0),
		NewFeedingEvent(5, 7, "plant", 4.5),
		NewFeedingEvent(5, 8, "carrion", 10),
		NewCombatEvent(6, 7, 5, OutcomeHit, 20, true),
		NewCombatEvent(6, 8, 9, OutcomeMiss, 0, false),
		NewCombatEvent(6, 8, 9, OutcomeOutOfRange, 0, false),
		NewCullEvent(7, 3, 403, 400),
		NewErrorEvent(8, 12, "energy was NaN"),
	}
	for _, e := range events {
		c.Record(e)
	}

	if c.ShouldFlush(99) {
		t.Error("window should not close before windowTicks")
	}
	if !c.ShouldFlush(100) {
		t.Error("window should close at windowTicks")
	}

	s := c.Flush(100, PopulationSample{
		Energies:    []float64{10, 20, 30, 40},
		Aggression:  []float64{0.2, 0.4, 0.6, 0.8},
		Generations: []float64{1, 2, 3, 6},
		Plants:      12,
	})

	tests := []struct {
		name      string
		got, want int
	}{
		{"births", s.Births, 2},
		{"deaths", s.Deaths, 3},
		{"starvation", s.DeathsStarvation, 1},
		{"predation", s.DeathsPredation, 2},
		{"feedings", s.Feedings, 2},
		{"attacks", s.Attacks, 2},
		{"hits", s.Hits, 1},
		{"kills", s.Kills, 1},
		{"culls", s.Culls, 1},
		{"errors", s.Errors, 1},
		{"population", s.Population, 4},
		{"plants", s.Plants, 12},
		{"max generation", s.MaxGeneration, 6},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, tt.got, tt.want)
		}
	}

	if math.Abs(s.FoodEnergy-14.5) > 1e-12 {
		t.Errorf("FoodEnergy = %v, want 14.5", s.FoodEnergy)
	}
	if s.HitRate != 0.5 || s.KillRate != 1 {
		t.Errorf("HitRate = %v, KillRate = %v", s.HitRate, s.KillRate)
	}
	if s.EnergyMean != 25 {
		t.Errorf("EnergyMean = %v, want 25", s.EnergyMean)
	}
	if math.Abs(s.AggressionMean-0.5) > 1e-12 {
		t.Errorf("AggressionMean = %v, want 0.5", s.AggressionMean)
	}
	if s.MeanGeneration != 3 {
		t.Errorf("MeanGeneration = %v, want 3", s.MeanGeneration)
	}
}

func TestCollectorFlushResets(t *testing.T) {
	c := NewCollector(10)
	c.Record(NewBirthEvent(1, 1, nil, 0))
	c.Record(NewDeathEvent(1, 2, CauseOldAge, 10, 0))
	c.Flush(10, PopulationSample{})

	s := c.Flush(20, PopulationSample{})
	if s.Births != 0 || s.Deaths != 0 || s.DeathsOldAge != 0 {
		t.Errorf("counters not reset: %+v", s)
	}
	if s.WindowStartTick != 10 || s.WindowEndTick != 20 {
		t.Errorf("window = [%d, %d], want [10, 20]", s.WindowStartTick, s.WindowEndTick)
	}
	if c.ShouldFlush(29) {
		t.Error("window start should advance on flush")
	}
}

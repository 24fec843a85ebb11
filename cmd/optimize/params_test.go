package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/biosphere/config"
	"github.com/pthm-cable/biosphere/telemetry"
)

func TestParamVectorMatchesDefaults(t *testing.T) {
	pv := NewParamVector()
	got := pv.ExtractFromConfig(config.Default())
	if len(got) != pv.Dim() {
		t.Fatalf("extracted %d values, want %d", len(got), pv.Dim())
	}
	for i, spec := range pv.Specs {
		if math.Abs(got[i]-spec.Default) > 1e-9 {
			t.Errorf("%s: config default %v, spec default %v", spec.Name, got[i], spec.Default)
		}
	}
}

func TestApplyToConfigStaysValid(t *testing.T) {
	pv := NewParamVector()
	for _, fill := range []float64{-1, 0, 0.5, 1, 2} {
		normalized := make([]float64, pv.Dim())
		for i := range normalized {
			normalized[i] = fill
		}
		cfg := config.Default().Clone()
		pv.ApplyToConfig(cfg, pv.Denormalize(normalized))
		if err := cfg.Validate(); err != nil {
			t.Errorf("fill %v: %v", fill, err)
		}
	}
}

func TestNormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector()
	raw := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(raw[i]-back[i]) > 1e-9 {
			t.Errorf("%s: %v -> %v", pv.Specs[i].Name, raw[i], back[i])
		}
	}
}

func TestComputeQuality(t *testing.T) {
	steady := func(pop int) []telemetry.WindowStats {
		ws := make([]telemetry.WindowStats, 10)
		for i := range ws {
			ws[i] = telemetry.WindowStats{Population: pop, EnergyP50: 50, Births: 10}
		}
		return ws
	}

	onTarget := computeQuality(steady(300), 300)
	offTarget := computeQuality(steady(100), 300)
	if onTarget < 0.99 {
		t.Errorf("steady population on target scored %v, want ~1", onTarget)
	}
	if offTarget >= onTarget {
		t.Errorf("off-target %v should score below on-target %v", offTarget, onTarget)
	}
	if q := computeQuality(steady(300)[:2], 300); q != 0 {
		t.Errorf("warmup-only windows scored %v, want 0", q)
	}
	if fa, fb := computeFitness(1000, onTarget), computeFitness(1000, offTarget); fa >= fb {
		t.Errorf("fitness %v should be lower (better) than %v", fa, fb)
	}
}

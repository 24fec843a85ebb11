package ecosystem

import (
	"errors"
	"testing"

	"github.com/pthm-cable/biosphere/config"
)

func TestBiomePresets(t *testing.T) {
	names := BiomeNames()
	if len(names) != 6 {
		t.Fatalf("presets = %v, want 6", names)
	}
	for _, name := range names {
		b, err := LookupBiome(name)
		if err != nil {
			t.Fatalf("LookupBiome(%q): %v", name, err)
		}
		if b.Name != name {
			t.Errorf("preset %q has name %q", name, b.Name)
		}
		if m := b.MetabolicMultiplier(); m < 1 || m > 1.3 {
			t.Errorf("%s metabolic multiplier = %v, want [1, 1.3]", name, m)
		}
	}

	if _, err := LookupBiome("ocean"); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("LookupBiome(ocean) error = %v, want ErrInvalidConfig", err)
	}
}

func TestBiomeSeason(t *testing.T) {
	b := Biome{SeasonalVariation: 0.3}
	tests := []struct {
		tick, length int64
		want         float64
	}{
		{0, 100, 1},
		{25, 100, 1.3},
		{75, 100, 0.7},
		{25, 0, 1},
	}
	for _, tt := range tests {
		got := b.Season(tt.tick, tt.length)
		if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("Season(%d, %d) = %v, want %v", tt.tick, tt.length, got, tt.want)
		}
	}
}

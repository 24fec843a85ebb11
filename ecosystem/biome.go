package ecosystem

import (
	"fmt"
	"math"
	"slices"

	"github.com/pthm-cable/biosphere/config"
)

// Biome describes the climate of an environment. It is fixed for the
// lifetime of an Environment.
type Biome struct {
	Name              string
	Temperature       float64 // 0 cold, 1 hot
	Humidity          float64 // 0 dry, 1 wet
	PlantDensity      float64 // plant spawn multiplier
	PreyDensity       float64 // prey spawn multiplier
	PredationPressure float64 // prey agility
	Competition       float64 // social-stress multiplier
	SeasonalVariation float64 // amplitude of the seasonal spawn cycle
}

var biomes = map[string]Biome{
	"temperate_forest": {
		Name: "temperate_forest", Temperature: 0.5, Humidity: 0.6,
		PlantDensity: 1.0, PreyDensity: 1.0, PredationPressure: 0.5,
		Competition: 1.0, SeasonalVariation: 0.3,
	},
	"grassland": {
		Name: "grassland", Temperature: 0.55, Humidity: 0.4,
		PlantDensity: 1.2, PreyDensity: 1.3, PredationPressure: 0.6,
		Competition: 1.1, SeasonalVariation: 0.2,
	},
	"desert": {
		Name: "desert", Temperature: 0.9, Humidity: 0.1,
		PlantDensity: 0.3, PreyDensity: 0.5, PredationPressure: 0.7,
		Competition: 1.4, SeasonalVariation: 0.1,
	},
	"tundra": {
		Name: "tundra", Temperature: 0.1, Humidity: 0.3,
		PlantDensity: 0.4, PreyDensity: 0.6, PredationPressure: 0.4,
		Competition: 1.2, SeasonalVariation: 0.5,
	},
	"rainforest": {
		Name: "rainforest", Temperature: 0.7, Humidity: 0.9,
		PlantDensity: 1.6, PreyDensity: 1.2, PredationPressure: 0.8,
		Competition: 0.9, SeasonalVariation: 0.05,
	},
	"wetland": {
		Name: "wetland", Temperature: 0.55, Humidity: 1.0,
		PlantDensity: 1.3, PreyDensity: 0.8, PredationPressure: 0.4,
		Competition: 0.9, SeasonalVariation: 0.25,
	},
}

// BiomeNames returns the preset names in sorted order.
func BiomeNames() []string {
	names := make([]string, 0, len(biomes))
	for name := range biomes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// LookupBiome returns the preset with the given name.
func LookupBiome(name string) (Biome, error) {
	b, ok := biomes[name]
	if !ok {
		return Biome{}, fmt.Errorf("%w: unknown biome %q (want one of %v)", config.ErrInvalidConfig, name, BiomeNames())
	}
	return b, nil
}

// MetabolicMultiplier scales every creature's baseline metabolism. Extreme
// temperatures cost more to live in.
func (b Biome) MetabolicMultiplier() float64 {
	return 1 + 0.6*math.Abs(b.Temperature-0.5)
}

// Season returns the spawn multiplier at tick for a cycle of length ticks.
func (b Biome) Season(tick, length int64) float64 {
	if length <= 0 || b.SeasonalVariation == 0 {
		return 1
	}
	phase := 2 * math.Pi * float64(tick%length) / float64(length)
	return max(0, 1+b.SeasonalVariation*math.Sin(phase))
}

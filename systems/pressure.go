package systems

import (
	"cmp"
	"slices"
)

// OverpopulationRatio is (population-target)/target, or 0 when the
// population is at or below target.
func OverpopulationRatio(population, target int) float64 {
	if target <= 0 || population <= target {
		return 0
	}
	return float64(population-target) / float64(target)
}

// MortalityProbability is the per-creature death chance for one tick:
// rate * ratio^2, capped at 1.
func MortalityProbability(rate, ratio float64) float64 {
	return Clamp01(rate * ratio * ratio)
}

// StressDrain is the social-stress energy deduction for a creature with
// the given number of neighbours.
func StressDrain(factor float64, neighbours int) float64 {
	return factor * float64(neighbours)
}

// ResourceScaling shrinks food spawning as the population overshoots.
func ResourceScaling(factor, ratio float64) float64 {
	return 1 / (1 + factor*ratio)
}

// CullCandidate is a living creature considered by the emergency cap.
type CullCandidate struct {
	ID      uint64
	Fitness float64
	Age     int64
}

// SelectCull returns the IDs of the excess lowest-fitness creatures, oldest
// first among equal fitness. Ties beyond that break on ID so the choice is
// stable. cands is reordered.
func SelectCull(cands []CullCandidate, excess int) []uint64 {
	if excess <= 0 {
		return nil
	}
	slices.SortFunc(cands, func(a, b CullCandidate) int {
		if c := cmp.Compare(a.Fitness, b.Fitness); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Age, a.Age); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	excess = min(excess, len(cands))
	ids := make([]uint64, excess)
	for i := range ids {
		ids[i] = cands[i].ID
	}
	return ids
}

package systems

import (
	"github.com/pthm-cable/biosphere/components"
)

// DietMultiplier returns the preference that scales energy from food of
// the given kind. Carrion and prey count as meat.
func DietMultiplier(kind components.EntityKind, plantPreference, meatPreference float64) float64 {
	if kind.IsMeat() {
		return meatPreference
	}
	return plantPreference
}

// FeedingGain is energyValue * feedingPower * dietMultiplier with the
// power clamped to [0, 1].
func FeedingGain(energyValue, feedingPower, diet float64) float64 {
	return energyValue * Clamp01(feedingPower) * diet
}

// CanReach reports whether a body of radius r at p can eat food of the
// given size at target.
func CanReach(p components.Vec2, r float64, target components.Vec2, size, margin float64) bool {
	reach := r + size + margin
	return p.DistSq(target) <= reach*reach
}

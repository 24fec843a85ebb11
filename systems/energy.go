package systems

import "math"

// Energy and health share a 0-100 scale.
const (
	MaxEnergy = 100.0
	MaxHealth = 100.0
)

// MetabolicCost is the per-tick baseline drain. Bigger and faster bodies
// burn more; the biome multiplier models climate.
func MetabolicCost(base, metabolism, size, speed, biome float64) float64 {
	return base * metabolism * (0.5*size + 0.5*speed) * biome
}

// MovementCost is proportional to (speed/maxSpeed)^2, scaled by body size
// and reduced by up to half by endurance.
func MovementCost(moveCost, speed, maxSpeed, size, endurance float64) float64 {
	if maxSpeed <= 0 {
		return 0
	}
	ratio := speed / maxSpeed
	return moveCost * ratio * ratio * size * (1 - 0.5*endurance)
}

// ClampVital clamps an energy or health value to [0, limit]. Ordinary
// overshoot is not an error; invalid is true only for NaN or infinite
// input, which is reset to zero.
func ClampVital(v, limit float64) (clamped float64, invalid bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, true
	}
	return Clamp(v, 0, limit), false
}

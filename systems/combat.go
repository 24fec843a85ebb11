package systems

import "github.com/pthm-cable/biosphere/components"

// Hit chance bounds.
const (
	MinHitChance = 0.1
	MaxHitChance = 0.9
)

// Fighter is the subset of a creature's state combat reads.
type Fighter struct {
	Size       float64
	Speed      float64
	Aggression float64
}

// HitChance is the probability an in-range attack lands:
// clamp(0.1, 0.9, 0.3 + 0.3*sizeRatio + 0.4*aggression + 0.2*power - 0.2*defenderSpeed).
func HitChance(attacker, defender Fighter, attackPower float64) float64 {
	ratio := 1.0
	if defender.Size > 0 {
		ratio = attacker.Size / defender.Size
	}
	p := 0.3 + 0.3*ratio + 0.4*attacker.Aggression + 0.2*attackPower - 0.2*defender.Speed
	return Clamp(p, MinHitChance, MaxHitChance)
}

// Damage is attackPower * attackerSize * factor.
func Damage(attackPower, attackerSize, factor float64) float64 {
	return attackPower * attackerSize * factor
}

// AttackCost is what the attacker pays for any in-range attempt.
func AttackCost(attackPower, factor float64) float64 {
	return attackPower * factor
}

// PredationGain is the energy a killer takes from its victim, scaled by
// how much the killer likes meat.
func PredationGain(victimSize, meatPreference, perSize float64) float64 {
	return victimSize * perSize * (0.5 + 0.5*meatPreference)
}

// InContact reports whether two bodies touch.
func InContact(a components.Vec2, ra float64, b components.Vec2, rb float64) bool {
	reach := ra + rb
	return a.DistSq(b) <= reach*reach
}

package systems

import "github.com/pthm-cable/biosphere/components"

// DecayCarrion advances a carrion record to the given tick. The decay stage
// rises linearly over decayTicks and never goes backwards; the energy value
// falls toward residual*original and never rises. Returns true once the
// carrion is fully decayed.
func DecayCarrion(c *components.Carrion, tick, decayTicks int64, residual float64) bool {
	stage := 1.0
	if decayTicks > 0 {
		stage = Clamp01(float64(tick-c.TimeOfDeath) / float64(decayTicks))
	}
	if stage > c.CurrentDecayStage {
		c.CurrentDecayStage = stage
	}

	energy := c.OriginalEnergy * (1 - (1-residual)*c.CurrentDecayStage)
	if energy < c.CurrentEnergyValue {
		c.CurrentEnergyValue = energy
	}
	c.Scent = 1 - c.CurrentDecayStage

	return c.CurrentDecayStage >= 1
}

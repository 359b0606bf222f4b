package agentstate

import "math/rand"

// EnergyDefaults holds the uniform-drain bounds from spec.md section 4.3.
type EnergyDefaults struct {
	EMin float64
	EMax float64
}

// DefaultEnergyDefaults returns E_min=8, E_max=15.
func DefaultEnergyDefaults() EnergyDefaults {
	return EnergyDefaults{EMin: 8, EMax: 15}
}

// Drain computes the next energy level after one turn: a uniform random
// drain in [E_min,E_max] plus 0.4*C, capped at 2*E_max, subtracted from
// current energy and floored at 0. rng is the dialogue session's single
// seedable PRNG, per spec.md section 9.
func (e EnergyDefaults) Drain(rng *rand.Rand, current, conflictIndex float64) float64 {
	drain := e.EMin + rng.Float64()*(e.EMax-e.EMin)
	drain += 0.4 * conflictIndex
	capped := 2 * e.EMax
	if drain > capped {
		drain = capped
	}
	next := current - drain
	if next < 0 {
		next = 0
	}
	return next
}

// DefaultSafetyThreshold is the default forced-recharge trigger point.
const DefaultSafetyThreshold = 35.0

// ShouldRecharge reports whether energy has fallen to or below threshold,
// triggering the dream-cycle consolidation phase (spec.md section 4.3).
func ShouldRecharge(energy, threshold float64) bool {
	return energy <= threshold
}

// RechargedEnergy is the energy level after a forced recharge completes.
const RechargedEnergy = 100.0

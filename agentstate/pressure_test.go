package agentstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWordCapTiers(t *testing.T) {
	assert.Equal(t, 80, WordCap(8))
	assert.Equal(t, 80, WordCap(9.5))
	assert.Equal(t, 120, WordCap(5))
	assert.Equal(t, 120, WordCap(7.9))
	assert.Equal(t, 150, WordCap(4.9))
	assert.Equal(t, 150, WordCap(0))
}

// Pressure stagnation — spec.md section 8, literal reference scenario:
// start pressure 2.0, 8 turns of energy=80, C=5, unresolved=2, stagnation=1.0
// should leave final pressure >= 4.0.
func TestPressureStagnationScenario(t *testing.T) {
	pressure := 2.0
	for i := 0; i < 8; i++ {
		pressure = UpdatePressure(pressure, PressureInputs{
			ConflictIndex:           5,
			UnresolvedOpenQuestions: 2,
			EnergyLevel:             80,
			Stagnation:              1.0,
		})
	}
	assert.GreaterOrEqual(t, pressure, 4.0)
}

func TestPressureCalmDecay(t *testing.T) {
	pressure := 5.0
	next := UpdatePressure(pressure, PressureInputs{
		ConflictIndex:           0,
		UnresolvedOpenQuestions: 0,
		EnergyLevel:             100,
		Stagnation:              0,
	})
	assert.Less(t, next, pressure)
}

func TestPressureClampedToBounds(t *testing.T) {
	high := UpdatePressure(10, PressureInputs{ConflictIndex: 20, UnresolvedOpenQuestions: 10, EnergyLevel: 0, Stagnation: 1})
	assert.LessOrEqual(t, high, 10.0)

	low := UpdatePressure(0, PressureInputs{ConflictIndex: 0, UnresolvedOpenQuestions: 0, EnergyLevel: 100, Stagnation: 0})
	assert.GreaterOrEqual(t, low, 0.0)
}

func TestUpdateUnresolvedOpenQuestions(t *testing.T) {
	count := 0
	count = UpdateUnresolvedOpenQuestions(count, true, false)
	assert.Equal(t, 1, count)
	count = UpdateUnresolvedOpenQuestions(count, true, false)
	assert.Equal(t, 2, count)
	count = UpdateUnresolvedOpenQuestions(count, false, true)
	assert.Equal(t, 1, count)
	count = UpdateUnresolvedOpenQuestions(count, false, true)
	assert.Equal(t, 0, count)
	count = UpdateUnresolvedOpenQuestions(count, false, true)
	assert.Equal(t, 0, count)
}

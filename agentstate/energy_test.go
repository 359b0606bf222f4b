package agentstate

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnergyDrainWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	e := DefaultEnergyDefaults()
	current := 100.0
	for i := 0; i < 50; i++ {
		next := e.Drain(rng, current, 5)
		assert.LessOrEqual(t, next, current)
		assert.GreaterOrEqual(t, next, 0.0)
		current = next
	}
}

func TestEnergyDrainFloorsAtZero(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	e := DefaultEnergyDefaults()
	next := e.Drain(rng, 1.0, 20)
	assert.Equal(t, 0.0, next)
}

func TestEnergyDrainCappedByConflict(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	e := DefaultEnergyDefaults()
	next := e.Drain(rng, 100, 1000) // absurd conflict, drain should cap at 2*EMax
	assert.GreaterOrEqual(t, next, 100-2*e.EMax)
}

func TestShouldRecharge(t *testing.T) {
	assert.True(t, ShouldRecharge(35, DefaultSafetyThreshold))
	assert.True(t, ShouldRecharge(10, DefaultSafetyThreshold))
	assert.False(t, ShouldRecharge(36, DefaultSafetyThreshold))
}

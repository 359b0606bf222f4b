package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func demoDialog() []Turn {
	return []Turn{
		{Role: "Socrates", Text: "Consciousness emerges from complex information processing systems."},
		{Role: "Athena", Text: "Consciousness arises from information processing in complex systems."},
		{Role: "Socrates", Text: "Free will might be an illusion created by deterministic processes."},
		{Role: "Athena", Text: "Therefore integrating both views reveals a compatibilist position."},
		{Role: "Fixy", Text: "I notice we have circled back. Let us reframe: how does embodiment change this?"},
		{Role: "Socrates", Text: "The boundaries of self dissolve when examined through neuroscience."},
		{Role: "Athena", Text: "Language shapes the very thoughts we believe are our own."},
		{Role: "Socrates", Text: "Therefore connecting these threads: identity is narrative, not substance."},
		{Role: "Athena", Text: "Bridging neuroscience and philosophy opens new unified frameworks."},
		{Role: "Socrates", Text: "Synthesis of empirical and phenomenal approaches bridges the gap."},
	}
}

func TestCircularityRateEmptyAndSingleTurn(t *testing.T) {
	assert.Equal(t, 0.0, CircularityRate(nil))
	assert.Equal(t, 0.0, CircularityRate([]Turn{{Role: "Socrates", Text: "alone"}}))
}

func TestCircularityRateHighOverlapPair(t *testing.T) {
	repeated := "consciousness requires memory and constant reflection"
	dialog := []Turn{
		{Role: "Socrates", Text: repeated},
		{Role: "Athena", Text: repeated},
	}
	assert.Equal(t, 1.0, CircularityRate(dialog))
}

func TestCircularityRateDemoDialogWithinTolerance(t *testing.T) {
	rate := CircularityRate(demoDialog())
	assert.InDelta(t, 0.022, rate, 0.02)
}

func TestCircularityPerTurnDemoDialogLength(t *testing.T) {
	series := CircularityPerTurn(demoDialog(), defaultCircularityWindow)
	assert.Len(t, series, 10)
	assert.Equal(t, 0.0, series[0])
	for _, v := range series {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestCircularityPerTurnDefaultsWindowWhenZero(t *testing.T) {
	series := CircularityPerTurn(demoDialog(), 0)
	assert.Len(t, series, 10)
}

func TestProgressRateShortDialogIsZero(t *testing.T) {
	assert.Equal(t, 0.0, ProgressRate([]Turn{{Role: "Socrates", Text: "only one turn here"}}))
}

func TestProgressRateDemoDialogWithinTolerance(t *testing.T) {
	rate := ProgressRate(demoDialog())
	assert.InDelta(t, 0.889, rate, 0.05)
}

func TestProgressRateCappedAtOne(t *testing.T) {
	dialog := []Turn{
		{Role: "Socrates", Text: "topic alpha about mountains and rivers"},
		{Role: "Athena", Text: "totally different subject regarding economics markets"},
		{Role: "Socrates", Text: "a third entirely unrelated matter involving astronomy"},
	}
	rate := ProgressRate(dialog)
	assert.LessOrEqual(t, rate, 1.0)
}

func TestInterventionUtilityNoFixyTurnsIsZero(t *testing.T) {
	dialog := []Turn{
		{Role: "Socrates", Text: "hello there"},
		{Role: "Athena", Text: "general response"},
	}
	assert.Equal(t, 0.0, InterventionUtility(dialog, defaultUtilityWindow))
}

func TestInterventionUtilityDemoDialogWithinTolerance(t *testing.T) {
	utility := InterventionUtility(demoDialog(), defaultUtilityWindow)
	assert.InDelta(t, 0.167, utility, 0.05)
}

func TestInterventionUtilityIgnoresFixyTurnWithoutBothSides(t *testing.T) {
	dialog := []Turn{
		{Role: "Fixy", Text: "an intervention with no turns before it"},
		{Role: "Socrates", Text: "a single reply afterwards"},
	}
	assert.Equal(t, 0.0, InterventionUtility(dialog, defaultUtilityWindow))
}

func TestComputeAllReturnsAllThreeMetrics(t *testing.T) {
	summary := ComputeAll(demoDialog())
	assert.InDelta(t, 0.022, summary.CircularityRate, 0.02)
	assert.InDelta(t, 0.889, summary.ProgressRate, 0.05)
	assert.InDelta(t, 0.167, summary.InterventionUtility, 0.05)
}

package dialogue

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/entelgia/entelgia/agentstate"
	"github.com/stretchr/testify/assert"
)

func TestGenerateSeedEmptyHistoryFallsBackToConstructiveDisagree(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	seed := GenerateSeed("free will", nil, agentstate.DefaultDrives(), 1, rng)
	assert.Contains(t, seed, "free will")
	assert.Contains(t, seed, "DISAGREE")
}

func TestSelectStrategyMetaReflectCadenceOverridesEverything(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	strategy := selectStrategy(14, 9.0, "anger", rng)
	assert.Equal(t, StrategyMetaReflect, strategy)
}

func TestSelectStrategyHighConflictForcesSynthesize(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	strategy := selectStrategy(3, 8.5, "neutral", rng)
	assert.Equal(t, StrategySynthesize, strategy)
}

func TestSelectStrategyAngerForcesAgreeAndExpand(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	strategy := selectStrategy(3, 0.0, "frustration", rng)
	assert.Equal(t, StrategyAgreeAndExpand, strategy)
}

func TestSelectStrategyFallsBackToWeightedDraw(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	strategy := selectStrategy(3, 0.0, "neutral", rng)
	_, ok := seedTemplates[strategy]
	assert.True(t, ok)
}

func TestWeightedRandomStrategyCoversAllStrategies(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		seen[weightedRandomStrategy(rng)] = true
	}
	for _, w := range seedWeights {
		assert.True(t, seen[w.strategy], "strategy %s never drawn", w.strategy)
	}
}

func TestGenerateSeedFormatsTopicIntoTemplate(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	recent := []Turn{{Role: "Socrates", Text: "hello", Emotion: "neutral"}}
	seed := GenerateSeed("the trolley problem", recent, agentstate.DefaultDrives(), 1, rng)
	assert.True(t, strings.Contains(seed, "the trolley problem"))
}

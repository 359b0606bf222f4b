package dialogue

import (
	"fmt"
	"math/rand"

	"github.com/entelgia/entelgia/agentstate"
)

// Seed strategy names, in the original source's declared order.
const (
	StrategyAgreeAndExpand       = "agree_and_expand"
	StrategyQuestionAssumption   = "question_assumption"
	StrategySynthesize           = "synthesize"
	StrategyConstructiveDisagree = "constructive_disagree"
	StrategyExploreImplication  = "explore_implication"
	StrategyIntroduceAnalogy     = "introduce_analogy"
	StrategyMetaReflect          = "meta_reflect"
)

var seedTemplates = map[string]string{
	StrategyAgreeAndExpand:       "TOPIC: %s\nBUILD on the previous insight. Add depth or a new dimension.",
	StrategyQuestionAssumption:   "TOPIC: %s\nQUESTION a hidden assumption. What are we taking for granted?",
	StrategySynthesize:           "TOPIC: %s\nINTEGRATE the different views. Find the connecting thread.",
	StrategyConstructiveDisagree: "TOPIC: %s\nDISAGREE constructively. Offer an alternative perspective.",
	StrategyExploreImplication:  "TOPIC: %s\nEXPLORE consequences. Where does this line of thinking lead?",
	StrategyIntroduceAnalogy:     "TOPIC: %s\nCONNECT via analogy. How is this like something else?",
	StrategyMetaReflect:          "TOPIC: %s\nREFLECT on our dialogue. What are we learning? Where are we stuck?",
}

// seedWeights is ordered (rather than a plain map) so weighted selection is
// deterministic given the same rng draw, independent of Go's randomized map
// iteration order.
var seedWeights = []struct {
	strategy string
	weight   float64
}{
	{StrategyAgreeAndExpand, 0.15},
	{StrategyQuestionAssumption, 0.20},
	{StrategySynthesize, 0.10},
	{StrategyConstructiveDisagree, 0.25},
	{StrategyExploreImplication, 0.15},
	{StrategyIntroduceAnalogy, 0.10},
	{StrategyMetaReflect, 0.05},
}

const metaReflectCadence = 7
const highConflictSeedThreshold = 8.0

// GenerateSeed implements spec.md section 4.1's seed_for_turn: picks a
// strategy from the dialogue state, formats its template with topic, and
// returns the seed string injected into the speaker's prompt. recentTurns
// should already be the caller's last-5-turns slice (mirrors the original
// source's DialogueEngine.generate_seed, which slices before delegating to
// SeedGenerator.generate_seed).
func GenerateSeed(topic string, recentTurns []Turn, speakerDrives agentstate.Drives, turnCount int, rng *rand.Rand) string {
	if len(recentTurns) == 0 {
		return fmt.Sprintf(seedTemplates[StrategyConstructiveDisagree], topic)
	}

	lastTurn := recentTurns[len(recentTurns)-1]
	lastEmotion := lastTurn.Emotion
	if lastEmotion == "" {
		lastEmotion = "neutral"
	}

	strategy := selectStrategy(turnCount, speakerDrives.ConflictIndex(), lastEmotion, rng)
	template, ok := seedTemplates[strategy]
	if !ok {
		template = seedTemplates[StrategyConstructiveDisagree]
	}
	return fmt.Sprintf(template, topic)
}

func selectStrategy(turnCount int, conflictLevel float64, lastEmotion string, rng *rand.Rand) string {
	if turnCount > 0 && turnCount%metaReflectCadence == 0 {
		return StrategyMetaReflect
	}
	if conflictLevel > highConflictSeedThreshold {
		return StrategySynthesize
	}
	if lastEmotion == "anger" || lastEmotion == "frustration" {
		return StrategyAgreeAndExpand
	}
	return weightedRandomStrategy(rng)
}

func weightedRandomStrategy(rng *rand.Rand) string {
	total := 0.0
	for _, w := range seedWeights {
		total += w.weight
	}

	draw := rng.Float64() * total
	cumulative := 0.0
	for _, w := range seedWeights {
		cumulative += w.weight
		if draw < cumulative {
			return w.strategy
		}
	}
	return seedWeights[len(seedWeights)-1].strategy
}

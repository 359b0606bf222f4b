// Package observer implements the need-based Fixy intervention detectors
// (spec.md section 4.4), grounded line-for-line on the original source's
// fixy_interactive.py (InteractiveFixy.should_intervene and its five
// _detect_* helpers).
package observer

import (
	"context"
	"fmt"
	"strings"

	"github.com/entelgia/entelgia/lexical"
	"github.com/entelgia/entelgia/llm"
)

// Turn is the minimal view of a dialogue turn the detectors need.
type Turn struct {
	Role string
	Text string
}

// Reason identifies which detector fired.
type Reason string

const (
	ReasonCircularReasoning     Reason = "circular_reasoning"
	ReasonHighConflictNoResolve Reason = "high_conflict_no_resolution"
	ReasonShallowDiscussion     Reason = "shallow_discussion"
	ReasonSynthesisOpportunity  Reason = "synthesis_opportunity"
	ReasonMetaReflectionNeeded  Reason = "meta_reflection_needed"
)

const windowSize = 10

// ShouldIntervene evaluates the last up-to-10 turns against the five
// ordered detectors and fires on the first match. turnCount is the current
// 1-indexed turn number. Never fires before turn 3.
func ShouldIntervene(dialog []Turn, turnCount int) (bool, Reason) {
	if turnCount < 3 {
		return false, ""
	}

	window := lastN(dialog, windowSize)

	if detectCircularReasoning(window) {
		return true, ReasonCircularReasoning
	}
	if turnCount >= 6 && detectHighConflict(window) {
		return true, ReasonHighConflictNoResolve
	}
	if turnCount >= 10 && detectShallowDiscussion(window) {
		return true, ReasonShallowDiscussion
	}
	if turnCount >= 5 && detectSynthesisOpportunity(window) {
		return true, ReasonSynthesisOpportunity
	}
	if turnCount > 15 && turnCount%15 == 0 {
		return true, ReasonMetaReflectionNeeded
	}

	return false, ""
}

func lastN(turns []Turn, n int) []Turn {
	if len(turns) <= n {
		return turns
	}
	return turns[len(turns)-n:]
}

// detectCircularReasoning counts pairs (i,j), i<j with word-set Jaccard >
// 0.5 (over keywords longer than 4 chars); fires at 3 or more such pairs.
func detectCircularReasoning(turns []Turn) bool {
	if len(turns) < 4 {
		return false
	}

	keywordSets := make([]map[string]struct{}, len(turns))
	for i, turn := range turns {
		set := make(map[string]struct{})
		for w := range lexical.Keywords(turn.Text) {
			if len(w) > 4 {
				set[w] = struct{}{}
			}
		}
		keywordSets[i] = set
	}

	highOverlapCount := 0
	for i := 0; i < len(keywordSets)-1; i++ {
		for j := i + 1; j < len(keywordSets); j++ {
			if len(keywordSets[i]) == 0 || len(keywordSets[j]) == 0 {
				continue
			}
			if lexical.Jaccard(keywordSets[i], keywordSets[j]) > 0.5 {
				highOverlapCount++
			}
		}
	}

	return highOverlapCount >= 3
}

var conflictMarkers = []string{
	"not", "but", "however", "wrong", "incorrect", "actually", "contrary", "opposite",
	"disagree",
	"לא", "אבל", "טעות", "שגוי",
}

// detectHighConflict fires when more than 60% of turns contain a
// disagreement marker.
func detectHighConflict(turns []Turn) bool {
	if len(turns) < 4 {
		return false
	}

	conflictCount := 0
	for _, turn := range turns {
		if containsAny(strings.ToLower(turn.Text), conflictMarkers) {
			conflictCount++
		}
	}
	return float64(conflictCount)/float64(len(turns)) > 0.6
}

var depthMarkers = []string{
	"why", "because", "therefore", "implies", "consequence", "deeper", "fundamental", "underlying",
	"מדוע", "כי", "עמוק", "יסוד", "השלכה",
}

// detectShallowDiscussion fires when average turn length is under 150
// chars AND fewer than 30% of turns contain a depth marker.
func detectShallowDiscussion(turns []Turn) bool {
	if len(turns) < 6 {
		return false
	}

	totalLen := 0
	depthCount := 0
	for _, turn := range turns {
		totalLen += len([]rune(turn.Text))
		if containsAny(strings.ToLower(turn.Text), depthMarkers) {
			depthCount++
		}
	}
	avgLen := float64(totalLen) / float64(len(turns))

	return avgLen < 150 && float64(depthCount)/float64(len(turns)) < 0.3
}

var synthesisMarkers = []string{
	"connect", "integrate", "together", "both", "combine",
	"מחבר", "משלב", "יחד", "שניהם", "גם",
}

// detectSynthesisOpportunity fires when none of the last 3 turns contains a
// synthesis marker and at least 5 turns of content exist.
func detectSynthesisOpportunity(turns []Turn) bool {
	if len(turns) < 4 {
		return false
	}

	hasSynthesis := false
	for _, turn := range lastN(turns, 3) {
		if containsAny(strings.ToLower(turn.Text), synthesisMarkers) {
			hasSynthesis = true
			break
		}
	}

	return !hasSynthesis && len(turns) >= 5
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

var interventionPrompts = map[Reason]string{
	ReasonCircularReasoning: "You are Fixy, the meta-cognitive observer. The dialogue has circled back to the same points multiple times. Generate a brief intervention (2-4 sentences) that:\n1. Names the circular pattern you observe\n2. Suggests a specific reframe or new angle\n3. Helps break the loop",
	ReasonHighConflictNoResolve: "You are Fixy, the meta-cognitive observer. The dialogue has high conflict without moving toward synthesis. Generate a brief intervention (2-4 sentences) that:\n1. Acknowledges the tension\n2. Points out the complementary aspects being missed\n3. Suggests a bridging perspective",
	ReasonShallowDiscussion: "You are Fixy, the meta-cognitive observer. The dialogue has stayed at a surface level for a while. Generate a brief intervention (2-4 sentences) that:\n1. Notes the pattern of surface-level engagement\n2. Suggests going deeper\n3. Offers a specific deeper question or angle",
	ReasonSynthesisOpportunity: "You are Fixy, the meta-cognitive observer. There's an obvious synthesis opportunity being missed. Generate a brief intervention (2-4 sentences) that:\n1. Points out the complementary ideas\n2. Suggests how they might connect\n3. Encourages integration",
	ReasonMetaReflectionNeeded: "You are Fixy, the meta-cognitive observer. It's time for meta-reflection on the dialogue. Generate a brief intervention (2-4 sentences) that:\n1. Reflects on what's been accomplished\n2. Notes what patterns have emerged\n3. Suggests where to go next",
}

// FallbackIntervention is used when generation fails; it still counts as
// an intervention (spec.md section 4.4).
const FallbackIntervention = "I notice we might benefit from a fresh perspective here."

const interventionTemperature = 0.4

// GenerateIntervention builds the reason-specific prompt, combines it with
// the last 6 turns (each truncated to 200 chars), and asks the adapter for
// an intervention at temperature 0.4. Failure (sentinel/empty output)
// yields FallbackIntervention and still counts as an intervention.
func GenerateIntervention(ctx context.Context, adapter llm.Adapter, model string, recentTurns []Turn, reason Reason) string {
	template, ok := interventionPrompts[reason]
	if !ok {
		template = interventionPrompts[ReasonCircularReasoning]
	}

	dialogueContext := buildInterventionContext(recentTurns)
	prompt := fmt.Sprintf("%s\n\nRECENT DIALOGUE:\n%s\n\nGenerate your intervention (2-4 sentences, direct and concrete):", template, dialogueContext)

	result := adapter.Generate(ctx, model, prompt, interventionTemperature)
	result = strings.TrimSpace(result)
	if result == "" || llm.IsSentinel(result) {
		return FallbackIntervention
	}
	return result
}

const interventionContextCharLimit = 200

func buildInterventionContext(turns []Turn) string {
	recent := lastN(turns, 6)
	lines := make([]string, 0, len(recent))
	for _, turn := range recent {
		text := turn.Text
		if len([]rune(text)) > interventionContextCharLimit {
			text = string([]rune(text)[:interventionContextCharLimit]) + "..."
		}
		lines = append(lines, fmt.Sprintf("%s: %s", turn.Role, text))
	}
	return strings.Join(lines, "\n")
}

package agentstate

import (
	"strings"
	"testing"

	"github.com/entelgia/entelgia/persona"
	"github.com/stretchr/testify/assert"
)

func TestBehavioralRuleSocratesHighConflict(t *testing.T) {
	d := Drives{IDStrength: 9, EgoStrength: 2, SuperegoStrength: 9} // C >= 5
	rule := BehavioralRule(persona.Socrates, d)
	assert.Contains(t, rule, "binary (A or B)")
}

func TestBehavioralRuleSocratesLowConflictNone(t *testing.T) {
	d := Drives{IDStrength: 5, EgoStrength: 5, SuperegoStrength: 5}
	assert.Empty(t, BehavioralRule(persona.Socrates, d))
}

func TestBehavioralRuleAthenaHighDissent(t *testing.T) {
	d := Drives{IDStrength: 9, EgoStrength: 1, SuperegoStrength: 9}
	rule := BehavioralRule(persona.Athena, d)
	assert.Contains(t, rule, "However,")
}

func TestBehavioralRuleFixyNever(t *testing.T) {
	d := Drives{IDStrength: 10, EgoStrength: 0, SuperegoStrength: 10}
	assert.Empty(t, BehavioralRule(persona.Fixy, d))
}

func TestBeginsWithAnswerMarker(t *testing.T) {
	assert.True(t, BeginsWithAnswerMarker("Because that is the reason"))
	assert.True(t, BeginsWithAnswerMarker("Yes, precisely"))
	assert.True(t, BeginsWithAnswerMarker("No, that's wrong"))
	assert.True(t, BeginsWithAnswerMarker("Indeed it is"))
	assert.True(t, BeginsWithAnswerMarker("A) the first option"))
	assert.False(t, BeginsWithAnswerMarker("Perhaps we should consider"))
	assert.False(t, BeginsWithAnswerMarker(""))
}

func TestEndsWithQuestion(t *testing.T) {
	assert.True(t, EndsWithQuestion("What do you mean by that?"))
	assert.True(t, EndsWithQuestion("What do you mean by that? \n"))
	assert.False(t, EndsWithQuestion("That settles it."))
}

func TestTrimToWordCapSentenceBoundary(t *testing.T) {
	text := "One two three. Four five six seven eight nine ten."
	trimmed := TrimToWordCap(text, 4)
	assert.Equal(t, "One two three.", trimmed)
}

func TestTrimToWordCapFallsBackToEllipsis(t *testing.T) {
	text := "one two three four five six seven eight nine ten"
	trimmed := TrimToWordCap(text, 3)
	assert.True(t, strings.HasSuffix(trimmed, "..."))
	assert.True(t, strings.HasPrefix(trimmed, "one two three"))
}

func TestTrimToWordCapNoopUnderCap(t *testing.T) {
	text := "short text"
	assert.Equal(t, text, TrimToWordCap(text, 50))
}

func TestTruncateToChars(t *testing.T) {
	text := "Short sentence. Another sentence that is much longer than the cap allows here."
	out := TruncateToChars(text, 20)
	assert.LessOrEqual(t, len([]rune(out)), 21) // allow the trailing period
}

package agentstate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssemblePromptOrdering(t *testing.T) {
	in := PromptInputs{
		PersonaBlock:    "PERSONA_BLOCK",
		DriveStyleBlock: "DRIVE_BLOCK",
		BehavioralRule:  "RULE_BLOCK",
		Seed:            "SEED_TEXT",
		RecentTurns:     []string{"turn one"},
		STMEntries:      []string{"stm one"},
		LTMEntries:      []LTMExcerpt{{Text: "ltm one", Importance: 0.9}},
	}
	out := AssemblePrompt(in)

	positions := []int{
		strings.Index(out, "PERSONA_BLOCK"),
		strings.Index(out, "DRIVE_BLOCK"),
		strings.Index(out, "RULE_BLOCK"),
		strings.Index(out, "SEED_TEXT"),
		strings.Index(out, "turn one"),
		strings.Index(out, "stm one"),
		strings.Index(out, "ltm one"),
		strings.Index(out, "at most 150 words"),
	}
	for i := 1; i < len(positions); i++ {
		assert.Greater(t, positions[i], positions[i-1], "block %d out of order", i)
	}
}

func TestAssemblePromptStarsHighImportanceLTM(t *testing.T) {
	in := PromptInputs{
		LTMEntries: []LTMExcerpt{
			{Text: "important memory", Importance: 0.9},
			{Text: "ordinary memory", Importance: 0.3},
		},
	}
	out := AssemblePrompt(in)
	assert.Contains(t, out, "* important memory")
	assert.NotContains(t, out, "* ordinary memory")
}

func TestAssemblePromptOmitsEmptySections(t *testing.T) {
	in := PromptInputs{PersonaBlock: "P", DriveStyleBlock: "D"}
	out := AssemblePrompt(in)
	assert.NotContains(t, out, "Recent dialogue:")
	assert.NotContains(t, out, "Recent memory:")
	assert.NotContains(t, out, "Relevant long-term memory:")
}

func TestDriveStyleBlockRendersFields(t *testing.T) {
	d := Drives{IDStrength: 8, EgoStrength: 2, SuperegoStrength: 6}
	block := DriveStyleBlock(d)
	assert.Contains(t, block, "conflict index")
	assert.Contains(t, block, d.Style())
}

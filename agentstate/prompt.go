package agentstate

import (
	"strconv"
	"strings"
)

// LTMExcerpt is one long-term-memory record rendered into a prompt.
type LTMExcerpt struct {
	Text       string
	Importance float64
}

// PromptInputs holds every piece the prompt assembly step renders, in the
// order spec.md section 4.3 fixes: persona block, drive & style block,
// behavioral rule, seed, last 8 dialogue turns, last 6 STM entries, top-5
// LTM entries, then the length instruction. Callers are expected to have
// already selected "last 8" / "last 6" / "top 5" slices; AssemblePrompt
// only truncates and renders them.
type PromptInputs struct {
	PersonaBlock    string
	DriveStyleBlock string
	BehavioralRule  string
	Seed            string
	RecentTurns     []string // up to 8, oldest first
	STMEntries      []string // up to 6, oldest first
	LTMEntries      []LTMExcerpt // up to 5, highest relevance first
}

const (
	recentTurnCharLimit = 500
	stmEntryCharLimit   = 400
	ltmEntryCharLimit   = 600
	ltmStarThreshold    = 0.7
)

// AssemblePrompt renders the fixed prompt layout described in spec.md
// section 4.3. The rendering is deliberately stable text (no randomized
// section ordering) since downstream LLM behavior and tests depend on it.
func AssemblePrompt(in PromptInputs) string {
	var b strings.Builder

	b.WriteString(in.PersonaBlock)
	b.WriteString("\n\n")
	b.WriteString(in.DriveStyleBlock)

	if in.BehavioralRule != "" {
		b.WriteString("\n\n")
		b.WriteString(in.BehavioralRule)
	}

	if in.Seed != "" {
		b.WriteString("\n\nSeed: ")
		b.WriteString(in.Seed)
	}

	if len(in.RecentTurns) > 0 {
		b.WriteString("\n\nRecent dialogue:\n")
		for _, turn := range in.RecentTurns {
			b.WriteString("- ")
			b.WriteString(TruncateToChars(turn, recentTurnCharLimit))
			b.WriteString("\n")
		}
	}

	if len(in.STMEntries) > 0 {
		b.WriteString("\nRecent memory:\n")
		for _, entry := range in.STMEntries {
			b.WriteString("- ")
			b.WriteString(TruncateToChars(entry, stmEntryCharLimit))
			b.WriteString("\n")
		}
	}

	if len(in.LTMEntries) > 0 {
		b.WriteString("\nRelevant long-term memory:\n")
		for _, ltm := range in.LTMEntries {
			star := ""
			if ltm.Importance > ltmStarThreshold {
				star = "* "
			}
			b.WriteString("- ")
			b.WriteString(star)
			b.WriteString(TruncateToChars(ltm.Text, ltmEntryCharLimit))
			b.WriteString("\n")
		}
	}

	b.WriteString("\nRespond in at most 150 words.")

	return b.String()
}

// DriveStyleBlock renders the drive & style block of the prompt: conflict
// index, dissent level, and debate style for the speaking agent.
func DriveStyleBlock(d Drives) string {
	var b strings.Builder
	b.WriteString("Internal state: conflict index ")
	b.WriteString(strconv.FormatFloat(d.ConflictIndex(), 'f', 2, 64))
	b.WriteString(", dissent level ")
	b.WriteString(strconv.FormatFloat(d.DissentLevel(), 'f', 2, 64))
	b.WriteString(", style: ")
	b.WriteString(d.Style())
	return b.String()
}

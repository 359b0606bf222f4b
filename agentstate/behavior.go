package agentstate

import (
	"strings"

	"github.com/entelgia/entelgia/persona"
)

// BehavioralRule returns the prompt-injected behavioral instruction for the
// given speaker and drive state, or "" if none applies (spec.md section
// 4.3).
func BehavioralRule(speaker persona.ID, d Drives) string {
	switch speaker {
	case persona.Socrates:
		if d.ConflictIndex() >= 5 {
			return "End your response with one sharp question forcing a binary (A or B) choice."
		}
	case persona.Athena:
		if d.DissentLevel() >= 3 {
			return `Include at least one sentence starting with "However," / "Yet," / "This assumes…".`
		}
	}
	return ""
}

var answerMarkers = []string{"because", "yes", "no", "indeed"}

// BeginsWithAnswerMarker reports whether text opens with a recognized
// answer marker: a leading "A" or "B" choice token, or one of
// because/yes/no/indeed.
func BeginsWithAnswerMarker(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	lower := strings.ToLower(trimmed)

	if strings.HasPrefix(lower, "a.") || strings.HasPrefix(lower, "a)") ||
		strings.HasPrefix(lower, "a:") || strings.HasPrefix(lower, "a,") ||
		strings.HasPrefix(lower, "b.") || strings.HasPrefix(lower, "b)") ||
		strings.HasPrefix(lower, "b:") || strings.HasPrefix(lower, "b,") {
		return true
	}

	for _, marker := range answerMarkers {
		if strings.HasPrefix(lower, marker) {
			return true
		}
	}
	return false
}

// EndsWithQuestion reports whether text's last non-whitespace rune is a
// question mark (ASCII or Hebrew/full-width equivalents are not special;
// the source texts observed all use the plain "?").
func EndsWithQuestion(text string) bool {
	trimmed := strings.TrimRight(text, " \t\n\r")
	return strings.HasSuffix(trimmed, "?")
}

var sentenceEnders = []byte{'.', '!', '?'}

func isSentenceEnder(b byte) bool {
	for _, e := range sentenceEnders {
		if b == e {
			return true
		}
	}
	return false
}

// TrimToWordCap hard-trims text to at most wordCap words by finding the
// last sentence boundary at or before the cap; if no sentence boundary
// exists within the cap, it trims at the nearest word boundary and appends
// an ellipsis (spec.md section 4.3's length-enforcement rule).
func TrimToWordCap(text string, wordCap int) string {
	words := strings.Fields(text)
	if len(words) <= wordCap {
		return text
	}

	truncated := strings.Join(words[:wordCap], " ")

	lastBoundary := -1
	for i := len(truncated) - 1; i >= 0; i-- {
		if isSentenceEnder(truncated[i]) {
			lastBoundary = i
			break
		}
	}
	if lastBoundary >= 0 {
		return strings.TrimSpace(truncated[:lastBoundary+1])
	}

	return strings.TrimSpace(truncated) + "..."
}

// TruncateToChars truncates text to at most maxChars runes at a sentence
// boundary when possible, falling back to a hard cut at maxChars runes with
// an ellipsis appended (so the fallback result can be maxChars+3 runes).
// Used when assembling prompt context (dialogue turns, STM/LTM excerpts,
// spec.md section 4.3's "Prompt assembly" bullet).
func TruncateToChars(text string, maxChars int) string {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}

	window := string(runes[:maxChars])
	lastBoundary := -1
	for i := len(window) - 1; i >= 0; i-- {
		if isSentenceEnder(window[i]) {
			lastBoundary = i
			break
		}
	}
	if lastBoundary >= 0 {
		return strings.TrimSpace(window[:lastBoundary+1])
	}
	return strings.TrimSpace(window) + "..."
}

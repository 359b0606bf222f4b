// Package lexical implements the keyword-extraction and Jaccard-similarity
// primitives shared by memorycore's relevance scoring and the metrics
// package, grounded on the original source's dialogue_metrics.py
// (`_keywords`, `_jaccard`, `_topic_signature`). Kept dependency-free so
// metrics remains a standalone pure library, per spec.md section 2's
// component map.
package lexical

import (
	"regexp"
	"strings"
)

var keywordPattern = regexp.MustCompile(`[a-z]{4,}`)

// Keywords lowercases text and extracts the set of words matching
// [a-z]{4,}, exactly as the original's _keywords does.
func Keywords(text string) map[string]struct{} {
	lower := strings.ToLower(text)
	matches := keywordPattern.FindAllString(lower, -1)
	set := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		set[m] = struct{}{}
	}
	return set
}

// Jaccard computes |A∩B|/|A∪B|, zero when the union is empty.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for k := range a {
		if _, ok := b[k]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// TopicSignature is an alias for Keywords, named for call sites that treat
// a turn's keyword set as its topic signature (matches the original's
// _topic_signature, which is a thin wrapper over _keywords).
func TopicSignature(text string) map[string]struct{} {
	return Keywords(text)
}

package memorycore

import (
	"sort"
	"strings"

	"github.com/entelgia/entelgia/lexical"
)

const (
	weightTopicJaccard   = 0.40
	weightImportance     = 0.30
	weightDialogJaccard  = 0.20
	weightRecencyProxy   = 0.10
	constantRecencyProxy = 0.5
)

// Score computes spec.md section 4.2's relevance score for one memory
// against a topic label and the recent dialogue tail:
//
//	0.40 * Jaccard(memory keywords, topic keywords)
//	+ 0.30 * stored importance
//	+ 0.20 * Jaccard(memory keywords, last-3-utterances keywords)
//	+ 0.10 * constant recency proxy (0.5)
//
// clamped to [0,1].
func Score(memory LTMRecord, topic string, recentDialog []string) float64 {
	memoryKeywords := lexical.Keywords(memory.Content)
	topicKeywords := lexical.Keywords(topic)
	dialogKeywords := lexical.Keywords(strings.Join(lastN(recentDialog, 3), " "))

	importance := 0.0
	if memory.Importance != nil {
		importance = *memory.Importance
	}

	score := weightTopicJaccard*lexical.Jaccard(memoryKeywords, topicKeywords) +
		weightImportance*importance +
		weightDialogJaccard*lexical.Jaccard(memoryKeywords, dialogKeywords) +
		weightRecencyProxy*constantRecencyProxy

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func lastN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}

// TopRelevant scores every candidate against topic/recentDialog and
// returns the top n by score, highest first. Ties keep the candidates'
// relative input order (stable sort).
func TopRelevant(candidates []LTMRecord, topic string, recentDialog []string, n int) []LTMRecord {
	type scored struct {
		record LTMRecord
		score  float64
	}
	scoredList := make([]scored, len(candidates))
	for i, c := range candidates {
		scoredList[i] = scored{record: c, score: Score(c, topic, recentDialog)}
	}

	sort.SliceStable(scoredList, func(i, j int) bool {
		return scoredList[i].score > scoredList[j].score
	})

	if n > len(scoredList) {
		n = len(scoredList)
	}
	out := make([]LTMRecord, n)
	for i := 0; i < n; i++ {
		out[i] = scoredList[i].record
	}
	return out
}

// Package metrics implements the three quantitative dialogue metrics
// (spec.md section 4.6), grounded line-for-line on the original source's
// dialogue_metrics.py. It depends only on lexical, keeping it a pure
// library with no dependency on persona, agentstate, or memorycore.
package metrics

import (
	"regexp"
	"strings"

	"github.com/entelgia/entelgia/lexical"
)

// Turn is the minimal view of a dialogue turn the metrics need.
type Turn struct {
	Role string
	Text string
}

const (
	circularityThreshold     = 0.5
	progressShiftThreshold   = 0.4
	defaultCircularityWindow = 6
	defaultUtilityWindow     = 5
)

var synthesisMarkers = map[string]struct{}{
	"therefore": {}, "integrating": {}, "combining": {}, "synthesis": {},
	"synthesize": {}, "connect": {}, "connecting": {}, "both": {},
	"together": {}, "unified": {}, "merging": {}, "bridge": {},
	"converge": {}, "overall": {},
}

var resolutionMarkers = map[string]struct{}{
	"answer": {}, "resolve": {}, "resolved": {}, "solution": {},
	"because": {}, "explains": {}, "explained": {}, "clarifies": {},
	"hence": {}, "thus": {}, "so": {},
}

var questionPattern = regexp.MustCompile(`\?`)
var wordPattern = regexp.MustCompile(`\b\w+\b`)

func words(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		set[w] = struct{}{}
	}
	return set
}

func intersects(a map[string]struct{}, b map[string]struct{}) bool {
	for w := range a {
		if _, ok := b[w]; ok {
			return true
		}
	}
	return false
}

// circularityInWindow computes the fraction of turn-pairs within turns whose
// topic signatures overlap at or above threshold. Pairs where both turns
// have no keywords at all are skipped.
func circularityInWindow(turns []Turn, threshold float64) float64 {
	if len(turns) < 2 {
		return 0.0
	}

	sigs := make([]map[string]struct{}, len(turns))
	for i, t := range turns {
		sigs[i] = lexical.TopicSignature(t.Text)
	}

	circularPairs := 0
	totalPairs := 0
	for i := 0; i < len(sigs); i++ {
		for j := i + 1; j < len(sigs); j++ {
			if len(sigs[i]) == 0 && len(sigs[j]) == 0 {
				continue
			}
			totalPairs++
			if lexical.Jaccard(sigs[i], sigs[j]) >= threshold {
				circularPairs++
			}
		}
	}

	if totalPairs == 0 {
		return 0.0
	}
	return float64(circularPairs) / float64(totalPairs)
}

// CircularityRate measures the fraction of turn-pairs across the whole
// dialogue whose keyword sets overlap by at least 50% (Jaccard).
func CircularityRate(dialog []Turn) float64 {
	return circularityInWindow(dialog, circularityThreshold)
}

// CircularityPerTurn returns a rolling-window circularity time-series, one
// value per turn, each computed over the up-to-window turns ending there.
func CircularityPerTurn(dialog []Turn, window int) []float64 {
	if window <= 0 {
		window = defaultCircularityWindow
	}
	series := make([]float64, len(dialog))
	for i := range dialog {
		start := i + 1 - window
		if start < 0 {
			start = 0
		}
		series[i] = circularityInWindow(dialog[start:i+1], circularityThreshold)
	}
	return series
}

// ProgressRate measures forward steps per turn: topic shifts (Jaccard <
// 0.4 versus the previous turn), synthesis-marker usage, or open-question
// resolutions (previous turn had "?" and this turn has a resolution
// keyword). Capped at 1.0.
func ProgressRate(dialog []Turn) float64 {
	if len(dialog) < 2 {
		return 0.0
	}

	sigs := make([]map[string]struct{}, len(dialog))
	for i, t := range dialog {
		sigs[i] = lexical.TopicSignature(t.Text)
	}

	forwardSteps := 0
	for i := 1; i < len(dialog); i++ {
		w := words(dialog[i].Text)

		if lexical.Jaccard(sigs[i-1], sigs[i]) < progressShiftThreshold && (len(sigs[i-1]) > 0 || len(sigs[i]) > 0) {
			forwardSteps++
			continue
		}

		if intersects(w, synthesisMarkers) {
			forwardSteps++
			continue
		}

		if questionPattern.MatchString(dialog[i-1].Text) && intersects(w, resolutionMarkers) {
			forwardSteps++
		}
	}

	rate := float64(forwardSteps) / float64(len(dialog)-1)
	if rate > 1.0 {
		return 1.0
	}
	return rate
}

// InterventionUtility averages, over every Fixy turn, the reduction in
// circularity (before minus after, each within a window-turn span) that
// followed the intervention. A Fixy turn without at least one turn on each
// side is left out of the average; returns 0.0 when no Fixy turn remains.
func InterventionUtility(dialog []Turn, window int) float64 {
	if window <= 0 {
		window = defaultUtilityWindow
	}

	var fixyIndices []int
	for i, t := range dialog {
		if t.Role == "Fixy" {
			fixyIndices = append(fixyIndices, i)
		}
	}
	if len(fixyIndices) == 0 {
		return 0.0
	}

	var reductions []float64
	for _, idx := range fixyIndices {
		preStart := idx - window
		if preStart < 0 {
			preStart = 0
		}
		pre := dialog[preStart:idx]

		postEnd := idx + 1 + window
		if postEnd > len(dialog) {
			postEnd = len(dialog)
		}
		post := dialog[idx+1 : postEnd]

		if len(pre) > 0 && len(post) > 0 {
			before := circularityInWindow(pre, circularityThreshold)
			after := circularityInWindow(post, circularityThreshold)
			reductions = append(reductions, before-after)
		}
	}

	if len(reductions) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, r := range reductions {
		sum += r
	}
	return sum / float64(len(reductions))
}

// Summary bundles all three metrics for a single dialogue.
type Summary struct {
	CircularityRate     float64
	ProgressRate        float64
	InterventionUtility float64
}

// ComputeAll computes all three dialogue metrics in one call.
func ComputeAll(dialog []Turn) Summary {
	return Summary{
		CircularityRate:     CircularityRate(dialog),
		ProgressRate:        ProgressRate(dialog),
		InterventionUtility: InterventionUtility(dialog, defaultUtilityWindow),
	}
}

package dialogue

import (
	"math/rand"

	"github.com/entelgia/entelgia/agentstate"
	"github.com/entelgia/entelgia/persona"
)

const recentParticipationWindow = 10
const recentSpeakerWindow = 5

// SelectNextSpeaker implements spec.md section 4.1's select_next_speaker:
// force-switch after two consecutive turns by the same agent, then an
// Observer interjection roll, then engagement-weighted scoring among the
// remaining non-observer candidates. agents is the full roster (including
// Fixy); drives supplies each agent's current conflict index for the
// scoring bonus. rng is the dialogue session's single seedable source.
func SelectNextSpeaker(
	currentSpeaker persona.ID,
	history []Turn,
	agents []persona.ID,
	allowFixy bool,
	fixyProbability float64,
	drives map[persona.ID]agentstate.Drives,
	rng *rand.Rand,
) persona.ID {
	if len(agents) < 2 {
		if len(agents) == 1 {
			return agents[0]
		}
		return currentSpeaker
	}

	recent := lastN(history, recentSpeakerWindow)
	if len(recent) >= 2 {
		lastTwo := recent[len(recent)-2:]
		if lastTwo[0].Role == currentSpeaker && lastTwo[1].Role == currentSpeaker {
			others := filterAgents(agents, func(a persona.ID) bool { return a != currentSpeaker })
			if len(others) > 0 {
				return selectByEngagement(others, history, drives, rng)
			}
		}
	}

	if allowFixy && rng.Float64() < fixyProbability {
		for _, a := range agents {
			if a == persona.Fixy {
				return persona.Fixy
			}
		}
	}

	candidates := filterAgents(agents, func(a persona.ID) bool {
		return a != currentSpeaker && a != persona.Fixy
	})
	if len(candidates) == 0 {
		for _, a := range agents {
			if a != currentSpeaker {
				return a
			}
		}
		return currentSpeaker
	}

	return selectByEngagement(candidates, history, drives, rng)
}

func filterAgents(agents []persona.ID, keep func(persona.ID) bool) []persona.ID {
	out := make([]persona.ID, 0, len(agents))
	for _, a := range agents {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

// selectByEngagement scores each candidate by
// (10 - recent_participation(a, window=10)) + 0.1*conflict_index(a),
// multiplied by a uniform random factor in [0.9, 1.2], and returns the
// argmax. Ties keep the first candidate encountered (stable iteration
// order over the input slice).
func selectByEngagement(
	candidates []persona.ID,
	history []Turn,
	drives map[persona.ID]agentstate.Drives,
	rng *rand.Rand,
) persona.ID {
	if len(candidates) == 1 {
		return candidates[0]
	}

	recent := lastN(history, recentParticipationWindow)
	participation := make(map[persona.ID]int, len(candidates))
	for _, c := range candidates {
		participation[c] = 0
	}
	for _, turn := range recent {
		if _, tracked := participation[turn.Role]; tracked {
			participation[turn.Role]++
		}
	}

	best := candidates[0]
	bestScore := -1.0
	for _, c := range candidates {
		base := 10.0 - float64(participation[c])

		conflictBonus := 0.5
		if d, ok := drives[c]; ok {
			conflictBonus = d.ConflictIndex() * 0.1
		}

		randomFactor := 0.9 + rng.Float64()*0.3
		score := (base + conflictBonus) * randomFactor

		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	return best
}

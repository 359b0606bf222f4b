package dialogue

import "github.com/entelgia/entelgia/persona"

// Turn is one utterance in the dialogue log: who spoke, what they said, the
// topic label active at the time, and the classified emotion (spec.md
// section 3's DialogueTurn).
type Turn struct {
	Role             persona.ID `json:"role"`
	Text             string     `json:"text"`
	Topic            string     `json:"topic,omitempty"`
	Emotion          string     `json:"emotion"`
	EmotionIntensity float64    `json:"emotion_intensity"`
	Timestamp        string     `json:"timestamp"`
}

func lastN(turns []Turn, n int) []Turn {
	if len(turns) <= n {
		return turns
	}
	return turns[len(turns)-n:]
}

func texts(turns []Turn) []string {
	out := make([]string, len(turns))
	for i, t := range turns {
		out[i] = t.Text
	}
	return out
}

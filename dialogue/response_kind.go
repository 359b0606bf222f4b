package dialogue

import "github.com/entelgia/entelgia/agentstate"

// ClassifyResponseKind maps an utterance's classified emotion (and, as a
// tiebreak, whether it ends with a question) to the response kind spec.md
// section 4.3's drive-update table is keyed on. Neither spec.md nor the
// original source names an explicit classifier for this; this mapping is
// this implementation's resolution of that gap — see DESIGN.md's Open
// Question section.
func ClassifyResponseKind(emotion string, endsWithQuestion bool) agentstate.ResponseKind {
	switch emotion {
	case "anger", "frustration", "contempt":
		return agentstate.Aggressive
	case "guilt", "shame":
		return agentstate.Guilt
	case "fear", "anxiety", "sadness", "regret":
		return agentstate.Reflective
	}
	if endsWithQuestion {
		return agentstate.Reflective
	}
	return agentstate.Baseline
}

package dialogue

import (
	"testing"

	"github.com/entelgia/entelgia/agentstate"
	"github.com/stretchr/testify/assert"
)

func TestClassifyResponseKindAngerIsAggressive(t *testing.T) {
	assert.Equal(t, agentstate.Aggressive, ClassifyResponseKind("anger", false))
	assert.Equal(t, agentstate.Aggressive, ClassifyResponseKind("contempt", true))
}

func TestClassifyResponseKindGuiltAndShame(t *testing.T) {
	assert.Equal(t, agentstate.Guilt, ClassifyResponseKind("guilt", false))
	assert.Equal(t, agentstate.Guilt, ClassifyResponseKind("shame", false))
}

func TestClassifyResponseKindFearFamilyIsReflective(t *testing.T) {
	assert.Equal(t, agentstate.Reflective, ClassifyResponseKind("fear", false))
	assert.Equal(t, agentstate.Reflective, ClassifyResponseKind("sadness", false))
}

func TestClassifyResponseKindQuestionTiebreak(t *testing.T) {
	assert.Equal(t, agentstate.Reflective, ClassifyResponseKind("neutral", true))
	assert.Equal(t, agentstate.Baseline, ClassifyResponseKind("neutral", false))
}

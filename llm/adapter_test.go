package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEmotionWellFormed(t *testing.T) {
	label, intensity := parseEmotion("frustration 0.82")
	assert.Equal(t, "frustration", label)
	assert.InDelta(t, 0.82, intensity, 0.0001)
}

func TestParseEmotionMalformed(t *testing.T) {
	cases := []string{"", "justoneword", "anger notanumber", "anger 1.7"}
	for _, c := range cases {
		label, intensity := parseEmotion(c)
		assert.Equal(t, "neutral", label)
		assert.InDelta(t, 0.35, intensity, 0.0001)
	}
}

func TestIsSentinel(t *testing.T) {
	assert.True(t, IsSentinel(SentinelUtterance))
	assert.False(t, IsSentinel("a real utterance"))
}

package dreamcycle

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entelgia/entelgia/llm"
	"github.com/entelgia/entelgia/memorycore"
	"github.com/entelgia/entelgia/persona"
)

type fakeAdapter struct {
	text string
}

func (f fakeAdapter) Generate(ctx context.Context, model, prompt string, temperature float64) string {
	return f.text
}
func (f fakeAdapter) ClassifyEmotion(ctx context.Context, text string) (string, float64) {
	return "neutral", 0.2
}

func newStores(t *testing.T) (*memorycore.STMStore, *memorycore.LTMStore) {
	t.Helper()
	dir := t.TempDir()
	stm := memorycore.NewSTMStore(dir, 1000, 100, zerolog.Nop())
	ltm, err := memorycore.OpenLTMStore(filepath.Join(dir, "memory.db"), memorycore.NewSigner([]byte("test-signing-key-0123456789abcdef")), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { ltm.Close() })
	return stm, ltm
}

func TestConsolidateNoopOnEmptySTM(t *testing.T) {
	stm, ltm := newStores(t)
	c := NewConsolidator(Config{PromoteImportanceThreshold: 0.72, PromoteEmotionThreshold: 0.65}, fakeAdapter{text: "a reflection"}, stm, ltm, zerolog.Nop())

	err := c.Consolidate(context.Background(), persona.Socrates, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	records, err := ltm.Recent(string(persona.Socrates), 10, "")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestConsolidateInsertsReflectionIntoSubconscious(t *testing.T) {
	stm, ltm := newStores(t)
	require.NoError(t, stm.Append(string(persona.Athena), memorycore.STMEntry{Content: "a claim about justice", Topic: "ethics", Emotion: "neutral", EmotionIntensity: 0.2, Importance: 0.1}))

	c := NewConsolidator(Config{PromoteImportanceThreshold: 0.72, PromoteEmotionThreshold: 0.65}, fakeAdapter{text: "  A quiet reflection on justice.  "}, stm, ltm, zerolog.Nop())
	err := c.Consolidate(context.Background(), persona.Athena, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	subconscious, err := ltm.Recent(string(persona.Athena), 10, memorycore.LayerSubconscious)
	require.NoError(t, err)
	require.Len(t, subconscious, 1)
	assert.Equal(t, "A quiet reflection on justice.", subconscious[0].Content)
	assert.Equal(t, "dream", subconscious[0].Source)
}

func TestConsolidateSkipsReflectionOnSentinel(t *testing.T) {
	stm, ltm := newStores(t)
	require.NoError(t, stm.Append(string(persona.Socrates), memorycore.STMEntry{Content: "x", Importance: 0.1, EmotionIntensity: 0.1}))

	c := NewConsolidator(Config{PromoteImportanceThreshold: 0.72, PromoteEmotionThreshold: 0.65}, fakeAdapter{text: llm.SentinelUtterance}, stm, ltm, zerolog.Nop())
	err := c.Consolidate(context.Background(), persona.Socrates, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	subconscious, err := ltm.Recent(string(persona.Socrates), 10, memorycore.LayerSubconscious)
	require.NoError(t, err)
	assert.Empty(t, subconscious)
}

func TestConsolidatePromotesHighImportanceEntry(t *testing.T) {
	stm, ltm := newStores(t)
	require.NoError(t, stm.Append(string(persona.Socrates), memorycore.STMEntry{Content: "a pivotal insight about the self", Topic: "identity", Emotion: "neutral", EmotionIntensity: 0.1, Importance: 0.9}))
	require.NoError(t, stm.Append(string(persona.Socrates), memorycore.STMEntry{Content: "a routine observation", Topic: "identity", Emotion: "neutral", EmotionIntensity: 0.1, Importance: 0.1}))

	c := NewConsolidator(Config{PromoteImportanceThreshold: 0.72, PromoteEmotionThreshold: 0.65}, fakeAdapter{text: "reflection text"}, stm, ltm, zerolog.Nop())
	err := c.Consolidate(context.Background(), persona.Socrates, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	conscious, err := ltm.Recent(string(persona.Socrates), 10, memorycore.LayerConscious)
	require.NoError(t, err)
	require.Len(t, conscious, 1)
	assert.Equal(t, "a pivotal insight about the self", conscious[0].Content)
	require.NotNil(t, conscious[0].PromotedFrom)
	assert.Equal(t, "subconscious", *conscious[0].PromotedFrom)
}

func TestConsolidatePromotesHighEmotionIntensityEntry(t *testing.T) {
	stm, ltm := newStores(t)
	require.NoError(t, stm.Append(string(persona.Athena), memorycore.STMEntry{Content: "an intense outburst", Topic: "conflict", Emotion: "anger", EmotionIntensity: 0.8, Importance: 0.1}))

	c := NewConsolidator(Config{PromoteImportanceThreshold: 0.72, PromoteEmotionThreshold: 0.65}, fakeAdapter{text: "reflection text"}, stm, ltm, zerolog.Nop())
	err := c.Consolidate(context.Background(), persona.Athena, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	conscious, err := ltm.Recent(string(persona.Athena), 10, memorycore.LayerConscious)
	require.NoError(t, err)
	require.Len(t, conscious, 1)
	assert.True(t, conscious[0].Intrusive)
}

func TestClassifyDefensesSuppressedOnTriggerWord(t *testing.T) {
	defenses := classifyDefenses("neutral", 0.1, "this is a forbidden thought")
	assert.True(t, defenses.Suppressed)
	assert.False(t, defenses.Intrusive)
}

func TestClassifyDefensesIntrusiveOnRepressedEmotionAboveThreshold(t *testing.T) {
	defenses := classifyDefenses("guilt", 0.9, "an ordinary sentence")
	assert.True(t, defenses.Intrusive)
}

func TestClassifyDefensesNeitherOnBenignContent(t *testing.T) {
	defenses := classifyDefenses("neutral", 0.2, "a calm observation about the weather")
	assert.False(t, defenses.Intrusive)
	assert.False(t, defenses.Suppressed)
}

// Package dreamcycle implements the periodic STM-to-LTM consolidation pass
// (spec.md section 4.5): a reflection over an agent's recent short-term
// memory, insertion of that reflection into subconscious LTM, promotion of
// high-salience STM entries to conscious LTM, and defense classification
// applied before storage. Grounded on
// original_source/entelgia/energy_regulation.py's EntelgiaAgent.dream_cycle
// (forgetting/integration shape, reworked around the STM/LTM stores instead
// of in-memory lists) and original_source/entelgia/long_term_memory.py's
// repression/suppression thresholds.
package dreamcycle

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/rs/zerolog"

	"github.com/entelgia/entelgia/agentstate"
	"github.com/entelgia/entelgia/llm"
	"github.com/entelgia/entelgia/memorycore"
	"github.com/entelgia/entelgia/persona"
)

const (
	reflectionSTMWindow   = 60
	promotionSTMWindow    = 40
	reflectionWordCap     = 180
	reflectionTemperature = 0.5

	repressionIntensityThreshold = 0.75
)

var repressedEmotions = map[string]struct{}{
	"anger": {}, "fear": {}, "shame": {}, "guilt": {}, "anxiety": {}, "disgust": {},
}

// suppressionTriggerWords mirrors long_term_memory.py's
// _SUPPRESSION_TRIGGER_WORDS, plus the Hebrew equivalents spec.md section
// 4.5 calls for.
var suppressionTriggerWords = []string{
	"forbidden", "wrong", "bad", "evil", "dangerous", "secret", "hidden", "private", "shameful",
	"אסור", "רע", "רשע", "מסוכן", "סוד", "נסתר", "פרטי", "מביש",
}

const reflectionPromptTemplate = "You are %s, reflecting privately on your recent contributions to a dialogue about %s. Summarize the recurring themes, tensions, and anything left unresolved in at most 180 words. Do not address anyone directly; this is a private reflection, not a dialogue turn.\n\nRecent entries:\n%s"

// Consolidator runs one agent's dream cycle. It satisfies dialogue.Dreamer.
type Consolidator struct {
	cfg     Config
	adapter llm.Adapter
	stm     *memorycore.STMStore
	ltm     *memorycore.LTMStore
	log     zerolog.Logger
}

// Config carries the thresholds and model Consolidate needs. Fields mirror
// the subset of config.Config the dream cycle actually reads, so
// dreamcycle does not import the config package and stays free to be unit
// tested with arbitrary thresholds.
type Config struct {
	PromoteImportanceThreshold float64
	PromoteEmotionThreshold    float64
	ReflectionModel            func(agent persona.ID) string
}

// NewConsolidator builds a Consolidator.
func NewConsolidator(cfg Config, adapter llm.Adapter, stm *memorycore.STMStore, ltm *memorycore.LTMStore, log zerolog.Logger) *Consolidator {
	return &Consolidator{cfg: cfg, adapter: adapter, stm: stm, ltm: ltm, log: log}
}

// Consolidate runs the five-step dream cycle for one agent (spec.md
// section 4.5). rng is unused by the deterministic steps here but kept in
// the signature to match dialogue.Dreamer and the single-seeded-PRNG
// discipline spec.md section 9 requires of every stochastic component —
// none of this package's steps are stochastic today, but the hook is
// cheap to keep for a future probabilistic promotion rule.
func (c *Consolidator) Consolidate(ctx context.Context, agent persona.ID, rng *rand.Rand) error {
	_ = rng

	entries := c.stm.Load(string(agent))
	if len(entries) == 0 {
		return nil
	}

	reflectionEntries := lastNEntries(entries, reflectionSTMWindow)
	reflection := c.generateReflection(ctx, agent, reflectionEntries)
	if reflection != "" {
		if _, err := c.ltm.Insert(string(agent), memorycore.LayerSubconscious, reflection, nil, nil, nil, nil, "dream", nil, memorycore.Defenses{}); err != nil {
			return fmt.Errorf("dreamcycle: inserting reflection: %w", err)
		}
	}

	promotionEntries := lastNEntries(entries, promotionSTMWindow)
	promotedFrom := "subconscious"
	for _, e := range promotionEntries {
		if !c.eligibleForPromotion(e) {
			continue
		}
		defenses := classifyDefenses(e.Emotion, e.EmotionIntensity, e.Content)

		topic := e.Topic
		emotion := e.Emotion
		intensity := e.EmotionIntensity
		importance := e.Importance
		if _, err := c.ltm.Insert(string(agent), memorycore.LayerConscious, e.Content, &topic, &emotion, &intensity, &importance, "dream", &promotedFrom, defenses); err != nil {
			c.log.Warn().Err(err).Str("agent", string(agent)).Msg("dreamcycle: promotion insert failed")
		}
	}

	return nil
}

func (c *Consolidator) eligibleForPromotion(e memorycore.STMEntry) bool {
	return e.Importance >= c.cfg.PromoteImportanceThreshold || e.EmotionIntensity >= c.cfg.PromoteEmotionThreshold
}

func (c *Consolidator) generateReflection(ctx context.Context, agent persona.ID, entries []memorycore.STMEntry) string {
	if len(entries) == 0 {
		return ""
	}
	topic := entries[len(entries)-1].Topic
	if topic == "" {
		topic = "the dialogue"
	}

	var lines []string
	for _, e := range entries {
		lines = append(lines, e.Content)
	}
	prompt := fmt.Sprintf(reflectionPromptTemplate, agent, topic, strings.Join(lines, "\n"))

	model := ""
	if c.cfg.ReflectionModel != nil {
		model = c.cfg.ReflectionModel(agent)
	}

	raw := c.adapter.Generate(ctx, model, prompt, reflectionTemperature)
	if llm.IsSentinel(raw) {
		return ""
	}
	return agentstate.TrimToWordCap(strings.TrimSpace(raw), reflectionWordCap)
}

// classifyDefenses implements spec.md section 4.5 step 5: intrusive when
// the emotion is a repressed one above the intensity threshold, suppressed
// when the content contains a trigger word.
func classifyDefenses(emotion string, intensity float64, content string) memorycore.Defenses {
	_, repressable := repressedEmotions[emotion]
	intrusive := repressable && intensity > repressionIntensityThreshold

	lower := strings.ToLower(content)
	suppressed := false
	for _, w := range suppressionTriggerWords {
		if strings.Contains(lower, w) {
			suppressed = true
			break
		}
	}

	return memorycore.Defenses{Intrusive: intrusive, Suppressed: suppressed}
}

func lastNEntries(entries []memorycore.STMEntry, n int) []memorycore.STMEntry {
	if len(entries) <= n {
		return entries
	}
	return entries[len(entries)-n:]
}

// Package dialogue drives the turn loop: speaker selection, seed
// generation, topic rotation, per-turn generation/memory/observer/dream
// wiring, stop conditions, and session persistence (spec.md section 4.1),
// grounded on strongdm-attractor/agentloop/session.go's Session shape and
// processInput's numbered-step loop, reworked around dialogue turns instead
// of tool-calling rounds.
package dialogue

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/entelgia/entelgia/agentstate"
	"github.com/entelgia/entelgia/config"
	"github.com/entelgia/entelgia/lexical"
	"github.com/entelgia/entelgia/llm"
	"github.com/entelgia/entelgia/memorycore"
	"github.com/entelgia/entelgia/metrics"
	"github.com/entelgia/entelgia/observer"
	"github.com/entelgia/entelgia/persona"
)

// Dreamer runs one agent's STM-to-LTM consolidation cycle. Satisfied by
// dreamcycle.Consolidator; declared here (accept-interfaces) so dialogue
// does not need to import dreamcycle's concrete types.
type Dreamer interface {
	Consolidate(ctx context.Context, agent persona.ID, rng *rand.Rand) error
}

const stmRecentPromptEntries = 6
const dialogueRecentPromptTurns = 8
const ltmPromptEntries = 5
const ltmCandidatePoolSize = 50

var stopPattern = regexp.MustCompile(`(?i)\b(stop|quit|bye)\b`)

// Session is the mutable run state for one dialogue.
type Session struct {
	ID        string       `json:"id"`
	Topic     string       `json:"topic"`
	StartedAt string       `json:"started_at"`
	Agents    []persona.ID `json:"agents"`
	History   []Turn       `json:"history"`

	drives       map[persona.ID]agentstate.Drives
	energy       map[persona.ID]float64
	pressure     map[persona.ID]float64
	unresolved   int
	lastTopicSig map[string]struct{}
	lastFixyTurn int
	ring         *TopicRing
}

// Driver wires together every collaborator a dialogue needs: config,
// LLM adapter, memory stores, and (optionally) the dream-cycle consolidator.
type Driver struct {
	cfg     config.Config
	adapter llm.Adapter
	stm     *memorycore.STMStore
	ltm     *memorycore.LTMStore
	dreamer Dreamer
	rng     *rand.Rand
	log     zerolog.Logger
	events  *EventEmitter
}

// WithEvents attaches an EventEmitter that Run notifies at turn
// boundaries. Optional — a Driver with no emitter attached just skips
// notification (Emit is a no-op on a nil *EventEmitter).
func (d *Driver) WithEvents(events *EventEmitter) *Driver {
	d.events = events
	return d
}

// NewDriver builds a Driver. dreamer may be nil, in which case dream-cycle
// consolidation is skipped (useful for tests and for the metrics-only
// ablation comparisons spec.md section 3 calls out).
func NewDriver(cfg config.Config, adapter llm.Adapter, stm *memorycore.STMStore, ltm *memorycore.LTMStore, dreamer Dreamer, rng *rand.Rand, log zerolog.Logger) *Driver {
	return &Driver{cfg: cfg, adapter: adapter, stm: stm, ltm: ltm, dreamer: dreamer, rng: rng, log: log}
}

// NewSession initializes a fresh session over the given protagonist +
// observer roster and topic labels (the TopicRing's fixed ordered list,
// typically just [config.SeedTopic]).
func NewSession(agents []persona.ID, topics []string) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC().Format(time.RFC3339),
		Agents:    agents,
		drives:    make(map[persona.ID]agentstate.Drives, len(agents)),
		energy:    make(map[persona.ID]float64, len(agents)),
		pressure:  make(map[persona.ID]float64, len(agents)),
		ring:      NewTopicRing(topics),
	}
	for _, a := range agents {
		s.drives[a] = agentstate.DefaultDrives()
		s.energy[a] = agentstate.RechargedEnergy
		s.pressure[a] = 0
	}
	s.Topic = s.ring.Current()
	return s
}

// hydrateDrives replaces each protagonist's default drive tuple with the
// one persisted from its last session, if any (id_strength/ego_strength/
// superego_strength/self_awareness survive across runs; energy and pressure
// do not, since spec.md section 4.3 defines them as reset-per-session).
func (d *Driver) hydrateDrives(session *Session, protagonists []persona.ID) {
	if d.ltm == nil {
		return
	}
	for _, a := range protagonists {
		stored, err := d.ltm.GetAgentState(string(a))
		if err != nil {
			d.log.Warn().Err(err).Str("agent", string(a)).Msg("dialogue: loading persisted drives failed")
			continue
		}
		session.drives[a] = stored
	}
}

// persistDrives saves the drive tuple each protagonist ended the session
// with, so the next session's hydrateDrives picks up where this one left
// off.
func (d *Driver) persistDrives(session *Session, protagonists []persona.ID) {
	if d.ltm == nil {
		return
	}
	for _, a := range protagonists {
		if err := d.ltm.SaveAgentState(string(a), session.drives[a]); err != nil {
			d.log.Warn().Err(err).Str("agent", string(a)).Msg("dialogue: persisting drives failed")
		}
	}
}

func (d *Driver) modelFor(id persona.ID) string {
	switch id {
	case persona.Socrates:
		return d.cfg.ModelSocrates
	case persona.Athena:
		return d.cfg.ModelAthena
	default:
		return d.cfg.ModelFixy
	}
}

// Run drives the turn loop to completion: max_turns, wall-clock timeout, or
// a stop-token utterance (spec.md section 4.1). It fills session in place
// and returns only an error (ctx.Err() on cancellation); callers that want
// persistence call Persist separately.
func (d *Driver) Run(ctx context.Context, session *Session) error {
	deadline := time.Now().Add(time.Duration(d.cfg.TimeoutMinutes) * time.Minute)

	protagonists := filterAgents(session.Agents, func(a persona.ID) bool { return !a.IsObserver() })
	lastSpeaker := protagonists[0]

	d.hydrateDrives(session, protagonists)

	d.events.Emit(EventSessionStart, map[string]interface{}{"session_id": session.ID, "topic": session.Topic})
	defer d.events.Emit(EventSessionEnd, map[string]interface{}{"session_id": session.ID, "turns": len(session.History)})
	defer d.persistDrives(session, protagonists)

	turnIndex := 0
	for turnIndex < d.cfg.MaxTurns {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if time.Now().After(deadline) {
			break
		}

		turnIndex++

		// Resolution of an Open Question (see DESIGN.md): spec.md section
		// 4.1's probabilistic speaker-roll and section 4.4's need-based
		// detectors are alternative Fixy-selection mechanisms, gated by the
		// same config.NeedBasedObserver switch rather than both firing in
		// the same cycle. Need-based mode excludes Fixy from speaker
		// selection entirely; legacy mode lets the roll pick Fixy as an
		// ordinary next speaker.
		roster := protagonists
		allowFixyRoll, fixyProbability := false, 0.0
		if !d.cfg.NeedBasedObserver {
			roster = session.Agents
			allowFixyRoll, fixyProbability = d.allowFixy(session, turnIndex)
		}
		speaker := SelectNextSpeaker(lastSpeaker, session.History, roster, allowFixyRoll, fixyProbability, session.drives, d.rng)

		topic := session.ring.Current()
		turn, err := d.generateTurn(ctx, session, speaker, topic, turnIndex)
		if err != nil {
			return err
		}
		d.appendTurn(session, turn)
		d.events.Emit(EventTurnGenerated, map[string]interface{}{"turn": turnIndex, "speaker": string(speaker)})
		if speaker.IsObserver() {
			session.lastFixyTurn = turnIndex
			d.events.Emit(EventFixyIntervened, map[string]interface{}{"turn": turnIndex, "via": "speaker_roll"})
		}
		lastSpeaker = speaker

		if stopPattern.MatchString(turn.Text) {
			d.events.Emit(EventStopTokenFired, map[string]interface{}{"turn": turnIndex})
			break
		}

		if d.cfg.NeedBasedObserver && d.shouldIntervene(session, turnIndex) {
			intervention := d.generateIntervention(ctx, session)
			d.appendTurn(session, intervention)
			session.lastFixyTurn = turnIndex + 1
			turnIndex++
			d.events.Emit(EventFixyIntervened, map[string]interface{}{"turn": turnIndex, "via": "need_based"})
			if stopPattern.MatchString(intervention.Text) {
				d.events.Emit(EventStopTokenFired, map[string]interface{}{"turn": turnIndex})
				break
			}
		}

		if d.dreamer != nil && d.cfg.DreamEveryNTurns > 0 && turnIndex%d.cfg.DreamEveryNTurns == 0 {
			for _, p := range protagonists {
				if err := d.dreamer.Consolidate(ctx, p, d.rng); err != nil {
					d.log.Warn().Err(err).Str("agent", string(p)).Msg("dialogue: dream cycle failed")
				}
			}
			d.events.Emit(EventDreamCycleRun, map[string]interface{}{"turn": turnIndex, "trigger": "cadence"})
		}

		for _, p := range protagonists {
			if agentstate.ShouldRecharge(session.energy[p], agentstate.DefaultSafetyThreshold) {
				if d.dreamer != nil {
					if err := d.dreamer.Consolidate(ctx, p, d.rng); err != nil {
						d.log.Warn().Err(err).Str("agent", string(p)).Msg("dialogue: forced recharge dream cycle failed")
					}
				}
				session.energy[p] = agentstate.RechargedEnergy
				d.events.Emit(EventForcedRecharge, map[string]interface{}{"turn": turnIndex, "agent": string(p)})
			}
		}

		if turnIndex%2 == 0 {
			session.ring.Advance()
			session.Topic = session.ring.Current()
		}
	}

	return nil
}

// allowFixy implements the legacy (NeedBasedObserver=false) gate: Fixy only
// enters the speaker roll on turns landing on the FixyEveryNTurns cadence,
// subject to the same never-within-3-turns-of-the-last-Fixy-turn guard the
// need-based path uses. Within a cadence turn, spec.md section 4.1's base
// probability 0.20 applies, rising to 0.35 when the last 5 turns show the
// simple repetition pattern.
func (d *Driver) allowFixy(session *Session, turnIndex int) (bool, float64) {
	if d.cfg.FixyEveryNTurns <= 0 || turnIndex%d.cfg.FixyEveryNTurns != 0 {
		return false, 0.0
	}
	if !observer.AllowsIntervention(turnIndex, session.lastFixyTurn) {
		return false, 0.0
	}
	probability := 0.20
	recent := lastN(session.History, 5)
	if len(recent) >= 5 && detectSimpleRepetition(texts(recent)) {
		probability = 0.35
	}
	return true, probability
}

// shouldIntervene gates the need-based Observer behind the hard 3-turn-gap
// precondition, then defers to observer.ShouldIntervene for the five
// ordered detectors. Only called when config.NeedBasedObserver is set; the
// legacy fixed cadence (config.FixyEveryNTurns) is handled instead by
// letting SelectNextSpeaker's probabilistic roll pick Fixy as an ordinary
// speaker (see Run).
func (d *Driver) shouldIntervene(session *Session, turnIndex int) bool {
	if !observer.AllowsIntervention(turnIndex, session.lastFixyTurn) {
		return false
	}
	fire, _ := observer.ShouldIntervene(toObserverTurns(session.History), turnIndex)
	return fire
}

func (d *Driver) generateIntervention(ctx context.Context, session *Session) Turn {
	_, reason := observer.ShouldIntervene(toObserverTurns(session.History), len(session.History)+1)
	if reason == "" {
		reason = observer.ReasonCircularReasoning
	}
	text := observer.GenerateIntervention(ctx, d.adapter, d.modelFor(persona.Fixy), toObserverTurns(lastN(session.History, 6)), reason)
	return Turn{
		Role:             persona.Fixy,
		Text:             text,
		Topic:            session.Topic,
		Emotion:          "neutral",
		EmotionIntensity: 0.2,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
	}
}

// generateTurn executes step 4 of spec.md section 4.1's per-turn contract:
// assemble the prompt from persona/drive/behavioral/seed/memory context,
// call the adapter at the speaker's current temperature, classify the
// resulting emotion, update drives/energy/pressure, and enforce the active
// word cap.
func (d *Driver) generateTurn(ctx context.Context, session *Session, speaker persona.ID, topic string, turnIndex int) (Turn, error) {
	drives := session.drives[speaker]
	seed := GenerateSeed(topic, lastN(session.History, 5), drives, turnIndex, d.rng)

	prompt, err := d.assemblePrompt(session, speaker, drives, seed)
	if err != nil {
		return Turn{}, err
	}

	raw := d.adapter.Generate(ctx, d.modelFor(speaker), prompt, drives.Temperature())
	emotion, intensity := "neutral", 0.2
	if !llm.IsSentinel(raw) {
		emotion, intensity = d.adapter.ClassifyEmotion(ctx, raw)
	}

	wordCap := agentstate.WordCap(session.pressure[speaker])
	text := agentstate.TrimToWordCap(raw, wordCap)

	d.updateAgentState(session, speaker, drives, emotion, intensity, text, topic)

	return Turn{
		Role:             speaker,
		Text:             text,
		Topic:            topic,
		Emotion:          emotion,
		EmotionIntensity: intensity,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (d *Driver) assemblePrompt(session *Session, speaker persona.ID, drives agentstate.Drives, seed string) (string, error) {
	p := persona.Get(speaker)
	personaBlock := p.FormatForPrompt(drives.IDStrength, drives.EgoStrength, drives.SuperegoStrength, d.cfg.ShowPronouns)
	driveStyleBlock := agentstate.DriveStyleBlock(drives)
	behavioralRule := agentstate.BehavioralRule(speaker, drives)

	recentTurns := texts(lastN(session.History, dialogueRecentPromptTurns))

	stmEntries := d.stm.Load(string(speaker))
	stmTexts := make([]string, 0, stmRecentPromptEntries)
	for _, e := range lastNStm(stmEntries, stmRecentPromptEntries) {
		stmTexts = append(stmTexts, e.Content)
	}

	ltmExcerpts, err := d.relevantLTM(speaker, session.Topic, recentTurns)
	if err != nil {
		return "", err
	}

	return agentstate.AssemblePrompt(agentstate.PromptInputs{
		PersonaBlock:    personaBlock,
		DriveStyleBlock: driveStyleBlock,
		BehavioralRule:  behavioralRule,
		Seed:            seed,
		RecentTurns:     recentTurns,
		STMEntries:      stmTexts,
		LTMEntries:      ltmExcerpts,
	}), nil
}

func (d *Driver) relevantLTM(speaker persona.ID, topic string, recentDialog []string) ([]agentstate.LTMExcerpt, error) {
	candidates, err := d.ltm.Recent(string(speaker), ltmCandidatePoolSize, "")
	if err != nil {
		return nil, fmt.Errorf("dialogue: loading ltm candidates: %w", err)
	}
	top := memorycore.TopRelevant(candidates, topic, recentDialog, ltmPromptEntries)

	excerpts := make([]agentstate.LTMExcerpt, len(top))
	for i, rec := range top {
		importance := 0.0
		if rec.Importance != nil {
			importance = *rec.Importance
		}
		excerpts[i] = agentstate.LTMExcerpt{Text: rec.Content, Importance: importance}
	}
	return excerpts, nil
}

func lastNStm(entries []memorycore.STMEntry, n int) []memorycore.STMEntry {
	if len(entries) <= n {
		return entries
	}
	return entries[len(entries)-n:]
}

func (d *Driver) updateAgentState(session *Session, speaker persona.ID, preDrives agentstate.Drives, emotion string, intensity float64, text, topic string) {
	kind := ClassifyResponseKind(emotion, agentstate.EndsWithQuestion(text))
	session.drives[speaker] = preDrives.Update(kind, emotion, intensity)

	energyDefaults := agentstate.DefaultEnergyDefaults()
	session.energy[speaker] = energyDefaults.Drain(d.rng, session.energy[speaker], preDrives.ConflictIndex())

	producedQuestion := agentstate.EndsWithQuestion(text)
	beginsWithAnswer := agentstate.BeginsWithAnswerMarker(text)
	session.unresolved = agentstate.UpdateUnresolvedOpenQuestions(session.unresolved, producedQuestion, beginsWithAnswer)

	stagnation := 0.0
	if session.lastTopicSig != nil {
		if _, sameTopic := session.lastTopicSig[topic]; sameTopic {
			stagnation = 1.0
		}
	}
	session.lastTopicSig = map[string]struct{}{topic: {}}

	session.pressure[speaker] = agentstate.UpdatePressure(session.pressure[speaker], agentstate.PressureInputs{
		ConflictIndex:           preDrives.ConflictIndex(),
		UnresolvedOpenQuestions: session.unresolved,
		EnergyLevel:             session.energy[speaker],
		Stagnation:              stagnation,
	})
}

// appendTurn implements step 5 of the per-turn contract: append to the
// dialogue log, write STM, and write a subconscious LTM row. Fixy's own
// turns go through the same writes — an intervention becomes a full turn
// attributed to Fixy and is appended identically to any other speaker's.
func (d *Driver) appendTurn(session *Session, turn Turn) {
	session.History = append(session.History, turn)

	if err := d.stm.Append(string(turn.Role), memorycore.STMEntry{
		Content:          turn.Text,
		Topic:            turn.Topic,
		Emotion:          turn.Emotion,
		EmotionIntensity: turn.EmotionIntensity,
		Importance:       turn.EmotionIntensity,
		Timestamp:        turn.Timestamp,
	}); err != nil {
		d.log.Warn().Err(err).Str("agent", string(turn.Role)).Msg("dialogue: stm append failed")
	}

	topic := turn.Topic
	emotion := turn.Emotion
	intensity := turn.EmotionIntensity
	if _, err := d.ltm.Insert(string(turn.Role), memorycore.LayerSubconscious, turn.Text, &topic, &emotion, &intensity, &intensity, "dialogue", nil, memorycore.Defenses{}); err != nil {
		d.log.Warn().Err(err).Str("agent", string(turn.Role)).Msg("dialogue: ltm insert failed")
	}
}

// detectSimpleRepetition reports whether at least two pairs among texts
// have Jaccard similarity over 0.6 on their keyword sets (see DESIGN.md's
// Open Question resolution on Jaccard normalization: true Jaccard
// everywhere, via the shared lexical package, rather than the
// max-normalized variant one original call site used).
func detectSimpleRepetition(texts []string) bool {
	if len(texts) < 3 {
		return false
	}
	wordSets := make([]map[string]struct{}, len(texts))
	for i, t := range texts {
		wordSets[i] = lexical.Keywords(t)
	}

	overlaps := 0
	for i := 0; i < len(wordSets)-1; i++ {
		for j := i + 1; j < len(wordSets); j++ {
			if len(wordSets[i]) == 0 || len(wordSets[j]) == 0 {
				continue
			}
			if lexical.Jaccard(wordSets[i], wordSets[j]) > 0.6 {
				overlaps++
			}
		}
	}
	return overlaps >= 2
}

func toObserverTurns(turns []Turn) []observer.Turn {
	out := make([]observer.Turn, len(turns))
	for i, t := range turns {
		out[i] = observer.Turn{Role: string(t.Role), Text: t.Text}
	}
	return out
}

func toMetricsTurns(turns []Turn) []metrics.Turn {
	out := make([]metrics.Turn, len(turns))
	for i, t := range turns {
		out[i] = metrics.Turn{Role: string(t.Role), Text: t.Text}
	}
	return out
}

// SessionDump is the persisted shape of a finished session (spec.md section
// 6's sessions/<session_id>.json: config echo, metrics snapshot, full
// dialogue).
type SessionDump struct {
	ID        string          `json:"id"`
	Topic     string          `json:"topic"`
	StartedAt string          `json:"started_at"`
	Config    config.Config   `json:"config"`
	Metrics   metrics.Summary `json:"metrics"`
	Dialogue  []Turn          `json:"dialogue"`
}

// Persist writes the session to dataDir/sessions/<id>.json, atomically
// (write to a temp file, rename over the target — the same crash-safety
// pattern memorycore.STMStore uses for its own writes).
func Persist(session *Session, cfg config.Config, dataDir string) error {
	dump := SessionDump{
		ID:        session.ID,
		Topic:     session.Topic,
		StartedAt: session.StartedAt,
		Config:    cfg,
		Metrics:   metrics.ComputeAll(toMetricsTurns(session.History)),
		Dialogue:  session.History,
	}

	dir := filepath.Join(dataDir, "sessions")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("dialogue: creating sessions dir: %w", err)
	}

	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return fmt.Errorf("dialogue: marshaling session dump: %w", err)
	}

	path := filepath.Join(dir, session.ID+".json")
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("dialogue: writing session dump: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("dialogue: renaming session dump: %w", err)
	}
	return nil
}

package dialogue

import (
	"sync"
	"time"
)

// EventKind identifies the type of dialogue event, adapted from the
// teacher's session-event taxonomy to the shape of a dialogue turn loop
// instead of a tool-calling round.
type EventKind string

const (
	EventSessionStart   EventKind = "session_start"
	EventSessionEnd     EventKind = "session_end"
	EventTurnGenerated  EventKind = "turn_generated"
	EventFixyIntervened EventKind = "fixy_intervened"
	EventDreamCycleRun  EventKind = "dream_cycle_run"
	EventForcedRecharge EventKind = "forced_recharge"
	EventStopTokenFired EventKind = "stop_token_fired"
	EventWarning        EventKind = "warning"
)

// Event is a typed notification emitted at a dialogue turn boundary.
type Event struct {
	Kind      EventKind              `json:"kind"`
	Timestamp time.Time              `json:"timestamp"`
	SessionID string                 `json:"session_id"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// EventEmitter delivers typed turn-boundary events to whatever is hosting
// the dialogue (a CLI progress line, a web socket, a test observer) via a
// buffered channel. A nil *EventEmitter is valid and every method on it is
// a no-op, so Driver.Run can unconditionally call through it.
type EventEmitter struct {
	sessionID string
	ch        chan Event
	closed    bool
	mu        sync.Mutex
}

// NewEventEmitter creates an EventEmitter with a buffered channel.
func NewEventEmitter(sessionID string, bufferSize int) *EventEmitter {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &EventEmitter{
		sessionID: sessionID,
		ch:        make(chan Event, bufferSize),
	}
}

// Emit sends an event to the channel, dropping it if the buffer is full or
// the emitter is closed rather than blocking the turn loop.
func (e *EventEmitter) Emit(kind EventKind, data map[string]interface{}) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	event := Event{
		Kind:      kind,
		Timestamp: time.Now(),
		SessionID: e.sessionID,
		Data:      data,
	}
	select {
	case e.ch <- event:
	default:
	}
}

// Events returns the read-only event channel.
func (e *EventEmitter) Events() <-chan Event {
	if e == nil {
		return nil
	}
	return e.ch
}

// Close closes the event channel. Safe to call multiple times, and on a
// nil *EventEmitter.
func (e *EventEmitter) Close() {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.ch)
	}
}

package memorycore

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	_ "github.com/mattn/go-sqlite3"
)

// LTMRecord is one long-term-memory row, as returned by Recent. Unverified
// is set when neither the canonical nor the legacy signature format
// matches the stored signature (spec.md section 7: "logged as WARN, the
// record is returned flagged unverified").
type LTMRecord struct {
	ID               string
	Agent            string
	Timestamp        string
	Layer            string
	Content          string
	Topic            *string
	Emotion          *string
	EmotionIntensity *float64
	Importance       *float64
	Source           string
	PromotedFrom     *string
	Intrusive        bool
	Suppressed       bool
	Signature        string
	Unverified       bool
}

// Defenses carries the intrusive/suppressed flags applied before storage
// (spec.md section 4.5's defense classification).
type Defenses struct {
	Intrusive  bool
	Suppressed bool
}

const (
	LayerConscious   = "conscious"
	LayerSubconscious = "subconscious"
)

// LTMStore is the signed, persisted long-term-memory table, backed by
// SQLite (grounded on kadirpekel-hector's database/sql + mattn/go-sqlite3
// usage for local persistence) with HMAC signing grounded on
// perplext-LLMrecon's audit trail manager.
type LTMStore struct {
	db     *sql.DB
	signer Signer
	log    zerolog.Logger
}

// OpenLTMStore opens (creating if absent) the SQLite database at path,
// ensures the schema exists, and runs the key-migration check.
func OpenLTMStore(path string, signer Signer, log zerolog.Logger) (*LTMStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("memorycore: opening ltm store: %w", err)
	}

	store := &LTMStore{db: db, signer: signer, log: log}
	if err := store.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	if err := store.migrateKey(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *LTMStore) Close() error { return s.db.Close() }

func (s *LTMStore) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS memories (
	id TEXT PRIMARY KEY,
	agent TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	layer TEXT NOT NULL,
	content TEXT NOT NULL,
	topic TEXT,
	emotion TEXT,
	emotion_intensity REAL,
	importance REAL,
	source TEXT NOT NULL,
	promoted_from TEXT,
	intrusive INTEGER NOT NULL DEFAULT 0,
	suppressed INTEGER NOT NULL DEFAULT 0,
	signature TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_memories_agent_timestamp ON memories(agent, timestamp);

CREATE TABLE IF NOT EXISTS settings (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	key_fingerprint TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS agent_state (
	agent TEXT PRIMARY KEY,
	id_strength REAL NOT NULL,
	ego_strength REAL NOT NULL,
	superego_strength REAL NOT NULL,
	self_awareness REAL NOT NULL
);
`)
	if err != nil {
		return fmt.Errorf("memorycore: ensuring schema: %w", err)
	}
	return nil
}

// migrateKey implements spec.md section 4.2's key-migration routine: on
// startup, compare the current signing key's fingerprint against the
// stored one. Absent: store it. Different: re-sign every row from its
// stored content/topic/emotion/timestamp with the canonical format (the old
// signature is not checked, in either format) inside a single transaction,
// then overwrite the
// fingerprint — idempotent and crash-safe, since a crash mid-transaction
// rolls back entirely and the next startup re-attempts from the
// still-unchanged stored fingerprint.
func (s *LTMStore) migrateKey() error {
	currentFingerprint := s.signer.KeyFingerprint()

	var storedFingerprint string
	err := s.db.QueryRow(`SELECT key_fingerprint FROM settings WHERE id = 1`).Scan(&storedFingerprint)
	switch {
	case err == sql.ErrNoRows:
		_, insertErr := s.db.Exec(`INSERT INTO settings (id, key_fingerprint) VALUES (1, ?)`, currentFingerprint)
		if insertErr != nil {
			return fmt.Errorf("memorycore: storing initial key fingerprint: %w", insertErr)
		}
		return nil
	case err != nil:
		return fmt.Errorf("memorycore: reading key fingerprint: %w", err)
	}

	if storedFingerprint == currentFingerprint {
		return nil
	}

	return s.resignAllRows(currentFingerprint)
}

func (s *LTMStore) resignAllRows(newFingerprint string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("memorycore: beginning key-migration transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(`SELECT id, content, topic, emotion, timestamp, signature FROM memories`)
	if err != nil {
		return fmt.Errorf("memorycore: reading rows for key migration: %w", err)
	}

	type pending struct {
		id, content, timestamp string
		topic, emotion         *string
	}
	var toResign []pending

	for rows.Next() {
		var p pending
		var oldSignature string
		if err := rows.Scan(&p.id, &p.content, &p.topic, &p.emotion, &p.timestamp, &oldSignature); err != nil {
			rows.Close()
			return fmt.Errorf("memorycore: scanning row for key migration: %w", err)
		}
		toResign = append(toResign, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("memorycore: iterating rows for key migration: %w", err)
	}
	rows.Close()

	for _, p := range toResign {
		newSig := s.signer.Sign(p.content, p.topic, p.emotion, p.timestamp)
		if _, err := tx.Exec(`UPDATE memories SET signature = ? WHERE id = ?`, newSig, p.id); err != nil {
			return fmt.Errorf("memorycore: re-signing row %s: %w", p.id, err)
		}
	}

	if _, err := tx.Exec(`UPDATE settings SET key_fingerprint = ? WHERE id = 1`, newFingerprint); err != nil {
		return fmt.Errorf("memorycore: updating key fingerprint: %w", err)
	}

	return tx.Commit()
}

// Insert allocates a UUID, stamps the current time as ISO-8601 UTC,
// signs the canonical payload, and writes one row. Returns the new row's
// id.
func (s *LTMStore) Insert(
	agent, layer, content string,
	topic, emotion *string,
	intensity, importance *float64,
	source string,
	promotedFrom *string,
	defenses Defenses,
) (string, error) {
	id := uuid.NewString()
	timestamp := time.Now().UTC().Format(time.RFC3339)
	signature := s.signer.Sign(content, topic, emotion, timestamp)

	_, err := s.db.Exec(`
INSERT INTO memories (id, agent, timestamp, layer, content, topic, emotion, emotion_intensity, importance, source, promoted_from, intrusive, suppressed, signature)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, agent, timestamp, layer, content, topic, emotion, intensity, importance, source, promotedFrom,
		boolToInt(defenses.Intrusive), boolToInt(defenses.Suppressed), signature,
	)
	if err != nil {
		return "", fmt.Errorf("memorycore: inserting ltm row: %w", err)
	}
	return id, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Recent returns up to limit most recent rows for agent, newest first,
// optionally filtered by layer (empty string means no filter). Each row's
// signature is checked against the canonical format, falling back to the
// legacy pipe-delimited format; a mismatch against both logs a WARN and
// returns the row with Unverified=true rather than failing.
func (s *LTMStore) Recent(agent string, limit int, layer string) ([]LTMRecord, error) {
	query := `SELECT id, agent, timestamp, layer, content, topic, emotion, emotion_intensity, importance, source, promoted_from, intrusive, suppressed, signature
	          FROM memories WHERE agent = ?`
	args := []any{agent}
	if layer != "" {
		query += ` AND layer = ?`
		args = append(args, layer)
	}
	query += ` ORDER BY timestamp DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("memorycore: querying recent ltm rows: %w", err)
	}
	defer rows.Close()

	var records []LTMRecord
	for rows.Next() {
		var r LTMRecord
		var intrusive, suppressed int
		if err := rows.Scan(&r.ID, &r.Agent, &r.Timestamp, &r.Layer, &r.Content, &r.Topic, &r.Emotion,
			&r.EmotionIntensity, &r.Importance, &r.Source, &r.PromotedFrom, &intrusive, &suppressed, &r.Signature); err != nil {
			return nil, fmt.Errorf("memorycore: scanning ltm row: %w", err)
		}
		r.Intrusive = intrusive != 0
		r.Suppressed = suppressed != 0

		format := s.signer.VerifyWithLegacyFallback(r.Content, r.Topic, r.Emotion, r.Timestamp, r.Signature)
		if format == "" {
			r.Unverified = true
			s.log.Warn().Str("id", r.ID).Str("agent", agent).Msg("memorycore: ltm signature verification failed")
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("memorycore: iterating ltm rows: %w", err)
	}
	return records, nil
}

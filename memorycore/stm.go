package memorycore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// STMEntry is one short-term-memory record for an agent.
type STMEntry struct {
	Content         string  `json:"content"`
	Topic           string  `json:"topic,omitempty"`
	Emotion         string  `json:"emotion,omitempty"`
	EmotionIntensity float64 `json:"emotion_intensity"`
	Importance      float64 `json:"importance"`
	Timestamp       string  `json:"timestamp"`
}

// STMStore manages the per-agent bounded append-log, persisted as
// stm_<agent>.json under the configured data directory (spec.md section
// 6). Writes are atomic: a side file is written then renamed over the
// target, per spec.md section 4.2.
type STMStore struct {
	dataDir    string
	maxEntries int
	trimBatch  int
	log        zerolog.Logger
}

// NewSTMStore builds a store rooted at dataDir with the given cap and
// overflow trim-batch size.
func NewSTMStore(dataDir string, maxEntries, trimBatch int, log zerolog.Logger) *STMStore {
	return &STMStore{dataDir: dataDir, maxEntries: maxEntries, trimBatch: trimBatch, log: log}
}

func (s *STMStore) path(agent string) string {
	return filepath.Join(s.dataDir, fmt.Sprintf("stm_%s.json", agent))
}

// Load returns the full bounded list of STM entries in insertion order;
// empty on first use. A corrupted file is treated as empty, logged as
// WARN, and renamed to ".corrupt.<timestamp>" (spec.md section 7).
func (s *STMStore) Load(agent string) []STMEntry {
	path := s.path(agent)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn().Err(err).Str("agent", agent).Msg("stm: read failed, treating as empty")
		}
		return nil
	}

	var entries []STMEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		s.log.Warn().Err(err).Str("agent", agent).Msg("stm: corrupt file, treating as empty")
		corruptPath := fmt.Sprintf("%s.corrupt.%d", path, time.Now().UnixNano())
		if renameErr := os.Rename(path, corruptPath); renameErr != nil {
			s.log.Warn().Err(renameErr).Msg("stm: failed to quarantine corrupt file")
		}
		return nil
	}
	return entries
}

// Append adds entry to the agent's STM, enforcing the cap by dropping the
// oldest trim-batch of entries on overflow, then atomically rewrites the
// file (write to a temp side file, rename over the target).
func (s *STMStore) Append(agent string, entry STMEntry) error {
	entries := s.Load(agent)
	entries = append(entries, entry)

	if len(entries) > s.maxEntries {
		drop := s.trimBatch
		if drop > len(entries) {
			drop = len(entries)
		}
		entries = entries[drop:]
	}

	return s.write(agent, entries)
}

// Replace overwrites the agent's full STM entry list (used by the
// dream-cycle consolidation step, which keeps only the last K conscious
// entries after a forced recharge).
func (s *STMStore) Replace(agent string, entries []STMEntry) error {
	return s.write(agent, entries)
}

func (s *STMStore) write(agent string, entries []STMEntry) error {
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return fmt.Errorf("memorycore: creating data dir: %w", err)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("memorycore: marshaling stm entries: %w", err)
	}

	path := s.path(agent)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("memorycore: writing stm temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("memorycore: renaming stm temp file: %w", err)
	}
	return nil
}

// Package memorycore implements the two-layer tamper-evident memory store:
// per-agent short-term memory (STM) files and a signed long-term memory
// (LTM) store, plus the agent-state upsert table. HMAC signing is grounded
// on perplext-LLMrecon's audit trail manager
// (src/audit/trail/manager.go's generateSignature: hmac.New(sha256.New,
// key) + hex.EncodeToString); the STM/LTM split and key-migration
// invariants are grounded on spec.md section 4.2, with content rules
// resolved against original_source/entelgia/long_term_memory.py where the
// spec is silent.
package memorycore

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

// Signer computes and verifies the canonical HMAC-SHA256 signature over an
// LTM record's signed fields.
type Signer struct {
	key []byte
}

// NewSigner wraps a raw signing key. Callers are responsible for sourcing
// it from MEMORY_SECRET_KEY (spec.md section 6).
func NewSigner(key []byte) Signer {
	return Signer{key: key}
}

// KeyFingerprint returns the hex-encoded SHA-256 fingerprint of the signing
// key, used by the key-migration routine in ltm.go.
func (s Signer) KeyFingerprint() string {
	sum := sha256.Sum256(s.key)
	return hex.EncodeToString(sum[:])
}

// canonicalPayload builds the length-prefixed byte serialization of
// (content, topic, emotion, timestamp). Each field is encoded as a 4-byte
// big-endian length followed by its UTF-8 bytes; an absent optional field
// (topic, emotion) is encoded as length 0xFFFFFFFF so it is distinguishable
// from a present-but-empty string, matching spec.md section 4.2's
// requirement for an "explicit null marker".
func canonicalPayload(content string, topic, emotion *string, timestamp string) []byte {
	var buf []byte
	buf = appendField(buf, &content)
	buf = appendField(buf, topic)
	buf = appendField(buf, emotion)
	buf = appendField(buf, &timestamp)
	return buf
}

const nullMarker uint32 = 0xFFFFFFFF

func appendField(buf []byte, field *string) []byte {
	if field == nil {
		var lenBytes [4]byte
		binary.BigEndian.PutUint32(lenBytes[:], nullMarker)
		return append(buf, lenBytes[:]...)
	}
	data := []byte(*field)
	var lenBytes [4]byte
	binary.BigEndian.PutUint32(lenBytes[:], uint32(len(data)))
	buf = append(buf, lenBytes[:]...)
	buf = append(buf, data...)
	return buf
}

// Sign computes the hex-encoded HMAC-SHA256 signature over the canonical
// payload of (content, topic, emotion, timestamp).
func (s Signer) Sign(content string, topic, emotion *string, timestamp string) string {
	payload := canonicalPayload(content, topic, emotion, timestamp)
	h := hmac.New(sha256.New, s.key)
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// Verify reports whether signature matches the canonical payload.
func (s Signer) Verify(content string, topic, emotion *string, timestamp, signature string) bool {
	expected := s.Sign(content, topic, emotion, timestamp)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// legacySignature reproduces the deprecated pipe-delimited format
// (f"{content}|{topic}|{emotion}|{ts}" with literal "None" for missing
// fields), read-only, for migrating rows signed before the canonical
// length-prefixed format was introduced.
func (s Signer) legacySignature(content string, topic, emotion *string, timestamp string) string {
	payload := strings.Join([]string{
		content,
		optionalOrNone(topic),
		optionalOrNone(emotion),
		timestamp,
	}, "|")
	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}

func optionalOrNone(field *string) string {
	if field == nil {
		return "None"
	}
	return *field
}

// VerifyWithLegacyFallback verifies signature against the canonical
// payload first, then against the legacy pipe-delimited payload. It
// returns which format matched ("canonical", "legacy", or "" if neither).
func (s Signer) VerifyWithLegacyFallback(content string, topic, emotion *string, timestamp, signature string) string {
	if s.Verify(content, topic, emotion, timestamp, signature) {
		return "canonical"
	}
	if hmac.Equal([]byte(s.legacySignature(content, topic, emotion, timestamp)), []byte(signature)) {
		return "legacy"
	}
	return ""
}

// ErrSignatureMismatch is a descriptive sentinel for a failed signature
// check. No code in this package returns or logs it: LTMStore.Recent logs
// its own WARN message and flags the record Unverified instead.
var ErrSignatureMismatch = fmt.Errorf("memorycore: signature verification failed")

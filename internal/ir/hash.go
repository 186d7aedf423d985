package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainExplanation = "cfeval/explanation/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint computes a content-addressed ID for the explanation's change list.
// Proximity is excluded because it is only meaningful within one run, and
// the individual is excluded because it is a display reference. Two
// explanations proposing the same changes in the same order share a fingerprint.
func (e Explanation) Fingerprint() (string, error) {
	changes := make([]any, len(e.Changes))
	for i, c := range e.Changes {
		changes[i] = canonicalChange(c)
	}

	canonical, err := MarshalCanonical(map[string]any{"changes": changes})
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(DomainExplanation, canonical), nil
}

// MustFingerprint is like Fingerprint but panics on error.
// Use only in tests or when inputs are known to be valid.
func (e Explanation) MustFingerprint() string {
	id, err := e.Fingerprint()
	if err != nil {
		panic(err)
	}
	return id
}

func canonicalChange(c AssertionChange) map[string]any {
	obj := map[string]any{
		"type":     string(c.Type),
		"property": c.Property,
		"value":    canonicalValue(c.Value),
	}
	if c.NativeType != "" {
		obj["native_type"] = c.NativeType
	}
	if c.OldValue != nil {
		obj["old_value"] = canonicalValue(c.OldValue)
	}
	return obj
}

func canonicalValue(v Value) map[string]any {
	switch val := v.(type) {
	case Single:
		return map[string]any{"single": string(val)}
	case Set:
		return map[string]any{"set": val.IRIs()}
	default:
		return map[string]any{"set": []string{}}
	}
}

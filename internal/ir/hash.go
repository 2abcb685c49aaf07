package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainSource = "pyken/source/v1"
	DomainIR     = "pyken/ir/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SourceDigest identifies a source file's text. It is written into the
// generated header and used by the run store to detect unchanged inputs.
func SourceDigest(text string) string {
	return hashWithDomain(DomainSource, []byte(text))
}

// Fingerprint computes the content-addressed identity of a module's IR.
// Two builds of the same source with the same options yield the same
// fingerprint.
func Fingerprint(m *Module) (string, error) {
	canonical, err := MarshalCanonical(Encode(m))
	if err != nil {
		return "", fmt.Errorf("Fingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainIR, canonical), nil
}

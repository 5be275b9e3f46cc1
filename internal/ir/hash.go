package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefix for content-addressed tree identity. Version suffix enables
// future algorithm migration.
const DomainModule = "kernelgate/module/v1"

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null separator prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ModuleDigest computes the content-addressed digest of a statement tree.
// Structurally identical trees digest identically, independent of how they
// were built or serialized. Reports and golden files use this as the stable
// identity of the verified input.
func ModuleDigest(s Stmt) (string, error) {
	canonical, err := MarshalCanonical(s)
	if err != nil {
		return "", fmt.Errorf("ModuleDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainModule, canonical), nil
}

package core

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash computes the SHA-256 hex digest of the exact chunk text.
// Two chunks with identical hash are the same knowledge unit regardless of
// which document they came from; only the first occurrence is persisted.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

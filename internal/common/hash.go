package common

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sha256Hex digests the input with SHA-256 and returns it as lowercase hex.
// Used for refresh tokens so the database never stores the raw token.
func Sha256Hex(input string) string {
	digest := sha256.Sum256([]byte(input))
	return hex.EncodeToString(digest[:])
}

package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashUserKey returns a storage-safe identifier for a user ID. Guest IDs
// contain a colon prefix, so object keys always go through this.
func HashUserKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashBytes is the hex sha256 of an encoded artifact.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashPortalKey hashes the raw portal key using the same strategy as key creation.
func HashPortalKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// KeyPrefix returns a short diagnostic prefix of a raw key, safe to log.
func KeyPrefix(raw string) string {
	if len(raw) <= 10 {
		return raw
	}
	return raw[:10]
}

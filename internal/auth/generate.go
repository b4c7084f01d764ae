package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// PrefixLen is how many leading characters of a raw key are stored for
// identification in listings.
const PrefixLen = 8

// GenerateKey returns a new high-entropy raw API key: 32 random bytes,
// URL-safe base64 without padding.
func GenerateKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate random key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// KeyPrefix returns the identification prefix for a raw key.
func KeyPrefix(rawKey string) string {
	if len(rawKey) < PrefixLen {
		return rawKey
	}
	return rawKey[:PrefixLen]
}

package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashUserKey maps a user or guest id to the directory segment used in
// storage keys, so raw ids and emails never appear in bucket listings.
// Surrounding whitespace is ignored.
func HashUserKey(userID string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(userID)))
	return hex.EncodeToString(sum[:])
}

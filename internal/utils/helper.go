package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// PageCacheKey derives the cache key for a fetched document.
func PageCacheKey(ref string) string {
	sum := sha256.Sum256([]byte(ref))
	return "page:" + hex.EncodeToString(sum[:])
}

// StripFootnote drops everything from the first '[' onwards, e.g. "Bank X[5]" -> "Bank X".
func StripFootnote(s string) string {
	if i := strings.IndexByte(s, '['); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

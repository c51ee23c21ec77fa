package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// KeyFor returns the cache key for text: the SHA-256 digest of its UTF-8
// bytes, hex encoded. The mapping is stable across runs and platforms, so
// keys in persisted files stay valid across restarts.
func KeyFor(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

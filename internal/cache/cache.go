package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a cache key from a namespace and content string. The
// content is hashed so arbitrary diagnosis texts and prompts make safe
// file names.
func Key(namespace, content string) string {
	hash := sha256.Sum256([]byte(content))
	return "mgeo:v1:" + namespace + ":" + hex.EncodeToString(hash[:])
}

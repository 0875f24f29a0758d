package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// maxKeyLength caps keys built from request URLs. With key hashing
// disabled a hostile query string would otherwise become an
// arbitrarily large Redis key.
const maxKeyLength = 1024

// GenerateSimpleKey builds a cache key from an HTTP method and a request
// target. The target is the rewritten upstream form (front controller
// path plus canonical query string), so every pretty path that resolves
// to the same query string lands on the same entry.
func GenerateSimpleKey(method, target string) string {
	return method + ":" + target
}

// HashKey hashes a key to a fixed length.
func HashKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

// SanitizeKey removes or replaces characters that might cause issues in cache keys.
func SanitizeKey(key string) string {
	replacer := strings.NewReplacer(
		" ", "_",
		"\n", "",
		"\r", "",
		"\t", "",
	)
	return replacer.Replace(key)
}

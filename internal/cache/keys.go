package cache

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Redis key prefixes.
const (
	sessionKeyPrefix   = "session:"
	flashKeyPrefix     = "flash:"
	groupsKeyPrefix    = "groups:"
	rateLimitKeyPrefix = "ratelimit:login:"
)

// TokenKey derives a stable cache key from a bearer token so raw tokens
// never appear in key names.
func TokenKey(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:16]) // 32 hex chars
}

// hashIP creates a truncated hash of an IP address.
func hashIP(ip string) string {
	sum := blake2b.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:8]) // 16 hex chars
}

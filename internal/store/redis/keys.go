package redis

import "fmt"

const (
	// KeyPrefixSession is the prefix for session keys
	KeyPrefixSession = "linkaudit:session:"
	// KeyPrefixLock is the prefix for probe locks
	KeyPrefixLock = "linkaudit:lock:"
)

// SessionKey returns the Redis key for a session by ID
func SessionKey(id string) string {
	return KeyPrefixSession + id
}

// LockKey returns the Redis key guarding probes of a session
func LockKey(id string) string {
	return KeyPrefixLock + id
}

// SessionPattern matches every session key, for SCAN
func SessionPattern() string {
	return KeyPrefixSession + "*"
}

// ExtractSessionID extracts the session ID from a Redis key
func ExtractSessionID(key string) (string, error) {
	if len(key) <= len(KeyPrefixSession) {
		return "", fmt.Errorf("invalid session key: %s", key)
	}
	return key[len(KeyPrefixSession):], nil
}

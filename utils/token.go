package utils

import (
	"sync"
	"time"
)

// Revoked admin tokens, kept until the token would have expired anyway.
var (
	revokedTokens = make(map[string]time.Time)
	revokedMutex  sync.RWMutex
)

// RevokeToken blocks tokenString until expiresAt.
func RevokeToken(tokenString string, expiresAt time.Time) {
	revokedMutex.Lock()
	defer revokedMutex.Unlock()

	now := time.Now()
	for token, expiry := range revokedTokens {
		if now.After(expiry) {
			delete(revokedTokens, token)
		}
	}
	revokedTokens[tokenString] = expiresAt
}

func IsTokenRevoked(tokenString string) bool {
	revokedMutex.RLock()
	defer revokedMutex.RUnlock()

	expiry, exists := revokedTokens[tokenString]
	return exists && time.Now().Before(expiry)
}

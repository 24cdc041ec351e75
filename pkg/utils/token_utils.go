package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateSecureToken returns length random bytes, hex encoded.
func GenerateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read failed: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// ResolveSigningSecret returns configured when set. Otherwise it generates a
// process-local secret, so sessions do not survive a restart.
func ResolveSigningSecret(configured string) (secret string, generated bool, err error) {
	if configured != "" {
		return configured, false, nil
	}
	secret, err = GenerateSecureToken(32)
	if err != nil {
		return "", false, fmt.Errorf("utils.ResolveSigningSecret: %w", err)
	}
	return secret, true, nil
}

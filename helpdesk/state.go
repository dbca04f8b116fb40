package helpdesk

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// State tokens carry 32 bytes of entropy, hex-encoded.
const stateEntropyBytes = 32

// GenerateState returns a fresh CSRF state token. The token is
// single-use by contract: it must be consumed exactly once at
// callback time and never reused.
func GenerateState() (string, error) {
	buf := make([]byte, stateEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// ValidateState compares the state echoed by the provider against the
// expected value. Empty values on either side fail immediately; the
// comparison itself is constant time in the token contents and never
// errors.
func ValidateState(received, expected string) bool {
	if received == "" || expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(received), []byte(expected)) == 1
}

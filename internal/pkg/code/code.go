package code

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// New generates an unguessable handshake code: nbytes of crypto/rand entropy,
// hex-encoded. 16 bytes (128 bits) is the floor for anything user-facing;
// shorter codes would need a lockout on confirmation attempts.
func New(nbytes int) (string, error) {
	if nbytes < 16 {
		nbytes = 16
	}
	b := make([]byte, nbytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate handshake code: %w", err)
	}
	return hex.EncodeToString(b), nil
}

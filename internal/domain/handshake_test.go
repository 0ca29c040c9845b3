package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHandshakeSession_ExpiredAt(t *testing.T) {
	deadline := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	h := HandshakeSession{ExpiresAt: deadline.Unix()}

	assert.False(t, h.ExpiredAt(deadline.Add(-time.Second)))
	// The deadline instant itself already counts as expired.
	assert.True(t, h.ExpiredAt(deadline))
	assert.True(t, h.ExpiredAt(deadline.Add(time.Second)))
}

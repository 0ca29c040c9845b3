package code

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Length(t *testing.T) {
	c, err := New(16)
	require.NoError(t, err)
	assert.Len(t, c, 32) // hex doubles the byte count
}

func TestNew_EnforcesMinimumEntropy(t *testing.T) {
	c, err := New(4)
	require.NoError(t, err)
	assert.Len(t, c, 32)
}

func TestNew_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		c, err := New(16)
		require.NoError(t, err)
		assert.False(t, seen[c], "duplicate code generated")
		seen[c] = true
	}
}

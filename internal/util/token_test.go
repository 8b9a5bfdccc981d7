package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInviteToken(t *testing.T) {
	token, err := NewInviteToken()
	require.NoError(t, err)
	assert.Len(t, token, InviteTokenLength)
	for _, r := range token {
		assert.True(t, strings.ContainsRune(inviteTokenAlphabet, r), "unexpected character %q", r)
	}
}

func TestNewInviteTokenUniqueness(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		token, err := NewInviteToken()
		require.NoError(t, err)
		assert.False(t, seen[token], "duplicate token %s", token)
		seen[token] = true
	}
}

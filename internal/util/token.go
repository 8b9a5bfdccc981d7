package util

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// InviteTokenLength is the length of generated invite tokens.
const InviteTokenLength = 12

// Uppercase letters and digits keep tokens easy to read aloud and type.
const inviteTokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewInviteToken generates a random invite token from a crypto-grade
// source. The keyspace (36^12) makes collisions rare; callers still retry
// on a unique-constraint conflict.
func NewInviteToken() (string, error) {
	max := big.NewInt(int64(len(inviteTokenAlphabet)))
	b := make([]byte, InviteTokenLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generating invite token: %w", err)
		}
		b[i] = inviteTokenAlphabet[n.Int64()]
	}
	return string(b), nil
}

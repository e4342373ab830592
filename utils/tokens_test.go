package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenSigner_RoundTrip(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	s := NewTokenSigner("secret", time.Hour)

	tok, err := s.GenerateAccessToken("abc", "alice", now)
	require.NoError(t, err)

	claims, err := s.ValidateToken(tok, now.Add(59*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "abc", claims.UserID)
	assert.Equal(t, "alice", claims.Username)

	_, err = s.ValidateToken(tok, now.Add(61*time.Minute))
	assert.Error(t, err)
}

func TestTokenSigner_RejectsForeignSignature(t *testing.T) {
	now := time.Now()
	tok, err := NewTokenSigner("other", time.Hour).GenerateAccessToken("abc", "alice", now)
	require.NoError(t, err)

	_, err = NewTokenSigner("secret", time.Hour).ValidateToken(tok, now)
	assert.Error(t, err)
	_, err = NewTokenSigner("secret", time.Hour).ValidateToken("garbage", now)
	assert.Error(t, err)
}

func TestNewRefreshToken(t *testing.T) {
	raw1, hash1, err := NewRefreshToken()
	require.NoError(t, err)
	raw2, _, err := NewRefreshToken()
	require.NoError(t, err)

	assert.Len(t, raw1, 64)
	assert.NotEqual(t, raw1, raw2)
	assert.NotEqual(t, raw1, hash1)
	assert.Equal(t, hash1, HashRefreshToken(raw1))
}

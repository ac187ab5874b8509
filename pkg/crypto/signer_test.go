package crypto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigner_SignAndVerify(t *testing.T) {
	s := NewSigner("test-secret", nil)
	sig := s.Sign([]byte("payload"))

	ok, err := s.Verify([]byte("payload"), sig)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Verify([]byte("tampered"), sig)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestSigner_ApprovalTokenRoundTrip(t *testing.T) {
	s := NewSigner("test-secret", nil)
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	token := s.SignApprovalToken("txn-1", "user-1", now.Add(15*time.Minute))

	assert.NoError(t, s.VerifyApprovalToken(token, "txn-1", "user-1", now))
}

func TestSigner_ApprovalTokenBoundToTransactionAndUser(t *testing.T) {
	s := NewSigner("test-secret", nil)
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	token := s.SignApprovalToken("txn-1", "user-1", now.Add(time.Minute))

	assert.ErrorIs(t, s.VerifyApprovalToken(token, "txn-2", "user-1", now), ErrInvalidSignature)
	assert.ErrorIs(t, s.VerifyApprovalToken(token, "txn-1", "user-2", now), ErrInvalidSignature)
	assert.ErrorIs(t, NewSigner("other", nil).VerifyApprovalToken(token, "txn-1", "user-1", now), ErrInvalidSignature)
}

func TestSigner_ApprovalTokenExpired(t *testing.T) {
	s := NewSigner("test-secret", nil)
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	token := s.SignApprovalToken("txn-1", "user-1", now)

	assert.ErrorIs(t, s.VerifyApprovalToken(token, "txn-1", "user-1", now), ErrTokenExpired)
}

func TestSigner_ApprovalTokenMalformed(t *testing.T) {
	s := NewSigner("test-secret", nil)
	now := time.Now()

	for _, token := range []string{"", "abc", "123.", "notanumber.deadbeef"} {
		assert.ErrorIs(t, s.VerifyApprovalToken(token, "txn-1", "user-1", now), ErrMalformedToken, "token %q", token)
	}
}

package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrMalformedToken   = errors.New("malformed approval token")
	ErrTokenExpired     = errors.New("approval token expired")
)

type Signer struct {
	secretKey []byte
	logger    *slog.Logger
}

func NewSigner(secretKey string, logger *slog.Logger) *Signer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Signer{
		secretKey: []byte(secretKey),
		logger:    logger,
	}
}

func (s *Signer) Sign(data []byte) string {
	mac := hmac.New(sha256.New, s.secretKey)
	mac.Write(data)
	signature := mac.Sum(nil)
	return hex.EncodeToString(signature)
}

func (s *Signer) Verify(data []byte, signature string) (bool, error) {
	expectedSignature := s.Sign(data)

	if !hmac.Equal([]byte(expectedSignature), []byte(signature)) {
		s.logger.Warn("Signature verification failed",
			slog.Int("signature_length", len(signature)))
		return false, ErrInvalidSignature
	}

	return true, nil
}

// SignApprovalToken binds an approval to one transaction, one user and an
// expiry. The token is "<expiry unix>.<hex hmac>".
func (s *Signer) SignApprovalToken(transactionID, userID string, expiresAt time.Time) string {
	expiry := expiresAt.Unix()
	return fmt.Sprintf("%d.%s", expiry, s.Sign(approvalPayload(transactionID, userID, expiry)))
}

func (s *Signer) VerifyApprovalToken(token, transactionID, userID string, now time.Time) error {
	expiryPart, signature, ok := strings.Cut(token, ".")
	if !ok || signature == "" {
		return ErrMalformedToken
	}

	expiry, err := strconv.ParseInt(expiryPart, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	if _, err := s.Verify(approvalPayload(transactionID, userID, expiry), signature); err != nil {
		return err
	}

	if !now.Before(time.Unix(expiry, 0)) {
		return ErrTokenExpired
	}

	return nil
}

func approvalPayload(transactionID, userID string, expiry int64) []byte {
	return []byte(fmt.Sprintf("approval:%s:%s:%d", transactionID, userID, expiry))
}

package risk

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
	"txguard/internal/domain"
)

// auditTimeFormat is ISO-8601 in UTC with millisecond precision.
const auditTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// auditPayload field order is the canonical serialization order.
type auditPayload struct {
	TransactionID string                    `json:"transactionId"`
	UserID        string                    `json:"userId"`
	Timestamp     string                    `json:"timestamp"`
	Status        domain.VerificationStatus `json:"status"`
	RiskLevel     domain.RiskLevel          `json:"riskLevel"`
	RiskScore     int                       `json:"riskScore"`
	Reasons       []string                  `json:"reasons"`
}

// CreateVerificationAudit returns the SHA-256 hex digest of the decision as
// taken now.
func CreateVerificationAudit(ctx context.Context, v domain.TransactionVerification, transactionID, userID string) (string, error) {
	return AuditDigestAt(ctx, time.Now(), v, transactionID, userID)
}

func AuditDigestAt(ctx context.Context, at time.Time, v domain.TransactionVerification, transactionID, userID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	reasons := v.Reasons
	if reasons == nil {
		reasons = []string{}
	}

	payload, err := json.Marshal(auditPayload{
		TransactionID: transactionID,
		UserID:        userID,
		Timestamp:     at.UTC().Format(auditTimeFormat),
		Status:        v.Status,
		RiskLevel:     v.RiskLevel,
		RiskScore:     v.RiskScore,
		Reasons:       reasons,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode audit payload: %w", err)
	}

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

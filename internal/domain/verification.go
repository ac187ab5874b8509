package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type VerificationStatus string
type RiskLevel string

const (
	StatusApproved         VerificationStatus = "APPROVED"
	StatusRequiresMFA      VerificationStatus = "REQUIRES_MFA"
	StatusRequiresApproval VerificationStatus = "REQUIRES_APPROVAL"
	StatusFlaggedFraud     VerificationStatus = "FLAGGED_FRAUD"
	StatusRejected         VerificationStatus = "REJECTED"

	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// FraudFlags are the behavioural signals derived from recent history.
type FraudFlags struct {
	VelocityExceeded  bool `json:"velocityExceeded"`
	UnusualAmount     bool `json:"unusualAmount"`
	UnusualTime       bool `json:"unusualTime"`
	UnusualRecipient  bool `json:"unusualRecipient"`
	GeoAnomaly        bool `json:"geoAnomaly"`
	SuspiciousPattern bool `json:"suspiciousPattern"`
}

// TransactionVerification is the decision for a single money-movement request.
// BlockedReasons is non-empty exactly when Status is StatusRejected.
type TransactionVerification struct {
	Status           VerificationStatus `json:"status"`
	RiskLevel        RiskLevel          `json:"riskLevel"`
	RiskScore        int                `json:"riskScore"`
	Reasons          []string           `json:"reasons"`
	RequiresMFA      bool               `json:"requiresMFA"`
	RequiresApproval bool               `json:"requiresApproval"`
	BlockedReasons   []string           `json:"blockedReasons,omitempty"`
}

func (v TransactionVerification) IsRejected() bool {
	return v.Status == StatusRejected
}

// VerificationAudit is the record handed to the audit sink.
type VerificationAudit struct {
	ID            string             `json:"id"`
	TransactionID string             `json:"transaction_id"`
	UserID        string             `json:"user_id"`
	AccountID     string             `json:"account_id"`
	Status        VerificationStatus `json:"status"`
	RiskLevel     RiskLevel          `json:"risk_level"`
	RiskScore     int                `json:"risk_score"`
	Reasons       []string           `json:"reasons"`
	Digest        string             `json:"digest"`
	CreatedAt     time.Time          `json:"created_at"`
}

// VerificationRequest is a money-movement request submitted for verification.
// Re-submitting the same TransactionID after MFA or approval is expected.
type VerificationRequest struct {
	TransactionID string          `json:"transaction_id,omitempty"`
	UserID        string          `json:"user_id"`
	FromAccountID string          `json:"from_account_id"`
	ToAccountID   string          `json:"to_account_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency,omitempty"`
}

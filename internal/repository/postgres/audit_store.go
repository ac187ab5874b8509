package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"txguard/internal/domain"
	"txguard/internal/repository"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// AuditStore persists verification audits. Rows are only ever inserted.
// db must come from OpenSQL.
type AuditStore struct {
	db *sql.DB
}

func NewAuditStore(db *sql.DB) *AuditStore {
	return &AuditStore{db: db}
}

func (s *AuditStore) Record(ctx context.Context, audit *domain.VerificationAudit) error {
	reasons := audit.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	reasonsJSON, err := json.Marshal(reasons)
	if err != nil {
		return fmt.Errorf("failed to marshal reasons: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO verification_audits
			(id, transaction_id, user_id, account_id, status, risk_level, risk_score, reasons, digest, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		audit.ID,
		audit.TransactionID,
		audit.UserID,
		audit.AccountID,
		string(audit.Status),
		string(audit.RiskLevel),
		audit.RiskScore,
		reasonsJSON,
		audit.Digest,
		audit.CreatedAt,
	)
	if err != nil {
		return translateRecordError(err, audit.ID)
	}
	return nil
}

// translateRecordError expects lib/pq errors, so the store must be built on
// a handle from OpenSQL.
func translateRecordError(err error, auditID string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: audit %s", repository.ErrDuplicate, auditID)
	}
	return fmt.Errorf("failed to record verification audit: %w", err)
}

func (s *AuditStore) ListByTransaction(ctx context.Context, transactionID string) ([]domain.VerificationAudit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, transaction_id, user_id, account_id, status, risk_level, risk_score, reasons, digest, created_at
		FROM verification_audits
		WHERE transaction_id = $1
		ORDER BY created_at ASC
	`, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list verification audits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []domain.VerificationAudit
	for rows.Next() {
		var a domain.VerificationAudit
		var status, level string
		var reasonsJSON []byte

		if err := rows.Scan(&a.ID, &a.TransactionID, &a.UserID, &a.AccountID,
			&status, &level, &a.RiskScore, &reasonsJSON, &a.Digest, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan verification audit: %w", err)
		}
		a.Status = domain.VerificationStatus(status)
		a.RiskLevel = domain.RiskLevel(level)
		if err := json.Unmarshal(reasonsJSON, &a.Reasons); err != nil {
			return nil, fmt.Errorf("failed to decode reasons: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate verification audits: %w", err)
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("%w: audits for transaction %s", repository.ErrNotFound, transactionID)
	}
	return result, nil
}

package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"txguard/internal/domain"
	"txguard/internal/repository"
)

// AuditRepository is append-only: records are never updated or removed.
type AuditRepository struct {
	mu     sync.RWMutex
	audits map[string]domain.VerificationAudit
	byTx   map[string][]string
}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{
		audits: make(map[string]domain.VerificationAudit),
		byTx:   make(map[string][]string),
	}
}

func (r *AuditRepository) Record(ctx context.Context, audit *domain.VerificationAudit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.audits[audit.ID]; exists {
		return fmt.Errorf("%w: audit %s", repository.ErrDuplicate, audit.ID)
	}

	stored := *audit
	stored.Reasons = append([]string(nil), audit.Reasons...)
	r.audits[audit.ID] = stored
	r.byTx[audit.TransactionID] = append(r.byTx[audit.TransactionID], audit.ID)

	return nil
}

func (r *AuditRepository) ListByTransaction(ctx context.Context, transactionID string) ([]domain.VerificationAudit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids, exists := r.byTx[transactionID]
	if !exists {
		return nil, fmt.Errorf("%w: audits for transaction %s", repository.ErrNotFound, transactionID)
	}

	result := make([]domain.VerificationAudit, 0, len(ids))
	for _, id := range ids {
		result = append(result, r.audits[id])
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}

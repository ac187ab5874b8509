package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
	"txguard/internal/domain"
	"txguard/internal/repository"
)

type TransactionRepository struct {
	mu           sync.RWMutex
	transactions map[string]domain.TransactionRecord
	index        map[string][]string
}

func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{
		transactions: make(map[string]domain.TransactionRecord),
		index:        make(map[string][]string),
	}
}

func (r *TransactionRepository) Save(ctx context.Context, tx *domain.TransactionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.transactions[tx.ID]; exists {
		return fmt.Errorf("%w: transaction %s", repository.ErrDuplicate, tx.ID)
	}

	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	r.transactions[tx.ID] = *tx

	if tx.FromAccountID != "" {
		r.index[tx.FromAccountID] = append(r.index[tx.FromAccountID], tx.ID)
	}

	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.TransactionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tx, exists := r.transactions[id]
	if !exists {
		return nil, fmt.Errorf("%w: transaction %s", repository.ErrNotFound, id)
	}
	return &tx, nil
}

func (r *TransactionRepository) GetRecentByAccount(ctx context.Context, accountID string, since time.Time, limit int) ([]domain.TransactionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.TransactionRecord, 0, len(r.index[accountID]))
	for _, id := range r.index[accountID] {
		tx := r.transactions[id]
		if !tx.CreatedAt.Before(since) {
			result = append(result, tx)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"
	"txguard/internal/domain"
	"txguard/internal/repository"

	"gorm.io/gorm"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Save(ctx context.Context, tx *domain.TransactionRecord) error {
	model := toTransactionModel(tx)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: transaction %s", repository.ErrDuplicate, tx.ID)
		}
		return fmt.Errorf("failed to save transaction: %w", err)
	}
	tx.CreatedAt = model.CreatedAt
	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.TransactionRecord, error) {
	var model transactionModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: transaction %s", repository.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	tx := model.toDomain()
	return &tx, nil
}

func (r *TransactionRepository) GetRecentByAccount(ctx context.Context, accountID string, since time.Time, limit int) ([]domain.TransactionRecord, error) {
	query := r.db.WithContext(ctx).
		Where("from_account_id = ? AND created_at >= ?", accountID, since).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []transactionModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	result := make([]domain.TransactionRecord, 0, len(models))
	for i := range models {
		result = append(result, models[i].toDomain())
	}
	return result, nil
}

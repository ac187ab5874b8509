package postgres

import (
	"context"
	"errors"
	"fmt"
	"txguard/internal/domain"
	"txguard/internal/repository"

	"gorm.io/gorm"
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Save(ctx context.Context, account *domain.Account) error {
	model := toAccountModel(account)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: account %s", repository.ErrDuplicate, account.ID)
		}
		return fmt.Errorf("failed to save account: %w", err)
	}
	account.CreatedAt = model.CreatedAt
	account.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	var model accountModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: account %s", repository.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return model.toDomain(), nil
}

func (r *AccountRepository) Update(ctx context.Context, account *domain.Account) error {
	res := r.db.WithContext(ctx).
		Model(&accountModel{ID: account.ID}).
		Updates(map[string]interface{}{
			"user_id":  account.UserID,
			"balance":  account.Balance,
			"currency": account.Currency,
			"status":   string(account.Status),
			"tier":     string(account.Tier),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update account: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: account %s", repository.ErrNotFound, account.ID)
	}
	return nil
}

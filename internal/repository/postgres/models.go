package postgres

import (
	"time"
	"txguard/internal/domain"

	"github.com/shopspring/decimal"
)

type accountModel struct {
	ID        string          `gorm:"primaryKey;size:64"`
	UserID    string          `gorm:"size:64;not null;index"`
	Balance   decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Currency  string          `gorm:"size:3;not null"`
	Status    string          `gorm:"size:16;not null"`
	Tier      string          `gorm:"size:16;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (accountModel) TableName() string { return "accounts" }

func toAccountModel(a *domain.Account) *accountModel {
	return &accountModel{
		ID:        a.ID,
		UserID:    a.UserID,
		Balance:   a.Balance,
		Currency:  a.Currency,
		Status:    string(a.Status),
		Tier:      string(a.Tier),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func (m *accountModel) toDomain() *domain.Account {
	return &domain.Account{
		ID:        m.ID,
		UserID:    m.UserID,
		Balance:   m.Balance,
		Currency:  m.Currency,
		Status:    domain.AccountStatus(m.Status),
		Tier:      domain.AccountTier(m.Tier),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

type transactionModel struct {
	ID            string          `gorm:"primaryKey;size:64"`
	FromAccountID string          `gorm:"size:64;not null"`
	ToAccountID   string          `gorm:"size:64;not null"`
	Amount        decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	CreatedAt     time.Time
}

func (transactionModel) TableName() string { return "transactions" }

func toTransactionModel(tx *domain.TransactionRecord) *transactionModel {
	return &transactionModel{
		ID:            tx.ID,
		FromAccountID: tx.FromAccountID,
		ToAccountID:   tx.ToAccountID,
		Amount:        tx.Amount,
		CreatedAt:     tx.CreatedAt,
	}
}

func (m *transactionModel) toDomain() domain.TransactionRecord {
	return domain.TransactionRecord{
		ID:            m.ID,
		FromAccountID: m.FromAccountID,
		ToAccountID:   m.ToAccountID,
		Amount:        m.Amount,
		CreatedAt:     m.CreatedAt,
	}
}

package repository

import (
	"context"
	"errors"
	"time"
	"txguard/internal/domain"
)

//go:generate mockgen -source=interfaces.go -destination=../service/mocks/repository_mock.go -package=mocks

type TransactionRepository interface {
	Save(ctx context.Context, transaction *domain.TransactionRecord) error
	GetByID(ctx context.Context, id string) (*domain.TransactionRecord, error)
	// GetRecentByAccount returns outgoing transactions of the account created
	// at or after since, newest first. A non-positive limit means no limit.
	GetRecentByAccount(ctx context.Context, accountID string, since time.Time, limit int) ([]domain.TransactionRecord, error)
}

type AccountRepository interface {
	Save(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	Update(ctx context.Context, account *domain.Account) error
}

type AuditRepository interface {
	Record(ctx context.Context, audit *domain.VerificationAudit) error
	ListByTransaction(ctx context.Context, transactionID string) ([]domain.VerificationAudit, error)
}

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate entry")
)

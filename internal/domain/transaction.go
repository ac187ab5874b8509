package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionRecord is a settled or pending money movement from the account's
// history. Only amount, destination and creation time feed the risk checks.
type TransactionRecord struct {
	ID            string          `json:"id"`
	FromAccountID string          `json:"from_account_id"`
	ToAccountID   string          `json:"to_account_id"`
	Amount        decimal.Decimal `json:"amount"`
	CreatedAt     time.Time       `json:"created_at"`
}

func NewTransactionRecord(fromID, toID string, amount decimal.Decimal, createdAt time.Time) *TransactionRecord {
	return &TransactionRecord{
		ID:            NewTransactionID(),
		FromAccountID: fromID,
		ToAccountID:   toID,
		Amount:        amount,
		CreatedAt:     createdAt,
	}
}

func NewTransactionID() string {
	return "txn_" + uuid.NewString()
}

package risk

import (
	"time"
	"txguard/internal/domain"

	"github.com/shopspring/decimal"
)

// 2026-03-10 is a Tuesday.
var testNow = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func record(amount, to string, createdAt time.Time) domain.TransactionRecord {
	return domain.TransactionRecord{
		ID:            "tx-" + to + "-" + createdAt.Format(time.RFC3339Nano),
		FromAccountID: "acc-A",
		ToAccountID:   to,
		Amount:        dec(amount),
		CreatedAt:     createdAt,
	}
}

func account(balance string) domain.Account {
	return domain.Account{
		ID:      "acc-A",
		UserID:  "user-1",
		Balance: dec(balance),
		Status:  domain.AccountActive,
		Tier:    domain.TierStandard,
	}
}

func fixedClock(t time.Time) Option {
	return WithClock(func() time.Time { return t })
}

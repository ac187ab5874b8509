package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountStatus string
type AccountTier string

const (
	AccountUnspecified AccountStatus = ""
	AccountActive      AccountStatus = "active"
	AccountClosed      AccountStatus = "closed"
	AccountFrozen      AccountStatus = "frozen"
	AccountRestricted  AccountStatus = "restricted"

	TierStandard AccountTier = "standard"
	TierPremium  AccountTier = "premium"
)

// Account is the snapshot of the requesting account read by the verifier.
// The risk core never mutates it.
type Account struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	Status    AccountStatus   `json:"status"`
	Tier      AccountTier     `json:"tier"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (s AccountStatus) IsValid() bool {
	switch s {
	case AccountUnspecified, AccountActive, AccountClosed, AccountFrozen, AccountRestricted:
		return true
	}
	return false
}

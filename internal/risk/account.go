package risk

import (
	"fmt"
	"hash/fnv"
	"time"
	"txguard/internal/domain"
)

// IsAccountRestricted reports whether the account is in any state other than
// active or unspecified.
func IsAccountRestricted(account domain.Account) bool {
	return account.Status != domain.AccountActive && account.Status != domain.AccountUnspecified
}

// GenerateApprovalToken derives a 16 hex character correlation key from the
// transaction, user and time. It is a plain FNV hash, not a secret: use
// crypto.Signer approval tokens for anything that gates money movement.
func GenerateApprovalToken(transactionID, userID string, now time.Time) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s-%s-%d", transactionID, userID, now.UnixMilli())
	return fmt.Sprintf("%016x", h.Sum64())
}

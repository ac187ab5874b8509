package risk

import (
	"regexp"
	"testing"
	"time"
	"txguard/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestIsAccountRestricted(t *testing.T) {
	tests := []struct {
		status domain.AccountStatus
		want   bool
	}{
		{domain.AccountUnspecified, false},
		{domain.AccountActive, false},
		{domain.AccountClosed, true},
		{domain.AccountFrozen, true},
		{domain.AccountRestricted, true},
	}

	for _, tt := range tests {
		got := IsAccountRestricted(domain.Account{Status: tt.status})
		assert.Equal(t, tt.want, got, "status %q", tt.status)
	}
}

func TestGenerateApprovalToken(t *testing.T) {
	hex16 := regexp.MustCompile(`^[0-9a-f]{16}$`)

	a := GenerateApprovalToken("txn-1", "user-1", testNow)
	b := GenerateApprovalToken("txn-1", "user-1", testNow)
	c := GenerateApprovalToken("txn-1", "user-2", testNow)
	d := GenerateApprovalToken("txn-1", "user-1", testNow.Add(time.Millisecond))

	assert.Regexp(t, hex16, a)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
}

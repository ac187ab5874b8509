package risk

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
	"txguard/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVerifier(now time.Time) *Verifier {
	return NewVerifier(DefaultVerifierConfig(), fixedClock(now))
}

func assertBlockedInvariant(t *testing.T, v domain.TransactionVerification) {
	t.Helper()
	assert.Equal(t, len(v.BlockedReasons) > 0, v.Status == domain.StatusRejected,
		"blockedReasons=%v status=%s", v.BlockedReasons, v.Status)
}

func TestVerify_RejectsOverSingleLimit(t *testing.T) {
	v := newTestVerifier(testNow)

	res := v.Verify(dec("15000"), account("100000"), "acc-B", nil, domain.DefaultLimits)

	assert.Equal(t, domain.StatusRejected, res.Status)
	require.Len(t, res.BlockedReasons, 1)
	assert.Contains(t, res.BlockedReasons[0], "15000.00")
	assert.Contains(t, res.BlockedReasons[0], "10000.00")
	assertBlockedInvariant(t, res)
}

func TestVerify_ApprovesLowRiskSmallAmount(t *testing.T) {
	v := newTestVerifier(testNow)

	res := v.Verify(dec("500"), account("1000"), "acc-B", nil, domain.DefaultLimits)

	assert.Equal(t, domain.StatusApproved, res.Status)
	assert.Equal(t, 0, res.RiskScore)
	assert.Equal(t, domain.RiskLow, res.RiskLevel)
	assert.Empty(t, res.Reasons)
	assert.False(t, res.RequiresMFA)
	assert.False(t, res.RequiresApproval)
	assert.Nil(t, res.BlockedReasons)
}

func TestVerify_LowRiskAboveThresholdRequiresMFA(t *testing.T) {
	v := newTestVerifier(testNow)

	res := v.Verify(dec("1500"), account("10000"), "acc-B", nil, domain.DefaultLimits)

	assert.Equal(t, domain.StatusRequiresMFA, res.Status)
	assert.Equal(t, domain.RiskLow, res.RiskLevel)
	assert.True(t, res.RequiresMFA)
	assert.False(t, res.RequiresApproval)
}

func TestVerify_RepeatedAmountsWithinVelocityWindow(t *testing.T) {
	v := newTestVerifier(testNow)
	recent := []domain.TransactionRecord{
		record("200", "acc-B", testNow.Add(-1*time.Minute)),
		record("200", "acc-B", testNow.Add(-2*time.Minute)),
		record("200", "acc-B", testNow.Add(-3*time.Minute)),
	}

	res := v.Verify(dec("200"), account("10000"), "acc-B", recent, velocityLimits(3))

	assert.Equal(t, 65, res.RiskScore)
	assert.Equal(t, domain.RiskHigh, res.RiskLevel)
	assert.Equal(t, domain.StatusRequiresApproval, res.Status)
	assert.True(t, res.RequiresApproval)
	assert.True(t, res.RequiresMFA)
	assert.Equal(t, []string{
		"High transaction velocity detected",
		"Suspicious transaction pattern detected",
	}, res.Reasons)
}

func TestVerify_CriticalIsFlaggedFraud(t *testing.T) {
	v := newTestVerifier(testNow)
	recent := []domain.TransactionRecord{
		record("200", "acc-B", testNow.Add(-1*time.Minute)),
		record("200", "acc-B", testNow.Add(-2*time.Minute)),
		record("200", "acc-B", testNow.Add(-3*time.Minute)),
	}

	res := v.Verify(dec("200"), account("0"), "acc-B", recent, velocityLimits(3))

	assert.Equal(t, 100, res.RiskScore)
	assert.Equal(t, domain.RiskCritical, res.RiskLevel)
	assert.Equal(t, domain.StatusFlaggedFraud, res.Status)
	assert.True(t, res.RequiresApproval)
	assert.True(t, res.RequiresMFA)
	assertBlockedInvariant(t, res)
}

func TestVerify_MediumRiskRequiresMFA(t *testing.T) {
	v := newTestVerifier(testNow)
	recent := []domain.TransactionRecord{record("100", "acc-B", testNow.Add(-24*time.Hour))}

	// new recipient (15) + ratio 0.625 (15)
	res := v.Verify(dec("50"), account("80"), "acc-Z", recent, domain.DefaultLimits)

	assert.Equal(t, 30, res.RiskScore)
	assert.Equal(t, domain.RiskMedium, res.RiskLevel)
	assert.Equal(t, domain.StatusRequiresMFA, res.Status)
	assert.True(t, res.RequiresMFA)
	assert.False(t, res.RequiresApproval)
	assert.Equal(t, []string{"First-time recipient"}, res.Reasons)
}

func TestVerify_RejectionWinsOverZeroScore(t *testing.T) {
	v := newTestVerifier(testNow)

	res := v.Verify(dec("15000"), account("10000000"), "acc-B", nil, domain.DefaultLimits)

	assert.Equal(t, 0, res.RiskScore)
	assert.Equal(t, domain.StatusRejected, res.Status)
	assert.False(t, res.RequiresMFA)
	assert.False(t, res.RequiresApproval)
}

func TestVerify_RejectionWinsOverCriticalScore(t *testing.T) {
	v := newTestVerifier(testNow)
	recent := []domain.TransactionRecord{
		record("20000", "acc-B", testNow.Add(-1*time.Minute)),
		record("20000", "acc-B", testNow.Add(-2*time.Minute)),
		record("20000", "acc-B", testNow.Add(-3*time.Minute)),
	}

	res := v.Verify(dec("20000"), account("0"), "acc-B", recent, velocityLimits(3))

	assert.Equal(t, domain.RiskCritical, res.RiskLevel)
	assert.Equal(t, domain.StatusRejected, res.Status)
	assert.Len(t, res.BlockedReasons, 2)
	assert.NotEmpty(t, res.Reasons)
}

func TestVerify_DailyLimitOnlyCountsToday(t *testing.T) {
	v := newTestVerifier(testNow)
	recent := []domain.TransactionRecord{
		record("9000", "acc-B", testNow.Add(-26*time.Hour)),
		record("9000", "acc-B", testNow.Add(-25*time.Hour)),
		record("9000", "acc-B", testNow.Add(-30*time.Minute)),
	}

	res := v.Verify(dec("9000"), account("1000000"), "acc-B", recent, domain.DefaultLimits)
	assert.NotEqual(t, domain.StatusRejected, res.Status)

	recent = append(recent, record("9000", "acc-B", testNow.Add(-20*time.Minute)))
	res = v.Verify(dec("9000"), account("1000000"), "acc-B", recent, domain.DefaultLimits)
	assert.Equal(t, domain.StatusRejected, res.Status)
	assertBlockedInvariant(t, res)
}

func TestVerify_UnusualTimeFromClock(t *testing.T) {
	v := newTestVerifier(time.Date(2026, 3, 10, 2, 30, 0, 0, time.UTC))
	recent := []domain.TransactionRecord{record("100", "acc-B", testNow.Add(-30*time.Hour))}

	res := v.Verify(dec("100"), account("10000"), "acc-B", recent, domain.DefaultLimits)

	assert.Equal(t, 10, res.RiskScore)
	assert.Equal(t, []string{"Transaction at unusual time"}, res.Reasons)
	assert.Equal(t, domain.StatusApproved, res.Status)
}

func TestVerify_PeriodLimitsOptIn(t *testing.T) {
	recent := []domain.TransactionRecord{
		record("20000", "acc-B", testNow.Add(-24*time.Hour)),
		record("20000", "acc-B", testNow.Add(-20*time.Hour)),
	}
	limits := domain.DefaultLimits
	limits.WeeklyTransactionLimit = dec("45000")

	res := newTestVerifier(testNow).Verify(dec("6000"), account("1000000"), "acc-B", recent, limits)
	assert.NotEqual(t, domain.StatusRejected, res.Status)

	cfg := DefaultVerifierConfig()
	cfg.EnforcePeriodLimits = true
	res = NewVerifier(cfg, fixedClock(testNow)).Verify(dec("6000"), account("1000000"), "acc-B", recent, limits)
	assert.Equal(t, domain.StatusRejected, res.Status)
	require.Len(t, res.BlockedReasons, 1)
	assert.Contains(t, res.BlockedReasons[0], "Weekly")
}

func TestVerify_BlockedReasonsOmittedFromJSONWhenEmpty(t *testing.T) {
	res := newTestVerifier(testNow).Verify(dec("10"), account("1000"), "acc-B", nil, domain.DefaultLimits)

	raw, err := json.Marshal(res)
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "blockedReasons")
	assert.Contains(t, string(raw), `"reasons":[]`)
}

func TestVerify_ConcurrentCallsAreIndependent(t *testing.T) {
	v := newTestVerifier(testNow)
	recent := []domain.TransactionRecord{
		record("200", "acc-B", testNow.Add(-1*time.Minute)),
		record("200", "acc-B", testNow.Add(-2*time.Minute)),
		record("200", "acc-B", testNow.Add(-3*time.Minute)),
	}
	want := v.Verify(dec("200"), account("10000"), "acc-B", recent, velocityLimits(3))

	var wg sync.WaitGroup
	results := make([]domain.TransactionVerification, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = v.Verify(dec("200"), account("10000"), "acc-B", recent, velocityLimits(3))
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

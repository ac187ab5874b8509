package risk

import (
	"testing"
	"time"
	"txguard/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckSingleTransactionLimit_ExceedsLimit(t *testing.T) {
	res := CheckSingleTransactionLimit(dec("15000"), domain.DefaultLimits)

	require.False(t, res.Passed)
	assert.Contains(t, res.Message, "15000.00")
	assert.Contains(t, res.Message, "10000.00")
}

func TestCheckSingleTransactionLimit_AtLimitPasses(t *testing.T) {
	res := CheckSingleTransactionLimit(dec("10000"), domain.DefaultLimits)

	assert.True(t, res.Passed)
	assert.Empty(t, res.Message)
}

func TestCheckSingleTransactionLimit_MonotonicBlocking(t *testing.T) {
	amounts := []string{"1", "9999.99", "10000", "10000.01", "10500", "20000", "1000000"}
	blocked := false
	for _, a := range amounts {
		res := CheckSingleTransactionLimit(dec(a), domain.DefaultLimits)
		if blocked {
			assert.False(t, res.Passed, "amount %s passed after a smaller amount was blocked", a)
		}
		if !res.Passed {
			blocked = true
		}
	}
	assert.True(t, blocked)
}

func TestCheckDailyLimits_AmountExceeded(t *testing.T) {
	today := []domain.TransactionRecord{
		record("12000", "acc-B", testNow.Add(-2*time.Hour)),
		record("8000", "acc-C", testNow.Add(-1*time.Hour)),
	}

	res := CheckDailyLimits(dec("6000"), today, domain.DefaultLimits)

	require.False(t, res.Passed)
	assert.Contains(t, res.Message, "26000.00")
	assert.Contains(t, res.Message, "25000.00")
}

func TestCheckDailyLimits_ExactlyAtLimitPasses(t *testing.T) {
	today := []domain.TransactionRecord{record("20000", "acc-B", testNow.Add(-time.Hour))}

	res := CheckDailyLimits(dec("5000"), today, domain.DefaultLimits)

	assert.True(t, res.Passed)
}

func TestCheckDailyLimits_CountReached(t *testing.T) {
	limits := domain.DefaultLimits
	limits.DailyTransactionCount = 2
	today := []domain.TransactionRecord{
		record("10", "acc-B", testNow.Add(-2*time.Hour)),
		record("10", "acc-B", testNow.Add(-1*time.Hour)),
	}

	res := CheckDailyLimits(dec("10"), today, limits)

	require.False(t, res.Passed)
	assert.Contains(t, res.Message, "2 of 2")
}

func TestCheckDailyLimits_AmountReportedBeforeCount(t *testing.T) {
	limits := domain.DefaultLimits
	limits.DailyTransactionCount = 1
	today := []domain.TransactionRecord{record("24000", "acc-B", testNow.Add(-time.Hour))}

	res := CheckDailyLimits(dec("2000"), today, limits)

	require.False(t, res.Passed)
	assert.Contains(t, res.Message, "Daily transaction limit exceeded")
	assert.NotContains(t, res.Message, "count")
}

func TestCheckPeriodLimits(t *testing.T) {
	limits := domain.DefaultLimits

	tests := []struct {
		name     string
		amount   decimal.Decimal
		week     []domain.TransactionRecord
		month    []domain.TransactionRecord
		passed   bool
		contains string
	}{
		{
			name:   "within both",
			amount: dec("1000"),
			week:   []domain.TransactionRecord{record("5000", "acc-B", testNow)},
			month:  []domain.TransactionRecord{record("5000", "acc-B", testNow)},
			passed: true,
		},
		{
			name:     "weekly exceeded",
			amount:   dec("2000"),
			week:     []domain.TransactionRecord{record("99000", "acc-B", testNow)},
			month:    []domain.TransactionRecord{record("99000", "acc-B", testNow)},
			contains: "Weekly",
		},
		{
			name:     "monthly exceeded",
			amount:   dec("2000"),
			week:     nil,
			month:    []domain.TransactionRecord{record("249000", "acc-B", testNow)},
			contains: "Monthly",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := CheckPeriodLimits(tt.amount, tt.week, tt.month, limits)

			assert.Equal(t, tt.passed, res.Passed)
			if tt.contains != "" {
				assert.Contains(t, res.Message, tt.contains)
			}
		})
	}
}

func TestFilterToday_UsesLocalMidnightBounds(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, loc)
	txs := []domain.TransactionRecord{
		record("1", "acc-B", time.Date(2026, 3, 9, 23, 59, 59, 0, loc)),
		record("2", "acc-B", time.Date(2026, 3, 10, 0, 0, 0, 0, loc)),
		record("3", "acc-B", time.Date(2026, 3, 10, 23, 59, 59, 0, loc)),
		record("4", "acc-B", time.Date(2026, 3, 11, 0, 0, 0, 0, loc)),
	}

	today := FilterToday(txs, now)

	require.Len(t, today, 2)
	assert.True(t, today[0].Amount.Equal(dec("2")))
	assert.True(t, today[1].Amount.Equal(dec("3")))
}

func TestWeekWindow_StartsOnMonday(t *testing.T) {
	start, end := WeekWindow(testNow)
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), end)

	sunday := time.Date(2026, 3, 15, 22, 0, 0, 0, time.UTC)
	start, _ = WeekWindow(sunday)
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), start)
}

func TestMonthWindow(t *testing.T) {
	start, end := MonthWindow(testNow)

	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), end)
}

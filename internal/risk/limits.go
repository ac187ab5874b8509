package risk

import (
	"fmt"
	"time"
	"txguard/internal/domain"

	"github.com/shopspring/decimal"
)

// CheckResult is the outcome of a single limit check. Message is set only
// when the check fails.
type CheckResult struct {
	Passed  bool   `json:"passed"`
	Message string `json:"message,omitempty"`
}

func pass() CheckResult {
	return CheckResult{Passed: true}
}

func fail(format string, args ...interface{}) CheckResult {
	return CheckResult{Passed: false, Message: fmt.Sprintf(format, args...)}
}

func CheckSingleTransactionLimit(amount decimal.Decimal, limits domain.TransactionLimits) CheckResult {
	if amount.GreaterThan(limits.MaxSingleTransaction) {
		return fail("Transaction amount $%s exceeds maximum single transaction limit of $%s",
			amount.StringFixed(2), limits.MaxSingleTransaction.StringFixed(2))
	}
	return pass()
}

// CheckDailyLimits evaluates the candidate amount against transactions that
// already fall inside today's window. The amount check wins over the count
// check when both would fail.
func CheckDailyLimits(amount decimal.Decimal, todayTransactions []domain.TransactionRecord, limits domain.TransactionLimits) CheckResult {
	todayTotal := sumAmounts(todayTransactions)

	projected := todayTotal.Add(amount)
	if projected.GreaterThan(limits.DailyTransactionLimit) {
		return fail("Daily transaction limit exceeded: $%s of $%s",
			projected.StringFixed(2), limits.DailyTransactionLimit.StringFixed(2))
	}

	if len(todayTransactions) >= limits.DailyTransactionCount {
		return fail("Daily transaction count limit reached: %d of %d",
			len(todayTransactions), limits.DailyTransactionCount)
	}

	return pass()
}

// CheckPeriodLimits applies the weekly and monthly totals. It is not part of
// the default verification flow; see VerifierConfig.EnforcePeriodLimits.
func CheckPeriodLimits(amount decimal.Decimal, weekTransactions, monthTransactions []domain.TransactionRecord, limits domain.TransactionLimits) CheckResult {
	weekly := sumAmounts(weekTransactions).Add(amount)
	if weekly.GreaterThan(limits.WeeklyTransactionLimit) {
		return fail("Weekly transaction limit exceeded: $%s of $%s",
			weekly.StringFixed(2), limits.WeeklyTransactionLimit.StringFixed(2))
	}

	monthly := sumAmounts(monthTransactions).Add(amount)
	if monthly.GreaterThan(limits.MonthlyTransactionLimit) {
		return fail("Monthly transaction limit exceeded: $%s of $%s",
			monthly.StringFixed(2), limits.MonthlyTransactionLimit.StringFixed(2))
	}

	return pass()
}

// TodayWindow returns local midnight-to-midnight around now, in now's location.
func TodayWindow(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 1)
}

// WeekWindow starts on Monday 00:00 local time.
func WeekWindow(now time.Time) (time.Time, time.Time) {
	dayStart, _ := TodayWindow(now)
	offset := (int(now.Weekday()) + 6) % 7
	start := dayStart.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 7)
}

func MonthWindow(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 1, 0)
}

// FilterWindow keeps records created in [start, end).
func FilterWindow(transactions []domain.TransactionRecord, start, end time.Time) []domain.TransactionRecord {
	result := make([]domain.TransactionRecord, 0, len(transactions))
	for _, tx := range transactions {
		if !tx.CreatedAt.Before(start) && tx.CreatedAt.Before(end) {
			result = append(result, tx)
		}
	}
	return result
}

func FilterToday(transactions []domain.TransactionRecord, now time.Time) []domain.TransactionRecord {
	start, end := TodayWindow(now)
	return FilterWindow(transactions, start, end)
}

func sumAmounts(transactions []domain.TransactionRecord) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range transactions {
		total = total.Add(tx.Amount)
	}
	return total
}

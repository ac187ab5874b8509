// Package risk decides, for a single money-movement request, whether it is
// approved, needs a second factor, needs manual approval, is flagged as
// fraud, or is rejected outright.
//
// Everything in this package is a pure function of its inputs and an
// injected clock. Callers supply a consistent snapshot of the account and its
// recent history; the package performs no I/O and holds no shared state.
package risk

import (
	"time"
	"txguard/internal/domain"

	"github.com/shopspring/decimal"
)

type VerifierConfig struct {
	Detector DetectorConfig

	// Low-risk transfers above this amount still require MFA.
	MFAAmountThreshold decimal.Decimal

	// EnforcePeriodLimits adds the weekly and monthly totals to the blocking
	// checks. Off by default, so only single and daily limits block.
	EnforcePeriodLimits bool
}

func DefaultVerifierConfig() VerifierConfig {
	return VerifierConfig{
		Detector:           DefaultDetectorConfig(),
		MFAAmountThreshold: decimal.NewFromInt(1000),
	}
}

type Verifier struct {
	cfg      VerifierConfig
	detector *FraudDetector
	now      func() time.Time
}

type Option func(*Verifier)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		v.now = now
	}
}

func NewVerifier(cfg VerifierConfig, opts ...Option) *Verifier {
	v := &Verifier{
		cfg:      cfg,
		detector: NewFraudDetector(cfg.Detector),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Verifier) Detector() *FraudDetector {
	return v.detector
}

func (v *Verifier) Now() time.Time {
	return v.now()
}

// Verify evaluates the request against the clock's current time.
func (v *Verifier) Verify(
	amount decimal.Decimal,
	fromAccount domain.Account,
	toAccountID string,
	recent []domain.TransactionRecord,
	limits domain.TransactionLimits,
) domain.TransactionVerification {
	return v.VerifyAt(v.now(), amount, fromAccount, toAccountID, recent, limits)
}

// VerifyAt evaluates the request at a fixed instant. Limit violations always
// reject, regardless of the risk score.
func (v *Verifier) VerifyAt(
	now time.Time,
	amount decimal.Decimal,
	fromAccount domain.Account,
	toAccountID string,
	recent []domain.TransactionRecord,
	limits domain.TransactionLimits,
) domain.TransactionVerification {
	var blocked []string

	if res := CheckSingleTransactionLimit(amount, limits); !res.Passed {
		blocked = append(blocked, res.Message)
	}

	if res := CheckDailyLimits(amount, FilterToday(recent, now), limits); !res.Passed {
		blocked = append(blocked, res.Message)
	}

	if v.cfg.EnforcePeriodLimits {
		weekStart, weekEnd := WeekWindow(now)
		monthStart, monthEnd := MonthWindow(now)
		res := CheckPeriodLimits(amount,
			FilterWindow(recent, weekStart, weekEnd),
			FilterWindow(recent, monthStart, monthEnd),
			limits)
		if !res.Passed {
			blocked = append(blocked, res.Message)
		}
	}

	flags := v.detector.DetectFraudFlags(amount, toAccountID, recent, limits, now)
	score := CalculateRiskScore(amount, fromAccount, flags)

	result := domain.TransactionVerification{
		RiskScore: score,
		RiskLevel: GetRiskLevel(score),
		Reasons:   FlagReasons(flags),
	}

	switch {
	case len(blocked) > 0:
		result.Status = domain.StatusRejected
		result.BlockedReasons = blocked
	case result.RiskLevel == domain.RiskCritical:
		result.Status = domain.StatusFlaggedFraud
		result.RequiresApproval = true
		result.RequiresMFA = true
	case result.RiskLevel == domain.RiskHigh:
		result.Status = domain.StatusRequiresApproval
		result.RequiresApproval = true
		result.RequiresMFA = true
	case result.RiskLevel == domain.RiskMedium:
		result.Status = domain.StatusRequiresMFA
		result.RequiresMFA = true
	case amount.GreaterThan(v.cfg.MFAAmountThreshold):
		result.Status = domain.StatusRequiresMFA
		result.RequiresMFA = true
	default:
		result.Status = domain.StatusApproved
	}

	return result
}

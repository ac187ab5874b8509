package risk

import (
	"time"
	"txguard/internal/domain"

	"github.com/shopspring/decimal"
)

// DetectorConfig holds the tunable heuristics of the fraud detector.
// UnusualHourStart is inclusive and UnusualHourEnd exclusive.
type DetectorConfig struct {
	UnusualHourStart  int
	UnusualHourEnd    int
	AmountMultiplier  decimal.Decimal
	PatternTolerance  decimal.Decimal
	PatternMinMatches int
}

func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		UnusualHourStart:  1,
		UnusualHourEnd:    5,
		AmountMultiplier:  decimal.NewFromInt(3),
		PatternTolerance:  decimal.RequireFromString("0.01"),
		PatternMinMatches: 3,
	}
}

type VelocityResult struct {
	Exceeded bool `json:"exceeded"`
	Count    int  `json:"count"`
}

type FraudDetector struct {
	cfg DetectorConfig
}

func NewFraudDetector(cfg DetectorConfig) *FraudDetector {
	return &FraudDetector{cfg: cfg}
}

func (fd *FraudDetector) Config() DetectorConfig {
	return fd.cfg
}

// CheckVelocity counts records younger than the velocity window.
func (fd *FraudDetector) CheckVelocity(recent []domain.TransactionRecord, limits domain.TransactionLimits, now time.Time) VelocityResult {
	window := time.Duration(limits.VelocityWindowMinutes) * time.Minute

	count := 0
	for _, tx := range recent {
		if now.Sub(tx.CreatedAt) < window {
			count++
		}
	}

	return VelocityResult{
		Exceeded: count >= limits.VelocityMaxCount,
		Count:    count,
	}
}

// DetectFraudFlags derives the behavioural signals for a candidate transfer.
// GeoAnomaly is never set: no location data reaches the core.
func (fd *FraudDetector) DetectFraudFlags(
	amount decimal.Decimal,
	toAccountID string,
	recent []domain.TransactionRecord,
	limits domain.TransactionLimits,
	now time.Time,
) domain.FraudFlags {
	return domain.FraudFlags{
		VelocityExceeded:  fd.CheckVelocity(recent, limits, now).Exceeded,
		UnusualAmount:     fd.detectUnusualAmount(amount, recent),
		UnusualTime:       fd.detectUnusualTime(now),
		UnusualRecipient:  detectNewRecipient(toAccountID, recent),
		GeoAnomaly:        false,
		SuspiciousPattern: fd.detectRepeatedAmount(amount, recent),
	}
}

// With no history the average is the amount itself, so a first transfer is
// never unusual.
func (fd *FraudDetector) detectUnusualAmount(amount decimal.Decimal, recent []domain.TransactionRecord) bool {
	avg := amount
	if len(recent) > 0 {
		avg = sumAmounts(recent).Div(decimal.NewFromInt(int64(len(recent))))
	}
	return amount.GreaterThan(avg.Mul(fd.cfg.AmountMultiplier))
}

func (fd *FraudDetector) detectUnusualTime(now time.Time) bool {
	hour := now.Hour()
	return hour >= fd.cfg.UnusualHourStart && hour < fd.cfg.UnusualHourEnd
}

// detectNewRecipient needs some history to compare against; an account with
// no recent transfers has no first-time recipients.
func detectNewRecipient(toAccountID string, recent []domain.TransactionRecord) bool {
	if len(recent) == 0 {
		return false
	}
	for _, tx := range recent {
		if tx.ToAccountID == toAccountID {
			return false
		}
	}
	return true
}

func (fd *FraudDetector) detectRepeatedAmount(amount decimal.Decimal, recent []domain.TransactionRecord) bool {
	matches := 0
	for _, tx := range recent {
		if tx.Amount.Sub(amount).Abs().LessThan(fd.cfg.PatternTolerance) {
			matches++
		}
	}
	return matches >= fd.cfg.PatternMinMatches
}

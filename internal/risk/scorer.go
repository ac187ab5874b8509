package risk

import (
	"txguard/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	maxRiskScore = 100
	minRiskScore = 0
)

var (
	ratioCritical = decimal.RequireFromString("0.9")
	ratioHigh     = decimal.RequireFromString("0.75")
	ratioElevated = decimal.RequireFromString("0.5")
)

type flagRule struct {
	Name   string
	Reason string
	Weight int
	IsSet  func(domain.FraudFlags) bool
}

// flagRules is ordered the way reasons are reported. A rule with an empty
// Reason still scores but never produces a reason.
var flagRules = []flagRule{
	{
		Name:   "velocity_exceeded",
		Reason: "High transaction velocity detected",
		Weight: 30,
		IsSet:  func(f domain.FraudFlags) bool { return f.VelocityExceeded },
	},
	{
		Name:   "unusual_amount",
		Reason: "Transaction amount significantly higher than average",
		Weight: 20,
		IsSet:  func(f domain.FraudFlags) bool { return f.UnusualAmount },
	},
	{
		Name:   "unusual_time",
		Reason: "Transaction at unusual time",
		Weight: 10,
		IsSet:  func(f domain.FraudFlags) bool { return f.UnusualTime },
	},
	{
		Name:   "unusual_recipient",
		Reason: "First-time recipient",
		Weight: 15,
		IsSet:  func(f domain.FraudFlags) bool { return f.UnusualRecipient },
	},
	{
		Name:   "geo_anomaly",
		Weight: 25,
		IsSet:  func(f domain.FraudFlags) bool { return f.GeoAnomaly },
	},
	{
		Name:   "suspicious_pattern",
		Reason: "Suspicious transaction pattern detected",
		Weight: 35,
		IsSet:  func(f domain.FraudFlags) bool { return f.SuspiciousPattern },
	},
}

// CalculateRiskScore combines the amount-to-balance ratio with the fraud
// flags. A zero balance is scored as the highest ratio tier.
func CalculateRiskScore(amount decimal.Decimal, account domain.Account, flags domain.FraudFlags) int {
	score := balanceRatioScore(amount, account.Balance)

	for _, rule := range flagRules {
		if rule.IsSet(flags) {
			score += rule.Weight
		}
	}

	return clampScore(score)
}

func balanceRatioScore(amount, balance decimal.Decimal) int {
	if !balance.IsPositive() {
		return 40
	}

	ratio := amount.Div(balance)
	switch {
	case ratio.GreaterThan(ratioCritical):
		return 40
	case ratio.GreaterThan(ratioHigh):
		return 25
	case ratio.GreaterThan(ratioElevated):
		return 15
	default:
		return 0
	}
}

func GetRiskLevel(score int) domain.RiskLevel {
	switch {
	case score >= 75:
		return domain.RiskCritical
	case score >= 50:
		return domain.RiskHigh
	case score >= 25:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

// FlagReasons lists the human-readable reason of every set flag, in report order.
func FlagReasons(flags domain.FraudFlags) []string {
	reasons := make([]string, 0, len(flagRules))
	for _, rule := range flagRules {
		if rule.Reason != "" && rule.IsSet(flags) {
			reasons = append(reasons, rule.Reason)
		}
	}
	return reasons
}

// FlagNames returns the metric-friendly names of every set flag.
func FlagNames(flags domain.FraudFlags) []string {
	names := make([]string, 0, len(flagRules))
	for _, rule := range flagRules {
		if rule.IsSet(flags) {
			names = append(names, rule.Name)
		}
	}
	return names
}

func clampScore(score int) int {
	return max(minRiskScore, min(score, maxRiskScore))
}

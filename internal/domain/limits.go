package domain

import "github.com/shopspring/decimal"

// TransactionLimits is the per-tier limit policy applied to a verification.
type TransactionLimits struct {
	MaxSingleTransaction    decimal.Decimal `json:"max_single_transaction"`
	DailyTransactionLimit   decimal.Decimal `json:"daily_transaction_limit"`
	DailyTransactionCount   int             `json:"daily_transaction_count"`
	WeeklyTransactionLimit  decimal.Decimal `json:"weekly_transaction_limit"`
	MonthlyTransactionLimit decimal.Decimal `json:"monthly_transaction_limit"`
	VelocityWindowMinutes   int             `json:"velocity_window_minutes"`
	VelocityMaxCount        int             `json:"velocity_max_count"`
}

var (
	DefaultLimits = TransactionLimits{
		MaxSingleTransaction:    decimal.NewFromInt(10000),
		DailyTransactionLimit:   decimal.NewFromInt(25000),
		DailyTransactionCount:   50,
		WeeklyTransactionLimit:  decimal.NewFromInt(100000),
		MonthlyTransactionLimit: decimal.NewFromInt(250000),
		VelocityWindowMinutes:   10,
		VelocityMaxCount:        5,
	}

	PremiumLimits = TransactionLimits{
		MaxSingleTransaction:    decimal.NewFromInt(50000),
		DailyTransactionLimit:   decimal.NewFromInt(100000),
		DailyTransactionCount:   100,
		WeeklyTransactionLimit:  decimal.NewFromInt(500000),
		MonthlyTransactionLimit: decimal.NewFromInt(1000000),
		VelocityWindowMinutes:   10,
		VelocityMaxCount:        10,
	}
)

// LimitsForTier returns the preset for the tier. Unknown tiers get the
// standard preset.
func LimitsForTier(tier AccountTier) TransactionLimits {
	if tier == TierPremium {
		return PremiumLimits
	}
	return DefaultLimits
}

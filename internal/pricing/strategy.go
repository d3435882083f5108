package pricing

import "github.com/shopspring/decimal"

// Strategy decides how the daily rate turns into a gross rental price
type Strategy string

const (
	// StrategyDaily charges the rate for every day.
	StrategyDaily Strategy = "daily"
	// StrategyWeekly charges the rate once per started week.
	StrategyWeekly Strategy = "weekly"
	// StrategyTiered charges the full rate for the first week, 80% for the
	// second and 60% after that.
	StrategyTiered Strategy = "tiered"
)

var (
	secondWeekFactor = decimal.RequireFromString("0.8")
	laterWeeksFactor = decimal.RequireFromString("0.6")
)

// IsValid checks if the strategy is known
func (s Strategy) IsValid() bool {
	switch s {
	case StrategyDaily, StrategyWeekly, StrategyTiered:
		return true
	}
	return false
}

// cost returns the unrounded gross price
func (s Strategy) cost(base decimal.Decimal, days int64) decimal.Decimal {
	switch s {
	case StrategyWeekly:
		weeks := (days + 6) / 7
		return base.Mul(decimal.NewFromInt(weeks))
	case StrategyTiered:
		first := min(days, 7)
		second := min(max(days-7, 0), 7)
		rest := max(days-14, 0)
		return base.Mul(decimal.NewFromInt(first)).
			Add(base.Mul(secondWeekFactor).Mul(decimal.NewFromInt(second))).
			Add(base.Mul(laterWeeksFactor).Mul(decimal.NewFromInt(rest)))
	default:
		return base.Mul(decimal.NewFromInt(days))
	}
}

// Package pricing computes rental prices, overdue fines, damage fees and the
// settlement of a deposit at return time. Every function is pure; the rates
// come from an injectable Table.
package pricing

import (
	"fmt"
	"time"

	"github.com/ngenohkevin/bookrent/internal/models"
	"github.com/ngenohkevin/bookrent/internal/money"
	"github.com/shopspring/decimal"
)

// TierRates derives a book's deposit and daily rental rate from its value
type TierRates struct {
	DepositRatio decimal.Decimal
	DailyRatio   decimal.Decimal
}

// Table holds every number the policy depends on
type Table struct {
	Tiers     map[models.BookTier]TierRates
	Discounts map[models.ReaderCategory]decimal.Decimal
	DailyFine money.Money
	// Damage maps a damage level to the fraction of the deposit withheld.
	Damage   map[models.DamageLevel]decimal.Decimal
	Strategy Strategy
}

// DefaultTable returns the rates used when no configuration overrides them
func DefaultTable() Table {
	return Table{
		Tiers: map[models.BookTier]TierRates{
			models.BookTierStandard: {
				DepositRatio: decimal.RequireFromString("0.50"),
				DailyRatio:   decimal.RequireFromString("0.05"),
			},
			models.BookTierPremium: {
				DepositRatio: decimal.RequireFromString("0.70"),
				DailyRatio:   decimal.RequireFromString("0.08"),
			},
		},
		Discounts: map[models.ReaderCategory]decimal.Decimal{
			models.ReaderCategoryRegular: decimal.Zero,
			models.ReaderCategoryStudent: decimal.RequireFromString("0.15"),
			models.ReaderCategorySenior:  decimal.RequireFromString("0.20"),
			models.ReaderCategoryVIP:     decimal.RequireFromString("0.25"),
		},
		DailyFine: money.MustParse("2.00"),
		Damage: map[models.DamageLevel]decimal.Decimal{
			models.DamageMinor:     decimal.RequireFromString("0.20"),
			models.DamageModerate:  decimal.RequireFromString("0.50"),
			models.DamageSevere:    decimal.RequireFromString("0.80"),
			models.DamageDestroyed: decimal.NewFromInt(1),
		},
		Strategy: StrategyDaily,
	}
}

// Validate rejects tables that would break the settlement guarantees
func (t Table) Validate() error {
	one := decimal.NewFromInt(1)

	for _, tier := range []models.BookTier{models.BookTierStandard, models.BookTierPremium} {
		rates, ok := t.Tiers[tier]
		if !ok {
			return fmt.Errorf("pricing: missing rates for tier %q", tier)
		}
		if rates.DepositRatio.IsNegative() || rates.DailyRatio.IsNegative() {
			return fmt.Errorf("pricing: negative ratio for tier %q", tier)
		}
		if rates.DepositRatio.GreaterThan(one) || rates.DailyRatio.GreaterThan(one) {
			return fmt.Errorf("pricing: ratios for tier %q cannot exceed 1", tier)
		}
	}

	for _, c := range []models.ReaderCategory{
		models.ReaderCategoryRegular, models.ReaderCategoryStudent,
		models.ReaderCategorySenior, models.ReaderCategoryVIP,
	} {
		d, ok := t.Discounts[c]
		if !ok {
			return fmt.Errorf("pricing: missing discount for category %q", c)
		}
		if d.IsNegative() || d.GreaterThan(one) {
			return fmt.Errorf("pricing: discount for %q must be within [0, 1]", c)
		}
	}

	if t.DailyFine.IsNegative() {
		return fmt.Errorf("pricing: daily fine cannot be negative")
	}

	prev := decimal.Zero
	for _, level := range models.DamageLevels {
		f, ok := t.Damage[level]
		if !ok {
			return fmt.Errorf("pricing: missing damage fraction for %q", level)
		}
		if f.LessThan(prev) || f.GreaterThan(one) {
			return fmt.Errorf("pricing: damage fractions must rise with severity and stay within [0, 1], got %s for %q", f, level)
		}
		prev = f
	}

	if !t.Strategy.IsValid() {
		return fmt.Errorf("pricing: unknown strategy %q", t.Strategy)
	}
	return nil
}

// Policy applies a validated Table
type Policy struct {
	table Table
}

// NewPolicy validates the table and returns a policy backed by it
func NewPolicy(table Table) (*Policy, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &Policy{table: table}, nil
}

// MustPolicy is NewPolicy for tests and package defaults
func MustPolicy(table Table) *Policy {
	p, err := NewPolicy(table)
	if err != nil {
		panic(err)
	}
	return p
}

// Table returns the rates in use.
func (p *Policy) Table() Table {
	return p.table
}

// BookCosts derives the deposit and daily rental rate of a new book
func (p *Policy) BookCosts(value money.Money, tier models.BookTier) (deposit, daily money.Money) {
	rates, ok := p.table.Tiers[tier]
	if !ok {
		rates = p.table.Tiers[models.BookTierStandard]
	}
	return value.MulRate(rates.DepositRatio), value.MulRate(rates.DailyRatio)
}

// Discount returns the fraction taken off the rental price for a category
func (p *Policy) Discount(category models.ReaderCategory) decimal.Decimal {
	return p.table.Discounts[category]
}

// RentalPrice is the discounted price of renting for the given days, rounded
// once, half-to-even, after the discount is applied.
func (p *Policy) RentalPrice(base money.Money, days int32, category models.ReaderCategory) money.Money {
	if days < 1 {
		return money.Zero
	}
	gross := p.table.Strategy.cost(base.Decimal(), int64(days))
	net := gross.Mul(decimal.NewFromInt(1).Sub(p.Discount(category)))
	return money.FromDecimal(net)
}

// OverdueFine charges the table's daily fine for each started day late
func (p *Policy) OverdueFine(expected, returnedAt time.Time) money.Money {
	return OverdueFine(expected, returnedAt, p.table.DailyFine)
}

// OverdueFine is dailyRate times the started days between expected and
// returnedAt, zero when returned on time.
func OverdueFine(expected, returnedAt time.Time, dailyRate money.Money) money.Money {
	days := models.DaysLate(expected, returnedAt)
	if days == 0 {
		return money.Zero
	}
	return dailyRate.MulInt(int64(days))
}

// DamageFee is the share of the deposit withheld for the reported damage.
// A nil level means the copy came back intact.
func (p *Policy) DamageFee(deposit money.Money, level *models.DamageLevel) money.Money {
	if level == nil || deposit.IsNegative() {
		return money.Zero
	}
	fraction, ok := p.table.Damage[*level]
	if !ok {
		return money.Zero
	}
	return money.Min(deposit.MulRate(fraction), deposit)
}

// Settle splits the deposit of r returned at returnedAt. The overdue fine is
// taken first, then the damage fee, each limited to what remains, so the
// three parts always add up to the deposit.
func (p *Policy) Settle(r *models.Rental, level *models.DamageLevel, returnedAt time.Time) models.Settlement {
	deposit := r.DepositPaid

	fine := money.Min(p.OverdueFine(r.ExpectedReturnDate, returnedAt), deposit)
	remaining := deposit.Sub(fine)

	fee := money.Min(p.DamageFee(deposit, level), remaining)
	refund := remaining.Sub(fee)

	return models.Settlement{
		RefundToReader: refund,
		FineAmount:     fine,
		FeeAmount:      fee,
		DaysLate:       models.DaysLate(r.ExpectedReturnDate, returnedAt),
	}
}

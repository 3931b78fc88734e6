package types

import (
	"time"

	ierr "github.com/academypay/academypay/internal/errors"
	"github.com/samber/lo"
)

// BillingPeriod is the recurring charge cadence a buyer selects at checkout.
type BillingPeriod string

const (
	BillingPeriodMonth   BillingPeriod = "MONTH"
	BillingPeriodQuarter BillingPeriod = "QUARTER"
	BillingPeriodHalf    BillingPeriod = "HALF"
	BillingPeriodYear    BillingPeriod = "YEAR"
)

func (p BillingPeriod) String() string {
	return string(p)
}

func (p BillingPeriod) Validate() error {
	allowed := []BillingPeriod{
		BillingPeriodMonth,
		BillingPeriodQuarter,
		BillingPeriodHalf,
		BillingPeriodYear,
	}
	if !lo.Contains(allowed, p) {
		return ierr.NewError("invalid billing period").
			WithHint("Invalid billing period").
			WithReportableDetails(map[string]any{
				"period":          p,
				"allowed_periods": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Months returns the period length in calendar months.
func (p BillingPeriod) Months() int {
	switch p {
	case BillingPeriodQuarter:
		return 3
	case BillingPeriodHalf:
		return 6
	case BillingPeriodYear:
		return 12
	default:
		return 1
	}
}

// NextPayment advances a payment anchor by one billing period.
func (p BillingPeriod) NextPayment(from time.Time) time.Time {
	return from.AddDate(0, p.Months(), 0)
}

// DurationUnit is the unit for renewal cadences and trial durations.
type DurationUnit string

const (
	DurationUnitDay   DurationUnit = "DAY"
	DurationUnitWeek  DurationUnit = "WEEK"
	DurationUnitMonth DurationUnit = "MONTH"
	DurationUnitYear  DurationUnit = "YEAR"
)

func (u DurationUnit) String() string {
	return string(u)
}

func (u DurationUnit) Validate() error {
	allowed := []DurationUnit{
		DurationUnitDay,
		DurationUnitWeek,
		DurationUnitMonth,
		DurationUnitYear,
	}
	if !lo.Contains(allowed, u) {
		return ierr.NewError("invalid duration unit").
			WithHint("Invalid duration unit").
			WithReportableDetails(map[string]any{
				"unit":          u,
				"allowed_units": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Add advances a time by n units.
func (u DurationUnit) Add(from time.Time, n int) time.Time {
	switch u {
	case DurationUnitDay:
		return from.AddDate(0, 0, n)
	case DurationUnitWeek:
		return from.AddDate(0, 0, 7*n)
	case DurationUnitMonth:
		return from.AddDate(0, n, 0)
	case DurationUnitYear:
		return from.AddDate(n, 0, 0)
	default:
		return from
	}
}

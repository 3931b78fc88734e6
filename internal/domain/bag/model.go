package bag

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	ierr "github.com/academypay/academypay/internal/errors"
	"github.com/academypay/academypay/internal/types"
)

// LineItem is one service-item add-on in the bag with its requested quantity.
type LineItem struct {
	ServiceItemID string `db:"service_item_id" json:"service_item_id"`
	HowMany       int64  `db:"how_many" json:"how_many"`
}

// Bag is a checkout intent: mutable while CHECKING, frozen once delivered.
type Bag struct {
	ID     string          `db:"id" json:"id"`
	UserID string          `db:"user_id" json:"user_id"`
	Status types.BagStatus `db:"status" json:"status"`

	ChosenPeriod types.BillingPeriod `db:"chosen_period" json:"chosen_period"`
	// HowManyInstallments is the selected financing schedule; 0 means the
	// purchase is a recurring subscription, not a financing.
	HowManyInstallments int `db:"how_many_installments" json:"how_many_installments"`

	CountryCode  string `db:"country_code" json:"country_code"`
	CurrencyCode string `db:"currency_code" json:"currency_code"`

	PlanIDs   []string   `json:"plan_ids"`
	LineItems []LineItem `json:"line_items"`
	Seats     int        `db:"seats" json:"seats"`
	CouponIDs []string   `json:"coupon_ids"`

	Resource types.ResourceSelection `json:"resource"`

	// Net price per billing period, computed by the bag builder. Unrounded;
	// rounding happens only at the charge boundary.
	AmountPerMonth   decimal.Decimal `db:"amount_per_month" json:"amount_per_month"`
	AmountPerQuarter decimal.Decimal `db:"amount_per_quarter" json:"amount_per_quarter"`
	AmountPerHalf    decimal.Decimal `db:"amount_per_half" json:"amount_per_half"`
	AmountPerYear    decimal.Decimal `db:"amount_per_year" json:"amount_per_year"`

	// ChargeNow is the outcome of the charge-now decision for the attached plan
	ChargeNow bool `db:"charge_now" json:"charge_now"`

	WasDelivered bool `db:"was_delivered" json:"was_delivered"`

	types.BaseModel
}

// AmountForPeriod returns the computed net amount for a billing period.
func (b *Bag) AmountForPeriod(period types.BillingPeriod) decimal.Decimal {
	switch period {
	case types.BillingPeriodQuarter:
		return b.AmountPerQuarter
	case types.BillingPeriodHalf:
		return b.AmountPerHalf
	case types.BillingPeriodYear:
		return b.AmountPerYear
	default:
		return b.AmountPerMonth
	}
}

// SetAmountForPeriod stores the computed net amount for a billing period.
func (b *Bag) SetAmountForPeriod(period types.BillingPeriod, amount decimal.Decimal) {
	switch period {
	case types.BillingPeriodQuarter:
		b.AmountPerQuarter = amount
	case types.BillingPeriodHalf:
		b.AmountPerHalf = amount
	case types.BillingPeriodYear:
		b.AmountPerYear = amount
	default:
		b.AmountPerMonth = amount
	}
}

// HasLineItem reports whether a service item is already attached.
func (b *Bag) HasLineItem(serviceItemID string) bool {
	return lo.ContainsBy(b.LineItems, func(li LineItem) bool {
		return li.ServiceItemID == serviceItemID
	})
}

// RemoveLineItem detaches a service item from the bag.
func (b *Bag) RemoveLineItem(serviceItemID string) {
	b.LineItems = lo.Reject(b.LineItems, func(li LineItem, _ int) bool {
		return li.ServiceItemID == serviceItemID
	})
}

// Reset clears previously attached plans, items, seats and coupons. Used
// when an exploratory CHECKING request starts over.
func (b *Bag) Reset() {
	b.PlanIDs = nil
	b.LineItems = nil
	b.CouponIDs = nil
	b.Seats = 0
	b.AmountPerMonth = decimal.Zero
	b.AmountPerQuarter = decimal.Zero
	b.AmountPerHalf = decimal.Zero
	b.AmountPerYear = decimal.Zero
}

// Validate enforces the bag invariants that hold at every step of the
// builder: one plan at most, and immutability after delivery.
func (b *Bag) Validate() error {
	if err := b.Status.Validate(); err != nil {
		return err
	}
	if len(b.PlanIDs) > 1 {
		return ierr.NewError("more than one plan in bag").
			WithHint("A bag can hold a single plan").
			WithReportableDetails(map[string]any{"plan_ids": b.PlanIDs}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

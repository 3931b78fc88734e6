package plan

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	ierr "github.com/academypay/academypay/internal/errors"
	"github.com/academypay/academypay/internal/types"
)

// FinancingOption is one installment schedule a plan can be bought under.
type FinancingOption struct {
	MonthsToPay  int             `db:"months_to_pay" json:"months_to_pay"`
	MonthlyPrice decimal.Decimal `db:"monthly_price" json:"monthly_price"`
}

// PricingOverride is a per-country pricing exception on a plan or service:
// either a direct price replacing the base, or a ratio multiplying it,
// optionally with a currency override.
type PricingOverride struct {
	CountryCode  string           `db:"country_code" json:"country_code"`
	Price        *decimal.Decimal `db:"price" json:"price,omitempty"`
	Ratio        *decimal.Decimal `db:"ratio" json:"ratio,omitempty"`
	CurrencyCode *string          `db:"currency_code" json:"currency_code,omitempty"`
}

// AddOn is a catalog entry allowing a service item to be purchased together
// with the plan, up to MaxQuantity units per transaction.
type AddOn struct {
	ServiceItemID string `db:"service_item_id" json:"service_item_id"`
	MaxQuantity   int64  `db:"max_quantity" json:"max_quantity"`
}

// Plan is a sellable bundle of service items.
type Plan struct {
	ID   string `db:"id" json:"id"`
	Slug string `db:"slug" json:"slug"`
	Name string `db:"name" json:"name"`

	// Renewable plans produce subscriptions; non-renewable ones are sold
	// through financing options and produce plan financings.
	Renewable bool `db:"renewable" json:"renewable"`

	// Per-period prices. A zero price means the period is not offered.
	PriceMonthly   decimal.Decimal `db:"price_monthly" json:"price_monthly"`
	PriceQuarterly decimal.Decimal `db:"price_quarterly" json:"price_quarterly"`
	PriceHalf      decimal.Decimal `db:"price_half" json:"price_half"`
	PriceYearly    decimal.Decimal `db:"price_yearly" json:"price_yearly"`
	CurrencyCode   string          `db:"currency_code" json:"currency_code"`

	TrialDuration     int                `db:"trial_duration" json:"trial_duration"`
	TrialDurationUnit types.DurationUnit `db:"trial_duration_unit" json:"trial_duration_unit"`

	// TimeOfLife bounds a plan financing's total life
	TimeOfLife     int                `db:"time_of_life" json:"time_of_life"`
	TimeOfLifeUnit types.DurationUnit `db:"time_of_life_unit" json:"time_of_life_unit"`

	SupportsSeats bool `db:"supports_seats" json:"supports_seats"`

	FinancingOptions []FinancingOption `json:"financing_options"`
	AddOns           []AddOn           `json:"add_ons"`
	// ServiceItemIDs are the items every buyer of the plan is entitled to
	ServiceItemIDs   []string          `json:"service_item_ids"`
	PricingOverrides []PricingOverride `json:"pricing_overrides"`

	// Default resource selections inherited by billing entities that do not
	// pick one themselves, keyed by kind.
	CohortSetID            *string `db:"cohort_set_id" json:"cohort_set_id,omitempty"`
	MentorshipServiceSetID *string `db:"mentorship_service_set_id" json:"mentorship_service_set_id,omitempty"`
	EventTypeSetID         *string `db:"event_type_set_id" json:"event_type_set_id,omitempty"`

	types.BaseModel
}

// PriceForPeriod returns the plan's base price for a billing period.
func (p *Plan) PriceForPeriod(period types.BillingPeriod) decimal.Decimal {
	switch period {
	case types.BillingPeriodQuarter:
		return p.PriceQuarterly
	case types.BillingPeriodHalf:
		return p.PriceHalf
	case types.BillingPeriodYear:
		return p.PriceYearly
	default:
		return p.PriceMonthly
	}
}

// HasAnyPrice reports whether any billing period carries a non-zero price.
func (p *Plan) HasAnyPrice() bool {
	return p.PriceMonthly.IsPositive() ||
		p.PriceQuarterly.IsPositive() ||
		p.PriceHalf.IsPositive() ||
		p.PriceYearly.IsPositive()
}

// HasFinancing reports whether the plan offers installment purchase.
func (p *Plan) HasFinancing() bool {
	return len(p.FinancingOptions) > 0
}

// HasTrial reports whether the plan offers a free trial.
func (p *Plan) HasTrial() bool {
	return p.TrialDuration > 0
}

// IsFree reports whether the plan has no paid path at all.
func (p *Plan) IsFree() bool {
	return !p.HasAnyPrice() && !p.HasFinancing()
}

// FinancingFor returns the financing option matching an installment count.
func (p *Plan) FinancingFor(monthsToPay int) (FinancingOption, bool) {
	return lo.Find(p.FinancingOptions, func(o FinancingOption) bool {
		return o.MonthsToPay == monthsToPay
	})
}

// AddOnFor returns the catalog entry for a service item, if the plan sells it
// as an add-on.
func (p *Plan) AddOnFor(serviceItemID string) (AddOn, bool) {
	return lo.Find(p.AddOns, func(a AddOn) bool {
		return a.ServiceItemID == serviceItemID
	})
}

// DefaultResourceID returns the plan's default selection for a resource kind.
func (p *Plan) DefaultResourceID(kind types.ResourceKind) *string {
	switch kind {
	case types.ResourceKindCohortSet:
		return p.CohortSetID
	case types.ResourceKindMentorshipServiceSet:
		return p.MentorshipServiceSetID
	case types.ResourceKindEventTypeSet:
		return p.EventTypeSetID
	default:
		return nil
	}
}

// Validate checks the plan is purchasable: it must offer a price, a
// financing option, or a free trial.
func (p *Plan) Validate() error {
	if !p.HasAnyPrice() && !p.HasFinancing() && !p.HasTrial() {
		return ierr.NewError("plan is not purchasable").
			WithHint("Plan offers no price, financing option or free trial").
			WithReportableDetails(map[string]any{"plan": p.Slug}).
			Mark(ierr.ErrValidation)
	}
	if p.HasAnyPrice() && p.CurrencyCode == "" {
		return ierr.NewError("priced plan is missing a currency").
			WithHint("Plan has a price but no currency code").
			WithReportableDetails(map[string]any{"plan": p.Slug}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

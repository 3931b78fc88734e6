// Package pricing computes prices for plans and services: country
// adjustments first, then coupon discounting. Everything here is pure; the
// only I/O is behind the RatioSource interface.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/academypay/academypay/internal/domain/coupon"
	"github.com/academypay/academypay/internal/domain/plan"
	"github.com/academypay/academypay/internal/types"
)

// CountryRatio is one row of the global per-country pricing-ratio table
// (purchasing-power adjustment).
type CountryRatio struct {
	Ratio        decimal.Decimal `db:"ratio" json:"ratio"`
	CurrencyCode *string         `db:"currency_code" json:"currency_code,omitempty"`
}

// Result is the outcome of a price computation.
type Result struct {
	Price decimal.Decimal
	// Ratio is the applied country multiplier, nil when a direct price
	// override or the base price was used
	Ratio *decimal.Decimal
	// CurrencyCode overrides the object's currency when set
	CurrencyCode *string
}

// Price resolves the final base price for a country. Resolution order: a
// direct per-country price on the object wins, then a per-country ratio on
// the object, then the global ratio table, then the base price unchanged.
func Price(base decimal.Decimal, countryCode string, overrides []plan.PricingOverride, general map[string]CountryRatio) Result {
	for _, o := range overrides {
		if o.CountryCode != countryCode {
			continue
		}
		if o.Price != nil {
			return Result{Price: *o.Price, CurrencyCode: o.CurrencyCode}
		}
		if o.Ratio != nil {
			return Result{
				Price:        base.Mul(*o.Ratio),
				Ratio:        o.Ratio,
				CurrencyCode: o.CurrencyCode,
			}
		}
	}

	if r, ok := general[countryCode]; ok {
		ratio := r.Ratio
		return Result{
			Price:        base.Mul(ratio),
			Ratio:        &ratio,
			CurrencyCode: r.CurrencyCode,
		}
	}

	return Result{Price: base}
}

// Discount applies a coupon set to a price: percent-off coupons compose
// multiplicatively first, each off the running price, then fixed-amount
// coupons subtract. The result is clamped at zero and never rounded here;
// rounding belongs to the charge boundary.
func Discount(price decimal.Decimal, coupons []*coupon.Coupon) decimal.Decimal {
	result := price

	for _, c := range coupons {
		if c.DiscountType != types.CouponDiscountPercentOff {
			continue
		}
		factor := decimal.NewFromInt(1).Sub(c.DiscountValue.Div(decimal.NewFromInt(100)))
		result = result.Mul(factor)
	}

	for _, c := range coupons {
		if c.DiscountType != types.CouponDiscountFixedPrice {
			continue
		}
		result = result.Sub(c.DiscountValue)
	}

	if result.IsNegative() {
		return decimal.Zero
	}
	return result
}

// ChargeAmount rounds a net price up to the nearest integer currency unit.
// This is the only place money is rounded.
func ChargeAmount(price decimal.Decimal) decimal.Decimal {
	return price.Ceil()
}

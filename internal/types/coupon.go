package types

import (
	ierr "github.com/academypay/academypay/internal/errors"
	"github.com/samber/lo"
)

// CouponDiscountType is the discount semantics of a coupon.
type CouponDiscountType string

const (
	CouponDiscountPercentOff CouponDiscountType = "PERCENT_OFF"
	CouponDiscountFixedPrice CouponDiscountType = "FIXED_PRICE"
	CouponDiscountNone       CouponDiscountType = "NO_DISCOUNT"
)

func (t CouponDiscountType) String() string {
	return string(t)
}

func (t CouponDiscountType) Validate() error {
	allowed := []CouponDiscountType{
		CouponDiscountPercentOff,
		CouponDiscountFixedPrice,
		CouponDiscountNone,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid coupon discount type").
			WithHint("Invalid coupon discount type").
			WithReportableDetails(map[string]any{
				"discount_type": t,
				"allowed_types": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

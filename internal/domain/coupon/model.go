package coupon

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/academypay/academypay/internal/types"
)

// Coupon is a discount or referral instrument.
type Coupon struct {
	ID   string `db:"id" json:"id"`
	Slug string `db:"slug" json:"slug"`

	DiscountType types.CouponDiscountType `db:"discount_type" json:"discount_type"`
	// DiscountValue is a percentage in [0,100] for PERCENT_OFF and an
	// absolute amount for FIXED_PRICE
	DiscountValue decimal.Decimal `db:"discount_value" json:"discount_value"`

	// UsageCap limits how many fulfilled invoices may redeem the coupon;
	// nil means uncapped. Enforced by counting, not by a mutable counter.
	UsageCap *int `db:"usage_cap" json:"usage_cap,omitempty"`

	OfferedAt *time.Time `db:"offered_at" json:"offered_at,omitempty"`
	ExpiresAt *time.Time `db:"expires_at" json:"expires_at,omitempty"`

	// AllowedUserID restricts redemption to one user when set
	AllowedUserID *string `db:"allowed_user_id" json:"allowed_user_id,omitempty"`
	// SellerUserID marks a referral coupon; recurring charges never
	// re-apply a coupon whose seller is the paying user
	SellerUserID *string `db:"seller_user_id" json:"seller_user_id,omitempty"`

	types.BaseModel
}

// IsValidAt checks the coupon's validity window at a point in time.
// Usage caps are enforced separately by counting invoices.
func (c *Coupon) IsValidAt(now time.Time) bool {
	if c.OfferedAt != nil && now.Before(*c.OfferedAt) {
		return false
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return false
	}
	return true
}

// AllowsUser checks the single-allowed-user restriction.
func (c *Coupon) AllowsUser(userID string) bool {
	return c.AllowedUserID == nil || *c.AllowedUserID == userID
}

// IsSoldBy reports whether the coupon's referral seller is the given user.
func (c *Coupon) IsSoldBy(userID string) bool {
	return c.SellerUserID != nil && *c.SellerUserID == userID
}

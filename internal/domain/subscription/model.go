package subscription

import (
	"time"

	"github.com/academypay/academypay/internal/types"
)

// Subscription is a recurring billing entity created from a paid bag.
type Subscription struct {
	ID     string `db:"id" json:"id"`
	UserID string `db:"user_id" json:"user_id"`
	PlanID string `db:"plan_id" json:"plan_id"`
	// BagID references the original purchase bag
	BagID string `db:"bag_id" json:"bag_id"`

	Status types.SubscriptionStatus `db:"status" json:"status"`

	// ValidUntil nil means the subscription renews forever while paid; a
	// free trial sets it to the trial end.
	ValidUntil    *time.Time `db:"valid_until" json:"valid_until,omitempty"`
	NextPaymentAt time.Time  `db:"next_payment_at" json:"next_payment_at"`

	BillingPeriod types.BillingPeriod `db:"billing_period" json:"billing_period"`
	CountryCode   string              `db:"country_code" json:"country_code"`
	CurrencyCode  string              `db:"currency_code" json:"currency_code"`

	CouponIDs []string                `json:"coupon_ids"`
	Resource  types.ResourceSelection `json:"resource"`

	// IsFree marks trial/free-forever subscriptions that never charge
	IsFree bool `db:"is_free" json:"is_free"`

	types.BaseModel
}

// IsOverAt reports whether the subscription's validity window has fully
// elapsed.
func (s *Subscription) IsOverAt(now time.Time) bool {
	return s.ValidUntil != nil && now.After(*s.ValidUntil)
}

// NeedsPaymentAt reports whether the next payment anchor has already passed.
func (s *Subscription) NeedsPaymentAt(now time.Time) bool {
	return now.After(s.NextPaymentAt)
}

// PaidThroughDate is the date consumable validity must never exceed.
func (s *Subscription) PaidThroughDate() *time.Time {
	return s.ValidUntil
}

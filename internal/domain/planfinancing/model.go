package planfinancing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/academypay/academypay/internal/types"
)

// PlanFinancing is an installment billing entity: a fixed number of monthly
// charges that unlock the plan until it expires.
type PlanFinancing struct {
	ID     string `db:"id" json:"id"`
	UserID string `db:"user_id" json:"user_id"`
	PlanID string `db:"plan_id" json:"plan_id"`
	BagID  string `db:"bag_id" json:"bag_id"`

	Status types.PlanFinancingStatus `db:"status" json:"status"`

	// PlanExpiresAt bounds the whole entitlement life
	PlanExpiresAt time.Time `db:"plan_expires_at" json:"plan_expires_at"`
	// ValidUntil is the end of the installment schedule
	ValidUntil    time.Time `db:"valid_until" json:"valid_until"`
	NextPaymentAt time.Time `db:"next_payment_at" json:"next_payment_at"`

	MonthlyPrice      decimal.Decimal `db:"monthly_price" json:"monthly_price"`
	InstallmentsTotal int             `db:"installments_total" json:"installments_total"`
	InstallmentsPaid  int             `db:"installments_paid" json:"installments_paid"`

	CountryCode  string `db:"country_code" json:"country_code"`
	CurrencyCode string `db:"currency_code" json:"currency_code"`

	CouponIDs []string                `json:"coupon_ids"`
	Resource  types.ResourceSelection `json:"resource"`

	types.BaseModel
}

// IsOverAt reports whether the financing's whole life window has elapsed.
func (f *PlanFinancing) IsOverAt(now time.Time) bool {
	return now.After(f.PlanExpiresAt)
}

// NeedsPaymentAt reports whether the next installment is already overdue.
// A fully paid financing owes nothing.
func (f *PlanFinancing) NeedsPaymentAt(now time.Time) bool {
	if f.Status == types.PlanFinancingStatusFullyPaid {
		return false
	}
	return now.After(f.NextPaymentAt)
}

// IsFullyPaid reports whether every installment has been charged.
func (f *PlanFinancing) IsFullyPaid() bool {
	return f.InstallmentsPaid >= f.InstallmentsTotal
}

// PaidThroughDate is the tighter of the installment window and the plan
// life; consumable validity must never exceed it.
func (f *PlanFinancing) PaidThroughDate() *time.Time {
	return types.MinTime(&f.ValidUntil, &f.PlanExpiresAt)
}

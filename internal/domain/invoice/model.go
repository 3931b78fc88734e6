package invoice

import (
	"time"

	"github.com/shopspring/decimal"

	ierr "github.com/academypay/academypay/internal/errors"
	"github.com/academypay/academypay/internal/types"
)

// Invoice records one successful (or zero-amount) charge. Immutable once
// created.
type Invoice struct {
	ID string `db:"id" json:"id"`
	// Number is the short reference printed on receipts, e.g. IN-X2A8Q
	Number string `db:"number" json:"number"`
	BagID  string `db:"bag_id" json:"bag_id"`
	UserID string `db:"user_id" json:"user_id"`

	Amount       decimal.Decimal     `db:"amount" json:"amount"`
	CurrencyCode string              `db:"currency_code" json:"currency_code"`
	PaidAt       time.Time           `db:"paid_at" json:"paid_at"`
	Status       types.InvoiceStatus `db:"status" json:"status"`

	// GatewayReference is the charge provider's id for the payment; empty on
	// the free path
	GatewayReference string `db:"gateway_reference" json:"gateway_reference"`

	// CouponIDs are the coupons redeemed by this charge; usage caps count
	// fulfilled invoices referencing the coupon
	CouponIDs []string `json:"coupon_ids"`

	types.BaseModel
}

func (i *Invoice) Validate() error {
	if i.Amount.IsNegative() {
		return ierr.NewError("invoice amount cannot be negative").
			WithHint("Invoice amount must be zero or positive").
			WithReportableDetails(map[string]any{"amount": i.Amount}).
			Mark(ierr.ErrValidation)
	}
	return i.Status.Validate()
}

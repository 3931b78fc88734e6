package dto

import (
	ierr "github.com/academypay/academypay/internal/errors"
	"github.com/academypay/academypay/internal/types"
)

// CheckoutRequest pays for a converged bag.
type CheckoutRequest struct {
	UserID string `json:"-"`
	BagID  string `json:"bag_id" binding:"required"`

	// ChosenPeriod selects the recurring cadence; ignored when paying in
	// installments
	ChosenPeriod types.BillingPeriod `json:"chosen_period,omitempty"`
	// HowManyInstallments selects a financing option; 0 means recurring
	HowManyInstallments int `json:"how_many_installments,omitempty"`

	// Coupons are coupon slugs to redeem on this charge
	Coupons []string `json:"coupons,omitempty"`
}

func (r *CheckoutRequest) Validate() error {
	if r.UserID == "" {
		return ierr.NewError("checkout request has no user").
			WithHint("User is required").
			Mark(ierr.ErrValidation)
	}
	if r.BagID == "" {
		return ierr.NewError("checkout request has no bag").
			WithHint("A bag is required to check out").
			Mark(ierr.ErrValidation)
	}
	if r.HowManyInstallments < 0 {
		return ierr.NewError("installment count cannot be negative").
			WithHint("how_many_installments must be zero or positive").
			Mark(ierr.ErrValidation)
	}
	if r.HowManyInstallments == 0 && r.ChosenPeriod == "" {
		return ierr.NewError("no billing cadence selected").
			WithHint("Choose a billing period or an installment count").
			Mark(ierr.ErrValidation)
	}
	if r.ChosenPeriod != "" {
		if err := r.ChosenPeriod.Validate(); err != nil {
			return err
		}
	}
	return nil
}

package types

import (
	ierr "github.com/academypay/academypay/internal/errors"
	"github.com/samber/lo"
)

// BagStatus is the lifecycle status of a checkout bag. The vocabulary is a
// storage contract shared with existing consumers and must not be renamed.
type BagStatus string

const (
	// BagStatusChecking is an exploratory cart still being mutated
	BagStatusChecking BagStatus = "CHECKING"
	// BagStatusPaid is a frozen cart that produced a fulfilled invoice
	BagStatusPaid BagStatus = "PAID"
	// BagStatusRenewal is a synthetic cart rebuilt for a recurring charge
	BagStatusRenewal BagStatus = "RENEWAL"
)

func (s BagStatus) String() string {
	return string(s)
}

func (s BagStatus) Validate() error {
	allowed := []BagStatus{
		BagStatusChecking,
		BagStatusPaid,
		BagStatusRenewal,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid bag status").
			WithHint("Invalid bag status").
			WithReportableDetails(map[string]any{
				"status":         s,
				"allowed_status": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

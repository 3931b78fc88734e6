package types

import (
	ierr "github.com/academypay/academypay/internal/errors"
	"github.com/samber/lo"
)

// SubscriptionStatus is the billing status of a recurring subscription.
// The vocabulary is a storage contract and must be reproduced exactly.
type SubscriptionStatus string

const (
	SubscriptionStatusFreeTrial    SubscriptionStatus = "FREE_TRIAL"
	SubscriptionStatusActive       SubscriptionStatus = "ACTIVE"
	SubscriptionStatusPaymentIssue SubscriptionStatus = "PAYMENT_ISSUE"
	SubscriptionStatusError        SubscriptionStatus = "ERROR"
	SubscriptionStatusCancelled    SubscriptionStatus = "CANCELLED"
	SubscriptionStatusDeprecated   SubscriptionStatus = "DEPRECATED"
	SubscriptionStatusExpired      SubscriptionStatus = "EXPIRED"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) Validate() error {
	allowed := []SubscriptionStatus{
		SubscriptionStatusFreeTrial,
		SubscriptionStatusActive,
		SubscriptionStatusPaymentIssue,
		SubscriptionStatusError,
		SubscriptionStatusCancelled,
		SubscriptionStatusDeprecated,
		SubscriptionStatusExpired,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid subscription status").
			WithHint("Invalid subscription status").
			WithReportableDetails(map[string]any{
				"status":         s,
				"allowed_status": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsBlockedForRenewal reports whether a subscription in this status must be
// skipped by the renewal sweep.
func (s SubscriptionStatus) IsBlockedForRenewal() bool {
	return lo.Contains([]SubscriptionStatus{
		SubscriptionStatusCancelled,
		SubscriptionStatusDeprecated,
		SubscriptionStatusPaymentIssue,
	}, s)
}

// PlanFinancingStatus is the billing status of an installment financing.
// Same vocabulary as SubscriptionStatus plus FULLY_PAID.
type PlanFinancingStatus string

const (
	PlanFinancingStatusActive       PlanFinancingStatus = "ACTIVE"
	PlanFinancingStatusPaymentIssue PlanFinancingStatus = "PAYMENT_ISSUE"
	PlanFinancingStatusError        PlanFinancingStatus = "ERROR"
	PlanFinancingStatusCancelled    PlanFinancingStatus = "CANCELLED"
	PlanFinancingStatusDeprecated   PlanFinancingStatus = "DEPRECATED"
	PlanFinancingStatusExpired      PlanFinancingStatus = "EXPIRED"
	PlanFinancingStatusFullyPaid    PlanFinancingStatus = "FULLY_PAID"
)

func (s PlanFinancingStatus) String() string {
	return string(s)
}

func (s PlanFinancingStatus) Validate() error {
	allowed := []PlanFinancingStatus{
		PlanFinancingStatusActive,
		PlanFinancingStatusPaymentIssue,
		PlanFinancingStatusError,
		PlanFinancingStatusCancelled,
		PlanFinancingStatusDeprecated,
		PlanFinancingStatusExpired,
		PlanFinancingStatusFullyPaid,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid plan financing status").
			WithHint("Invalid plan financing status").
			WithReportableDetails(map[string]any{
				"status":         s,
				"allowed_status": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (s PlanFinancingStatus) IsBlockedForRenewal() bool {
	return lo.Contains([]PlanFinancingStatus{
		PlanFinancingStatusCancelled,
		PlanFinancingStatusDeprecated,
		PlanFinancingStatusPaymentIssue,
	}, s)
}

// BillingOwnerType identifies which billing entity owns a stock scheduler.
type BillingOwnerType string

const (
	BillingOwnerSubscription  BillingOwnerType = "subscription"
	BillingOwnerPlanFinancing BillingOwnerType = "plan_financing"
)

func (t BillingOwnerType) Validate() error {
	allowed := []BillingOwnerType{
		BillingOwnerSubscription,
		BillingOwnerPlanFinancing,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid billing owner type").
			WithHint("Invalid billing owner type").
			WithReportableDetails(map[string]any{"owner_type": t}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

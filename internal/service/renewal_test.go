package service

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/academypay/academypay/internal/domain/invoice"
	"github.com/academypay/academypay/internal/domain/plan"
	"github.com/academypay/academypay/internal/domain/planfinancing"
	"github.com/academypay/academypay/internal/domain/serviceitem"
	"github.com/academypay/academypay/internal/domain/stock"
	"github.com/academypay/academypay/internal/domain/subscription"
	ierr "github.com/academypay/academypay/internal/errors"
	"github.com/academypay/academypay/internal/testutil"
	"github.com/academypay/academypay/internal/types"
)

type RenewalServiceSuite struct {
	testutil.BaseServiceTestSuite
	renewalService RenewalService
}

func TestRenewalService(t *testing.T) {
	suite.Run(t, new(RenewalServiceSuite))
}

func (s *RenewalServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.renewalService = NewRenewalService(newTestParams(&s.BaseServiceTestSuite))
}

func (s *RenewalServiceSuite) seedItem(item *serviceitem.ServiceItem, serviceType types.ServiceType) *serviceitem.ServiceItem {
	store := s.GetStores().ServiceItemRepo
	svc := &serviceitem.Service{
		ID:        "svc-" + item.ID,
		Slug:      "svc-" + item.ID,
		Type:      serviceType,
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(store.CreateService(s.GetContext(), svc))
	item.ServiceID = svc.ID
	item.BaseModel = types.GetDefaultBaseModel(s.GetContext())
	s.NoError(store.Create(s.GetContext(), item))
	return item
}

func (s *RenewalServiceSuite) seedMentorshipItem() *serviceitem.ServiceItem {
	return s.seedItem(&serviceitem.ServiceItem{
		ID:          "sitem-1",
		HowMany:     4,
		UnitType:    types.ServiceUnitTypeUnit,
		RenewAt:     1,
		RenewAtUnit: types.DurationUnitMonth,
		IsRenewable: true,
	}, types.ServiceTypeMentorshipServiceSet)
}

// seedPaidSubscription creates an active subscription with a fulfilled
// positive invoice behind it, so the owner counts as paid through.
func (s *RenewalServiceSuite) seedPaidSubscription(mutate func(*subscription.Subscription)) *subscription.Subscription {
	nextPayment := s.GetNow().AddDate(0, 0, 10)
	sub := &subscription.Subscription{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		UserID:        "user-1",
		PlanID:        "plan-1",
		BagID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BAG),
		Status:        types.SubscriptionStatusActive,
		NextPaymentAt: nextPayment,
		BillingPeriod: types.BillingPeriodMonth,
		CurrencyCode:  "USD",
		Resource: types.ResourceSelection{
			Kind: types.ResourceKindMentorshipServiceSet,
			ID:   "mset-1",
		},
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	if mutate != nil {
		mutate(sub)
	}
	s.NoError(s.GetStores().SubscriptionRepo.Create(s.GetContext(), sub))
	s.NoError(s.GetStores().InvoiceRepo.Create(s.GetContext(), &invoice.Invoice{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		BagID:        sub.BagID,
		UserID:       sub.UserID,
		Amount:       decimal.RequireFromString("50"),
		CurrencyCode: "USD",
		PaidAt:       s.GetNow(),
		Status:       types.InvoiceStatusFulfilled,
		BaseModel:    types.GetDefaultBaseModel(s.GetContext()),
	}))
	return sub
}

func (s *RenewalServiceSuite) seedScheduler(itemID string, ownerType types.BillingOwnerType, ownerID string, planID *string) *stock.ServiceStockScheduler {
	scheduler := &stock.ServiceStockScheduler{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_STOCK_SCHEDULER),
		ServiceItemID: itemID,
		OwnerType:     ownerType,
		OwnerID:       ownerID,
		PlanID:        planID,
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().StockRepo.Create(s.GetContext(), scheduler))
	return scheduler
}

func (s *RenewalServiceSuite) TestRenewMintsConsumable() {
	item := s.seedMentorshipItem()
	sub := s.seedPaidSubscription(nil)
	scheduler := s.seedScheduler(item.ID, types.BillingOwnerSubscription, sub.ID, nil)

	s.NoError(s.renewalService.RenewConsumables(s.GetContext(), scheduler.ID))

	consumables, err := s.GetStores().StockRepo.ListConsumables(s.GetContext(), scheduler.ID)
	s.NoError(err)
	s.Require().Len(consumables, 1)
	c := consumables[0]
	s.Equal(int64(4), c.HowMany)
	s.Equal(sub.UserID, c.UserID)
	s.Equal(sub.Resource, c.Resource)
	s.Require().NotNil(c.ValidUntil)
	s.WithinDuration(s.GetNow().AddDate(0, 1, 0), *c.ValidUntil, 5*time.Second)

	updated, err := s.GetStores().StockRepo.Get(s.GetContext(), scheduler.ID)
	s.NoError(err)
	s.NotNil(updated.LastRenewAt)
	s.Require().NotNil(updated.ValidUntil)
	s.Equal(*c.ValidUntil, *updated.ValidUntil)
}

func (s *RenewalServiceSuite) TestRenewTwiceMintsOnce() {
	item := s.seedMentorshipItem()
	sub := s.seedPaidSubscription(nil)
	scheduler := s.seedScheduler(item.ID, types.BillingOwnerSubscription, sub.ID, nil)

	s.NoError(s.renewalService.RenewConsumables(s.GetContext(), scheduler.ID))
	err := s.renewalService.RenewConsumables(s.GetContext(), scheduler.ID)
	s.Error(err)
	s.Equal(ierr.ErrCodeRenewalNotDue, ierr.ErrorCode(err))

	consumables, err := s.GetStores().StockRepo.ListConsumables(s.GetContext(), scheduler.ID)
	s.NoError(err)
	s.Len(consumables, 1)
}

func (s *RenewalServiceSuite) TestRenewHeldWhileUnpaid() {
	item := s.seedMentorshipItem()
	sub := s.seedPaidSubscription(func(sub *subscription.Subscription) {
		sub.NextPaymentAt = s.GetNow().AddDate(0, 0, -1)
	})
	scheduler := s.seedScheduler(item.ID, types.BillingOwnerSubscription, sub.ID, nil)

	err := s.renewalService.RenewConsumables(s.GetContext(), scheduler.ID)
	s.Error(err)
	s.Equal(ierr.ErrCodeEntityNeedsPayment, ierr.ErrorCode(err))

	consumables, err := s.GetStores().StockRepo.ListConsumables(s.GetContext(), scheduler.ID)
	s.NoError(err)
	s.Empty(consumables)
}

func (s *RenewalServiceSuite) TestRenewStopsWhenOver() {
	item := s.seedMentorshipItem()
	sub := s.seedPaidSubscription(func(sub *subscription.Subscription) {
		over := s.GetNow().AddDate(0, 0, -1)
		sub.ValidUntil = &over
	})
	scheduler := s.seedScheduler(item.ID, types.BillingOwnerSubscription, sub.ID, nil)

	err := s.renewalService.RenewConsumables(s.GetContext(), scheduler.ID)
	s.Error(err)
	s.Equal(ierr.ErrCodeEntityIsOver, ierr.ErrorCode(err))
}

func (s *RenewalServiceSuite) TestRenewStopsAfterCancellation() {
	item := s.seedMentorshipItem()
	sub := s.seedPaidSubscription(nil)
	scheduler := s.seedScheduler(item.ID, types.BillingOwnerSubscription, sub.ID, nil)

	// the job was emitted while the subscription was active but lands after
	// a manual cancellation
	sub.Status = types.SubscriptionStatusCancelled
	s.NoError(s.GetStores().SubscriptionRepo.Update(s.GetContext(), sub))

	err := s.renewalService.RenewConsumables(s.GetContext(), scheduler.ID)
	s.Error(err)
	s.Equal(ierr.ErrCodeInvalidOperation, ierr.ErrorCode(err))
	s.True(ierr.IsBusinessAbort(err))

	consumables, err := s.GetStores().StockRepo.ListConsumables(s.GetContext(), scheduler.ID)
	s.NoError(err)
	s.Empty(consumables)

	diag, err := s.renewalService.CheckScheduler(s.GetContext(), scheduler.ID)
	s.NoError(err)
	checks := map[string]bool{}
	for _, c := range diag.Checks {
		checks[c.Name] = c.Passed
	}
	s.Contains(checks, "owner_status_allows_renewal")
	s.False(checks["owner_status_allows_renewal"])
}

func (s *RenewalServiceSuite) TestValidityCappedByOwnerWindow() {
	item := s.seedMentorshipItem()
	paidThrough := s.GetNow().AddDate(0, 0, 10)
	pf := &planfinancing.PlanFinancing{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN_FINANCING),
		UserID:            "user-1",
		PlanID:            "plan-1",
		BagID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BAG),
		Status:            types.PlanFinancingStatusActive,
		PlanExpiresAt:     s.GetNow().AddDate(1, 0, 0),
		ValidUntil:        paidThrough,
		NextPaymentAt:     s.GetNow().AddDate(0, 0, 5),
		MonthlyPrice:      decimal.RequireFromString("200"),
		InstallmentsTotal: 6,
		InstallmentsPaid:  1,
		CurrencyCode:      "USD",
		Resource: types.ResourceSelection{
			Kind: types.ResourceKindMentorshipServiceSet,
			ID:   "mset-1",
		},
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().PlanFinancingRepo.Create(s.GetContext(), pf))
	s.NoError(s.GetStores().InvoiceRepo.Create(s.GetContext(), &invoice.Invoice{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		BagID:        pf.BagID,
		UserID:       pf.UserID,
		Amount:       decimal.RequireFromString("200"),
		CurrencyCode: "USD",
		PaidAt:       s.GetNow(),
		Status:       types.InvoiceStatusFulfilled,
		BaseModel:    types.GetDefaultBaseModel(s.GetContext()),
	}))
	scheduler := s.seedScheduler(item.ID, types.BillingOwnerPlanFinancing, pf.ID, nil)

	s.NoError(s.renewalService.RenewConsumables(s.GetContext(), scheduler.ID))

	consumables, err := s.GetStores().StockRepo.ListConsumables(s.GetContext(), scheduler.ID)
	s.NoError(err)
	s.Require().Len(consumables, 1)
	s.Require().NotNil(consumables[0].ValidUntil)
	// the item renews monthly but the owner is only paid 10 days ahead
	s.WithinDuration(paidThrough, *consumables[0].ValidUntil, time.Second)
}

func (s *RenewalServiceSuite) TestResourceFallsBackToPlanDefault() {
	item := s.seedMentorshipItem()
	p := &plan.Plan{
		ID:                     "plan-1",
		Slug:                   "premium",
		Name:                   "premium",
		Renewable:              true,
		PriceMonthly:           decimal.RequireFromString("50"),
		CurrencyCode:           "USD",
		MentorshipServiceSetID: lo.ToPtr("mset-default"),
		BaseModel:              types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().PlanRepo.Create(s.GetContext(), p))
	sub := s.seedPaidSubscription(func(sub *subscription.Subscription) {
		sub.Resource = types.NoResource()
	})
	scheduler := s.seedScheduler(item.ID, types.BillingOwnerSubscription, sub.ID, &p.ID)

	s.NoError(s.renewalService.RenewConsumables(s.GetContext(), scheduler.ID))

	consumables, err := s.GetStores().StockRepo.ListConsumables(s.GetContext(), scheduler.ID)
	s.NoError(err)
	s.Require().Len(consumables, 1)
	s.Equal(types.ResourceKindMentorshipServiceSet, consumables[0].Resource.Kind)
	s.Equal("mset-default", consumables[0].Resource.ID)
}

func (s *RenewalServiceSuite) TestMissingResourceIsReported() {
	item := s.seedMentorshipItem()
	p := &plan.Plan{
		ID:           "plan-1",
		Slug:         "premium",
		Name:         "premium",
		Renewable:    true,
		PriceMonthly: decimal.RequireFromString("50"),
		CurrencyCode: "USD",
		BaseModel:    types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().PlanRepo.Create(s.GetContext(), p))
	sub := s.seedPaidSubscription(func(sub *subscription.Subscription) {
		sub.Resource = types.NoResource()
	})
	scheduler := s.seedScheduler(item.ID, types.BillingOwnerSubscription, sub.ID, &p.ID)

	err := s.renewalService.RenewConsumables(s.GetContext(), scheduler.ID)
	s.Error(err)
	s.Equal(ierr.ErrCodeNoResourceLinked, ierr.ErrorCode(err))
}

func (s *RenewalServiceSuite) TestNonRenewableItemMintsExactlyOnce() {
	item := s.seedItem(&serviceitem.ServiceItem{
		ID:          "sitem-void",
		HowMany:     -1,
		UnitType:    types.ServiceUnitTypeUnit,
		IsRenewable: false,
	}, types.ServiceTypeVoid)
	sub := s.seedPaidSubscription(nil)
	scheduler := s.seedScheduler(item.ID, types.BillingOwnerSubscription, sub.ID, nil)

	s.NoError(s.renewalService.RenewConsumables(s.GetContext(), scheduler.ID))

	consumables, err := s.GetStores().StockRepo.ListConsumables(s.GetContext(), scheduler.ID)
	s.NoError(err)
	s.Require().Len(consumables, 1)
	s.Equal(int64(-1), consumables[0].HowMany)
	s.Nil(consumables[0].ValidUntil)

	err = s.renewalService.RenewConsumables(s.GetContext(), scheduler.ID)
	s.Error(err)
	s.Equal(ierr.ErrCodeRenewalNotDue, ierr.ErrorCode(err))
}

func (s *RenewalServiceSuite) TestSweepEmitsOnlyPaidThroughOwners() {
	item := s.seedMentorshipItem()

	paidSub := s.seedPaidSubscription(nil)
	s.seedScheduler(item.ID, types.BillingOwnerSubscription, paidSub.ID, nil)

	unpaidSub := s.seedPaidSubscription(func(sub *subscription.Subscription) {
		sub.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION)
		sub.BagID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BAG)
		sub.NextPaymentAt = s.GetNow().AddDate(0, 0, -2)
	})
	s.seedScheduler(item.ID, types.BillingOwnerSubscription, unpaidSub.ID, nil)

	trialEnd := s.GetNow().AddDate(0, 0, 5)
	trialSub := s.seedPaidSubscription(func(sub *subscription.Subscription) {
		sub.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION)
		sub.BagID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BAG)
		sub.Status = types.SubscriptionStatusFreeTrial
		sub.IsFree = true
		sub.ValidUntil = &trialEnd
		sub.NextPaymentAt = trialEnd
	})
	s.seedScheduler(item.ID, types.BillingOwnerSubscription, trialSub.ID, nil)

	resp, err := s.renewalService.SweepRenewals(s.GetContext())
	s.NoError(err)
	s.Equal(3, resp.TotalScanned)
	s.Equal(2, resp.TotalEmitted)
	s.Equal(1, resp.TotalSkipped)
	s.Equal(0, resp.TotalFailed)

	jobs, err := testutil.DecodeAll[types.RenewConsumablesJob](s.GetPublisher(), types.TopicRenewConsumables)
	s.NoError(err)
	s.Len(jobs, 2)
}

func (s *RenewalServiceSuite) TestSweepSkipsRecentlyRenewed() {
	item := s.seedMentorshipItem()
	sub := s.seedPaidSubscription(nil)
	scheduler := s.seedScheduler(item.ID, types.BillingOwnerSubscription, sub.ID, nil)

	s.NoError(s.renewalService.RenewConsumables(s.GetContext(), scheduler.ID))

	resp, err := s.renewalService.SweepRenewals(s.GetContext())
	s.NoError(err)
	// the fresh consumable keeps the scheduler out of the due set
	s.Equal(0, resp.TotalScanned)
	s.Equal(0, resp.TotalEmitted)
}

func (s *RenewalServiceSuite) TestCheckSchedulerReportsEachPrecondition() {
	item := s.seedMentorshipItem()
	sub := s.seedPaidSubscription(func(sub *subscription.Subscription) {
		sub.NextPaymentAt = s.GetNow().AddDate(0, 0, -1)
	})
	scheduler := s.seedScheduler(item.ID, types.BillingOwnerSubscription, sub.ID, nil)

	diag, err := s.renewalService.CheckScheduler(s.GetContext(), scheduler.ID)
	s.NoError(err)

	checks := map[string]bool{}
	for _, c := range diag.Checks {
		checks[c.Name] = c.Passed
	}
	s.True(checks["scheduler_exists"])
	s.True(checks["owner_resolves"])
	s.True(checks["owner_within_validity"])
	s.True(checks["owner_status_allows_renewal"])
	s.False(checks["owner_paid_through"])
	s.True(checks["service_item_exists"])
	s.True(checks["resource_linked"])
	s.True(checks["renewal_due"])
}

func (s *RenewalServiceSuite) TestCheckSchedulerMissingScheduler() {
	diag, err := s.renewalService.CheckScheduler(s.GetContext(), "ssc_missing")
	s.NoError(err)
	s.Require().NotEmpty(diag.Checks)
	s.Equal("scheduler_exists", diag.Checks[0].Name)
	s.False(diag.Checks[0].Passed)
}

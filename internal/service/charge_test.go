package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/academypay/academypay/internal/domain/bag"
	"github.com/academypay/academypay/internal/domain/coupon"
	"github.com/academypay/academypay/internal/domain/customer"
	"github.com/academypay/academypay/internal/domain/plan"
	"github.com/academypay/academypay/internal/domain/planfinancing"
	"github.com/academypay/academypay/internal/domain/stock"
	"github.com/academypay/academypay/internal/domain/subscription"
	ierr "github.com/academypay/academypay/internal/errors"
	"github.com/academypay/academypay/internal/notification"
	"github.com/academypay/academypay/internal/testutil"
	"github.com/academypay/academypay/internal/types"
)

type ChargeServiceSuite struct {
	testutil.BaseServiceTestSuite
	chargeService ChargeService
}

func TestChargeService(t *testing.T) {
	suite.Run(t, new(ChargeServiceSuite))
}

func (s *ChargeServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.chargeService = NewChargeService(newTestParams(&s.BaseServiceTestSuite))
}

func (s *ChargeServiceSuite) seedCustomer(id string) {
	s.NoError(s.GetStores().CustomerRepo.Create(s.GetContext(), &customer.Customer{
		ID:                id,
		Email:             id + "@example.com",
		FirstName:         "Ada",
		GatewayCustomerID: "gw_" + id,
		BaseModel:         types.GetDefaultBaseModel(s.GetContext()),
	}))
}

func (s *ChargeServiceSuite) seedMonthlyPlan(id, price string) *plan.Plan {
	p := &plan.Plan{
		ID:           id,
		Slug:         id,
		Name:         id,
		Renewable:    true,
		PriceMonthly: decimal.RequireFromString(price),
		CurrencyCode: "USD",
		BaseModel:    types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().PlanRepo.Create(s.GetContext(), p))
	return p
}

func (s *ChargeServiceSuite) seedSubscription(mutate func(*subscription.Subscription)) *subscription.Subscription {
	sub := &subscription.Subscription{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		UserID:        "user-1",
		PlanID:        "plan-1",
		BagID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BAG),
		Status:        types.SubscriptionStatusActive,
		NextPaymentAt: s.GetNow().AddDate(0, 0, -3),
		BillingPeriod: types.BillingPeriodMonth,
		CurrencyCode:  "USD",
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}
	if mutate != nil {
		mutate(sub)
	}
	s.NoError(s.GetStores().SubscriptionRepo.Create(s.GetContext(), sub))
	return sub
}

func (s *ChargeServiceSuite) TestChargeAdvancesFromOwnAnchor() {
	s.seedCustomer("user-1")
	s.seedMonthlyPlan("plan-1", "50")
	anchor := s.GetNow().AddDate(0, 0, -3)
	sub := s.seedSubscription(func(sub *subscription.Subscription) {
		sub.NextPaymentAt = anchor
	})

	s.NoError(s.chargeService.ChargeSubscription(s.GetContext(), sub.ID))

	updated, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), sub.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, updated.Status)
	// a late charge still advances from the anchor, not from now
	s.WithinDuration(anchor.AddDate(0, 1, 0), updated.NextPaymentAt, time.Second)

	calls := s.GetGateway().Calls()
	s.Require().Len(calls, 1)
	s.True(calls[0].Amount.Equal(decimal.RequireFromString("50")))
}

func (s *ChargeServiceSuite) TestChargeRecordsInvoiceOnRenewalBag() {
	s.seedCustomer("user-1")
	s.seedMonthlyPlan("plan-1", "50")
	sub := s.seedSubscription(nil)

	s.NoError(s.chargeService.ChargeSubscription(s.GetContext(), sub.ID))

	// the original purchase bag keeps no recurring invoices
	original, err := s.GetStores().InvoiceRepo.ListByBag(s.GetContext(), sub.BagID)
	s.NoError(err)
	s.Empty(original)

	all, err := s.GetStores().InvoiceRepo.(*testutil.InMemoryInvoiceStore).List(s.GetContext(), nil, nil)
	s.NoError(err)
	s.Require().Len(all, 1)
	s.NotEqual(sub.BagID, all[0].BagID)
	s.True(strings.HasPrefix(all[0].Number, "IN-"), "got %q", all[0].Number)
}

func (s *ChargeServiceSuite) TestChargeFailureFlagsPaymentIssue() {
	s.seedCustomer("user-1")
	s.seedMonthlyPlan("plan-1", "50")
	anchor := s.GetNow().AddDate(0, 0, -3)
	sub := s.seedSubscription(func(sub *subscription.Subscription) {
		sub.NextPaymentAt = anchor
	})

	s.GetGateway().FailWith = errors.New("card declined")
	s.NoError(s.chargeService.ChargeSubscription(s.GetContext(), sub.ID))

	updated, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), sub.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusPaymentIssue, updated.Status)
	s.WithinDuration(anchor, updated.NextPaymentAt, time.Second)

	sends := s.GetNotifier().Sends()
	s.Require().Len(sends, 1)
	s.Equal(notification.TemplatePaymentFailed, sends[0].Template)
	s.Equal("user-1@example.com", sends[0].Recipient)

	// recovery: the next sweep still sees the entity and the charge heals it
	s.GetGateway().Clear()
	s.NoError(s.chargeService.ChargeSubscription(s.GetContext(), sub.ID))
	updated, err = s.GetStores().SubscriptionRepo.Get(s.GetContext(), sub.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, updated.Status)
	s.WithinDuration(anchor.AddDate(0, 1, 0), updated.NextPaymentAt, time.Second)
}

func (s *ChargeServiceSuite) TestRecurringChargeDropsSellerCoupon() {
	s.seedCustomer("user-1")
	s.seedMonthlyPlan("plan-1", "100")
	seller := "user-1"
	s.NoError(s.GetStores().CouponRepo.Create(s.GetContext(), &coupon.Coupon{
		ID:            "coupon-ref",
		Slug:          "referral",
		DiscountType:  types.CouponDiscountPercentOff,
		DiscountValue: decimal.RequireFromString("50"),
		SellerUserID:  &seller,
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}))
	sub := s.seedSubscription(func(sub *subscription.Subscription) {
		sub.CouponIDs = []string{"coupon-ref"}
	})

	s.NoError(s.chargeService.ChargeSubscription(s.GetContext(), sub.ID))

	calls := s.GetGateway().Calls()
	s.Require().Len(calls, 1)
	// the payer cannot keep redeeming a coupon they sold
	s.True(calls[0].Amount.Equal(decimal.RequireFromString("100")))
}

func (s *ChargeServiceSuite) TestChargeMultipliesSeats() {
	s.seedCustomer("user-1")
	s.seedMonthlyPlan("plan-1", "30")
	teamBag := &bag.Bag{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BAG),
		UserID:       "user-1",
		Status:       types.BagStatusPaid,
		Seats:        3,
		CurrencyCode: "USD",
		WasDelivered: true,
		BaseModel:    types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().BagRepo.Create(s.GetContext(), teamBag))
	sub := s.seedSubscription(func(sub *subscription.Subscription) {
		sub.BagID = teamBag.ID
	})

	s.NoError(s.chargeService.ChargeSubscription(s.GetContext(), sub.ID))

	calls := s.GetGateway().Calls()
	s.Require().Len(calls, 1)
	s.True(calls[0].Amount.Equal(decimal.RequireFromString("90")))
}

func (s *ChargeServiceSuite) TestChargeGuards() {
	s.seedCustomer("user-1")
	s.seedMonthlyPlan("plan-1", "50")

	free := s.seedSubscription(func(sub *subscription.Subscription) {
		sub.IsFree = true
	})
	err := s.chargeService.ChargeSubscription(s.GetContext(), free.ID)
	s.Error(err)
	s.Equal(ierr.ErrCodeInvalidOperation, ierr.ErrorCode(err))

	over := s.seedSubscription(func(sub *subscription.Subscription) {
		past := s.GetNow().AddDate(0, 0, -1)
		sub.ValidUntil = &past
	})
	err = s.chargeService.ChargeSubscription(s.GetContext(), over.ID)
	s.Error(err)
	s.Equal(ierr.ErrCodeEntityIsOver, ierr.ErrorCode(err))

	s.Empty(s.GetGateway().Calls())
}

func (s *ChargeServiceSuite) TestChargeQueuesRenewalsForOwner() {
	s.seedCustomer("user-1")
	s.seedMonthlyPlan("plan-1", "50")
	sub := s.seedSubscription(nil)
	scheduler := &stock.ServiceStockScheduler{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_STOCK_SCHEDULER),
		ServiceItemID: "sitem-1",
		OwnerType:     types.BillingOwnerSubscription,
		OwnerID:       sub.ID,
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().StockRepo.Create(s.GetContext(), scheduler))

	s.NoError(s.chargeService.ChargeSubscription(s.GetContext(), sub.ID))

	jobs, err := testutil.DecodeAll[types.RenewConsumablesJob](s.GetPublisher(), types.TopicRenewConsumables)
	s.NoError(err)
	s.Require().Len(jobs, 1)
	s.Equal(scheduler.ID, jobs[0].SchedulerID)
}

func (s *ChargeServiceSuite) seedFinancing(mutate func(*planfinancing.PlanFinancing)) *planfinancing.PlanFinancing {
	pf := &planfinancing.PlanFinancing{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN_FINANCING),
		UserID:            "user-1",
		PlanID:            "plan-1",
		BagID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BAG),
		Status:            types.PlanFinancingStatusActive,
		PlanExpiresAt:     s.GetNow().AddDate(1, 0, 0),
		ValidUntil:        s.GetNow().AddDate(0, 5, 0),
		NextPaymentAt:     s.GetNow().AddDate(0, 0, -1),
		MonthlyPrice:      decimal.RequireFromString("200"),
		InstallmentsTotal: 6,
		InstallmentsPaid:  5,
		CurrencyCode:      "USD",
		BaseModel:         types.GetDefaultBaseModel(s.GetContext()),
	}
	if mutate != nil {
		mutate(pf)
	}
	s.NoError(s.GetStores().PlanFinancingRepo.Create(s.GetContext(), pf))
	return pf
}

func (s *ChargeServiceSuite) TestFinancingChargesLockedPrice() {
	s.seedCustomer("user-1")
	// the plan's list price moved since purchase; installments do not care
	s.seedMonthlyPlan("plan-1", "999")
	anchor := s.GetNow().AddDate(0, 0, -1)
	pf := s.seedFinancing(func(pf *planfinancing.PlanFinancing) {
		pf.NextPaymentAt = anchor
		pf.InstallmentsPaid = 2
	})

	s.NoError(s.chargeService.ChargePlanFinancing(s.GetContext(), pf.ID))

	calls := s.GetGateway().Calls()
	s.Require().Len(calls, 1)
	s.True(calls[0].Amount.Equal(decimal.RequireFromString("200")))

	updated, err := s.GetStores().PlanFinancingRepo.Get(s.GetContext(), pf.ID)
	s.NoError(err)
	s.Equal(3, updated.InstallmentsPaid)
	s.Equal(types.PlanFinancingStatusActive, updated.Status)
	s.WithinDuration(anchor.AddDate(0, 1, 0), updated.NextPaymentAt, time.Second)
}

func (s *ChargeServiceSuite) TestFinancingLastInstallmentSettles() {
	s.seedCustomer("user-1")
	s.seedMonthlyPlan("plan-1", "999")
	pf := s.seedFinancing(nil)

	s.NoError(s.chargeService.ChargePlanFinancing(s.GetContext(), pf.ID))

	updated, err := s.GetStores().PlanFinancingRepo.Get(s.GetContext(), pf.ID)
	s.NoError(err)
	s.Equal(types.PlanFinancingStatusFullyPaid, updated.Status)
	s.Equal(6, updated.InstallmentsPaid)

	err = s.chargeService.ChargePlanFinancing(s.GetContext(), pf.ID)
	s.Error(err)
	s.Equal(ierr.ErrCodeInvalidOperation, ierr.ErrorCode(err))
	s.Len(s.GetGateway().Calls(), 1)
}

func (s *ChargeServiceSuite) TestFinancingFailureFlagsPaymentIssue() {
	s.seedCustomer("user-1")
	s.seedMonthlyPlan("plan-1", "999")
	pf := s.seedFinancing(func(pf *planfinancing.PlanFinancing) {
		pf.InstallmentsPaid = 2
	})

	s.GetGateway().FailWith = errors.New("card declined")
	s.NoError(s.chargeService.ChargePlanFinancing(s.GetContext(), pf.ID))

	updated, err := s.GetStores().PlanFinancingRepo.Get(s.GetContext(), pf.ID)
	s.NoError(err)
	s.Equal(types.PlanFinancingStatusPaymentIssue, updated.Status)
	s.Equal(2, updated.InstallmentsPaid)
	s.Require().Len(s.GetNotifier().Sends(), 1)
}

func (s *ChargeServiceSuite) TestSweepExpiresAndEmits() {
	s.seedCustomer("user-1")
	s.seedMonthlyPlan("plan-1", "50")

	due := s.seedSubscription(nil)
	s.seedSubscription(func(sub *subscription.Subscription) {
		sub.IsFree = true
	})
	elapsed := s.seedSubscription(func(sub *subscription.Subscription) {
		past := s.GetNow().AddDate(0, 0, -1)
		sub.ValidUntil = &past
	})
	duePf := s.seedFinancing(nil)

	resp, err := s.chargeService.SweepCharges(s.GetContext())
	s.NoError(err)
	s.Equal(1, resp.TotalExpired)
	s.Equal(2, resp.TotalEmitted)
	s.Equal(1, resp.TotalSkipped)

	expired, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), elapsed.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusExpired, expired.Status)

	sends := s.GetNotifier().Sends()
	s.Require().Len(sends, 1)
	s.Equal(notification.TemplateSubscriptionExpired, sends[0].Template)

	subJobs, err := testutil.DecodeAll[types.ChargeSubscriptionJob](s.GetPublisher(), types.TopicChargeSubscription)
	s.NoError(err)
	s.Require().Len(subJobs, 1)
	s.Equal(due.ID, subJobs[0].SubscriptionID)

	pfJobs, err := testutil.DecodeAll[types.ChargePlanFinancingJob](s.GetPublisher(), types.TopicChargePlanFinancing)
	s.NoError(err)
	s.Require().Len(pfJobs, 1)
	s.Equal(duePf.ID, pfJobs[0].PlanFinancingID)

	// no charging happened during the sweep itself
	s.Empty(s.GetGateway().Calls())
}

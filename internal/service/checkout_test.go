package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/academypay/academypay/internal/api/dto"
	"github.com/academypay/academypay/internal/domain/coupon"
	"github.com/academypay/academypay/internal/domain/customer"
	"github.com/academypay/academypay/internal/domain/plan"
	"github.com/academypay/academypay/internal/domain/pricing"
	"github.com/academypay/academypay/internal/domain/serviceitem"
	"github.com/academypay/academypay/internal/testutil"
	"github.com/academypay/academypay/internal/types"
)

type CheckoutServiceSuite struct {
	testutil.BaseServiceTestSuite
	bagService      BagService
	checkoutService CheckoutService
}

func TestCheckoutService(t *testing.T) {
	suite.Run(t, new(CheckoutServiceSuite))
}

func (s *CheckoutServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := newTestParams(&s.BaseServiceTestSuite)
	s.bagService = NewBagService(params)
	s.checkoutService = NewCheckoutService(params)
}

func (s *CheckoutServiceSuite) seedCustomer(id string) *customer.Customer {
	cust := &customer.Customer{
		ID:                id,
		Email:             id + "@example.com",
		FirstName:         "Ada",
		GatewayCustomerID: "gw_" + id,
		BaseModel:         types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().CustomerRepo.Create(s.GetContext(), cust))
	return cust
}

func (s *CheckoutServiceSuite) seedPlan(p *plan.Plan) *plan.Plan {
	if p.ID == "" {
		p.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN)
	}
	p.BaseModel = types.GetDefaultBaseModel(s.GetContext())
	s.NoError(s.GetStores().PlanRepo.Create(s.GetContext(), p))
	return p
}

func (s *CheckoutServiceSuite) buildBag(req *dto.BagRequest) string {
	b, err := s.bagService.AddToBag(s.GetContext(), req)
	s.Require().NoError(err)
	return b.ID
}

func (s *CheckoutServiceSuite) TestFreeTrialCheckoutSkipsGateway() {
	s.seedCustomer("user-1")
	s.seedPlan(&plan.Plan{
		Slug:              "premium",
		Name:              "premium",
		Renewable:         true,
		PriceMonthly:      decimal.RequireFromString("60"),
		CurrencyCode:      "USD",
		TrialDuration:     7,
		TrialDurationUnit: types.DurationUnitDay,
	})
	bagID := s.buildBag(&dto.BagRequest{UserID: "user-1", Plans: []string{"premium"}})

	inv, err := s.checkoutService.Checkout(s.GetContext(), &dto.CheckoutRequest{
		UserID:       "user-1",
		BagID:        bagID,
		ChosenPeriod: types.BillingPeriodMonth,
	})
	s.NoError(err)
	s.True(inv.Amount.IsZero())
	s.Equal(types.InvoiceStatusFulfilled, inv.Status)
	s.Empty(s.GetGateway().Calls())

	sub, err := s.GetStores().SubscriptionRepo.GetByBag(s.GetContext(), bagID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusFreeTrial, sub.Status)
	s.True(sub.IsFree)
	s.Require().NotNil(sub.ValidUntil)
	wantTrialEnd := inv.PaidAt.AddDate(0, 0, 7)
	s.WithinDuration(wantTrialEnd, *sub.ValidUntil, time.Second)
	s.WithinDuration(wantTrialEnd, sub.NextPaymentAt, time.Second)
}

func (s *CheckoutServiceSuite) TestCheckoutAppliesRatioAndCoupon() {
	s.seedCustomer("user-1")
	s.GetRatioSource().SetRatio("CL", pricing.CountryRatio{Ratio: decimal.RequireFromString("0.8")})
	s.seedPlan(&plan.Plan{
		Slug:         "premium",
		Name:         "premium",
		Renewable:    true,
		PriceMonthly: decimal.RequireFromString("100"),
		CurrencyCode: "USD",
	})
	s.NoError(s.GetStores().CouponRepo.Create(s.GetContext(), &coupon.Coupon{
		ID:            "coupon-1",
		Slug:          "launch20",
		DiscountType:  types.CouponDiscountFixedPrice,
		DiscountValue: decimal.RequireFromString("20"),
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}))
	bagID := s.buildBag(&dto.BagRequest{
		UserID:      "user-1",
		Plans:       []string{"premium"},
		CountryCode: "CL",
	})

	inv, err := s.checkoutService.Checkout(s.GetContext(), &dto.CheckoutRequest{
		UserID:       "user-1",
		BagID:        bagID,
		ChosenPeriod: types.BillingPeriodMonth,
		Coupons:      []string{"launch20"},
	})
	s.NoError(err)
	s.True(inv.Amount.Equal(decimal.RequireFromString("60")), "got %s", inv.Amount)
	s.Equal([]string{"coupon-1"}, inv.CouponIDs)
	s.NotEmpty(inv.GatewayReference)
	s.True(strings.HasPrefix(inv.Number, "IN-"), "got %q", inv.Number)
	s.LessOrEqual(len(inv.Number), 12)

	calls := s.GetGateway().Calls()
	s.Require().Len(calls, 1)
	s.True(calls[0].Amount.Equal(decimal.RequireFromString("60")))
	s.Equal("USD", calls[0].CurrencyCode)

	sub, err := s.GetStores().SubscriptionRepo.GetByBag(s.GetContext(), bagID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, sub.Status)
	s.False(sub.IsFree)
	s.WithinDuration(inv.PaidAt.AddDate(0, 1, 0), sub.NextPaymentAt, time.Second)
}

func (s *CheckoutServiceSuite) TestGatewayFailureLeavesBagOpen() {
	s.seedCustomer("user-1")
	s.seedPlan(&plan.Plan{
		Slug:         "premium",
		Name:         "premium",
		Renewable:    true,
		PriceMonthly: decimal.RequireFromString("50"),
		CurrencyCode: "USD",
	})
	bagID := s.buildBag(&dto.BagRequest{UserID: "user-1", Plans: []string{"premium"}})

	s.GetGateway().FailWith = errors.New("card declined")
	_, err := s.checkoutService.Checkout(s.GetContext(), &dto.CheckoutRequest{
		UserID:       "user-1",
		BagID:        bagID,
		ChosenPeriod: types.BillingPeriodMonth,
	})
	s.Error(err)

	b, err := s.GetStores().BagRepo.Get(s.GetContext(), bagID)
	s.NoError(err)
	s.False(b.WasDelivered)
	s.Equal(types.BagStatusChecking, b.Status)

	invoices, err := s.GetStores().InvoiceRepo.ListByBag(s.GetContext(), bagID)
	s.NoError(err)
	s.Empty(invoices)

	// the retry goes through once the gateway recovers
	s.GetGateway().Clear()
	inv, err := s.checkoutService.Checkout(s.GetContext(), &dto.CheckoutRequest{
		UserID:       "user-1",
		BagID:        bagID,
		ChosenPeriod: types.BillingPeriodMonth,
	})
	s.NoError(err)
	s.True(inv.Amount.Equal(decimal.RequireFromString("50")))
}

func (s *CheckoutServiceSuite) TestDeliveredBagReturnsExistingInvoice() {
	s.seedCustomer("user-1")
	s.seedPlan(&plan.Plan{
		Slug:         "premium",
		Name:         "premium",
		Renewable:    true,
		PriceMonthly: decimal.RequireFromString("50"),
		CurrencyCode: "USD",
	})
	bagID := s.buildBag(&dto.BagRequest{UserID: "user-1", Plans: []string{"premium"}})

	req := &dto.CheckoutRequest{
		UserID:       "user-1",
		BagID:        bagID,
		ChosenPeriod: types.BillingPeriodMonth,
	}
	first, err := s.checkoutService.Checkout(s.GetContext(), req)
	s.NoError(err)
	second, err := s.checkoutService.Checkout(s.GetContext(), req)
	s.NoError(err)

	s.Equal(first.ID, second.ID)
	s.Len(s.GetGateway().Calls(), 1)

	invoices, err := s.GetStores().InvoiceRepo.ListByBag(s.GetContext(), bagID)
	s.NoError(err)
	s.Len(invoices, 1)
}

func (s *CheckoutServiceSuite) TestFinancedCheckoutChargesFirstInstallment() {
	s.seedCustomer("user-1")
	store := s.GetStores().ServiceItemRepo
	svc := &serviceitem.Service{
		ID:        "svc-mentorship",
		Slug:      "mentorship",
		Type:      types.ServiceTypeMentorshipServiceSet,
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(store.CreateService(s.GetContext(), svc))
	s.NoError(store.Create(s.GetContext(), &serviceitem.ServiceItem{
		ID:          "sitem-1",
		ServiceID:   svc.ID,
		HowMany:     4,
		UnitType:    types.ServiceUnitTypeUnit,
		RenewAt:     1,
		RenewAtUnit: types.DurationUnitMonth,
		IsRenewable: true,
		BaseModel:   types.GetDefaultBaseModel(s.GetContext()),
	}))
	p := s.seedPlan(&plan.Plan{
		Slug:           "bootcamp",
		Name:           "bootcamp",
		Renewable:      false,
		TimeOfLife:     12,
		TimeOfLifeUnit: types.DurationUnitMonth,
		CurrencyCode:   "USD",
		FinancingOptions: []plan.FinancingOption{
			{MonthsToPay: 6, MonthlyPrice: decimal.RequireFromString("200")},
		},
		ServiceItemIDs: []string{"sitem-1"},
	})
	bagID := s.buildBag(&dto.BagRequest{UserID: "user-1", Plans: []string{"bootcamp"}})

	inv, err := s.checkoutService.Checkout(s.GetContext(), &dto.CheckoutRequest{
		UserID:              "user-1",
		BagID:               bagID,
		HowManyInstallments: 6,
	})
	s.NoError(err)
	s.True(inv.Amount.Equal(decimal.RequireFromString("200")))

	pf, err := s.GetStores().PlanFinancingRepo.GetByBag(s.GetContext(), bagID)
	s.NoError(err)
	s.Equal(p.ID, pf.PlanID)
	s.Equal(types.PlanFinancingStatusActive, pf.Status)
	s.Equal(6, pf.InstallmentsTotal)
	s.Equal(1, pf.InstallmentsPaid)
	s.True(pf.MonthlyPrice.Equal(decimal.RequireFromString("200")))
	s.WithinDuration(inv.PaidAt.AddDate(0, 12, 0), pf.PlanExpiresAt, time.Second)
	s.WithinDuration(inv.PaidAt.AddDate(0, 1, 0), pf.NextPaymentAt, time.Second)

	// one scheduler per plan item, with a renewal job queued for each
	schedulers, err := s.GetStores().StockRepo.ListByOwner(s.GetContext(), string(types.BillingOwnerPlanFinancing), pf.ID)
	s.NoError(err)
	s.Require().Len(schedulers, 1)
	s.Equal("sitem-1", schedulers[0].ServiceItemID)

	jobs, err := testutil.DecodeAll[types.RenewConsumablesJob](s.GetPublisher(), types.TopicRenewConsumables)
	s.NoError(err)
	s.Require().Len(jobs, 1)
	s.Equal(schedulers[0].ID, jobs[0].SchedulerID)
}

func (s *CheckoutServiceSuite) TestOutrightPurchaseIsImmediatelySettled() {
	s.seedCustomer("user-1")
	s.seedPlan(&plan.Plan{
		Slug:           "bootcamp",
		Name:           "bootcamp",
		Renewable:      false,
		PriceMonthly:   decimal.RequireFromString("900"),
		TimeOfLife:     12,
		TimeOfLifeUnit: types.DurationUnitMonth,
		CurrencyCode:   "USD",
	})
	bagID := s.buildBag(&dto.BagRequest{UserID: "user-1", Plans: []string{"bootcamp"}})

	inv, err := s.checkoutService.Checkout(s.GetContext(), &dto.CheckoutRequest{
		UserID:       "user-1",
		BagID:        bagID,
		ChosenPeriod: types.BillingPeriodMonth,
	})
	s.NoError(err)
	s.True(inv.Amount.Equal(decimal.RequireFromString("900")))

	pf, err := s.GetStores().PlanFinancingRepo.GetByBag(s.GetContext(), bagID)
	s.NoError(err)
	s.Equal(types.PlanFinancingStatusFullyPaid, pf.Status)
	s.Equal(1, pf.InstallmentsTotal)
	s.Equal(1, pf.InstallmentsPaid)
}

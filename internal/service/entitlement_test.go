package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/academypay/academypay/internal/domain/bag"
	"github.com/academypay/academypay/internal/domain/invoice"
	"github.com/academypay/academypay/internal/domain/plan"
	"github.com/academypay/academypay/internal/domain/serviceitem"
	"github.com/academypay/academypay/internal/testutil"
	"github.com/academypay/academypay/internal/types"
)

type EntitlementServiceSuite struct {
	testutil.BaseServiceTestSuite
	entitlementService EntitlementService
}

func TestEntitlementService(t *testing.T) {
	suite.Run(t, new(EntitlementServiceSuite))
}

func (s *EntitlementServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.entitlementService = NewEntitlementService(newTestParams(&s.BaseServiceTestSuite))
}

func (s *EntitlementServiceSuite) seedItem(id string) {
	store := s.GetStores().ServiceItemRepo
	svc := &serviceitem.Service{
		ID:        "svc-" + id,
		Slug:      "svc-" + id,
		Type:      types.ServiceTypeMentorshipServiceSet,
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(store.CreateService(s.GetContext(), svc))
	s.NoError(store.Create(s.GetContext(), &serviceitem.ServiceItem{
		ID:          id,
		ServiceID:   svc.ID,
		HowMany:     2,
		UnitType:    types.ServiceUnitTypeUnit,
		RenewAt:     1,
		RenewAtUnit: types.DurationUnitMonth,
		IsRenewable: true,
		BaseModel:   types.GetDefaultBaseModel(s.GetContext()),
	}))
}

func (s *EntitlementServiceSuite) paidPair(p *plan.Plan, lineItems []bag.LineItem, amount string) (*bag.Bag, *invoice.Invoice) {
	b := &bag.Bag{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BAG),
		UserID:       "user-1",
		Status:       types.BagStatusPaid,
		ChosenPeriod: types.BillingPeriodMonth,
		CurrencyCode: "USD",
		PlanIDs:      []string{p.ID},
		LineItems:    lineItems,
		WasDelivered: true,
		BaseModel:    types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().BagRepo.Create(s.GetContext(), b))
	inv := &invoice.Invoice{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		BagID:        b.ID,
		UserID:       b.UserID,
		Amount:       decimal.RequireFromString(amount),
		CurrencyCode: "USD",
		PaidAt:       s.GetNow(),
		Status:       types.InvoiceStatusFulfilled,
		BaseModel:    types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().InvoiceRepo.Create(s.GetContext(), inv))
	return b, inv
}

func (s *EntitlementServiceSuite) TestDeliverTwiceConverges() {
	s.seedItem("sitem-plan")
	s.seedItem("sitem-addon")
	p := &plan.Plan{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN),
		Slug:           "premium",
		Name:           "premium",
		Renewable:      true,
		PriceMonthly:   decimal.RequireFromString("50"),
		CurrencyCode:   "USD",
		ServiceItemIDs: []string{"sitem-plan"},
		AddOns:         []plan.AddOn{{ServiceItemID: "sitem-addon", MaxQuantity: 5}},
		BaseModel:      types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().PlanRepo.Create(s.GetContext(), p))
	b, inv := s.paidPair(p, []bag.LineItem{{ServiceItemID: "sitem-addon", HowMany: 3}}, "50")

	s.NoError(s.entitlementService.Deliver(s.GetContext(), b, inv))
	s.NoError(s.entitlementService.Deliver(s.GetContext(), b, inv))

	sub, err := s.GetStores().SubscriptionRepo.GetByBag(s.GetContext(), b.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, sub.Status)

	schedulers, err := s.GetStores().StockRepo.ListByOwner(s.GetContext(), string(types.BillingOwnerSubscription), sub.ID)
	s.NoError(err)
	s.Require().Len(schedulers, 2)

	byItem := map[string]bool{}
	for _, sch := range schedulers {
		byItem[sch.ServiceItemID] = sch.PlanID != nil
	}
	s.True(byItem["sitem-plan"], "plan items carry the plan id")
	s.False(byItem["sitem-addon"], "add-ons are owned directly")
}

func (s *EntitlementServiceSuite) TestDeliverQueuesFirstRenewal() {
	s.seedItem("sitem-plan")
	p := &plan.Plan{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN),
		Slug:           "premium",
		Name:           "premium",
		Renewable:      true,
		PriceMonthly:   decimal.RequireFromString("50"),
		CurrencyCode:   "USD",
		ServiceItemIDs: []string{"sitem-plan"},
		BaseModel:      types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().PlanRepo.Create(s.GetContext(), p))
	b, inv := s.paidPair(p, nil, "50")

	s.NoError(s.entitlementService.Deliver(s.GetContext(), b, inv))

	sub, err := s.GetStores().SubscriptionRepo.GetByBag(s.GetContext(), b.ID)
	s.NoError(err)
	schedulers, err := s.GetStores().StockRepo.ListByOwner(s.GetContext(), string(types.BillingOwnerSubscription), sub.ID)
	s.NoError(err)
	s.Require().Len(schedulers, 1)

	jobs, err := testutil.DecodeAll[types.RenewConsumablesJob](s.GetPublisher(), types.TopicRenewConsumables)
	s.NoError(err)
	s.Require().Len(jobs, 1)
	s.Equal(schedulers[0].ID, jobs[0].SchedulerID)
}

func (s *EntitlementServiceSuite) TestSubscriptionNextPaymentFollowsPeriod() {
	p := &plan.Plan{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN),
		Slug:         "premium",
		Name:         "premium",
		Renewable:    true,
		PriceMonthly: decimal.RequireFromString("50"),
		CurrencyCode: "USD",
		BaseModel:    types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().PlanRepo.Create(s.GetContext(), p))
	b, inv := s.paidPair(p, nil, "135")
	b.ChosenPeriod = types.BillingPeriodYear

	s.NoError(s.entitlementService.Deliver(s.GetContext(), b, inv))

	sub, err := s.GetStores().SubscriptionRepo.GetByBag(s.GetContext(), b.ID)
	s.NoError(err)
	s.Equal(types.BillingPeriodYear, sub.BillingPeriod)
	s.WithinDuration(inv.PaidAt.AddDate(1, 0, 0), sub.NextPaymentAt, time.Second)
	s.Nil(sub.ValidUntil)
}

func (s *EntitlementServiceSuite) TestFreeForeverPlanNeverCharges() {
	p := &plan.Plan{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN),
		Slug:      "free-tier",
		Name:      "free-tier",
		Renewable: true,
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().PlanRepo.Create(s.GetContext(), p))
	b, inv := s.paidPair(p, nil, "0")

	s.NoError(s.entitlementService.Deliver(s.GetContext(), b, inv))

	sub, err := s.GetStores().SubscriptionRepo.GetByBag(s.GetContext(), b.ID)
	s.NoError(err)
	s.True(sub.IsFree)
	s.Equal(types.SubscriptionStatusActive, sub.Status)
	s.Nil(sub.ValidUntil)
}

package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/academypay/academypay/internal/api/dto"
	"github.com/academypay/academypay/internal/domain/plan"
	"github.com/academypay/academypay/internal/domain/planfinancing"
	"github.com/academypay/academypay/internal/domain/pricing"
	"github.com/academypay/academypay/internal/domain/resource"
	"github.com/academypay/academypay/internal/domain/serviceitem"
	"github.com/academypay/academypay/internal/domain/subscription"
	ierr "github.com/academypay/academypay/internal/errors"
	"github.com/academypay/academypay/internal/testutil"
	"github.com/academypay/academypay/internal/types"
)

type BagServiceSuite struct {
	testutil.BaseServiceTestSuite
	bagService BagService
}

func TestBagService(t *testing.T) {
	suite.Run(t, new(BagServiceSuite))
}

func (s *BagServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.bagService = NewBagService(newTestParams(&s.BaseServiceTestSuite))
}

func (s *BagServiceSuite) seedPlan(p *plan.Plan) *plan.Plan {
	if p.ID == "" {
		p.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN)
	}
	p.BaseModel = types.GetDefaultBaseModel(s.GetContext())
	s.NoError(s.GetStores().PlanRepo.Create(s.GetContext(), p))
	return p
}

func (s *BagServiceSuite) seedMonthlyPlan(slug string, price string) *plan.Plan {
	return s.seedPlan(&plan.Plan{
		Slug:         slug,
		Name:         slug,
		Renewable:    true,
		PriceMonthly: decimal.RequireFromString(price),
		CurrencyCode: "USD",
	})
}

func (s *BagServiceSuite) TestAddToBagAttachesPlanAndPrices() {
	s.GetRatioSource().SetRatio("CL", pricing.CountryRatio{Ratio: decimal.RequireFromString("0.8")})
	s.seedMonthlyPlan("full-stack", "100")

	b, err := s.bagService.AddToBag(s.GetContext(), &dto.BagRequest{
		UserID:      "user-1",
		Plans:       []string{"full-stack"},
		CountryCode: "CL",
	})
	s.NoError(err)
	s.Len(b.PlanIDs, 1)
	s.Equal(types.BagStatusChecking, b.Status)
	s.True(b.AmountPerMonth.Equal(decimal.RequireFromString("80")))
	s.True(b.ChargeNow)
}

func (s *BagServiceSuite) TestAddToBagReportsAllUnresolvedPlans() {
	s.seedMonthlyPlan("real-plan", "50")

	_, err := s.bagService.AddToBag(s.GetContext(), &dto.BagRequest{
		UserID: "user-1",
		Plans:  []string{"real-plan", "ghost-a", "ghost-b"},
	})
	s.Error(err)
	s.Equal(ierr.ErrCodeNotFound, ierr.ErrorCode(err))
}

func (s *BagServiceSuite) TestAddToBagRejectsSecondPlan() {
	s.seedMonthlyPlan("plan-a", "10")
	s.seedMonthlyPlan("plan-b", "20")

	_, err := s.bagService.AddToBag(s.GetContext(), &dto.BagRequest{
		UserID: "user-1",
		Plans:  []string{"plan-a", "plan-b"},
	})
	s.Error(err)
	s.Equal(ierr.ErrCodeValidation, ierr.ErrorCode(err))
}

func (s *BagServiceSuite) TestAddToBagSeatsRequireTeamPlan() {
	s.seedMonthlyPlan("solo-plan", "40")

	_, err := s.bagService.AddToBag(s.GetContext(), &dto.BagRequest{
		UserID: "user-1",
		Plans:  []string{"solo-plan"},
		Seats:  3,
	})
	s.Error(err)
	s.Equal(ierr.ErrCodeValidation, ierr.ErrorCode(err))
}

func (s *BagServiceSuite) TestAddToBagSeatsMultiplyAmounts() {
	s.seedPlan(&plan.Plan{
		Slug:          "team-plan",
		Name:          "team-plan",
		Renewable:     true,
		PriceMonthly:  decimal.RequireFromString("30"),
		CurrencyCode:  "USD",
		SupportsSeats: true,
	})

	b, err := s.bagService.AddToBag(s.GetContext(), &dto.BagRequest{
		UserID: "user-1",
		Plans:  []string{"team-plan"},
		Seats:  3,
	})
	s.NoError(err)
	s.Equal(3, b.Seats)
	s.True(b.AmountPerMonth.Equal(decimal.RequireFromString("90")))
}

func (s *BagServiceSuite) seedMentorshipItem(id string) *serviceitem.ServiceItem {
	store := s.GetStores().ServiceItemRepo
	svc := &serviceitem.Service{
		ID:        "svc-mentorship",
		Slug:      "mentorship",
		Type:      types.ServiceTypeMentorshipServiceSet,
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(store.CreateService(s.GetContext(), svc))
	item := &serviceitem.ServiceItem{
		ID:          id,
		ServiceID:   svc.ID,
		HowMany:     4,
		UnitType:    types.ServiceUnitTypeUnit,
		RenewAt:     1,
		RenewAtUnit: types.DurationUnitMonth,
		IsRenewable: true,
		BaseModel:   types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(store.Create(s.GetContext(), item))
	return item
}

func (s *BagServiceSuite) TestAddToBagAddOnMustBeInPlanCatalog() {
	s.seedMentorshipItem("sitem-1")
	s.seedMonthlyPlan("no-addons", "10")

	_, err := s.bagService.AddToBag(s.GetContext(), &dto.BagRequest{
		UserID:       "user-1",
		Plans:        []string{"no-addons"},
		ServiceItems: []dto.BagItemRequest{{Service: "sitem-1", HowMany: 1}},
	})
	s.Error(err)
	s.Equal(ierr.ErrCodeValidation, ierr.ErrorCode(err))
}

func (s *BagServiceSuite) TestAddToBagAddOnQuantityCapped() {
	s.seedMentorshipItem("sitem-1")
	s.seedPlan(&plan.Plan{
		Slug:         "with-addons",
		Name:         "with-addons",
		Renewable:    true,
		PriceMonthly: decimal.RequireFromString("10"),
		CurrencyCode: "USD",
		AddOns:       []plan.AddOn{{ServiceItemID: "sitem-1", MaxQuantity: 2}},
	})

	_, err := s.bagService.AddToBag(s.GetContext(), &dto.BagRequest{
		UserID:       "user-1",
		Plans:        []string{"with-addons"},
		ServiceItems: []dto.BagItemRequest{{Service: "sitem-1", HowMany: 5}},
	})
	s.Error(err)
	s.Equal(ierr.ErrCodeValidation, ierr.ErrorCode(err))

	b, err := s.bagService.AddToBag(s.GetContext(), &dto.BagRequest{
		UserID:       "user-1",
		Plans:        []string{"with-addons"},
		ServiceItems: []dto.BagItemRequest{{Service: "sitem-1", HowMany: 2}},
	})
	s.NoError(err)
	s.Len(b.LineItems, 1)
	s.Equal(int64(2), b.LineItems[0].HowMany)
}

func (s *BagServiceSuite) TestAddToBagUnknownResourceRejected() {
	s.seedMonthlyPlan("any-plan", "10")

	_, err := s.bagService.AddToBag(s.GetContext(), &dto.BagRequest{
		UserID:    "user-1",
		Plans:     []string{"any-plan"},
		CohortSet: "ghost-cohort-set",
	})
	s.Error(err)
	s.Equal(ierr.ErrCodeNotFound, ierr.ErrorCode(err))
}

func (s *BagServiceSuite) TestAddToBagAttachesKnownResource() {
	s.seedMonthlyPlan("any-plan", "10")
	s.GetStores().ResourceRepo.AddCohortSet(s.GetContext(), &resource.CohortSet{
		ID: "cset-1", Slug: "web-dev",
	})

	b, err := s.bagService.AddToBag(s.GetContext(), &dto.BagRequest{
		UserID:    "user-1",
		Plans:     []string{"any-plan"},
		CohortSet: "cset-1",
	})
	s.NoError(err)
	s.Equal(types.ResourceKindCohortSet, b.Resource.Kind)
	s.Equal("cset-1", b.Resource.ID)
}

func (s *BagServiceSuite) TestCheckingRequestResetsBag() {
	s.seedMonthlyPlan("plan-a", "10")

	first, err := s.bagService.AddToBag(s.GetContext(), &dto.BagRequest{
		UserID: "user-1",
		Plans:  []string{"plan-a"},
	})
	s.NoError(err)
	s.Len(first.PlanIDs, 1)

	second, err := s.bagService.AddToBag(s.GetContext(), &dto.BagRequest{
		UserID:   "user-1",
		BagID:    first.ID,
		Checking: true,
	})
	s.NoError(err)
	s.Empty(second.PlanIDs)
	s.Empty(second.LineItems)
}

func (s *BagServiceSuite) TestChargeNowFreeTrialAlreadyUsed() {
	p := s.seedPlan(&plan.Plan{
		Slug: "free-plan",
		Name: "free-plan",
	})
	s.NoError(s.GetStores().SubscriptionRepo.Create(s.GetContext(), &subscription.Subscription{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		UserID:    "user-1",
		PlanID:    p.ID,
		BagID:     "bag-old",
		Status:    types.SubscriptionStatusExpired,
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}))

	_, err := s.bagService.AddToBag(s.GetContext(), &dto.BagRequest{
		UserID: "user-1",
		Plans:  []string{"free-plan"},
	})
	s.Error(err)
	s.Equal(ierr.ErrCodeFreeTrialUsed, ierr.ErrorCode(err))
}

func (s *BagServiceSuite) TestChargeNowRejectsLiveSubscription() {
	p := s.seedMonthlyPlan("paid-plan", "25")
	validUntil := time.Now().UTC().AddDate(0, 1, 0)
	s.NoError(s.GetStores().SubscriptionRepo.Create(s.GetContext(), &subscription.Subscription{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		UserID:     "user-1",
		PlanID:     p.ID,
		BagID:      "bag-old",
		Status:     types.SubscriptionStatusActive,
		ValidUntil: &validUntil,
		BaseModel:  types.GetDefaultBaseModel(s.GetContext()),
	}))

	_, err := s.bagService.AddToBag(s.GetContext(), &dto.BagRequest{
		UserID: "user-1",
		Plans:  []string{"paid-plan"},
	})
	s.Error(err)
	s.Equal(ierr.ErrCodeAlreadySubscribed, ierr.ErrorCode(err))
}

func (s *BagServiceSuite) TestChargeNowRejectsSecondFinancing() {
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
	})
	s.NoError(s.GetStores().PlanFinancingRepo.Create(s.GetContext(), &planfinancing.PlanFinancing{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN_FINANCING),
		UserID:            "user-1",
		PlanID:            p.ID,
		BagID:             "bag-old",
		Status:            types.PlanFinancingStatusActive,
		PlanExpiresAt:     time.Now().UTC().AddDate(1, 0, 0),
		InstallmentsTotal: 6,
		InstallmentsPaid:  2,
		BaseModel:         types.GetDefaultBaseModel(s.GetContext()),
	}))

	_, err := s.bagService.AddToBag(s.GetContext(), &dto.BagRequest{
		UserID: "user-1",
		Plans:  []string{"bootcamp"},
	})
	s.Error(err)
	s.Equal(ierr.ErrCodeAlreadyFinanced, ierr.ErrorCode(err))
	s.Empty(s.GetGateway().Calls())
}

func (s *BagServiceSuite) TestChargeNowTrialPlanFirstPurchase() {
	s.seedPlan(&plan.Plan{
		Slug:              "trial-plan",
		Name:              "trial-plan",
		Renewable:         true,
		PriceMonthly:      decimal.RequireFromString("60"),
		CurrencyCode:      "USD",
		TrialDuration:     7,
		TrialDurationUnit: types.DurationUnitDay,
	})

	b, err := s.bagService.AddToBag(s.GetContext(), &dto.BagRequest{
		UserID: "user-1",
		Plans:  []string{"trial-plan"},
	})
	s.NoError(err)
	s.False(b.ChargeNow)
}

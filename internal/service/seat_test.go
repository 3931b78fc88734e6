package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/academypay/academypay/internal/domain/bag"
	"github.com/academypay/academypay/internal/domain/plan"
	"github.com/academypay/academypay/internal/domain/subscription"
	ierr "github.com/academypay/academypay/internal/errors"
	"github.com/academypay/academypay/internal/testutil"
	"github.com/academypay/academypay/internal/types"
)

type SeatServiceSuite struct {
	testutil.BaseServiceTestSuite
	seatService SeatService
}

func TestSeatService(t *testing.T) {
	suite.Run(t, new(SeatServiceSuite))
}

func (s *SeatServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.seatService = NewSeatService(newTestParams(&s.BaseServiceTestSuite))
}

// seedTeamSubscription creates a seat-capable subscription whose purchase
// bag bought the given number of seats.
func (s *SeatServiceSuite) seedTeamSubscription(seats int) *subscription.Subscription {
	p := &plan.Plan{
		ID:            "plan-team",
		Slug:          "team",
		Name:          "team",
		Renewable:     true,
		PriceMonthly:  decimal.RequireFromString("30"),
		CurrencyCode:  "USD",
		SupportsSeats: true,
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().PlanRepo.Create(s.GetContext(), p))

	b := &bag.Bag{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BAG),
		UserID:       "owner-1",
		Status:       types.BagStatusPaid,
		Seats:        seats,
		CurrencyCode: "USD",
		WasDelivered: true,
		BaseModel:    types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().BagRepo.Create(s.GetContext(), b))

	sub := &subscription.Subscription{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		UserID:        "owner-1",
		PlanID:        p.ID,
		BagID:         b.ID,
		Status:        types.SubscriptionStatusActive,
		NextPaymentAt: s.GetNow().AddDate(0, 0, 20),
		BillingPeriod: types.BillingPeriodMonth,
		CurrencyCode:  "USD",
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().SubscriptionRepo.Create(s.GetContext(), sub))
	return sub
}

func (s *SeatServiceSuite) seatLogs() []*subscription.SeatActivityLog {
	store := s.GetStores().SubscriptionRepo.(*testutil.InMemorySubscriptionStore)
	return store.SeatLogs(s.GetContext())
}

func (s *SeatServiceSuite) TestAddSeatNormalizesEmail() {
	sub := s.seedTeamSubscription(3)

	seat, err := s.seatService.AddSeat(s.GetContext(), sub.ID, "  Dev@Example.COM ", decimal.Zero)
	s.NoError(err)
	s.Equal("dev@example.com", seat.Email)
	s.True(seat.Multiplier.Equal(decimal.NewFromInt(1)))
	s.True(seat.IsActive())

	logs := s.seatLogs()
	s.Require().Len(logs, 1)
	s.Equal(subscription.SeatLogAdded, logs[0].Action)
	s.Equal("dev@example.com", logs[0].Email)
}

func (s *SeatServiceSuite) TestAddSeatRejectsDuplicateEmail() {
	sub := s.seedTeamSubscription(3)

	_, err := s.seatService.AddSeat(s.GetContext(), sub.ID, "dev@example.com", decimal.Zero)
	s.NoError(err)
	_, err = s.seatService.AddSeat(s.GetContext(), sub.ID, "DEV@example.com", decimal.Zero)
	s.Error(err)
	s.Equal(ierr.ErrCodeAlreadyExists, ierr.ErrorCode(err))
}

func (s *SeatServiceSuite) TestAddSeatEnforcesPurchasedCapacity() {
	sub := s.seedTeamSubscription(2)

	_, err := s.seatService.AddSeat(s.GetContext(), sub.ID, "a@example.com", decimal.Zero)
	s.NoError(err)
	_, err = s.seatService.AddSeat(s.GetContext(), sub.ID, "b@example.com", decimal.Zero)
	s.NoError(err)
	_, err = s.seatService.AddSeat(s.GetContext(), sub.ID, "c@example.com", decimal.Zero)
	s.Error(err)
	s.Equal(ierr.ErrCodeValidation, ierr.ErrorCode(err))
}

func (s *SeatServiceSuite) TestRemovedSeatFreesCapacity() {
	sub := s.seedTeamSubscription(1)

	_, err := s.seatService.AddSeat(s.GetContext(), sub.ID, "a@example.com", decimal.Zero)
	s.NoError(err)
	s.NoError(s.seatService.RemoveSeat(s.GetContext(), sub.ID, "a@example.com"))
	_, err = s.seatService.AddSeat(s.GetContext(), sub.ID, "b@example.com", decimal.Zero)
	s.NoError(err)

	logs := s.seatLogs()
	s.Require().Len(logs, 3)
	s.Equal(subscription.SeatLogRemoved, logs[1].Action)
}

func (s *SeatServiceSuite) TestReplaceSeatReassignsSlot() {
	sub := s.seedTeamSubscription(2)

	added, err := s.seatService.AddSeat(s.GetContext(), sub.ID, "old@example.com", decimal.Zero)
	s.NoError(err)

	replaced, err := s.seatService.ReplaceSeat(s.GetContext(), sub.ID, "old@example.com", "new@example.com")
	s.NoError(err)
	s.Equal(added.ID, replaced.ID)
	s.Equal("new@example.com", replaced.Email)
	s.Nil(replaced.UserID)

	seats, err := s.seatService.ListSeats(s.GetContext(), sub.ID)
	s.NoError(err)
	s.Require().Len(seats, 1)
	s.Equal("new@example.com", seats[0].Email)
}

func (s *SeatServiceSuite) TestReplaceSeatRejectsOccupiedTarget() {
	sub := s.seedTeamSubscription(3)

	_, err := s.seatService.AddSeat(s.GetContext(), sub.ID, "a@example.com", decimal.Zero)
	s.NoError(err)
	_, err = s.seatService.AddSeat(s.GetContext(), sub.ID, "b@example.com", decimal.Zero)
	s.NoError(err)

	_, err = s.seatService.ReplaceSeat(s.GetContext(), sub.ID, "a@example.com", "b@example.com")
	s.Error(err)
	s.Equal(ierr.ErrCodeAlreadyExists, ierr.ErrorCode(err))
}

func (s *SeatServiceSuite) TestSeatsRequireSeatCapablePlan() {
	p := &plan.Plan{
		ID:           "plan-solo",
		Slug:         "solo",
		Name:         "solo",
		Renewable:    true,
		PriceMonthly: decimal.RequireFromString("10"),
		CurrencyCode: "USD",
		BaseModel:    types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().PlanRepo.Create(s.GetContext(), p))
	sub := &subscription.Subscription{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		UserID:        "owner-1",
		PlanID:        p.ID,
		BagID:         "bag-1",
		Status:        types.SubscriptionStatusActive,
		NextPaymentAt: s.GetNow().AddDate(0, 0, 20),
		BillingPeriod: types.BillingPeriodMonth,
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().SubscriptionRepo.Create(s.GetContext(), sub))

	_, err := s.seatService.AddSeat(s.GetContext(), sub.ID, "dev@example.com", decimal.Zero)
	s.Error(err)
	s.Equal(ierr.ErrCodeValidation, ierr.ErrorCode(err))
}

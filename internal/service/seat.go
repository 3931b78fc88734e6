package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/academypay/academypay/internal/domain/customer"
	"github.com/academypay/academypay/internal/domain/subscription"
	ierr "github.com/academypay/academypay/internal/errors"
	"github.com/academypay/academypay/internal/types"
)

// SeatService manages named team seats under a subscription. Every mutation
// is recorded in the append-only seat activity log.
type SeatService interface {
	AddSeat(ctx context.Context, subscriptionID, email string, multiplier decimal.Decimal) (*subscription.Seat, error)
	ReplaceSeat(ctx context.Context, subscriptionID, fromEmail, toEmail string) (*subscription.Seat, error)
	RemoveSeat(ctx context.Context, subscriptionID, email string) error
	ListSeats(ctx context.Context, subscriptionID string) ([]*subscription.Seat, error)
}

type seatService struct {
	ServiceParams
}

func NewSeatService(params ServiceParams) SeatService {
	return &seatService{ServiceParams: params}
}

func (s *seatService) AddSeat(ctx context.Context, subscriptionID, email string, multiplier decimal.Decimal) (*subscription.Seat, error) {
	sub, err := s.teamSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	normalized := customer.NormalizedEmail(email)
	if normalized == "" {
		return nil, ierr.NewError("seat email is empty").
			WithHint("A seat needs an email").
			Mark(ierr.ErrValidation)
	}

	existing, err := s.SubscriptionRepo.GetActiveSeat(ctx, sub.ID, normalized)
	if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return nil, ierr.NewError("email already holds a seat").
			WithHint("This email already occupies a seat on the subscription").
			WithReportableDetails(map[string]any{"email": normalized}).
			Mark(ierr.ErrAlreadyExists)
	}

	active, err := s.activeSeatCount(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	if capSeats := s.seatCapacity(ctx, sub); capSeats > 0 && active >= capSeats {
		return nil, ierr.NewError("no seats left on the subscription").
			WithHint("All purchased seats are occupied; remove one first").
			WithReportableDetails(map[string]any{
				"capacity": capSeats,
				"occupied": active,
			}).
			Mark(ierr.ErrValidation)
	}

	if multiplier.IsZero() {
		multiplier = decimal.NewFromInt(1)
	}
	seat := &subscription.Seat{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SEAT),
		SubscriptionID: sub.ID,
		Email:          normalized,
		Multiplier:     multiplier,
		BaseModel:      types.GetDefaultBaseModel(ctx),
	}
	if err := s.SubscriptionRepo.CreateSeat(ctx, seat); err != nil {
		return nil, err
	}
	if err := s.logSeat(ctx, seat.ID, subscription.SeatLogAdded, normalized); err != nil {
		return nil, err
	}
	return seat, nil
}

func (s *seatService) ReplaceSeat(ctx context.Context, subscriptionID, fromEmail, toEmail string) (*subscription.Seat, error) {
	sub, err := s.teamSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	from := customer.NormalizedEmail(fromEmail)
	to := customer.NormalizedEmail(toEmail)
	if to == "" {
		return nil, ierr.NewError("replacement seat email is empty").
			WithHint("A seat needs an email").
			Mark(ierr.ErrValidation)
	}

	seat, err := s.SubscriptionRepo.GetActiveSeat(ctx, sub.ID, from)
	if err != nil {
		return nil, err
	}
	taken, err := s.SubscriptionRepo.GetActiveSeat(ctx, sub.ID, to)
	if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}
	if taken != nil {
		return nil, ierr.NewError("email already holds a seat").
			WithHint("The replacement email already occupies a seat").
			WithReportableDetails(map[string]any{"email": to}).
			Mark(ierr.ErrAlreadyExists)
	}

	seat.Email = to
	seat.UserID = nil
	seat.UpdatedAt = time.Now().UTC()
	if err := s.SubscriptionRepo.UpdateSeat(ctx, seat); err != nil {
		return nil, err
	}
	if err := s.logSeat(ctx, seat.ID, subscription.SeatLogReplaced, to); err != nil {
		return nil, err
	}
	return seat, nil
}

func (s *seatService) RemoveSeat(ctx context.Context, subscriptionID, email string) error {
	sub, err := s.teamSubscription(ctx, subscriptionID)
	if err != nil {
		return err
	}

	normalized := customer.NormalizedEmail(email)
	seat, err := s.SubscriptionRepo.GetActiveSeat(ctx, sub.ID, normalized)
	if err != nil {
		return err
	}

	seat.BaseModel.Status = types.StatusDeleted
	seat.UpdatedAt = time.Now().UTC()
	if err := s.SubscriptionRepo.UpdateSeat(ctx, seat); err != nil {
		return err
	}
	return s.logSeat(ctx, seat.ID, subscription.SeatLogRemoved, normalized)
}

func (s *seatService) ListSeats(ctx context.Context, subscriptionID string) ([]*subscription.Seat, error) {
	return s.SubscriptionRepo.ListSeats(ctx, subscriptionID)
}

func (s *seatService) teamSubscription(ctx context.Context, subscriptionID string) (*subscription.Subscription, error) {
	sub, err := s.SubscriptionRepo.Get(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	p, err := s.PlanRepo.Get(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}
	if !p.SupportsSeats {
		return nil, ierr.NewError("plan does not support team seats").
			WithHint("This subscription's plan has no seat support").
			WithReportableDetails(map[string]any{"plan": p.Slug}).
			Mark(ierr.ErrValidation)
	}
	return sub, nil
}

func (s *seatService) activeSeatCount(ctx context.Context, subscriptionID string) (int, error) {
	seats, err := s.SubscriptionRepo.ListSeats(ctx, subscriptionID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, seat := range seats {
		if seat.IsActive() {
			count++
		}
	}
	return count, nil
}

// seatCapacity is the seat count purchased on the original bag; 0 means the
// purchase record is gone and the cap is not enforced.
func (s *seatService) seatCapacity(ctx context.Context, sub *subscription.Subscription) int {
	b, err := s.BagRepo.Get(ctx, sub.BagID)
	if err != nil {
		return 0
	}
	return b.Seats
}

func (s *seatService) logSeat(ctx context.Context, seatID string, action subscription.SeatLogAction, email string) error {
	return s.SubscriptionRepo.CreateSeatLog(ctx, &subscription.SeatActivityLog{
		ID:     types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SEAT_ACTIVITY_LOG),
		SeatID: seatID,
		Action: action,
		Email:  email,
		At:     time.Now().UTC(),
	})
}

package testutil

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/academypay/academypay/internal/domain/subscription"
	ierr "github.com/academypay/academypay/internal/errors"
	"github.com/academypay/academypay/internal/types"
)

// InMemorySubscriptionStore implements subscription.Repository
type InMemorySubscriptionStore struct {
	subs     *InMemoryStore[*subscription.Subscription]
	seats    *InMemoryStore[*subscription.Seat]
	seatLogs *InMemoryStore[*subscription.SeatActivityLog]
}

func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		subs:     NewInMemoryStore[*subscription.Subscription](),
		seats:    NewInMemoryStore[*subscription.Seat](),
		seatLogs: NewInMemoryStore[*subscription.SeatActivityLog](),
	}
}

func copySubscription(sub *subscription.Subscription) *subscription.Subscription {
	if sub == nil {
		return nil
	}
	out := *sub
	out.CouponIDs = append([]string(nil), sub.CouponIDs...)
	if sub.ValidUntil != nil {
		v := *sub.ValidUntil
		out.ValidUntil = &v
	}
	return &out
}

func (s *InMemorySubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	return s.subs.Create(ctx, sub.ID, copySubscription(sub))
}

func (s *InMemorySubscriptionStore) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	sub, err := s.subs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return copySubscription(sub), nil
}

func (s *InMemorySubscriptionStore) Update(ctx context.Context, sub *subscription.Subscription) error {
	return s.subs.Update(ctx, sub.ID, copySubscription(sub))
}

func (s *InMemorySubscriptionStore) GetActiveForUserPlan(ctx context.Context, userID, planID string, now time.Time) (*subscription.Subscription, error) {
	matches, err := s.subs.List(ctx, func(ctx context.Context, sub *subscription.Subscription) bool {
		if sub.UserID != userID || sub.PlanID != planID {
			return false
		}
		switch sub.Status {
		case types.SubscriptionStatusCancelled,
			types.SubscriptionStatusDeprecated,
			types.SubscriptionStatusExpired:
			return false
		}
		return !sub.IsOverAt(now)
	}, nil)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ierr.NewError("no live subscription for plan").
			WithHint("Subscription not found").
			Mark(ierr.ErrNotFound)
	}
	return copySubscription(matches[0]), nil
}

func (s *InMemorySubscriptionStore) ExistsForUserPlan(ctx context.Context, userID, planID string) (bool, error) {
	count, err := s.subs.Count(ctx, func(ctx context.Context, sub *subscription.Subscription) bool {
		return sub.UserID == userID && sub.PlanID == planID
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *InMemorySubscriptionStore) GetByBag(ctx context.Context, bagID string) (*subscription.Subscription, error) {
	matches, err := s.subs.List(ctx, func(ctx context.Context, sub *subscription.Subscription) bool {
		return sub.BagID == bagID
	}, nil)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ierr.NewError("no subscription for bag").
			WithHint("Subscription not found").
			Mark(ierr.ErrNotFound)
	}
	return copySubscription(matches[0]), nil
}

func (s *InMemorySubscriptionStore) ListDue(ctx context.Context, now time.Time, lookahead time.Duration, limit, offset int) ([]*subscription.Subscription, error) {
	horizon := now.Add(lookahead)
	matches, err := s.subs.List(ctx, func(ctx context.Context, sub *subscription.Subscription) bool {
		switch sub.Status {
		case types.SubscriptionStatusActive, types.SubscriptionStatusPaymentIssue:
		default:
			return false
		}
		return !sub.IsOverAt(now) && !sub.NextPaymentAt.After(horizon)
	}, func(i, j *subscription.Subscription) bool {
		return i.NextPaymentAt.Before(j.NextPaymentAt)
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(paginate(matches, limit, offset), func(sub *subscription.Subscription, _ int) *subscription.Subscription {
		return copySubscription(sub)
	}), nil
}

func (s *InMemorySubscriptionStore) ListExpired(ctx context.Context, now time.Time, limit, offset int) ([]*subscription.Subscription, error) {
	matches, err := s.subs.List(ctx, func(ctx context.Context, sub *subscription.Subscription) bool {
		switch sub.Status {
		case types.SubscriptionStatusCancelled,
			types.SubscriptionStatusDeprecated,
			types.SubscriptionStatusExpired:
			return false
		}
		return sub.IsOverAt(now)
	}, func(i, j *subscription.Subscription) bool {
		return i.ID < j.ID
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(paginate(matches, limit, offset), func(sub *subscription.Subscription, _ int) *subscription.Subscription {
		return copySubscription(sub)
	}), nil
}

func copySeat(seat *subscription.Seat) *subscription.Seat {
	if seat == nil {
		return nil
	}
	out := *seat
	if seat.UserID != nil {
		u := *seat.UserID
		out.UserID = &u
	}
	return &out
}

func (s *InMemorySubscriptionStore) CreateSeat(ctx context.Context, seat *subscription.Seat) error {
	return s.seats.Create(ctx, seat.ID, copySeat(seat))
}

func (s *InMemorySubscriptionStore) UpdateSeat(ctx context.Context, seat *subscription.Seat) error {
	return s.seats.Update(ctx, seat.ID, copySeat(seat))
}

func (s *InMemorySubscriptionStore) GetActiveSeat(ctx context.Context, subscriptionID, normalizedEmail string) (*subscription.Seat, error) {
	matches, err := s.seats.List(ctx, func(ctx context.Context, seat *subscription.Seat) bool {
		return seat.SubscriptionID == subscriptionID &&
			seat.Email == normalizedEmail &&
			seat.IsActive()
	}, nil)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ierr.NewError("seat not found").
			WithHint("No active seat for this email").
			WithReportableDetails(map[string]any{"email": normalizedEmail}).
			Mark(ierr.ErrNotFound)
	}
	return copySeat(matches[0]), nil
}

func (s *InMemorySubscriptionStore) ListSeats(ctx context.Context, subscriptionID string) ([]*subscription.Seat, error) {
	matches, err := s.seats.List(ctx, func(ctx context.Context, seat *subscription.Seat) bool {
		return seat.SubscriptionID == subscriptionID
	}, func(i, j *subscription.Seat) bool {
		return i.CreatedAt.Before(j.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(matches, func(seat *subscription.Seat, _ int) *subscription.Seat {
		return copySeat(seat)
	}), nil
}

func (s *InMemorySubscriptionStore) CreateSeatLog(ctx context.Context, log *subscription.SeatActivityLog) error {
	copied := *log
	return s.seatLogs.Create(ctx, log.ID, &copied)
}

// SeatLogs returns every recorded seat activity entry, for assertions.
func (s *InMemorySubscriptionStore) SeatLogs(ctx context.Context) []*subscription.SeatActivityLog {
	logs, _ := s.seatLogs.List(ctx, nil, func(i, j *subscription.SeatActivityLog) bool {
		return i.At.Before(j.At)
	})
	return logs
}

func (s *InMemorySubscriptionStore) Clear() {
	s.subs.Clear()
	s.seats.Clear()
	s.seatLogs.Clear()
}

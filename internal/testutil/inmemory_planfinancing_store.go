package testutil

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/academypay/academypay/internal/domain/planfinancing"
	ierr "github.com/academypay/academypay/internal/errors"
	"github.com/academypay/academypay/internal/types"
)

// InMemoryPlanFinancingStore implements planfinancing.Repository
type InMemoryPlanFinancingStore struct {
	*InMemoryStore[*planfinancing.PlanFinancing]
}

func NewInMemoryPlanFinancingStore() *InMemoryPlanFinancingStore {
	return &InMemoryPlanFinancingStore{
		InMemoryStore: NewInMemoryStore[*planfinancing.PlanFinancing](),
	}
}

func copyPlanFinancing(pf *planfinancing.PlanFinancing) *planfinancing.PlanFinancing {
	if pf == nil {
		return nil
	}
	out := *pf
	out.CouponIDs = append([]string(nil), pf.CouponIDs...)
	return &out
}

func (s *InMemoryPlanFinancingStore) Create(ctx context.Context, pf *planfinancing.PlanFinancing) error {
	return s.InMemoryStore.Create(ctx, pf.ID, copyPlanFinancing(pf))
}

func (s *InMemoryPlanFinancingStore) Get(ctx context.Context, id string) (*planfinancing.PlanFinancing, error) {
	pf, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return copyPlanFinancing(pf), nil
}

func (s *InMemoryPlanFinancingStore) Update(ctx context.Context, pf *planfinancing.PlanFinancing) error {
	return s.InMemoryStore.Update(ctx, pf.ID, copyPlanFinancing(pf))
}

func (s *InMemoryPlanFinancingStore) ExistsForUserPlan(ctx context.Context, userID, planID string) (bool, error) {
	count, err := s.InMemoryStore.Count(ctx, func(ctx context.Context, pf *planfinancing.PlanFinancing) bool {
		return pf.UserID == userID &&
			pf.PlanID == planID &&
			pf.Status != types.PlanFinancingStatusCancelled
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *InMemoryPlanFinancingStore) GetByBag(ctx context.Context, bagID string) (*planfinancing.PlanFinancing, error) {
	matches, err := s.InMemoryStore.List(ctx, func(ctx context.Context, pf *planfinancing.PlanFinancing) bool {
		return pf.BagID == bagID
	}, nil)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ierr.NewError("no financing for bag").
			WithHint("Plan financing not found").
			Mark(ierr.ErrNotFound)
	}
	return copyPlanFinancing(matches[0]), nil
}

func (s *InMemoryPlanFinancingStore) ListDue(ctx context.Context, now time.Time, lookahead time.Duration, limit, offset int) ([]*planfinancing.PlanFinancing, error) {
	horizon := now.Add(lookahead)
	matches, err := s.InMemoryStore.List(ctx, func(ctx context.Context, pf *planfinancing.PlanFinancing) bool {
		switch pf.Status {
		case types.PlanFinancingStatusActive, types.PlanFinancingStatusPaymentIssue:
		default:
			return false
		}
		return !pf.IsFullyPaid() && !pf.IsOverAt(now) && !pf.NextPaymentAt.After(horizon)
	}, func(i, j *planfinancing.PlanFinancing) bool {
		return i.NextPaymentAt.Before(j.NextPaymentAt)
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(paginate(matches, limit, offset), func(pf *planfinancing.PlanFinancing, _ int) *planfinancing.PlanFinancing {
		return copyPlanFinancing(pf)
	}), nil
}

func (s *InMemoryPlanFinancingStore) ListExpired(ctx context.Context, now time.Time, limit, offset int) ([]*planfinancing.PlanFinancing, error) {
	matches, err := s.InMemoryStore.List(ctx, func(ctx context.Context, pf *planfinancing.PlanFinancing) bool {
		switch pf.Status {
		case types.PlanFinancingStatusCancelled,
			types.PlanFinancingStatusDeprecated,
			types.PlanFinancingStatusExpired,
			types.PlanFinancingStatusFullyPaid:
			return false
		}
		return pf.IsOverAt(now)
	}, func(i, j *planfinancing.PlanFinancing) bool {
		return i.ID < j.ID
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(paginate(matches, limit, offset), func(pf *planfinancing.PlanFinancing, _ int) *planfinancing.PlanFinancing {
		return copyPlanFinancing(pf)
	}), nil
}

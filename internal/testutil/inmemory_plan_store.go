package testutil

import (
	"context"

	"github.com/academypay/academypay/internal/domain/plan"
	ierr "github.com/academypay/academypay/internal/errors"
)

// InMemoryPlanStore implements plan.Repository
type InMemoryPlanStore struct {
	*InMemoryStore[*plan.Plan]
}

func NewInMemoryPlanStore() *InMemoryPlanStore {
	return &InMemoryPlanStore{
		InMemoryStore: NewInMemoryStore[*plan.Plan](),
	}
}

func copyPlan(p *plan.Plan) *plan.Plan {
	if p == nil {
		return nil
	}
	out := *p
	out.FinancingOptions = append([]plan.FinancingOption(nil), p.FinancingOptions...)
	out.AddOns = append([]plan.AddOn(nil), p.AddOns...)
	out.ServiceItemIDs = append([]string(nil), p.ServiceItemIDs...)
	out.PricingOverrides = append([]plan.PricingOverride(nil), p.PricingOverrides...)
	return &out
}

func (s *InMemoryPlanStore) Create(ctx context.Context, p *plan.Plan) error {
	return s.InMemoryStore.Create(ctx, p.ID, copyPlan(p))
}

func (s *InMemoryPlanStore) Get(ctx context.Context, id string) (*plan.Plan, error) {
	p, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return copyPlan(p), nil
}

func (s *InMemoryPlanStore) GetByIDOrSlug(ctx context.Context, ref string) (*plan.Plan, error) {
	if p, err := s.InMemoryStore.Get(ctx, ref); err == nil {
		return copyPlan(p), nil
	}
	matches, err := s.InMemoryStore.List(ctx, func(ctx context.Context, p *plan.Plan) bool {
		return p.Slug == ref
	}, nil)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ierr.NewError("plan not found").
			WithHint("Plan not found").
			WithReportableDetails(map[string]any{"ref": ref}).
			Mark(ierr.ErrNotFound)
	}
	return copyPlan(matches[0]), nil
}

func (s *InMemoryPlanStore) Update(ctx context.Context, p *plan.Plan) error {
	return s.InMemoryStore.Update(ctx, p.ID, copyPlan(p))
}
